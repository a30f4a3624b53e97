// Package cas computes the content digests used to identify database
// images. Every digest pairs SHA-256 with BLAKE3.
package cas

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	"github.com/zeebo/blake3"
)

// HashResult contains both SHA-256 and BLAKE3 hashes of a byte stream.
type HashResult struct {
	SHA256 string `json:"sha256"`
	BLAKE3 string `json:"blake3"`
	Size   int64  `json:"size"`
}

// Hasher computes SHA-256 and BLAKE3 over everything written to it.
type Hasher struct {
	sha hash.Hash
	b3  *blake3.Hasher
	n   int64
}

// NewHasher returns an empty Hasher.
func NewHasher() *Hasher {
	return &Hasher{sha: sha256.New(), b3: blake3.New()}
}

// Write adds p to both digests. It never fails.
func (h *Hasher) Write(p []byte) (int, error) {
	h.sha.Write(p)
	h.b3.Write(p)
	h.n += int64(len(p))
	return len(p), nil
}

// Sum returns the digests of the bytes written so far.
func (h *Hasher) Sum() *HashResult {
	return &HashResult{
		SHA256: hex.EncodeToString(h.sha.Sum(nil)),
		BLAKE3: hex.EncodeToString(h.b3.Sum(nil)),
		Size:   h.n,
	}
}

// HashReader digests everything read from r.
func HashReader(r io.Reader) (*HashResult, error) {
	h := NewHasher()
	if _, err := io.Copy(h, r); err != nil {
		return nil, fmt.Errorf("failed to hash stream: %w", err)
	}
	return h.Sum(), nil
}

// Hash computes the SHA-256 hash of the given data.
func Hash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Blake3Hash computes the BLAKE3 hash of the given data.
func Blake3Hash(data []byte) string {
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:])
}

// String renders both digests on one line.
func (r *HashResult) String() string {
	return fmt.Sprintf("sha256:%s blake3:%s", r.SHA256, r.BLAKE3)
}
