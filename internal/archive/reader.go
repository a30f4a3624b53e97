// Package archive reads database files stored plain or compressed.
// It supports gzip (.gz) and xz (.xz) compression, chosen by file suffix.
package archive

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"
)

// ErrTooLarge is returned when a decompressed file exceeds the read limit.
var ErrTooLarge = errors.New("decompressed size exceeds limit")

// Compression identifies how a file is stored.
type Compression int

const (
	// None is an uncompressed file.
	None Compression = iota
	// Gzip is a gzip stream.
	Gzip
	// XZ is an xz stream.
	XZ
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case XZ:
		return "xz"
	default:
		return "none"
	}
}

// DetectCompression returns the compression implied by path's suffix.
func DetectCompression(path string) Compression {
	switch {
	case strings.HasSuffix(path, ".xz"):
		return XZ
	case strings.HasSuffix(path, ".gz"):
		return Gzip
	default:
		return None
	}
}

// NewReader wraps r with the decompressor for c. Closing the result
// releases the decompressor but not r.
func NewReader(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case XZ:
		xzr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		return io.NopCloser(xzr), nil // xz reader doesn't need closing
	case Gzip:
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		return gzr, nil
	default:
		return io.NopCloser(r), nil
	}
}

// ReadAll decompresses the file at path into memory. More than limit
// decompressed bytes fail with ErrTooLarge. Errors opening the file are
// returned unwrapped so callers can inspect them with os.IsNotExist.
func ReadAll(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c := DetectCompression(path)
	r, err := NewReader(f, c)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read %s stream: %w", c, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s holds more than %d bytes", ErrTooLarge, path, limit)
	}
	return data, nil
}
