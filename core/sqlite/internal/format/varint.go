package format

import (
	"github.com/FocuswithJustin/sqlitecat/core/errors"
)

// Variable-length integer encoding/decoding (SQLite format)

// MaxVarintLen is the longest encoding of a 64-bit varint.
const MaxVarintLen = 9

// ReadVarint reads a 64-bit variable-length integer from the start of p and
// returns the value and the number of bytes read. It fails with
// ErrTruncatedVarint when p ends before the terminating byte.
func ReadVarint(p []byte) (uint64, int, error) {
	// Fast path for 1-byte case
	if len(p) > 0 && p[0] < 0x80 {
		return uint64(p[0]), 1, nil
	}

	var v uint64
	for i := 0; i < MaxVarintLen; i++ {
		if i >= len(p) {
			return 0, 0, errors.ErrTruncatedVarint
		}
		b := p[i]
		if i == MaxVarintLen-1 {
			// 9th byte: all 8 bits are used
			return (v << 8) | uint64(b), MaxVarintLen, nil
		}
		v = (v << 7) | uint64(b&0x7f)
		if b < 0x80 {
			return v, i + 1, nil
		}
	}
	// unreachable: the loop returns on the 9th byte
	return 0, 0, errors.ErrTruncatedVarint
}

// PutVarint writes a 64-bit unsigned integer to p and returns the number of bytes written.
// p must have room for VarintLen(v) bytes.
//   - Lower 7 bits of each byte are used for data
//   - High bit (0x80) set on all bytes except the last
//   - Most significant byte first (big-endian)
//   - Maximum of 9 bytes (last byte uses all 8 bits)
func PutVarint(p []byte, v uint64) int {
	if v <= 0x7f {
		p[0] = byte(v)
		return 1
	}
	if v&(uint64(0xff000000)<<32) != 0 {
		// 9-byte case: all 8 bits of the 9th byte are used
		p[8] = byte(v)
		v >>= 8
		for i := 7; i >= 0; i-- {
			p[i] = byte((v & 0x7f) | 0x80)
			v >>= 7
		}
		return 9
	}

	n := VarintLen(v)
	for i := n - 1; i >= 0; i-- {
		shift := uint(i * 7)
		b := byte((v >> shift) & 0x7f)
		if i > 0 {
			b |= 0x80
		}
		p[n-1-i] = b
	}
	return n
}

// AppendVarint appends the varint encoding of v to dst.
func AppendVarint(dst []byte, v uint64) []byte {
	var buf [MaxVarintLen]byte
	n := PutVarint(buf[:], v)
	return append(dst, buf[:n]...)
}

// VarintLen returns the number of bytes needed to encode v.
func VarintLen(v uint64) int {
	if v&(uint64(0xff000000)<<32) != 0 {
		return 9
	}
	n := 1
	for v >>= 7; v > 0; v >>= 7 {
		n++
	}
	return n
}
