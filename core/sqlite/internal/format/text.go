package format

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/FocuswithJustin/sqlitecat/core/errors"
)

// Encoding is the database text encoding stored at header offset 56.
type Encoding uint32

// Text encodings - values for the OffsetTextEncoding field
const (
	EncodingUTF8    Encoding = 1
	EncodingUTF16LE Encoding = 2
	EncodingUTF16BE Encoding = 3
)

func (e Encoding) String() string {
	switch e {
	case EncodingUTF8:
		return "UTF-8"
	case EncodingUTF16LE:
		return "UTF-16le"
	case EncodingUTF16BE:
		return "UTF-16be"
	default:
		return fmt.Sprintf("unknown (%d)", uint32(e))
	}
}

// DecodeText converts the bytes of a text column stored in enc to a string.
// UTF-8 input that is not valid UTF-8 fails with ErrInvalidUTF8. UTF-16 input
// of odd length or with an unpaired surrogate fails with ErrInvalidUTF16.
func DecodeText(data []byte, enc Encoding) (string, error) {
	switch enc {
	case EncodingUTF16LE, EncodingUTF16BE:
		return decodeUTF16(data, enc)
	default:
		if !utf8.Valid(data) {
			return "", errors.ErrInvalidUTF8
		}
		return string(data), nil
	}
}

func decodeUTF16(data []byte, enc Encoding) (string, error) {
	if len(data)%2 != 0 {
		return "", fmt.Errorf("%w: odd length %d", errors.ErrInvalidUTF16, len(data))
	}
	var order binary.ByteOrder = binary.LittleEndian
	if enc == EncodingUTF16BE {
		order = binary.BigEndian
	}

	var sb strings.Builder
	sb.Grow(len(data))
	for i := 0; i < len(data); i += 2 {
		r := rune(order.Uint16(data[i:]))
		if utf16.IsSurrogate(r) {
			if i+4 > len(data) {
				return "", fmt.Errorf("%w: unpaired surrogate %#04x at byte %d", errors.ErrInvalidUTF16, r, i)
			}
			r = utf16.DecodeRune(r, rune(order.Uint16(data[i+2:])))
			if r == utf8.RuneError {
				return "", fmt.Errorf("%w: unpaired surrogate at byte %d", errors.ErrInvalidUTF16, i)
			}
			i += 2
		}
		sb.WriteRune(r)
	}
	return sb.String(), nil
}

// EncodeText converts s to the byte form stored for enc.
func EncodeText(s string, enc Encoding) []byte {
	switch enc {
	case EncodingUTF16LE, EncodingUTF16BE:
		units := utf16.Encode([]rune(s))
		out := make([]byte, 2*len(units))
		for i, u := range units {
			if enc == EncodingUTF16BE {
				binary.BigEndian.PutUint16(out[2*i:], u)
			} else {
				binary.LittleEndian.PutUint16(out[2*i:], u)
			}
		}
		return out
	default:
		return []byte(s)
	}
}
