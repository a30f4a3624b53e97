package format

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/FocuswithJustin/sqlitecat/core/errors"
)

// ColumnKind is the storage class of one record column.
type ColumnKind int

const (
	KindNull ColumnKind = iota
	KindInteger
	KindReal
	KindZero
	KindOne
	KindText
	KindBlob
)

func (k ColumnKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindZero:
		return "constant 0"
	case KindOne:
		return "constant 1"
	case KindText:
		return "text"
	case KindBlob:
		return "blob"
	default:
		return fmt.Sprintf("ColumnKind(%d)", int(k))
	}
}

// ColumnType is a decoded serial type. Size is the exact number of data bytes
// the column occupies: the integer width for KindInteger, 8 for KindReal, the
// payload length for text and blobs and 0 otherwise.
type ColumnType struct {
	Kind   ColumnKind
	Size   uint64
	Serial uint64
}

// ColumnTypeFromSerial maps a serial type code to a column type.
// Codes 10 and 11 are reserved and fail with ErrReservedSerialType.
func ColumnTypeFromSerial(code uint64) (ColumnType, error) {
	ct := ColumnType{Serial: code}
	switch {
	case code == 0:
		ct.Kind = KindNull
	case code >= 1 && code <= 4:
		ct.Kind, ct.Size = KindInteger, code
	case code == 5:
		ct.Kind, ct.Size = KindInteger, 6
	case code == 6:
		ct.Kind, ct.Size = KindInteger, 8
	case code == 7:
		ct.Kind, ct.Size = KindReal, 8
	case code == 8:
		ct.Kind = KindZero
	case code == 9:
		ct.Kind = KindOne
	case code == 10 || code == 11:
		return ColumnType{}, fmt.Errorf("%w: %d", errors.ErrReservedSerialType, code)
	case code%2 == 0:
		ct.Kind, ct.Size = KindBlob, (code-12)/2
	default:
		ct.Kind, ct.Size = KindText, (code-13)/2
	}
	return ct, nil
}

// DataSize returns the on-disk width of the column's data.
func (c ColumnType) DataSize() uint64 {
	return c.Size
}

// RecordHeader is the decoded header of one record.
type RecordHeader struct {
	// Columns holds one type per column in declaration order.
	Columns []ColumnType

	// DataStart is the absolute offset in the buffer where column data begins.
	DataStart int
}

// ParseRecordHeader decodes the record header that starts at buf[start].
// The header size varint counts from start inclusive. Decoding fails with
// ErrRecordHeaderInconsistent when the serial types overrun the header
// boundary or when the column data would run past the end of buf.
func ParseRecordHeader(buf []byte, start int) (*RecordHeader, error) {
	if start < 0 || start >= len(buf) {
		return nil, fmt.Errorf("%w: record starts at %d, buffer is %d bytes",
			errors.ErrRecordHeaderInconsistent, start, len(buf))
	}
	hdrSize, n, err := ReadVarint(buf[start:])
	if err != nil {
		return nil, err
	}
	if hdrSize < uint64(n) || hdrSize > uint64(len(buf)-start) {
		return nil, fmt.Errorf("%w: header size %d", errors.ErrRecordHeaderInconsistent, hdrSize)
	}

	end := start + int(hdrSize)
	pos := start + n
	h := &RecordHeader{DataStart: end}
	var total uint64
	for pos < end {
		code, m, err := ReadVarint(buf[pos:end])
		if err != nil {
			return nil, fmt.Errorf("%w: serial type at %d crosses header boundary %d",
				errors.ErrRecordHeaderInconsistent, pos, end)
		}
		ct, err := ColumnTypeFromSerial(code)
		if err != nil {
			return nil, err
		}
		if ct.Size > uint64(len(buf)-end)-total {
			return nil, fmt.Errorf("%w: column %d needs %d bytes, %d remain after offset %d",
				errors.ErrRecordHeaderInconsistent, len(h.Columns), ct.Size, uint64(len(buf)-end)-total, end)
		}
		h.Columns = append(h.Columns, ct)
		total += ct.Size
		pos += m
	}

	return h, nil
}

// ColumnCount returns the number of columns in the record.
func (h *RecordHeader) ColumnCount() int {
	return len(h.Columns)
}

// ColumnOffset returns the absolute offset of column i's data.
func (h *RecordHeader) ColumnOffset(i int) (int, error) {
	if i < 0 || i >= len(h.Columns) {
		return 0, fmt.Errorf("%w: %d of %d", errors.ErrColumnIndexOutOfBounds, i, len(h.Columns))
	}
	off := h.DataStart
	for _, c := range h.Columns[:i] {
		off += int(c.Size)
	}
	return off, nil
}

// Column returns column i's type and data bytes.
func (h *RecordHeader) Column(buf []byte, i int) (ColumnType, []byte, error) {
	off, err := h.ColumnOffset(i)
	if err != nil {
		return ColumnType{}, nil, err
	}
	c := h.Columns[i]
	return c, buf[off : off+int(c.Size)], nil
}

// DecodeInt decodes an integer column. Constant 0 and 1 columns decode to
// their value without reading data.
func DecodeInt(c ColumnType, data []byte) (int64, error) {
	switch c.Kind {
	case KindZero:
		return 0, nil
	case KindOne:
		return 1, nil
	case KindInteger:
	default:
		return 0, fmt.Errorf("%w: %s is not an integer", errors.ErrUnsupportedColumnType, c.Kind)
	}
	if uint64(len(data)) < c.Size {
		return 0, errors.ErrRecordHeaderInconsistent
	}

	switch c.Size {
	case 1:
		return int64(int8(data[0])), nil
	case 2:
		return int64(int16(binary.BigEndian.Uint16(data))), nil
	case 3:
		v := int32(data[0])<<16 | int32(data[1])<<8 | int32(data[2])
		if v&0x800000 != 0 {
			v |= ^0xffffff
		}
		return int64(v), nil
	case 4:
		return int64(int32(binary.BigEndian.Uint32(data))), nil
	case 6:
		v := int64(data[0])<<40 | int64(data[1])<<32 |
			int64(data[2])<<24 | int64(data[3])<<16 |
			int64(data[4])<<8 | int64(data[5])
		if v&0x800000000000 != 0 {
			v |= ^0xffffffffffff
		}
		return v, nil
	case 8:
		return int64(binary.BigEndian.Uint64(data)), nil
	default:
		return 0, fmt.Errorf("%w: integer width %d", errors.ErrUnsupportedColumnType, c.Size)
	}
}

// DecodeFloat decodes a big-endian IEEE-754 double column.
func DecodeFloat(c ColumnType, data []byte) (float64, error) {
	if c.Kind != KindReal {
		return 0, fmt.Errorf("%w: %s is not a real", errors.ErrUnsupportedColumnType, c.Kind)
	}
	if len(data) < 8 {
		return 0, errors.ErrRecordHeaderInconsistent
	}
	return math.Float64frombits(binary.BigEndian.Uint64(data)), nil
}

// IntSerialType returns the smallest serial type that holds v.
func IntSerialType(v int64) uint64 {
	switch {
	case v == 0:
		return 8
	case v == 1:
		return 9
	case v >= -128 && v <= 127:
		return 1
	case v >= -32768 && v <= 32767:
		return 2
	case v >= -8388608 && v <= 8388607:
		return 3
	case v >= math.MinInt32 && v <= math.MaxInt32:
		return 4
	case v >= -140737488355328 && v <= 140737488355327:
		return 5
	default:
		return 6
	}
}

// TextSerialType returns the serial type of an n-byte text value.
func TextSerialType(n int) uint64 {
	return uint64(n)*2 + 13
}

// BlobSerialType returns the serial type of an n-byte blob value.
func BlobSerialType(n int) uint64 {
	return uint64(n)*2 + 12
}

// AppendInt appends v in the width of serial type st.
func AppendInt(dst []byte, st uint64, v int64) []byte {
	ct, err := ColumnTypeFromSerial(st)
	if err != nil || ct.Kind != KindInteger {
		return dst
	}
	for i := int(ct.Size) - 1; i >= 0; i-- {
		dst = append(dst, byte(v>>(8*uint(i))))
	}
	return dst
}
