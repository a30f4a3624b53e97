// Package testdb encodes byte-exact SQLite database images for tests.
//
// The encoders write the on-disk format directly, so decoder tests do not
// depend on any SQLite engine. Build lays out a whole file from table
// definitions; Record, LeafTableCell, Page and File are the pieces it is
// made of, for tests that need hand-made or corrupt pages.
package testdb

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/FocuswithJustin/sqlitecat/core/sqlite/internal/format"
)

// Record encodes values as a record. Supported values are nil, int, int64,
// float64, string and []byte. Strings are stored in enc.
func Record(enc format.Encoding, values ...any) []byte {
	var types, data []byte
	for _, v := range values {
		switch x := v.(type) {
		case nil:
			types = format.AppendVarint(types, 0)
		case int:
			types, data = appendInt(types, data, int64(x))
		case int64:
			types, data = appendInt(types, data, x)
		case float64:
			types = format.AppendVarint(types, 7)
			data = binary.BigEndian.AppendUint64(data, math.Float64bits(x))
		case string:
			b := format.EncodeText(x, enc)
			types = format.AppendVarint(types, format.TextSerialType(len(b)))
			data = append(data, b...)
		case []byte:
			types = format.AppendVarint(types, format.BlobSerialType(len(x)))
			data = append(data, x...)
		default:
			panic(fmt.Sprintf("testdb: unsupported value %T", v))
		}
	}

	// the header size counts its own varint
	n := 1
	for format.VarintLen(uint64(len(types)+n)) != n {
		n++
	}
	out := format.AppendVarint(nil, uint64(len(types)+n))
	out = append(out, types...)
	return append(out, data...)
}

func appendInt(types, data []byte, v int64) ([]byte, []byte) {
	st := format.IntSerialType(v)
	return format.AppendVarint(types, st), format.AppendInt(data, st, v)
}

// LeafTableCell encodes a table leaf cell holding record under rowid.
func LeafTableCell(rowid int64, record []byte) []byte {
	cell := format.AppendVarint(nil, uint64(len(record)))
	cell = format.AppendVarint(cell, uint64(rowid))
	return append(cell, record...)
}

// InteriorTableCell encodes a table interior cell.
func InteriorTableCell(child uint32, key int64) []byte {
	cell := binary.BigEndian.AppendUint32(nil, child)
	return format.AppendVarint(cell, uint64(key))
}

// Page encodes one b-tree page of the given type. Cells are packed at the end
// of the page in reverse so that cell 0 has the highest offset, the way
// SQLite fills pages. On page 1 the first 100 bytes are left for the file
// header. rightChild is written only for interior pages.
func Page(pageType byte, pageSize int, first bool, cells [][]byte, rightChild uint32) []byte {
	data := make([]byte, pageSize)
	base := 0
	if first {
		base = format.HeaderSize
	}
	hdrSize := format.BtreeHeaderSizeLeaf
	if pageType == format.PageTypeInteriorTable || pageType == format.PageTypeInteriorIndex {
		hdrSize = format.BtreeHeaderSizeInterior
		binary.BigEndian.PutUint32(data[base+format.BtreeRightmostPointer:], rightChild)
	}

	data[base] = pageType
	binary.BigEndian.PutUint16(data[base+format.BtreeCellCount:], uint16(len(cells)))

	content := pageSize
	ptr := base + hdrSize
	for _, c := range cells {
		content -= len(c)
		if content < ptr+2 {
			panic(fmt.Sprintf("testdb: %d cells do not fit in a %d-byte page", len(cells), pageSize))
		}
		copy(data[content:], c)
		binary.BigEndian.PutUint16(data[ptr:], uint16(content))
		ptr += 2
	}
	if content == pageSize {
		content = 0
	}
	binary.BigEndian.PutUint16(data[base+format.BtreeCellContentStart:], uint16(content))
	return data
}

// Fits reports whether cells fit on one page.
func Fits(pageType byte, pageSize int, first bool, cells [][]byte) bool {
	used := format.BtreeHeaderSizeLeaf
	if pageType == format.PageTypeInteriorTable || pageType == format.PageTypeInteriorIndex {
		used = format.BtreeHeaderSizeInterior
	}
	if first {
		used += format.HeaderSize
	}
	for _, c := range cells {
		used += len(c) + 2
	}
	return used <= pageSize
}

// File concatenates pages and writes h over the start of page 1, with the
// page size and page count filled in.
func File(h *format.Header, pages ...[]byte) []byte {
	var out []byte
	for _, p := range pages {
		out = append(out, p...)
	}
	hdr := *h
	hdr.DatabaseSize = uint32(len(pages))
	copy(out, hdr.Serialize())
	return out
}

// WriteFile writes data to a file in a fresh temporary directory and returns
// its path.
func WriteFile(tb testing.TB, data []byte) string {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), "test.db")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
	return path
}
