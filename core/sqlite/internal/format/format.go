package format

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/FocuswithJustin/sqlitecat/core/errors"
)

// SQLite file format constants
const (
	// HeaderSize is the database header size in bytes (first 100 bytes of the database file).
	HeaderSize = 100

	// MagicString is the magic header string for SQLite 3 database files.
	// Must be exactly 16 bytes including the null terminator.
	MagicString = "SQLite format 3\000"

	// DefaultPageSize is the default page size for new databases (4096 bytes).
	DefaultPageSize = 4096

	// MinPageSize is the minimum allowed page size (512 bytes).
	MinPageSize = 512

	// MaxPageSize is the maximum allowed page size (65536 bytes).
	MaxPageSize = 65536
)

// Header offsets - byte positions in the 100-byte database header
const (
	// OffsetMagic is the offset of the magic header string (16 bytes).
	OffsetMagic = 0

	// OffsetPageSize is the offset of the page size field (2 bytes big-endian).
	// A value of 1 represents 65536 bytes.
	OffsetPageSize = 16

	// OffsetWriteVersion is the file format write version (1 byte).
	OffsetWriteVersion = 18

	// OffsetReadVersion is the file format read version (1 byte).
	OffsetReadVersion = 19

	// OffsetReservedSpace is the reserved space at end of each page (1 byte).
	OffsetReservedSpace = 20

	OffsetMaxPayloadFrac  = 21
	OffsetMinPayloadFrac  = 22
	OffsetLeafPayloadFrac = 23

	// OffsetFileChangeCounter is the file change counter (4 bytes big-endian).
	OffsetFileChangeCounter = 24

	// OffsetDatabaseSize is the database size in pages (4 bytes big-endian).
	OffsetDatabaseSize = 28

	OffsetFirstFreelist    = 32
	OffsetFreelistCount    = 36
	OffsetSchemaCookie     = 40
	OffsetSchemaFormat     = 44
	OffsetDefaultCacheSize = 48
	OffsetLargestRootPage  = 52

	// OffsetTextEncoding is the database text encoding (4 bytes big-endian).
	// 1 = UTF-8, 2 = UTF-16le, 3 = UTF-16be.
	OffsetTextEncoding = 56

	OffsetUserVersion     = 60
	OffsetIncrVacuum      = 64
	OffsetAppID           = 68
	OffsetReserved        = 72
	OffsetVersionValidFor = 92
	OffsetSQLiteVersion   = 96
)

// Page types - first byte of B-tree page header
const (
	// PageTypeInteriorIndex is an interior index b-tree page (0x02).
	PageTypeInteriorIndex = 0x02

	// PageTypeInteriorTable is an interior table b-tree page (0x05).
	PageTypeInteriorTable = 0x05

	// PageTypeLeafIndex is a leaf index b-tree page (0x0a).
	PageTypeLeafIndex = 0x0a

	// PageTypeLeafTable is a leaf table b-tree page (0x0d).
	PageTypeLeafTable = 0x0d
)

// B-tree page header offsets
const (
	BtreePageType         = 0
	BtreeFirstFreeblock   = 1
	BtreeCellCount        = 3
	BtreeCellContentStart = 5
	BtreeFragmentedBytes  = 7

	// BtreeRightmostPointer is the right-most child pointer (4 bytes big-endian).
	// Only present in interior pages.
	BtreeRightmostPointer = 8
)

// B-tree page header sizes
const (
	BtreeHeaderSizeLeaf     = 8
	BtreeHeaderSizeInterior = 12
)

// Header represents the 100-byte SQLite database file header.
type Header struct {
	// Magic is the magic header string ("SQLite format 3\x00").
	Magic [16]byte

	// PageSize is the raw page size field. 1 represents 65536; use GetPageSize.
	PageSize uint16

	WriteVersion uint8
	ReadVersion  uint8

	// ReservedSpace is the number of bytes of unused space at the end of each page.
	ReservedSpace uint8

	MaxPayloadFrac  uint8
	MinPayloadFrac  uint8
	LeafPayloadFrac uint8

	FileChangeCounter uint32

	// DatabaseSize is the size of the database file in pages.
	DatabaseSize uint32

	FirstFreelist    uint32
	FreelistCount    uint32
	SchemaCookie     uint32
	SchemaFormat     uint32
	DefaultCacheSize uint32
	LargestRootPage  uint32

	// TextEncoding is the database text encoding (1=UTF-8, 2=UTF-16le, 3=UTF-16be).
	TextEncoding uint32

	UserVersion     uint32
	IncrVacuum      uint32
	AppID           uint32
	Reserved        [20]byte
	VersionValidFor uint32

	// SQLiteVersion is the SQLite version number that wrote the database.
	SQLiteVersion uint32

	// Raw is the header block exactly as read, for fields not decoded above.
	Raw [HeaderSize]byte
}

// Parse parses the 100-byte database header from raw bytes.
// Only the magic string and the page size are validated; every other field is
// taken as stored.
func (h *Header) Parse(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("%w: got %d bytes, want %d", errors.ErrTooSmallForHeader, len(data), HeaderSize)
	}
	copy(h.Raw[:], data[:HeaderSize])

	copy(h.Magic[:], data[OffsetMagic:OffsetMagic+16])
	if string(h.Magic[:]) != MagicString {
		return fmt.Errorf("%w: got %q", errors.ErrInvalidMagic, h.Magic[:])
	}

	h.PageSize = binary.BigEndian.Uint16(data[OffsetPageSize:])
	if h.PageSize != 1 && !IsValidPageSize(int(h.PageSize)) {
		return fmt.Errorf("%w: %d", errors.ErrInvalidPageSize, h.PageSize)
	}

	h.WriteVersion = data[OffsetWriteVersion]
	h.ReadVersion = data[OffsetReadVersion]
	h.ReservedSpace = data[OffsetReservedSpace]
	h.MaxPayloadFrac = data[OffsetMaxPayloadFrac]
	h.MinPayloadFrac = data[OffsetMinPayloadFrac]
	h.LeafPayloadFrac = data[OffsetLeafPayloadFrac]

	u32 := func(off int) uint32 { return binary.BigEndian.Uint32(data[off : off+4]) }
	h.FileChangeCounter = u32(OffsetFileChangeCounter)
	h.DatabaseSize = u32(OffsetDatabaseSize)
	h.FirstFreelist = u32(OffsetFirstFreelist)
	h.FreelistCount = u32(OffsetFreelistCount)
	h.SchemaCookie = u32(OffsetSchemaCookie)
	h.SchemaFormat = u32(OffsetSchemaFormat)
	h.DefaultCacheSize = u32(OffsetDefaultCacheSize)
	h.LargestRootPage = u32(OffsetLargestRootPage)
	h.TextEncoding = u32(OffsetTextEncoding)
	h.UserVersion = u32(OffsetUserVersion)
	h.IncrVacuum = u32(OffsetIncrVacuum)
	h.AppID = u32(OffsetAppID)
	h.VersionValidFor = u32(OffsetVersionValidFor)
	h.SQLiteVersion = u32(OffsetSQLiteVersion)

	copy(h.Reserved[:], data[OffsetReserved:OffsetReserved+20])
	return nil
}

// Serialize serializes the database header to 100 bytes.
func (h *Header) Serialize() []byte {
	data := make([]byte, HeaderSize)

	copy(data[OffsetMagic:], h.Magic[:])
	binary.BigEndian.PutUint16(data[OffsetPageSize:], h.PageSize)

	data[OffsetWriteVersion] = h.WriteVersion
	data[OffsetReadVersion] = h.ReadVersion
	data[OffsetReservedSpace] = h.ReservedSpace
	data[OffsetMaxPayloadFrac] = h.MaxPayloadFrac
	data[OffsetMinPayloadFrac] = h.MinPayloadFrac
	data[OffsetLeafPayloadFrac] = h.LeafPayloadFrac

	binary.BigEndian.PutUint32(data[OffsetFileChangeCounter:], h.FileChangeCounter)
	binary.BigEndian.PutUint32(data[OffsetDatabaseSize:], h.DatabaseSize)
	binary.BigEndian.PutUint32(data[OffsetFirstFreelist:], h.FirstFreelist)
	binary.BigEndian.PutUint32(data[OffsetFreelistCount:], h.FreelistCount)
	binary.BigEndian.PutUint32(data[OffsetSchemaCookie:], h.SchemaCookie)
	binary.BigEndian.PutUint32(data[OffsetSchemaFormat:], h.SchemaFormat)
	binary.BigEndian.PutUint32(data[OffsetDefaultCacheSize:], h.DefaultCacheSize)
	binary.BigEndian.PutUint32(data[OffsetLargestRootPage:], h.LargestRootPage)
	binary.BigEndian.PutUint32(data[OffsetTextEncoding:], h.TextEncoding)
	binary.BigEndian.PutUint32(data[OffsetUserVersion:], h.UserVersion)
	binary.BigEndian.PutUint32(data[OffsetIncrVacuum:], h.IncrVacuum)
	binary.BigEndian.PutUint32(data[OffsetAppID:], h.AppID)
	binary.BigEndian.PutUint32(data[OffsetVersionValidFor:], h.VersionValidFor)
	binary.BigEndian.PutUint32(data[OffsetSQLiteVersion:], h.SQLiteVersion)

	copy(data[OffsetReserved:], h.Reserved[:])
	return data
}

// NewHeader creates a new database header with default values.
func NewHeader(pageSize int) *Header {
	var pageSizeVal uint16
	if pageSize == MaxPageSize {
		pageSizeVal = 1
	} else {
		pageSizeVal = uint16(pageSize)
	}

	h := &Header{
		PageSize:        pageSizeVal,
		WriteVersion:    1,
		ReadVersion:     1,
		MaxPayloadFrac:  64,
		MinPayloadFrac:  32,
		LeafPayloadFrac: 32,
		SchemaFormat:    4,
		TextEncoding:    uint32(EncodingUTF8),
		SQLiteVersion:   3051020,
	}
	copy(h.Magic[:], MagicString)
	return h
}

// GetPageSize returns the actual page size in bytes.
func (h *Header) GetPageSize() int {
	if h.PageSize == 1 {
		return MaxPageSize
	}
	return int(h.PageSize)
}

// UsableSize returns the page size minus the reserved bytes at the end of
// every page.
func (h *Header) UsableSize() int {
	return h.GetPageSize() - int(h.ReservedSpace)
}

// Encoding returns the text encoding, defaulting to UTF-8 for the zero value
// some writers leave in empty databases.
func (h *Header) Encoding() Encoding {
	if h.TextEncoding == 0 {
		return EncodingUTF8
	}
	return Encoding(h.TextEncoding)
}

// SQLiteVersionString renders SQLiteVersion as "X.Y.Z".
func (h *Header) SQLiteVersionString() string {
	v := h.SQLiteVersion
	return fmt.Sprintf("%d.%d.%d", v/1000000, (v/1000)%1000, v%1000)
}

// IsValidPageSize reports whether size is a power of two in [512, 65536].
func IsValidPageSize(size int) bool {
	if size < MinPageSize || size > MaxPageSize {
		return false
	}
	return bits.OnesCount(uint(size)) == 1
}

// PageTypeName returns a human-readable name for a page type byte.
func PageTypeName(t byte) string {
	switch t {
	case PageTypeInteriorIndex:
		return "interior index"
	case PageTypeInteriorTable:
		return "interior table"
	case PageTypeLeafIndex:
		return "leaf index"
	case PageTypeLeafTable:
		return "leaf table"
	default:
		return fmt.Sprintf("unknown (0x%02x)", t)
	}
}
