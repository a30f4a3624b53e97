package btree

import (
	"encoding/binary"
	"fmt"

	"github.com/FocuswithJustin/sqlitecat/core/errors"
	"github.com/FocuswithJustin/sqlitecat/core/sqlite/internal/format"
	"github.com/FocuswithJustin/sqlitecat/core/sqlite/internal/pager"
)

// PageType is the first byte of a B-tree page header.
type PageType byte

// Page type constants (first byte of page header)
const (
	PageTypeInteriorIndex PageType = format.PageTypeInteriorIndex
	PageTypeInteriorTable PageType = format.PageTypeInteriorTable
	PageTypeLeafIndex     PageType = format.PageTypeLeafIndex
	PageTypeLeafTable     PageType = format.PageTypeLeafTable
)

func (t PageType) String() string {
	return format.PageTypeName(byte(t))
}

// IsLeaf reports whether pages of this type hold data rather than pointers.
func (t PageType) IsLeaf() bool {
	return t == PageTypeLeafTable || t == PageTypeLeafIndex
}

// IsTable reports whether pages of this type belong to a table b-tree.
func (t PageType) IsTable() bool {
	return t == PageTypeLeafTable || t == PageTypeInteriorTable
}

// PageHeader represents the parsed header of a B-tree page
type PageHeader struct {
	PageType         PageType
	FirstFreeblock   uint16
	NumCells         uint16
	CellContentStart uint16
	FragmentedBytes  byte

	// RightChild is the right-most child page number (interior pages only).
	RightChild uint32

	// HeaderSize is 8 for leaf pages and 12 for interior pages.
	HeaderSize int

	// CellPointers holds cell offsets into the page buffer in key order.
	// On page 1 they are rebased to exclude the 100-byte file header.
	CellPointers []uint16
}

// String returns a string representation of the page header
func (h *PageHeader) String() string {
	return fmt.Sprintf("PageHeader{type=%s, cells=%d, contentStart=%d, freeblock=%d, fragmented=%d}",
		h.PageType, h.NumCells, h.CellContentStart, h.FirstFreeblock, h.FragmentedBytes)
}

// Page is one parsed B-tree page. The concrete type is one of
// *LeafTablePage, *InteriorTablePage, *LeafIndexPage or *InteriorIndexPage.
type Page interface {
	// Number returns the page number the page was read from.
	Number() pager.Pgno

	// Header returns the parsed page header.
	Header() *PageHeader

	// CellCount returns the number of cells physically on this page. It is
	// not the row count of a multi-page table.
	CellCount() int

	sealed()
}

// page holds the state shared by every page kind.
type page struct {
	pgno   pager.Pgno
	data   []byte
	base   int
	usable int
	hdr    PageHeader
}

func (p *page) Number() pager.Pgno  { return p.pgno }
func (p *page) Header() *PageHeader { return &p.hdr }
func (p *page) CellCount() int      { return int(p.hdr.NumCells) }
func (p *page) sealed()             {}

// Data returns the page buffer the cell pointers index into.
func (p *page) Data() []byte { return p.data }

// decodeErr reports err at offset off, translated back to an on-disk page offset.
func (p *page) decodeErr(off int, err error) error {
	if off >= 0 {
		off += p.base
	}
	return errors.NewDecode(uint32(p.pgno), off, err)
}

// cellOffset returns the rebased offset of cell i.
func (p *page) cellOffset(i int) (int, error) {
	if i < 0 || i >= len(p.hdr.CellPointers) {
		return 0, p.decodeErr(-1, fmt.Errorf("%w: cell %d of %d",
			errors.ErrCellPointerOutOfBounds, i, len(p.hdr.CellPointers)))
	}
	return int(p.hdr.CellPointers[i]), nil
}

// LeafTablePage holds table rows.
type LeafTablePage struct{ page }

// InteriorTablePage holds child pointers of a table b-tree.
type InteriorTablePage struct{ page }

// LeafIndexPage is a leaf page of an index b-tree. Its cells are not decoded.
type LeafIndexPage struct{ page }

// InteriorIndexPage is an interior page of an index b-tree. Its cells are not decoded.
type InteriorIndexPage struct{ page }

// ParsePage parses a raw page buffer read from page pgno. usableSize is the
// page size minus the header's reserved bytes; 0 means the whole buffer.
//
// Page 1 begins with the 100-byte database header. It is skipped and every
// cell pointer is rebased so that it indexes the remaining bytes.
func ParsePage(data []byte, pgno pager.Pgno, usableSize int) (Page, error) {
	if usableSize <= 0 || usableSize > len(data) {
		usableSize = len(data)
	}
	p := page{pgno: pgno, data: data[:usableSize], usable: usableSize}
	if pgno == 1 {
		if len(p.data) < format.HeaderSize {
			return nil, p.decodeErr(0, fmt.Errorf("%w: page 1 is %d bytes", errors.ErrHeaderTooShort, len(p.data)))
		}
		p.base = format.HeaderSize
		p.data = p.data[format.HeaderSize:]
	}

	if err := p.parseHeader(); err != nil {
		return nil, err
	}

	switch p.hdr.PageType {
	case PageTypeLeafTable:
		return &LeafTablePage{p}, nil
	case PageTypeInteriorTable:
		return &InteriorTablePage{p}, nil
	case PageTypeLeafIndex:
		return &LeafIndexPage{p}, nil
	default:
		return &InteriorIndexPage{p}, nil
	}
}

func (p *page) parseHeader() error {
	d := p.data
	if len(d) < 1 {
		return p.decodeErr(0, errors.ErrHeaderTooShort)
	}

	t := PageType(d[format.BtreePageType])
	switch t {
	case PageTypeLeafTable, PageTypeLeafIndex:
		p.hdr.HeaderSize = format.BtreeHeaderSizeLeaf
	case PageTypeInteriorTable, PageTypeInteriorIndex:
		p.hdr.HeaderSize = format.BtreeHeaderSizeInterior
	default:
		return p.decodeErr(0, fmt.Errorf("%w: 0x%02x", errors.ErrInvalidPageType, byte(t)))
	}
	if len(d) < p.hdr.HeaderSize {
		return p.decodeErr(0, fmt.Errorf("%w: %d bytes, need %d", errors.ErrHeaderTooShort, len(d), p.hdr.HeaderSize))
	}

	p.hdr.PageType = t
	p.hdr.FirstFreeblock = binary.BigEndian.Uint16(d[format.BtreeFirstFreeblock:])
	p.hdr.NumCells = binary.BigEndian.Uint16(d[format.BtreeCellCount:])
	p.hdr.CellContentStart = binary.BigEndian.Uint16(d[format.BtreeCellContentStart:])
	p.hdr.FragmentedBytes = d[format.BtreeFragmentedBytes]
	if !t.IsLeaf() {
		p.hdr.RightChild = binary.BigEndian.Uint32(d[format.BtreeRightmostPointer:])
	}

	p.hdr.CellPointers = make([]uint16, p.hdr.NumCells)
	for i := range p.hdr.CellPointers {
		slot := p.hdr.HeaderSize + 2*i
		if slot+2 > len(d) {
			return p.decodeErr(slot, fmt.Errorf("%w: slot for cell %d", errors.ErrCellPointerOutOfBounds, i))
		}
		ptr := int(binary.BigEndian.Uint16(d[slot:])) - p.base
		if ptr < 0 || ptr >= len(d) {
			return p.decodeErr(slot, fmt.Errorf("%w: cell %d points to %d", errors.ErrCellPointerOutOfBounds, i, ptr+p.base))
		}
		p.hdr.CellPointers[i] = uint16(ptr)
	}
	return nil
}

// AsLeafTable returns pg as a leaf table page. An interior table page fails
// with ErrExpectedLeafPage and an index page with ErrExpectedTablePage.
func AsLeafTable(pg Page) (*LeafTablePage, error) {
	switch p := pg.(type) {
	case *LeafTablePage:
		return p, nil
	case *InteriorTablePage:
		return nil, p.decodeErr(-1, errors.ErrExpectedLeafPage)
	default:
		return nil, errors.NewDecode(uint32(pg.Number()), -1,
			fmt.Errorf("%w: got %s", errors.ErrExpectedTablePage, pg.Header().PageType))
	}
}
