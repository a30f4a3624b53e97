package btree

import (
	"encoding/binary"
	"fmt"

	"github.com/FocuswithJustin/sqlitecat/core/errors"
	"github.com/FocuswithJustin/sqlitecat/core/sqlite/internal/format"
	"github.com/FocuswithJustin/sqlitecat/core/sqlite/internal/pager"
)

// LeafTableCell is one table row: its rowid and the record stored locally
// on the page. It is a view into the page buffer and must not outlive it.
type LeafTableCell struct {
	RowID       int64
	PayloadSize uint64

	// Offset is the cell's offset in the page buffer.
	Offset int

	// Record is the decoded record header. Its offsets index Payload.
	Record  *format.RecordHeader
	Payload []byte
}

// Column returns column i's type and data bytes.
func (c *LeafTableCell) Column(i int) (format.ColumnType, []byte, error) {
	return c.Record.Column(c.Payload, i)
}

// MaxLocal returns the largest payload a table leaf cell may store without
// spilling to overflow pages.
func MaxLocal(usableSize int) uint64 {
	return uint64(usableSize - 35)
}

// Cell decodes cell i.
// Format: varint(payload_size), varint(rowid), payload
func (p *LeafTablePage) Cell(i int) (*LeafTableCell, error) {
	off, err := p.cellOffset(i)
	if err != nil {
		return nil, err
	}
	d := p.data

	size, n, err := format.ReadVarint(d[off:])
	if err != nil {
		return nil, p.decodeErr(off, err)
	}
	pos := off + n

	rowid, n, err := format.ReadVarint(d[pos:])
	if err != nil {
		return nil, p.decodeErr(pos, err)
	}
	pos += n

	if size > MaxLocal(p.usable) {
		return nil, p.decodeErr(off, fmt.Errorf("%w: payload of %d bytes, local limit %d",
			errors.ErrOverflowNotSupported, size, MaxLocal(p.usable)))
	}
	if size > uint64(len(d)-pos) {
		return nil, p.decodeErr(off, fmt.Errorf("%w: payload of %d bytes runs past page end",
			errors.ErrCellPointerOutOfBounds, size))
	}

	payload := d[pos : pos+int(size)]
	rec, err := format.ParseRecordHeader(payload, 0)
	if err != nil {
		return nil, p.decodeErr(pos, err)
	}

	return &LeafTableCell{
		RowID:       int64(rowid),
		PayloadSize: size,
		Offset:      off,
		Record:      rec,
		Payload:     payload,
	}, nil
}

// InteriorTableCell points at the subtree holding rowids up to Key.
type InteriorTableCell struct {
	ChildPage pager.Pgno
	Key       int64
}

// Cell decodes cell i.
// Format: 4-byte child page number, varint(rowid)
func (p *InteriorTablePage) Cell(i int) (InteriorTableCell, error) {
	off, err := p.cellOffset(i)
	if err != nil {
		return InteriorTableCell{}, err
	}
	d := p.data
	if off+4 > len(d) {
		return InteriorTableCell{}, p.decodeErr(off, fmt.Errorf("%w: child pointer runs past page end",
			errors.ErrCellPointerOutOfBounds))
	}

	child := binary.BigEndian.Uint32(d[off:])
	if child == 0 {
		return InteriorTableCell{}, p.decodeErr(off, errors.ErrInvalidPageNumber)
	}
	key, _, err := format.ReadVarint(d[off+4:])
	if err != nil {
		return InteriorTableCell{}, p.decodeErr(off+4, err)
	}
	return InteriorTableCell{ChildPage: pager.Pgno(child), Key: int64(key)}, nil
}

// RightChild returns the right-most child pointer, which covers keys greater
// than every key stored in the cells.
func (p *InteriorTablePage) RightChild() pager.Pgno {
	return pager.Pgno(p.hdr.RightChild)
}

// Children returns every child page in key order, ending with the right-most
// child.
func (p *InteriorTablePage) Children() ([]pager.Pgno, error) {
	children := make([]pager.Pgno, 0, p.CellCount()+1)
	for i := 0; i < p.CellCount(); i++ {
		c, err := p.Cell(i)
		if err != nil {
			return nil, err
		}
		children = append(children, c.ChildPage)
	}
	if p.hdr.RightChild == 0 {
		return nil, p.decodeErr(format.BtreeRightmostPointer, errors.ErrInvalidPageNumber)
	}
	return append(children, p.RightChild()), nil
}
