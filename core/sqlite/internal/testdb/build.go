package testdb

import (
	"fmt"

	"github.com/FocuswithJustin/sqlitecat/core/sqlite/internal/format"
)

// Table describes one schema object and its rows.
type Table struct {
	// Type is the schema object type; "table" when empty.
	Type string
	Name string
	// TblName is the owning table; Name when empty.
	TblName string
	SQL     string
	Rows    [][]any

	// RowIDs overrides the default rowids 1..len(Rows).
	RowIDs []int64

	// NoRoot stores rootpage 0 and allocates no pages.
	NoRoot bool
}

// Options configures Build.
type Options struct {
	PageSize int
	Encoding format.Encoding
	Reserved int
}

// Build returns a database image with a one-page schema table on page 1
// followed by the pages of every table in order. A table whose rows do not
// fit one page gets an interior root page followed by its leaves. Index
// entries get a single empty index leaf page.
func Build(pageSize int, tables ...Table) []byte {
	return BuildWith(Options{PageSize: pageSize}, tables...)
}

// BuildWith is Build with explicit options.
func BuildWith(opts Options, tables ...Table) []byte {
	if opts.Encoding == 0 {
		opts.Encoding = format.EncodingUTF8
	}
	usable := opts.PageSize - opts.Reserved

	type layout struct {
		root  int64
		pages [][]byte
	}
	layouts := make([]layout, len(tables))
	next := int64(2)
	for i, t := range tables {
		if t.NoRoot {
			continue
		}
		var pages [][]byte
		if t.Type == "index" {
			pages = [][]byte{Page(format.PageTypeLeafIndex, opts.PageSize, false, nil, 0)}
		} else {
			pages = tablePages(opts, usable, next, t)
		}
		layouts[i] = layout{root: next, pages: pages}
		next += int64(len(pages))
	}

	var catalog [][]byte
	for i, t := range tables {
		typ := t.Type
		if typ == "" {
			typ = "table"
		}
		tbl := t.TblName
		if tbl == "" {
			tbl = t.Name
		}
		rec := Record(opts.Encoding, typ, t.Name, tbl, layouts[i].root, t.SQL)
		catalog = append(catalog, LeafTableCell(int64(i+1), rec))
	}
	if !Fits(format.PageTypeLeafTable, usable, true, catalog) {
		panic(fmt.Sprintf("testdb: schema of %d entries does not fit page 1", len(tables)))
	}

	pages := [][]byte{pad(Page(format.PageTypeLeafTable, usable, true, catalog, 0), opts.PageSize)}
	for _, l := range layouts {
		pages = append(pages, l.pages...)
	}

	h := format.NewHeader(opts.PageSize)
	h.TextEncoding = uint32(opts.Encoding)
	h.ReservedSpace = uint8(opts.Reserved)
	h.SchemaCookie = 1
	return File(h, pages...)
}

// tablePages lays out t's rows starting at page first.
func tablePages(opts Options, usable int, first int64, t Table) [][]byte {
	var cells [][]byte
	var keys []int64
	for i, row := range t.Rows {
		rowid := int64(i + 1)
		if t.RowIDs != nil {
			rowid = t.RowIDs[i]
		}
		cells = append(cells, LeafTableCell(rowid, Record(opts.Encoding, row...)))
		keys = append(keys, rowid)
	}

	if Fits(format.PageTypeLeafTable, usable, false, cells) {
		return [][]byte{pad(Page(format.PageTypeLeafTable, usable, false, cells, 0), opts.PageSize)}
	}

	// split greedily into leaves
	var leaves [][][]byte
	var lastKeys []int64
	start := 0
	for start < len(cells) {
		end := start + 1
		for end < len(cells) && Fits(format.PageTypeLeafTable, usable, false, cells[start:end+1]) {
			end++
		}
		leaves = append(leaves, cells[start:end])
		lastKeys = append(lastKeys, keys[end-1])
		start = end
	}

	var pointers [][]byte
	for i := 0; i < len(leaves)-1; i++ {
		pointers = append(pointers, InteriorTableCell(uint32(first+1+int64(i)), lastKeys[i]))
	}
	right := uint32(first + int64(len(leaves)))
	if !Fits(format.PageTypeInteriorTable, usable, false, pointers) {
		panic(fmt.Sprintf("testdb: table %s needs more than two levels", t.Name))
	}

	pages := [][]byte{pad(Page(format.PageTypeInteriorTable, usable, false, pointers, right), opts.PageSize)}
	for _, leaf := range leaves {
		pages = append(pages, pad(Page(format.PageTypeLeafTable, usable, false, leaf, 0), opts.PageSize))
	}
	return pages
}

// pad extends a page built for the usable area to the full page size.
func pad(p []byte, pageSize int) []byte {
	if len(p) >= pageSize {
		return p
	}
	return append(p, make([]byte, pageSize-len(p))...)
}
