package schema

import (
	"fmt"

	"github.com/FocuswithJustin/sqlitecat/core/errors"
	"github.com/FocuswithJustin/sqlitecat/core/sqlite/internal/btree"
	"github.com/FocuswithJustin/sqlitecat/core/sqlite/internal/format"
)

// sqlite_schema table layout:
//
// CREATE TABLE sqlite_schema (
//   type TEXT,      -- "table", "index", "trigger", "view"
//   name TEXT,      -- object name
//   tbl_name TEXT,  -- table name (for indexes/triggers)
//   rootpage INT,   -- root B-tree page
//   sql TEXT        -- CREATE statement
// );
//
// Its B-tree is rooted at page 1 of the database.

// MasterPage is the root page of the schema table.
const MasterPage = 1

// Schema table column positions.
const (
	colType = iota
	colName
	colTblName
	colRootPage
	colSQL
	masterColumns
)

// MasterRow is one row of the schema table.
type MasterRow struct {
	Type     string // "table", "index", "trigger", "view"
	Name     string
	TblName  string
	RootPage int64 // 0 for views and triggers
	SQL      string
}

// Catalog is the schema table of one database file.
type Catalog struct {
	leaves []*btree.LeafTablePage
	enc    format.Encoding
}

// LoadCatalog reads the schema table starting at page 1. Text columns are
// decoded using enc.
func LoadCatalog(w *btree.Walker, enc format.Encoding) (*Catalog, error) {
	c := &Catalog{enc: enc}
	err := w.WalkTable(MasterPage, func(leaf *btree.LeafTablePage) error {
		c.leaves = append(c.leaves, leaf)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// TableCount returns the number of schema entries of any type.
func (c *Catalog) TableCount() int {
	n := 0
	for _, leaf := range c.leaves {
		n += leaf.CellCount()
	}
	return n
}

// Entries decodes every schema row in storage order.
func (c *Catalog) Entries() ([]MasterRow, error) {
	rows := make([]MasterRow, 0, c.TableCount())
	for _, leaf := range c.leaves {
		for i := 0; i < leaf.CellCount(); i++ {
			cell, err := leaf.Cell(i)
			if err != nil {
				return nil, err
			}
			row, err := c.decodeRow(cell)
			if err != nil {
				return nil, errors.NewDecode(uint32(leaf.Number()), cell.Offset, err)
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (c *Catalog) decodeRow(cell *btree.LeafTableCell) (MasterRow, error) {
	if n := cell.Record.ColumnCount(); n < masterColumns {
		return MasterRow{}, fmt.Errorf("%w: schema row has %d columns, want %d",
			errors.ErrRecordHeaderInconsistent, n, masterColumns)
	}

	var row MasterRow
	texts := []struct {
		col int
		dst *string
	}{
		{colType, &row.Type},
		{colName, &row.Name},
		{colTblName, &row.TblName},
		{colSQL, &row.SQL},
	}
	for _, t := range texts {
		s, err := c.text(cell, t.col)
		if err != nil {
			return MasterRow{}, err
		}
		*t.dst = s
	}

	ct, data, err := cell.Column(colRootPage)
	if err != nil {
		return MasterRow{}, err
	}
	if ct.Kind != format.KindNull {
		if row.RootPage, err = format.DecodeInt(ct, data); err != nil {
			return MasterRow{}, err
		}
	}
	return row, nil
}

// text decodes column i of cell as text. NULL decodes as "".
func (c *Catalog) text(cell *btree.LeafTableCell, i int) (string, error) {
	ct, data, err := cell.Column(i)
	if err != nil {
		return "", err
	}
	switch ct.Kind {
	case format.KindNull:
		return "", nil
	case format.KindText:
		return format.DecodeText(data, c.enc)
	default:
		return "", fmt.Errorf("%w: schema column %d is %s", errors.ErrUnsupportedColumnType, i, ct.Kind)
	}
}

// TableNames returns the names of entries with type "table", in storage
// order.
func (c *Catalog) TableNames() ([]string, error) {
	rows, err := c.Entries()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, r := range rows {
		if r.Type == "table" {
			names = append(names, r.Name)
		}
	}
	return names, nil
}

// FindTable returns the first "table" entry named name, or nil when there
// is none. The match is exact.
func (c *Catalog) FindTable(name string) (*MasterRow, error) {
	rows, err := c.Entries()
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].Type == "table" && rows[i].Name == name {
			return &rows[i], nil
		}
	}
	return nil, nil
}

// CountByType returns the number of entries of each type.
func (c *Catalog) CountByType() (map[string]int, error) {
	rows, err := c.Entries()
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, r := range rows {
		counts[r.Type]++
	}
	return counts, nil
}
