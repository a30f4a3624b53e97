// Package engine executes parsed statements against the b-trees of an open
// database. It ties together the btree, schema and parser components.
package engine

import (
	"fmt"
	"strconv"

	"github.com/FocuswithJustin/sqlitecat/core/errors"
	"github.com/FocuswithJustin/sqlitecat/core/sqlite/internal/btree"
	"github.com/FocuswithJustin/sqlitecat/core/sqlite/internal/format"
	"github.com/FocuswithJustin/sqlitecat/core/sqlite/internal/pager"
	"github.com/FocuswithJustin/sqlitecat/core/sqlite/internal/parser"
	"github.com/FocuswithJustin/sqlitecat/core/sqlite/internal/schema"
)

// Executor runs count and projection plans.
type Executor struct {
	walker  *btree.Walker
	catalog *schema.Catalog
	enc     format.Encoding
}

// NewExecutor creates an Executor over the tables listed in catalog. Text
// columns are decoded using enc.
func NewExecutor(w *btree.Walker, catalog *schema.Catalog, enc format.Encoding) *Executor {
	return &Executor{walker: w, catalog: catalog, enc: enc}
}

// Execute runs stmt.
func (e *Executor) Execute(stmt *parser.Statement) (*Result, error) {
	if stmt == nil {
		return nil, fmt.Errorf("%w: nil statement", errors.ErrInvalidInput)
	}

	entry, err := e.catalog.FindTable(stmt.Table)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, errors.NewQuery(stmt.Table, "", errors.ErrTableNotFound)
	}

	switch stmt.Kind {
	case parser.Count:
		return e.count(entry)
	case parser.Project:
		return e.project(entry, stmt)
	default:
		return nil, fmt.Errorf("%w: statement kind %s", errors.ErrUnsupportedStatement, stmt.Kind)
	}
}

// rootPage converts a schema rootpage. ok is false for tables without a
// b-tree.
func rootPage(entry *schema.MasterRow) (pgno pager.Pgno, ok bool, err error) {
	if entry.RootPage <= 0 {
		return 0, false, nil
	}
	pgno, err = pager.NewPgno(entry.RootPage)
	if err != nil {
		return 0, false, errors.NewQuery(entry.Name, "", err)
	}
	return pgno, true, nil
}

// count sums the cell counts of every leaf page of the table.
func (e *Executor) count(entry *schema.MasterRow) (*Result, error) {
	root, ok, err := rootPage(entry)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Result{Kind: ResultCount, EmptyTable: true}, nil
	}

	n, err := e.walker.CountRows(root)
	if err != nil {
		return nil, err
	}
	return &Result{Kind: ResultCount, Count: n}, nil
}

// column is a resolved projection target.
type column struct {
	name  string
	index int
	rowid bool

	// real columns hold integers that stand for floating point values
	real bool
}

// resolve parses the table definition and maps the requested names to
// record positions.
func resolve(entry *schema.MasterRow, stmt *parser.Statement) ([]column, error) {
	tbl, err := schema.ParseCreateTable(entry.SQL)
	if err != nil {
		return nil, errors.NewQuery(entry.Name, "", err)
	}
	if tbl.Name != entry.Name {
		return nil, errors.NewQuery(entry.Name, "",
			fmt.Errorf("%w: CREATE TABLE names %q", errors.ErrSchemaMismatch, tbl.Name))
	}

	names := stmt.Columns
	if stmt.Star {
		names = tbl.ColumnNames()
	}

	alias := tbl.RowIDAlias()
	cols := make([]column, len(names))
	for i, name := range names {
		c, ok := tbl.GetColumn(name)
		if !ok {
			return nil, errors.NewQuery(entry.Name, name, errors.ErrColumnNotFound)
		}
		cols[i] = column{
			name:  c.Name,
			index: c.Position,
			rowid: c.Position == alias,
			real:  c.Affinity == schema.AffinityReal,
		}
	}
	return cols, nil
}

// project renders the requested columns of every row in rowid order.
func (e *Executor) project(entry *schema.MasterRow, stmt *parser.Statement) (*Result, error) {
	cols, err := resolve(entry, stmt)
	if err != nil {
		return nil, err
	}

	res := &Result{Kind: ResultRows, Columns: make([]string, len(cols))}
	for i, c := range cols {
		res.Columns[i] = c.name
	}

	root, ok, err := rootPage(entry)
	if err != nil {
		return nil, err
	}
	if !ok {
		res.EmptyTable = true
		return res, nil
	}

	err = e.walker.WalkTable(root, func(leaf *btree.LeafTablePage) error {
		for i := 0; i < leaf.CellCount(); i++ {
			cell, err := leaf.Cell(i)
			if err != nil {
				return err
			}
			row := make([]string, len(cols))
			for j, c := range cols {
				v, err := e.render(cell, c)
				if err != nil {
					return errors.NewQuery(entry.Name, c.name,
						errors.NewDecode(uint32(leaf.Number()), cell.Offset, err))
				}
				row[j] = v
			}
			res.Rows = append(res.Rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// render formats one column of a row as text. NULL renders as "". A rowid
// alias column renders the cell's rowid when its record slot is NULL.
func (e *Executor) render(cell *btree.LeafTableCell, c column) (string, error) {
	ct, data, err := cell.Column(c.index)
	if err != nil {
		return "", err
	}

	switch ct.Kind {
	case format.KindNull:
		if c.rowid {
			return strconv.FormatInt(cell.RowID, 10), nil
		}
		return "", nil
	case format.KindInteger, format.KindZero, format.KindOne:
		if c.real {
			return "", fmt.Errorf("%w: integer stored in REAL column", errors.ErrUnsupportedColumnType)
		}
		v, err := format.DecodeInt(ct, data)
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(v, 10), nil
	case format.KindText:
		return format.DecodeText(data, e.enc)
	default:
		return "", fmt.Errorf("%w: %s column", errors.ErrUnsupportedColumnType, ct.Kind)
	}
}
