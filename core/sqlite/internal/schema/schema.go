package schema

import (
	"strings"
)

// Table is a table definition parsed from its CREATE TABLE statement.
type Table struct {
	Name         string
	Columns      []*Column
	PrimaryKey   []string
	WithoutRowID bool
	Strict       bool
	Temp         bool
}

// Column represents a table column definition.
type Column struct {
	Name string
	// Type is the declared type as written, e.g. "VARCHAR(100)".
	Type     string
	Affinity Affinity
	// Position is the 0-based column index in the record.
	Position int

	PrimaryKey    bool
	Autoincrement bool
	NotNull       bool
}

// GetColumn returns the column named name. Lookup is case-sensitive.
func (t *Table) GetColumn(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// GetColumnIndex returns the position of the column named name, or -1.
func (t *Table) GetColumnIndex(name string) int {
	if c, ok := t.GetColumn(name); ok {
		return c.Position
	}
	return -1
}

// ColumnNames returns the column names in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// HasRowID reports whether rows are keyed by rowid.
func (t *Table) HasRowID() bool {
	return !t.WithoutRowID
}

// RowIDAlias returns the position of the column that aliases the rowid, or
// -1. Only a sole primary key column declared exactly INTEGER does; its
// value is stored as NULL in the record and read from the cell's rowid.
func (t *Table) RowIDAlias() int {
	if t.WithoutRowID || len(t.PrimaryKey) != 1 {
		return -1
	}
	c, ok := t.GetColumn(t.PrimaryKey[0])
	if !ok || !strings.EqualFold(c.Type, "INTEGER") {
		return -1
	}
	return c.Position
}
