package engine

import (
	"strconv"
	"strings"
)

// ResultKind distinguishes count results from row results.
type ResultKind int

const (
	// ResultCount holds a single row count.
	ResultCount ResultKind = iota + 1
	// ResultRows holds projected rows.
	ResultRows
)

// Result represents the result of executing a statement.
type Result struct {
	Kind ResultKind

	// Count is the number of rows for ResultCount.
	Count int64

	// Columns contains the names of result columns for ResultRows.
	Columns []string

	// Rows contains the rendered column values, one slice per row.
	Rows [][]string

	// EmptyTable is set when the table has no b-tree (rootpage <= 0).
	EmptyTable bool
}

// RowCount returns the number of rows in the result.
func (r *Result) RowCount() int {
	return len(r.Rows)
}

// ColumnCount returns the number of columns in the result.
func (r *Result) ColumnCount() int {
	return len(r.Columns)
}

// Lines renders the result the way the sqlite3 shell does: the count on
// its own line, or one line per row with values joined by sep.
func (r *Result) Lines(sep string) []string {
	if r.Kind == ResultCount {
		return []string{strconv.FormatInt(r.Count, 10)}
	}
	lines := make([]string, len(r.Rows))
	for i, row := range r.Rows {
		lines[i] = strings.Join(row, sep)
	}
	return lines
}
