package sqlite

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/sqlitecat/core/errors"
	"github.com/FocuswithJustin/sqlitecat/internal/archive"
)

// ReferenceQuery runs query through the reference SQLite driver against the
// database at path and renders every value the way Result rows are
// rendered: NULL as "", integers in base 10, text as is.
func ReferenceQuery(path, query string) ([][]string, error) {
	db, err := OpenReferenceReadOnly(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reference database: %w", err)
	}
	defer db.Close()

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("reference query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read reference columns: %w", err)
	}

	var out [][]string
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan reference row: %w", err)
		}
		row := make([]string, len(cols))
		for i, v := range values {
			row[i] = renderValue(v)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reference rows: %w", err)
	}
	return out, nil
}

func renderValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case []byte:
		return string(x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// Comparison is the outcome of running one query through both the decoder
// and the reference driver.
type Comparison struct {
	Query     string
	Decoded   [][]string
	Reference [][]string

	// Row is the index of the first differing row, or -1 when both agree.
	Row int
}

// Match reports whether both sides returned the same rows.
func (c *Comparison) Match() bool {
	return c.Row < 0
}

// String describes the first divergence, or reports agreement.
func (c *Comparison) String() string {
	if c.Match() {
		return fmt.Sprintf("match: %d rows", len(c.Decoded))
	}
	side := func(rows [][]string) string {
		if c.Row >= len(rows) {
			return "<missing>"
		}
		return strings.Join(rows[c.Row], "|")
	}
	return fmt.Sprintf("row %d differs: decoder %q, reference %q", c.Row, side(c.Decoded), side(c.Reference))
}

// Compare runs query through s and through the reference driver. A count
// result compares as a single one-column row.
func Compare(s *Session, query string) (*Comparison, error) {
	if s.Compression() != archive.None {
		return nil, fmt.Errorf("%w: reference driver needs an uncompressed file", errors.ErrUnsupported)
	}

	res, err := s.Query(query)
	if err != nil {
		return nil, err
	}
	decoded := res.Rows
	if res.Kind == ResultCount {
		decoded = [][]string{{strconv.FormatInt(res.Count, 10)}}
	}

	ref, err := ReferenceQuery(s.Path(), query)
	if err != nil {
		return nil, err
	}

	return &Comparison{
		Query:     query,
		Decoded:   decoded,
		Reference: ref,
		Row:       firstDiff(decoded, ref),
	}, nil
}

func firstDiff(a, b [][]string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if len(a[i]) != len(b[i]) {
			return i
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return i
			}
		}
	}
	if len(a) != len(b) {
		return n
	}
	return -1
}
