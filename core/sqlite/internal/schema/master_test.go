package schema

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	sqerrors "github.com/FocuswithJustin/sqlitecat/core/errors"
	"github.com/FocuswithJustin/sqlitecat/core/sqlite/internal/btree"
	"github.com/FocuswithJustin/sqlitecat/core/sqlite/internal/format"
	"github.com/FocuswithJustin/sqlitecat/core/sqlite/internal/pager"
	"github.com/FocuswithJustin/sqlitecat/core/sqlite/internal/testdb"
)

func loadCatalog(t *testing.T, data []byte, pageSize int, enc format.Encoding) *Catalog {
	t.Helper()
	p, err := pager.New(bytes.NewReader(data), pager.Config{PageSize: pageSize})
	if err != nil {
		t.Fatalf("pager.New() error = %v", err)
	}
	cat, err := LoadCatalog(btree.NewWalker(p, pageSize), enc)
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	return cat
}

var fruitTables = []testdb.Table{
	{Name: "apples", SQL: "CREATE TABLE apples(id integer primary key autoincrement, name text, color text)",
		Rows: [][]any{{nil, "Granny Smith", "Light Green"}}},
	{Name: "sqlite_sequence", SQL: "CREATE TABLE sqlite_sequence(name,seq)",
		Rows: [][]any{{"apples", 1}}},
	{Type: "index", Name: "apples_color", TblName: "apples", SQL: "CREATE INDEX apples_color ON apples(color)"},
	{Type: "view", Name: "red_apples", TblName: "red_apples", SQL: "CREATE VIEW red_apples AS SELECT * FROM apples", NoRoot: true},
	{Name: "oranges", SQL: "CREATE TABLE oranges(id integer primary key autoincrement, name text)"},
}

func TestCatalogEntries(t *testing.T) {
	cat := loadCatalog(t, testdb.Build(4096, fruitTables...), 4096, format.EncodingUTF8)

	if got := cat.TableCount(); got != 5 {
		t.Errorf("TableCount() = %d, want 5", got)
	}

	rows, err := cat.Entries()
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	want := []MasterRow{
		{"table", "apples", "apples", 2, fruitTables[0].SQL},
		{"table", "sqlite_sequence", "sqlite_sequence", 3, fruitTables[1].SQL},
		{"index", "apples_color", "apples", 4, fruitTables[2].SQL},
		{"view", "red_apples", "red_apples", 0, fruitTables[3].SQL},
		{"table", "oranges", "oranges", 5, fruitTables[4].SQL},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("Entries() =\n%+v\nwant\n%+v", rows, want)
	}
}

func TestCatalogTableNames(t *testing.T) {
	cat := loadCatalog(t, testdb.Build(4096, fruitTables...), 4096, format.EncodingUTF8)

	names, err := cat.TableNames()
	if err != nil {
		t.Fatalf("TableNames() error = %v", err)
	}
	want := []string{"apples", "sqlite_sequence", "oranges"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("TableNames() = %q, want %q", names, want)
	}

	counts, err := cat.CountByType()
	if err != nil {
		t.Fatalf("CountByType() error = %v", err)
	}
	if want := map[string]int{"table": 3, "index": 1, "view": 1}; !reflect.DeepEqual(counts, want) {
		t.Errorf("CountByType() = %v, want %v", counts, want)
	}
}

func TestCatalogFindTable(t *testing.T) {
	cat := loadCatalog(t, testdb.Build(4096, fruitTables...), 4096, format.EncodingUTF8)

	tests := []struct {
		name string
		root int64
		ok   bool
	}{
		{"apples", 2, true},
		{"oranges", 5, true},
		{"Apples", 0, false},
		{"apples_color", 0, false}, // an index, not a table
		{"red_apples", 0, false},   // a view
		{"grapes", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, err := cat.FindTable(tt.name)
			if err != nil {
				t.Fatalf("FindTable() error = %v", err)
			}
			if (row != nil) != tt.ok {
				t.Fatalf("FindTable() = %+v, want found=%v", row, tt.ok)
			}
			if row != nil && row.RootPage != tt.root {
				t.Errorf("RootPage = %d, want %d", row.RootPage, tt.root)
			}
		})
	}
}

func TestCatalogFindTableRepeatable(t *testing.T) {
	data := testdb.Build(4096, fruitTables...)
	orig := bytes.Clone(data)
	cat := loadCatalog(t, data, 4096, format.EncodingUTF8)

	for _, name := range []string{"apples", "grapes"} {
		t.Run(name, func(t *testing.T) {
			first, err := cat.FindTable(name)
			if err != nil {
				t.Fatalf("FindTable() error = %v", err)
			}
			second, err := cat.FindTable(name)
			if err != nil {
				t.Fatalf("second FindTable() error = %v", err)
			}
			if !reflect.DeepEqual(first, second) {
				t.Errorf("FindTable() = %+v, then %+v", first, second)
			}

			again, err := loadCatalog(t, data, 4096, format.EncodingUTF8).FindTable(name)
			if err != nil {
				t.Fatalf("FindTable() on a reloaded catalog error = %v", err)
			}
			if !reflect.DeepEqual(first, again) {
				t.Errorf("FindTable() on a reloaded catalog = %+v, want %+v", again, first)
			}
		})
	}

	if !bytes.Equal(data, orig) {
		t.Error("FindTable() modified the database image")
	}
}

func TestCatalogEmpty(t *testing.T) {
	cat := loadCatalog(t, testdb.Build(4096), 4096, format.EncodingUTF8)
	if got := cat.TableCount(); got != 0 {
		t.Errorf("TableCount() = %d, want 0", got)
	}
	names, err := cat.TableNames()
	if err != nil {
		t.Fatalf("TableNames() error = %v", err)
	}
	if len(names) != 0 {
		t.Errorf("TableNames() = %q, want none", names)
	}
}

func TestCatalogUTF16(t *testing.T) {
	for _, enc := range []format.Encoding{format.EncodingUTF16LE, format.EncodingUTF16BE} {
		t.Run(enc.String(), func(t *testing.T) {
			data := testdb.BuildWith(testdb.Options{PageSize: 4096, Encoding: enc},
				testdb.Table{Name: "größe", SQL: "CREATE TABLE größe(x)"})
			cat := loadCatalog(t, data, 4096, enc)

			row, err := cat.FindTable("größe")
			if err != nil {
				t.Fatalf("FindTable() error = %v", err)
			}
			if row == nil || row.SQL != "CREATE TABLE größe(x)" {
				t.Errorf("FindTable() = %+v", row)
			}
		})
	}
}

func TestCatalogBadRow(t *testing.T) {
	// a schema row with too few columns
	cells := [][]byte{testdb.LeafTableCell(1, testdb.Record(format.EncodingUTF8, "table", "t"))}
	data := testdb.File(format.NewHeader(512), testdb.Page(format.PageTypeLeafTable, 512, true, cells, 0))
	cat := loadCatalog(t, data, 512, format.EncodingUTF8)

	_, err := cat.Entries()
	if !errors.Is(err, sqerrors.ErrRecordHeaderInconsistent) {
		t.Fatalf("Entries() error = %v, want ErrRecordHeaderInconsistent", err)
	}
	var de *sqerrors.DecodeError
	if !errors.As(err, &de) || de.Page != 1 {
		t.Errorf("error %v does not name page 1", err)
	}
}

func TestCatalogNonTextName(t *testing.T) {
	cells := [][]byte{testdb.LeafTableCell(1, testdb.Record(format.EncodingUTF8, "table", 42, "t", int64(2), "CREATE TABLE t(x)"))}
	data := testdb.File(format.NewHeader(512), testdb.Page(format.PageTypeLeafTable, 512, true, cells, 0))
	cat := loadCatalog(t, data, 512, format.EncodingUTF8)

	if _, err := cat.TableNames(); !errors.Is(err, sqerrors.ErrUnsupportedColumnType) {
		t.Errorf("TableNames() error = %v, want ErrUnsupportedColumnType", err)
	}
}
