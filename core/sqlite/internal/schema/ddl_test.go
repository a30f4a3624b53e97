package schema

import (
	"errors"
	"reflect"
	"testing"

	sqerrors "github.com/FocuswithJustin/sqlitecat/core/errors"
)

func TestParseCreateTable(t *testing.T) {
	tests := []struct {
		name       string
		sql        string
		table      string
		columns    []string
		types      []string
		primaryKey []string
		rowidAlias int
	}{
		{
			name:       "simple",
			sql:        "CREATE TABLE apples(id integer primary key autoincrement, name text, color text)",
			table:      "apples",
			columns:    []string{"id", "name", "color"},
			types:      []string{"integer", "text", "text"},
			primaryKey: []string{"id"},
			rowidAlias: 0,
		},
		{
			name: "multiline with comments",
			sql: `CREATE TABLE oranges
(
	id integer primary key autoincrement, -- surrogate key
	name text,
	/* free-form */ description text
)`,
			table:      "oranges",
			columns:    []string{"id", "name", "description"},
			types:      []string{"integer", "text", "text"},
			primaryKey: []string{"id"},
			rowidAlias: 0,
		},
		{
			name:       "untyped columns",
			sql:        "CREATE TABLE t(a, b, c)",
			table:      "t",
			columns:    []string{"a", "b", "c"},
			types:      []string{"", "", ""},
			rowidAlias: -1,
		},
		{
			name:       "quoted identifiers",
			sql:        "CREATE TABLE \"my table\"([first col] INT, `second` TEXT, \"say \"\"hi\"\"\" BLOB)",
			table:      "my table",
			columns:    []string{"first col", "second", `say "hi"`},
			types:      []string{"INT", "TEXT", "BLOB"},
			rowidAlias: -1,
		},
		{
			name:       "non-ASCII identifiers",
			sql:        "CREATE TABLE größe (wert TEXT, maß TEXT, 年 INTEGER)",
			table:      "größe",
			columns:    []string{"wert", "maß", "年"},
			types:      []string{"TEXT", "TEXT", "INTEGER"},
			rowidAlias: -1,
		},
		{
			name:       "sized types and defaults",
			sql:        "CREATE TABLE prices(id INTEGER NOT NULL PRIMARY KEY, amount DECIMAL(10, 2) DEFAULT 0, label VARCHAR(100) COLLATE NOCASE)",
			table:      "prices",
			columns:    []string{"id", "amount", "label"},
			types:      []string{"INTEGER", "DECIMAL(10,2)", "VARCHAR(100)"},
			primaryKey: []string{"id"},
			rowidAlias: 0,
		},
		{
			name:       "multi-word type",
			sql:        "CREATE TABLE t(a UNSIGNED BIG INT, b DOUBLE PRECISION)",
			table:      "t",
			columns:    []string{"a", "b"},
			types:      []string{"UNSIGNED BIG INT", "DOUBLE PRECISION"},
			rowidAlias: -1,
		},
		{
			name:       "table primary key",
			sql:        "CREATE TABLE t(a INTEGER, b TEXT, PRIMARY KEY(a))",
			table:      "t",
			columns:    []string{"a", "b"},
			types:      []string{"INTEGER", "TEXT"},
			primaryKey: []string{"a"},
			rowidAlias: 0,
		},
		{
			name:       "composite key and constraints",
			sql:        "CREATE TABLE t(a INT, b INT, CONSTRAINT pk PRIMARY KEY(a, b DESC), UNIQUE(b), CHECK(a > 0), FOREIGN KEY(b) REFERENCES u(x))",
			table:      "t",
			columns:    []string{"a", "b"},
			types:      []string{"INT", "INT"},
			primaryKey: []string{"a", "b"},
			rowidAlias: -1,
		},
		{
			name:       "bigint key does not alias rowid",
			sql:        "CREATE TABLE t(id BIGINT PRIMARY KEY, v)",
			table:      "t",
			columns:    []string{"id", "v"},
			types:      []string{"BIGINT", ""},
			primaryKey: []string{"id"},
			rowidAlias: -1,
		},
		{
			name:       "if not exists and qualified name",
			sql:        "create table if not exists main.t(x text)",
			table:      "t",
			columns:    []string{"x"},
			types:      []string{"text"},
			rowidAlias: -1,
		},
		{
			name:       "check with nested parens",
			sql:        "CREATE TABLE t(a INT CHECK (a IN (1, 2, 3)), b TEXT)",
			table:      "t",
			columns:    []string{"a", "b"},
			types:      []string{"INT", "TEXT"},
			rowidAlias: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := ParseCreateTable(tt.sql)
			if err != nil {
				t.Fatalf("ParseCreateTable() error = %v", err)
			}
			if tbl.Name != tt.table {
				t.Errorf("Name = %q, want %q", tbl.Name, tt.table)
			}
			if got := tbl.ColumnNames(); !reflect.DeepEqual(got, tt.columns) {
				t.Errorf("ColumnNames() = %q, want %q", got, tt.columns)
			}
			for i, c := range tbl.Columns {
				if c.Position != i {
					t.Errorf("column %q Position = %d, want %d", c.Name, c.Position, i)
				}
				if i < len(tt.types) && c.Type != tt.types[i] {
					t.Errorf("column %q Type = %q, want %q", c.Name, c.Type, tt.types[i])
				}
			}
			if !reflect.DeepEqual(tbl.PrimaryKey, tt.primaryKey) {
				t.Errorf("PrimaryKey = %q, want %q", tbl.PrimaryKey, tt.primaryKey)
			}
			if got := tbl.RowIDAlias(); got != tt.rowidAlias {
				t.Errorf("RowIDAlias() = %d, want %d", got, tt.rowidAlias)
			}
		})
	}
}

func TestParseCreateTableOptions(t *testing.T) {
	tbl, err := ParseCreateTable("CREATE TEMP TABLE t(id INTEGER PRIMARY KEY, v TEXT) WITHOUT ROWID, STRICT")
	if err != nil {
		t.Fatalf("ParseCreateTable() error = %v", err)
	}
	if !tbl.Temp || !tbl.WithoutRowID || !tbl.Strict {
		t.Errorf("Temp, WithoutRowID, Strict = %v, %v, %v, want all true", tbl.Temp, tbl.WithoutRowID, tbl.Strict)
	}
	if tbl.HasRowID() {
		t.Error("HasRowID() = true for a WITHOUT ROWID table")
	}
	if got := tbl.RowIDAlias(); got != -1 {
		t.Errorf("RowIDAlias() = %d, want -1", got)
	}
}

func TestParseCreateTableColumnFlags(t *testing.T) {
	tbl, err := ParseCreateTable("CREATE TABLE t(id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL, note TEXT NULL)")
	if err != nil {
		t.Fatalf("ParseCreateTable() error = %v", err)
	}
	id, _ := tbl.GetColumn("id")
	if !id.PrimaryKey || !id.Autoincrement || id.Affinity != AffinityInteger {
		t.Errorf("id = %+v", id)
	}
	name, _ := tbl.GetColumn("name")
	if !name.NotNull || name.Affinity != AffinityText {
		t.Errorf("name = %+v", name)
	}
	note, _ := tbl.GetColumn("note")
	if note.NotNull {
		t.Error("note.NotNull = true, want false")
	}
}

func TestParseCreateTableErrors(t *testing.T) {
	tests := []string{
		"",
		"SELECT 1",
		"CREATE INDEX i ON t(a)",
		"CREATE TABLE t AS SELECT * FROM u",
		"CREATE TABLE t(a, b",
		"CREATE TABLE t()",
		"CREATE TABLE t(a) garbage",
		"CREATE TABLE (a)",
	}

	for _, sql := range tests {
		t.Run(sql, func(t *testing.T) {
			_, err := ParseCreateTable(sql)
			if err == nil {
				t.Fatal("ParseCreateTable() succeeded, want an error")
			}
			var pe *sqerrors.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error %v is not a ParseError", err)
			}
			if pe.Format != "CREATE TABLE" {
				t.Errorf("Format = %q", pe.Format)
			}
			if !errors.Is(err, sqerrors.ErrInvalidInput) {
				t.Errorf("error %v does not match ErrInvalidInput", err)
			}
		})
	}
}

func TestTableColumnLookup(t *testing.T) {
	tbl, err := ParseCreateTable("CREATE TABLE t(Name TEXT, color TEXT)")
	if err != nil {
		t.Fatalf("ParseCreateTable() error = %v", err)
	}
	if got := tbl.GetColumnIndex("color"); got != 1 {
		t.Errorf("GetColumnIndex(color) = %d, want 1", got)
	}
	if got := tbl.GetColumnIndex("name"); got != -1 {
		t.Errorf("GetColumnIndex(name) = %d, want -1 (lookup is case-sensitive)", got)
	}
	if _, ok := tbl.GetColumn("missing"); ok {
		t.Error("GetColumn(missing) found a column")
	}
}
