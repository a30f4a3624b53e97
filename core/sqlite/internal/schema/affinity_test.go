package schema

import (
	"testing"
)

func TestColumnAffinity(t *testing.T) {
	tbl, err := ParseCreateTable(`CREATE TABLE inventory (
		id INTEGER PRIMARY KEY,
		sku BIGINT UNSIGNED,
		location POINT,
		name VARCHAR(100) NOT NULL,
		notes CLOB,
		code NCHAR(8),
		photo BLOB,
		price DOUBLE PRECISION,
		weight float,
		ratio REAL,
		cost DECIMAL(10,2),
		active BOOLEAN,
		added DATETIME,
		payload,
		"floating point" CHARINT,
		raw BLOBDOUBLE
	)`)
	if err != nil {
		t.Fatalf("ParseCreateTable() error = %v", err)
	}

	want := map[string]Affinity{
		"id":             AffinityInteger,
		"sku":            AffinityInteger,
		"location":       AffinityInteger, // POINT contains INT
		"name":           AffinityText,
		"notes":          AffinityText,
		"code":           AffinityText,
		"photo":          AffinityBlob,
		"price":          AffinityReal,
		"weight":         AffinityReal,
		"ratio":          AffinityReal,
		"cost":           AffinityNumeric,
		"active":         AffinityNumeric,
		"added":          AffinityNumeric,
		"payload":        AffinityBlob,
		"floating point": AffinityInteger,
		"raw":            AffinityBlob,
	}
	if len(tbl.Columns) != len(want) {
		t.Fatalf("parsed %d columns, want %d", len(tbl.Columns), len(want))
	}
	for _, c := range tbl.Columns {
		if got := c.Affinity; got != want[c.Name] {
			t.Errorf("column %q (%q) affinity = %v, want %v", c.Name, c.Type, got, want[c.Name])
		}
	}
}

func TestDetermineAffinity(t *testing.T) {
	tests := []struct {
		declared string
		want     Affinity
	}{
		{"", AffinityBlob},
		{"  ", AffinityBlob},
		{"integer", AffinityInteger},
		{"Text", AffinityText},
		{"varying character(255)", AffinityText},
		{"Float8", AffinityReal},
		{"NUMERIC", AffinityNumeric},
		{"STRING", AffinityNumeric}, // no rule names STRING
	}

	for _, tt := range tests {
		t.Run(tt.declared, func(t *testing.T) {
			if got := DetermineAffinity(tt.declared); got != tt.want {
				t.Errorf("DetermineAffinity(%q) = %v, want %v", tt.declared, got, tt.want)
			}
		})
	}
}

func TestAffinityString(t *testing.T) {
	tests := []struct {
		affinity Affinity
		want     string
	}{
		{AffinityBlob, "BLOB"},
		{AffinityText, "TEXT"},
		{AffinityNumeric, "NUMERIC"},
		{AffinityInteger, "INTEGER"},
		{AffinityReal, "REAL"},
		{Affinity(9), "Affinity(9)"},
	}
	for _, tt := range tests {
		if got := tt.affinity.String(); got != tt.want {
			t.Errorf("Affinity(%d).String() = %q, want %q", uint8(tt.affinity), got, tt.want)
		}
	}
}
