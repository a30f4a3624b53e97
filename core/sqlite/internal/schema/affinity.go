package schema

import (
	"fmt"
	"strings"
)

// Affinity is the storage class a column prefers, derived from its declared
// type. The zero value is BLOB, the affinity of an untyped column.
type Affinity uint8

const (
	AffinityBlob Affinity = iota
	AffinityText
	AffinityNumeric
	AffinityInteger
	AffinityReal
)

var affinityNames = [...]string{
	AffinityBlob:    "BLOB",
	AffinityText:    "TEXT",
	AffinityNumeric: "NUMERIC",
	AffinityInteger: "INTEGER",
	AffinityReal:    "REAL",
}

func (a Affinity) String() string {
	if int(a) < len(affinityNames) {
		return affinityNames[a]
	}
	return fmt.Sprintf("Affinity(%d)", uint8(a))
}

// affinityRules are checked in order against the upper-cased declared type.
// The first rule with a matching substring wins, so "CHARINT" is INTEGER and
// "BLOBDOUBLE" is BLOB.
var affinityRules = []struct {
	affinity Affinity
	contains []string
}{
	{AffinityInteger, []string{"INT"}},
	{AffinityText, []string{"CHAR", "CLOB", "TEXT"}},
	{AffinityBlob, []string{"BLOB"}},
	{AffinityReal, []string{"REAL", "FLOA", "DOUB"}},
}

// DetermineAffinity derives a column's affinity from its declared type using
// SQLite's substring rules (https://sqlite.org/datatype3.html#affname). An
// empty type is BLOB; a type matching no rule is NUMERIC.
func DetermineAffinity(declared string) Affinity {
	if strings.TrimSpace(declared) == "" {
		return AffinityBlob
	}
	upper := strings.ToUpper(declared)
	for _, rule := range affinityRules {
		for _, sub := range rule.contains {
			if strings.Contains(upper, sub) {
				return rule.affinity
			}
		}
	}
	return AffinityNumeric
}
