// Package schema reads the schema table of a SQLite database and parses the
// CREATE TABLE statements stored in it.
//
// # Schema Table
//
// Page 1 holds the root of the schema table. Each row names one object:
//
//	cat, err := schema.LoadCatalog(walker, header.Encoding())
//	names, err := cat.TableNames()
//	row, err := cat.FindTable("apples")
//
// Rows are decoded on demand; a Catalog only keeps the leaf pages.
//
// # Table Definitions
//
// ParseCreateTable extracts column names, declared types and primary key
// information from the stored SQL:
//
//	t, err := schema.ParseCreateTable(row.SQL)
//	idx := t.GetColumnIndex("color")
//
// A sole INTEGER PRIMARY KEY column aliases the rowid. Its record slot
// holds NULL and readers substitute the cell's rowid (see RowIDAlias).
//
// # Type Affinity
//
// DetermineAffinity applies SQLite's rules for deriving a column affinity
// from its declared type:
//
//  1. Contains "INT" → INTEGER
//  2. Contains "CHAR", "CLOB", or "TEXT" → TEXT
//  3. Contains "BLOB" or is empty → BLOB
//  4. Contains "REAL", "FLOA", or "DOUB" → REAL
//  5. Otherwise → NUMERIC
package schema
