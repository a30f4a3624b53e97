// Package sqlite reads SQLite database files without a SQLite engine.
//
// Open decodes the file header and the schema table, after which a Session
// answers two kinds of query directly from the table b-trees:
//
//	SELECT COUNT(*) FROM t
//	SELECT c1, c2 FROM t      (or SELECT * FROM t)
//
// Files ending in .gz or .xz are decompressed into memory first.
//
// The package also wraps a reference SQLite driver for cross-checking the
// decoder's output:
//   - Default (CGO_ENABLED=0): pure Go modernc.org/sqlite
//   - CGO mode (CGO_ENABLED=1 -tags cgo_sqlite): mattn/go-sqlite3
//
// Use OpenReference() instead of sql.Open() to ensure the correct driver is used.
package sqlite

import (
	"database/sql"

	"github.com/FocuswithJustin/sqlitecat/core/sqlite/internal/engine"
	"github.com/FocuswithJustin/sqlitecat/core/sqlite/internal/format"
	"github.com/FocuswithJustin/sqlitecat/core/sqlite/internal/pager"
	"github.com/FocuswithJustin/sqlitecat/core/sqlite/internal/parser"
	"github.com/FocuswithJustin/sqlitecat/core/sqlite/internal/schema"
)

type (
	// DatabaseHeader is the decoded 100-byte file header.
	DatabaseHeader = format.Header
	// MasterRow is one row of the schema table.
	MasterRow = schema.MasterRow
	// Statement is a parsed query.
	Statement = parser.Statement
	// Result is the outcome of a query.
	Result = engine.Result
	// CacheStats reports page cache activity.
	CacheStats = pager.CacheStats
)

// Statement kinds.
const (
	StatementCount   = parser.Count
	StatementProject = parser.Project
)

// Result kinds.
const (
	ResultCount = engine.ResultCount
	ResultRows  = engine.ResultRows
)

// Parse parses a query without running it.
func Parse(sql string) (*Statement, error) {
	return parser.Parse(sql)
}

// DriverName returns the SQL driver name of the reference implementation.
func DriverName() string {
	return driverName
}

// DriverType returns a string identifying the reference implementation.
// Returns "cgo" for mattn/go-sqlite3, "purego" for modernc.org/sqlite.
func DriverType() string {
	return driverType
}

// IsCGO returns true if the CGO implementation is being used.
func IsCGO() bool {
	return driverType == "cgo"
}

// OpenReference opens a database with the reference SQLite driver.
func OpenReference(dataSourceName string) (*sql.DB, error) {
	return sql.Open(driverName, dataSourceName)
}

// OpenReferenceReadOnly opens the database at path read-only with the
// reference SQLite driver.
func OpenReferenceReadOnly(path string) (*sql.DB, error) {
	return OpenReference("file:" + path + "?mode=ro")
}

// Info contains information about the reference driver configuration.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	IsCGO      bool   `json:"is_cgo"`
	Package    string `json:"package"`
}

// GetInfo returns information about the reference driver.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		IsCGO:      IsCGO(),
		Package:    driverPackage,
	}
}
