package sqlite

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/FocuswithJustin/sqlitecat/core/cas"
	sqerrors "github.com/FocuswithJustin/sqlitecat/core/errors"
	"github.com/FocuswithJustin/sqlitecat/core/sqlite/internal/format"
	"github.com/FocuswithJustin/sqlitecat/core/sqlite/internal/testdb"
	"github.com/FocuswithJustin/sqlitecat/internal/archive"
)

// applesImage is a 4096-byte-page file with one table and two rows on a
// single leaf page.
func applesImage() []byte {
	return testdb.Build(4096, testdb.Table{
		Name: "apples",
		SQL:  "CREATE TABLE apples(id INTEGER PRIMARY KEY, name TEXT)",
		Rows: [][]any{{nil, "red"}, {nil, "green"}},
	})
}

func openImage(t *testing.T, data []byte, opts ...Option) *Session {
	t.Helper()
	s, err := Open(testdb.WriteFile(t, data), opts...)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestScenarioProjection(t *testing.T) {
	s := openImage(t, applesImage())

	res, err := s.Query("SELECT name FROM apples")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if want := [][]string{{"red"}, {"green"}}; !reflect.DeepEqual(res.Rows, want) {
		t.Errorf("Rows = %q, want %q", res.Rows, want)
	}
}

func TestScenarioCount(t *testing.T) {
	s := openImage(t, applesImage())

	res, err := s.Query("SELECT COUNT(*) FROM apples")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if res.Kind != ResultCount || res.Count != 2 {
		t.Errorf("result = %+v, want count 2", res)
	}
}

func TestScenarioInvalidMagic(t *testing.T) {
	data := applesImage()
	copy(data, "SQLite format 4\x00")

	_, err := Open(testdb.WriteFile(t, data))
	if !errors.Is(err, sqerrors.ErrInvalidMagic) {
		t.Fatalf("Open() error = %v, want ErrInvalidMagic", err)
	}
	var oe *sqerrors.OpenError
	if !errors.As(err, &oe) {
		t.Errorf("error %v is not an OpenError", err)
	}
}

func TestScenarioColumnNotFound(t *testing.T) {
	s := openImage(t, applesImage())

	_, err := s.Query("SELECT color FROM apples")
	if !errors.Is(err, sqerrors.ErrColumnNotFound) {
		t.Fatalf("Query() error = %v, want ErrColumnNotFound", err)
	}
	if msg := err.Error(); !strings.Contains(msg, "apples") || !strings.Contains(msg, "color") {
		t.Errorf("error %q does not name the table and column", msg)
	}
}

func TestSessionInfo(t *testing.T) {
	data := testdb.Build(1024,
		testdb.Table{Name: "apples", SQL: "CREATE TABLE apples(id INTEGER PRIMARY KEY, name TEXT)"},
		testdb.Table{Type: "index", Name: "apples_name", TblName: "apples", SQL: "CREATE INDEX apples_name ON apples(name)"},
		testdb.Table{Name: "oranges", SQL: "CREATE TABLE oranges(id INTEGER PRIMARY KEY, name TEXT)"},
	)
	s := openImage(t, data)

	if got := s.PageSize(); got != 1024 {
		t.Errorf("PageSize() = %d, want 1024", got)
	}
	if got := s.PageCount(); got != 4 {
		t.Errorf("PageCount() = %d, want 4", got)
	}
	if got := s.TableCount(); got != 3 {
		t.Errorf("TableCount() = %d, want 3", got)
	}
	names, err := s.TableNames()
	if err != nil {
		t.Fatalf("TableNames() error = %v", err)
	}
	if want := []string{"apples", "oranges"}; !reflect.DeepEqual(names, want) {
		t.Errorf("TableNames() = %q, want %q", names, want)
	}
	counts, err := s.CountByType()
	if err != nil {
		t.Fatalf("CountByType() error = %v", err)
	}
	if counts["table"] != 2 || counts["index"] != 1 {
		t.Errorf("CountByType() = %v", counts)
	}
	entries, err := s.Entries()
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	if len(entries) != 3 || entries[1].Type != "index" || entries[1].RootPage != 3 {
		t.Errorf("Entries() = %+v", entries)
	}

	h := s.Header()
	if h.Encoding() != format.EncodingUTF8 || h.DatabaseSize != 4 {
		t.Errorf("Header() = %+v", h)
	}
	if s.ID() == "" || s.Path() == "" || s.Size() != int64(len(data)) {
		t.Errorf("ID, Path, Size = %q, %q, %d", s.ID(), s.Path(), s.Size())
	}
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, data []byte) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o600); err != nil {
			t.Fatal(err)
		}
		return path
	}

	full := applesImage()
	tests := []struct {
		name   string
		path   string
		target error
	}{
		{"missing", filepath.Join(dir, "missing.db"), sqerrors.ErrFileNotFound},
		{"missing compressed", filepath.Join(dir, "missing.db.xz"), sqerrors.ErrFileNotFound},
		{"empty", write("empty.db", nil), sqerrors.ErrTooSmallForHeader},
		{"short header", write("short.db", full[:99]), sqerrors.ErrTooSmallForHeader},
		{"short first page", write("partial.db", full[:2048]), sqerrors.ErrTooSmallForFirstPage},
		{"bad page size", write("pagesize.db", append(append([]byte{}, full[:16]...), append([]byte{0x03, 0x00}, full[18:]...)...)), sqerrors.ErrInvalidPageSize},
		{"directory", dir, sqerrors.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(tt.path)
			if err == nil {
				s.Close()
				t.Fatal("Open() succeeded, want an error")
			}
			if !errors.Is(err, tt.target) {
				t.Errorf("Open() error = %v, want %v", err, tt.target)
			}
			var oe *sqerrors.OpenError
			if !errors.As(err, &oe) || oe.Path != tt.path {
				t.Errorf("error %v does not name %s", err, tt.path)
			}
		})
	}
}

func TestOpenPermissionDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read files without permission bits")
	}
	path := testdb.WriteFile(t, applesImage())
	if err := os.Chmod(path, 0); err != nil {
		t.Fatal(err)
	}

	_, err := Open(path)
	if !errors.Is(err, sqerrors.ErrPermissionDenied) {
		t.Errorf("Open() error = %v, want ErrPermissionDenied", err)
	}
}

func TestOpenCompressed(t *testing.T) {
	data := applesImage()
	for _, name := range []string{"apples.db.gz", "apples.db.xz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := archive.WriteFile(path, data); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}
			s, err := Open(path)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer s.Close()

			if s.Compression() == archive.None {
				t.Error("Compression() = none")
			}
			res, err := s.Query("SELECT id, name FROM apples")
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			if want := []string{"1|red", "2|green"}; !reflect.DeepEqual(res.Lines("|"), want) {
				t.Errorf("Lines() = %q, want %q", res.Lines("|"), want)
			}
		})
	}
}

func TestOpenCompressedTooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apples.db.xz")
	if err := archive.WriteFile(path, applesImage()); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path, WithReadLimit(4096))
	if !errors.Is(err, archive.ErrTooLarge) {
		t.Errorf("Open() error = %v, want ErrTooLarge", err)
	}
}

func TestReadLimit(t *testing.T) {
	// the table lives on page 2, beyond a one-page read limit
	s := openImage(t, applesImage(), WithReadLimit(4096))
	_, err := s.Query("SELECT COUNT(*) FROM apples")
	if !errors.Is(err, sqerrors.ErrPageOutOfRange) {
		t.Errorf("Query() error = %v, want ErrPageOutOfRange", err)
	}
}

func TestDecodeErrorNamesFile(t *testing.T) {
	// the table's root page is truncated away
	data := applesImage()[:4096]
	path := testdb.WriteFile(t, data)
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	_, err = s.Query("SELECT name FROM apples")
	if !errors.Is(err, sqerrors.ErrUnexpectedEOF) {
		t.Fatalf("Query() error = %v, want ErrUnexpectedEOF", err)
	}
	var de *sqerrors.DecodeError
	if !errors.As(err, &de) || de.File != path || de.Page != 2 {
		t.Errorf("error %v: want file %s page 2", err, path)
	}
}

func TestMaxDepth(t *testing.T) {
	rows := make([][]any, 200)
	for i := range rows {
		rows[i] = []any{nil, fmt.Sprintf("row %d", i)}
	}
	data := testdb.Build(512, testdb.Table{Name: "t", SQL: "CREATE TABLE t(id INTEGER PRIMARY KEY, v TEXT)", Rows: rows})

	s := openImage(t, data, WithMaxDepth(1))
	_, err := s.Query("SELECT COUNT(*) FROM t")
	if !errors.Is(err, sqerrors.ErrTreeTooDeep) {
		t.Errorf("Query() error = %v, want ErrTreeTooDeep", err)
	}

	s = openImage(t, data)
	res, err := s.Query("SELECT COUNT(*) FROM t")
	if err != nil || res.Count != 200 {
		t.Errorf("Query() = %+v, %v, want 200 rows", res, err)
	}
}

func TestCache(t *testing.T) {
	s := openImage(t, applesImage(), WithCache(8))

	for i := 0; i < 3; i++ {
		if _, err := s.Query("SELECT name FROM apples"); err != nil {
			t.Fatalf("Query() error = %v", err)
		}
	}
	st, ok := s.CacheStats()
	if !ok {
		t.Fatal("CacheStats() reports no cache")
	}
	// page 1 while opening, page 2 on the first query
	if st.Misses != 2 || st.Hits != 2 || st.Capacity != 8 {
		t.Errorf("CacheStats() = %+v, want 2 misses and 2 hits", st)
	}

	plain := openImage(t, applesImage())
	if _, ok := plain.CacheStats(); ok {
		t.Error("CacheStats() reports a cache on an uncached session")
	}
}

func TestFingerprint(t *testing.T) {
	data := applesImage()
	s := openImage(t, data)

	got, err := s.Fingerprint()
	if err != nil {
		t.Fatalf("Fingerprint() error = %v", err)
	}
	want, err := cas.HashReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if *got != *want {
		t.Errorf("Fingerprint() = %+v, want %+v", got, want)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := openImage(t, applesImage(), WithLogger(logger), WithCache(4))

	if _, err := s.Query("SELECT COUNT(*) FROM apples"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	out := buf.String()
	for _, msg := range []string{"session_open", "catalog_loaded", "query", "cache_stats"} {
		if !strings.Contains(out, "msg="+msg) {
			t.Errorf("log lacks %s:\n%s", msg, out)
		}
	}
	if !strings.Contains(out, "session_id="+s.ID()) {
		t.Errorf("log lacks the session id:\n%s", out)
	}
}

func TestClosedSession(t *testing.T) {
	s := openImage(t, applesImage())
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := s.Query("SELECT COUNT(*) FROM apples"); !errors.Is(err, sqerrors.ErrInvalidInput) {
		t.Errorf("Query() after Close error = %v", err)
	}
}

func TestParseUnsupported(t *testing.T) {
	s := openImage(t, applesImage())
	_, err := s.Query("DELETE FROM apples")
	if !errors.Is(err, sqerrors.ErrUnsupportedStatement) {
		t.Errorf("Query() error = %v, want ErrUnsupportedStatement", err)
	}
}

func TestDriverInfo(t *testing.T) {
	info := GetInfo()
	if info.DriverName != DriverName() || info.DriverType != DriverType() || info.IsCGO != IsCGO() {
		t.Errorf("GetInfo() = %+v is inconsistent", info)
	}
	if info.Package == "" {
		t.Error("Package should not be empty")
	}
	t.Logf("reference driver: %s (%s) from %s", info.DriverName, info.DriverType, info.Package)
}
