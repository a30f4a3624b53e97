package sqlite

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/sqlitecat/core/cas"
	"github.com/FocuswithJustin/sqlitecat/core/errors"
	"github.com/FocuswithJustin/sqlitecat/core/sqlite/internal/btree"
	"github.com/FocuswithJustin/sqlitecat/core/sqlite/internal/engine"
	"github.com/FocuswithJustin/sqlitecat/core/sqlite/internal/pager"
	"github.com/FocuswithJustin/sqlitecat/core/sqlite/internal/schema"
	"github.com/FocuswithJustin/sqlitecat/internal/archive"
)

// Session is an open database file. The file handle and the schema table are
// held until Close. A Session is not safe for concurrent use.
type Session struct {
	id          string
	path        string
	size        int64
	compression archive.Compression

	file    io.Closer
	header  *DatabaseHeader
	pages   pager.Reader
	cache   *pager.CachedReader
	walker  *btree.Walker
	catalog *schema.Catalog
	exec    *engine.Executor
	logger  *slog.Logger
	closed  bool
}

// Open opens the database at path and loads its schema table. Header
// problems fail before any page is read.
func Open(path string, opts ...Option) (*Session, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	s := &Session{
		id:          uuid.NewString(),
		path:        path,
		compression: archive.DetectCompression(path),
	}
	s.logger = o.logger.With("session_id", s.id)

	src, err := s.openSource(o.readLimit)
	if err != nil {
		return nil, err
	}
	if err := s.init(src, o); err != nil {
		s.closeFile()
		return nil, err
	}

	s.logger.Debug("session_open",
		"path", path,
		"page_size", s.PageSize(),
		"page_count", s.PageCount(),
		"encoding", s.header.Encoding().String(),
		"compression", s.compression.String(),
	)
	return s, nil
}

// openSource opens the backing bytes: the file itself, or its decompressed
// contents held in memory.
func (s *Session) openSource(limit int64) (io.ReaderAt, error) {
	if s.compression != archive.None {
		data, err := archive.ReadAll(s.path, limit)
		if err != nil {
			return nil, openError(s.path, err)
		}
		s.size = int64(len(data))
		return bytes.NewReader(data), nil
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, openError(s.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, openError(s.path, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, &errors.OpenError{Path: s.path, Err: fmt.Errorf("%w: is a directory", errors.ErrInvalidInput)}
	}
	s.file = f
	s.size = info.Size()
	return f, nil
}

// openError classifies a filesystem error.
func openError(path string, err error) error {
	switch {
	case os.IsNotExist(err):
		err = fmt.Errorf("%w: %w", errors.ErrFileNotFound, err)
	case os.IsPermission(err):
		err = fmt.Errorf("%w: %w", errors.ErrPermissionDenied, err)
	}
	return &errors.OpenError{Path: path, Err: err}
}

func (s *Session) init(src io.ReaderAt, o options) error {
	h, err := pager.ReadHeader(src, s.size)
	if err != nil {
		return &errors.OpenError{Path: s.path, Err: err}
	}
	s.header = h

	p, err := pager.New(src, pager.Config{
		PageSize:  h.GetPageSize(),
		ReadLimit: o.readLimit,
		Name:      s.path,
	})
	if err != nil {
		return &errors.OpenError{Path: s.path, Err: err}
	}
	s.pages = p

	if o.cachePages > 0 {
		c, err := pager.NewCachedReader(p, o.cachePages)
		if err != nil {
			return err
		}
		s.cache = c
		s.pages = c
	}

	s.walker = btree.NewWalker(s.pages, h.UsableSize())
	s.walker.MaxDepth = o.maxDepth

	s.catalog, err = schema.LoadCatalog(s.walker, h.Encoding())
	if err != nil {
		if s.cache != nil {
			s.cache.Close()
		}
		return errors.WithFile(err, s.path)
	}
	s.logger.Debug("catalog_loaded", "entries", s.catalog.TableCount())

	s.exec = engine.NewExecutor(s.walker, s.catalog, h.Encoding())
	return nil
}

// ID returns the session's unique id.
func (s *Session) ID() string {
	return s.id
}

// Path returns the path the session was opened with.
func (s *Session) Path() string {
	return s.path
}

// Compression returns how the file is stored.
func (s *Session) Compression() archive.Compression {
	return s.compression
}

// Size returns the database size in bytes, after decompression.
func (s *Session) Size() int64 {
	return s.size
}

// Header returns a copy of the database header.
func (s *Session) Header() DatabaseHeader {
	return *s.header
}

// PageSize returns the page size in bytes.
func (s *Session) PageSize() int {
	return s.header.GetPageSize()
}

// PageCount returns the number of pages in the database.
func (s *Session) PageCount() uint32 {
	return pager.PageCount(s.header, s.size)
}

// TableCount returns the number of schema entries of every type.
func (s *Session) TableCount() int {
	return s.catalog.TableCount()
}

// TableNames returns the names of all tables in schema order.
func (s *Session) TableNames() ([]string, error) {
	names, err := s.catalog.TableNames()
	return names, errors.WithFile(err, s.path)
}

// Entries returns every row of the schema table.
func (s *Session) Entries() ([]MasterRow, error) {
	rows, err := s.catalog.Entries()
	return rows, errors.WithFile(err, s.path)
}

// CountByType returns the number of schema entries of each type.
func (s *Session) CountByType() (map[string]int, error) {
	counts, err := s.catalog.CountByType()
	return counts, errors.WithFile(err, s.path)
}

// Execute runs a parsed statement.
func (s *Session) Execute(stmt *Statement) (*Result, error) {
	if s.closed {
		return nil, fmt.Errorf("%w: session is closed", errors.ErrInvalidInput)
	}

	start := time.Now()
	res, err := s.exec.Execute(stmt)
	if err != nil {
		return nil, errors.WithFile(err, s.path)
	}

	args := []any{"table", stmt.Table, "kind", stmt.Kind.String(), "elapsed", time.Since(start)}
	if res.Kind == ResultCount {
		args = append(args, "count", res.Count)
	} else {
		args = append(args, "rows", len(res.Rows))
	}
	s.logger.Debug("query", args...)
	return res, nil
}

// Query parses and runs sql.
func (s *Session) Query(sql string) (*Result, error) {
	stmt, err := Parse(sql)
	if err != nil {
		return nil, err
	}
	return s.Execute(stmt)
}

// Fingerprint digests every page of the database in order.
func (s *Session) Fingerprint() (*cas.HashResult, error) {
	h := cas.NewHasher()
	n := s.PageCount()
	for pgno := pager.Pgno(1); uint32(pgno) <= n; pgno++ {
		buf, err := pager.Fetch(s.pages, pgno)
		if err != nil {
			return nil, errors.WithFile(err, s.path)
		}
		h.Write(buf)
	}
	return h.Sum(), nil
}

// CacheStats returns the page cache counters. ok is false when the session
// has no cache.
func (s *Session) CacheStats() (stats CacheStats, ok bool) {
	if s.cache == nil {
		return CacheStats{}, false
	}
	return s.cache.Stats(), true
}

// Close releases the file handle and the page cache.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if s.cache != nil {
		st := s.cache.Stats()
		s.logger.Debug("cache_stats", "hits", st.Hits, "misses", st.Misses, "capacity", st.Capacity)
		s.cache.Close()
	}
	return s.closeFile()
}

func (s *Session) closeFile() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
