package pager

import (
	"fmt"
	"io"
	"math"

	"github.com/FocuswithJustin/sqlitecat/core/errors"
)

// Default values
const (
	// DefaultReadLimit is the ceiling on pgno*pageSize. It guards against
	// corrupt page numbers, not against large files.
	DefaultReadLimit = 100 << 20
)

// Pgno represents a page number in the database.
// Page numbers are 1-based; page 0 does not exist.
type Pgno uint32

// NewPgno converts a stored page number to a Pgno. It fails with
// ErrInvalidPageNumber for values outside [1, 2^32-1].
func NewPgno(n int64) (Pgno, error) {
	if n <= 0 || n > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d", errors.ErrInvalidPageNumber, n)
	}
	return Pgno(n), nil
}

// Reader reads whole pages by number.
type Reader interface {
	// PageSize returns the size of every page in bytes.
	PageSize() int

	// ReadPage fills buf, which must be exactly PageSize bytes, with page pgno.
	ReadPage(pgno Pgno, buf []byte) error
}

// Config configures a Pager.
type Config struct {
	// PageSize is the size of every page in bytes.
	PageSize int

	// ReadLimit bounds pgno*PageSize. Zero means DefaultReadLimit.
	ReadLimit int64

	// Name identifies the backing file in errors.
	Name string
}

// Pager reads pages from a database file.
// It keeps no cache: every call re-reads from the backing store.
type Pager struct {
	r        io.ReaderAt
	name     string
	pageSize int
	limit    int64
	reads    uint64
}

// New creates a Pager over r.
func New(r io.ReaderAt, cfg Config) (*Pager, error) {
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("%w: %d", errors.ErrInvalidPageSize, cfg.PageSize)
	}
	limit := cfg.ReadLimit
	if limit <= 0 {
		limit = DefaultReadLimit
	}
	return &Pager{
		r:        r,
		name:     cfg.Name,
		pageSize: cfg.PageSize,
		limit:    limit,
	}, nil
}

// PageSize returns the page size in bytes.
func (p *Pager) PageSize() int {
	return p.pageSize
}

// Reads returns the number of pages read from the backing store.
func (p *Pager) Reads() uint64 {
	return p.reads
}

// ReadPage reads page pgno into buf from offset (pgno-1)*pageSize.
// A short read fails with ErrUnexpectedEOF naming the page.
func (p *Pager) ReadPage(pgno Pgno, buf []byte) error {
	if pgno == 0 {
		return errors.NewDecode(0, -1, errors.ErrInvalidPageNumber)
	}
	if len(buf) != p.pageSize {
		return fmt.Errorf("%w: got %d, want %d", errors.ErrBufferSize, len(buf), p.pageSize)
	}
	if int64(pgno)*int64(p.pageSize) > p.limit {
		return p.decodeErr(pgno, fmt.Errorf("%w: %d bytes", errors.ErrPageOutOfRange, p.limit))
	}

	offset := int64(pgno-1) * int64(p.pageSize)
	n, err := p.r.ReadAt(buf, offset)
	p.reads++
	if n == len(buf) {
		return nil
	}
	if err == nil || err == io.EOF || err == io.ErrUnexpectedEOF {
		return p.decodeErr(pgno, fmt.Errorf("%w: read %d of %d bytes", errors.ErrUnexpectedEOF, n, len(buf)))
	}
	return p.decodeErr(pgno, fmt.Errorf("failed to read page: %w", err))
}

func (p *Pager) decodeErr(pgno Pgno, err error) error {
	de := errors.NewDecode(uint32(pgno), -1, err)
	de.File = p.name
	return de
}

// Fetch allocates a buffer and reads page pgno into it.
func Fetch(r Reader, pgno Pgno) ([]byte, error) {
	buf := make([]byte, r.PageSize())
	if err := r.ReadPage(pgno, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
