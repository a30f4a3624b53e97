package pager

import (
	"fmt"
	"io"

	"github.com/FocuswithJustin/sqlitecat/core/errors"
	"github.com/FocuswithJustin/sqlitecat/core/sqlite/internal/format"
)

// ReadHeader reads and validates the database header of a file of size bytes.
// It fails before any page is read when the file is shorter than the header,
// the magic string is wrong, or the file cannot hold page 1.
func ReadHeader(r io.ReaderAt, size int64) (*format.Header, error) {
	if size < format.HeaderSize {
		return nil, fmt.Errorf("%w: file is %d bytes", errors.ErrTooSmallForHeader, size)
	}

	data := make([]byte, format.HeaderSize)
	if _, err := r.ReadAt(data, 0); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read database header: %w", err)
	}

	h := &format.Header{}
	if err := h.Parse(data); err != nil {
		return nil, err
	}

	if size < int64(h.GetPageSize()) {
		return nil, fmt.Errorf("%w: file is %d bytes, page size is %d",
			errors.ErrTooSmallForFirstPage, size, h.GetPageSize())
	}
	return h, nil
}

// PageCount returns the number of pages in a file of size bytes, preferring
// the header's in-header database size when it is consistent with the file.
func PageCount(h *format.Header, size int64) uint32 {
	fromSize := uint32(size / int64(h.GetPageSize()))
	if h.DatabaseSize != 0 && h.DatabaseSize <= fromSize {
		return h.DatabaseSize
	}
	return fromSize
}
