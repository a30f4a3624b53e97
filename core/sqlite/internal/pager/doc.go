/*
Package pager reads fixed-size pages from a SQLite database file.

SQLite is in the public domain: https://sqlite.org/copyright.html

# Overview

All database access is done in fixed-size pages. Page numbers are 1-based;
page N lives at file offset (N-1)*pageSize. The first page starts with the
100-byte database header followed by the root page of the schema table.

ReadHeader validates the header before any page is read. A Pager then reads
whole pages through an io.ReaderAt:

	h, err := pager.ReadHeader(f, size)
	if err != nil {
	    return err
	}

	p, err := pager.New(f, pager.Config{PageSize: h.GetPageSize(), Name: path})
	if err != nil {
	    return err
	}

	buf := make([]byte, p.PageSize())
	if err := p.ReadPage(1, buf); err != nil {
	    return err
	}

# Read Limit

ReadPage refuses page numbers whose end offset passes the configured read
limit (100 MiB by default). The limit catches corrupt page numbers before
they turn into huge seeks.

# Caching

The Pager itself keeps nothing between calls. CachedReader is an optional
decorator that keeps recently used pages in a bounded ristretto cache and
copies them into the caller's buffer, so page parsing never shares memory
with the cache.

# Thread Safety

A Pager is safe for concurrent reads when the underlying io.ReaderAt is.
The session that owns it is single-threaded.
*/
package pager
