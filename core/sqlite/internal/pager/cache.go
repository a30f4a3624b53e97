package pager

import (
	"fmt"
	"sync/atomic"

	"github.com/dgraph-io/ristretto/v2"
)

// CacheStats reports page cache activity.
type CacheStats struct {
	Hits     uint64
	Misses   uint64
	Capacity int64
}

// CachedReader is a Reader that keeps up to a fixed number of recently used
// pages in memory in front of another Reader.
type CachedReader struct {
	next   Reader
	cache  *ristretto.Cache[uint32, []byte]
	pages  int64
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCachedReader wraps next with a cache of at most pages pages.
func NewCachedReader(next Reader, pages int) (*CachedReader, error) {
	if pages <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", pages)
	}
	cache, err := ristretto.NewCache(&ristretto.Config[uint32, []byte]{
		NumCounters:        int64(pages) * 10,
		MaxCost:            int64(pages),
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create page cache: %w", err)
	}
	return &CachedReader{next: next, cache: cache, pages: int64(pages)}, nil
}

// PageSize returns the page size of the wrapped Reader.
func (c *CachedReader) PageSize() int {
	return c.next.PageSize()
}

// ReadPage copies page pgno into buf, reading through to the wrapped Reader
// on a miss. Cached buffers are never handed out.
func (c *CachedReader) ReadPage(pgno Pgno, buf []byte) error {
	if data, ok := c.cache.Get(uint32(pgno)); ok && len(data) == len(buf) {
		c.hits.Add(1)
		copy(buf, data)
		return nil
	}
	c.misses.Add(1)

	if err := c.next.ReadPage(pgno, buf); err != nil {
		return err
	}
	data := make([]byte, len(buf))
	copy(data, buf)
	c.cache.Set(uint32(pgno), data, 1)
	c.cache.Wait()
	return nil
}

// Stats returns the hit and miss counts so far.
func (c *CachedReader) Stats() CacheStats {
	return CacheStats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Capacity: c.pages,
	}
}

// Close releases the cache.
func (c *CachedReader) Close() {
	c.cache.Close()
}
