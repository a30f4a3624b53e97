package sqlite

import (
	"log/slog"

	"github.com/FocuswithJustin/sqlitecat/core/sqlite/internal/btree"
	"github.com/FocuswithJustin/sqlitecat/core/sqlite/internal/pager"
	"github.com/FocuswithJustin/sqlitecat/internal/logging"
)

// DefaultReadLimit is the largest file offset a session reads.
const DefaultReadLimit = pager.DefaultReadLimit

// DefaultMaxDepth is the deepest table b-tree a session descends into.
const DefaultMaxDepth = btree.DefaultMaxDepth

type options struct {
	cachePages int
	readLimit  int64
	maxDepth   int
	logger     *slog.Logger
}

func defaultOptions() options {
	return options{
		readLimit: DefaultReadLimit,
		maxDepth:  DefaultMaxDepth,
		logger:    logging.Discard(),
	}
}

// Option configures Open.
type Option func(*options)

// WithCache keeps up to pages recently read pages in memory. Zero disables
// the cache.
func WithCache(pages int) Option {
	return func(o *options) {
		o.cachePages = pages
	}
}

// WithReadLimit bounds the file offsets read, and the decompressed size of
// compressed files, to limit bytes.
func WithReadLimit(limit int64) Option {
	return func(o *options) {
		if limit > 0 {
			o.readLimit = limit
		}
	}
}

// WithMaxDepth caps the depth of table b-trees. Deeper trees fail as
// corrupt.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		if depth > 0 {
			o.maxDepth = depth
		}
	}
}

// WithLogger sets the logger for session events. Sessions log nothing by
// default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
