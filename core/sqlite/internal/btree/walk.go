package btree

import (
	"fmt"

	"github.com/FocuswithJustin/sqlitecat/core/errors"
	"github.com/FocuswithJustin/sqlitecat/core/sqlite/internal/pager"
)

// DefaultMaxDepth is the deepest table b-tree a Walker descends into.
// Deeper trees are reported as corrupt.
const DefaultMaxDepth = 64

// Walker loads and traverses table b-trees through a page reader.
type Walker struct {
	pages  pager.Reader
	usable int

	// MaxDepth caps the number of levels below and including the root.
	MaxDepth int
}

// NewWalker creates a Walker. usableSize is the page size minus the
// header's reserved bytes.
func NewWalker(pages pager.Reader, usableSize int) *Walker {
	return &Walker{pages: pages, usable: usableSize, MaxDepth: DefaultMaxDepth}
}

// Load reads and parses one page.
func (w *Walker) Load(pgno pager.Pgno) (Page, error) {
	buf, err := pager.Fetch(w.pages, pgno)
	if err != nil {
		return nil, err
	}
	return ParsePage(buf, pgno, w.usable)
}

type frame struct {
	pgno  pager.Pgno
	depth int
}

// WalkTable visits every leaf page of the table b-tree rooted at root in key
// order. Interior pages are descended depth-first with an explicit stack.
//
// An index root fails with ErrExpectedTablePage and an index page below the
// root with ErrUnsupportedPageKind. A page reached twice fails with
// ErrPageCycle and a tree deeper than MaxDepth with ErrTreeTooDeep.
func (w *Walker) WalkTable(root pager.Pgno, visit func(*LeafTablePage) error) error {
	maxDepth := w.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	visited := make(map[pager.Pgno]struct{})
	stack := []frame{{pgno: root, depth: 1}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.depth > maxDepth {
			return errors.NewDecode(uint32(f.pgno), -1,
				fmt.Errorf("%w: more than %d levels below page %d", errors.ErrTreeTooDeep, maxDepth, root))
		}
		if _, seen := visited[f.pgno]; seen {
			return errors.NewDecode(uint32(f.pgno), -1, errors.ErrPageCycle)
		}
		visited[f.pgno] = struct{}{}

		pg, err := w.Load(f.pgno)
		if err != nil {
			return err
		}

		switch p := pg.(type) {
		case *LeafTablePage:
			if err := visit(p); err != nil {
				return err
			}
		case *InteriorTablePage:
			children, err := p.Children()
			if err != nil {
				return err
			}
			// push in reverse so the left-most child is visited first
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, frame{pgno: children[i], depth: f.depth + 1})
			}
		default:
			if f.pgno == root {
				_, err := AsLeafTable(pg)
				return err
			}
			return errors.NewDecode(uint32(f.pgno), -1,
				fmt.Errorf("%w: %s page inside table b-tree %d", errors.ErrUnsupportedPageKind, pg.Header().PageType, root))
		}
	}
	return nil
}

// CountRows returns the number of rows in the table b-tree rooted at root,
// summing the cell counts of its leaf pages.
func (w *Walker) CountRows(root pager.Pgno) (int64, error) {
	var n int64
	err := w.WalkTable(root, func(p *LeafTablePage) error {
		n += int64(p.CellCount())
		return nil
	})
	return n, err
}

// ForEachRow calls fn for every row of the table b-tree rooted at root in
// rowid order.
func (w *Walker) ForEachRow(root pager.Pgno, fn func(*LeafTableCell) error) error {
	return w.WalkTable(root, func(p *LeafTablePage) error {
		for i := 0; i < p.CellCount(); i++ {
			c, err := p.Cell(i)
			if err != nil {
				return err
			}
			if err := fn(c); err != nil {
				return err
			}
		}
		return nil
	})
}
