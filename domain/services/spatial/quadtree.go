// Package spatial provides a point quadtree over node positions for fast
// viewport range queries. The tree indexes each node by its top-left corner;
// callers querying by bounding box must expand their search rectangle by the
// maximum plausible node dimension (see the viewport culler).
package spatial

import (
	"math"

	"canvas-engine/domain/core/entities"
	"canvas-engine/domain/core/valueobjects"
)

// maxDepth bounds subdivision so that pathological near-coincident points
// cannot recurse unboundedly; beyond it entries pile up in one bucket.
const maxDepth = 32

// Index is a point quadtree over a node set. It is immutable after Build and
// intended to be rebuilt whenever the node collection changes; a rebuild is
// O(n log n) and cheap relative to a render pass.
type Index struct {
	root *treeNode
	size int
}

type treeNode struct {
	bounds   valueobjects.Rect
	children [4]*treeNode
	entries  []*entities.Node // non-nil only on leaves
	leaf     bool
}

// Build constructs an index over the given nodes. Nodes with non-finite
// coordinates are excluded so that one corrupt entity cannot break queries.
func Build(nodes []*entities.Node) *Index {
	finite := make([]*entities.Node, 0, len(nodes))
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)

	for _, n := range nodes {
		if n == nil || !n.HasFinitePosition() {
			continue
		}
		finite = append(finite, n)
		minX = math.Min(minX, n.X)
		minY = math.Min(minY, n.Y)
		maxX = math.Max(maxX, n.X)
		maxY = math.Max(maxY, n.Y)
	}

	idx := &Index{size: len(finite)}
	if len(finite) == 0 {
		return idx
	}

	// Square extent keeps quadrant aspect ratios stable. A degenerate extent
	// (all points coincident) still gets a positive side length.
	side := math.Max(maxX-minX, maxY-minY)
	if side <= 0 {
		side = 1
	}
	idx.root = &treeNode{
		bounds: valueobjects.Rect{MinX: minX, MinY: minY, MaxX: minX + side, MaxY: minY + side},
		leaf:   true,
	}
	for _, n := range finite {
		idx.root.insert(n, 0)
	}
	return idx
}

// Size returns the number of indexed nodes
func (ix *Index) Size() int {
	return ix.size
}

// VisitRange visits every indexed node whose position lies inside the given
// rectangle. Quadrants that cannot intersect the rectangle are skipped.
func (ix *Index) VisitRange(rect valueobjects.Rect, fn func(*entities.Node)) {
	if ix == nil || ix.root == nil {
		return
	}
	ix.root.visit(rect, fn)
}

func (t *treeNode) insert(n *entities.Node, depth int) {
	if t.leaf {
		if len(t.entries) == 0 || depth >= maxDepth || coincident(t.entries[0], n) {
			t.entries = append(t.entries, n)
			return
		}
		// Split: push existing entries down, then retry the insert.
		existing := t.entries
		t.entries = nil
		t.leaf = false
		for _, e := range existing {
			t.child(e.X, e.Y).insert(e, depth+1)
		}
	}
	t.child(n.X, n.Y).insert(n, depth+1)
}

func (t *treeNode) child(x, y float64) *treeNode {
	c := t.bounds.Center()
	q := 0
	if x >= c.X {
		q |= 1
	}
	if y >= c.Y {
		q |= 2
	}
	if t.children[q] == nil {
		b := t.bounds
		if q&1 == 1 {
			b.MinX = c.X
		} else {
			b.MaxX = c.X
		}
		if q&2 == 2 {
			b.MinY = c.Y
		} else {
			b.MaxY = c.Y
		}
		t.children[q] = &treeNode{bounds: b, leaf: true}
	}
	return t.children[q]
}

func (t *treeNode) visit(rect valueobjects.Rect, fn func(*entities.Node)) {
	// Closed-interval overlap test: points sit on quadrant boundaries, so a
	// strict Intersects would miss entries lying exactly on an edge.
	if t.bounds.MinX > rect.MaxX || t.bounds.MaxX < rect.MinX ||
		t.bounds.MinY > rect.MaxY || t.bounds.MaxY < rect.MinY {
		return
	}
	if t.leaf {
		for _, e := range t.entries {
			if rect.Contains(e.Position()) {
				fn(e)
			}
		}
		return
	}
	for _, c := range t.children {
		if c != nil {
			c.visit(rect, fn)
		}
	}
}

func coincident(a, b *entities.Node) bool {
	return a.X == b.X && a.Y == b.Y
}
