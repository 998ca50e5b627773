// Package quadtree implements a point quadtree over 2D space: a recursive
// four-way partition with a fixed leaf capacity, supporting insertion and
// rectangle/circle range queries. The payload type carried by every point is
// opaque to the tree.
//
// The tree is not safe for concurrent use.
package quadtree

import "errors"

// ErrInvalidCapacity is returned by New for capacities below 1. A zero
// capacity would make subdivision non-terminating.
var ErrInvalidCapacity = errors.New("quadtree: capacity must be at least 1")

// maxDepth caps subdivision. Without it, more coincident points than the
// leaf capacity would split forever; a leaf at maxDepth grows past capacity
// instead.
const maxDepth = 32

// Point is a single indexed sample: a position in the plane plus whatever
// value the caller wants carried with it. The tree never inspects Data.
type Point[T any] struct {
	X, Y float64
	Data T
}

// Quadtree stores points inside a fixed bounding rect. Nodes start as leaves
// holding up to capacity points and subdivide into four equal quadrants when
// the next insert would overflow.
type Quadtree[T any] struct {
	bounds   Rect
	capacity int
	size     int
	root     node[T]
}

// node is either a leaf or an internal node. kids == nil marks a leaf;
// subdividing hands every stored point down and nils the points slice, so a
// node never holds both.
//
// Coverage is kept as corner coordinates, not center+extent: children copy
// the parent's outer corners and split at the midpoint, and that midpoint is
// the exact value quadrant compares against. A point routed into a child is
// therefore always inside the child's stored corners, no matter how deep the
// tree gets.
type node[T any] struct {
	minX, minY, maxX, maxY float64

	points []Point[T]
	kids   *[4]node[T] // NW, NE, SW, SE
}

// New creates an empty tree covering bounds. capacity is the number of
// points a leaf holds before it subdivides.
func New[T any](bounds Rect, capacity int) (*Quadtree[T], error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	return &Quadtree[T]{
		bounds:   bounds,
		capacity: capacity,
		root: node[T]{
			minX: bounds.X - bounds.W,
			minY: bounds.Y - bounds.H,
			maxX: bounds.X + bounds.W,
			maxY: bounds.Y + bounds.H,
		},
	}, nil
}

// Insert stores p in the leaf covering its position and reports whether it
// was accepted. Points outside the tree bounds are rejected; points exactly
// on an edge are inside. Inserting the same position twice stores it twice.
func (q *Quadtree[T]) Insert(p Point[T]) bool {
	if !q.bounds.ContainsPoint(p.X, p.Y) {
		return false
	}
	q.root.insert(p, q.capacity, 0)
	q.size++
	return true
}

func (n *node[T]) insert(p Point[T], capacity, depth int) {
	if n.kids != nil {
		n.quadrant(p.X, p.Y).insert(p, capacity, depth+1)
		return
	}
	if len(n.points) < capacity || depth >= maxDepth {
		n.points = append(n.points, p)
		return
	}
	n.subdivide()
	n.quadrant(p.X, p.Y).insert(p, capacity, depth+1)
}

func (n *node[T]) midpoint() (float64, float64) {
	return n.minX + (n.maxX-n.minX)/2, n.minY + (n.maxY-n.minY)/2
}

// quadrant picks the single child covering (x, y). Ties on a dividing line
// resolve up and right: x >= midpoint goes east, y >= midpoint goes north,
// so every point maps to exactly one child.
func (n *node[T]) quadrant(x, y float64) *node[T] {
	cx, cy := n.midpoint()
	i := 0
	if x >= cx {
		i = 1
	}
	if y < cy {
		i += 2
	}
	return &n.kids[i]
}

// subdivide splits a full leaf into four quadrant leaves and redistributes
// its points by the same rule insertion routes with. Each child receives at
// most the parent's point count, so no child can overflow here.
func (n *node[T]) subdivide() {
	cx, cy := n.midpoint()
	n.kids = &[4]node[T]{
		{minX: n.minX, minY: cy, maxX: cx, maxY: n.maxY},
		{minX: cx, minY: cy, maxX: n.maxX, maxY: n.maxY},
		{minX: n.minX, minY: n.minY, maxX: cx, maxY: cy},
		{minX: cx, minY: n.minY, maxX: n.maxX, maxY: cy},
	}
	for _, p := range n.points {
		c := n.quadrant(p.X, p.Y)
		c.points = append(c.points, p)
	}
	n.points = nil
}

// Len returns the number of stored points.
func (q *Quadtree[T]) Len() int {
	return q.size
}

// Bounds returns the fixed bounding rect of the whole tree.
func (q *Quadtree[T]) Bounds() Rect {
	return q.bounds
}

// Capacity returns the leaf capacity the tree was created with.
func (q *Quadtree[T]) Capacity() int {
	return q.capacity
}

// Clear drops every point and child node, leaving an empty leaf with the
// original bounds and capacity.
func (q *Quadtree[T]) Clear() {
	q.root.points = nil
	q.root.kids = nil
	q.size = 0
}
