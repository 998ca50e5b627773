package quadtree

// QueryRect collects every stored point whose coordinates fall inside
// region, closed intervals on both axes. Subtrees whose bounds are disjoint
// from region are never visited. Result order is unspecified.
func (q *Quadtree[T]) QueryRect(region Rect) []Point[T] {
	return q.root.queryRect(region, nil)
}

// overlapsRect reports whether region and the node's coverage share at
// least a point. Touching edges count.
func (n *node[T]) overlapsRect(region Rect) bool {
	return region.X-region.W <= n.maxX && region.X+region.W >= n.minX &&
		region.Y-region.H <= n.maxY && region.Y+region.H >= n.minY
}

// overlapsCircle is the circle analogue of overlapsRect: the circle center
// is clamped onto the node's coverage and the clamped point checked against
// the radius.
func (n *node[T]) overlapsCircle(x, y, radius float64) bool {
	dx := x - clamp(x, n.minX, n.maxX)
	dy := y - clamp(y, n.minY, n.maxY)
	return dx*dx+dy*dy <= radius*radius
}

func (n *node[T]) queryRect(region Rect, found []Point[T]) []Point[T] {
	if !n.overlapsRect(region) {
		return found
	}
	if n.kids == nil {
		for _, p := range n.points {
			if region.ContainsPoint(p.X, p.Y) {
				found = append(found, p)
			}
		}
		return found
	}
	for i := range n.kids {
		found = n.kids[i].queryRect(region, found)
	}
	return found
}

// QueryCircle collects every stored point within radius of (x, y),
// inclusive. Pruning uses the rect-circle test instead of the circle's
// bounding box, so corner subtrees the circle misses are skipped too.
// A radius of 0 matches only points exactly at the center; a negative
// radius matches nothing.
func (q *Quadtree[T]) QueryCircle(x, y, radius float64) []Point[T] {
	if radius < 0 {
		return nil
	}
	return q.root.queryCircle(x, y, radius, nil)
}

func (n *node[T]) queryCircle(x, y, radius float64, found []Point[T]) []Point[T] {
	if !n.overlapsCircle(x, y, radius) {
		return found
	}
	if n.kids == nil {
		r2 := radius * radius
		for _, p := range n.points {
			dx, dy := p.X-x, p.Y-y
			if dx*dx+dy*dy <= r2 {
				found = append(found, p)
			}
		}
		return found
	}
	for i := range n.kids {
		found = n.kids[i].queryCircle(x, y, radius, found)
	}
	return found
}

// Collect returns every point in the tree.
func (q *Quadtree[T]) Collect() []Point[T] {
	return q.QueryRect(q.bounds)
}

// Rects returns the bounds of every node, parents before children. Useful
// for drawing the partition.
func (q *Quadtree[T]) Rects() []Rect {
	out := []Rect{q.bounds}
	if q.root.kids != nil {
		for i := range q.root.kids {
			out = q.root.kids[i].rects(out)
		}
	}
	return out
}

func (n *node[T]) rects(out []Rect) []Rect {
	out = append(out, Corners(n.minX, n.minY, n.maxX, n.maxY))
	if n.kids != nil {
		for i := range n.kids {
			out = n.kids[i].rects(out)
		}
	}
	return out
}
