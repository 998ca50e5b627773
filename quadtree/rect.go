package quadtree

import "math"

// Rect is an axis-aligned box anchored on its center: the region
// [X-W, X+W] x [Y-H, Y+H]. W and H are half-extents and must not be
// negative.
type Rect struct {
	X, Y float64
	W, H float64
}

// NewRect builds a rect from a center and half-extents.
func NewRect(x, y, w, h float64) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// Range is the square of half-extent r around (x, y).
func Range(x, y, r float64) Rect {
	return Rect{X: x, Y: y, W: r, H: r}
}

// Corners builds the rect spanning two opposite corners, in any order.
func Corners(ax, ay, bx, by float64) Rect {
	return Rect{
		X: (ax + bx) / 2,
		Y: (ay + by) / 2,
		W: math.Abs(bx-ax) / 2,
		H: math.Abs(by-ay) / 2,
	}
}

// ScreenSize is the rect covering [0, w] x [0, h].
func ScreenSize(w, h float64) Rect {
	return Rect{X: w / 2, Y: h / 2, W: w / 2, H: h / 2}
}

// ContainsPoint reports whether (x, y) lies inside the rect. Both intervals
// are closed, edge points are inside.
func (r Rect) ContainsPoint(x, y float64) bool {
	return x >= r.X-r.W && x <= r.X+r.W &&
		y >= r.Y-r.H && y <= r.Y+r.H
}

// Intersects reports whether the two boxes overlap. Touching edges count as
// overlapping: a point on a shared edge belongs to both boxes, so neither
// side may be pruned.
func (r Rect) Intersects(o Rect) bool {
	return !(o.X-o.W > r.X+r.W ||
		o.X+o.W < r.X-r.W ||
		o.Y-o.H > r.Y+r.H ||
		o.Y+o.H < r.Y-r.H)
}

// IntersectsCircle reports whether the circle around (x, y) reaches into the
// rect, by clamping the center onto the box and comparing the remaining
// distance against the radius, squared on both sides.
func (r Rect) IntersectsCircle(x, y, radius float64) bool {
	dx := x - clamp(x, r.X-r.W, r.X+r.W)
	dy := y - clamp(y, r.Y-r.H, r.Y+r.H)
	return dx*dx+dy*dy <= radius*radius
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
