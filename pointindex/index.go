package pointindex

import (
	"log/slog"
	"math"

	"github.com/google/btree"

	"github.com/royalcat/quadindex/pointmodel"
	"github.com/royalcat/quadindex/quadtree"
)

// Index is the service-level view of a point dataset: a quadtree of
// pointmodel.Info payloads plus the lookup helpers the HTTP layer needs.
// An Index may be queried concurrently once fully built.
type Index struct {
	tree       *quadtree.Quadtree[*pointmodel.Info]
	categories *btree.BTreeG[string]

	searchRadius float64
	logger       *slog.Logger
}

const defaultSearchRadius float64 = 0.01

// Match is a query hit: the stored coordinates plus the payload.
type Match struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	pointmodel.Info
}

// Add stores a point and reports whether it fell inside the index bounds.
func (f *Index) Add(x, y float64, info pointmodel.Info) bool {
	if !f.tree.Insert(quadtree.Point[*pointmodel.Info]{X: x, Y: y, Data: &info}) {
		return false
	}
	if info.Category != "" {
		f.categories.ReplaceOrInsert(info.Category)
	}
	return true
}

// QueryRect returns every point inside region.
func (f *Index) QueryRect(region quadtree.Rect) []Match {
	return toMatches(f.tree.QueryRect(region))
}

// QueryRadius returns every point within radius of (x, y).
func (f *Index) QueryRadius(x, y, radius float64) []Match {
	return toMatches(f.tree.QueryCircle(x, y, radius))
}

// Nearest returns the closest point within the configured search radius.
func (f *Index) Nearest(x, y float64) (Match, bool) {
	return f.NearestInRadius(x, y, f.searchRadius)
}

func (f *Index) NearestInRadius(x, y, radius float64) (m Match, ok bool) {
	finPoint := quadtree.Point[*pointmodel.Info]{}
	finDist := math.Inf(1)
	for _, p := range f.tree.QueryCircle(x, y, radius) {
		dist := distanceSquared(x, y, p.X, p.Y)
		if dist < finDist {
			finPoint = p
			finDist = dist
		}
	}

	if math.IsInf(finDist, 1) {
		return Match{}, false
	}

	return Match{X: finPoint.X, Y: finPoint.Y, Info: *finPoint.Data}, true
}

// Categories returns the distinct non-empty categories, sorted.
func (f *Index) Categories() []string {
	out := make([]string, 0, f.categories.Len())
	f.categories.Ascend(func(item string) bool {
		out = append(out, item)
		return true
	})
	return out
}

// Len returns the number of stored points.
func (f *Index) Len() int {
	return f.tree.Len()
}

// Bounds returns the fixed bounds of the index.
func (f *Index) Bounds() quadtree.Rect {
	return f.tree.Bounds()
}

func toMatches(points []quadtree.Point[*pointmodel.Info]) []Match {
	out := make([]Match, 0, len(points))
	for _, p := range points {
		out = append(out, Match{X: p.X, Y: p.Y, Info: *p.Data})
	}
	return out
}

func distanceSquared(x1, y1, x2, y2 float64) (distance float64) {
	d0 := (x1 - x2)
	d1 := (y1 - y2)
	return d0*d0 + d1*d1
}
