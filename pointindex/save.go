package pointindex

import (
	"time"

	"github.com/royalcat/quadindex/pointmodel"
	"github.com/royalcat/quadindex/quadtree"
	"github.com/royalcat/quadindex/snapshot"
)

// SaveToFile snapshots the current point set. The tree structure itself is
// not persisted, loading rebuilds it.
func (f *Index) SaveToFile(file, dataset string) error {
	stored := f.tree.Collect()
	points := make([]quadtree.Point[pointmodel.Info], len(stored))
	for i, p := range stored {
		points[i] = quadtree.Point[pointmodel.Info]{X: p.X, Y: p.Y, Data: *p.Data}
	}

	meta := snapshot.Metadata{
		Version:     snapshot.COMPATIBILITY_LEVEL,
		Dataset:     dataset,
		DateCreated: time.Now(),
	}
	return snapshot.SaveToFile(points, meta, file)
}
