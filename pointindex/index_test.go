package pointindex_test

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/thejerf/slogassert"

	"github.com/royalcat/quadindex/pointindex"
	"github.com/royalcat/quadindex/pointmodel"
	"github.com/royalcat/quadindex/quadtree"
)

func TestAddAndNearest(t *testing.T) {
	idx, err := pointindex.New(
		pointindex.WithBounds(quadtree.NewRect(0, 0, 50, 50)),
		pointindex.WithSearchRadius(10),
	)
	if err != nil {
		t.Fatal(err)
	}

	if !idx.Add(25, 25, pointmodel.Info{Name: "a", Category: "cafe"}) {
		t.Fatal("expected point inside bounds to be accepted")
	}
	if !idx.Add(30, 20, pointmodel.Info{Name: "b", Category: "museum"}) {
		t.Fatal("expected point inside bounds to be accepted")
	}
	if idx.Add(500, 0, pointmodel.Info{Name: "far"}) {
		t.Fatal("expected point outside bounds to be rejected")
	}
	if idx.Len() != 2 {
		t.Fatalf("expected 2 points, got %d", idx.Len())
	}

	m, ok := idx.Nearest(26, 24)
	if !ok {
		t.Fatal("expected a nearest match")
	}
	if m.Name != "a" {
		t.Fatalf("expected a, got %s", m.Name)
	}

	if _, ok := idx.NearestInRadius(-40, -40, 1); ok {
		t.Fatal("expected no match far away from any point")
	}
}

func TestQueryRadius(t *testing.T) {
	idx, err := pointindex.New(pointindex.WithBounds(quadtree.NewRect(0, 0, 50, 50)))
	if err != nil {
		t.Fatal(err)
	}
	idx.Add(25, 25, pointmodel.Info{Name: "a"})
	idx.Add(30, 20, pointmodel.Info{Name: "b"})

	found := idx.QueryRadius(25, 25, 5)
	if len(found) != 1 || found[0].Name != "a" {
		t.Fatalf("expected only a, got %v", found)
	}
}

func TestCategoriesSortedAndDeduplicated(t *testing.T) {
	idx, err := pointindex.New(pointindex.WithBounds(quadtree.NewRect(0, 0, 50, 50)))
	if err != nil {
		t.Fatal(err)
	}
	idx.Add(1, 1, pointmodel.Info{Name: "a", Category: "museum"})
	idx.Add(2, 2, pointmodel.Info{Name: "b", Category: "cafe"})
	idx.Add(3, 3, pointmodel.Info{Name: "c", Category: "cafe"})
	idx.Add(4, 4, pointmodel.Info{Name: "d"})

	got := idx.Categories()
	want := []string{"cafe", "museum"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestFromPointsWarnsOnSkippedPoints(t *testing.T) {
	handler := slogassert.New(t, slog.LevelWarn, nil)

	points := []quadtree.Point[pointmodel.Info]{
		{X: 1, Y: 1, Data: pointmodel.Info{Name: "in"}},
		{X: 1000, Y: 0, Data: pointmodel.Info{Name: "out"}},
	}
	idx, err := pointindex.FromPoints(points,
		pointindex.WithBounds(quadtree.NewRect(0, 0, 50, 50)),
		pointindex.WithLogger(slog.New(handler)),
	)
	if err != nil {
		t.Fatal(err)
	}
	if idx.Len() != 1 {
		t.Fatalf("expected 1 point, got %d", idx.Len())
	}

	handler.AssertMessage("points outside index bounds skipped")
	handler.AssertEmpty()
}

func TestSnapshotRoundtripCompressed(t *testing.T) {
	idx, err := pointindex.New(pointindex.WithBounds(quadtree.NewRect(0, 0, 50, 50)))
	if err != nil {
		t.Fatal(err)
	}
	idx.Add(25, 25, pointmodel.Info{Name: "a", Category: "cafe"})
	idx.Add(-10, -10, pointmodel.Info{Name: "c", Category: "museum"})

	file := filepath.Join(t.TempDir(), "points.qis.zst")
	if err := idx.SaveToFile(file, "roundtrip"); err != nil {
		t.Fatal(err)
	}

	loaded, err := pointindex.LoadFromFile(file,
		pointindex.WithBounds(quadtree.NewRect(0, 0, 50, 50)),
		pointindex.WithSearchRadius(5),
	)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Len() != idx.Len() {
		t.Fatalf("expected %d points, got %d", idx.Len(), loaded.Len())
	}

	m, ok := loaded.Nearest(25, 25)
	if !ok || m.Name != "a" {
		t.Fatalf("expected a, got %+v (ok=%v)", m, ok)
	}
}
