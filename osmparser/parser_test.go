package osmparser

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

func TestPointFromNode(t *testing.T) {
	f := NewParser(ConfigDefault())

	node := &osm.Node{
		Lat: 51.5,
		Lon: -0.12,
		Tags: osm.Tags{
			{Key: "name", Value: "The Anchor"},
			{Key: "amenity", Value: "pub"},
		},
	}
	p, ok := f.pointFromNode(node)
	if !ok {
		t.Fatal("expected named node to produce a point")
	}
	if p.X != -0.12 || p.Y != 51.5 {
		t.Fatalf("expected lon/lat coordinates, got (%v, %v)", p.X, p.Y)
	}
	if p.Data.Name != "The Anchor" || p.Data.Category != "pub" {
		t.Fatalf("unexpected payload: %+v", p.Data)
	}
}

func TestPointFromNodeSkipsUnnamed(t *testing.T) {
	f := NewParser(ConfigDefault())

	node := &osm.Node{
		Lat:  51.5,
		Lon:  -0.12,
		Tags: osm.Tags{{Key: "amenity", Value: "bench"}},
	}
	if _, ok := f.pointFromNode(node); ok {
		t.Fatal("expected unnamed node to be skipped")
	}
}

func TestPointFromNodeCategoryPriority(t *testing.T) {
	f := NewParser(ConfigDefault())

	node := &osm.Node{
		Tags: osm.Tags{
			{Key: "name", Value: "Old Mill"},
			{Key: "tourism", Value: "attraction"},
			{Key: "historic", Value: "mill"},
		},
	}
	p, ok := f.pointFromNode(node)
	if !ok {
		t.Fatal("expected a point")
	}
	// tourism is listed before historic in the default tag order
	if p.Data.Category != "attraction" {
		t.Fatalf("expected attraction, got %s", p.Data.Category)
	}
}

func TestGenerateUniform(t *testing.T) {
	bound := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{10, 10}}
	points := GenerateUniform(bound, 1)
	if len(points) == 0 {
		t.Fatal("expected points to be generated")
	}

	for _, p := range points {
		if p.X < 0 || p.X > 10 || p.Y < 0 || p.Y > 10 {
			t.Fatalf("point (%v, %v) outside requested bound", p.X, p.Y)
		}
		if p.Data.Category != "synthetic" {
			t.Fatalf("unexpected category %q", p.Data.Category)
		}
	}

	// pairwise spacing is the whole point of poisson-disc sampling
	for i := range points {
		for j := i + 1; j < len(points); j++ {
			dx := points[i].X - points[j].X
			dy := points[i].Y - points[j].Y
			if dx*dx+dy*dy < 1 {
				t.Fatalf("points %d and %d closer than the minimum distance", i, j)
			}
		}
	}
}
