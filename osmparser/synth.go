package osmparser

import (
	"strconv"

	"github.com/fogleman/poissondisc"
	"github.com/paulmach/orb"

	"github.com/royalcat/quadindex/pointmodel"
	"github.com/royalcat/quadindex/quadtree"
)

// GenerateUniform fills bound with poisson-disc sampled points at least
// minDist apart. The result is an evenly spread synthetic dataset for load
// testing, every point gets the "synthetic" category.
func GenerateUniform(bound orb.Bound, minDist float64) []quadtree.Point[pointmodel.Info] {
	samples := poissondisc.Sample(bound.Min.X(), bound.Min.Y(), bound.Max.X(), bound.Max.Y(), minDist, 10, nil)

	points := make([]quadtree.Point[pointmodel.Info], 0, len(samples))
	for i, p := range samples {
		points = append(points, quadtree.Point[pointmodel.Info]{
			X: p.X,
			Y: p.Y,
			Data: pointmodel.Info{
				Name:     "seed-" + strconv.Itoa(i),
				Category: "synthetic",
			},
		})
	}
	return points
}
