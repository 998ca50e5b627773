package pointindex

import (
	"log/slog"

	"github.com/royalcat/quadindex/quadtree"
)

type options struct {
	bounds       quadtree.Rect
	capacity     int
	searchRadius float64
	logger       *slog.Logger
}

type Option interface {
	apply(*options)
}

type searchRadius float64

func (r searchRadius) apply(o *options) {
	o.searchRadius = float64(r)
}

// Default: 0.01
func WithSearchRadius(radius float64) Option {
	return searchRadius(radius)
}

type bounds quadtree.Rect

func (b bounds) apply(o *options) {
	o.bounds = quadtree.Rect(b)
}

// Default: the whole lon/lat plane.
func WithBounds(r quadtree.Rect) Option {
	return bounds(r)
}

type capacity int

func (c capacity) apply(o *options) {
	o.capacity = int(c)
}

// Default: 128
func WithCapacity(n int) Option {
	return capacity(n)
}

type logger struct{ l *slog.Logger }

func (l logger) apply(o *options) {
	o.logger = l.l
}

func WithLogger(l *slog.Logger) Option {
	return logger{l: l}
}
