package pointindex

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/btree"
	"github.com/klauspost/compress/zstd"

	"github.com/royalcat/quadindex/pointmodel"
	"github.com/royalcat/quadindex/quadtree"
	"github.com/royalcat/quadindex/snapshot"
)

const (
	defaultCapacity = 128
	// btree degree for the category set, it stays small
	categoriesDegree = 8
)

func loadOptions(opts ...Option) options {
	options := options{
		bounds:       quadtree.NewRect(0, 0, 180, 90),
		capacity:     defaultCapacity,
		searchRadius: defaultSearchRadius,
		logger:       slog.Default(),
	}
	for _, o := range opts {
		o.apply(&options)
	}
	return options
}

// New creates an empty index.
func New(opts ...Option) (*Index, error) {
	options := loadOptions(opts...)
	options.logger.Info("Initializing point index",
		"bounds", options.bounds, "capacity", options.capacity)

	tree, err := quadtree.New[*pointmodel.Info](options.bounds, options.capacity)
	if err != nil {
		return nil, err
	}

	return &Index{
		tree:         tree,
		categories:   btree.NewOrderedG[string](categoriesDegree),
		searchRadius: options.searchRadius,
		logger:       options.logger,
	}, nil
}

// FromPoints builds an index from a flat point set. Points outside the index
// bounds are skipped with a warning, nothing else fails on them.
func FromPoints(points []quadtree.Point[pointmodel.Info], opts ...Option) (*Index, error) {
	f, err := New(opts...)
	if err != nil {
		return nil, err
	}

	skipped := 0
	for _, p := range points {
		if !f.Add(p.X, p.Y, p.Data) {
			skipped++
		}
	}
	if skipped > 0 {
		f.logger.Warn("points outside index bounds skipped",
			"skipped", skipped, "bounds", f.tree.Bounds())
	}

	return f, nil
}

func LoadFromReader(r io.Reader, opts ...Option) (*Index, error) {
	options := loadOptions(opts...)
	log := options.logger

	points, _, err := snapshot.LoadFromReader(r, log)
	if err != nil {
		return nil, fmt.Errorf("error loading points: %w", err)
	}

	return FromPoints(points, opts...)
}

func LoadFromFile(file string, opts ...Option) (*Index, error) {
	options := loadOptions(opts...)

	if stat, err := os.Stat(file); err == nil {
		options.logger.Info("Loading index snapshot",
			"file", file, "size", humanize.Bytes(uint64(stat.Size())))
	}

	reader, err := openReader(file)
	if err != nil {
		return nil, fmt.Errorf("error opening points file: %w", err)
	}
	defer reader.Close()

	return LoadFromReader(reader, opts...)
}

func openReader(name string) (io.ReadCloser, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("can`t open file error: %w", err)
	}

	if strings.HasSuffix(name, ".zst") {
		dec, err := zstd.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("can`t create zstd reader: %w", err)
		}

		return dec.IOReadCloser(), nil
	}

	return file, nil
}
