// Package osmparser builds point sets for the index from OpenStreetMap
// extracts. Only named nodes are kept, everything else in the pbf stream is
// skipped.
package osmparser

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/cheggaaa/pb/v3/termutil"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"github.com/royalcat/quadindex/pointmodel"
	"github.com/royalcat/quadindex/quadtree"
)

type Parser struct {
	threads      int
	categoryTags []string

	mu     sync.Mutex
	points []quadtree.Point[pointmodel.Info]

	log *logrus.Logger
}

func NewParser(cfg Config) *Parser {
	def := ConfigDefault()
	if cfg.Threads <= 0 {
		cfg.Threads = def.Threads
	}
	if len(cfg.CategoryTags) == 0 {
		cfg.CategoryTags = def.CategoryTags
	}

	return &Parser{
		threads:      cfg.Threads,
		categoryTags: cfg.CategoryTags,
		log:          logrus.New(),
	}
}

// ParsePBF scans every node in an .osm.pbf stream and keeps the named ones
// as index points. size is the total stream length, it only drives the
// progress bar. Can be called once per input file, points accumulate.
func (f *Parser) ParsePBF(ctx context.Context, r io.Reader, size int64) error {
	scanner := osmpbf.New(ctx, r, f.threads)
	defer scanner.Close()
	scanner.SkipWays = true
	scanner.SkipRelations = true

	pool := pool.New().WithMaxGoroutines(f.threads)
	defer pool.Wait()

	return scanWithProgress(scanner, size, "importing nodes", func(object osm.Object) bool {
		node, ok := object.(*osm.Node)
		if !ok {
			f.log.Error("Object does not type of node")
			return true
		}

		pool.Go(func() {
			f.parseNode(node)
		})

		return true
	})
}

func (f *Parser) parseNode(node *osm.Node) {
	p, ok := f.pointFromNode(node)
	if !ok {
		return
	}

	f.mu.Lock()
	f.points = append(f.points, p)
	f.mu.Unlock()
}

func (f *Parser) pointFromNode(node *osm.Node) (quadtree.Point[pointmodel.Info], bool) {
	name := node.Tags.Find("name")
	if name == "" {
		return quadtree.Point[pointmodel.Info]{}, false
	}

	category := ""
	for _, tag := range f.categoryTags {
		if v := node.Tags.Find(tag); v != "" {
			category = v
			break
		}
	}

	return quadtree.Point[pointmodel.Info]{
		X:    node.Lon,
		Y:    node.Lat,
		Data: pointmodel.Info{Name: name, Category: category},
	}, true
}

// Points returns everything collected so far.
func (f *Parser) Points() []quadtree.Point[pointmodel.Info] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.points
}

func scanWithProgress(scanner *osmpbf.Scanner, size int64, name string, it func(osm.Object) bool) error {
	bar := pb.Start64(size)
	bar.Set("prefix", name)
	bar.Set(pb.Bytes, true)
	bar.SetRefreshRate(time.Second * 5)
	if w, err := termutil.TerminalWidth(); w == 0 || err != nil {
		bar.SetTemplateString(`{{with string . "prefix"}}{{.}} {{end}}{{counters . }} {{bar . }} {{percent . }} {{speed . }} {{rtime . "ETA %s"}}{{with string . "suffix"}} {{.}}{{end}}` + "\n")
	}

	for scanner.Scan() {
		bar.SetCurrent(scanner.FullyScannedBytes())
		it(scanner.Object())
	}
	bar.Finish()

	return scanner.Err()
}
