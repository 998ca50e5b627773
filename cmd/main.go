package main

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/paulmach/orb"
	"golang.org/x/exp/mmap"

	_ "net/http/pprof"

	_ "github.com/KimMachineGun/automemlimit"
	"github.com/urfave/cli/v3"
	_ "go.uber.org/automaxprocs"

	"github.com/royalcat/quadindex/internal/stats"
	"github.com/royalcat/quadindex/internal/telemetry"
	"github.com/royalcat/quadindex/kv"
	"github.com/royalcat/quadindex/osmparser"
	"github.com/royalcat/quadindex/pointindex"
	"github.com/royalcat/quadindex/server"
	"github.com/royalcat/quadindex/snapshot"
)

func main() {
	app := &cli.App{
		Name:        "quadindex",
		Description: "Spatial point index with pregenerated snapshots",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "serve a quadindex api",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:      "points",
						Aliases:   []string{"p"},
						Usage:     "snapshot to serve, as name=file or just file",
						Required:  true,
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:  "listen",
						Value: ":8080",
					},
				},
				Action: serve,
			},
			{
				Name:    "import",
				Aliases: []string{"i"},
				Usage:   "imports points from OSM extracts into a snapshot",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:      "points",
						Aliases:   []string{"p"},
						Required:  true,
						TakesFile: true,
					},
					&cli.StringSliceFlag{
						Name:      "input",
						Aliases:   []string{"i"},
						TakesFile: true,
					},
					&cli.IntFlag{
						Name:        "threads",
						Aliases:     []string{"t"},
						DefaultText: "max",
					},
					&cli.StringFlag{
						Name:  "dataset",
						Value: "osm",
					},
					&cli.StringFlag{
						Name:        "otel.endpoint",
						DefaultText: "",
					},
					&cli.StringFlag{
						Name:        "pprof.listen",
						DefaultText: "",
					},
					&cli.BoolFlag{
						Name: "pprof.profile",
					},
					&cli.BoolFlag{
						Name: "pprof.heap",
					},
					&cli.BoolFlag{
						Name: "stats",
					},
					&cli.StringFlag{
						Name:        "stats.out",
						DefaultText: "",
					},
				},
				Action: importPoints,
			},
			{
				Name:  "seed",
				Usage: "generates an evenly spread synthetic snapshot for load testing",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:      "points",
						Aliases:   []string{"p"},
						Required:  true,
						TakesFile: true,
					},
					&cli.Float64Flag{Name: "min-x", Value: -50},
					&cli.Float64Flag{Name: "min-y", Value: -50},
					&cli.Float64Flag{Name: "max-x", Value: 50},
					&cli.Float64Flag{Name: "max-y", Value: 50},
					&cli.Float64Flag{
						Name:  "distance",
						Usage: "minimum distance between generated points",
						Value: 0.5,
					},
				},
				Action: seed,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serve(ctx *cli.Context) error {
	slog.Info("Initing indexes")

	indexes := kv.NewOrderedMap[string, *pointindex.Index]()
	for _, spec := range ctx.StringSlice("points") {
		name, file, ok := strings.Cut(spec, "=")
		if !ok {
			name, file = "default", spec
		}

		idx, err := pointindex.LoadFromFile(file)
		if err != nil {
			return fmt.Errorf("error loading index %s: %w", name, err)
		}
		indexes.Set(name, idx)
	}

	return server.Run(ctx.Context, ctx.String("listen"), indexes)
}

func importPoints(ctx *cli.Context) error {
	log := slog.Default()

	threads := ctx.Int("threads")
	if threads == 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	log = log.With("threads", threads)

	tele, err := telemetry.Setup(ctx.Context, "quadindex-import", ctx.String("otel.endpoint"))
	if err != nil {
		return fmt.Errorf("error setting up telemetry: %w", err)
	}
	if tele != nil {
		defer tele.Shutdown(ctx.Context)
		defer tele.Flush(ctx.Context)
	}

	if pprofListen := ctx.String("pprof.listen"); pprofListen != "" {
		go func() {
			log.Info("Starting pprof server")
			err := http.ListenAndServe(pprofListen, nil)
			if err != nil {
				log.Error("Error starting pprof server", "error", err)
			}
		}()
	}

	if ctx.Bool("pprof.profile") {
		f, err := os.OpenFile("profile.cpu.pprof", os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return fmt.Errorf("error creating pprof file: %w", err)
		}
		err = pprof.StartCPUProfile(f)
		if err != nil {
			return fmt.Errorf("error starting pprof: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	var collector *stats.Collector
	if ctx.Bool("stats") {
		collector, err = stats.NewCollector(time.Second)
		if err != nil {
			return fmt.Errorf("error creating stats collector: %w", err)
		}
		collector.Start()
	}

	inputs := ctx.StringSlice("input")
	fmt.Printf("Input maps: %v\n", inputs)

	parser := osmparser.NewParser(osmparser.Config{
		Threads: threads,
		Dataset: ctx.String("dataset"),
	})
	for _, input := range inputs {
		file, err := mmap.Open(input)
		if err != nil {
			return err
		}
		defer file.Close()

		size := int64(file.Len())
		reader := io.NewSectionReader(file, 0, size)
		if err := parser.ParsePBF(ctx.Context, reader, size); err != nil {
			return fmt.Errorf("error parsing osm with error: %w", err)
		}
	}

	points := parser.Points()

	if ctx.Bool("pprof.heap") {
		err := writeHeapProfile("profile")
		if err != nil {
			return fmt.Errorf("error writing heap profile: %w", err)
		}
	}

	saveFile := snapshotName(ctx.String("points"))

	fmt.Printf("Import complete\n")
	fmt.Printf("Saving %s points to file: %s\n", humanize.Comma(int64(len(points))), saveFile)
	meta := snapshot.Metadata{
		Version:     snapshot.COMPATIBILITY_LEVEL,
		Dataset:     ctx.String("dataset"),
		DateCreated: time.Now(),
	}
	if err := snapshot.SaveToFile(points, meta, saveFile); err != nil {
		return fmt.Errorf("failed to save points to file: %w", err)
	}

	if collector != nil {
		report := collector.Stop()
		fmt.Print(report.String())
		if out := ctx.String("stats.out"); out != "" {
			if err := report.SaveToFile(out); err != nil {
				return fmt.Errorf("failed to save stats report: %w", err)
			}
		}
	}

	fmt.Printf("Complete\n")

	return nil
}

func seed(ctx *cli.Context) error {
	bound := orb.Bound{
		Min: orb.Point{ctx.Float64("min-x"), ctx.Float64("min-y")},
		Max: orb.Point{ctx.Float64("max-x"), ctx.Float64("max-y")},
	}

	points := osmparser.GenerateUniform(bound, ctx.Float64("distance"))
	fmt.Printf("Generated %s points\n", humanize.Comma(int64(len(points))))

	saveFile := snapshotName(ctx.String("points"))
	meta := snapshot.Metadata{
		Version:     snapshot.COMPATIBILITY_LEVEL,
		Dataset:     "synthetic",
		DateCreated: time.Now(),
	}
	if err := snapshot.SaveToFile(points, meta, saveFile); err != nil {
		return fmt.Errorf("failed to save points to file: %w", err)
	}

	fmt.Printf("Saved to file: %s\n", saveFile)
	return nil
}

func snapshotName(name string) string {
	if strings.HasSuffix(name, ".qis") || strings.HasSuffix(name, ".qis.zst") {
		return name
	}
	return name + ".qis"
}

func writeHeapProfile(name string) error {
	f, err := os.Create(name + ".heap.prof")
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	return pprof.WriteHeapProfile(f)
}
