package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/exp/slog"

	"road_router/pkg/graph"
	"road_router/pkg/logging"
	osmparser "road_router/pkg/osm"
)

func main() {
	input := flag.String("input", "", "Path to .osm.pbf (or .osm XML) file")
	output := flag.String("output", "graph.json", "Output node-link JSON path")
	bbox := flag.String("bbox", "", "Bounding box filter: minLat,minLng,maxLat,maxLng (e.g. 1.15,103.6,1.48,104.1)")
	largest := flag.Bool("largest-component", false, "Keep only the largest connected component")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: preprocess --input <file.osm.pbf> [--output graph.json] [--bbox minLat,minLng,maxLat,maxLng] [--largest-component]")
		os.Exit(1)
	}

	logger, err := logging.New(os.Stderr, *logLevel, "text")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	opts := osmparser.ParseOptions{}
	if strings.EqualFold(filepath.Ext(*input), ".osm") {
		opts.Format = osmparser.FormatXML
	}
	if *bbox != "" {
		opts.BBox, err = osmparser.ParseBBox(*bbox)
		if err != nil {
			fatal("invalid bbox", err)
		}
		slog.Info("using bounding box filter",
			slog.Float64("min_lat", opts.BBox.MinLat), slog.Float64("max_lat", opts.BBox.MaxLat),
			slog.Float64("min_lng", opts.BBox.MinLng), slog.Float64("max_lng", opts.BBox.MaxLng))
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(15),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetDescription("[cyan][1/2][reset] Scanning ways..."),
	)
	currentPass := 1
	opts.Progress = func(pass, scanned int) {
		if pass != currentPass {
			currentPass = pass
			bar.Reset()
			bar.Describe("[cyan][2/2][reset] Scanning nodes...")
		}
		_ = bar.Set(scanned)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()

	// Step 1: Parse OSM data.
	f, err := os.Open(*input)
	if err != nil {
		fatal("failed to open input file", err)
	}
	defer f.Close()

	ds, err := osmparser.Parse(ctx, f, opts)
	_ = bar.Finish()
	if err != nil {
		fatal("failed to parse OSM data", err)
	}
	slog.Info("parsed", slog.Int("nodes", len(ds.Nodes)), slog.Int("links", len(ds.Links)))

	// Step 2: Optionally keep only the largest connected component.
	if *largest {
		before := len(ds.Nodes)
		ds = graph.LargestComponent(ds)
		pct := 0.0
		if before > 0 {
			pct = float64(len(ds.Nodes)) / float64(before) * 100
		}
		slog.Info("largest component",
			slog.Int("nodes", len(ds.Nodes)),
			slog.Int("links", len(ds.Links)),
			slog.String("share", fmt.Sprintf("%.1f%%", pct)))
	}

	// Step 3: Validate by loading, then write.
	if _, err := graph.Load(ds); err != nil {
		fatal("dataset does not load", err)
	}
	if err := graph.WriteDataset(*output, ds); err != nil {
		fatal("failed to write dataset", err)
	}

	info, _ := os.Stat(*output)
	var size int64
	if info != nil {
		size = info.Size()
	}
	slog.Info("done",
		slog.Duration("elapsed", time.Since(start).Round(time.Second)),
		slog.String("output", *output),
		slog.String("size", fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))))
}

func fatal(msg string, err error) {
	slog.Error(msg, slog.String("error", err.Error()))
	os.Exit(1)
}
