package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/twpayne/go-polyline"
	"golang.org/x/exp/slog"

	"road_router/pkg/geo"
	"road_router/pkg/graph"
	"road_router/pkg/logging"
	"road_router/pkg/routing"
)

func main() {
	graphPath := flag.String("graph", "graph.json", "Path to node-link graph JSON")
	from := flag.String("from", "", "Start coordinate: lat,lng")
	to := flag.String("to", "", "End coordinate: lat,lng")
	format := flag.String("format", "text", "Output: text, polyline or geojson")
	snap := flag.Float64("snap", routing.DefaultSnapThresholdMeters, "Snap threshold in meters")
	logLevel := flag.String("log-level", "warn", "Log level: debug, info, warn, error")
	flag.Parse()

	if *from == "" || *to == "" {
		fmt.Fprintln(os.Stderr, "Usage: route --graph graph.json --from lat,lng --to lat,lng [--format text|polyline|geojson]")
		os.Exit(2)
	}

	logger, err := logging.New(os.Stderr, *logLevel, "text")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	slog.SetDefault(logger)

	start, err := parseLatLng(*from)
	if err != nil {
		fatal("invalid --from", err)
	}
	end, err := parseLatLng(*to)
	if err != nil {
		fatal("invalid --to", err)
	}

	g, err := graph.LoadFile(*graphPath)
	if err != nil {
		fatal("failed to load graph", err)
	}

	engine := routing.NewEngine(g, routing.WithSnapThreshold(*snap), routing.WithLogger(logger))

	t0 := time.Now()
	res, err := engine.Route(context.Background(), start, end)
	if err != nil {
		fatal("route failed", err)
	}
	slog.Info("route computed", slog.Duration("elapsed", time.Since(t0)), slog.Int("settled", res.Settled))

	if res.Status != routing.StatusFound {
		fmt.Println("no route found")
		os.Exit(1)
	}

	switch *format {
	case "polyline":
		coords := make([][]float64, len(res.Path))
		for i, ll := range res.Path {
			coords[i] = []float64{ll.Lat, ll.Lng}
		}
		fmt.Println(string(polyline.EncodeCoords(coords)))
	case "geojson":
		ls := make(orb.LineString, len(res.Path))
		for i, ll := range res.Path {
			ls[i] = orb.Point{ll.Lng, ll.Lat}
		}
		f := geojson.NewFeature(ls)
		f.Properties["distance_meters"] = res.DistanceMeters
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(f); err != nil {
			fatal("encode geojson", err)
		}
	default:
		fmt.Printf("distance: %.1f m (start synthesized: %t, end synthesized: %t)\n",
			res.DistanceMeters, res.StartSynthesized, res.EndSynthesized)
		for _, ll := range res.Path {
			fmt.Printf("%.7f,%.7f\n", ll.Lat, ll.Lng)
		}
	}
}

func parseLatLng(s string) (geo.LatLng, error) {
	var ll geo.LatLng
	if _, err := fmt.Sscanf(s, "%f,%f", &ll.Lat, &ll.Lng); err != nil {
		return ll, fmt.Errorf("%q (expected lat,lng): %w", s, err)
	}
	return ll, geo.Validate(ll)
}

func fatal(msg string, err error) {
	slog.Error(msg, slog.String("error", err.Error()))
	os.Exit(1)
}
