package osm

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"golang.org/x/exp/slog"

	"road_router/pkg/graph"
)

// carHighways lists highway tag values accessible by car.
var carHighways = map[string]bool{
	"motorway":       true,
	"motorway_link":  true,
	"trunk":          true,
	"trunk_link":     true,
	"primary":        true,
	"primary_link":   true,
	"secondary":      true,
	"secondary_link": true,
	"tertiary":       true,
	"tertiary_link":  true,
	"unclassified":   true,
	"residential":    true,
	"living_street":  true,
	"service":        true,
}

// isCarAccessible returns true if the way is drivable by car.
func isCarAccessible(tags osm.Tags) bool {
	hw := tags.Find("highway")
	if !carHighways[hw] {
		return false
	}

	// Skip area highways (pedestrian plazas).
	if tags.Find("area") == "yes" {
		return false
	}

	// Skip restricted access.
	access := tags.Find("access")
	if access == "no" || access == "private" {
		return false
	}
	if tags.Find("motor_vehicle") == "no" {
		return false
	}

	// Time-dependent direction; not usable as a plain road.
	if tags.Find("oneway") == "reversible" {
		return false
	}

	return true
}

// BBox defines a geographic bounding box for filtering.
// If non-zero, only links with both endpoints inside the box are kept.
type BBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// IsZero returns true if the bbox is unset.
func (b BBox) IsZero() bool {
	return b.MinLat == 0 && b.MaxLat == 0 && b.MinLng == 0 && b.MaxLng == 0
}

// Bound returns the box as an orb.Bound in [lng, lat] order.
func (b BBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLng, b.MinLat},
		Max: orb.Point{b.MaxLng, b.MaxLat},
	}
}

// Contains returns true if the point is inside the bounding box.
func (b BBox) Contains(lat, lng float64) bool {
	return b.Bound().Contains(orb.Point{lng, lat})
}

// ParseBBox reads "minLat,minLng,maxLat,maxLng".
func ParseBBox(s string) (BBox, error) {
	var b BBox
	if _, err := fmt.Sscanf(s, "%f,%f,%f,%f", &b.MinLat, &b.MinLng, &b.MaxLat, &b.MaxLng); err != nil {
		return BBox{}, fmt.Errorf("bbox %q (expected minLat,minLng,maxLat,maxLng): %w", s, err)
	}
	if b.MinLat > b.MaxLat || b.MinLng > b.MaxLng {
		return BBox{}, fmt.Errorf("bbox %q: min exceeds max", s)
	}
	return b, nil
}

// Format selects the OSM encoding of the input.
type Format int

const (
	FormatPBF Format = iota
	FormatXML
)

// ParseOptions configures the OSM parser.
type ParseOptions struct {
	Format Format
	BBox   BBox // if non-zero, filter links to this bounding box
	// Progress, if set, is called with the pass number (1 or 2) and the
	// number of objects scanned so far in that pass.
	Progress func(pass, scanned int)
}

const progressInterval = 10000

// wayInfo holds the node sequence of a car-accessible way.
type wayInfo struct {
	NodeIDs []osm.NodeID
}

// Parse reads OSM data and returns an undirected road dataset for car
// routing. The reader is consumed twice (seeks back to start for the
// second pass), so it must implement io.ReadSeeker.
func Parse(ctx context.Context, rs io.ReadSeeker, opt ParseOptions) (*graph.Dataset, error) {
	// Pass 1: Scan ways to collect referenced node IDs and way info.
	referenced := make(map[osm.NodeID]struct{})
	var ways []wayInfo

	err := scan(ctx, rs, opt, 1, func(obj osm.Object) {
		w, ok := obj.(*osm.Way)
		if !ok || !isCarAccessible(w.Tags) || len(w.Nodes) < 2 {
			return
		}
		ids := make([]osm.NodeID, len(w.Nodes))
		for i, wn := range w.Nodes {
			ids[i] = wn.ID
			referenced[wn.ID] = struct{}{}
		}
		ways = append(ways, wayInfo{NodeIDs: ids})
	})
	if err != nil {
		return nil, fmt.Errorf("pass 1 (ways): %w", err)
	}
	slog.Info("pass 1 complete", slog.Int("ways", len(ways)), slog.Int("referenced_nodes", len(referenced)))

	// Pass 2: Scan nodes to collect coordinates for referenced nodes only.
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek for pass 2: %w", err)
	}
	coords := make(map[osm.NodeID]orb.Point, len(referenced))
	err = scan(ctx, rs, opt, 2, func(obj osm.Object) {
		n, ok := obj.(*osm.Node)
		if !ok {
			return
		}
		if _, needed := referenced[n.ID]; needed {
			coords[n.ID] = n.Point()
		}
	})
	if err != nil {
		return nil, fmt.Errorf("pass 2 (nodes): %w", err)
	}
	slog.Info("pass 2 complete", slog.Int("coordinates", len(coords)))

	return buildDataset(ways, coords, opt.BBox), nil
}

// scan runs one pass over rs, calling fn for every object.
func scan(ctx context.Context, rs io.Reader, opt ParseOptions, pass int, fn func(osm.Object)) error {
	var scanner osm.Scanner
	switch opt.Format {
	case FormatXML:
		scanner = osmxml.New(ctx, rs)
	default:
		s := osmpbf.New(ctx, rs, 1)
		s.SkipRelations = true
		s.SkipNodes = pass == 1
		s.SkipWays = pass == 2
		scanner = s
	}
	defer scanner.Close()

	scanned := 0
	for scanner.Scan() {
		fn(scanner.Object())
		scanned++
		if opt.Progress != nil && scanned%progressInterval == 0 {
			opt.Progress(pass, scanned)
		}
	}
	if opt.Progress != nil {
		opt.Progress(pass, scanned)
	}
	return scanner.Err()
}

// buildDataset turns way node sequences into undirected links. Consecutive
// way nodes form a link; repeated and reversed pairs collapse into one.
// Only nodes touched by a kept link are emitted, ascending by id, with
// street_count set to their number of distinct neighbors.
func buildDataset(ways []wayInfo, coords map[osm.NodeID]orb.Point, bbox BBox) *graph.Dataset {
	useBBox := !bbox.IsZero()
	bound := bbox.Bound()

	type pair struct{ a, b osm.NodeID }
	seen := make(map[pair]struct{})
	degree := make(map[osm.NodeID]int)
	ds := &graph.Dataset{Nodes: []graph.NodeRecord{}, Links: []graph.LinkRecord{}}

	var missing, filtered, loops int
	for _, w := range ways {
		for i := 0; i < len(w.NodeIDs)-1; i++ {
			from, to := w.NodeIDs[i], w.NodeIDs[i+1]
			if from == to {
				loops++
				continue
			}
			fp, fok := coords[from]
			tp, tok := coords[to]
			if !fok || !tok {
				missing++
				continue
			}
			if useBBox && (!bound.Contains(fp) || !bound.Contains(tp)) {
				filtered++
				continue
			}

			key := pair{from, to}
			if key.a > key.b {
				key.a, key.b = key.b, key.a
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			degree[from]++
			degree[to]++
			ds.Links = append(ds.Links, graph.LinkRecord{Source: int64(from), Target: int64(to)})
		}
	}

	for id, d := range degree {
		p := coords[id]
		ds.Nodes = append(ds.Nodes, graph.NodeRecord{ID: int64(id), Y: p.Lat(), X: p.Lon(), StreetCount: d})
	}
	sort.Slice(ds.Nodes, func(i, j int) bool { return ds.Nodes[i].ID < ds.Nodes[j].ID })

	if missing > 0 {
		slog.Warn("skipped links with missing node coordinates", slog.Int("count", missing))
	}
	if filtered > 0 {
		slog.Info("filtered links outside bounding box", slog.Int("count", filtered))
	}
	if loops > 0 {
		slog.Debug("skipped self-loops", slog.Int("count", loops))
	}
	slog.Info("dataset built", slog.Int("nodes", len(ds.Nodes)), slog.Int("links", len(ds.Links)))
	return ds
}
