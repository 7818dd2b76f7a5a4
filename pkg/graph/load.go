package graph

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"golang.org/x/exp/slog"

	"road_router/pkg/geo"
)

var (
	// ErrDuplicateNode is returned when a dataset lists the same node id twice.
	ErrDuplicateNode = errors.New("duplicate node id")
	// ErrInvalidCoordinate is returned when a node record carries an unusable coordinate.
	ErrInvalidCoordinate = geo.ErrInvalidCoordinate
)

// IngestionError reports why a dataset could not be turned into a graph.
type IngestionError struct {
	Op  string // "read", "node" or "link"
	Err error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingest %s: %v", e.Op, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// LoadFile reads and loads the dataset stored at path.
func LoadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IngestionError{Op: "read", Err: err}
	}
	defer f.Close()
	return Read(f)
}

// Read decodes a dataset document from r and loads it.
func Read(r io.Reader) (*Graph, error) {
	ds, err := ReadDataset(r)
	if err != nil {
		return nil, &IngestionError{Op: "read", Err: err}
	}
	return Load(ds)
}

// Load builds a graph from ds. Every link becomes two directed edges whose
// weight is the haversine distance between the endpoints. On error no graph
// is returned.
func Load(ds *Dataset) (*Graph, error) {
	if ds == nil {
		return nil, &IngestionError{Op: "read", Err: ErrMalformedDataset}
	}

	records := make([]NodeRecord, len(ds.Nodes))
	copy(records, ds.Nodes)
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })

	g := New()
	for i, rec := range records {
		if i > 0 && records[i-1].ID == rec.ID {
			return nil, &IngestionError{Op: "node", Err: fmt.Errorf("id %d: %w", rec.ID, ErrDuplicateNode)}
		}
		if err := geo.Validate(geo.LatLng{Lat: rec.Y, Lng: rec.X}); err != nil {
			return nil, &IngestionError{Op: "node", Err: fmt.Errorf("id %d: %w", rec.ID, err)}
		}
		g.insertNode(Node{ID: rec.ID, Lat: rec.Y, Lon: rec.X, StreetCount: rec.StreetCount})
	}

	for i, l := range ds.Links {
		src, ok := g.nodes[l.Source]
		if !ok {
			return nil, &IngestionError{Op: "link", Err: fmt.Errorf("record %d source %d: %w", i, l.Source, ErrUnknownNode)}
		}
		dst, ok := g.nodes[l.Target]
		if !ok {
			return nil, &IngestionError{Op: "link", Err: fmt.Errorf("record %d target %d: %w", i, l.Target, ErrUnknownNode)}
		}
		if err := g.connect(src.ID, dst.ID, g.CalculateDistance(src, dst)); err != nil {
			return nil, &IngestionError{Op: "link", Err: err}
		}
	}

	slog.Debug("graph loaded",
		slog.Int("nodes", g.NumNodes()),
		slog.Int("edges", g.NumEdges()),
		slog.Int64("next_id", g.NextID()))
	return g, nil
}
