package routing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/exp/slog"

	"road_router/pkg/geo"
	"road_router/pkg/graph"
)

// ErrInvalidQuery is returned when a route endpoint is not a usable coordinate.
var ErrInvalidQuery = errors.New("invalid query")

// Status classifies a route outcome.
type Status string

const (
	StatusFound   Status = "found"
	StatusNoRoute Status = "no_route"
)

// RouteResult is the output of a route query.
type RouteResult struct {
	Status Status
	// Path runs from the start node to the end node, followed by the
	// requested end coordinate. Empty unless Status is StatusFound.
	Path             []geo.LatLng
	NodeIDs          []int64
	DistanceMeters   float64 // network distance from start node to end node
	StartSynthesized bool
	EndSynthesized   bool
	Settled          int
}

// Router is the interface for route queries.
type Router interface {
	Route(ctx context.Context, start, end geo.LatLng) (*RouteResult, error)
}

// Stats summarizes the graph behind an engine.
type Stats struct {
	NumNodes      int
	NumEdges      int
	NumComponents int
	NextID        int64
}

// Engine implements Router over a mutable graph. Route may add nodes to the
// graph, so every operation holds the engine lock for its full duration.
type Engine struct {
	mu            sync.Mutex
	g             *graph.Graph
	snapThreshold float64
	maxSettled    int
	logger        *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithSnapThreshold sets the snapping distance in meters.
func WithSnapThreshold(meters float64) Option {
	return func(e *Engine) { e.snapThreshold = meters }
}

// WithMaxSettled caps the number of nodes a single search may settle.
func WithMaxSettled(n int) Option {
	return func(e *Engine) { e.maxSettled = n }
}

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates a routing engine over g.
func NewEngine(g *graph.Graph, opts ...Option) *Engine {
	e := &Engine{
		g:             g,
		snapThreshold: DefaultSnapThresholdMeters,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Route computes the shortest path between two coordinates.
//
// Each endpoint snaps to its nearest node when that node is within the snap
// threshold; otherwise a node is synthesized at the exact coordinate and
// connected to its two nearest neighbors. Unreachable destinations and an
// empty graph yield StatusNoRoute with a nil error.
func (e *Engine) Route(ctx context.Context, start, end geo.LatLng) (*RouteResult, error) {
	if err := geo.Validate(start); err != nil {
		return nil, fmt.Errorf("%w: start %v: %w", ErrInvalidQuery, start, err)
	}
	if err := geo.Validate(end); err != nil {
		return nil, fmt.Errorf("%w: end %v: %w", ErrInvalidQuery, end, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.g.NumNodes() == 0 {
		e.logger.Warn("route on empty graph")
		return &RouteResult{Status: StatusNoRoute}, nil
	}

	from := snap(e.g, start, e.snapThreshold)
	to := snap(e.g, end, e.snapThreshold)

	tree, err := ShortestPaths(ctx, e.g, from.Node.ID, SearchOptions{MaxSettled: e.maxSettled})
	if err != nil {
		return nil, fmt.Errorf("search from %d: %w", from.Node.ID, err)
	}

	result := &RouteResult{
		Status:           StatusNoRoute,
		StartSynthesized: from.Synthesized,
		EndSynthesized:   to.Synthesized,
		Settled:          tree.Settled,
	}

	dist, ok := tree.Distance(to.Node.ID)
	if !ok {
		e.logger.Warn("end node unreachable",
			slog.Int64("start", from.Node.ID),
			slog.Int64("end", to.Node.ID))
		return result, nil
	}

	ids := tree.PathTo(to.Node.ID)
	path := make([]geo.LatLng, 0, len(ids)+1)
	for _, id := range ids {
		n, _ := e.g.Node(id)
		path = append(path, n.LatLng())
	}
	path = append(path, end)

	result.Status = StatusFound
	result.Path = path
	result.NodeIDs = ids
	result.DistanceMeters = dist

	e.logger.Debug("route found",
		slog.Int64("start", from.Node.ID),
		slog.Int64("end", to.Node.ID),
		slog.Float64("distance_m", dist),
		slog.Int("nodes", len(ids)),
		slog.Int("settled", tree.Settled))
	return result, nil
}

// Path is the plain coordinate contract: the ordered route from start to
// end, or an empty slice when there is no route or the query is invalid.
// Failures are logged, never returned.
func (e *Engine) Path(startLat, startLon, endLat, endLon float64) []geo.LatLng {
	res, err := e.Route(context.Background(),
		geo.LatLng{Lat: startLat, Lng: startLon},
		geo.LatLng{Lat: endLat, Lng: endLon})
	if err != nil {
		e.logger.Error("route failed", slog.String("error", err.Error()))
		return []geo.LatLng{}
	}
	if res.Status != StatusFound {
		return []geo.LatLng{}
	}
	return res.Path
}

// Nearest returns the node closest to q and its distance in meters.
// ok is false on an empty graph.
func (e *Engine) Nearest(q geo.LatLng) (n graph.Node, dist float64, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	n, ok = e.g.FindClosestNode(q.Lat, q.Lng)
	if !ok {
		return graph.Node{}, 0, false
	}
	return n, geo.Distance(q, n.LatLng()), true
}

// Stats returns a snapshot of graph size and connectivity.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Stats{
		NumNodes:      e.g.NumNodes(),
		NumEdges:      e.g.NumEdges(),
		NumComponents: len(graph.Components(e.g)),
		NextID:        e.g.NextID(),
	}
}
