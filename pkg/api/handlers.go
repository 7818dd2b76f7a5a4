package api

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/render"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/twpayne/go-polyline"
	"golang.org/x/exp/slog"

	"road_router/pkg/geo"
	"road_router/pkg/graph"
	"road_router/pkg/routing"
)

const maxBodyBytes = 1024

// Engine is what the handlers need from the routing layer.
type Engine interface {
	routing.Router
	Nearest(q geo.LatLng) (graph.Node, float64, bool)
	Stats() routing.Stats
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	engine   Engine
	metrics  *Metrics
	validate *requestValidator
	logger   *slog.Logger
}

// NewHandlers creates handlers over engine.
func NewHandlers(engine Engine, metrics *Metrics, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		engine:   engine,
		metrics:  metrics,
		validate: newRequestValidator(),
		logger:   logger,
	}
}

// HandleRoute handles POST /api/v1/route. With ?format=geojson the route is
// returned as a FeatureCollection holding one LineString.
func (h *Handlers) HandleRoute(w http.ResponseWriter, r *http.Request) {
	// Enforce Content-Type.
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		render.Render(w, r, errInvalidRequest(errors.New("content type must be application/json")))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	req := &RouteRequest{}
	if err := render.Bind(r, req); err != nil {
		render.Render(w, r, errInvalidRequest(err))
		return
	}
	if msgs, err := h.validate.Struct(req); err != nil {
		render.Render(w, r, errValidation(err, msgs))
		return
	}

	result, err := h.engine.Route(r.Context(), req.Start.latLng(), req.End.latLng())
	if err != nil {
		h.metrics.observeRoute("error", 0)
		switch {
		case errors.Is(err, routing.ErrInvalidQuery):
			render.Render(w, r, errValidation(err, []string{err.Error()}))
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			render.Render(w, r, errUnavailable(err, "request_timeout"))
		case errors.Is(err, routing.ErrSearchLimit):
			render.Render(w, r, errUnavailable(err, "search_limit_exceeded"))
		default:
			h.logger.Error("route failed", slog.String("error", err.Error()))
			render.Render(w, r, errInternal(err))
		}
		return
	}

	h.metrics.observeRoute(string(result.Status), result.Settled)
	if result.Status != routing.StatusFound {
		render.Render(w, r, errNoRoute())
		return
	}

	if r.URL.Query().Get("format") == "geojson" {
		render.JSON(w, r, routeFeatureCollection(result))
		return
	}
	render.JSON(w, r, newRouteResponse(result))
}

func newRouteResponse(res *routing.RouteResult) RouteResponse {
	path := make([]PointJSON, len(res.Path))
	coords := make([][]float64, len(res.Path))
	for i, ll := range res.Path {
		path[i] = PointJSON{Lat: ll.Lat, Lng: ll.Lng}
		coords[i] = []float64{ll.Lat, ll.Lng}
	}
	return RouteResponse{
		Status:           res.Status,
		DistanceMeters:   res.DistanceMeters,
		Path:             path,
		Polyline:         string(polyline.EncodeCoords(coords)),
		StartSynthesized: res.StartSynthesized,
		EndSynthesized:   res.EndSynthesized,
	}
}

func routeFeatureCollection(res *routing.RouteResult) *geojson.FeatureCollection {
	ls := make(orb.LineString, len(res.Path))
	for i, ll := range res.Path {
		ls[i] = orb.Point{ll.Lng, ll.Lat}
	}
	f := geojson.NewFeature(ls)
	f.Properties["distance_meters"] = res.DistanceMeters
	f.Properties["start_synthesized"] = res.StartSynthesized
	f.Properties["end_synthesized"] = res.EndSynthesized

	fc := geojson.NewFeatureCollection()
	fc.Append(f)
	return fc
}

// HandleNearest handles GET /api/v1/nearest?lat=..&lng=..
func (h *Handlers) HandleNearest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		render.Render(w, r, errInvalidRequest(fmt.Errorf("lat: %w", err)))
		return
	}
	lng, err := strconv.ParseFloat(q.Get("lng"), 64)
	if err != nil {
		render.Render(w, r, errInvalidRequest(fmt.Errorf("lng: %w", err)))
		return
	}
	req := NearestRequest{Lat: lat, Lng: lng}
	if msgs, err := h.validate.Struct(req); err != nil {
		render.Render(w, r, errValidation(err, msgs))
		return
	}

	n, dist, ok := h.engine.Nearest(geo.LatLng{Lat: req.Lat, Lng: req.Lng})
	if !ok {
		render.Render(w, r, errNotFound("empty_graph"))
		return
	}
	render.JSON(w, r, NearestResponse{
		ID:             n.ID,
		Lat:            n.Lat,
		Lng:            n.Lon,
		StreetCount:    n.StreetCount,
		DistanceMeters: dist,
	})
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, HealthResponse{Status: "ok"})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	st := h.engine.Stats()
	render.JSON(w, r, StatsResponse{
		NumNodes:      st.NumNodes,
		NumEdges:      st.NumEdges,
		NumComponents: st.NumComponents,
		NextID:        st.NextID,
	})
}
