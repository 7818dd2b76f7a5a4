package api

import (
	"net/http"

	"github.com/go-chi/render"

	"road_router/pkg/geo"
	"road_router/pkg/routing"
)

// RouteRequest is the JSON body for POST /api/v1/route.
type RouteRequest struct {
	Start *LatLngJSON `json:"start" validate:"required"`
	End   *LatLngJSON `json:"end" validate:"required"`
}

// Bind implements render.Binder.
func (req *RouteRequest) Bind(r *http.Request) error { return nil }

// LatLngJSON represents a lat/lng pair in JSON. Pointers distinguish a
// missing field from a zero coordinate.
type LatLngJSON struct {
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
}

// Bind implements render.Binder.
func (ll *LatLngJSON) Bind(r *http.Request) error { return nil }

func (ll *LatLngJSON) latLng() geo.LatLng {
	return geo.LatLng{Lat: *ll.Lat, Lng: *ll.Lng}
}

// NearestRequest holds the query parameters of GET /api/v1/nearest.
type NearestRequest struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// PointJSON is a coordinate in responses.
type PointJSON struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RouteResponse is the JSON response for a successful route query.
type RouteResponse struct {
	Status           routing.Status `json:"status"`
	DistanceMeters   float64        `json:"distance_meters"`
	Path             []PointJSON    `json:"path"`
	Polyline         string         `json:"polyline"`
	StartSynthesized bool           `json:"start_synthesized"`
	EndSynthesized   bool           `json:"end_synthesized"`
}

// NearestResponse is the JSON response for GET /api/v1/nearest.
type NearestResponse struct {
	ID             int64   `json:"id"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	StreetCount    int     `json:"street_count"`
	DistanceMeters float64 `json:"distance_meters"`
}

// StatsResponse is the JSON response for GET /api/v1/stats.
type StatsResponse struct {
	NumNodes      int   `json:"num_nodes"`
	NumEdges      int   `json:"num_edges"`
	NumComponents int   `json:"num_components"`
	NextID        int64 `json:"next_id"`
}

// HealthResponse is the JSON response for GET /api/v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrResponse is the JSON body of every error.
type ErrResponse struct {
	Err            error `json:"-"`
	HTTPStatusCode int   `json:"-"`

	Code       string   `json:"error"`
	StatusText string   `json:"status"`
	Field      string   `json:"field,omitempty"`
	Validation []string `json:"validation,omitempty"`
}

// Render implements render.Renderer.
func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func errInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		Code:           "invalid_request",
		StatusText:     "Invalid request.",
	}
}

func errValidation(err error, msgs []string) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		Code:           "invalid_coordinates",
		StatusText:     "Invalid request.",
		Validation:     msgs,
	}
}

func errNoRoute() render.Renderer {
	return &ErrResponse{
		HTTPStatusCode: http.StatusNotFound,
		Code:           "no_route_found",
		StatusText:     "Resource not found.",
	}
}

func errNotFound(code string) render.Renderer {
	return &ErrResponse{
		HTTPStatusCode: http.StatusNotFound,
		Code:           code,
		StatusText:     "Resource not found.",
	}
}

func errUnavailable(err error, code string) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusServiceUnavailable,
		Code:           code,
		StatusText:     "Service unavailable.",
	}
}

func errInternal(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusInternalServerError,
		Code:           "internal_error",
		StatusText:     "Internal server error.",
	}
}
