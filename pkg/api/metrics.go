package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus collectors of the HTTP API.
type Metrics struct {
	routeQueries   *prometheus.CounterVec
	settledNodes   prometheus.Histogram
	httpDuration   *prometheus.HistogramVec
	totalRequests  *prometheus.CounterVec
	inFlightLimits prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		routeQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "road_router",
			Name:      "route_queries_total",
			Help:      "The total number of route queries by outcome",
		}, []string{"status"}),
		settledNodes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "road_router",
			Name:      "route_settled_nodes",
			Help:      "Nodes settled per route search",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 10),
		}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "road_router",
			Name:      "request_duration_seconds",
			Help:      "The duration of request",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "path"}),
		totalRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "road_router",
			Name:      "requests_total",
			Help:      "The total number of requests",
		}, []string{"path", "method", "status"}),
		inFlightLimits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "road_router",
			Name:      "rejected_requests_total",
			Help:      "Requests rejected by the concurrency limiter",
		}),
	}
	reg.MustRegister(m.routeQueries, m.settledNodes, m.httpDuration, m.totalRequests, m.inFlightLimits)
	return m
}

// observeRoute records the outcome of one route query.
func (m *Metrics) observeRoute(status string, settled int) {
	m.routeQueries.WithLabelValues(status).Inc()
	if settled > 0 {
		m.settledNodes.Observe(float64(settled))
	}
}

// PromHTTPMiddleware records request duration and status per route pattern.
func PromHTTPMiddleware(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			path := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				path = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.httpDuration.With(prometheus.Labels{"method": r.Method, "path": path}).Observe(time.Since(start).Seconds())
			m.totalRequests.With(prometheus.Labels{"path": path, "method": r.Method, "status": strconv.Itoa(status)}).Inc()
		})
	}
}
