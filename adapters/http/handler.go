// Package http provides the host router that loaded routes are mounted on,
// its request middleware, and the built-in handlers route files can name.
package http

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/artpar/routeloader/adapters/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Paths served by the host router itself.
const (
	HealthPath     = "/health"
	VersionPath    = "/version"
	RouteListPath  = "/_routes"
	DefaultMetrics = "/metrics"
)

const (
	serviceName    = "routeloader"
	defaultVersion = "dev"
	unmatchedLabel = "unmatched"
	requestTimeout = 60 * time.Second
)

// VersionResponse represents the version endpoint response.
type VersionResponse struct {
	Version string `json:"version"`
	Service string `json:"service"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// RouteInfo is one entry of the route listing.
type RouteInfo struct {
	Method  string `json:"method"`
	Pattern string `json:"pattern"`
}

// RouterConfig holds optional configuration for the router.
type RouterConfig struct {
	Metrics        *metrics.Collector
	MetricsHandler http.Handler // exporter for the metrics endpoint; nothing is mounted when nil
	MetricsPath    string       // default "/metrics"
	Version        string
	DisableListing bool // hide /_routes
}

// NewRouter creates the host router. Loaded routes are registered on it
// afterwards, so its middleware stack applies to them as well.
func NewRouter(logger zerolog.Logger, cfg RouterConfig) chi.Router {
	cfg = cfg.withDefaults()

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger, cfg.MetricsPath))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	if cfg.Metrics != nil {
		r.Use(NewMetricsMiddleware(cfg.Metrics, cfg.MetricsPath))
	}

	r.Get(HealthPath, Health)
	r.Get(VersionPath, Version(cfg.Version))

	if cfg.MetricsHandler != nil {
		r.Handle(cfg.MetricsPath, cfg.MetricsHandler)
	}

	if !cfg.DisableListing {
		r.Get(RouteListPath, RouteList(r))
	}

	return r
}

func (cfg RouterConfig) withDefaults() RouterConfig {
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = DefaultMetrics
	}
	if cfg.Version == "" {
		cfg.Version = defaultVersion
	}
	return cfg
}

// ReservedPaths returns the paths the router built from cfg serves itself.
// A loaded route on one of them replaces the built-in handler.
func ReservedPaths(cfg RouterConfig) []string {
	cfg = cfg.withDefaults()

	paths := []string{HealthPath, VersionPath}
	if cfg.MetricsHandler != nil {
		paths = append(paths, cfg.MetricsPath)
	}
	if !cfg.DisableListing {
		paths = append(paths, RouteListPath)
	}
	return paths
}

// Health returns a simple liveness check.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
}

// Version returns a handler reporting the service version.
func Version(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(VersionResponse{
			Version: version,
			Service: serviceName,
		})
	}
}

// Routes lists every method and pattern registered on router, sorted by
// pattern then method.
func Routes(router chi.Routes) ([]RouteInfo, error) {
	var routes []RouteInfo
	err := chi.Walk(router, func(method, pattern string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, RouteInfo{Method: method, Pattern: pattern})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Pattern != routes[j].Pattern {
			return routes[i].Pattern < routes[j].Pattern
		}
		return routes[i].Method < routes[j].Method
	})
	return routes, nil
}

// RouteList returns a handler that writes the routes of router as JSON.
func RouteList(router chi.Routes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		routes, err := Routes(router)
		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"routes": routes})
	}
}

// NewMetricsMiddleware creates middleware that records request metrics.
// Requests are labelled with the matched route pattern, so path parameters do
// not multiply label values.
func NewMetricsMiddleware(m *metrics.Collector, metricsPath string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip metrics for internal endpoints
			if isInternal(r.URL.Path, metricsPath) {
				next.ServeHTTP(w, r)
				return
			}

			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start).Seconds()
			status := metrics.StatusLabel(ww.Status())
			pattern := unmatchedLabel
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				pattern = rctx.RoutePattern()
			}

			m.RequestsTotal.WithLabelValues(r.Method, pattern, status).Inc()
			m.RequestDuration.WithLabelValues(r.Method, pattern, status).Observe(duration)
		})
	}
}

// NewLoggingMiddleware creates middleware that logs HTTP requests at debug.
func NewLoggingMiddleware(logger zerolog.Logger, metricsPath string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			// Skip logging for health checks and metrics
			if isInternal(r.URL.Path, metricsPath) {
				return
			}

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}

func isInternal(path, metricsPath string) bool {
	return path == HealthPath || path == metricsPath
}
