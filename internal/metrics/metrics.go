// Package metrics provides Prometheus instrumentation for the listing engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RecordsNormalized counts raw records normalized, by refresh outcome
	// ("upstream" or "fallback").
	RecordsNormalized = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listing_records_normalized_total",
		Help: "Raw market records normalized into canonical markets",
	}, []string{"origin"})

	// DedupMerges counts records merged away by the deduplicator.
	DedupMerges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "listing_dedup_merges_total",
		Help: "Duplicate market records collapsed into survivors",
	})

	// CanonicalMarkets tracks the size of the canonical set.
	CanonicalMarkets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "listing_canonical_markets",
		Help: "Number of markets in the canonical set",
	})

	// ViewLatency tracks filter/sort pipeline latency per mode.
	ViewLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "listing_view_latency_seconds",
		Help:    "Filter and sort pipeline latency in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	}, []string{"mode"})

	// ViewCacheHits counts memoized view lookups by result.
	ViewCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listing_view_cache_total",
		Help: "Memoized view lookups",
	}, []string{"result"})

	// RefreshTotal counts catalog refreshes by origin ("upstream"/"fallback").
	RefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listing_refresh_total",
		Help: "Catalog refresh cycles",
	}, []string{"origin"})

	// ReplayPoints is a histogram of reconstructed series lengths.
	ReplayPoints = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "listing_replay_points",
		Help:    "Points per reconstructed price series",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "listing_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listing_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "listing_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the raw path for the label; the route surface is small enough
		// that cardinality stays bounded.
		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
