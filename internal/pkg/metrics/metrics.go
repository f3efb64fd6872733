package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pokemap",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pokemap",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	// Data API client metrics
	APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pokemap",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Requests sent to the sighting data API",
	}, []string{"endpoint", "outcome"})

	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pokemap",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "Latency of sighting data API requests",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	// Map controller metrics
	Refreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pokemap",
		Subsystem: "map",
		Name:      "refreshes_total",
		Help:      "Viewport refreshes by outcome (applied, failed, stale)",
	}, []string{"outcome"})

	MarkersPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pokemap",
		Subsystem: "map",
		Name:      "markers_placed_total",
		Help:      "Markers added to maps",
	})

	HandlerPanics = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pokemap",
		Subsystem: "map",
		Name:      "handler_panics_total",
		Help:      "Event handlers that panicked and were recovered",
	}, []string{"event"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pokemap",
		Subsystem: "ws",
		Name:      "active_sessions",
		Help:      "Current number of connected map sessions",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pokemap",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pokemap",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Circuit breaker metrics
	BreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "pokemap",
		Subsystem: "breaker",
		Name:      "state",
		Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
	}, []string{"name"})

	BreakerTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pokemap",
		Subsystem: "breaker",
		Name:      "transitions_total",
		Help:      "Circuit breaker state transitions",
	}, []string{"name", "from", "to"})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
