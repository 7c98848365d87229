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
		Namespace: "mapnav",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mapnav",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"method", "path"})

	// Navigation pipeline metrics
	ResolverLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapnav",
		Subsystem: "resolver",
		Name:      "lookups_total",
		Help:      "Total place/position resolver lookups",
	}, []string{"provider", "kind", "outcome"}) // kind: place|position, outcome: hit|miss|error

	ResolverFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapnav",
		Subsystem: "resolver",
		Name:      "geocode_fallbacks_total",
		Help:      "Times the keyword search came up empty and geocoding was tried",
	}, []string{"provider"})

	IntentExtractions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapnav",
		Subsystem: "intent",
		Name:      "extractions_total",
		Help:      "Total intent extraction attempts against the language model",
	}, []string{"outcome"}) // ok|parse_error|model_error

	NavigationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapnav",
		Subsystem: "nav",
		Name:      "plans_total",
		Help:      "Total navigation plan requests",
	}, []string{"provider", "outcome"})

	NavigationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mapnav",
		Subsystem: "nav",
		Name:      "plan_duration_seconds",
		Help:      "End-to-end navigation pipeline duration",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"provider"})

	SpeechSessions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapnav",
		Subsystem: "speech",
		Name:      "sessions_total",
		Help:      "Total speech recognition sessions",
	}, []string{"outcome"})

	SpeechAudioBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mapnav",
		Subsystem: "speech",
		Name:      "audio_bytes",
		Help:      "Size of uploaded audio clips in bytes",
		Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
	})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mapnav",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapnav",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapnav",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})
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

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
