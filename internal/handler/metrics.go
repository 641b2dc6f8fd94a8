package handler

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Metrics holds all Prometheus collectors for the PubliHazClick backend.
var Metrics = struct {
	ViewsOpened       *prometheus.CounterVec
	ClaimsTotal       *prometheus.CounterVec
	ChallengeFailures prometheus.Counter
	RequestDuration   *prometheus.HistogramVec
	DBPoolActive      prometheus.GaugeFunc
	DBPoolIdle        prometheus.GaugeFunc
	RequestsInFlight  prometheus.Gauge
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
}{}

// InitMetrics registers all Prometheus metrics. Call once at startup.
func InitMetrics(pool *pgxpool.Pool) {
	Metrics.ViewsOpened = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "publihazclick_views_opened_total",
			Help: "Total view sessions opened, by ad type.",
		},
		[]string{"ad_type"},
	)

	Metrics.ClaimsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "publihazclick_claims_total",
			Help: "Total reward claims credited, by source (view flow or direct RPC).",
		},
		[]string{"source"},
	)

	Metrics.ChallengeFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "publihazclick_challenge_failures_total",
			Help: "Total wrong answers submitted to view challenges.",
		},
	)

	Metrics.RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "publihazclick_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by endpoint and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	Metrics.RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "publihazclick_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		},
	)

	Metrics.CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "publihazclick_cache_hits_total",
			Help: "Total Redis cache hits.",
		},
	)

	Metrics.CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "publihazclick_cache_misses_total",
			Help: "Total Redis cache misses.",
		},
	)

	// DB pool gauges — read live stats from pgxpool
	if pool != nil {
		Metrics.DBPoolActive = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "publihazclick_db_connection_pool_active",
				Help: "Number of active database connections.",
			},
			func() float64 {
				return float64(pool.Stat().AcquiredConns())
			},
		)

		Metrics.DBPoolIdle = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "publihazclick_db_connection_pool_idle",
				Help: "Number of idle database connections.",
			},
			func() float64 {
				return float64(pool.Stat().IdleConns())
			},
		)

		prometheus.MustRegister(Metrics.DBPoolActive)
		prometheus.MustRegister(Metrics.DBPoolIdle)
	}

	prometheus.MustRegister(
		Metrics.ViewsOpened,
		Metrics.ClaimsTotal,
		Metrics.ChallengeFailures,
		Metrics.RequestDuration,
		Metrics.RequestsInFlight,
		Metrics.CacheHits,
		Metrics.CacheMisses,
	)
}

// MetricsMiddleware records request duration and in-flight count for Prometheus.
func MetricsMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		// Don't instrument the /metrics endpoint itself
		if c.Path() == "/metrics" {
			return c.Next()
		}

		// Copy path and method into owned strings BEFORE c.Next() — Fiber
		// returns slices backed by the fasthttp buffer which can be reused
		// or overwritten by handlers (especially fasthttpadaptor).
		path := string([]byte(c.Path()))
		method := string([]byte(c.Method()))
		endpoint := sanitizeEndpoint(path)

		Metrics.RequestsInFlight.Inc()
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())

		Metrics.RequestDuration.WithLabelValues(endpoint, method, status).Observe(duration)
		Metrics.RequestsInFlight.Dec()

		return err
	}
}

// sanitizeEndpoint normalizes paths to avoid cardinality explosion.
func sanitizeEndpoint(path string) string {
	switch {
	case len(path) > 13 && path[:13] == "/api/catalog/":
		return "/api/catalog/:surface"
	case len(path) > 11 && path[:11] == "/api/views/":
		return "/api/views/:viewId"
	case len(path) > 13 && path[:13] == "/api/viewers/":
		return "/api/viewers/:viewerId"
	case len(path) > 14 && path[:14] == "/api/sessions/":
		return "/api/sessions/:viewerId"
	default:
		return path
	}
}

// MetricsHandler serves the Prometheus /metrics endpoint via Fiber.
func MetricsHandler() fiber.Handler {
	httpHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c fiber.Ctx) error {
		httpHandler(c.RequestCtx())
		return nil
	}
}
