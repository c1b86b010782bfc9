package handler

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Metrics holds all Prometheus collectors for the review API.
var Metrics = struct {
	ReviewsSubmitted  *prometheus.CounterVec
	SessionsCompleted prometheus.Counter
	SubmitFailures    *prometheus.CounterVec
	SessionsLoaded    *prometheus.CounterVec
	GateUnlocks       prometheus.Counter
	LiveSessions      prometheus.GaugeFunc
	RequestDuration   *prometheus.HistogramVec
	RequestsInFlight  prometheus.Gauge
	CacheHits         *prometheus.CounterVec
	CacheMisses       *prometheus.CounterVec
	DBPoolActive      prometheus.GaugeFunc
	DBPoolIdle        prometheus.GaugeFunc
}{}

var metricsOnce sync.Once

// InitMetrics registers all Prometheus metrics. Safe to call more than once;
// only the first call registers.
func InitMetrics(pool *pgxpool.Pool, liveSessions func() int) {
	metricsOnce.Do(func() { initMetrics(pool, liveSessions) })
}

func initMetrics(pool *pgxpool.Pool, liveSessions func() int) {
	Metrics.ReviewsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "landtube_reviews_submitted_total",
			Help: "Total reviews persisted, by rating.",
		},
		[]string{"rating"},
	)

	Metrics.SessionsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "landtube_sessions_completed_total",
			Help: "Total daily lists completed in a review session.",
		},
	)

	Metrics.SubmitFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "landtube_submit_failures_total",
			Help: "Failed review submissions, by stage.",
		},
		[]string{"stage"},
	)

	Metrics.SessionsLoaded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "landtube_sessions_loaded_total",
			Help: "Review session loads, by resulting phase.",
		},
		[]string{"outcome"},
	)

	Metrics.GateUnlocks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "landtube_watch_gate_unlocks_total",
			Help: "Videos watched long enough to unlock rating.",
		},
	)

	Metrics.RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "landtube_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by endpoint and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	Metrics.RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "landtube_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		},
	)

	Metrics.CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "landtube_cache_hits_total",
			Help: "Total Redis cache hits, by kind.",
		},
		[]string{"kind"},
	)

	Metrics.CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "landtube_cache_misses_total",
			Help: "Total Redis cache misses, by kind.",
		},
		[]string{"kind"},
	)

	if liveSessions != nil {
		Metrics.LiveSessions = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "landtube_live_sessions",
				Help: "Review sessions currently held in memory.",
			},
			func() float64 {
				return float64(liveSessions())
			},
		)
		prometheus.MustRegister(Metrics.LiveSessions)
	}

	// DB pool gauges read live stats from pgxpool
	if pool != nil {
		Metrics.DBPoolActive = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "landtube_db_connection_pool_active",
				Help: "Number of active database connections.",
			},
			func() float64 {
				return float64(pool.Stat().AcquiredConns())
			},
		)

		Metrics.DBPoolIdle = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "landtube_db_connection_pool_idle",
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
		Metrics.ReviewsSubmitted,
		Metrics.SessionsCompleted,
		Metrics.SubmitFailures,
		Metrics.SessionsLoaded,
		Metrics.GateUnlocks,
		Metrics.RequestDuration,
		Metrics.RequestsInFlight,
		Metrics.CacheHits,
		Metrics.CacheMisses,
	)
}

// ObserveReview counts a persisted review.
func ObserveReview(rating int) {
	if Metrics.ReviewsSubmitted == nil {
		return
	}
	Metrics.ReviewsSubmitted.WithLabelValues(strconv.Itoa(rating)).Inc()
}

// ObserveSessionCompleted counts a daily list finished in a session.
func ObserveSessionCompleted() {
	if Metrics.SessionsCompleted == nil {
		return
	}
	Metrics.SessionsCompleted.Inc()
}

// ObserveSubmitFailure counts a failed submission at stage.
func ObserveSubmitFailure(stage string) {
	if Metrics.SubmitFailures == nil {
		return
	}
	Metrics.SubmitFailures.WithLabelValues(stage).Inc()
}

// ObserveSessionLoaded counts a session load by the phase it reached.
func ObserveSessionLoaded(outcome string) {
	if Metrics.SessionsLoaded == nil {
		return
	}
	Metrics.SessionsLoaded.WithLabelValues(outcome).Inc()
}

// ObserveGateUnlock counts a watch gate unlock.
func ObserveGateUnlock() {
	if Metrics.GateUnlocks == nil {
		return
	}
	Metrics.GateUnlocks.Inc()
}

// ObserveCache counts a cache lookup of kind.
func ObserveCache(kind string, hit bool) {
	if Metrics.CacheHits == nil {
		return
	}
	if hit {
		Metrics.CacheHits.WithLabelValues(kind).Inc()
		return
	}
	Metrics.CacheMisses.WithLabelValues(kind).Inc()
}

// MetricsMiddleware records request duration and in-flight count for Prometheus.
func MetricsMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		// Don't instrument the /metrics endpoint itself
		if c.Path() == "/metrics" || Metrics.RequestDuration == nil {
			return c.Next()
		}

		// Copy path and method into owned strings BEFORE c.Next(). Fiber
		// returns slices backed by the fasthttp buffer which can be reused
		// or overwritten by handlers (especially fasthttpadaptor).
		path := string([]byte(c.Path()))
		method := string([]byte(c.Method()))

		Metrics.RequestsInFlight.Inc()
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())

		Metrics.RequestDuration.WithLabelValues(sanitizeEndpoint(path), method, status).Observe(duration)
		Metrics.RequestsInFlight.Dec()

		return err
	}
}

// knownEndpoints bounds the endpoint label; anything else is reported as "other".
var knownEndpoints = map[string]bool{
	"/health/live":          true,
	"/health/ready":         true,
	"/api/dashboard":        true,
	"/api/profile/password": true,
	"/api/session":          true,
	"/api/session/watch":    true,
	"/api/session/rating":   true,
	"/api/session/submit":   true,
}

// sanitizeEndpoint normalizes paths to avoid cardinality explosion.
func sanitizeEndpoint(path string) string {
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	if knownEndpoints[path] {
		return path
	}
	return "other"
}

// MetricsHandler serves the Prometheus /metrics endpoint via Fiber.
func MetricsHandler() fiber.Handler {
	httpHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c fiber.Ctx) error {
		httpHandler(c.RequestCtx())
		return nil
	}
}
