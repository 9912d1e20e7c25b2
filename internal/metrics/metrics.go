package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Search outcomes recorded per source.
const (
	OutcomeCacheHit     = "cache_hit"
	OutcomeFetched      = "fetched"
	OutcomeFailed       = "failed"
	OutcomeOfflineMiss  = "offline_miss"
	OutcomeCacheFailure = "cache_error"
)

// Metrics holds the Prometheus collectors for one process. Every method is
// safe to call on a nil *Metrics.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	searches        *prometheus.CounterVec
	fetchDuration   *prometheus.HistogramVec
	legsRejected    *prometheus.CounterVec
	gridPoints      *prometheus.CounterVec
	sweepDuration   prometheus.Histogram
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	searches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flightsweep_searches_total",
		Help: "Provider searches by source and outcome",
	}, []string{"source", "outcome"})

	fetchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flightsweep_provider_fetch_seconds",
		Help:    "Duration of provider fetches in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	legsRejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flightsweep_legs_rejected_total",
		Help: "Decoded legs turned away by the constraint filter",
	}, []string{"reason"})

	gridPoints := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flightsweep_grid_points_total",
		Help: "Grid point evaluations by strategy and status",
	}, []string{"strategy", "status"})

	sweepDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "flightsweep_sweep_seconds",
		Help:    "Duration of complete sweeps in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	})

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	registry.MustRegister(searches, fetchDuration, legsRejected, gridPoints, sweepDuration, requestDuration, requestTotal)

	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		searches:        searches,
		fetchDuration:   fetchDuration,
		legsRejected:    legsRejected,
		gridPoints:      gridPoints,
		sweepDuration:   sweepDuration,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *Metrics) ObserveSearch(source, outcome string) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(source, outcome).Inc()
}

func (m *Metrics) ObserveFetch(source string, d time.Duration) {
	if m == nil {
		return
	}
	m.fetchDuration.WithLabelValues(source).Observe(d.Seconds())
}

func (m *Metrics) ObserveRejected(reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.legsRejected.WithLabelValues(reason).Add(float64(n))
}

func (m *Metrics) ObserveGridPoint(strategy string, scored bool) {
	if m == nil {
		return
	}
	status := "scored"
	if !scored {
		status = "skipped"
	}
	m.gridPoints.WithLabelValues(strategy, status).Inc()
}

func (m *Metrics) ObserveSweep(d time.Duration) {
	if m == nil {
		return
	}
	m.sweepDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveHTTPRequest(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, code).Observe(d.Seconds())
	m.requestTotal.WithLabelValues(method, path, code).Inc()
}

// EchoMiddleware records request metrics labelled by route pattern.
func EchoMiddleware(m *Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			m.ObserveHTTPRequest(c.Request().Method, path, c.Response().Status, time.Since(start))
			return nil
		}
	}
}
