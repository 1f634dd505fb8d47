package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/serroba/lleria/internal/shortener"
)

const namespace = "lleria"

// Metrics holds the service collectors on a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry

	shortenTotal       *prometheus.CounterVec
	allocationAttempts prometheus.Histogram
	resolveTotal       *prometheus.CounterVec

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        prometheus.Gauge
}

// New creates and registers every collector, including the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		shortenTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shorten_total",
			Help:      "Shorten calls by outcome.",
		}, []string{"outcome"}),
		allocationAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "allocation_attempts",
			Help:      "Candidate codes tried per allocation.",
			Buckets:   []float64{1, 2, 3, 4, 5},
		}),
		resolveTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolve_total",
			Help:      "Resolve calls by outcome.",
		}, []string{"outcome"}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency distributions.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Current number of in-flight HTTP requests.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.shortenTotal,
		m.allocationAttempts,
		m.resolveTotal,
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.httpInflight,
	)

	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ShortenCompleted(kind shortener.ErrorKind, alreadyExists bool) {
	outcome := kind.String()

	switch {
	case kind != shortener.KindNone:
	case alreadyExists:
		outcome = "existing"
	default:
		outcome = "created"
	}

	m.shortenTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AllocationAttempts(attempts int) {
	m.allocationAttempts.Observe(float64(attempts))
}

func (m *Metrics) ResolveCompleted(found bool, err error) {
	outcome := "found"

	switch {
	case err != nil:
		outcome = shortener.KindOf(err).String()
	case !found:
		outcome = "not_found"
	}

	m.resolveTotal.WithLabelValues(outcome).Inc()
}

// Middleware records request counts and latency per operation path.
func (m *Metrics) Middleware(ctx huma.Context, next func(huma.Context)) {
	start := time.Now()

	m.httpInflight.Inc()
	defer m.httpInflight.Dec()

	next(ctx)

	route := ctx.URL().Path
	if op := ctx.Operation(); op != nil {
		route = op.Path
	}

	m.httpRequestsTotal.WithLabelValues(ctx.Method(), route, strconv.Itoa(ctx.Status())).Inc()
	m.httpRequestDuration.WithLabelValues(ctx.Method(), route).Observe(time.Since(start).Seconds())
}

var _ shortener.Recorder = (*Metrics)(nil)
