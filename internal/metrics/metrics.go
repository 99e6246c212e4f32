// Package metrics exposes Prometheus metrics for triage runs and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ShayCichocki/bugtriage/internal/triage"
	"github.com/ShayCichocki/bugtriage/pkg/models"
)

const namespace = "bugtriage"

// Metrics owns a private registry so that several servers (and tests) can
// coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	triages       *prometheus.CounterVec
	triageSeconds prometheus.Histogram
	confidence    prometheus.Histogram
	flaky         prometheus.Counter
	requests      *prometheus.CounterVec
	requestTime   *prometheus.HistogramVec
}

var _ triage.Recorder = (*Metrics)(nil)

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		triages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "triage_total",
			Help:      "Triage runs by category, severity and label resolution outcome.",
		}, []string{"category", "severity", "outcome"}),
		triageSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "triage_duration_seconds",
			Help:      "Wall time of one triage run, including external calls.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}),
		confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "triage_confidence",
			Help:      "Confidence assigned to triage results.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 9),
		}),
		flaky: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flaky_total",
			Help:      "Triage runs that detected a flaky failure.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		requestTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.triages,
		m.triageSeconds,
		m.confidence,
		m.flaky,
		m.requests,
		m.requestTime,
	)
	return m
}

// Registry returns the registry holding all collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveTriage records one finished triage run.
func (m *Metrics) ObserveTriage(result *models.TriageResult, outcome triage.Outcome, elapsed time.Duration) {
	m.triages.WithLabelValues(string(result.Category), string(result.Severity), outcome.String()).Inc()
	m.triageSeconds.Observe(elapsed.Seconds())
	m.confidence.Observe(result.Confidence)
	if result.IsFlaky {
		m.flaky.Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency, labelled by the matched
// chi route pattern rather than the raw path.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.requestTime.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
