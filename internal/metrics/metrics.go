// Package metrics provides the Prometheus collectors exported at /metrics.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/ragline/internal/core/ports/driven"
)

// ProviderBuckets covers embedding and generation latencies from 10ms to 60s.
var ProviderBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60}

// Metrics holds the service collectors on a private registry, so that
// several instances can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	// RequestsTotal counts HTTP requests by method, route and status class.
	RequestsTotal *prometheus.CounterVec

	// RequestDuration records HTTP request duration by method and route.
	RequestDuration *prometheus.HistogramVec

	// PassagesIndexed counts passages written by ingest kind (upload, cms, path).
	PassagesIndexed *prometheus.CounterVec

	// IngestFailures counts files that failed to ingest.
	IngestFailures *prometheus.CounterVec

	// AnswersTotal counts composed answers by mode.
	AnswersTotal *prometheus.CounterVec

	// EmbeddingRequests counts embedding calls by model and outcome.
	EmbeddingRequests *prometheus.CounterVec

	// EmbeddingLatency records embedding call latency by model.
	EmbeddingLatency *prometheus.HistogramVec
}

// New creates and registers the collectors, plus the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ragline_http_requests_total",
				Help: "HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ragline_http_request_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		PassagesIndexed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ragline_passages_indexed_total",
				Help: "Passages written to the vector store",
			},
			[]string{"kind"},
		),
		IngestFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ragline_ingest_failures_total",
				Help: "Files that failed to ingest",
			},
			[]string{"kind"},
		),
		AnswersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ragline_answers_total",
				Help: "Composed answers",
			},
			[]string{"mode"},
		),
		EmbeddingRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ragline_embedding_requests_total",
				Help: "Embedding provider calls",
			},
			[]string{"model", "status"},
		),
		EmbeddingLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ragline_embedding_latency_seconds",
				Help:    "Embedding provider latency",
				Buckets: ProviderBuckets,
			},
			[]string{"model"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestsTotal,
		m.RequestDuration,
		m.PassagesIndexed,
		m.IngestFailures,
		m.AnswersTotal,
		m.EmbeddingRequests,
		m.EmbeddingLatency,
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.RequestsTotal.WithLabelValues(method, route, StatusClass(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// StatusClass maps a status code to "2xx", "4xx" and so on.
func StatusClass(status int) string {
	return strconv.Itoa(status/100) + "xx"
}

// InstrumentEmbedding wraps an embedding service so every call is counted
// and timed.
func (m *Metrics) InstrumentEmbedding(next driven.EmbeddingService) driven.EmbeddingService {
	return &instrumentedEmbedder{EmbeddingService: next, m: m}
}

type instrumentedEmbedder struct {
	driven.EmbeddingService
	m *Metrics
}

func (e *instrumentedEmbedder) observe(start time.Time, err error) {
	model := e.ModelName()
	status := "ok"
	if err != nil {
		status = "error"
	}
	e.m.EmbeddingRequests.WithLabelValues(model, status).Inc()
	e.m.EmbeddingLatency.WithLabelValues(model).Observe(time.Since(start).Seconds())
}

func (e *instrumentedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	v, err := e.EmbeddingService.Embed(ctx, text)
	e.observe(start, err)
	return v, err
}

func (e *instrumentedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	v, err := e.EmbeddingService.EmbedBatch(ctx, texts)
	e.observe(start, err)
	return v, err
}
