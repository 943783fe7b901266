// Package metrics defines the Prometheus collectors for the search engine and
// its HTTP surface, registered on a caller-supplied registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all collectors. A nil *Metrics is valid and records nothing,
// so components can run without instrumentation.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	DocumentsAddedTotal  prometheus.Counter
	DocumentsRemoved     prometheus.Counter
	DocumentsLive        prometheus.Gauge
	VocabularySize       prometheus.Gauge
	MutationErrorsTotal  *prometheus.CounterVec
	SearchQueriesTotal   *prometheus.CounterVec
	SearchLatency        *prometheus.HistogramVec
	SearchResultsCount   prometheus.Histogram
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	RequestsRejected     prometheus.Counter
	NoResultRequests     prometheus.Gauge
}

// New creates the collectors and registers them on reg. A nil reg leaves them
// unregistered, which tests use to avoid global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		DocumentsAddedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "search_documents_added_total",
				Help: "Total documents added to the index.",
			},
		),
		DocumentsRemoved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "search_documents_removed_total",
				Help: "Total documents removed from the index.",
			},
		),
		DocumentsLive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "search_documents_live",
				Help: "Number of documents currently indexed.",
			},
		),
		VocabularySize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "search_vocabulary_terms",
				Help: "Number of distinct terms ever interned.",
			},
		),
		MutationErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_mutation_errors_total",
				Help: "Rejected add and remove operations by operation.",
			},
			[]string{"op"},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_queries_total",
				Help: "Total search queries by result type (hit, zero_result, error).",
			},
			[]string{"result_type"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "search_latency_seconds",
				Help:    "Search query latency in seconds by execution policy.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"policy"},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_results_count",
				Help:    "Number of results returned per search query.",
				Buckets: []float64{0, 1, 2, 3, 4, 5},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses.",
			},
		),
		RequestsRejected: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "request_queue_rejected_total",
				Help: "Requests refused by the request queue rate limiter.",
			},
		),
		NoResultRequests: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "request_queue_no_result_requests",
				Help: "Requests in the current window that returned no documents.",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.HTTPRequestsTotal,
			m.HTTPRequestDuration,
			m.HTTPRequestsInFlight,
			m.DocumentsAddedTotal,
			m.DocumentsRemoved,
			m.DocumentsLive,
			m.VocabularySize,
			m.MutationErrorsTotal,
			m.SearchQueriesTotal,
			m.SearchLatency,
			m.SearchResultsCount,
			m.CacheHitsTotal,
			m.CacheMissesTotal,
			m.RequestsRejected,
			m.NoResultRequests,
		)
	}

	return m
}

// Handler returns the scrape handler for the given gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (m *Metrics) DocumentAdded(live, vocabulary int) {
	if m == nil {
		return
	}
	m.DocumentsAddedTotal.Inc()
	m.DocumentsLive.Set(float64(live))
	m.VocabularySize.Set(float64(vocabulary))
}

func (m *Metrics) DocumentRemoved(live int) {
	if m == nil {
		return
	}
	m.DocumentsRemoved.Inc()
	m.DocumentsLive.Set(float64(live))
}

func (m *Metrics) MutationRejected(op string) {
	if m == nil {
		return
	}
	m.MutationErrorsTotal.WithLabelValues(op).Inc()
}

// ObserveQuery records one FindTopDocuments call.
func (m *Metrics) ObserveQuery(policy string, elapsed time.Duration, results int, err error) {
	if m == nil {
		return
	}
	m.SearchLatency.WithLabelValues(policy).Observe(elapsed.Seconds())
	switch {
	case err != nil:
		m.SearchQueriesTotal.WithLabelValues("error").Inc()
		return
	case results == 0:
		m.SearchQueriesTotal.WithLabelValues("zero_result").Inc()
	default:
		m.SearchQueriesTotal.WithLabelValues("hit").Inc()
	}
	m.SearchResultsCount.Observe(float64(results))
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.CacheHitsTotal.Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.CacheMissesTotal.Inc()
}

func (m *Metrics) RequestRejected() {
	if m == nil {
		return
	}
	m.RequestsRejected.Inc()
}

func (m *Metrics) SetNoResultRequests(n int) {
	if m == nil {
		return
	}
	m.NoResultRequests.Set(float64(n))
}
