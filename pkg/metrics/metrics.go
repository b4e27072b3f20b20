// Package metrics defines the Prometheus collectors for query evaluation and
// the HTTP surface, and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "github.com/Adithya-Monish-Kumar-K/fuzzyseg/pkg/errors"
)

// Metrics holds all Prometheus collectors.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	SearchQueriesTotal   *prometheus.CounterVec
	SearchLatency        *prometheus.HistogramVec
	SearchResultsCount   prometheus.Histogram
	ScorerBuildsTotal    *prometheus.CounterVec
	ScorerBuildDuration  *prometheus.HistogramVec
	TermsMatched         *prometheus.HistogramVec
	DocsMatched          *prometheus.HistogramVec
	SegmentsLoaded       prometheus.Gauge
	CacheLookupsTotal    *prometheus.CounterVec
}

// New creates all collectors and registers them on reg.
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
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_queries_total",
				Help: "Total searches by query type and result (hit, zero_result, error).",
			},
			[]string{"query_type", "result_type"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "search_latency_seconds",
				Help:    "Search latency across all segments in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"query_type"},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_results_count",
				Help:    "Number of hits returned per search.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
			},
		),
		ScorerBuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scorer_builds_total",
				Help: "Per-segment scorer builds by query type, status, and failing stage.",
			},
			[]string{"query_type", "status", "stage"},
		),
		ScorerBuildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scorer_build_duration_seconds",
				Help:    "Time to build one segment's scorer in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"query_type"},
		),
		TermsMatched: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scorer_terms_matched",
				Help:    "Dictionary terms accepted by the automaton per segment.",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"query_type"},
		),
		DocsMatched: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scorer_docs_matched",
				Help:    "Documents matched per segment.",
				Buckets: prometheus.ExponentialBuckets(1, 10, 7),
			},
			[]string{"query_type"},
		),
		SegmentsLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "segments_loaded",
				Help: "Number of segments open for search.",
			},
		),
		CacheLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_cache_lookups_total",
				Help: "Result cache lookups by outcome (hit, miss, error).",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.ScorerBuildsTotal,
		m.ScorerBuildDuration,
		m.TermsMatched,
		m.DocsMatched,
		m.SegmentsLoaded,
		m.CacheLookupsTotal,
	)

	return m
}

// ObserveScorer records one segment's scorer build. The failing stage is
// derived from the error's sentinel.
func (m *Metrics) ObserveScorer(queryType string, terms int, docs uint64, elapsed time.Duration, err error) {
	if err != nil {
		stage := apperrors.Stage(err)
		if stage == "" {
			stage = "other"
		}
		m.ScorerBuildsTotal.WithLabelValues(queryType, "error", stage).Inc()
		return
	}
	m.ScorerBuildsTotal.WithLabelValues(queryType, "ok", "").Inc()
	m.ScorerBuildDuration.WithLabelValues(queryType).Observe(elapsed.Seconds())
	m.TermsMatched.WithLabelValues(queryType).Observe(float64(terms))
	m.DocsMatched.WithLabelValues(queryType).Observe(float64(docs))
}

// ObserveSearch records one multi-segment search.
func (m *Metrics) ObserveSearch(queryType string, hits int, elapsed time.Duration, err error) {
	m.SearchLatency.WithLabelValues(queryType).Observe(elapsed.Seconds())
	switch {
	case err != nil:
		m.SearchQueriesTotal.WithLabelValues(queryType, "error").Inc()
	case hits == 0:
		m.SearchQueriesTotal.WithLabelValues(queryType, "zero_result").Inc()
	default:
		m.SearchQueriesTotal.WithLabelValues(queryType, "hit").Inc()
	}
	if err == nil {
		m.SearchResultsCount.Observe(float64(hits))
	}
}

// ObserveCache records one result cache lookup.
func (m *Metrics) ObserveCache(result string) {
	m.CacheLookupsTotal.WithLabelValues(result).Inc()
}

// Handler returns the Prometheus scrape HTTP handler for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
