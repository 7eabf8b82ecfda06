// Package metrics defines the Prometheus metric collectors used by the
// search service and serves them for scraping on a dedicated port.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/dictionary"
	"github.com/Adithya-Monish-Kumar-K/Dictionary-Search-Engine/internal/indexer/index"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	SearchQueriesTotal   *prometheus.CounterVec
	SearchLatency        *prometheus.HistogramVec
	SearchResultsCount   prometheus.Histogram
	StrategyLatency      *prometheus.HistogramVec
	StrategyOutcomes     *prometheus.CounterVec
	SuggestLatency       prometheus.Histogram
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	IndexEntries         *prometheus.GaugeVec
	IndexBuildDuration   prometheus.Gauge
	CircuitBreakerState  *prometheus.GaugeVec
}

// New creates all collectors and registers them with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates all collectors and registers them with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
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
				Help: "Total search queries by result type (hit, zero_result, degraded, invalid).",
			},
			[]string{"result_type"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "search_latency_seconds",
				Help:    "Search query latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"cache_status"},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_results_count",
				Help:    "Number of results returned per search query.",
				Buckets: []float64{0, 1, 5, 10, 30, 60, 120},
			},
		),
		StrategyLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "search_strategy_latency_seconds",
				Help:    "Per-strategy retrieval latency in seconds.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
			},
			[]string{"strategy"},
		),
		StrategyOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_strategy_outcomes_total",
				Help: "Strategy executions by outcome (ok, timeout, error, skipped).",
			},
			[]string{"strategy", "outcome"},
		),
		SuggestLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "suggest_latency_seconds",
				Help:    "Autocomplete latency in seconds.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
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
		IndexEntries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "index_entries",
				Help: "Number of indexed dictionary entries per category.",
			},
			[]string{"category"},
		),
		IndexBuildDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_build_duration_seconds",
				Help: "Duration of the last index build.",
			},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.StrategyLatency,
		m.StrategyOutcomes,
		m.SuggestLatency,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.IndexEntries,
		m.IndexBuildDuration,
		m.CircuitBreakerState,
	)

	return m
}

// ObserveIndexBuild records the outcome of an index build.
func (m *Metrics) ObserveIndexBuild(took time.Duration, stats index.Stats) {
	m.IndexBuildDuration.Set(took.Seconds())
	for _, c := range dictionary.Categories {
		m.IndexEntries.WithLabelValues(c.String()).Set(float64(stats.ByCategory[c]))
	}
}

// ObserveStrategy records one strategy execution.
func (m *Metrics) ObserveStrategy(name, outcome string, took time.Duration) {
	m.StrategyOutcomes.WithLabelValues(name, outcome).Inc()
	if outcome != "skipped" {
		m.StrategyLatency.WithLabelValues(name).Observe(took.Seconds())
	}
}
