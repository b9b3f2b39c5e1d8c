package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the research assistant.
// Metrics are organized by subsystem: aggregated searches, per-source
// requests, deduplication, and LLM operations. All counters and histograms
// are registered via promauto with the default Prometheus registry.
type Metrics struct {
	// AggregationsStarted counts aggregated search runs initiated.
	AggregationsStarted prometheus.Counter

	// AggregationsCompleted counts aggregated search runs that finished.
	AggregationsCompleted prometheus.Counter

	// AggregationDuration observes the end-to-end duration of aggregated
	// search runs in seconds.
	AggregationDuration prometheus.Histogram

	// SearchesStarted counts source searches initiated, labeled by source.
	SearchesStarted *prometheus.CounterVec

	// SearchesCompleted counts successful source searches, labeled by source.
	SearchesCompleted *prometheus.CounterVec

	// SearchesFailed counts failed source searches, labeled by source.
	SearchesFailed *prometheus.CounterVec

	// SearchDuration observes source search duration in seconds, labeled by source.
	SearchDuration *prometheus.HistogramVec

	// ArticlesPerSearch observes the number of articles returned per source search.
	ArticlesPerSearch *prometheus.HistogramVec

	// ArticlesCollected counts raw articles collected before deduplication.
	ArticlesCollected prometheus.Counter

	// ArticlesUnique counts articles surviving deduplication.
	ArticlesUnique prometheus.Counter

	// ArticlesDuplicate counts articles dropped as duplicates or unusable.
	ArticlesDuplicate prometheus.Counter

	// LLMRequestsTotal counts LLM API requests, labeled by operation.
	LLMRequestsTotal *prometheus.CounterVec

	// LLMRequestsFailed counts failed LLM API requests, labeled by operation.
	LLMRequestsFailed *prometheus.CounterVec

	// LLMRequestDuration observes LLM API request duration in seconds, labeled by operation.
	LLMRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		AggregationsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregations_started_total",
			Help:      "Total number of aggregated search runs started",
		}),
		AggregationsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregations_completed_total",
			Help:      "Total number of aggregated search runs completed",
		}),
		AggregationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregation_duration_seconds",
			Help:      "End-to-end duration of aggregated search runs",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		SearchesStarted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_started_total",
			Help:      "Total number of source searches started",
		}, []string{"source"}),
		SearchesCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_completed_total",
			Help:      "Total number of source searches completed successfully",
		}, []string{"source"}),
		SearchesFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_failed_total",
			Help:      "Total number of source searches that failed",
		}, []string{"source"}),
		SearchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of individual source searches",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		ArticlesPerSearch: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "articles_per_search",
			Help:      "Number of articles returned per source search",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
		}, []string{"source"}),
		ArticlesCollected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_collected_total",
			Help:      "Total number of raw articles collected before deduplication",
		}),
		ArticlesUnique: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_unique_total",
			Help:      "Total number of articles surviving deduplication",
		}),
		ArticlesDuplicate: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_duplicate_total",
			Help:      "Total number of articles dropped as duplicates or unusable",
		}),
		LLMRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of LLM API requests",
		}, []string{"operation"}),
		LLMRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_failed_total",
			Help:      "Total number of failed LLM API requests",
		}, []string{"operation"}),
		LLMRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Duration of LLM API requests",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"operation"}),
	}
}

// RecordAggregationStarted increments the aggregation start counter.
func (m *Metrics) RecordAggregationStarted() {
	m.AggregationsStarted.Inc()
}

// RecordAggregationCompleted records one finished aggregation run and its
// duration in seconds.
func (m *Metrics) RecordAggregationCompleted(seconds float64) {
	m.AggregationsCompleted.Inc()
	m.AggregationDuration.Observe(seconds)
}

// RecordSearchStarted increments the per-source search counter.
func (m *Metrics) RecordSearchStarted(source string) {
	m.SearchesStarted.WithLabelValues(source).Inc()
}

// RecordSearchCompleted records one successful source search.
func (m *Metrics) RecordSearchCompleted(source string, seconds float64, articles int) {
	m.SearchesCompleted.WithLabelValues(source).Inc()
	m.SearchDuration.WithLabelValues(source).Observe(seconds)
	m.ArticlesPerSearch.WithLabelValues(source).Observe(float64(articles))
}

// RecordSearchFailed records one failed source search.
func (m *Metrics) RecordSearchFailed(source string, seconds float64) {
	m.SearchesFailed.WithLabelValues(source).Inc()
	m.SearchDuration.WithLabelValues(source).Observe(seconds)
}

// RecordDedup records the before and after sizes of a deduplication pass.
func (m *Metrics) RecordDedup(collected, unique int) {
	m.ArticlesCollected.Add(float64(collected))
	m.ArticlesUnique.Add(float64(unique))
	if dropped := collected - unique; dropped > 0 {
		m.ArticlesDuplicate.Add(float64(dropped))
	}
}

// RecordLLMRequest records one LLM request outcome for the given operation.
func (m *Metrics) RecordLLMRequest(operation string, seconds float64, failed bool) {
	m.LLMRequestsTotal.WithLabelValues(operation).Inc()
	m.LLMRequestDuration.WithLabelValues(operation).Observe(seconds)
	if failed {
		m.LLMRequestsFailed.WithLabelValues(operation).Inc()
	}
}
