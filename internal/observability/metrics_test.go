package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// Note: promauto registers metrics globally, so each test uses a unique
// namespace to avoid registration conflicts.

func TestNewMetrics(t *testing.T) {
	m := NewMetrics("test_research_assistant_new")

	assert.NotNil(t, m.AggregationsStarted)
	assert.NotNil(t, m.AggregationsCompleted)
	assert.NotNil(t, m.AggregationDuration)
	assert.NotNil(t, m.SearchesStarted)
	assert.NotNil(t, m.SearchesCompleted)
	assert.NotNil(t, m.SearchesFailed)
	assert.NotNil(t, m.ArticlesCollected)
	assert.NotNil(t, m.ArticlesDuplicate)
	assert.NotNil(t, m.LLMRequestsTotal)
}

func TestRecordSearchOutcomes(t *testing.T) {
	m := NewMetrics("test_search_outcomes")

	m.RecordSearchStarted("openalex")
	m.RecordSearchCompleted("openalex", 0.5, 12)
	m.RecordSearchFailed("scopus", 0.1)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchesStarted.WithLabelValues("openalex")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchesCompleted.WithLabelValues("openalex")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchesFailed.WithLabelValues("scopus")))
}

func TestRecordDedup(t *testing.T) {
	m := NewMetrics("test_dedup_counts")

	m.RecordDedup(10, 7)
	assert.Equal(t, 10.0, testutil.ToFloat64(m.ArticlesCollected))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.ArticlesUnique))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ArticlesDuplicate))

	// No negative drops when dedup removes nothing.
	m.RecordDedup(5, 5)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ArticlesDuplicate))
}

func TestRecordLLMRequest(t *testing.T) {
	m := NewMetrics("test_llm_requests")

	m.RecordLLMRequest("expand_strategies", 1.2, false)
	m.RecordLLMRequest("expand_strategies", 0.8, true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LLMRequestsTotal.WithLabelValues("expand_strategies")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LLMRequestsFailed.WithLabelValues("expand_strategies")))
}
