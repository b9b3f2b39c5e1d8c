// Package aggregator fans search strategies out across every enabled search
// source, collects the results, and runs them through deduplication and
// ranking. Individual source failures are absorbed here: a failing provider
// contributes nothing instead of failing the whole search.
package aggregator

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/scholaragent/research-assistant/internal/dedup"
	"github.com/scholaragent/research-assistant/internal/domain"
	"github.com/scholaragent/research-assistant/internal/observability"
	"github.com/scholaragent/research-assistant/internal/rank"
	"github.com/scholaragent/research-assistant/internal/sources"
)

const (
	// DefaultWorkers is the default bound on concurrent source searches.
	DefaultWorkers = 5

	// DefaultTaskTimeout bounds one strategy-source search.
	DefaultTaskTimeout = 30 * time.Second

	// DefaultOverallTimeout bounds a whole aggregated search run.
	DefaultOverallTimeout = 60 * time.Second
)

// Config contains configuration options for the Aggregator.
type Config struct {
	// Workers is the maximum number of concurrent source searches.
	Workers int

	// TaskTimeout bounds each individual strategy-source search.
	TaskTimeout time.Duration

	// OverallTimeout bounds the whole aggregated run.
	OverallTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.TaskTimeout <= 0 {
		c.TaskTimeout = DefaultTaskTimeout
	}
	if c.OverallTimeout <= 0 {
		c.OverallTimeout = DefaultOverallTimeout
	}
}

// Request describes one aggregated search run.
type Request struct {
	// Strategies are the search strategies to execute. Every strategy runs
	// against every selected source.
	Strategies []domain.SearchStrategy

	// Sources restricts the run to specific source types. Empty means all
	// enabled sources.
	Sources []domain.SourceType

	// MinYear drops articles published before this year when positive.
	MinYear int

	// MinCitations drops articles cited fewer times when positive.
	MinCitations int

	// MaxResultsPerSource caps results per strategy-source search.
	MaxResultsPerSource int

	// ExcludeIDs are article ids removed from the results, typically the
	// user's already-saved collection.
	ExcludeIDs map[string]struct{}
}

// Report is the outcome of an aggregated search run.
type Report struct {
	// Articles are the deduplicated articles in descending relevance order.
	Articles []domain.Article `json:"articles"`

	// TotalFound counts raw articles collected before deduplication.
	TotalFound int `json:"total_found"`

	// UniqueCount counts articles surviving deduplication.
	UniqueCount int `json:"unique_count"`

	// PerSourceCounts maps source names to raw article counts.
	PerSourceCounts map[string]int `json:"per_source_counts"`

	// StrategiesUsed echoes the strategies that were executed.
	StrategiesUsed []domain.SearchStrategy `json:"strategies_used"`
}

// Aggregator runs aggregated searches over a source registry.
type Aggregator struct {
	registry *sources.Registry
	dedup    *dedup.Deduplicator
	ranker   *rank.Ranker
	logger   zerolog.Logger
	metrics  *observability.Metrics
	config   Config
}

// New creates an Aggregator. Metrics may be nil.
func New(registry *sources.Registry, deduplicator *dedup.Deduplicator, ranker *rank.Ranker,
	logger zerolog.Logger, metrics *observability.Metrics, cfg Config) *Aggregator {
	cfg.applyDefaults()
	return &Aggregator{
		registry: registry,
		dedup:    deduplicator,
		ranker:   ranker,
		logger:   logger,
		metrics:  metrics,
		config:   cfg,
	}
}

// task is one strategy-source search unit.
type task struct {
	strategy domain.SearchStrategy
	source   sources.Source
}

// Search executes every strategy against every selected source with bounded
// concurrency, then deduplicates and ranks the combined results. Source
// failures are logged and contribute nothing. The only error conditions are
// an empty request and a fully exhausted parent context.
func (a *Aggregator) Search(ctx context.Context, req Request) (*Report, error) {
	strategies := usableStrategies(req.Strategies)
	if len(strategies) == 0 {
		return nil, domain.NewValidationError("strategies", "at least one strategy with a non-empty query is required")
	}

	selected := a.registry.Select(req.Sources)
	if len(selected) == 0 {
		a.logger.Warn().Msg("no enabled sources selected")
		return &Report{
			Articles:        []domain.Article{},
			PerSourceCounts: map[string]int{},
			StrategiesUsed:  strategies,
		}, nil
	}

	start := time.Now()
	if a.metrics != nil {
		a.metrics.RecordAggregationStarted()
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.OverallTimeout)
	defer cancel()

	tasks := make([]task, 0, len(strategies)*len(selected))
	for _, strategy := range strategies {
		for _, source := range selected {
			tasks = append(tasks, task{strategy: strategy, source: source})
		}
	}

	// One result slot per task keeps the combined order deterministic
	// regardless of completion order.
	results := make([][]domain.Article, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.config.Workers)
	for i, tk := range tasks {
		g.Go(func() error {
			results[i] = a.runTask(gctx, tk, req)
			return nil
		})
	}
	// Tasks absorb their own failures, so Wait only joins the workers. An
	// expired overall deadline cancels the remaining tasks and the report
	// carries whatever completed.
	_ = g.Wait()

	perSource := make(map[string]int)
	var combined []domain.Article
	for i, articles := range results {
		perSource[tasks[i].source.Name()] += len(articles)
		combined = append(combined, articles...)
	}

	unique := a.dedup.Dedup(combined, req.ExcludeIDs)
	ranked := a.ranker.Rank(unique)

	if a.metrics != nil {
		a.metrics.RecordDedup(len(combined), len(ranked))
		a.metrics.RecordAggregationCompleted(time.Since(start).Seconds())
	}
	a.logger.Info().
		Int("strategies", len(strategies)).
		Int("sources", len(selected)).
		Int("total_found", len(combined)).
		Int("unique", len(ranked)).
		Dur("duration", time.Since(start)).
		Msg("aggregated search completed")

	return &Report{
		Articles:        ranked,
		TotalFound:      len(combined),
		UniqueCount:     len(ranked),
		PerSourceCounts: perSource,
		StrategiesUsed:  strategies,
	}, nil
}

// runTask executes one strategy-source search under the task timeout and
// stamps provenance onto the results. Failures are absorbed: the task logs
// and returns nothing.
func (a *Aggregator) runTask(ctx context.Context, tk task, req Request) []domain.Article {
	sourceName := tk.source.Name()
	logger := observability.WithSearchContext(a.logger, tk.strategy.Query, sourceName)

	ctx, cancel := context.WithTimeout(ctx, a.config.TaskTimeout)
	defer cancel()

	start := time.Now()
	if a.metrics != nil {
		a.metrics.RecordSearchStarted(sourceName)
	}

	articles, err := tk.source.Search(ctx, sources.SearchQuery{
		Text:         tk.strategy.Query,
		MinYear:      req.MinYear,
		MinCitations: req.MinCitations,
		MaxResults:   req.MaxResultsPerSource,
	})
	elapsed := time.Since(start)
	if err != nil {
		if a.metrics != nil {
			a.metrics.RecordSearchFailed(sourceName, elapsed.Seconds())
		}
		logger.Warn().Err(err).Dur("duration", elapsed).Msg("source search failed")
		return nil
	}

	if a.metrics != nil {
		a.metrics.RecordSearchCompleted(sourceName, elapsed.Seconds(), len(articles))
	}
	logger.Debug().Int("articles", len(articles)).Dur("duration", elapsed).Msg("source search completed")

	for i := range articles {
		articles[i].Topic = tk.strategy.Topic
		articles[i].SearchStrategy = tk.strategy.Query
		articles[i].Rationale = tk.strategy.Rationale
	}
	return articles
}

// usableStrategies filters out strategies with empty queries.
func usableStrategies(strategies []domain.SearchStrategy) []domain.SearchStrategy {
	usable := make([]domain.SearchStrategy, 0, len(strategies))
	for _, s := range strategies {
		if s.Query != "" {
			usable = append(usable, s)
		}
	}
	return usable
}
