package llm

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/scholaragent/research-assistant/internal/domain"
	"github.com/scholaragent/research-assistant/internal/observability"
)

// SummaryNotAvailable is returned by Summarize when the model cannot be
// reached or produces unusable output.
const SummaryNotAvailable = "Summary not available."

// DefaultStrategyCount is the number of strategies requested when the caller
// does not specify one.
const DefaultStrategyCount = 4

// TextGenerator produces model completions for prompts. GeminiProvider is the
// production implementation.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Expander turns research questions into search strategies and articles into
// summaries. Model failures never propagate: ExpandStrategies falls back to a
// single direct strategy and Summarize to a placeholder, so the rest of the
// pipeline is indifferent to model availability.
type Expander struct {
	generator TextGenerator
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

// NewExpander creates an Expander backed by the given generator. Metrics may
// be nil.
func NewExpander(generator TextGenerator, logger zerolog.Logger, metrics *observability.Metrics) *Expander {
	return &Expander{
		generator: generator,
		logger:    logger,
		metrics:   metrics,
	}
}

// ExpandStrategies asks the model for count search strategies for the given
// research question. On any failure (transport, malformed output, empty
// result) it returns a single direct strategy built from the question itself,
// never an error.
func (e *Expander) ExpandStrategies(ctx context.Context, question string, count int) []domain.SearchStrategy {
	if count <= 0 {
		count = DefaultStrategyCount
	}
	fallback := []domain.SearchStrategy{domain.DirectStrategy(question)}

	start := time.Now()
	raw, err := e.generator.Generate(ctx, BuildStrategyPrompt(question, count))
	e.record("expand_strategies", start, err)
	if err != nil {
		e.logger.Warn().Err(err).Msg("strategy expansion failed, using direct search")
		return fallback
	}

	strategies, err := parseStrategies(raw)
	if err != nil || len(strategies) == 0 {
		e.logger.Warn().Err(err).Str("raw", truncate(raw, 200)).
			Msg("unusable strategy output, using direct search")
		return fallback
	}
	if len(strategies) > count {
		strategies = strategies[:count]
	}
	for _, st := range strategies {
		logger := observability.WithStrategyContext(e.logger, st.Topic, st.Query)
		logger.Debug().Msg("search strategy generated")
	}
	return strategies
}

// Summarize asks the model for a short summary of an article. On any failure
// it returns SummaryNotAvailable, never an error.
func (e *Expander) Summarize(ctx context.Context, article domain.Article) string {
	if !article.HasAbstract() {
		return SummaryNotAvailable
	}

	start := time.Now()
	raw, err := e.generator.Generate(ctx, BuildSummaryPrompt(article.Title, article.Abstract))
	e.record("summarize", start, err)
	if err != nil {
		logger := observability.WithArticleContext(e.logger, article.ID)
		logger.Warn().Err(err).Msg("summary generation failed")
		return SummaryNotAvailable
	}

	summary := strings.TrimSpace(raw)
	if summary == "" {
		return SummaryNotAvailable
	}
	return summary
}

func (e *Expander) record(operation string, start time.Time, err error) {
	if e.metrics != nil {
		e.metrics.RecordLLMRequest(operation, time.Since(start).Seconds(), err != nil)
	}
}

// parseStrategies decodes the model output into strategies, tolerating
// markdown code fences around the JSON array. Strategies without a query are
// dropped; missing topics get the direct-search label.
func parseStrategies(raw string) ([]domain.SearchStrategy, error) {
	cleaned := stripCodeFence(raw)

	var decoded []domain.SearchStrategy
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return nil, err
	}

	strategies := make([]domain.SearchStrategy, 0, len(decoded))
	for _, s := range decoded {
		s.Query = strings.TrimSpace(s.Query)
		if s.Query == "" {
			continue
		}
		if strings.TrimSpace(s.Topic) == "" {
			s.Topic = domain.DirectSearchTopic
		}
		strategies = append(strategies, s)
	}
	return strategies, nil
}

// stripCodeFence removes a wrapping markdown code fence, with or without a
// language tag, from model output.
func stripCodeFence(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
