// Package rank orders search results by citation impact with a recency
// adjustment, so that heavily cited recent work surfaces first.
package rank

import (
	"sort"
	"time"

	"github.com/scholaragent/research-assistant/internal/domain"
)

const (
	// decayPerYear is the score penalty applied per year of age.
	decayPerYear = 0.05

	// minFactor is the floor of the recency factor. Articles older than
	// ten years all decay to the same factor.
	minFactor = 0.5

	// maxFactor caps the recency factor so that future-dated publication
	// years gain no advantage.
	maxFactor = 1.0
)

// Ranker scores and sorts articles. The zero value is not usable; construct
// one with New.
type Ranker struct {
	now func() time.Time
}

// New creates a Ranker using the wall clock.
func New() *Ranker {
	return &Ranker{now: time.Now}
}

// NewAt creates a Ranker with a fixed clock, for deterministic scoring.
func NewAt(now func() time.Time) *Ranker {
	return &Ranker{now: now}
}

// Score computes the relevance score for one article at the given current
// year: citations scaled by a linear recency factor clamped to
// [minFactor, maxFactor].
func Score(article domain.Article, currentYear int) float64 {
	age := currentYear - article.Year
	factor := 1.0 - decayPerYear*float64(age)
	if factor < minFactor {
		factor = minFactor
	}
	if factor > maxFactor {
		factor = maxFactor
	}
	return float64(article.Citations) * factor
}

// Rank fills in RelevanceScore for every article and sorts the slice in
// descending score order. The sort is stable, so equal scores keep their
// incoming relative order. The input slice is modified in place and returned
// for convenience.
func (r *Ranker) Rank(articles []domain.Article) []domain.Article {
	currentYear := r.now().Year()
	for i := range articles {
		articles[i].RelevanceScore = Score(articles[i], currentYear)
	}
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].RelevanceScore > articles[j].RelevanceScore
	})
	return articles
}
