package rank

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholaragent/research-assistant/internal/domain"
)

func fixedRanker(year int) *Ranker {
	return NewAt(func() time.Time {
		return time.Date(year, time.June, 1, 0, 0, 0, 0, time.UTC)
	})
}

func TestScore(t *testing.T) {
	t.Run("current year keeps full citation weight", func(t *testing.T) {
		a := domain.Article{Citations: 100, Year: 2026}
		assert.InDelta(t, 100.0, Score(a, 2026), 1e-9)
	})

	t.Run("five year old article loses a quarter", func(t *testing.T) {
		a := domain.Article{Citations: 100, Year: 2021}
		assert.InDelta(t, 75.0, Score(a, 2026), 1e-9)
	})

	t.Run("decay floors at half weight", func(t *testing.T) {
		a := domain.Article{Citations: 100, Year: 1990}
		assert.InDelta(t, 50.0, Score(a, 2026), 1e-9)
	})

	t.Run("future years gain no bonus", func(t *testing.T) {
		a := domain.Article{Citations: 100, Year: 2030}
		assert.InDelta(t, 100.0, Score(a, 2026), 1e-9)
	})

	t.Run("zero citations score zero regardless of year", func(t *testing.T) {
		a := domain.Article{Citations: 0, Year: 2026}
		assert.Zero(t, Score(a, 2026))
	})
}

func TestRank(t *testing.T) {
	t.Run("sorts by descending score", func(t *testing.T) {
		articles := []domain.Article{
			{ID: "old", Citations: 100, Year: 2016},   // 100 * 0.5 = 50
			{ID: "recent", Citations: 60, Year: 2026}, // 60 * 1.0 = 60
			{ID: "top", Citations: 500, Year: 2020},   // 500 * 0.7 = 350
		}

		got := fixedRanker(2026).Rank(articles)

		require.Len(t, got, 3)
		assert.Equal(t, "top", got[0].ID)
		assert.Equal(t, "recent", got[1].ID)
		assert.Equal(t, "old", got[2].ID)
		assert.InDelta(t, 350.0, got[0].RelevanceScore, 1e-9)
		assert.InDelta(t, 60.0, got[1].RelevanceScore, 1e-9)
		assert.InDelta(t, 50.0, got[2].RelevanceScore, 1e-9)
	})

	t.Run("equal scores keep input order", func(t *testing.T) {
		articles := []domain.Article{
			{ID: "first", Citations: 10, Year: 2026},
			{ID: "second", Citations: 10, Year: 2026},
		}

		got := fixedRanker(2026).Rank(articles)
		assert.Equal(t, "first", got[0].ID)
		assert.Equal(t, "second", got[1].ID)
	})

	t.Run("empty input stays empty", func(t *testing.T) {
		assert.Empty(t, New().Rank(nil))
	})
}
