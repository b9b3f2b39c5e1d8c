package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholaragent/research-assistant/internal/domain"
)

func article(id, title, url string) domain.Article {
	return domain.Article{ID: id, Title: title, URL: url}
}

func TestDedup(t *testing.T) {
	d := New(Config{})

	t.Run("keeps distinct articles in input order", func(t *testing.T) {
		in := []domain.Article{
			article("s2:1", "Graph neural networks for molecules", "https://a.example/1"),
			article("crossref:2", "Transformers in computational biology", "https://a.example/2"),
		}
		out := d.Dedup(in, nil)
		require.Len(t, out, 2)
		assert.Equal(t, "s2:1", out[0].ID)
		assert.Equal(t, "crossref:2", out[1].ID)
	})

	t.Run("drops excluded ids", func(t *testing.T) {
		in := []domain.Article{
			article("s2:1", "Graph neural networks for molecules", "https://a.example/1"),
		}
		out := d.Dedup(in, map[string]struct{}{"s2:1": {}})
		assert.Empty(t, out)
	})

	t.Run("drops repeated ids and urls", func(t *testing.T) {
		in := []domain.Article{
			article("s2:1", "First distinct long enough title", "https://a.example/1"),
			article("s2:1", "Second distinct long enough title", "https://a.example/2"),
			article("s2:3", "Third distinct long enough title", "https://a.example/1"),
		}
		out := d.Dedup(in, nil)
		require.Len(t, out, 1)
		assert.Equal(t, "s2:1", out[0].ID)
	})

	t.Run("matches titles case-insensitively", func(t *testing.T) {
		in := []domain.Article{
			article("s2:1", "Attention Is All You Need", "https://a.example/1"),
			article("crossref:2", "  attention is all you need ", "https://a.example/2"),
		}
		out := d.Dedup(in, nil)
		assert.Len(t, out, 1)
	})

	t.Run("long title containment is a duplicate", func(t *testing.T) {
		in := []domain.Article{
			article("s2:1", "Attention is all you need", "https://a.example/1"),
			article("crossref:2", "Attention is all you need: transformers revisited", "https://a.example/2"),
		}
		out := d.Dedup(in, nil)
		require.Len(t, out, 1)
		assert.Equal(t, "s2:1", out[0].ID)
	})

	t.Run("short titles never fuzzy-match", func(t *testing.T) {
		in := []domain.Article{
			article("s2:1", "Go", "https://a.example/1"),
			article("crossref:2", "Going deeper", "https://a.example/2"),
		}
		out := d.Dedup(in, nil)
		assert.Len(t, out, 2)
	})

	t.Run("drops articles without title or url", func(t *testing.T) {
		in := []domain.Article{
			article("s2:1", "", "https://a.example/1"),
			article("s2:2", "Something with no link at all", ""),
			article("s2:3", "A perfectly complete article record", "https://a.example/3"),
		}
		out := d.Dedup(in, nil)
		require.Len(t, out, 1)
		assert.Equal(t, "s2:3", out[0].ID)
	})

	t.Run("idempotent over its own output", func(t *testing.T) {
		in := []domain.Article{
			article("s2:1", "Attention is all you need", "https://a.example/1"),
			article("crossref:2", "Attention is all you need: transformers revisited", "https://a.example/2"),
			article("doaj:3", "Open access publishing trends in Latin America", "https://a.example/3"),
			article("doaj:3", "Open access publishing trends in Latin America", "https://a.example/3"),
		}
		once := d.Dedup(in, nil)
		twice := d.Dedup(once, nil)
		assert.Equal(t, once, twice)
	})

	t.Run("custom overlap threshold", func(t *testing.T) {
		strict := New(Config{TitleOverlapMinLen: 2})
		in := []domain.Article{
			article("s2:1", "Going", "https://a.example/1"),
			article("crossref:2", "Going deeper", "https://a.example/2"),
		}
		out := strict.Dedup(in, nil)
		assert.Len(t, out, 1)
	})
}
