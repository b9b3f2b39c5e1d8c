// Package dedup collapses duplicate articles collected from multiple search
// providers. The same work commonly appears through several providers under
// different native ids, so matching combines exact keys with a fuzzy title
// containment check.
package dedup

import (
	"strings"

	"github.com/scholaragent/research-assistant/internal/domain"
)

// DefaultTitleOverlapMinLen is the minimum title length before the substring
// containment check applies. Short titles produce too many false positives.
const DefaultTitleOverlapMinLen = 20

// Config contains configuration options for the Deduplicator.
type Config struct {
	// TitleOverlapMinLen overrides DefaultTitleOverlapMinLen when positive.
	TitleOverlapMinLen int
}

// Deduplicator removes duplicate and unusable articles from a result set.
// Instances are stateless between calls to Dedup.
type Deduplicator struct {
	titleOverlapMinLen int
}

// New creates a Deduplicator with the given configuration.
func New(cfg Config) *Deduplicator {
	minLen := cfg.TitleOverlapMinLen
	if minLen <= 0 {
		minLen = DefaultTitleOverlapMinLen
	}
	return &Deduplicator{titleOverlapMinLen: minLen}
}

// Dedup returns the articles that survive duplicate and validity filtering,
// preserving input order. Articles whose id appears in excludeIDs are dropped
// first. An article is kept when it has a non-empty title and URL and none of
// its identity keys (id, URL, normalized title) has been seen before. Two
// long titles also match when one contains the other, which catches subtitle
// and punctuation variants across providers.
//
// The operation is idempotent: running it again over its own output removes
// nothing further.
func (d *Deduplicator) Dedup(articles []domain.Article, excludeIDs map[string]struct{}) []domain.Article {
	seenTitles := make(map[string]struct{}, len(articles))
	seenURLs := make(map[string]struct{}, len(articles))
	seenIDs := make(map[string]struct{}, len(articles))

	unique := make([]domain.Article, 0, len(articles))
	for _, article := range articles {
		if _, excluded := excludeIDs[article.ID]; excluded {
			continue
		}

		title := article.NormalizedTitle()
		url := strings.TrimSpace(article.URL)
		if title == "" || url == "" {
			continue
		}

		if _, dup := seenIDs[article.ID]; dup {
			continue
		}
		if _, dup := seenURLs[url]; dup {
			continue
		}
		if d.titleSeen(title, seenTitles) {
			continue
		}

		seenTitles[title] = struct{}{}
		seenURLs[url] = struct{}{}
		seenIDs[article.ID] = struct{}{}
		unique = append(unique, article)
	}
	return unique
}

// titleSeen reports whether title duplicates any previously kept title,
// either exactly or by containment between two sufficiently long titles.
func (d *Deduplicator) titleSeen(title string, seenTitles map[string]struct{}) bool {
	if _, dup := seenTitles[title]; dup {
		return true
	}
	if len(title) <= d.titleOverlapMinLen {
		return false
	}
	for seen := range seenTitles {
		if len(seen) <= d.titleOverlapMinLen {
			continue
		}
		if strings.Contains(seen, title) || strings.Contains(title, seen) {
			return true
		}
	}
	return false
}
