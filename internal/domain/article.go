// Package domain defines the core types shared across the research assistant:
// the normalized Article record produced by every search source, the search
// strategies generated from a research question, and the error taxonomy.
package domain

import (
	"strings"
	"time"
)

// SourceType identifies one external search provider.
type SourceType string

// Known source types. The value doubles as the id namespace prefix so that
// native identifiers from different providers never collide.
const (
	SourceTypeSemanticScholar SourceType = "s2"
	SourceTypeCrossref        SourceType = "crossref"
	SourceTypeDOAJ            SourceType = "doaj"
	SourceTypeArXiv           SourceType = "arxiv"
	SourceTypeOpenAlex        SourceType = "openalex"
	SourceTypePubMed          SourceType = "pubmed"
	SourceTypeScopus          SourceType = "scopus"
	SourceTypeCORE            SourceType = "core"
)

// ParseSourceType maps a provider name to its SourceType. It accepts the
// canonical id prefix plus the spelled-out Semantic Scholar name.
func ParseSourceType(s string) (SourceType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "s2", "semantic_scholar", "semanticscholar":
		return SourceTypeSemanticScholar, true
	case "crossref":
		return SourceTypeCrossref, true
	case "doaj":
		return SourceTypeDOAJ, true
	case "arxiv":
		return SourceTypeArXiv, true
	case "openalex":
		return SourceTypeOpenAlex, true
	case "pubmed":
		return SourceTypePubMed, true
	case "scopus":
		return SourceTypeScopus, true
	case "core":
		return SourceTypeCORE, true
	default:
		return "", false
	}
}

// Sentinel placeholder values used when a provider omits a field. The search
// pipeline relies on these being stable strings, not empty values.
const (
	// TitleNotAvailable is substituted when a provider returns no title.
	TitleNotAvailable = "Title not available"

	// AbstractNotAvailable is the base sentinel for missing abstracts.
	// Adapters may append provider context, e.g. "Abstract not available
	// from Crossref."; use HasAbstract to test for real content.
	AbstractNotAvailable = "Abstract not available"
)

// Article is the canonical normalized record for one academic work.
// Exactly one source adapter constructs each Article; it is never mutated by
// another adapter. The aggregator stamps Topic, SearchStrategy and
// Rationale, and the ranker fills RelevanceScore.
type Article struct {
	// ID is the provider-prefixed identifier, e.g. "crossref:10.1000/xyz"
	// or "s2:649def34f8be52c8b66281af98ae884c09aef38b".
	ID string `json:"id"`

	// Title is the work's title, or TitleNotAvailable.
	Title string `json:"title"`

	// Authors holds author display names in publication order.
	Authors []string `json:"authors"`

	// Year is the publication year. Adapters that cannot resolve a year
	// substitute the current calendar year (see ResolveYear).
	Year int `json:"year"`

	// Source is the human-readable provenance label, with the venue in
	// parentheses where known, e.g. "DOAJ (PLOS ONE)".
	Source string `json:"source"`

	// Citations is the citation count, 0 for providers without citation data.
	Citations int `json:"citations"`

	// URL is the canonical link to the work. May be empty; articles without
	// a URL are dropped by deduplication.
	URL string `json:"url"`

	// Abstract is the abstract text or an AbstractNotAvailable sentinel.
	Abstract string `json:"abstract"`

	// Venue is the journal, conference or repository name, when known.
	Venue string `json:"venue,omitempty"`

	// Topic, SearchStrategy and Rationale identify the generated query that
	// produced this hit. Set by the aggregator, empty for direct searches.
	Topic          string `json:"topic,omitempty"`
	SearchStrategy string `json:"search_strategy,omitempty"`
	Rationale      string `json:"rationale,omitempty"`

	// RelevanceScore is the recency-weighted citation score. Computed only
	// by the ranker; zero until ranking runs.
	RelevanceScore float64 `json:"relevance_score"`
}

// PrefixID builds a provider-namespaced article id from a native identifier.
func PrefixID(source SourceType, nativeID string) string {
	return string(source) + ":" + strings.TrimSpace(nativeID)
}

// ResolveYear returns year if it is plausible, and otherwise falls back to
// the current calendar year. The fallback is deliberately lossy: an article
// with an unknown year always passes a minimum-year filter.
func ResolveYear(year int, now time.Time) int {
	if year > 0 {
		return year
	}
	return now.Year()
}

// HasAbstract reports whether the article carries real abstract text rather
// than a sentinel placeholder.
func (a *Article) HasAbstract() bool {
	abs := strings.TrimSpace(a.Abstract)
	return abs != "" && !strings.HasPrefix(abs, AbstractNotAvailable)
}

// NormalizedTitle returns the lower-cased, whitespace-trimmed title used as
// the dedup identity key.
func (a *Article) NormalizedTitle() string {
	return strings.ToLower(strings.TrimSpace(a.Title))
}

// SavedArticle is an Article accepted into a saved collection, extended with
// the reading-progress fields the front-end manages. These fields never flow
// through the search pipeline.
type SavedArticle struct {
	Article

	Read              bool   `json:"read"`
	ReadDate          string `json:"readDate,omitempty"`
	SpecificObjective string `json:"specificObjective"`
	SelectionDate     string `json:"selectionDate"`
	Summary           string `json:"summary"`
}

// Collection is the persisted set of saved articles.
type Collection struct {
	Articles []SavedArticle `json:"articles"`
}

// IDSet returns the set of saved article ids, for exclusion during searches.
func (c *Collection) IDSet() map[string]struct{} {
	ids := make(map[string]struct{}, len(c.Articles))
	for _, a := range c.Articles {
		if a.ID != "" {
			ids[a.ID] = struct{}{}
		}
	}
	return ids
}

// Contains reports whether the collection already holds the given id.
func (c *Collection) Contains(id string) bool {
	for _, a := range c.Articles {
		if a.ID == id {
			return true
		}
	}
	return false
}
