// Package sources provides the interface and shared plumbing for academic
// search source clients.
//
// Each external provider (Semantic Scholar, Crossref, DOAJ, arXiv, OpenAlex,
// PubMed, Scopus, CORE) implements the Source interface in its own
// subpackage, mapping its idiosyncratic response schema onto the common
// domain.Article record. Sources are leaves: they never depend on each other,
// and the aggregator fans queries out across them concurrently.
package sources

import (
	"context"

	"github.com/scholaragent/research-assistant/internal/domain"
)

// SearchQuery carries a single query plus the filter thresholds every source
// applies while normalizing results.
type SearchQuery struct {
	// Text is the free-text search string (required).
	Text string

	// MinYear excludes items whose resolved publication year is strictly
	// below this value. Items whose year cannot be resolved default to the
	// current year and therefore always pass.
	MinYear int

	// MinCitations excludes items with fewer citations. Sources that do not
	// track citations treat this as a no-op.
	MinCitations int

	// MaxResults caps the number of items requested from the provider.
	// Zero means the source's configured default.
	MaxResults int
}

// Source is implemented by every provider client.
//
// Search returns the provider's normalized, filtered articles. Clients
// return errors for transport and payload failures in the usual way; the
// aggregator is the boundary that converts any error into an empty
// contribution, so no source failure ever reaches the API caller.
type Source interface {
	// Search queries the provider. Implementations must respect context
	// cancellation and apply their own rate limiting.
	Search(ctx context.Context, query SearchQuery) ([]domain.Article, error)

	// SourceType returns the provider's type identifier, which also
	// namespaces its article ids.
	SourceType() domain.SourceType

	// Name returns the human-readable provider name for logs and metrics.
	Name() string

	// IsEnabled reports whether this source can be searched. A source is
	// disabled by configuration or by a missing required API key.
	IsEnabled() bool
}
