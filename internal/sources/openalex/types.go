// Package openalex provides a client for the OpenAlex works API.
//
// OpenAlex is an open catalog of scholarly works. Abstracts are delivered as
// an inverted index (word -> positions) and must be reconstructed client-side.
//
// API Documentation: https://docs.openalex.org/
package openalex

// SearchResponse represents the top-level works search response.
type SearchResponse struct {
	Meta    Meta   `json:"meta"`
	Results []Work `json:"results"`
}

// Meta contains result-set metadata.
type Meta struct {
	Count   int `json:"count"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// Work represents a single scholarly work.
type Work struct {
	// ID is the OpenAlex work URL, e.g. "https://openalex.org/W2741809807".
	ID string `json:"id"`

	// DisplayName is the work's title.
	DisplayName string `json:"display_name"`

	// PublicationYear is the year of publication.
	PublicationYear int `json:"publication_year"`

	// CitedByCount is the number of citing works.
	CitedByCount int `json:"cited_by_count"`

	// DOI is the DOI resolver URL when registered.
	DOI string `json:"doi"`

	// Authorships lists the contributing authors.
	Authorships []Authorship `json:"authorships"`

	// PrimaryLocation names where the work is hosted.
	PrimaryLocation *Location `json:"primary_location"`

	// AbstractInvertedIndex maps each abstract word to its positions.
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
}

// Authorship wraps one author on a work.
type Authorship struct {
	Author AuthorRef `json:"author"`
}

// AuthorRef identifies an author.
type AuthorRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Location describes a hosting venue.
type Location struct {
	LandingPageURL string     `json:"landing_page_url"`
	Source         *SourceRef `json:"source"`
}

// SourceRef names a hosting journal or repository.
type SourceRef struct {
	DisplayName string `json:"display_name"`
}
