// Package scopus provides a client for the Elsevier Scopus Search API.
//
// Scopus requires an API key; without one the source reports itself as
// disabled. Responses use prefixed JSON keys (dc:, prism:) and encode
// numbers as strings.
//
// API Documentation: https://dev.elsevier.com/documentation/ScopusSearchAPI.wadl
package scopus

// SearchResponse represents the top-level Scopus search API response.
type SearchResponse struct {
	SearchResults SearchResults `json:"search-results"`
}

// SearchResults contains the search result metadata and entries.
type SearchResults struct {
	TotalResults string  `json:"opensearch:totalResults"`
	Entries      []Entry `json:"entry"`
}

// Entry represents a single document in the Scopus search results.
type Entry struct {
	// Identifier is the prefixed Scopus id, e.g. "SCOPUS_ID:85012345678".
	Identifier string `json:"dc:identifier"`

	// DOI is the Digital Object Identifier when registered.
	DOI string `json:"prism:doi"`

	// Title is the document title.
	Title string `json:"dc:title"`

	// Creator is the first author in the STANDARD view.
	Creator string `json:"dc:creator"`

	// Description is the abstract, only present in the COMPLETE view.
	Description string `json:"dc:description"`

	// PublicationName is the hosting journal or proceedings.
	PublicationName string `json:"prism:publicationName"`

	// CoverDate is the publication date, e.g. "2024-01-15".
	CoverDate string `json:"prism:coverDate"`

	// CitedByCount is the citation count, encoded as a string.
	CitedByCount string `json:"citedby-count"`

	// Links carries related URLs; ref="scopus" marks the document page.
	Links []Link `json:"link"`
}

// Link is an entry-level link with a ref discriminator.
type Link struct {
	Ref  string `json:"@ref"`
	Href string `json:"@href"`
}
