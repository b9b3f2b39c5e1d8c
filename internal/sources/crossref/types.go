// Package crossref provides a client for the Crossref REST API.
//
// Crossref is the DOI registration agency for scholarly publishing and
// exposes bibliographic metadata plus is-referenced-by citation counts.
//
// API Documentation: https://api.crossref.org/swagger-ui/index.html
package crossref

// SearchResponse represents the top-level Crossref works response.
type SearchResponse struct {
	Status  string  `json:"status"`
	Message Message `json:"message"`
}

// Message contains the search result metadata and items.
type Message struct {
	TotalResults int    `json:"total-results"`
	Items        []Work `json:"items"`
}

// Work represents a single registered work in the Crossref response.
type Work struct {
	// DOI is the Digital Object Identifier, e.g. "10.1000/xyz123".
	DOI string `json:"DOI"`

	// Title is a list because Crossref records can carry multiple titles.
	Title []string `json:"title"`

	// Authors is the list of contributing authors.
	Authors []Author `json:"author"`

	// Created holds the deposit timestamp; its first date-part is the year.
	Created DateParts `json:"created"`

	// Published holds the publication date when the publisher deposited one.
	Published DateParts `json:"published"`

	// CitedByCount is the number of works referencing this one.
	CitedByCount int `json:"is-referenced-by-count"`

	// URL is the resolver link for the DOI.
	URL string `json:"URL"`

	// ContainerTitle names the hosting journal or proceedings.
	ContainerTitle []string `json:"container-title"`

	// Abstract is JATS-flavoured XML when present, usually absent.
	Abstract string `json:"abstract"`
}

// Author represents a single contributor on a Crossref work.
type Author struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"` // organisational authors only
}

// DateParts holds Crossref's nested date representation,
// e.g. {"date-parts": [[2023, 5, 14]]}.
type DateParts struct {
	DateParts [][]int `json:"date-parts"`
}

// Year returns the year component, or 0 when absent.
func (d DateParts) Year() int {
	if len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
		return 0
	}
	return d.DateParts[0][0]
}
