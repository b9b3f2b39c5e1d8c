// Package core provides a client for the CORE v3 works API.
//
// CORE aggregates open access research papers. The hosted API is served from
// more than one endpoint; the client walks a candidate list and moves to the
// next endpoint on rate limiting or server errors. An API key is required.
//
// API Documentation: https://api.core.ac.uk/docs/v3
package core

// SearchResponse represents the works search response.
type SearchResponse struct {
	TotalHits int    `json:"totalHits"`
	Results   []Work `json:"results"`
}

// Work represents a single aggregated work.
type Work struct {
	// ID is CORE's numeric work identifier.
	ID int64 `json:"id"`

	// Title is the work's title.
	Title string `json:"title"`

	// Abstract is the abstract text when harvested.
	Abstract string `json:"abstract"`

	// YearPublished is the publication year.
	YearPublished int `json:"yearPublished"`

	// Publisher names the publishing venue.
	Publisher string `json:"publisher"`

	// DownloadURL links to the harvested full text.
	DownloadURL string `json:"downloadUrl"`

	// CitationCount is present on some records only.
	CitationCount int `json:"citationCount"`

	// Authors is the list of contributing authors.
	Authors []Author `json:"authors"`

	// Links carries display links; type "display" marks the CORE page.
	Links []Link `json:"links"`
}

// Author represents a contributing author.
type Author struct {
	Name string `json:"name"`
}

// Link is a typed link attached to a work.
type Link struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}
