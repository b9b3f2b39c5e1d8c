// Package doaj provides a client for the Directory of Open Access Journals API.
//
// DOAJ indexes peer-reviewed open access journals. Records are wrapped in a
// "bibjson" envelope and carry no citation data.
//
// API Documentation: https://doaj.org/api/docs
package doaj

// SearchResponse represents the top-level DOAJ article search response.
type SearchResponse struct {
	Total    int      `json:"total"`
	Page     int      `json:"page"`
	PageSize int      `json:"pageSize"`
	Results  []Result `json:"results"`
}

// Result wraps a single indexed article.
type Result struct {
	// ID is the DOAJ record identifier.
	ID string `json:"id"`

	// BibJSON carries the actual bibliographic payload.
	BibJSON BibJSON `json:"bibjson"`
}

// BibJSON is DOAJ's bibliographic envelope.
type BibJSON struct {
	Title    string   `json:"title"`
	Year     string   `json:"year"` // string in the wire format
	Abstract string   `json:"abstract"`
	Authors  []Author `json:"author"`
	Journal  Journal  `json:"journal"`
	Links    []Link   `json:"link"`
}

// Author represents a contributing author.
type Author struct {
	Name string `json:"name"`
}

// Journal names the hosting journal.
type Journal struct {
	Title string `json:"title"`
}

// Link is an outbound link attached to the record.
type Link struct {
	Type string `json:"type"` // "fulltext" marks the article URL
	URL  string `json:"url"`
}
