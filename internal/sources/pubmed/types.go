// Package pubmed provides a client for the NCBI E-utilities PubMed API.
//
// Searching PubMed is a two-step flow: esearch returns matching PMIDs as
// JSON, efetch then returns full records as XML. Records carry no citation
// counts.
//
// API Documentation: https://www.ncbi.nlm.nih.gov/books/NBK25501/
package pubmed

import "encoding/xml"

// ESearchResponse represents the JSON response from the esearch endpoint.
type ESearchResponse struct {
	Result ESearchResult `json:"esearchresult"`
}

// ESearchResult contains the matching PubMed identifiers.
type ESearchResult struct {
	Count  string   `json:"count"`
	IDList []string `json:"idlist"`
}

// ArticleSet represents the XML response from the efetch endpoint.
type ArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []PubmedArticle `xml:"PubmedArticle"`
}

// PubmedArticle wraps one fetched record.
type PubmedArticle struct {
	Citation MedlineCitation `xml:"MedlineCitation"`
}

// MedlineCitation carries the citation payload.
type MedlineCitation struct {
	PMID    string         `xml:"PMID"`
	Article ArticleElement `xml:"Article"`
}

// ArticleElement holds the bibliographic fields of a record.
type ArticleElement struct {
	Title    string     `xml:"ArticleTitle"`
	Abstract Abstract   `xml:"Abstract"`
	Authors  AuthorList `xml:"AuthorList"`
	Journal  Journal    `xml:"Journal"`
}

// Abstract may be split into multiple labelled sections.
type Abstract struct {
	Texts []string `xml:"AbstractText"`
}

// AuthorList wraps the author elements.
type AuthorList struct {
	Authors []Author `xml:"Author"`
}

// Author represents one contributing author.
type Author struct {
	LastName       string `xml:"LastName"`
	ForeName       string `xml:"ForeName"`
	CollectiveName string `xml:"CollectiveName"`
}

// Journal names the hosting journal and publication date.
type Journal struct {
	Title string       `xml:"Title"`
	Issue JournalIssue `xml:"JournalIssue"`
}

// JournalIssue carries the publication date.
type JournalIssue struct {
	PubDate PubDate `xml:"PubDate"`
}

// PubDate holds the publication year. MedlineDate is the fallback free-text
// form, e.g. "2022 Nov-Dec".
type PubDate struct {
	Year        string `xml:"Year"`
	MedlineDate string `xml:"MedlineDate"`
}
