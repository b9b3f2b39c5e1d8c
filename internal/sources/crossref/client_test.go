package crossref

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholaragent/research-assistant/internal/domain"
	"github.com/scholaragent/research-assistant/internal/sources"
)

func newTestClient(serverURL string) *Client {
	return NewClient(Config{
		BaseURL:    serverURL,
		Mailto:     "test@example.com",
		Timeout:    5 * time.Second,
		RateLimit:  100,
		BurstSize:  100,
		MaxResults: 25,
		Enabled:    true,
	}, nil)
}

func sampleSearchResponse() SearchResponse {
	return SearchResponse{
		Status: "ok",
		Message: Message{
			TotalResults: 2,
			Items: []Work{
				{
					DOI:   "10.1038/nature12373",
					Title: []string{"CRISPR-Cas Systems"},
					Authors: []Author{
						{Given: "John", Family: "Smith"},
						{Name: "The CRISPR Consortium"},
					},
					Published:      DateParts{DateParts: [][]int{{2014, 6, 5}}},
					CitedByCount:   5000,
					URL:            "https://doi.org/10.1038/nature12373",
					ContainerTitle: []string{"Nature"},
				},
				{
					DOI:          "10.9999/untitled",
					Created:      DateParts{DateParts: [][]int{{2020}}},
					CitedByCount: 1,
					URL:          "https://doi.org/10.9999/untitled",
				},
			},
		},
	}
}

func TestDatePartsYear(t *testing.T) {
	assert.Equal(t, 2014, DateParts{DateParts: [][]int{{2014, 6, 5}}}.Year())
	assert.Equal(t, 0, DateParts{}.Year())
	assert.Equal(t, 0, DateParts{DateParts: [][]int{{}}}.Year())
}

func TestClientSearch(t *testing.T) {
	t.Run("converts works with prefixed DOIs", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/works", r.URL.Path)
			assert.Equal(t, "crispr", r.URL.Query().Get("query.bibliographic"))
			assert.Equal(t, "test@example.com", r.URL.Query().Get("mailto"))
			json.NewEncoder(w).Encode(sampleSearchResponse())
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		articles, err := client.Search(context.Background(), sources.SearchQuery{Text: "crispr"})

		require.NoError(t, err)
		require.Len(t, articles, 2)

		got := articles[0]
		assert.Equal(t, "crossref:10.1038/nature12373", got.ID)
		assert.Equal(t, "CRISPR-Cas Systems", got.Title)
		assert.Equal(t, []string{"John Smith", "The CRISPR Consortium"}, got.Authors)
		assert.Equal(t, 2014, got.Year)
		assert.Equal(t, 5000, got.Citations)
		assert.Equal(t, "Nature", got.Venue)

		// Created year is the fallback when no published date exists,
		// missing fields use sentinels.
		assert.Equal(t, 2020, articles[1].Year)
		assert.Equal(t, domain.TitleNotAvailable, articles[1].Title)
		assert.Equal(t, domain.AbstractNotAvailable+" from Crossref", articles[1].Abstract)
	})

	t.Run("encodes year filter and enforces citations client-side", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "from-pub-date:2015-01-01", r.URL.Query().Get("filter"))
			json.NewEncoder(w).Encode(sampleSearchResponse())
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		articles, err := client.Search(context.Background(), sources.SearchQuery{
			Text:         "crispr",
			MinYear:      2015,
			MinCitations: 100,
		})

		require.NoError(t, err)
		assert.Empty(t, articles) // 2014 fails the year floor, 2020 fails citations
	})

	t.Run("returns external API error on failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		_, err := client.Search(context.Background(), sources.SearchQuery{Text: "crispr"})

		var apiErr *domain.ExternalAPIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	})
}

func TestSourceIdentity(t *testing.T) {
	client := NewClient(Config{Enabled: true}, nil)
	assert.Equal(t, domain.SourceTypeCrossref, client.SourceType())
	assert.Equal(t, "Crossref", client.Name())
}
