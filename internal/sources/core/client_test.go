package core

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

func newTestClient(baseURLs ...string) *Client {
	return NewClient(Config{
		BaseURLs:   baseURLs,
		APIKey:     "test-key",
		Timeout:    5 * time.Second,
		RateLimit:  100,
		BurstSize:  100,
		MaxResults: 25,
		Enabled:    true,
	})
}

func sampleSearchResponse() SearchResponse {
	return SearchResponse{
		TotalHits: 1,
		Results: []Work{
			{
				ID:            42,
				Title:         "Open access aggregation at scale",
				Abstract:      "We describe the CORE aggregation pipeline.",
				YearPublished: 2021,
				Publisher:     "Open University",
				DownloadURL:   "https://core.ac.uk/download/42.pdf",
				CitationCount: 12,
				Authors:       []Author{{Name: "Petr Knoth"}},
				Links:         []Link{{Type: "display", URL: "https://core.ac.uk/works/42"}},
			},
		},
	}
}

func TestClientSearch(t *testing.T) {
	t.Run("converts works from the first healthy endpoint", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/search/works", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(sampleSearchResponse())
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		articles, err := client.Search(context.Background(), sources.SearchQuery{Text: "aggregation"})

		require.NoError(t, err)
		require.Len(t, articles, 1)

		got := articles[0]
		assert.Equal(t, "core:42", got.ID)
		assert.Equal(t, "Open access aggregation at scale", got.Title)
		assert.Equal(t, []string{"Petr Knoth"}, got.Authors)
		assert.Equal(t, 2021, got.Year)
		assert.Equal(t, 12, got.Citations)
		assert.Equal(t, "https://core.ac.uk/works/42", got.URL)
	})

	t.Run("rotates to the next endpoint on server errors", func(t *testing.T) {
		broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer broken.Close()

		healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(sampleSearchResponse())
		}))
		defer healthy.Close()

		client := newTestClient(broken.URL, healthy.URL)
		articles, err := client.Search(context.Background(), sources.SearchQuery{Text: "aggregation"})

		require.NoError(t, err)
		assert.Len(t, articles, 1)
	})

	t.Run("rotates on rate limiting", func(t *testing.T) {
		limited := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer limited.Close()

		healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(sampleSearchResponse())
		}))
		defer healthy.Close()

		client := newTestClient(limited.URL, healthy.URL)
		articles, err := client.Search(context.Background(), sources.SearchQuery{Text: "aggregation"})

		require.NoError(t, err)
		assert.Len(t, articles, 1)
	})

	t.Run("unauthorized aborts without trying other endpoints", func(t *testing.T) {
		unauthorized := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer unauthorized.Close()

		var secondCalled bool
		second := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			secondCalled = true
		}))
		defer second.Close()

		client := newTestClient(unauthorized.URL, second.URL)
		_, err := client.Search(context.Background(), sources.SearchQuery{Text: "aggregation"})

		var apiErr *domain.ExternalAPIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		assert.False(t, secondCalled)
	})

	t.Run("all endpoints failing reports the last error", func(t *testing.T) {
		broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer broken.Close()

		client := newTestClient(broken.URL)
		_, err := client.Search(context.Background(), sources.SearchQuery{Text: "aggregation"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "all CORE endpoints failed")
	})

	t.Run("missing API key reports source disabled", func(t *testing.T) {
		client := NewClient(Config{Enabled: true})
		_, err := client.Search(context.Background(), sources.SearchQuery{Text: "aggregation"})

		require.ErrorIs(t, err, domain.ErrSourceDisabled)
		assert.False(t, client.IsEnabled())
	})
}

func TestSourceIdentity(t *testing.T) {
	client := newTestClient()
	assert.Equal(t, domain.SourceTypeCORE, client.SourceType())
	assert.Equal(t, "CORE", client.Name())
	assert.True(t, client.IsEnabled())
}
