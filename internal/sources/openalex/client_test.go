package openalex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholaragent/research-assistant/internal/domain"
	"github.com/scholaragent/research-assistant/internal/sources"
)

func newTestClient(serverURL string) *Client {
	cfg := Config{
		BaseURL:    serverURL,
		Mailto:     "test@example.com",
		Timeout:    5 * time.Second,
		RateLimit:  100,
		BurstSize:  100,
		MaxResults: 25,
		Enabled:    true,
	}
	return NewClient(cfg, nil)
}

func sampleSearchResponse() SearchResponse {
	return SearchResponse{
		Meta: Meta{Count: 1},
		Results: []Work{
			{
				ID:              "https://openalex.org/W2741809807",
				DisplayName:     "CRISPR-Cas Systems for Editing Genomes",
				PublicationYear: 2014,
				CitedByCount:    5000,
				DOI:             "https://doi.org/10.1038/nature12373",
				Authorships: []Authorship{
					{Author: AuthorRef{DisplayName: "John Smith"}},
					{Author: AuthorRef{DisplayName: "Jane Doe"}},
				},
				PrimaryLocation: &Location{
					LandingPageURL: "https://www.nature.com/articles/nature12373",
					Source:         &SourceRef{DisplayName: "Nature"},
				},
				AbstractInvertedIndex: map[string][]int{
					"CRISPR":   {0},
					"is":       {1},
					"a":        {2},
					"powerful": {3},
					"tool.":    {4},
				},
			},
		},
	}
}

func TestReconstructAbstract(t *testing.T) {
	t.Run("rebuilds words in positional order", func(t *testing.T) {
		index := map[string][]int{
			"the":   {0, 3},
			"quick": {1},
			"fox":   {2},
			"end":   {4},
		}
		assert.Equal(t, "the quick fox the end", ReconstructAbstract(index))
	})

	t.Run("empty index yields empty string", func(t *testing.T) {
		assert.Equal(t, "", ReconstructAbstract(nil))
		assert.Equal(t, "", ReconstructAbstract(map[string][]int{}))
	})

	t.Run("skips gaps in malformed indexes", func(t *testing.T) {
		index := map[string][]int{
			"alpha": {0},
			"omega": {5},
		}
		assert.Equal(t, "alpha omega", ReconstructAbstract(index))
	})

	t.Run("truncates very long abstracts", func(t *testing.T) {
		index := make(map[string][]int)
		word := strings.Repeat("x", 100)
		for i := 0; i < 100; i++ {
			index[word] = append(index[word], i)
		}
		got := ReconstructAbstract(index)
		assert.True(t, strings.HasSuffix(got, "..."))
		assert.LessOrEqual(t, len([]rune(got)), maxAbstractLen+3)
	})
}

func TestClientSearch(t *testing.T) {
	t.Run("converts works with reconstructed abstracts", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/works", r.URL.Path)
			assert.Equal(t, "crispr", r.URL.Query().Get("search"))
			assert.Equal(t, "test@example.com", r.URL.Query().Get("mailto"))
			json.NewEncoder(w).Encode(sampleSearchResponse())
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		articles, err := client.Search(context.Background(), sources.SearchQuery{Text: "crispr"})

		require.NoError(t, err)
		require.Len(t, articles, 1)

		got := articles[0]
		assert.Equal(t, "openalex:W2741809807", got.ID)
		assert.Equal(t, "CRISPR-Cas Systems for Editing Genomes", got.Title)
		assert.Equal(t, "CRISPR is a powerful tool.", got.Abstract)
		assert.Equal(t, []string{"John Smith", "Jane Doe"}, got.Authors)
		assert.Equal(t, 5000, got.Citations)
		assert.Equal(t, "https://doi.org/10.1038/nature12373", got.URL)
		assert.Equal(t, "Nature", got.Venue)
	})

	t.Run("encodes year and citation filters", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "from_publication_date:2019-01-01,cited_by_count:>49", r.URL.Query().Get("filter"))
			json.NewEncoder(w).Encode(SearchResponse{})
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		_, err := client.Search(context.Background(), sources.SearchQuery{
			Text:         "crispr",
			MinYear:      2019,
			MinCitations: 50,
		})
		require.NoError(t, err)
	})

	t.Run("missing abstract falls back to sentinel", func(t *testing.T) {
		resp := sampleSearchResponse()
		resp.Results[0].AbstractInvertedIndex = nil
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(resp)
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		articles, err := client.Search(context.Background(), sources.SearchQuery{Text: "crispr"})

		require.NoError(t, err)
		require.Len(t, articles, 1)
		assert.Equal(t, domain.AbstractNotAvailable+" from OpenAlex", articles[0].Abstract)
		assert.False(t, articles[0].HasAbstract())
	})

	t.Run("returns external API error on failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		_, err := client.Search(context.Background(), sources.SearchQuery{Text: "crispr"})

		var apiErr *domain.ExternalAPIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	})
}

func TestSourceIdentity(t *testing.T) {
	client := NewClient(Config{Enabled: true}, nil)
	assert.Equal(t, domain.SourceTypeOpenAlex, client.SourceType())
	assert.Equal(t, "OpenAlex", client.Name())
}
