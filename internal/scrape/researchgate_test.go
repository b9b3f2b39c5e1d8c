package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholaragent/research-assistant/internal/domain"
)

const samplePage = `<!DOCTYPE html>
<html>
<body>
  <h1> Deep Learning for Protein Folding </h1>
  <div class="research-detail-header-section__authors">
    <a href="/profile/a">Jane Doe</a>
    <a href="/profile/b">John Smith</a>
  </div>
  <div class="research-detail-middle-section__abstract">
    We apply deep neural networks to the protein folding problem.
  </div>
</body>
</html>`

func TestFetchArticle(t *testing.T) {
	t.Run("extracts title, authors and abstract", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "TestAgent/1.0", r.Header.Get("User-Agent"))
			w.Write([]byte(samplePage))
		}))
		defer server.Close()

		scraper := New(Config{UserAgent: "TestAgent/1.0", Timeout: 5 * time.Second})
		pageURL := server.URL + "/publication/12345_deep-learning-protein-folding"
		article, err := scraper.FetchArticle(context.Background(), pageURL)

		require.NoError(t, err)
		assert.Equal(t, "rg:12345_deep-learning-protein-folding", article.ID)
		assert.Equal(t, "Deep Learning for Protein Folding", article.Title)
		assert.Equal(t, []string{"Jane Doe", "John Smith"}, article.Authors)
		assert.Contains(t, article.Abstract, "protein folding problem")
		assert.Equal(t, "ResearchGate", article.Source)
		assert.Equal(t, pageURL, article.URL)
		assert.Equal(t, time.Now().Year(), article.Year)
	})

	t.Run("page without a title is not found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html><body><p>nothing here</p></body></html>"))
		}))
		defer server.Close()

		scraper := New(Config{})
		_, err := scraper.FetchArticle(context.Background(), server.URL+"/publication/void")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("http errors surface as external API errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		scraper := New(Config{})
		_, err := scraper.FetchArticle(context.Background(), server.URL+"/publication/blocked")

		var apiErr *domain.ExternalAPIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	})
}

func TestPageSlug(t *testing.T) {
	assert.Equal(t, "12345_title", pageSlug("https://www.researchgate.net/publication/12345_title"))
	assert.Equal(t, "12345_title", pageSlug("https://www.researchgate.net/publication/12345_title/"))
	assert.Equal(t, "bare", pageSlug("bare"))
}
