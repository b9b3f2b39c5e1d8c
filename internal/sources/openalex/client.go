package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/scholaragent/research-assistant/internal/domain"
	"github.com/scholaragent/research-assistant/internal/sources"
)

const (
	// DefaultBaseURL is the default base URL for the OpenAlex API.
	DefaultBaseURL = "https://api.openalex.org"

	// DefaultRateLimit is the default rate limit in requests per second.
	DefaultRateLimit = 5.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 5

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default per-page value for searches.
	DefaultMaxResults = 20

	// maxAbstractLen caps reconstructed abstracts. OpenAlex inverted
	// indexes occasionally cover entire full texts.
	maxAbstractLen = 2500

	// sourceName is the human-readable name for this source.
	sourceName = "OpenAlex"
)

// Config contains configuration options for the OpenAlex client.
type Config struct {
	// BaseURL is the base URL for the API.
	BaseURL string

	// Mailto is the contact address sent with every request. Supplying one
	// routes requests through OpenAlex's polite pool.
	Mailto string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxResults is the per-page value to request per search.
	MaxResults int

	// Enabled indicates whether this source is enabled.
	Enabled bool
}

// Client implements the sources.Source interface for OpenAlex.
type Client struct {
	httpClient *sources.HTTPClient
	config     Config
}

var _ sources.Source = (*Client)(nil)

// NewClient creates a new OpenAlex client with the given configuration.
// If httpClient is nil, a new one is created with the configuration settings.
func NewClient(cfg Config, httpClient *sources.HTTPClient) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.BurstSize == 0 {
		cfg.BurstSize = DefaultBurstSize
	}
	if cfg.MaxResults == 0 {
		cfg.MaxResults = DefaultMaxResults
	}

	if httpClient == nil {
		httpClient = sources.NewHTTPClient(sources.HTTPClientConfig{
			Timeout:   cfg.Timeout,
			RateLimit: cfg.RateLimit,
			BurstSize: cfg.BurstSize,
		})
	}

	return &Client{
		httpClient: httpClient,
		config:     cfg,
	}
}

// Search queries OpenAlex for works matching the given query.
func (c *Client) Search(ctx context.Context, query sources.SearchQuery) ([]domain.Article, error) {
	searchURL, err := c.buildSearchURL(query)
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil)
	}

	var searchResp SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return c.convertToArticles(searchResp.Results, query), nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeOpenAlex
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is currently enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// buildSearchURL constructs the works URL with search and filter parameters.
func (c *Client) buildSearchURL(query sources.SearchQuery) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	searchURL := baseURL.JoinPath("works")

	perPage := query.MaxResults
	if perPage <= 0 || perPage > c.config.MaxResults {
		perPage = c.config.MaxResults
	}

	q := searchURL.Query()
	q.Set("search", query.Text)
	q.Set("per-page", strconv.Itoa(perPage))

	var filters []string
	if query.MinYear > 0 {
		filters = append(filters, fmt.Sprintf("from_publication_date:%d-01-01", query.MinYear))
	}
	if query.MinCitations > 0 {
		filters = append(filters, fmt.Sprintf("cited_by_count:>%d", query.MinCitations-1))
	}
	if len(filters) > 0 {
		q.Set("filter", strings.Join(filters, ","))
	}
	if c.config.Mailto != "" {
		q.Set("mailto", c.config.Mailto)
	}

	searchURL.RawQuery = q.Encode()
	return searchURL.String(), nil
}

// convertToArticles converts OpenAlex works to domain articles, applying
// the year and citation filters client-side.
func (c *Client) convertToArticles(works []Work, query sources.SearchQuery) []domain.Article {
	now := time.Now()
	articles := make([]domain.Article, 0, len(works))
	for _, work := range works {
		year := domain.ResolveYear(work.PublicationYear, now)
		if query.MinYear > 0 && year < query.MinYear {
			continue
		}
		if work.CitedByCount < query.MinCitations {
			continue
		}

		title := strings.TrimSpace(work.DisplayName)
		if title == "" {
			title = domain.TitleNotAvailable
		}
		abstract := ReconstructAbstract(work.AbstractInvertedIndex)
		if abstract == "" {
			abstract = domain.AbstractNotAvailable + " from " + sourceName
		}

		authors := make([]string, 0, len(work.Authorships))
		for _, a := range work.Authorships {
			if a.Author.DisplayName != "" {
				authors = append(authors, a.Author.DisplayName)
			}
		}

		articleURL := work.DOI
		venue := ""
		if work.PrimaryLocation != nil {
			if articleURL == "" {
				articleURL = work.PrimaryLocation.LandingPageURL
			}
			if work.PrimaryLocation.Source != nil {
				venue = work.PrimaryLocation.Source.DisplayName
			}
		}
		if articleURL == "" {
			articleURL = work.ID
		}

		articles = append(articles, domain.Article{
			ID:        domain.PrefixID(domain.SourceTypeOpenAlex, workID(work.ID)),
			Title:     title,
			Authors:   authors,
			Year:      year,
			Source:    sourceName,
			Citations: work.CitedByCount,
			URL:       articleURL,
			Abstract:  abstract,
			Venue:     venue,
		})
	}
	return articles
}

// ReconstructAbstract rebuilds abstract text from OpenAlex's inverted index
// by placing each word at its recorded positions. The result is truncated to
// maxAbstractLen runes with an ellipsis marker.
func ReconstructAbstract(index map[string][]int) string {
	if len(index) == 0 {
		return ""
	}

	maxPos := -1
	for _, positions := range index {
		for _, pos := range positions {
			if pos > maxPos {
				maxPos = pos
			}
		}
	}
	if maxPos < 0 {
		return ""
	}

	words := make([]string, maxPos+1)
	for word, positions := range index {
		for _, pos := range positions {
			if pos >= 0 && pos <= maxPos {
				words[pos] = word
			}
		}
	}

	// Drop gaps left by malformed indexes.
	compact := words[:0]
	for _, w := range words {
		if w != "" {
			compact = append(compact, w)
		}
	}

	text := strings.TrimSpace(strings.Join(compact, " "))
	runes := []rune(text)
	if len(runes) > maxAbstractLen {
		text = string(runes[:maxAbstractLen]) + "..."
	}
	return text
}

// workID strips the OpenAlex URL prefix from a work id,
// e.g. "https://openalex.org/W2741809807" yields "W2741809807".
func workID(id string) string {
	if idx := strings.LastIndex(id, "/"); idx >= 0 {
		return id[idx+1:]
	}
	return id
}
