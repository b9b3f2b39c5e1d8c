package scopus

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
	// DefaultBaseURL is the default base URL for the Scopus Search API.
	DefaultBaseURL = "https://api.elsevier.com/content"

	// DefaultRateLimit is the default rate limit in requests per second.
	DefaultRateLimit = 2.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 2

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default count value for searches.
	DefaultMaxResults = 20

	// apiKeyHeader is the header name for the Elsevier API key.
	apiKeyHeader = "X-ELS-APIKey"

	// sourceName is the human-readable name for this source.
	sourceName = "Scopus"
)

// Config contains configuration options for the Scopus client.
type Config struct {
	// BaseURL is the base URL for the API.
	BaseURL string

	// APIKey is the Elsevier API key. Scopus cannot be queried without
	// one; leaving it empty disables the source.
	APIKey string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxResults is the count value to request per search.
	MaxResults int

	// Enabled indicates whether this source is enabled. Even when set,
	// the source stays disabled without an API key.
	Enabled bool
}

// Client implements the sources.Source interface for Scopus.
type Client struct {
	httpClient *sources.HTTPClient
	config     Config
}

var _ sources.Source = (*Client)(nil)

// NewClient creates a new Scopus client with the given configuration.
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
			Timeout:      cfg.Timeout,
			RateLimit:    cfg.RateLimit,
			BurstSize:    cfg.BurstSize,
			APIKey:       cfg.APIKey,
			APIKeyHeader: apiKeyHeader,
		})
	}

	return &Client{
		httpClient: httpClient,
		config:     cfg,
	}
}

// Search queries Scopus for documents matching the given query.
func (c *Client) Search(ctx context.Context, query sources.SearchQuery) ([]domain.Article, error) {
	if c.config.APIKey == "" {
		return nil, fmt.Errorf("scopus: %w: API key not configured", domain.ErrSourceDisabled)
	}

	searchURL, err := c.buildSearchURL(query)
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

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

	return c.convertToArticles(searchResp.SearchResults.Entries, query), nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeScopus
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is currently enabled. Scopus
// requires an API key, so the source is disabled without one.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled && c.config.APIKey != ""
}

// buildSearchURL constructs the Scopus search URL with query parameters.
func (c *Client) buildSearchURL(query sources.SearchQuery) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	searchURL := baseURL.JoinPath("search", "scopus")

	count := query.MaxResults
	if count <= 0 || count > c.config.MaxResults {
		count = c.config.MaxResults
	}

	scopusQuery := fmt.Sprintf("TITLE-ABS-KEY(%s)", query.Text)
	if query.MinYear > 0 {
		scopusQuery = fmt.Sprintf("%s AND PUBYEAR > %d", scopusQuery, query.MinYear-1)
	}

	q := searchURL.Query()
	q.Set("query", scopusQuery)
	q.Set("count", strconv.Itoa(count))
	searchURL.RawQuery = q.Encode()
	return searchURL.String(), nil
}

// convertToArticles converts Scopus entries to domain articles, applying the
// year and citation filters client-side.
func (c *Client) convertToArticles(entries []Entry, query sources.SearchQuery) []domain.Article {
	now := time.Now()
	articles := make([]domain.Article, 0, len(entries))
	for _, entry := range entries {
		year := domain.ResolveYear(parseYear(entry.CoverDate), now)
		if query.MinYear > 0 && year < query.MinYear {
			continue
		}
		citations, _ := strconv.Atoi(entry.CitedByCount)
		if citations < query.MinCitations {
			continue
		}

		title := strings.TrimSpace(entry.Title)
		if title == "" {
			title = domain.TitleNotAvailable
		}
		abstract := strings.TrimSpace(entry.Description)
		if abstract == "" {
			abstract = domain.AbstractNotAvailable + " from " + sourceName
		}

		var authors []string
		if entry.Creator != "" {
			authors = append(authors, entry.Creator)
		}

		articleURL := ""
		for _, link := range entry.Links {
			if link.Ref == "scopus" {
				articleURL = link.Href
				break
			}
		}
		if articleURL == "" && entry.DOI != "" {
			articleURL = "https://doi.org/" + entry.DOI
		}

		articles = append(articles, domain.Article{
			ID:        domain.PrefixID(domain.SourceTypeScopus, nativeID(entry.Identifier)),
			Title:     title,
			Authors:   authors,
			Year:      year,
			Source:    sourceName,
			Citations: citations,
			URL:       articleURL,
			Abstract:  abstract,
			Venue:     entry.PublicationName,
		})
	}
	return articles
}

// nativeID strips the "SCOPUS_ID:" prefix from a dc:identifier value.
func nativeID(identifier string) string {
	return strings.TrimPrefix(identifier, "SCOPUS_ID:")
}

// parseYear extracts the year from a cover date like "2024-01-15".
func parseYear(coverDate string) int {
	if len(coverDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(coverDate[:4])
	if err != nil {
		return 0
	}
	return year
}
