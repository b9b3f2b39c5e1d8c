package arxiv

import (
	"context"
	"encoding/xml"
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
	// DefaultBaseURL is the default base URL for the arXiv API.
	DefaultBaseURL = "https://export.arxiv.org/api"

	// DefaultRateLimit follows arXiv's guidance of one request every
	// three seconds.
	DefaultRateLimit = 0.33

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 1

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default maximum number of results per search.
	DefaultMaxResults = 20

	// sourceName is the human-readable name for this source.
	sourceName = "arXiv"
)

// Config contains configuration options for the arXiv client.
type Config struct {
	// BaseURL is the base URL for the API.
	BaseURL string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxResults is the maximum number of results to return per search.
	MaxResults int

	// Enabled indicates whether this source is enabled.
	Enabled bool
}

// Client implements the sources.Source interface for arXiv.
type Client struct {
	httpClient *sources.HTTPClient
	config     Config
}

var _ sources.Source = (*Client)(nil)

// NewClient creates a new arXiv client with the given configuration.
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

// Search queries arXiv for preprints matching the given query. arXiv exposes
// no citation counts, so MinCitations is ignored and every result reports
// zero citations.
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

	var feed Feed
	if err := xml.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decoding Atom feed: %w", err)
	}

	return c.convertToArticles(feed.Entries, query), nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeArXiv
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is currently enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// buildSearchURL constructs the Atom query URL.
func (c *Client) buildSearchURL(query sources.SearchQuery) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	searchURL := baseURL.JoinPath("query")

	maxResults := query.MaxResults
	if maxResults <= 0 || maxResults > c.config.MaxResults {
		maxResults = c.config.MaxResults
	}

	q := searchURL.Query()
	q.Set("search_query", "all:"+query.Text)
	q.Set("start", "0")
	q.Set("max_results", strconv.Itoa(maxResults))
	q.Set("sortBy", "relevance")
	searchURL.RawQuery = q.Encode()
	return searchURL.String(), nil
}

// convertToArticles converts Atom entries to domain articles, applying the
// year filter client-side.
func (c *Client) convertToArticles(entries []Entry, query sources.SearchQuery) []domain.Article {
	now := time.Now()
	articles := make([]domain.Article, 0, len(entries))
	for _, entry := range entries {
		year := domain.ResolveYear(parseYear(entry.Published), now)
		if query.MinYear > 0 && year < query.MinYear {
			continue
		}

		// The feed wraps long fields onto indented continuation lines.
		title := collapseWhitespace(entry.Title)
		if title == "" {
			title = domain.TitleNotAvailable
		}
		abstract := collapseWhitespace(entry.Summary)
		if abstract == "" {
			abstract = domain.AbstractNotAvailable + " from " + sourceName
		}

		authors := make([]string, 0, len(entry.Authors))
		for _, a := range entry.Authors {
			if a.Name != "" {
				authors = append(authors, a.Name)
			}
		}

		articles = append(articles, domain.Article{
			ID:       domain.PrefixID(domain.SourceTypeArXiv, abstractID(entry.ID)),
			Title:    title,
			Authors:  authors,
			Year:     year,
			Source:   sourceName,
			URL:      entry.ID,
			Abstract: abstract,
			Venue:    "arXiv preprint",
		})
	}
	return articles
}

// abstractID extracts the bare arXiv identifier from an entry id URL,
// e.g. "http://arxiv.org/abs/2301.12345v1" yields "2301.12345v1".
func abstractID(entryID string) string {
	if idx := strings.LastIndex(entryID, "/abs/"); idx >= 0 {
		return entryID[idx+len("/abs/"):]
	}
	return entryID
}

// parseYear extracts the year from an Atom timestamp like
// "2023-01-15T18:30:00Z". Returns 0 when the timestamp is malformed.
func parseYear(published string) int {
	if len(published) < 4 {
		return 0
	}
	year, err := strconv.Atoi(published[:4])
	if err != nil {
		return 0
	}
	return year
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
