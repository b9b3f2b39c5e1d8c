package core

import (
	"context"
	"encoding/json"
	"errors"
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

// DefaultBaseURLs lists the candidate API endpoints in preference order.
var DefaultBaseURLs = []string{
	"https://api.core.ac.uk/v3",
	"https://core.ac.uk/api-v3",
}

const (
	// DefaultRateLimit is the default rate limit in requests per second.
	DefaultRateLimit = 1.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 1

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default limit value for searches.
	DefaultMaxResults = 20

	// sourceName is the human-readable name for this source.
	sourceName = "CORE"
)

// Config contains configuration options for the CORE client.
type Config struct {
	// BaseURLs lists the candidate API endpoints tried in order.
	// Defaults to DefaultBaseURLs if empty.
	BaseURLs []string

	// APIKey is the CORE API key, sent as a Bearer token. CORE cannot be
	// queried without one; leaving it empty disables the source.
	APIKey string

	// UserAgent is the User-Agent header value for outgoing requests.
	UserAgent string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxResults is the limit value to request per search.
	MaxResults int

	// Enabled indicates whether this source is enabled. Even when set,
	// the source stays disabled without an API key.
	Enabled bool
}

// Client implements the sources.Source interface for CORE.
//
// Unlike the other sources, failures rotate through candidate endpoints
// instead of retrying one URL in place: a 429 or 5xx moves to the next
// endpoint, while a 401 aborts immediately since the key is bad everywhere.
type Client struct {
	httpClient  *http.Client
	rateLimiter *sources.RateLimiter
	config      Config
}

var _ sources.Source = (*Client)(nil)

// NewClient creates a new CORE client with the given configuration.
func NewClient(cfg Config) *Client {
	if len(cfg.BaseURLs) == 0 {
		cfg.BaseURLs = DefaultBaseURLs
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

	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		rateLimiter: sources.NewRateLimiter(cfg.RateLimit, cfg.BurstSize),
		config:      cfg,
	}
}

// Search queries CORE for works matching the given query, walking the
// candidate endpoints until one answers.
func (c *Client) Search(ctx context.Context, query sources.SearchQuery) ([]domain.Article, error) {
	if c.config.APIKey == "" {
		return nil, fmt.Errorf("core: %w: API key not configured", domain.ErrSourceDisabled)
	}

	var lastErr error
	for _, baseURL := range c.config.BaseURLs {
		works, err := c.searchEndpoint(ctx, baseURL, query)
		if err == nil {
			return c.convertToArticles(works, query), nil
		}

		var apiErr *domain.ExternalAPIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			// A rejected key fails on every endpoint.
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("all CORE endpoints failed: %w", lastErr)
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeCORE
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is currently enabled. CORE requires
// an API key, so the source is disabled without one.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled && c.config.APIKey != ""
}

// searchEndpoint issues one search against a single endpoint.
func (c *Client) searchEndpoint(ctx context.Context, baseURL string, query sources.SearchQuery) ([]Work, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	searchURL, err := c.buildSearchURL(baseURL, query)
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
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

	return searchResp.Results, nil
}

// buildSearchURL constructs the search URL for one endpoint.
func (c *Client) buildSearchURL(baseURL string, query sources.SearchQuery) (string, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	searchURL := parsed.JoinPath("search", "works")

	limit := query.MaxResults
	if limit <= 0 || limit > c.config.MaxResults {
		limit = c.config.MaxResults
	}

	text := query.Text
	if query.MinYear > 0 {
		text = fmt.Sprintf("%s AND yearPublished>=%d", text, query.MinYear)
	}

	q := searchURL.Query()
	q.Set("q", text)
	q.Set("limit", strconv.Itoa(limit))
	searchURL.RawQuery = q.Encode()
	return searchURL.String(), nil
}

// convertToArticles converts CORE works to domain articles, applying the
// year and citation filters client-side. Citation counts are present on
// some records only, so MinCitations can drop records CORE never counted.
func (c *Client) convertToArticles(works []Work, query sources.SearchQuery) []domain.Article {
	now := time.Now()
	articles := make([]domain.Article, 0, len(works))
	for _, work := range works {
		year := domain.ResolveYear(work.YearPublished, now)
		if query.MinYear > 0 && year < query.MinYear {
			continue
		}
		if work.CitationCount < query.MinCitations {
			continue
		}

		title := strings.TrimSpace(work.Title)
		if title == "" {
			title = domain.TitleNotAvailable
		}
		abstract := strings.TrimSpace(work.Abstract)
		if abstract == "" {
			abstract = domain.AbstractNotAvailable + " from " + sourceName
		}

		authors := make([]string, 0, len(work.Authors))
		for _, a := range work.Authors {
			if a.Name != "" {
				authors = append(authors, a.Name)
			}
		}

		articleURL := work.DownloadURL
		for _, link := range work.Links {
			if link.Type == "display" {
				articleURL = link.URL
				break
			}
		}

		articles = append(articles, domain.Article{
			ID:        domain.PrefixID(domain.SourceTypeCORE, strconv.FormatInt(work.ID, 10)),
			Title:     title,
			Authors:   authors,
			Year:      year,
			Source:    sourceName,
			Citations: work.CitationCount,
			URL:       articleURL,
			Abstract:  abstract,
			Venue:     work.Publisher,
		})
	}
	return articles
}
