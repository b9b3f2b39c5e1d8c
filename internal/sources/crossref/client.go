package crossref

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
	// DefaultBaseURL is the default base URL for the Crossref REST API.
	DefaultBaseURL = "https://api.crossref.org"

	// DefaultRateLimit keeps us inside Crossref's polite-pool guidance.
	DefaultRateLimit = 2.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 2

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default maximum number of rows per search.
	DefaultMaxResults = 20

	// sourceName is the human-readable name for this source.
	sourceName = "Crossref"
)

// Config contains configuration options for the Crossref client.
type Config struct {
	// BaseURL is the base URL for the API.
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// Mailto is the contact address sent with every request. Supplying one
	// routes requests through Crossref's polite pool.
	Mailto string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxResults is the maximum number of rows to request per search.
	MaxResults int

	// Enabled indicates whether this source is enabled.
	Enabled bool
}

// Client implements the sources.Source interface for Crossref.
type Client struct {
	httpClient *sources.HTTPClient
	config     Config
}

var _ sources.Source = (*Client)(nil)

// NewClient creates a new Crossref client with the given configuration.
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

// Search queries Crossref for works matching the given query.
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

	return c.convertToArticles(searchResp.Message.Items, query), nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeCrossref
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is currently enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// buildSearchURL constructs the works API URL with query parameters.
func (c *Client) buildSearchURL(query sources.SearchQuery) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	searchURL := baseURL.JoinPath("works")

	q := searchURL.Query()
	q.Set("query.bibliographic", query.Text)

	rows := query.MaxResults
	if rows <= 0 || rows > c.config.MaxResults {
		rows = c.config.MaxResults
	}
	q.Set("rows", strconv.Itoa(rows))

	if query.MinYear > 0 {
		q.Set("filter", fmt.Sprintf("from-pub-date:%d-01-01", query.MinYear))
	}
	if c.config.Mailto != "" {
		q.Set("mailto", c.config.Mailto)
	}

	searchURL.RawQuery = q.Encode()
	return searchURL.String(), nil
}

// convertToArticles converts Crossref works to domain articles, applying
// the year and citation filters client-side.
func (c *Client) convertToArticles(works []Work, query sources.SearchQuery) []domain.Article {
	now := time.Now()
	articles := make([]domain.Article, 0, len(works))
	for _, work := range works {
		rawYear := work.Published.Year()
		if rawYear == 0 {
			rawYear = work.Created.Year()
		}
		year := domain.ResolveYear(rawYear, now)
		if query.MinYear > 0 && year < query.MinYear {
			continue
		}
		if work.CitedByCount < query.MinCitations {
			continue
		}

		title := domain.TitleNotAvailable
		if len(work.Title) > 0 && strings.TrimSpace(work.Title[0]) != "" {
			title = strings.TrimSpace(work.Title[0])
		}
		abstract := strings.TrimSpace(work.Abstract)
		if abstract == "" {
			abstract = domain.AbstractNotAvailable + " from " + sourceName
		}

		authors := make([]string, 0, len(work.Authors))
		for _, a := range work.Authors {
			name := strings.TrimSpace(strings.TrimSpace(a.Given) + " " + strings.TrimSpace(a.Family))
			if name == "" {
				name = a.Name
			}
			if name != "" {
				authors = append(authors, name)
			}
		}

		venue := ""
		if len(work.ContainerTitle) > 0 {
			venue = work.ContainerTitle[0]
		}

		articles = append(articles, domain.Article{
			ID:        domain.PrefixID(domain.SourceTypeCrossref, work.DOI),
			Title:     title,
			Authors:   authors,
			Year:      year,
			Source:    sourceName,
			Citations: work.CitedByCount,
			URL:       work.URL,
			Abstract:  abstract,
			Venue:     venue,
		})
	}
	return articles
}
