package doaj

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
	// DefaultBaseURL is the default base URL for the DOAJ API.
	DefaultBaseURL = "https://doaj.org/api"

	// DefaultRateLimit is the default rate limit in requests per second.
	DefaultRateLimit = 2.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 2

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default page size per search.
	DefaultMaxResults = 20

	// sourceName is the human-readable name for this source.
	sourceName = "DOAJ"
)

// Config contains configuration options for the DOAJ client.
type Config struct {
	// BaseURL is the base URL for the API.
	BaseURL string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxResults is the page size to request per search.
	MaxResults int

	// Enabled indicates whether this source is enabled.
	Enabled bool
}

// Client implements the sources.Source interface for DOAJ.
type Client struct {
	httpClient *sources.HTTPClient
	config     Config
}

var _ sources.Source = (*Client)(nil)

// NewClient creates a new DOAJ client with the given configuration.
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

// Search queries DOAJ for open access articles matching the given query.
// DOAJ exposes no citation counts, so MinCitations is ignored and every
// result reports zero citations.
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
	return domain.SourceTypeDOAJ
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is currently enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// buildSearchURL constructs the article search URL. The query text travels
// in the path, so it must be path-escaped.
func (c *Client) buildSearchURL(query sources.SearchQuery) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	searchURL := baseURL.JoinPath("search", "articles", query.Text)

	pageSize := query.MaxResults
	if pageSize <= 0 || pageSize > c.config.MaxResults {
		pageSize = c.config.MaxResults
	}

	q := searchURL.Query()
	q.Set("pageSize", strconv.Itoa(pageSize))
	searchURL.RawQuery = q.Encode()
	return searchURL.String(), nil
}

// convertToArticles converts DOAJ results to domain articles, applying the
// year filter client-side.
func (c *Client) convertToArticles(results []Result, query sources.SearchQuery) []domain.Article {
	now := time.Now()
	articles := make([]domain.Article, 0, len(results))
	for _, result := range results {
		bib := result.BibJSON

		rawYear, _ := strconv.Atoi(strings.TrimSpace(bib.Year))
		year := domain.ResolveYear(rawYear, now)
		if query.MinYear > 0 && year < query.MinYear {
			continue
		}

		title := strings.TrimSpace(bib.Title)
		if title == "" {
			title = domain.TitleNotAvailable
		}
		abstract := strings.TrimSpace(bib.Abstract)
		if abstract == "" {
			abstract = domain.AbstractNotAvailable + " from " + sourceName
		}

		authors := make([]string, 0, len(bib.Authors))
		for _, a := range bib.Authors {
			if a.Name != "" {
				authors = append(authors, a.Name)
			}
		}

		articleURL := ""
		for _, link := range bib.Links {
			if link.Type == "fulltext" {
				articleURL = link.URL
				break
			}
		}
		if articleURL == "" && len(bib.Links) > 0 {
			articleURL = bib.Links[0].URL
		}

		articles = append(articles, domain.Article{
			ID:       domain.PrefixID(domain.SourceTypeDOAJ, result.ID),
			Title:    title,
			Authors:  authors,
			Year:     year,
			Source:   sourceName,
			URL:      articleURL,
			Abstract: abstract,
			Venue:    bib.Journal.Title,
		})
	}
	return articles
}
