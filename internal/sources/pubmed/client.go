package pubmed

import (
	"context"
	"encoding/json"
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
	// DefaultBaseURL is the default base URL for the E-utilities API.
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// DefaultRateLimit follows NCBI's limit of 3 requests per second
	// without an API key.
	DefaultRateLimit = 3.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 3

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default retmax value for searches.
	DefaultMaxResults = 20

	// articleBaseURL is the public article page prefix used to build
	// result URLs from PMIDs.
	articleBaseURL = "https://pubmed.ncbi.nlm.nih.gov/"

	// sourceName is the human-readable name for this source.
	sourceName = "PubMed"
)

// Config contains configuration options for the PubMed client.
type Config struct {
	// BaseURL is the base URL for the E-utilities API.
	BaseURL string

	// APIKey is the optional NCBI API key. Supplying one raises the rate
	// limit to 10 requests per second.
	APIKey string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxResults is the retmax value to request per search.
	MaxResults int

	// Enabled indicates whether this source is enabled.
	Enabled bool
}

// Client implements the sources.Source interface for PubMed.
type Client struct {
	httpClient *sources.HTTPClient
	config     Config
}

var _ sources.Source = (*Client)(nil)

// NewClient creates a new PubMed client with the given configuration.
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

// Search queries PubMed for articles matching the given query. PubMed
// exposes no citation counts, so MinCitations is ignored and every result
// reports zero citations.
func (c *Client) Search(ctx context.Context, query sources.SearchQuery) ([]domain.Article, error) {
	pmids, err := c.searchIDs(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(pmids) == 0 {
		return nil, nil
	}

	records, err := c.fetchRecords(ctx, pmids)
	if err != nil {
		return nil, err
	}

	return c.convertToArticles(records, query), nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypePubMed
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is currently enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// searchIDs runs the esearch step and returns the matching PMIDs.
func (c *Client) searchIDs(ctx context.Context, query sources.SearchQuery) ([]string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	searchURL := baseURL.JoinPath("esearch.fcgi")

	retmax := query.MaxResults
	if retmax <= 0 || retmax > c.config.MaxResults {
		retmax = c.config.MaxResults
	}

	term := query.Text
	if query.MinYear > 0 {
		term = fmt.Sprintf("%s AND %d:3000[dp]", term, query.MinYear)
	}

	q := searchURL.Query()
	q.Set("db", "pubmed")
	q.Set("term", term)
	q.Set("retmode", "json")
	q.Set("retmax", strconv.Itoa(retmax))
	if c.config.APIKey != "" {
		q.Set("api_key", c.config.APIKey)
	}
	searchURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating esearch request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing esearch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil)
	}

	var searchResp ESearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decoding esearch response: %w", err)
	}

	return searchResp.Result.IDList, nil
}

// fetchRecords runs the efetch step for the given PMIDs.
func (c *Client) fetchRecords(ctx context.Context, pmids []string) ([]PubmedArticle, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	fetchURL := baseURL.JoinPath("efetch.fcgi")

	q := fetchURL.Query()
	q.Set("db", "pubmed")
	q.Set("id", strings.Join(pmids, ","))
	q.Set("retmode", "xml")
	if c.config.APIKey != "" {
		q.Set("api_key", c.config.APIKey)
	}
	fetchURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating efetch request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing efetch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil)
	}

	var set ArticleSet
	if err := xml.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&set); err != nil {
		return nil, fmt.Errorf("decoding efetch response: %w", err)
	}

	return set.Articles, nil
}

// convertToArticles converts efetch records to domain articles, applying the
// year filter client-side.
func (c *Client) convertToArticles(records []PubmedArticle, query sources.SearchQuery) []domain.Article {
	now := time.Now()
	articles := make([]domain.Article, 0, len(records))
	for _, record := range records {
		citation := record.Citation
		elem := citation.Article

		year := domain.ResolveYear(parseYear(elem.Journal.Issue.PubDate), now)
		if query.MinYear > 0 && year < query.MinYear {
			continue
		}

		title := strings.TrimSpace(elem.Title)
		if title == "" {
			title = domain.TitleNotAvailable
		}
		abstract := strings.TrimSpace(strings.Join(elem.Abstract.Texts, " "))
		if abstract == "" {
			abstract = domain.AbstractNotAvailable + " from " + sourceName
		}

		authors := make([]string, 0, len(elem.Authors.Authors))
		for _, a := range elem.Authors.Authors {
			name := strings.TrimSpace(strings.TrimSpace(a.ForeName) + " " + strings.TrimSpace(a.LastName))
			if name == "" {
				name = a.CollectiveName
			}
			if name != "" {
				authors = append(authors, name)
			}
		}

		articles = append(articles, domain.Article{
			ID:       domain.PrefixID(domain.SourceTypePubMed, citation.PMID),
			Title:    title,
			Authors:  authors,
			Year:     year,
			Source:   sourceName,
			URL:      articleBaseURL + citation.PMID + "/",
			Abstract: abstract,
			Venue:    elem.Journal.Title,
		})
	}
	return articles
}

// parseYear extracts the publication year, falling back to the leading year
// of a free-text MedlineDate like "2022 Nov-Dec".
func parseYear(date PubDate) int {
	if year, err := strconv.Atoi(strings.TrimSpace(date.Year)); err == nil {
		return year
	}
	fields := strings.Fields(date.MedlineDate)
	if len(fields) > 0 {
		if year, err := strconv.Atoi(fields[0]); err == nil {
			return year
		}
	}
	return 0
}
