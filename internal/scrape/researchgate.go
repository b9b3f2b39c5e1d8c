// Package scrape extracts article metadata from publication pages that have
// no API, currently ResearchGate. Scraping is a best-effort fallback for
// importing a specific article the user already found by URL.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/scholaragent/research-assistant/internal/domain"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 20 * time.Second

	// sourceName is the Source label for scraped articles.
	sourceName = "ResearchGate"

	// idPrefix namespaces scraped ids next to the API-backed sources.
	idPrefix = "rg"
)

// Config contains configuration options for the Scraper.
type Config struct {
	// UserAgent is the User-Agent header sent with page requests.
	UserAgent string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration
}

// Scraper fetches and parses ResearchGate publication pages.
type Scraper struct {
	httpClient *http.Client
	userAgent  string
}

// New creates a Scraper with the given configuration.
func New(cfg Config) *Scraper {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Scraper{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		userAgent:  cfg.UserAgent,
	}
}

// FetchArticle downloads the page at pageURL and extracts an Article from
// it. The article id is derived from the URL's trailing path segment so that
// importing the same page twice dedups naturally.
func (s *Scraper) FetchArticle(ctx context.Context, pageURL string) (*domain.Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}

	article := s.parse(doc, pageURL)
	if article.Title == domain.TitleNotAvailable {
		return nil, domain.NewNotFoundError("article", pageURL)
	}
	return article, nil
}

// parse extracts the article fields from the parsed document.
func (s *Scraper) parse(doc *goquery.Document, pageURL string) *domain.Article {
	title := strings.TrimSpace(doc.Find("h1").First().Text())
	if title == "" {
		title = domain.TitleNotAvailable
	}

	var authors []string
	doc.Find("div.research-detail-header-section__authors a").Each(func(_ int, sel *goquery.Selection) {
		name := strings.TrimSpace(sel.Text())
		if name != "" {
			authors = append(authors, name)
		}
	})

	abstract := strings.TrimSpace(doc.Find("div.research-detail-middle-section__abstract").First().Text())
	if abstract == "" {
		abstract = domain.AbstractNotAvailable + " from " + sourceName
	}

	return &domain.Article{
		ID:       idPrefix + ":" + pageSlug(pageURL),
		Title:    title,
		Authors:  authors,
		Year:     domain.ResolveYear(0, time.Now()),
		Source:   sourceName,
		URL:      pageURL,
		Abstract: abstract,
	}
}

// pageSlug returns the last non-empty path segment of the page URL.
func pageSlug(pageURL string) string {
	trimmed := strings.TrimRight(pageURL, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}
