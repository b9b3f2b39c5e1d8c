package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/scholaragent/research-assistant/internal/aggregator"
	"github.com/scholaragent/research-assistant/internal/bibtex"
	"github.com/scholaragent/research-assistant/internal/docfmt"
	"github.com/scholaragent/research-assistant/internal/domain"
	"github.com/scholaragent/research-assistant/internal/llm"
	"github.com/scholaragent/research-assistant/internal/storage"
)

// Request body limits.
const (
	maxRequestBodySize = 1 << 20  // 1 MB limit for JSON request bodies
	maxImportFileSize  = 10 << 20 // 10 MB limit for uploaded BibTeX files
)

var validate = validator.New()

// Search type values accepted by the search endpoint.
const (
	searchTypeDirect = "direct"
	searchTypeAI     = "ai"
)

// searchRequest is the JSON request body for an aggregated search.
type searchRequest struct {
	QueryText           string   `json:"query_text" validate:"required"`
	SearchType          string   `json:"search_type" validate:"omitempty,oneof=direct ai"`
	MinYear             int      `json:"min_year" validate:"omitempty,gte=0"`
	MinCitations        int      `json:"min_citations" validate:"omitempty,gte=0"`
	Sources             []string `json:"sources"`
	MaxResultsPerSource int      `json:"max_results_per_source" validate:"omitempty,gte=0,lte=100"`
}

// articleByURLRequest is the JSON request body for scraping a single article.
type articleByURLRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// generateCollectionRequest is the JSON request body for saving a batch of
// search results into the collection.
type generateCollectionRequest struct {
	Articles []domain.Article `json:"articles" validate:"required,min=1"`
}

type importResponse struct {
	Articles []domain.Article `json:"articles"`
	Count    int              `json:"count"`
}

type articleByURLResponse struct {
	Article   domain.SavedArticle `json:"article"`
	SheetPath string              `json:"sheet_path,omitempty"`
}

type generateCollectionResponse struct {
	SavedCount   int      `json:"saved_count"`
	SkippedCount int      `json:"skipped_count"`
	SheetPaths   []string `json:"sheet_paths,omitempty"`
}

type frameworkGroupResponse struct {
	Objective  string   `json:"objective"`
	References []string `json:"references"`
}

// handleSearch handles POST /api/v1/search. It expands the query into search
// strategies (for AI searches), fans out across the enabled sources, and
// returns the deduplicated, ranked report.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req searchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.QueryText = strings.TrimSpace(req.QueryText)
	if req.QueryText == "" {
		writeError(w, http.StatusBadRequest, "query_text is required")
		return
	}

	sourceTypes := make([]domain.SourceType, 0, len(req.Sources))
	for _, name := range req.Sources {
		st, ok := domain.ParseSourceType(name)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported source: %s", name))
			return
		}
		sourceTypes = append(sourceTypes, st)
	}

	strategies := []domain.SearchStrategy{domain.DirectStrategy(req.QueryText)}
	if req.SearchType == searchTypeAI && s.cfg.LLMEnabled {
		strategies = s.expander.ExpandStrategies(ctx, req.QueryText, s.cfg.StrategyCount)
	}

	report, err := s.aggregator.Search(ctx, aggregator.Request{
		Strategies:          strategies,
		Sources:             sourceTypes,
		MinYear:             req.MinYear,
		MinCitations:        req.MinCitations,
		MaxResultsPerSource: req.MaxResultsPerSource,
		ExcludeIDs:          s.savedIDs(ctx),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// handleImport handles POST /api/v1/import. It accepts a multipart BibTeX
// file upload and returns the normalized, deduplicated articles without
// persisting them.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportFileSize); err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart form with a bibtex file")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	articles, err := bibtex.Import(io.LimitReader(file, maxImportFileSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse bibtex file")
		return
	}

	articles = s.deduplicator.Dedup(articles, s.savedIDs(r.Context()))

	writeJSON(w, http.StatusOK, importResponse{
		Articles: articles,
		Count:    len(articles),
	})
}

// handleArticleByURL handles POST /api/v1/articles/by-url. It scrapes the
// article page, generates a summary, uploads a review sheet, and appends the
// article to the saved collection.
func (s *Server) handleArticleByURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req articleByURLRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	article, err := s.scraper.FetchArticle(ctx, req.URL)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	collection, err := s.store.LoadCollection(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if collection.Contains(article.ID) {
		writeError(w, http.StatusConflict, "article already in collection")
		return
	}

	now := time.Now()
	saved := domain.SavedArticle{
		Article:       *article,
		SelectionDate: now.Format("2006-01-02"),
		Summary:       s.summarize(ctx, *article),
	}

	sheetPath := s.uploadArticleSheet(ctx, saved, now)

	collection.Articles = append(collection.Articles, saved)
	if err := s.store.SaveCollection(ctx, collection); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, articleByURLResponse{
		Article:   saved,
		SheetPath: sheetPath,
	})
}

// handleGenerateCollection handles POST /api/v1/collections/generate. Each
// article not yet in the collection is summarized, gets its own review sheet
// uploaded, and is appended to the saved collection.
func (s *Server) handleGenerateCollection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req generateCollectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	collection, err := s.store.LoadCollection(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var fresh []domain.Article
	skipped := 0
	for _, a := range req.Articles {
		if a.ID == "" || collection.Contains(a.ID) {
			skipped++
			continue
		}
		fresh = append(fresh, a)
	}

	now := time.Now()
	saved := make([]domain.SavedArticle, len(fresh))
	sheetPaths := make([]string, len(fresh))

	// Summaries are the slow part; run them with bounded concurrency.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.SummaryWorkers)
	for i, article := range fresh {
		g.Go(func() error {
			saved[i] = domain.SavedArticle{
				Article:       article,
				SelectionDate: now.Format("2006-01-02"),
				Summary:       s.summarize(gctx, article),
			}
			sheetPaths[i] = s.uploadArticleSheet(gctx, saved[i], now)
			return nil
		})
	}
	_ = g.Wait()

	collection.Articles = append(collection.Articles, saved...)
	if err := s.store.SaveCollection(ctx, collection); err != nil {
		writeDomainError(w, err)
		return
	}

	resp := generateCollectionResponse{
		SavedCount:   len(saved),
		SkippedCount: skipped,
	}
	for _, p := range sheetPaths {
		if p != "" {
			resp.SheetPaths = append(resp.SheetPaths, p)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGetCollection handles GET /api/v1/collections.
func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	collection, err := s.store.LoadCollection(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, collection)
}

// handlePutCollection handles PUT /api/v1/collections, replacing the stored
// collection wholesale. The front-end owns reading-progress edits.
func (s *Server) handlePutCollection(w http.ResponseWriter, r *http.Request) {
	var collection domain.Collection
	if !decodeJSON(w, r, &collection) {
		return
	}

	if err := s.store.SaveCollection(r.Context(), &collection); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": len(collection.Articles)})
}

// handleFramework handles GET /api/v1/framework. It groups the read articles
// by specific objective and renders ABNT references per group.
func (s *Server) handleFramework(w http.ResponseWriter, r *http.Request) {
	collection, err := s.store.LoadCollection(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	read := &domain.Collection{}
	for _, saved := range collection.Articles {
		if saved.Read {
			read.Articles = append(read.Articles, saved)
		}
	}

	now := time.Now()
	groups := docfmt.Framework(read)
	resp := make([]frameworkGroupResponse, 0, len(groups))
	for _, g := range groups {
		refs := make([]string, 0, len(g.Articles))
		for _, saved := range g.Articles {
			refs = append(refs, docfmt.ABNTReference(saved.Article, now))
		}
		resp = append(resp, frameworkGroupResponse{
			Objective:  g.Objective,
			References: refs,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// summarize produces an article summary, or the unavailable placeholder when
// the LLM is disabled.
func (s *Server) summarize(ctx context.Context, article domain.Article) string {
	if !s.cfg.LLMEnabled {
		return llm.SummaryNotAvailable
	}
	return s.expander.Summarize(ctx, article)
}

// uploadArticleSheet renders and uploads a single-article review sheet.
// Failures are logged and tolerated; sheet uploads never block saving.
func (s *Server) uploadArticleSheet(ctx context.Context, saved domain.SavedArticle, now time.Time) string {
	sheet := docfmt.ReviewSheet(&domain.Collection{Articles: []domain.SavedArticle{saved}}, now)
	name := storage.SanitizeFileName(saved.Title) + ".md"

	path, err := s.store.UploadSheet(ctx, name, []byte(sheet))
	if err != nil {
		s.logger.Warn().Err(err).Str("article_id", saved.ID).Msg("review sheet upload failed")
		return ""
	}
	return path
}

// savedIDs returns the saved collection's id set for search exclusion. A
// missing or disabled store yields an empty set; searching must keep working
// without storage.
func (s *Server) savedIDs(ctx context.Context) map[string]struct{} {
	collection, err := s.store.LoadCollection(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrStorageDisabled) {
			s.logger.Warn().Err(err).Msg("loading saved collection for exclusion failed")
		}
		return nil
	}
	return collection.IDSet()
}

// decodeJSON decodes and validates a JSON request body, writing a 400
// response and returning false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, formatValidationError(err))
		return false
	}
	return true
}

// formatValidationError flattens validator errors into a readable message.
func formatValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid input"
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "url":
			msgs = append(msgs, field+" must be a valid URL")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, e.Param()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must have at least %s entries", field, e.Param()))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

// writeDomainError maps domain errors onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, domain.ErrInvalidInput):
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Error())
		} else {
			writeError(w, http.StatusBadRequest, "invalid input")
		}
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "resource already exists")
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate limited")
	case errors.Is(err, domain.ErrStorageDisabled):
		writeError(w, http.StatusServiceUnavailable, "storage is not configured")
	case errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
