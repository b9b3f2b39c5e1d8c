// Package httpserver provides the HTTP REST API server for the research
// assistant.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/scholaragent/research-assistant/internal/aggregator"
	"github.com/scholaragent/research-assistant/internal/dedup"
	"github.com/scholaragent/research-assistant/internal/llm"
	"github.com/scholaragent/research-assistant/internal/scrape"
	"github.com/scholaragent/research-assistant/internal/storage"
)

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// MetricsEnabled exposes the Prometheus handler at MetricsPath.
	MetricsEnabled bool
	MetricsPath    string

	// StrategyCount is the number of strategies requested per AI search.
	StrategyCount int

	// LLMEnabled permits AI strategy expansion and summarization. When
	// false every search degrades to a direct search and summaries use
	// the unavailable placeholder.
	LLMEnabled bool

	// SummaryWorkers bounds concurrent summary generation during
	// collection saves.
	SummaryWorkers int
}

// Server is the HTTP REST API server.
type Server struct {
	router       chi.Router
	httpServer   *http.Server
	aggregator   *aggregator.Aggregator
	expander     *llm.Expander
	deduplicator *dedup.Deduplicator
	store        storage.CollectionStore
	scraper      *scrape.Scraper
	logger       zerolog.Logger
	cfg          Config
}

// NewServer creates a new HTTP server with all dependencies.
func NewServer(
	cfg Config,
	agg *aggregator.Aggregator,
	expander *llm.Expander,
	deduplicator *dedup.Deduplicator,
	store storage.CollectionStore,
	scraper *scrape.Scraper,
	logger zerolog.Logger,
) *Server {
	if cfg.StrategyCount <= 0 {
		cfg.StrategyCount = 4
	}
	if cfg.SummaryWorkers <= 0 {
		cfg.SummaryWorkers = 3
	}
	s := &Server{
		aggregator:   agg,
		expander:     expander,
		deduplicator: deduplicator,
		store:        store,
		scraper:      scraper,
		logger:       logger.With().Str("component", "http-server").Logger(),
		cfg:          cfg,
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLoggerMiddleware(s.logger))

	// Health endpoint
	r.Get("/healthz", s.healthHandler)

	if s.cfg.MetricsEnabled {
		path := s.cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(jsonContentTypeMiddleware)

		r.Post("/search", s.handleSearch)
		r.Post("/import", s.handleImport)
		r.Post("/articles/by-url", s.handleArticleByURL)
		r.Post("/collections/generate", s.handleGenerateCollection)
		r.Get("/collections", s.handleGetCollection)
		r.Put("/collections", s.handlePutCollection)
		r.Get("/framework", s.handleFramework)
	})

	return r
}

// Router exposes the underlying handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort log; headers already sent.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
