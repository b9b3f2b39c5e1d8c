// Package main provides the entry point for the research assistant HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/scholaragent/research-assistant/internal/aggregator"
	"github.com/scholaragent/research-assistant/internal/config"
	"github.com/scholaragent/research-assistant/internal/dedup"
	"github.com/scholaragent/research-assistant/internal/llm"
	"github.com/scholaragent/research-assistant/internal/observability"
	"github.com/scholaragent/research-assistant/internal/rank"
	"github.com/scholaragent/research-assistant/internal/scrape"
	httpserver "github.com/scholaragent/research-assistant/internal/server/http"
	"github.com/scholaragent/research-assistant/internal/sources"
	"github.com/scholaragent/research-assistant/internal/sources/arxiv"
	"github.com/scholaragent/research-assistant/internal/sources/core"
	"github.com/scholaragent/research-assistant/internal/sources/crossref"
	"github.com/scholaragent/research-assistant/internal/sources/doaj"
	"github.com/scholaragent/research-assistant/internal/sources/openalex"
	"github.com/scholaragent/research-assistant/internal/sources/pubmed"
	"github.com/scholaragent/research-assistant/internal/sources/scopus"
	"github.com/scholaragent/research-assistant/internal/sources/semanticscholar"
	"github.com/scholaragent/research-assistant/internal/storage"
)

const userAgent = "ScholarAgent-ResearchAssistant/1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("research-assistant server starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics("research_assistant")
	}

	// Register all source clients; disabled ones stay registered but are
	// skipped by the aggregator.
	registry := buildRegistry(cfg)
	for _, src := range registry.EnabledSources() {
		logger.Info().Str("source", src.Name()).Msg("source enabled")
	}

	// Strategy expansion and summaries.
	gemini := llm.NewGeminiProvider(llm.GeminiConfig{
		APIKey:     cfg.LLM.Gemini.APIKey,
		Model:      cfg.LLM.Gemini.Model,
		BaseURL:    cfg.LLM.Gemini.BaseURL,
		Timeout:    cfg.LLM.Gemini.Timeout,
		MaxRetries: cfg.LLM.Gemini.MaxRetries,
	})
	expander := llm.NewExpander(gemini, logger, metrics)

	// Collection storage.
	store, err := buildStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("configure storage: %w", err)
	}

	agg := aggregator.New(
		registry,
		dedup.New(dedup.Config{TitleOverlapMinLen: cfg.Aggregator.TitleOverlapMinLen}),
		rank.New(),
		logger,
		metrics,
		aggregator.Config{
			Workers:        cfg.Aggregator.Workers,
			TaskTimeout:    cfg.Aggregator.TaskTimeout,
			OverallTimeout: cfg.Aggregator.OverallTimeout,
		},
	)

	scraper := scrape.New(scrape.Config{UserAgent: userAgent})

	srv := httpserver.NewServer(
		httpserver.Config{
			Address:         cfg.Server.HTTPAddress(),
			ReadTimeout:     cfg.Server.ReadTimeout,
			WriteTimeout:    cfg.Server.WriteTimeout,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
			MetricsEnabled:  cfg.Metrics.Enabled,
			MetricsPath:     cfg.Metrics.Path,
			StrategyCount:   cfg.LLM.StrategyCount,
			LLMEnabled:      cfg.LLM.Enabled && cfg.LLM.Gemini.APIKey != "",
		},
		agg,
		expander,
		dedup.New(dedup.Config{TitleOverlapMinLen: cfg.Aggregator.TitleOverlapMinLen}),
		store,
		scraper,
		logger,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server failed")
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown HTTP server: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

// buildRegistry wires every source client from its configuration section.
func buildRegistry(cfg *config.Config) *sources.Registry {
	registry := sources.NewRegistry()

	s := cfg.Sources

	registry.Register(semanticscholar.NewClient(semanticscholar.Config{
		BaseURL:    s.SemanticScholar.BaseURL,
		APIKey:     s.SemanticScholar.APIKey,
		Timeout:    s.SemanticScholar.Timeout,
		RateLimit:  s.SemanticScholar.RateLimit,
		BurstSize:  s.SemanticScholar.BurstSize,
		MaxResults: s.SemanticScholar.MaxResults,
		Enabled:    s.SemanticScholar.Enabled,
	}, nil))

	registry.Register(crossref.NewClient(crossref.Config{
		BaseURL:    s.Crossref.BaseURL,
		Mailto:     s.Crossref.Mailto,
		Timeout:    s.Crossref.Timeout,
		RateLimit:  s.Crossref.RateLimit,
		BurstSize:  s.Crossref.BurstSize,
		MaxResults: s.Crossref.MaxResults,
		Enabled:    s.Crossref.Enabled,
	}, nil))

	registry.Register(doaj.NewClient(doaj.Config{
		BaseURL:    s.DOAJ.BaseURL,
		Timeout:    s.DOAJ.Timeout,
		RateLimit:  s.DOAJ.RateLimit,
		BurstSize:  s.DOAJ.BurstSize,
		MaxResults: s.DOAJ.MaxResults,
		Enabled:    s.DOAJ.Enabled,
	}, nil))

	registry.Register(arxiv.NewClient(arxiv.Config{
		BaseURL:    s.ArXiv.BaseURL,
		Timeout:    s.ArXiv.Timeout,
		RateLimit:  s.ArXiv.RateLimit,
		BurstSize:  s.ArXiv.BurstSize,
		MaxResults: s.ArXiv.MaxResults,
		Enabled:    s.ArXiv.Enabled,
	}, nil))

	registry.Register(openalex.NewClient(openalex.Config{
		BaseURL:    s.OpenAlex.BaseURL,
		Mailto:     s.OpenAlex.Mailto,
		Timeout:    s.OpenAlex.Timeout,
		RateLimit:  s.OpenAlex.RateLimit,
		BurstSize:  s.OpenAlex.BurstSize,
		MaxResults: s.OpenAlex.MaxResults,
		Enabled:    s.OpenAlex.Enabled,
	}, nil))

	registry.Register(pubmed.NewClient(pubmed.Config{
		BaseURL:    s.PubMed.BaseURL,
		APIKey:     s.PubMed.APIKey,
		Timeout:    s.PubMed.Timeout,
		RateLimit:  s.PubMed.RateLimit,
		BurstSize:  s.PubMed.BurstSize,
		MaxResults: s.PubMed.MaxResults,
		Enabled:    s.PubMed.Enabled,
	}, nil))

	registry.Register(scopus.NewClient(scopus.Config{
		BaseURL:    s.Scopus.BaseURL,
		APIKey:     s.Scopus.APIKey,
		Timeout:    s.Scopus.Timeout,
		RateLimit:  s.Scopus.RateLimit,
		BurstSize:  s.Scopus.BurstSize,
		MaxResults: s.Scopus.MaxResults,
		Enabled:    s.Scopus.Enabled,
	}, nil))

	registry.Register(core.NewClient(core.Config{
		BaseURLs:   s.CORE.BaseURLs,
		APIKey:     s.CORE.APIKey,
		UserAgent:  userAgent,
		Timeout:    s.CORE.Timeout,
		RateLimit:  s.CORE.RateLimit,
		BurstSize:  s.CORE.BurstSize,
		MaxResults: s.CORE.MaxResults,
		Enabled:    s.CORE.Enabled,
	}))

	return registry
}

// buildStore selects the collection store for the configured backend.
func buildStore(cfg *config.Config, logger zerolog.Logger) (storage.CollectionStore, error) {
	sb := storage.SupabaseConfig{
		URL:        cfg.Storage.Supabase.URL,
		ServiceKey: cfg.Storage.Supabase.ServiceKey,
		Bucket:     cfg.Storage.Supabase.Bucket,
	}

	switch cfg.Storage.Backend {
	case config.StorageBackendSupabase:
		return storage.NewSupabaseStore(sb, logger)
	case config.StorageBackendMemory:
		return storage.NewMemoryStore(), nil
	case config.StorageBackendDisabled:
		return storage.NewDisabledStore(), nil
	default: // auto
		if sb.Configured() {
			return storage.NewSupabaseStore(sb, logger)
		}
		logger.Warn().Msg("supabase storage not configured, using in-memory collection store")
		return storage.NewMemoryStore(), nil
	}
}
