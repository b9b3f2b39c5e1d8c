// Package config provides configuration management for the research assistant.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backend constants.
const (
	// StorageBackendAuto uses Supabase when fully configured and falls back
	// to the in-memory store otherwise.
	StorageBackendAuto = "auto"
	// StorageBackendSupabase requires a fully configured Supabase bucket.
	StorageBackendSupabase = "supabase"
	// StorageBackendMemory keeps the collection in process memory only.
	StorageBackendMemory = "memory"
	// StorageBackendDisabled rejects all collection operations.
	StorageBackendDisabled = "disabled"
)

// Config holds all configuration for the research assistant service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// LLM contains strategy expansion and summarization settings.
	LLM LLMConfig `mapstructure:"llm"`
	// Storage contains saved-collection persistence settings.
	Storage StorageConfig `mapstructure:"storage"`
	// Aggregator contains search fan-out, dedup and ranking settings.
	Aggregator AggregatorConfig `mapstructure:"aggregator"`
	// Sources contains academic source API configurations.
	Sources SourcesConfig `mapstructure:"sources"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// HTTPAddress returns the HTTP server address in host:port format.
func (s *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", s.Host, s.HTTPPort)
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
}

// LLMConfig holds LLM client configuration.
type LLMConfig struct {
	// Enabled controls whether search questions are expanded into multiple
	// strategies. When disabled the question is used as a single direct query.
	Enabled bool `mapstructure:"enabled"`
	// StrategyCount is the number of search strategies requested per question.
	StrategyCount int `mapstructure:"strategy_count"`
	// Gemini contains Gemini provider settings.
	Gemini GeminiConfig `mapstructure:"gemini"`
}

// GeminiConfig holds Gemini provider configuration.
type GeminiConfig struct {
	// APIKey is the Gemini API key (loaded from RESEARCHAGENT_LLM_GEMINI_API_KEY env var).
	APIKey string `mapstructure:"-"`
	// Model is the Gemini model name.
	Model string `mapstructure:"model"`
	// BaseURL is the Generative Language API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the timeout for API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// MaxRetries is the maximum retry attempts for transient failures.
	MaxRetries int `mapstructure:"max_retries"`
}

// StorageConfig holds saved-collection persistence configuration.
type StorageConfig struct {
	// Backend selects the storage backend (auto, supabase, memory, disabled).
	Backend string `mapstructure:"backend"`
	// Supabase contains Supabase Storage settings.
	Supabase SupabaseConfig `mapstructure:"supabase"`
}

// SupabaseConfig holds Supabase Storage configuration.
type SupabaseConfig struct {
	// URL is the storage API endpoint, e.g. "https://<ref>.supabase.co/storage/v1".
	URL string `mapstructure:"url"`
	// ServiceKey is the service role key (loaded from RESEARCHAGENT_STORAGE_SUPABASE_SERVICE_KEY env var).
	ServiceKey string `mapstructure:"-"`
	// Bucket is the bucket holding the collection and generated sheets.
	Bucket string `mapstructure:"bucket"`
}

// Configured reports whether the Supabase backend has everything it needs.
func (c SupabaseConfig) Configured() bool {
	return c.URL != "" && c.ServiceKey != "" && c.Bucket != ""
}

// AggregatorConfig holds search fan-out configuration.
type AggregatorConfig struct {
	// Workers is the maximum number of concurrent strategy-source searches.
	Workers int `mapstructure:"workers"`
	// TaskTimeout bounds each individual strategy-source search.
	TaskTimeout time.Duration `mapstructure:"task_timeout"`
	// OverallTimeout bounds a whole aggregated search run.
	OverallTimeout time.Duration `mapstructure:"overall_timeout"`
	// TitleOverlapMinLen is the minimum title length considered for
	// containment-based deduplication.
	TitleOverlapMinLen int `mapstructure:"title_overlap_min_len"`
}

// SourcesConfig holds configuration for all academic source APIs.
type SourcesConfig struct {
	// SemanticScholar contains Semantic Scholar API settings.
	SemanticScholar SourceConfig `mapstructure:"semantic_scholar"`
	// Crossref contains Crossref API settings.
	Crossref SourceConfig `mapstructure:"crossref"`
	// DOAJ contains DOAJ API settings.
	DOAJ SourceConfig `mapstructure:"doaj"`
	// ArXiv contains arXiv API settings.
	ArXiv SourceConfig `mapstructure:"arxiv"`
	// OpenAlex contains OpenAlex API settings.
	OpenAlex SourceConfig `mapstructure:"openalex"`
	// PubMed contains PubMed E-utilities settings.
	PubMed SourceConfig `mapstructure:"pubmed"`
	// Scopus contains Scopus API settings.
	Scopus SourceConfig `mapstructure:"scopus"`
	// CORE contains CORE API settings.
	CORE SourceConfig `mapstructure:"core"`
}

// SourceConfig holds configuration for a single academic source API.
type SourceConfig struct {
	// Enabled controls whether this source is used.
	Enabled bool `mapstructure:"enabled"`
	// APIKey is the API key (loaded from environment variable, e.g.
	// RESEARCHAGENT_SOURCES_SCOPUS_API_KEY).
	APIKey string `mapstructure:"-"`
	// BaseURL is the API base URL.
	BaseURL string `mapstructure:"base_url"`
	// BaseURLs lists fallback endpoints for sources that rotate between
	// mirrors. Only CORE uses this.
	BaseURLs []string `mapstructure:"base_urls"`
	// Mailto is the contact address for polite-pool access. Only Crossref
	// and OpenAlex use this.
	Mailto string `mapstructure:"mailto"`
	// Timeout is the timeout for API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// BurstSize is the maximum burst of requests allowed.
	BurstSize int `mapstructure:"burst_size"`
	// MaxResults is the maximum results per query.
	MaxResults int `mapstructure:"max_results"`
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("RESEARCHAGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if present
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/research-assistant")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Load secrets exclusively from environment variables.
	// These fields use mapstructure:"-" to prevent loading from config files.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
// These fields are tagged with mapstructure:"-" to prevent loading from config files.
func loadSecrets(cfg *Config) {
	cfg.LLM.Gemini.APIKey = os.Getenv("RESEARCHAGENT_LLM_GEMINI_API_KEY")

	cfg.Storage.Supabase.ServiceKey = os.Getenv("RESEARCHAGENT_STORAGE_SUPABASE_SERVICE_KEY")

	// Source API keys.
	cfg.Sources.SemanticScholar.APIKey = os.Getenv("RESEARCHAGENT_SOURCES_SEMANTIC_SCHOLAR_API_KEY")
	cfg.Sources.PubMed.APIKey = os.Getenv("RESEARCHAGENT_SOURCES_PUBMED_API_KEY")
	cfg.Sources.Scopus.APIKey = os.Getenv("RESEARCHAGENT_SOURCES_SCOPUS_API_KEY")
	cfg.Sources.CORE.APIKey = os.Getenv("RESEARCHAGENT_SOURCES_CORE_API_KEY")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// LLM defaults
	v.SetDefault("llm.enabled", true)
	v.SetDefault("llm.strategy_count", 4)
	v.SetDefault("llm.gemini.model", "gemini-2.0-flash")
	v.SetDefault("llm.gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("llm.gemini.timeout", "60s")
	v.SetDefault("llm.gemini.max_retries", 2)

	// Storage defaults
	v.SetDefault("storage.backend", StorageBackendAuto)
	v.SetDefault("storage.supabase.url", "")
	v.SetDefault("storage.supabase.bucket", "research-assistant")

	// Aggregator defaults
	v.SetDefault("aggregator.workers", 5)
	v.SetDefault("aggregator.task_timeout", "30s")
	v.SetDefault("aggregator.overall_timeout", "60s")
	v.SetDefault("aggregator.title_overlap_min_len", 20)

	// Source defaults. Rate limits follow each provider's published guidance
	// for unauthenticated access.
	v.SetDefault("sources.semantic_scholar.enabled", true)
	v.SetDefault("sources.semantic_scholar.base_url", "https://api.semanticscholar.org/graph/v1")
	v.SetDefault("sources.semantic_scholar.timeout", "30s")
	v.SetDefault("sources.semantic_scholar.rate_limit", 1.0)
	v.SetDefault("sources.semantic_scholar.burst_size", 2)
	v.SetDefault("sources.semantic_scholar.max_results", 20)

	v.SetDefault("sources.crossref.enabled", true)
	v.SetDefault("sources.crossref.base_url", "https://api.crossref.org")
	v.SetDefault("sources.crossref.mailto", "")
	v.SetDefault("sources.crossref.timeout", "30s")
	v.SetDefault("sources.crossref.rate_limit", 2.0)
	v.SetDefault("sources.crossref.burst_size", 2)
	v.SetDefault("sources.crossref.max_results", 20)

	v.SetDefault("sources.doaj.enabled", true)
	v.SetDefault("sources.doaj.base_url", "https://doaj.org/api")
	v.SetDefault("sources.doaj.timeout", "30s")
	v.SetDefault("sources.doaj.rate_limit", 2.0)
	v.SetDefault("sources.doaj.burst_size", 2)
	v.SetDefault("sources.doaj.max_results", 20)

	v.SetDefault("sources.arxiv.enabled", true)
	v.SetDefault("sources.arxiv.base_url", "https://export.arxiv.org/api")
	v.SetDefault("sources.arxiv.timeout", "30s")
	v.SetDefault("sources.arxiv.rate_limit", 0.33)
	v.SetDefault("sources.arxiv.burst_size", 1)
	v.SetDefault("sources.arxiv.max_results", 20)

	v.SetDefault("sources.openalex.enabled", true)
	v.SetDefault("sources.openalex.base_url", "https://api.openalex.org")
	v.SetDefault("sources.openalex.mailto", "")
	v.SetDefault("sources.openalex.timeout", "30s")
	v.SetDefault("sources.openalex.rate_limit", 5.0)
	v.SetDefault("sources.openalex.burst_size", 5)
	v.SetDefault("sources.openalex.max_results", 20)

	v.SetDefault("sources.pubmed.enabled", true)
	v.SetDefault("sources.pubmed.base_url", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils")
	v.SetDefault("sources.pubmed.timeout", "30s")
	v.SetDefault("sources.pubmed.rate_limit", 3.0)
	v.SetDefault("sources.pubmed.burst_size", 3)
	v.SetDefault("sources.pubmed.max_results", 20)

	// Scopus and CORE are key-gated; enabled here but skipped at runtime
	// until their API keys are provided.
	v.SetDefault("sources.scopus.enabled", true)
	v.SetDefault("sources.scopus.base_url", "https://api.elsevier.com/content")
	v.SetDefault("sources.scopus.timeout", "30s")
	v.SetDefault("sources.scopus.rate_limit", 2.0)
	v.SetDefault("sources.scopus.burst_size", 2)
	v.SetDefault("sources.scopus.max_results", 20)

	v.SetDefault("sources.core.enabled", true)
	v.SetDefault("sources.core.base_urls", []string{
		"https://api.core.ac.uk/v3",
		"https://core.ac.uk/api-v3",
	})
	v.SetDefault("sources.core.timeout", "30s")
	v.SetDefault("sources.core.rate_limit", 1.0)
	v.SetDefault("sources.core.burst_size", 1)
	v.SetDefault("sources.core.max_results", 20)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	// Validate LLM config
	if c.LLM.StrategyCount <= 0 {
		return fmt.Errorf("llm strategy_count must be positive")
	}

	// Validate storage config
	switch c.Storage.Backend {
	case StorageBackendAuto, StorageBackendMemory, StorageBackendDisabled:
	case StorageBackendSupabase:
		if !c.Storage.Supabase.Configured() {
			return fmt.Errorf("storage backend %q requires supabase url, service key and bucket", c.Storage.Backend)
		}
	default:
		return fmt.Errorf("invalid storage backend: %s", c.Storage.Backend)
	}

	// Validate aggregator config
	if c.Aggregator.Workers <= 0 {
		return fmt.Errorf("aggregator workers must be positive")
	}
	if c.Aggregator.TaskTimeout <= 0 {
		return fmt.Errorf("aggregator task_timeout must be positive")
	}
	if c.Aggregator.OverallTimeout < c.Aggregator.TaskTimeout {
		return fmt.Errorf("aggregator overall_timeout (%s) must be >= task_timeout (%s)",
			c.Aggregator.OverallTimeout, c.Aggregator.TaskTimeout)
	}

	return nil
}
