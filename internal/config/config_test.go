// Package config provides configuration management for the research assistant.
package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// Clear any existing env vars that might interfere
	clearEnvVars(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Server defaults
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 90*time.Second, cfg.Server.WriteTimeout)

	// Logging defaults
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	// Metrics defaults
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)

	// LLM defaults
	assert.True(t, cfg.LLM.Enabled)
	assert.Equal(t, 4, cfg.LLM.StrategyCount)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Gemini.Model)
	assert.Equal(t, 2, cfg.LLM.Gemini.MaxRetries)

	// Storage defaults
	assert.Equal(t, StorageBackendAuto, cfg.Storage.Backend)
	assert.Equal(t, "research-assistant", cfg.Storage.Supabase.Bucket)
	assert.False(t, cfg.Storage.Supabase.Configured())

	// Aggregator defaults
	assert.Equal(t, 5, cfg.Aggregator.Workers)
	assert.Equal(t, 30*time.Second, cfg.Aggregator.TaskTimeout)
	assert.Equal(t, 60*time.Second, cfg.Aggregator.OverallTimeout)
	assert.Equal(t, 20, cfg.Aggregator.TitleOverlapMinLen)

	// Source defaults
	assert.True(t, cfg.Sources.SemanticScholar.Enabled)
	assert.Equal(t, "https://api.semanticscholar.org/graph/v1", cfg.Sources.SemanticScholar.BaseURL)
	assert.True(t, cfg.Sources.Crossref.Enabled)
	assert.True(t, cfg.Sources.DOAJ.Enabled)
	assert.True(t, cfg.Sources.ArXiv.Enabled)
	assert.InDelta(t, 0.33, cfg.Sources.ArXiv.RateLimit, 0.001)
	assert.True(t, cfg.Sources.OpenAlex.Enabled)
	assert.True(t, cfg.Sources.PubMed.Enabled)
	assert.True(t, cfg.Sources.Scopus.Enabled)
	assert.True(t, cfg.Sources.CORE.Enabled)
	assert.Equal(t, []string{
		"https://api.core.ac.uk/v3",
		"https://core.ac.uk/api-v3",
	}, cfg.Sources.CORE.BaseURLs)
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	clearEnvVars(t)

	// Set environment variables with RESEARCHAGENT prefix
	t.Setenv("RESEARCHAGENT_SERVER_HTTP_PORT", "8888")
	t.Setenv("RESEARCHAGENT_LOGGING_LEVEL", "debug")
	t.Setenv("RESEARCHAGENT_LLM_STRATEGY_COUNT", "6")
	t.Setenv("RESEARCHAGENT_AGGREGATOR_WORKERS", "3")
	t.Setenv("RESEARCHAGENT_SOURCES_CROSSREF_MAILTO", "team@example.org")
	t.Setenv("RESEARCHAGENT_STORAGE_BACKEND", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8888, cfg.Server.HTTPPort)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 6, cfg.LLM.StrategyCount)
	assert.Equal(t, 3, cfg.Aggregator.Workers)
	assert.Equal(t, "team@example.org", cfg.Sources.Crossref.Mailto)
	assert.Equal(t, StorageBackendMemory, cfg.Storage.Backend)
}

func TestLoad_APIKeysFromEnvOnly(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("RESEARCHAGENT_LLM_GEMINI_API_KEY", "gm-test-key")
	t.Setenv("RESEARCHAGENT_SOURCES_SEMANTIC_SCHOLAR_API_KEY", "s2-test-key")
	t.Setenv("RESEARCHAGENT_SOURCES_PUBMED_API_KEY", "ncbi-test-key")
	t.Setenv("RESEARCHAGENT_SOURCES_SCOPUS_API_KEY", "els-test-key")
	t.Setenv("RESEARCHAGENT_SOURCES_CORE_API_KEY", "core-test-key")
	t.Setenv("RESEARCHAGENT_STORAGE_SUPABASE_SERVICE_KEY", "sb-test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gm-test-key", cfg.LLM.Gemini.APIKey)
	assert.Equal(t, "s2-test-key", cfg.Sources.SemanticScholar.APIKey)
	assert.Equal(t, "ncbi-test-key", cfg.Sources.PubMed.APIKey)
	assert.Equal(t, "els-test-key", cfg.Sources.Scopus.APIKey)
	assert.Equal(t, "core-test-key", cfg.Sources.CORE.APIKey)
	assert.Equal(t, "sb-test-key", cfg.Storage.Supabase.ServiceKey)
}

func TestLoad_APIKeysEmptyByDefault(t *testing.T) {
	clearEnvVars(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.LLM.Gemini.APIKey)
	assert.Empty(t, cfg.Sources.Scopus.APIKey)
	assert.Empty(t, cfg.Sources.CORE.APIKey)
	assert.Empty(t, cfg.Storage.Supabase.ServiceKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		modifyFunc  func(*Config)
		expectedErr string
	}{
		{
			name:       "valid config",
			modifyFunc: func(c *Config) {},
		},
		{
			name: "HTTP port zero",
			modifyFunc: func(c *Config) {
				c.Server.HTTPPort = 0
			},
			expectedErr: "invalid HTTP port: 0",
		},
		{
			name: "HTTP port too large",
			modifyFunc: func(c *Config) {
				c.Server.HTTPPort = 70000
			},
			expectedErr: "invalid HTTP port: 70000",
		},
		{
			name: "invalid log level",
			modifyFunc: func(c *Config) {
				c.Logging.Level = "verbose"
			},
			expectedErr: "invalid log level: verbose",
		},
		{
			name: "log level case insensitive",
			modifyFunc: func(c *Config) {
				c.Logging.Level = "DEBUG"
			},
		},
		{
			name: "strategy count zero",
			modifyFunc: func(c *Config) {
				c.LLM.StrategyCount = 0
			},
			expectedErr: "strategy_count must be positive",
		},
		{
			name: "unknown storage backend",
			modifyFunc: func(c *Config) {
				c.Storage.Backend = "s3"
			},
			expectedErr: "invalid storage backend: s3",
		},
		{
			name: "supabase backend without credentials",
			modifyFunc: func(c *Config) {
				c.Storage.Backend = StorageBackendSupabase
			},
			expectedErr: "requires supabase url, service key and bucket",
		},
		{
			name: "supabase backend fully configured",
			modifyFunc: func(c *Config) {
				c.Storage.Backend = StorageBackendSupabase
				c.Storage.Supabase.URL = "https://ref.supabase.co/storage/v1"
				c.Storage.Supabase.ServiceKey = "sb-key"
				c.Storage.Supabase.Bucket = "papers"
			},
		},
		{
			name: "workers zero",
			modifyFunc: func(c *Config) {
				c.Aggregator.Workers = 0
			},
			expectedErr: "workers must be positive",
		},
		{
			name: "overall timeout shorter than task timeout",
			modifyFunc: func(c *Config) {
				c.Aggregator.TaskTimeout = 2 * time.Minute
			},
			expectedErr: "overall_timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modifyFunc(cfg)

			err := cfg.Validate()
			if tt.expectedErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedErr)
			}
		})
	}
}

func TestServerConfig_HTTPAddress(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", HTTPPort: 8080}
	assert.Equal(t, "127.0.0.1:8080", s.HTTPAddress())
}

// clearEnvVars removes all RESEARCHAGENT_ variables for the duration of a test.
func clearEnvVars(t *testing.T) {
	t.Helper()
	for _, env := range os.Environ() {
		key, _, ok := strings.Cut(env, "=")
		if ok && strings.HasPrefix(key, "RESEARCHAGENT_") {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

// validConfig returns a valid configuration for testing
func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "0.0.0.0",
			HTTPPort: 8080,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		LLM: LLMConfig{
			Enabled:       true,
			StrategyCount: 4,
		},
		Storage: StorageConfig{
			Backend: StorageBackendAuto,
		},
		Aggregator: AggregatorConfig{
			Workers:        5,
			TaskTimeout:    30 * time.Second,
			OverallTimeout: 60 * time.Second,
		},
	}
}
