package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, 16000, cfg.Engine.ContextBudget)
	assert.Equal(t, 1, cfg.Engine.PlanRetries)
	assert.Equal(t, 100, cfg.Engine.EventBufferSize)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
provider: anthropic
anthropic_key: sk-test
engine:
  context_budget: 4000
  plan_retries: 2
  agent_timeout: 45s
  concurrent_steps: true
store:
  backend: redis
  redis_url: localhost:6379
logging:
  level: debug
  format: json
metrics_addr: ":9102"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, 4000, cfg.Engine.ContextBudget)
	assert.Equal(t, 2, cfg.Engine.PlanRetries)
	assert.Equal(t, 45*time.Second, cfg.Engine.AgentTimeout.Std())
	assert.True(t, cfg.Engine.ConcurrentSteps)
	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, ":9102", cfg.MetricsAddr)
	require.NoError(t, cfg.Validate())
}

func TestLoadEnvFallbacks(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("REDIS_URL", "redis.internal:6379")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-env", cfg.OpenAIKey)
	assert.Equal(t, "redis.internal:6379", cfg.Store.RedisURL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing openai key", func(c *Config) { c.Provider = "openai"; c.OpenAIKey = "" }, "no API key"},
		{"missing anthropic key", func(c *Config) { c.Provider = "anthropic" }, "no API key"},
		{"unknown provider", func(c *Config) { c.Provider = "llama-at-home" }, "unknown provider"},
		{"redis without url", func(c *Config) { c.Store.Backend = "redis" }, "no redis_url"},
		{"postgres without url", func(c *Config) { c.Store.Backend = "postgres" }, "no postgres_url"},
		{"unknown backend", func(c *Config) { c.Store.Backend = "scrolls" }, "unknown store backend"},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }, "unknown log format"},
		{"mock needs nothing", func(c *Config) { c.Provider = "mock" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Provider: "mock", Store: StoreConfig{Backend: "memory"}}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestInvalidDuration(t *testing.T) {
	path := writeConfig(t, `
engine:
  agent_timeout: soon
`)
	_, err := Load(path)
	assert.Error(t, err)
}
