// Package config loads the process configuration from YAML with environment
// fallbacks for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	// LLM provider selection and credentials.
	Provider     string `yaml:"provider"` // openai, anthropic, mock
	Model        string `yaml:"model"`
	OpenAIKey    string `yaml:"openai_key"`
	AnthropicKey string `yaml:"anthropic_key"`

	// Engine tuning.
	Engine EngineConfig `yaml:"engine"`

	// Session store backend.
	Store StoreConfig `yaml:"store"`

	// Log verbosity and encoding.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics endpoint.
	MetricsAddr string `yaml:"metrics_addr"`
}

// EngineConfig holds the reasoning engine knobs.
type EngineConfig struct {
	ContextBudget   int      `yaml:"context_budget"`
	PlanRetries     int      `yaml:"plan_retries"`
	AgentTimeout    Duration `yaml:"agent_timeout"`
	ConcurrentSteps bool     `yaml:"concurrent_steps"`
	EventBufferSize int      `yaml:"event_buffer_size"`
}

// LoggingConfig selects the log level and handler encoding.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// StoreConfig selects and configures the session store backend.
type StoreConfig struct {
	Backend  string `yaml:"backend"` // memory, redis, postgres
	RedisURL string `yaml:"redis_url"`
	Postgres string `yaml:"postgres_url"`
}

// Duration wraps time.Duration so YAML values like "30s" parse naturally.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Load reads configuration from a YAML file. An empty path yields defaults
// plus environment values.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Defaults.
	if cfg.Provider == "" {
		cfg.Provider = "openai"
	}
	if cfg.Engine.ContextBudget == 0 {
		cfg.Engine.ContextBudget = 16000
	}
	if cfg.Engine.PlanRetries == 0 {
		cfg.Engine.PlanRetries = 1
	}
	if cfg.Engine.EventBufferSize == 0 {
		cfg.Engine.EventBufferSize = 100
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "memory"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	// Secrets fall back to the environment.
	if cfg.OpenAIKey == "" {
		cfg.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.AnthropicKey == "" {
		cfg.AnthropicKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.Store.RedisURL == "" {
		cfg.Store.RedisURL = os.Getenv("REDIS_URL")
	}
	if cfg.Store.Postgres == "" {
		cfg.Store.Postgres = os.Getenv("DATABASE_URL")
	}

	return &cfg, nil
}

// Validate checks that required settings are present for the selected
// provider and store backend.
func (c *Config) Validate() error {
	switch c.Provider {
	case "openai":
		if c.OpenAIKey == "" {
			return fmt.Errorf("openai provider selected but no API key configured")
		}
	case "anthropic":
		if c.AnthropicKey == "" {
			return fmt.Errorf("anthropic provider selected but no API key configured")
		}
	case "mock":
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}

	switch c.Store.Backend {
	case "memory":
	case "redis":
		if c.Store.RedisURL == "" {
			return fmt.Errorf("redis store selected but no redis_url configured")
		}
	case "postgres":
		if c.Store.Postgres == "" {
			return fmt.Errorf("postgres store selected but no postgres_url configured")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	switch c.Logging.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}

	return nil
}
