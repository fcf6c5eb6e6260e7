// Package config loads and validates application configuration from a YAML
// file plus environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all personagen configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Remote call gateway
	Gateway GatewayConfig `yaml:"gateway"`

	// Direct provider credentials and endpoints
	Providers ProvidersConfig `yaml:"providers"`

	// Personalization token store
	Tokens TokensConfig `yaml:"tokens"`

	// Progress stream pacing
	Progress ProgressConfig `yaml:"progress"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// GatewayConfig configures the managed gateway path.
type GatewayConfig struct {
	BaseURL        string `yaml:"base_url"`
	Token          string `yaml:"token"`
	AttemptTimeout string `yaml:"attempt_timeout"`
	MaxAttempts    int    `yaml:"max_attempts"`
	BackoffBase    string `yaml:"backoff_base"`
}

// ProvidersConfig configures the direct-call fallbacks.
type ProvidersConfig struct {
	OpenAI    ProviderConfig `yaml:"openai"`
	Gemini    ProviderConfig `yaml:"gemini"`
	Stability ProviderConfig `yaml:"stability"`
}

// ProviderConfig configures one provider's direct path.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"`
}

// TokensConfig configures the personalization store and its persistence.
type TokensConfig struct {
	// Backend selects persistence: "sqlite", "redis", or "none".
	Backend       string `yaml:"backend"`
	DatabasePath  string `yaml:"database_path"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	OwnerID       string `yaml:"owner_id"`
	DebounceDelay string `yaml:"debounce_delay"`
}

// ProgressConfig configures the simulated progress streams.
type ProgressConfig struct {
	Interval string `yaml:"interval"`
	Ceiling  string `yaml:"ceiling"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
	File   string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "personagen",
		Version: "1.0.0",

		Gateway: GatewayConfig{
			AttemptTimeout: "60s",
			MaxAttempts:    3,
			BackoffBase:    "1s",
		},

		Providers: ProvidersConfig{
			OpenAI: ProviderConfig{
				BaseURL: "https://api.openai.com/v1",
				Model:   "dall-e-3",
				Timeout: "120s",
			},
			Gemini: ProviderConfig{
				BaseURL: "https://generativelanguage.googleapis.com/v1beta",
				Model:   "imagen-3.0-generate-002",
				Timeout: "120s",
			},
			Stability: ProviderConfig{
				BaseURL: "https://api.stability.ai/v2beta",
				Model:   "stable-image-core",
				Timeout: "120s",
			},
		},

		Tokens: TokensConfig{
			Backend:       "sqlite",
			DatabasePath:  "data/personagen.db",
			OwnerID:       "default",
			DebounceDelay: "1500ms",
		},

		Progress: ProgressConfig{
			Interval: "450ms",
			Ceiling:  "20s",
		},

		Logging: LoggingConfig{
			// Warnings only; the generate view owns the terminal.
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults;
// environment variables override both.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// Provider API keys from environment
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.Providers.OpenAI.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Providers.Gemini.APIKey = key
	}
	if key := os.Getenv("STABILITY_API_KEY"); key != "" {
		c.Providers.Stability.APIKey = key
	}

	// Gateway endpoint and credential from environment
	if url := os.Getenv("PERSONAGEN_GATEWAY_URL"); url != "" {
		c.Gateway.BaseURL = url
	}
	if token := os.Getenv("PERSONAGEN_GATEWAY_TOKEN"); token != "" {
		c.Gateway.Token = token
	}

	// Persistence from environment
	if path := os.Getenv("PERSONAGEN_DB"); path != "" {
		c.Tokens.DatabasePath = path
		c.Tokens.Backend = "sqlite"
	}
	if addr := os.Getenv("PERSONAGEN_REDIS_ADDR"); addr != "" {
		c.Tokens.RedisAddr = addr
		c.Tokens.Backend = "redis"
	}
	if owner := os.Getenv("PERSONAGEN_OWNER"); owner != "" {
		c.Tokens.OwnerID = owner
	}
}

// Validate rejects configurations that cannot produce a working pipeline.
func (c *Config) Validate() error {
	switch c.Tokens.Backend {
	case "sqlite":
		if c.Tokens.DatabasePath == "" {
			return fmt.Errorf("tokens.database_path is required with the sqlite backend")
		}
	case "redis":
		if c.Tokens.RedisAddr == "" {
			return fmt.Errorf("tokens.redis_addr is required with the redis backend")
		}
	case "none", "":
	default:
		return fmt.Errorf("unknown tokens.backend %q", c.Tokens.Backend)
	}

	if c.Tokens.OwnerID == "" {
		return fmt.Errorf("tokens.owner_id must not be empty")
	}
	if c.Gateway.MaxAttempts < 1 {
		return fmt.Errorf("gateway.max_attempts must be at least 1")
	}
	return nil
}

// GetAttemptTimeout returns the gateway per-attempt timeout as a duration.
func (c *Config) GetAttemptTimeout() time.Duration {
	d, err := time.ParseDuration(c.Gateway.AttemptTimeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// GetBackoffBase returns the gateway backoff base as a duration.
func (c *Config) GetBackoffBase() time.Duration {
	d, err := time.ParseDuration(c.Gateway.BackoffBase)
	if err != nil {
		return time.Second
	}
	return d
}

// GetDebounceDelay returns the token store debounce delay as a duration.
func (c *Config) GetDebounceDelay() time.Duration {
	d, err := time.ParseDuration(c.Tokens.DebounceDelay)
	if err != nil {
		return 1500 * time.Millisecond
	}
	return d
}

// GetProgressInterval returns the base cadence of the simulated progress
// streams as a duration.
func (c *Config) GetProgressInterval() time.Duration {
	d, err := time.ParseDuration(c.Progress.Interval)
	if err != nil || d <= 0 {
		return 450 * time.Millisecond
	}
	return d
}

// GetProgressCeiling returns the elapsed-time bound of the simulated progress
// streams as a duration.
func (c *Config) GetProgressCeiling() time.Duration {
	d, err := time.ParseDuration(c.Progress.Ceiling)
	if err != nil || d <= 0 {
		return 20 * time.Second
	}
	return d
}

// GetProviderTimeout returns a provider's direct-call timeout as a duration.
func (p ProviderConfig) GetProviderTimeout() time.Duration {
	d, err := time.ParseDuration(p.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}
