// Package config holds the service configuration: the HTTP server settings
// and the per-source crawl tuning. Values resolve in three layers — compiled
// defaults, an optional YAML file named by CONFIG_FILE, then environment
// overrides. The result is validated once at startup and never mutated.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	pkgconfig "twmarket-crawler/pkg/config"
)

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`

	// RequestTimeout bounds a single crawl request end to end. News
	// backfills page through listings with pacing delays, so this runs
	// far longer than a typical API timeout.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig is the per-client-IP request budget. Disabled by default;
// deployments exposed beyond a scheduler should turn it on.
type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled"`
	Limit   int           `yaml:"limit"`
	Window  time.Duration `yaml:"window"`
}

// SourceConfig is the crawl tuning for one news source. Market fetchers
// are single-shot downloads and take no tuning.
type SourceConfig struct {
	// MaxPages caps a single listing scan.
	MaxPages int `yaml:"max_pages"`

	// Interval is the fixed delay between listing page fetches. Ignored
	// when MinDelay/MaxDelay set a jittered range instead.
	Interval time.Duration `yaml:"interval"`

	// MinDelay and MaxDelay define a jittered pacing range for sources
	// that fingerprint fixed-interval clients.
	MinDelay time.Duration `yaml:"min_delay"`
	MaxDelay time.Duration `yaml:"max_delay"`

	// IncludeUndated keeps listing items whose timestamp could not be
	// parsed instead of dropping them.
	IncludeUndated bool `yaml:"include_undated"`
}

// Config is the root service configuration.
type Config struct {
	Server  ServerConfig            `yaml:"server"`
	Sources map[string]SourceConfig `yaml:"sources"`
}

// Default returns the compiled-in configuration. The per-source pacing
// mirrors what each site tolerates in practice.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			RequestTimeout:  10 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled: false,
				Limit:   30,
				Window:  time.Minute,
			},
		},
		Sources: map[string]SourceConfig{
			"cnyes": {
				MaxPages: 30,
				Interval: 500 * time.Millisecond,
			},
			"ctee": {
				MaxPages:       20,
				Interval:       1500 * time.Millisecond,
				IncludeUndated: true,
			},
			"moneyudn": {
				MaxPages: 10,
				MinDelay: time.Second,
				MaxDelay: 2 * time.Second,
			},
			"ptt": {
				MaxPages:       50,
				Interval:       time.Second,
				IncludeUndated: true,
			},
		},
	}
}

// Load resolves the effective configuration: defaults, then the YAML file
// named by CONFIG_FILE (if set), then environment overrides.
func Load() (*Config, error) {
	cfg := Default()

	if path := pkgconfig.GetEnvString("CONFIG_FILE", ""); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv layers environment overrides on top of the current values.
func (c *Config) applyEnv() {
	c.Server.Addr = pkgconfig.GetEnvString("SERVER_ADDR", c.Server.Addr)
	c.Server.RequestTimeout = pkgconfig.GetEnvDuration("REQUEST_TIMEOUT", c.Server.RequestTimeout)
	c.Server.ShutdownTimeout = pkgconfig.GetEnvDuration("SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Server.RateLimit.Enabled = pkgconfig.GetEnvBool("RATELIMIT_ENABLED", c.Server.RateLimit.Enabled)
	c.Server.RateLimit.Limit = pkgconfig.GetEnvInt("RATELIMIT_LIMIT", c.Server.RateLimit.Limit)
	c.Server.RateLimit.Window = pkgconfig.GetEnvDuration("RATELIMIT_WINDOW", c.Server.RateLimit.Window)
}

// Validate rejects configurations that would hang or hammer a source.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be positive, got %v", c.Server.RequestTimeout)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive, got %v", c.Server.ShutdownTimeout)
	}
	if c.Server.RateLimit.Enabled {
		if c.Server.RateLimit.Limit <= 0 {
			return fmt.Errorf("server.rate_limit.limit must be positive, got %d", c.Server.RateLimit.Limit)
		}
		if c.Server.RateLimit.Window <= 0 {
			return fmt.Errorf("server.rate_limit.window must be positive, got %v", c.Server.RateLimit.Window)
		}
	}
	for name, src := range c.Sources {
		if src.MaxPages <= 0 {
			return fmt.Errorf("sources.%s.max_pages must be positive, got %d", name, src.MaxPages)
		}
		if src.MinDelay < 0 || src.MaxDelay < 0 || src.Interval < 0 {
			return fmt.Errorf("sources.%s delays must not be negative", name)
		}
		if src.MaxDelay > 0 && src.MinDelay > src.MaxDelay {
			return fmt.Errorf("sources.%s.min_delay %v exceeds max_delay %v", name, src.MinDelay, src.MaxDelay)
		}
	}
	return nil
}

// Source returns the tuning for a named source, falling back to the
// compiled default when the file dropped an entry.
func (c *Config) Source(name string) SourceConfig {
	if src, ok := c.Sources[name]; ok {
		return src
	}
	return Default().Sources[name]
}
