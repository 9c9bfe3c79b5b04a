// Package config defines the listing engine configuration and loads it
// from a TOML file with LISTING_* environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by LISTING_* environment
// variables.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Upstream UpstreamConfig `toml:"upstream"`
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
}

// ServerConfig holds the HTTP listener parameters.
type ServerConfig struct {
	Port int `toml:"port"`
}

// UpstreamConfig holds the market listing source parameters.
type UpstreamConfig struct {
	BaseURL         string   `toml:"base_url"`
	RefreshInterval duration `toml:"refresh_interval"`
}

// DatabaseConfig holds the PostgreSQL connection string. Empty means the
// in-memory store.
type DatabaseConfig struct {
	URL string `toml:"url"`
}

// RedisConfig holds the Redis cache parameters. An empty URL disables the
// cache layer.
type RedisConfig struct {
	URL string   `toml:"url"`
	TTL duration `toml:"ttl"`
}

// duration lets TOML carry values like "30s".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Server:   ServerConfig{Port: 8080},
		Upstream: UpstreamConfig{RefreshInterval: duration{60 * time.Second}},
		Redis:    RedisConfig{TTL: duration{30 * time.Second}},
	}
}

// Load reads the TOML file at path (skipped when path is empty or the file
// is missing), merges it on top of the defaults, applies LISTING_*
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	// Load .env if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server port %d out of range", c.Server.Port)
	}
	if c.Upstream.RefreshInterval.Duration < time.Second {
		return fmt.Errorf("config: refresh interval %s below 1s", c.Upstream.RefreshInterval.Duration)
	}
	if c.Redis.URL != "" && c.Redis.TTL.Duration <= 0 {
		return fmt.Errorf("config: redis ttl must be positive when redis is enabled")
	}
	return nil
}

// RefreshInterval returns the upstream polling interval.
func (c *Config) RefreshInterval() time.Duration {
	return c.Upstream.RefreshInterval.Duration
}

// CacheTTL returns the Redis cache TTL.
func (c *Config) CacheTTL() time.Duration {
	return c.Redis.TTL.Duration
}

// applyEnvOverrides reads well-known LISTING_* environment variables and
// overwrites the corresponding fields when set. This lets operators inject
// connection strings at deploy time without touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Upstream.BaseURL, "LISTING_UPSTREAM_URL")
	setStr(&cfg.Database.URL, "LISTING_DATABASE_URL")
	setStr(&cfg.Database.URL, "DATABASE_URL") // compatibility alias
	setStr(&cfg.Redis.URL, "LISTING_REDIS_URL")
	setStr(&cfg.Redis.URL, "REDIS_URL") // compatibility alias
	setInt(&cfg.Server.Port, "LISTING_PORT")
	setInt(&cfg.Server.Port, "PORT") // compatibility alias
	setDur(&cfg.Upstream.RefreshInterval, "LISTING_REFRESH_INTERVAL")
	setDur(&cfg.Redis.TTL, "LISTING_CACHE_TTL")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDur(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}
