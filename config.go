package proxycore

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
)

// Config holds every tunable the pipeline exposes. It is TOML-backed
// with a DefaultConfig constructor and a Validate pass; the on-disk file
// lives next to the caches it configures.
type Config struct {
	Cache     CacheConfig     `toml:"cache"`
	Catalog   CatalogConfig   `toml:"catalog"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	App       AppConfig       `toml:"app"`
}

// CacheConfig configures the on-disk cache directory and the image
// cache's byte budget.
type CacheConfig struct {
	Dir       string `toml:"dir"`         // platform cache dir if empty
	MaxSizeMB int    `toml:"max_size_mb"` // default 1000
}

// CatalogConfig holds the catalog freshness setting. FreshnessDays is
// validated and reported by FreshnessWindow; the name and set-code caches
// use their own fixed 24-hour window and do not read it.
type CatalogConfig struct {
	FreshnessDays int `toml:"freshness_days"` // default 1
}

// RateLimitConfig configures the minimum spacing between outbound
// catalog requests.
type RateLimitConfig struct {
	MinIntervalMS int `toml:"min_interval_ms"` // default 100
}

// AppConfig configures the product identity sent with every catalog
// request and the logger Core and the image cache write through. The
// prefetcher logs through logrus's standard logger, not this one.
type AppConfig struct {
	UserAgent string `toml:"user_agent"`

	// Logger is never persisted (toml:"-"); nil defaults to
	// logrus.StandardLogger() at Initialize time.
	Logger *logrus.Logger `toml:"-"`
}

const appDirName = "proxycore"

// DefaultConfig returns the configuration this module runs with absent
// an on-disk override.
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			MaxSizeMB: 1000,
		},
		Catalog: CatalogConfig{
			FreshnessDays: 1,
		},
		RateLimit: RateLimitConfig{
			MinIntervalMS: 100,
		},
		App: AppConfig{
			UserAgent: "proxycore/1.0",
		},
	}
}

// configPath resolves the TOML config file location, under the
// platform's cache directory (same root the JSON caches and image blobs
// live under).
func configPath() (string, error) {
	dir, err := cacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// cacheDir resolves the directory that backs every on-disk artifact:
// card_names.json, set_codes.json, search_results.json,
// image_cache_metadata.json, and the content-addressed blobs.
func cacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve cache directory: %w", err)
	}
	dir := filepath.Join(base, appDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create cache directory: %w", err)
	}
	return dir, nil
}

// LoadConfig loads the configuration from disk, returning DefaultConfig
// if no file is present.
func LoadConfig() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// Save persists the configuration to disk.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration's numeric bounds.
func (c *Config) Validate() error {
	if c.Cache.MaxSizeMB <= 0 {
		return fmt.Errorf("cache.max_size_mb must be positive, got %d", c.Cache.MaxSizeMB)
	}
	if c.Catalog.FreshnessDays <= 0 {
		return fmt.Errorf("catalog.freshness_days must be positive, got %d", c.Catalog.FreshnessDays)
	}
	if c.RateLimit.MinIntervalMS <= 0 {
		return fmt.Errorf("rate_limit.min_interval_ms must be positive, got %d", c.RateLimit.MinIntervalMS)
	}
	return nil
}

// FreshnessWindow returns the catalog freshness window as a duration.
func (c *Config) FreshnessWindow() time.Duration {
	return time.Duration(c.Catalog.FreshnessDays) * 24 * time.Hour
}

// logger returns the configured logger, defaulting to
// logrus.StandardLogger() when none was injected.
func (c *Config) logger() *logrus.Logger {
	if c.App.Logger != nil {
		return c.App.Logger
	}
	return logrus.StandardLogger()
}
