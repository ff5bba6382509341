// Package config provides configuration management for the market dashboard.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrMissingURL        = errors.New("market.url is required")
	ErrMissingUserAgent  = errors.New("market.user_agent is required")
	ErrMissingTableClass = errors.New("market.table_class is required")
	ErrInvalidTimeout    = errors.New("market.timeout_sec must be non-negative")
	ErrMissingCachePath  = errors.New("cache.path is required")
	ErrInvalidTTL        = errors.New("cache.ttl_sec must be at least 1")
	ErrMissingServerAddr = errors.New("server.addr is required")
	ErrInvalidLogLevel   = errors.New("logging.level must be one of: debug, info, warn, error")
)

// Config represents the complete dashboard configuration.
type Config struct {
	Market  MarketConfig  `yaml:"market"`
	Cache   CacheConfig   `yaml:"cache"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// MarketConfig describes the scraped source page.
type MarketConfig struct {
	URL        string `yaml:"url"`
	UserAgent  string `yaml:"user_agent"`
	TableClass string `yaml:"table_class"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// Timeout returns the fetch timeout. Zero disables the timeout entirely.
func (m *MarketConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutSec) * time.Second
}

// CacheConfig describes the snapshot cache file.
type CacheConfig struct {
	Path   string `yaml:"path"`
	TTLSec int    `yaml:"ttl_sec"`
}

// TTL returns the cache validity window.
func (c *CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSec) * time.Second
}

// ServerConfig describes the dashboard HTTP server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig describes logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the configuration matching the original deployment:
// the moneycontrol global-indices page, a desktop Chrome identity, the
// mctable1 marker, a one-hour cache window.
func DefaultConfig() *Config {
	return &Config{
		Market: MarketConfig{
			URL:        "https://www.moneycontrol.com/markets/global-indices/",
			UserAgent:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
			TableClass: "mctable1",
			TimeoutSec: 30,
		},
		Cache: CacheConfig{
			Path:   "data/market_data.json",
			TTLSec: 3600,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration: defaults, overlaid by the YAML file when
// path is non-empty, overlaid by environment variables, then validated.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides configuration fields from environment variables.
func (c *Config) ApplyEnv() {
	if url := os.Getenv("MARKET_URL"); url != "" {
		c.Market.URL = url
	}

	if ua := os.Getenv("MARKET_USER_AGENT"); ua != "" {
		c.Market.UserAgent = ua
	}

	if class := os.Getenv("MARKET_TABLE_CLASS"); class != "" {
		c.Market.TableClass = class
	}

	if timeout := os.Getenv("MARKET_TIMEOUT_SEC"); timeout != "" {
		if v, err := strconv.Atoi(timeout); err == nil {
			c.Market.TimeoutSec = v
		}
	}

	if path := os.Getenv("CACHE_PATH"); path != "" {
		c.Cache.Path = path
	}

	if ttl := os.Getenv("CACHE_TTL_SEC"); ttl != "" {
		if v, err := strconv.Atoi(ttl); err == nil {
			c.Cache.TTLSec = v
		}
	}

	if addr := os.Getenv("SERVER_ADDR"); addr != "" {
		c.Server.Addr = addr
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Market.URL == "" {
		return ErrMissingURL
	}

	if c.Market.UserAgent == "" {
		return ErrMissingUserAgent
	}

	if c.Market.TableClass == "" {
		return ErrMissingTableClass
	}

	if c.Market.TimeoutSec < 0 {
		return ErrInvalidTimeout
	}

	if c.Cache.Path == "" {
		return ErrMissingCachePath
	}

	if c.Cache.TTLSec < 1 {
		return ErrInvalidTTL
	}

	if c.Server.Addr == "" {
		return ErrMissingServerAddr
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}

	return nil
}
