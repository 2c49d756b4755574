// Package config loads service configuration from an optional YAML file with
// environment-variable overrides. Environment always wins, so a deployment
// can ship one config file and tweak single values per instance.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	HTTPAddr string `yaml:"http_addr"`
	LogLevel string `yaml:"log_level"`

	Auth    AuthConfig    `yaml:"auth"`
	Catalog CatalogConfig `yaml:"catalog"`
	Stream  StreamConfig  `yaml:"stream"`
}

// AuthConfig controls bearer-token authentication.
type AuthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

// CatalogConfig controls catalog fetching and the on-disk cache.
type CatalogConfig struct {
	BaseURL        string `yaml:"base_url"`
	Group          string `yaml:"group"`
	FetchOnStart   bool   `yaml:"fetch_on_start"`
	RefreshSeconds int    `yaml:"refresh_seconds"`
	CacheDir       string `yaml:"cache_dir"`
	MaxCacheFiles  int    `yaml:"max_cache_files"`
}

// RefreshInterval returns the catalog refetch period.
func (c CatalogConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshSeconds) * time.Second
}

// StreamConfig controls SSE streaming limits.
type StreamConfig struct {
	MaxConcurrentPerIP int  `yaml:"max_concurrent_per_ip"`
	KeepaliveSeconds   int  `yaml:"keepalive_seconds"`
	TrustProxy         bool `yaml:"trust_proxy"`
}

// KeepaliveInterval returns the SSE keepalive period.
func (c StreamConfig) KeepaliveInterval() time.Duration {
	return time.Duration(c.KeepaliveSeconds) * time.Second
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTPAddr: ":8080",
		LogLevel: "info",
		Catalog: CatalogConfig{
			Group:          "active",
			FetchOnStart:   true,
			RefreshSeconds: 6 * 3600,
			CacheDir:       "/tmp/skycore/catalog",
			MaxCacheFiles:  5,
		},
		Stream: StreamConfig{
			MaxConcurrentPerIP: 10,
			KeepaliveSeconds:   30,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment overrides, in that order of precedence (later wins).
func Load(path string, logger *slog.Logger) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		logger.Info("config file loaded", "path", path)
	}

	applyEnv(&cfg, logger)

	if cfg.Auth.Enabled && cfg.Auth.Token == "" {
		return cfg, fmt.Errorf("auth token is required when auth is enabled")
	}

	return cfg, nil
}

// applyEnv overlays SKYCORE_* environment variables onto cfg.
// Invalid values keep the existing setting with a warning, matching the
// service's general tolerate-and-log posture.
func applyEnv(cfg *Config, logger *slog.Logger) {
	if v := os.Getenv("SKYCORE_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("SKYCORE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if v := os.Getenv("SKYCORE_AUTH_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid SKYCORE_AUTH_ENABLED value, keeping current", "value", v)
		} else {
			cfg.Auth.Enabled = b
		}
	}
	if v := os.Getenv("SKYCORE_AUTH_TOKEN"); v != "" {
		cfg.Auth.Token = v
	}

	if v := os.Getenv("SKYCORE_CATALOG_URL"); v != "" {
		cfg.Catalog.BaseURL = v
	}
	if v := os.Getenv("SKYCORE_CATALOG_GROUP"); v != "" {
		cfg.Catalog.Group = v
	}
	if v := os.Getenv("SKYCORE_CATALOG_FETCH_ON_START"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid SKYCORE_CATALOG_FETCH_ON_START value, keeping current", "value", v)
		} else {
			cfg.Catalog.FetchOnStart = b
		}
	}
	if v := os.Getenv("SKYCORE_CATALOG_REFRESH_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 60 {
			logger.Warn("invalid SKYCORE_CATALOG_REFRESH_SECONDS value, keeping current", "value", v)
		} else {
			cfg.Catalog.RefreshSeconds = n
		}
	}
	if v := os.Getenv("SKYCORE_CATALOG_CACHE_DIR"); v != "" {
		cfg.Catalog.CacheDir = v
	}
	if v := os.Getenv("SKYCORE_CATALOG_MAX_CACHE_FILES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid SKYCORE_CATALOG_MAX_CACHE_FILES value, keeping current", "value", v)
		} else {
			cfg.Catalog.MaxCacheFiles = n
		}
	}

	if v := os.Getenv("SKYCORE_STREAM_MAX_CONCURRENT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid SKYCORE_STREAM_MAX_CONCURRENT value, keeping current", "value", v)
		} else {
			cfg.Stream.MaxConcurrentPerIP = n
		}
	}
	if v := os.Getenv("SKYCORE_STREAM_KEEPALIVE_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid SKYCORE_STREAM_KEEPALIVE_SECONDS value, keeping current", "value", v)
		} else {
			cfg.Stream.KeepaliveSeconds = n
		}
	}
	if v := os.Getenv("SKYCORE_STREAM_TRUST_PROXY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid SKYCORE_STREAM_TRUST_PROXY value, keeping current", "value", v)
		} else {
			cfg.Stream.TrustProxy = b
		}
	}
}

// Level converts the configured log level to a slog.Level.
func (c Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug", "DEBUG":
		return slog.LevelDebug
	case "warn", "WARN":
		return slog.LevelWarn
	case "error", "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
