// Package config provides application configuration management with support
// for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Server   ServerConfig
	Database DatabaseConfig
	Search   SearchConfig
	Icons    IconsConfig
	Capture  CaptureConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
	// AllowedOrigins are the browser origins allowed by CORS. This must
	// include the web app origin and the browser-extension origins
	// (chrome-extension://… / moz-extension://…).
	AllowedOrigins []string
}

// DatabaseConfig holds SQLite configuration.
type DatabaseConfig struct {
	Path string // Path to the SQLite database file
}

// SearchConfig holds full-text search index configuration.
type SearchConfig struct {
	DataPath string // Directory for the Bleve index
}

// IconsConfig holds favicon cache configuration.
type IconsConfig struct {
	CachePath string        // Directory for the Badger icon cache
	TTL       time.Duration // How long cached icons stay fresh (default: 168h)
}

// CaptureConfig holds page-metadata capture configuration.
type CaptureConfig struct {
	Timeout time.Duration // Per-page fetch timeout (default: 10s)
	// RPS and Burst bound how fast a single user may trigger outbound
	// page fetches. Capture reaches arbitrary third-party hosts, so it
	// is the one endpoint with its own limiter.
	RPS   float64
	Burst int
}

// Load builds configuration from multiple sources with precedence:
// environment variables over .env file over defaults. Flag parsing is
// left to the entry points so tests can call Load repeatedly.
func Load() (*Config, error) {
	loadEnvFile(getEnv("PAGETAGZ_ENV_FILE", ".env"))

	cfg := &Config{
		App: AppConfig{
			Environment: getEnv("PAGETAGZ_ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getEnv("PAGETAGZ_LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port:           getEnv("PAGETAGZ_PORT", "8080"),
			AllowedOrigins: splitList(getEnv("PAGETAGZ_ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Database: DatabaseConfig{
			Path: getEnv("PAGETAGZ_DB_PATH", "pagetagz.db"),
		},
		Search: SearchConfig{
			DataPath: getEnv("PAGETAGZ_SEARCH_PATH", "search"),
		},
		Icons: IconsConfig{
			CachePath: getEnv("PAGETAGZ_ICON_CACHE_PATH", "icons"),
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = getDuration("PAGETAGZ_READ_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = getDuration("PAGETAGZ_WRITE_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = getDuration("PAGETAGZ_IDLE_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.Icons.TTL, err = getDuration("PAGETAGZ_ICON_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.Capture.Timeout, err = getDuration("PAGETAGZ_CAPTURE_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	cfg.Capture.RPS = 1
	cfg.Capture.Burst = 5

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("invalid environment %q (want development, staging, or production)", c.App.Environment)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path must not be empty")
	}
	return nil
}

// getEnv returns the environment variable value or a default.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getDuration parses a duration from the environment or returns a default.
func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

// splitList splits a comma-separated value, trimming whitespace.
func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// loadEnvFile loads KEY=VALUE pairs from a .env file into the process
// environment. Existing variables win. Missing files are fine.
func loadEnvFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
