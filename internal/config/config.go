package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds process settings read from the environment.
type Config struct {
	Port string

	// Site file and docs tree
	SiteFile string
	DocsRoot string // Overrides docs_root from the site file when set

	// Auth for mutating endpoints
	APIKey string

	// Build
	Workers  int
	BuildTTL time.Duration

	// Watch mode
	Watch         bool
	WatchDebounce time.Duration

	LogLevel slog.Level
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		SiteFile: envOr("DOCNAV_CONFIG", DefaultSiteFile),
		DocsRoot: os.Getenv("DOCNAV_DOCS_ROOT"),

		APIKey: os.Getenv("DOCNAV_API_KEY"),

		Workers:  envInt("DOCNAV_WORKERS", 4),
		BuildTTL: envDuration("DOCNAV_BUILD_TTL", 1*time.Hour),

		Watch:         envBool("DOCNAV_WATCH", true),
		WatchDebounce: envDuration("DOCNAV_WATCH_DEBOUNCE", 500*time.Millisecond),

		LogLevel: envLevel("DOCNAV_LOG_LEVEL", slog.LevelInfo),
	}

	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.BuildTTL <= 0 {
		cfg.BuildTTL = 1 * time.Hour
	}
	if cfg.WatchDebounce <= 0 {
		cfg.WatchDebounce = 500 * time.Millisecond
	}

	return cfg
}

// Validate checks the settings needed to run the HTTP server.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("DOCNAV_API_KEY is required")
	}
	if c.SiteFile == "" {
		return fmt.Errorf("DOCNAV_CONFIG must not be empty")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envLevel(key string, fallback slog.Level) slog.Level {
	if v := os.Getenv(key); v != "" {
		if l, err := ParseLevel(v); err == nil {
			return l
		}
	}
	return fallback
}

// ParseLevel parses debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}
