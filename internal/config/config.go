package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds every runtime setting of the client. Values come from the
// environment; a .env file is loaded by the CLI before this runs.
type Config struct {
	// Remote ledger service
	APIBaseURL  string
	HTTPTimeout time.Duration

	// Durable local storage (session identity and token only)
	DBPath string

	// Display
	DefaultCurrency string
	RecentLimit     int

	// Logging
	LogLevel string
}

func Load() *Config {
	return &Config{
		APIBaseURL:  getEnv("KAKEIBO_API_URL", "http://localhost:8000"),
		HTTPTimeout: getEnvDuration("KAKEIBO_HTTP_TIMEOUT", 30*time.Second),

		DBPath: getEnv("KAKEIBO_DB_PATH", defaultDBPath()),

		DefaultCurrency: getEnv("KAKEIBO_DEFAULT_CURRENCY", "TWD"),
		RecentLimit:     getEnvInt("KAKEIBO_RECENT_LIMIT", 5),

		LogLevel: getEnv("KAKEIBO_LOG_LEVEL", "info"),
	}
}

// Validate checks the configuration and returns one combined error.
func (c *Config) Validate() error {
	var errs []string

	if u, err := url.Parse(c.APIBaseURL); err != nil {
		errs = append(errs, fmt.Sprintf("invalid API URL %q: %v", c.APIBaseURL, err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, fmt.Sprintf("invalid API URL scheme %q: must be http or https", u.Scheme))
	}

	if c.HTTPTimeout < time.Second {
		errs = append(errs, fmt.Sprintf("invalid HTTP timeout %v: must be at least 1 second", c.HTTPTimeout))
	}

	if c.DBPath == "" {
		errs = append(errs, "database path cannot be empty")
	} else if dir := filepath.Dir(c.DBPath); dir != "." && dir != "" {
		// The directory is created on open, not here: validation must not
		// change the filesystem. Only reject a parent that can never work.
		if info, err := os.Stat(dir); err == nil && !info.IsDir() {
			errs = append(errs, fmt.Sprintf("database directory %q is not a directory", dir))
		}
	}

	if c.RecentLimit < 1 {
		errs = append(errs, fmt.Sprintf("invalid recent limit %d: must be at least 1", c.RecentLimit))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data/kakeibo.db"
	}
	return filepath.Join(home, ".kakeibo", "kakeibo.db")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
