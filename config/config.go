package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"klineFetcher/internal/adapters/logger" // Import the logger package for LogLevel
	"klineFetcher/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	// Market selection
	Symbol   string // Trading symbol, e.g. "SOLUSDT"
	Category string // Bybit product category, e.g. "linear"
	Interval string // Kline interval in minutes-as-text, e.g. "5"

	// Endpoint
	BaseURL string

	// Output
	OutputDir string

	// Historical window
	LookbackMonths int // Approximate months of history to fetch (30-day months)

	// Logging
	LogLevel logger.LogLevel
}

// Lookback returns the historical window as a duration (30-day months).
func (c *Config) Lookback() time.Duration {
	return time.Duration(c.LookbackMonths) * 30 * 24 * time.Hour
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var errs []string // Collect validation errors

	cfg.Symbol = getEnv("SYMBOL", "SOLUSDT")
	if cfg.Symbol == "" {
		errs = append(errs, "SYMBOL must be set")
	}

	cfg.Category = getEnv("CATEGORY", "linear")
	if cfg.Category == "" {
		errs = append(errs, "CATEGORY must be set")
	}

	cfg.Interval = getEnv("INTERVAL", "5")
	if _, err := domain.IntervalDuration(cfg.Interval); err != nil {
		errs = append(errs, fmt.Sprintf("invalid INTERVAL: %v", err))
	}

	cfg.BaseURL = getEnv("BYBIT_BASE_URL", "https://api.bybit.com")
	if cfg.BaseURL == "" {
		errs = append(errs, "BYBIT_BASE_URL must be set")
	}

	cfg.OutputDir = getEnv("OUTPUT_DIR", "data")
	if cfg.OutputDir == "" {
		errs = append(errs, "OUTPUT_DIR must be set")
	}

	var err error
	cfg.LookbackMonths, err = getEnvAsIntRequired("LOOKBACK_MONTHS", 12)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid LOOKBACK_MONTHS: %v", err))
	} else if cfg.LookbackMonths <= 0 {
		errs = append(errs, "LOOKBACK_MONTHS must be positive")
	}

	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}
