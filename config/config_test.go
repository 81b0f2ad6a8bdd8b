package config

import (
	"testing"
	"time"

	"klineFetcher/internal/adapters/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"SYMBOL", "CATEGORY", "INTERVAL", "BYBIT_BASE_URL", "OUTPUT_DIR", "LOOKBACK_MONTHS", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "SOLUSDT", cfg.Symbol)
	assert.Equal(t, "linear", cfg.Category)
	assert.Equal(t, "5", cfg.Interval)
	assert.Equal(t, "https://api.bybit.com", cfg.BaseURL)
	assert.Equal(t, "data", cfg.OutputDir)
	assert.Equal(t, 12, cfg.LookbackMonths)
	assert.Equal(t, logger.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 12*30*24*time.Hour, cfg.Lookback())
}

func TestLoadConfig_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SYMBOL", "ETHUSDT")
	t.Setenv("CATEGORY", "spot")
	t.Setenv("INTERVAL", "15")
	t.Setenv("BYBIT_BASE_URL", "https://api-testnet.bybit.com")
	t.Setenv("OUTPUT_DIR", "out")
	t.Setenv("LOOKBACK_MONTHS", "3")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "ETHUSDT", cfg.Symbol)
	assert.Equal(t, "spot", cfg.Category)
	assert.Equal(t, "15", cfg.Interval)
	assert.Equal(t, "https://api-testnet.bybit.com", cfg.BaseURL)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, 3, cfg.LookbackMonths)
	assert.Equal(t, logger.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 3*30*24*time.Hour, cfg.Lookback())
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "non-numeric interval", key: "INTERVAL", value: "abc"},
		{name: "zero interval", key: "INTERVAL", value: "0"},
		{name: "non-numeric lookback", key: "LOOKBACK_MONTHS", value: "a year"},
		{name: "zero lookback", key: "LOOKBACK_MONTHS", value: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := LoadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
