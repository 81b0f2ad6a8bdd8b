package domain

import (
	"fmt"
	"strconv"
	"time"
)

// Candle represents a single OHLCV candlestick.
type Candle struct {
	StartTime int64   // Start of the interval, epoch milliseconds. Unique key within a series.
	Open      float64 // Opening price
	High      float64 // Highest price
	Low       float64 // Lowest price
	Close     float64 // Closing price
	Volume    float64 // Trading volume
}

// IntervalDuration converts a Bybit minutes-as-text kline interval
// (e.g. "1", "5", "60") into a time.Duration.
func IntervalDuration(interval string) (time.Duration, error) {
	minutes, err := strconv.Atoi(interval)
	if err != nil {
		return 0, fmt.Errorf("invalid kline interval %q: expected whole minutes: %w", interval, err)
	}
	if minutes <= 0 {
		return 0, fmt.Errorf("invalid kline interval %q: must be positive", interval)
	}
	return time.Duration(minutes) * time.Minute, nil
}
