package ports

import (
	"context"

	"klineFetcher/internal/domain"
)

// KlineFetcher defines the interface for retrieving one page of historical
// kline data from an exchange. This abstraction decouples the backfill loop
// from the concrete exchange implementation.
type KlineFetcher interface {
	// GetKlines retrieves the candles the exchange reports for the inclusive
	// range [start, end] (epoch milliseconds), at most one API page worth.
	GetKlines(ctx context.Context, symbol, category, interval string, start, end int64) ([]*domain.Candle, error)
}
