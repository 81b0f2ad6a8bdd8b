package backfill

import (
	"context"
	"fmt"
	"sort"
	"time"

	"klineFetcher/internal/domain"
	"klineFetcher/internal/ports"
)

const (
	// defaultPageSize matches the kline endpoint's maximum page length.
	defaultPageSize = 1000

	// Pacing schedule between chunk requests. Independent of the server's
	// rate-limit feedback; keeps the average request rate low.
	longPauseEvery = 20
	midPauseEvery  = 5
	longPause      = 3 * time.Second
	midPause       = 1500 * time.Millisecond
	shortPause     = 800 * time.Millisecond
)

// Backfiller drives a KlineFetcher across a full historical window, chunk by
// chunk, and merges the results into one deduplicated, time-sorted series.
type Backfiller struct {
	fetcher  ports.KlineFetcher
	logger   ports.Logger
	pageSize int
	sleep    func(time.Duration)
}

// Config holds configuration for the Backfiller.
type Config struct {
	Fetcher  ports.KlineFetcher
	Logger   ports.Logger
	PageSize int                 // Candles per chunk request (default 1000)
	Sleep    func(time.Duration) // Overridable for tests
}

// New creates a new Backfiller.
func New(cfg Config) (*Backfiller, error) {
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required for backfiller")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for backfiller")
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	return &Backfiller{
		fetcher:  cfg.Fetcher,
		logger:   cfg.Logger,
		pageSize: pageSize,
		sleep:    sleep,
	}, nil
}

// FetchAll fetches the complete candle history for [start, end), issuing one
// request per page-sized sub-range. The first unrecovered fetch error aborts
// the whole run. An empty window yields an empty result, not an error.
func (b *Backfiller) FetchAll(ctx context.Context, symbol, category, interval string, start, end time.Time) ([]*domain.Candle, error) {
	intervalDur, err := domain.IntervalDuration(interval)
	if err != nil {
		return nil, fmt.Errorf("FetchAll failed: %w", err)
	}

	endMs := end.UnixMilli()
	currentStart := start.UnixMilli()
	chunkSpan := int64(b.pageSize) * intervalDur.Milliseconds()

	var fetched []*domain.Candle
	requests := 0

	for currentStart < endMs {
		chunkEnd := currentStart + chunkSpan - 1
		if chunkEnd > endMs {
			chunkEnd = endMs
		}

		candles, err := b.fetcher.GetKlines(ctx, symbol, category, interval, currentStart, chunkEnd)
		if err != nil {
			return nil, fmt.Errorf("fetching chunk [%d, %d]: %w", currentStart, chunkEnd, err)
		}
		fetched = append(fetched, candles...)
		requests++

		b.logger.Info(ctx, "Fetched chunk", map[string]interface{}{
			"request":    requests,
			"chunkStart": currentStart,
			"chunkEnd":   chunkEnd,
			"candles":    len(candles),
			"total":      len(fetched),
		})

		currentStart = chunkEnd + 1
		b.sleep(pauseFor(requests))
	}

	return mergeCandles(fetched), nil
}

// pauseFor returns the scheduled pacing delay after the n-th request.
func pauseFor(requests int) time.Duration {
	switch {
	case requests%longPauseEvery == 0:
		return longPause
	case requests%midPauseEvery == 0:
		return midPause
	default:
		return shortPause
	}
}

// mergeCandles deduplicates by start time (last arrival wins; overlap is
// expected only at chunk boundaries) and sorts ascending.
func mergeCandles(candles []*domain.Candle) []*domain.Candle {
	byStart := make(map[int64]*domain.Candle, len(candles))
	for _, c := range candles {
		byStart[c.StartTime] = c
	}

	merged := make([]*domain.Candle, 0, len(byStart))
	for _, c := range byStart {
		merged = append(merged, c)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].StartTime < merged[j].StartTime })
	return merged
}
