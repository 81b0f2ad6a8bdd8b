package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"klineFetcher/config"
	"klineFetcher/internal/adapters/bybitclient"
	"klineFetcher/internal/adapters/logger"
	"klineFetcher/internal/backfill"
	"klineFetcher/internal/domain"
	"klineFetcher/internal/utils"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger, err := logger.NewZapLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()
	ctx := context.Background()
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Exchange Client (Bybit Adapter)
	bybitClient, err := bybitclient.New(bybitclient.Config{
		BaseURL: cfg.BaseURL,
		Logger:  appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize Bybit client")
		log.Fatalf("FATAL: Failed to initialize Bybit client: %v", err)
	}
	appLogger.Info(ctx, "Bybit client initialized", map[string]interface{}{"baseURL": cfg.BaseURL})

	backfiller, err := backfill.New(backfill.Config{
		Fetcher: bybitClient,
		Logger:  appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize backfiller")
		log.Fatalf("FATAL: Failed to initialize backfiller: %v", err)
	}

	end := time.Now()
	start := end.Add(-cfg.Lookback())

	fmt.Printf("Fetching %s klines for %s (%sm candles) from %s to %s...\n",
		cfg.Category, cfg.Symbol, cfg.Interval, start.Format("2006-01-02"), end.Format("2006-01-02"))
	candles, err := backfiller.FetchAll(ctx, cfg.Symbol, cfg.Category, cfg.Interval, start, end)
	if err != nil {
		appLogger.Error(ctx, err, "Error fetching klines")
		log.Fatalf("Error fetching klines: %v", err)
	}
	appLogger.Info(ctx, "Fetched klines", map[string]interface{}{"count": len(candles)})

	filename := filepath.Join(cfg.OutputDir, fmt.Sprintf("%s_%sm_%s_to_%s.csv",
		cfg.Symbol, cfg.Interval, start.Format("20060102"), end.Format("20060102")))
	if err := utils.WriteCandlesToCSV(candles, filename); err != nil {
		appLogger.Error(ctx, err, "Error writing CSV", map[string]interface{}{"filename": filename})
		log.Fatalf("Error writing CSV: %v", err)
	}
	appLogger.Info(ctx, "Saved to", map[string]interface{}{"filename": filename})
	fmt.Printf("Saved %d candles to %s\n", len(candles), filename)

	printSummary(candles, cfg.Interval)
}

// printSummary prints basic stats about the downloaded series.
func printSummary(candles []*domain.Candle, interval string) {
	if len(candles) == 0 {
		return
	}
	first := candles[0]
	last := candles[len(candles)-1]

	var totalVolume float64
	highPrice := first.High
	lowPrice := first.Low
	for _, c := range candles {
		totalVolume += c.Volume
		if c.High > highPrice {
			highPrice = c.High
		}
		if c.Low < lowPrice {
			lowPrice = c.Low
		}
	}

	fmt.Println("Data summary:")
	fmt.Printf("  First: %s\n", time.UnixMilli(first.StartTime).UTC().Format("2006-01-02 15:04:05"))
	fmt.Printf("  Last:  %s\n", time.UnixMilli(last.StartTime).UTC().Format("2006-01-02 15:04:05"))
	fmt.Printf("  Total: %d %sm candles\n", len(candles), interval)
	fmt.Printf("  High:  %.8f\n", highPrice)
	fmt.Printf("  Low:   %.8f\n", lowPrice)
	fmt.Printf("  Avg volume: %.8f\n", totalVolume/float64(len(candles)))
}
