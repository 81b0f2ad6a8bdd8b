package utils

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"klineFetcher/internal/domain"
)

// WriteCandlesToCSV writes the candle series to a CSV file, creating any
// missing parent directories. Timestamps are plain epoch-millisecond integers;
// prices and volume are formatted to 8 decimal places.
func WriteCandlesToCSV(candles []*domain.Candle, filename string) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	writer.Write([]string{"timestamp", "open", "high", "low", "close", "volume"})

	for _, c := range candles {
		writer.Write([]string{
			strconv.FormatInt(c.StartTime, 10),
			strconv.FormatFloat(c.Open, 'f', 8, 64),
			strconv.FormatFloat(c.High, 'f', 8, 64),
			strconv.FormatFloat(c.Low, 'f', 8, 64),
			strconv.FormatFloat(c.Close, 'f', 8, 64),
			strconv.FormatFloat(c.Volume, 'f', 8, 64),
		})
	}
	return writer.Error()
}
