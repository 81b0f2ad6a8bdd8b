package utils

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"klineFetcher/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCandlesToCSV_RoundTrip(t *testing.T) {
	candles := []*domain.Candle{
		{StartTime: 1700000000000, Open: 58.12345678, High: 58.9, Low: 57.75, Close: 58.5, Volume: 1234.5},
		{StartTime: 1700000300000, Open: 58.5, High: 59.00000001, Low: 58.1, Close: 58.75, Volume: 987.25},
		{StartTime: 1700000600000, Open: 58.75, High: 58.8, Low: 58.0, Close: 58.25, Volume: 0},
	}

	// Nested path exercises parent directory creation.
	path := filepath.Join(t.TempDir(), "sub", "dir", "candles.csv")
	require.NoError(t, WriteCandlesToCSV(candles, path))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(candles)+1)

	assert.Equal(t, []string{"timestamp", "open", "high", "low", "close", "volume"}, records[0])

	for i, c := range candles {
		row := records[i+1]
		require.Len(t, row, 6)

		start, err := strconv.ParseInt(row[0], 10, 64)
		require.NoError(t, err)
		assert.Equal(t, c.StartTime, start)

		want := []float64{c.Open, c.High, c.Low, c.Close, c.Volume}
		for j, expected := range want {
			got, err := strconv.ParseFloat(row[j+1], 64)
			require.NoError(t, err)
			assert.InDelta(t, expected, got, 1e-8)
		}
	}

	// Prices are fixed to 8 decimal places.
	assert.Equal(t, "58.12345678", records[1][1])
	assert.Equal(t, "0.00000000", records[3][5])
}

func TestWriteCandlesToCSV_EmptySeries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, WriteCandlesToCSV(nil, path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "timestamp,open,high,low,close,volume\n", string(content))
}

func TestWriteCandlesToCSV_UnwritablePath(t *testing.T) {
	// A file where a directory is expected makes MkdirAll fail.
	base := t.TempDir()
	blocker := filepath.Join(base, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	err := WriteCandlesToCSV(nil, filepath.Join(blocker, "out.csv"))
	assert.Error(t, err)
}
