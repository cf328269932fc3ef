package utils

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"candlecache/internal/domain"
)

// WriteSeriesCSV exports a candle series for spreadsheet or notebook use.
func WriteSeriesCSV(key domain.CacheKey, series domain.Series, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	writer.Write([]string{"time", "pair", "interval", "open", "high", "low", "close", "volume"})

	for _, c := range series {
		writer.Write([]string{
			c.Time().Format(time.RFC3339),
			key.Pair,
			key.Interval,
			strconv.FormatFloat(c.Open, 'f', -1, 64),
			strconv.FormatFloat(c.High, 'f', -1, 64),
			strconv.FormatFloat(c.Low, 'f', -1, 64),
			strconv.FormatFloat(c.Close, 'f', -1, 64),
			strconv.FormatFloat(c.Volume, 'f', -1, 64),
		})
	}
	return writer.Error()
}
