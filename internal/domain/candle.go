package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Candle is a single OHLCV bar.
type Candle struct {
	Timestamp int64   // Interval open time, Unix milliseconds
	Open      float64 // Opening price
	High      float64 // Highest price
	Low       float64 // Lowest price
	Close     float64 // Closing price
	Volume    float64 // Traded volume
}

// Time returns the candle open time in UTC.
func (c Candle) Time() time.Time {
	return time.UnixMilli(c.Timestamp).UTC()
}

// MarshalJSON encodes the candle as the fixed-width row
// [timestampMs, open, high, low, close, volume]. This is the storage layout
// shared by every store backend.
func (c Candle) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{c.Timestamp, c.Open, c.High, c.Low, c.Close, c.Volume})
}

// UnmarshalJSON decodes a row produced by MarshalJSON.
func (c *Candle) UnmarshalJSON(data []byte) error {
	var row []float64
	if err := json.Unmarshal(data, &row); err != nil {
		return err
	}
	if len(row) != 6 {
		return fmt.Errorf("candle row has %d columns, want 6", len(row))
	}
	c.Timestamp = int64(row[0])
	c.Open = row[1]
	c.High = row[2]
	c.Low = row[3]
	c.Close = row[4]
	c.Volume = row[5]
	return nil
}

// CacheKey identifies one cached series: a trading pair at one interval.
type CacheKey struct {
	Pair     string // Trading pair, e.g. "BTC/USDT"
	Interval string // Candle interval, e.g. "5m"
}

// SafePair returns the pair with path separators replaced so it can be used
// in file names and store keys.
func (k CacheKey) SafePair() string {
	return strings.ReplaceAll(k.Pair, "/", "_")
}

func (k CacheKey) String() string {
	return k.SafePair() + "-" + k.Interval
}
