package resample

import (
	"context"
	"fmt"

	"candlecache/internal/domain"
	"candlecache/internal/ports"
)

// Filler implements ports.GapFiller by inserting flat candles wherever the
// series skips one or more intervals. A synthetic candle carries the previous
// close as all four prices and zero volume, so consumers see a dense series
// without invented price movement.
type Filler struct {
	logger ports.Logger
}

// Config holds configuration for the gap filler.
type Config struct {
	Logger ports.Logger
}

// New creates a gap filler.
func New(cfg Config) (*Filler, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for gap filler")
	}
	return &Filler{logger: cfg.Logger}, nil
}

// FillGaps returns the series with every missing interval filled by a flat
// candle. Series with fewer than two candles are returned unchanged.
func (f *Filler) FillGaps(series domain.Series, interval string) (domain.Series, error) {
	step, err := domain.IntervalDuration(interval)
	if err != nil {
		return nil, err
	}
	stepMs := step.Milliseconds()

	if len(series) < 2 {
		return series, nil
	}

	filled := make(domain.Series, 0, len(series))
	filled = append(filled, series[0])
	inserted := 0

	for _, c := range series[1:] {
		prev := filled[len(filled)-1]
		for ts := prev.Timestamp + stepMs; ts < c.Timestamp; ts += stepMs {
			filled = append(filled, domain.Candle{
				Timestamp: ts,
				Open:      prev.Close,
				High:      prev.Close,
				Low:       prev.Close,
				Close:     prev.Close,
				Volume:    0,
			})
			inserted++
		}
		filled = append(filled, c)
	}

	if inserted > 0 {
		f.logger.Debug(context.Background(), "Filled missing candles", map[string]interface{}{
			"interval": interval, "inserted": inserted, "candles": len(filled)})
	}
	return filled, nil
}
