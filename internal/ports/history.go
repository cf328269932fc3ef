package ports

import (
	"context"

	"candlecache/internal/domain"
)

// HistorySource fetches historical candles from a remote market-data provider.
// This abstraction keeps the synchronizer independent of any concrete exchange
// client; rate limiting, authentication and the wire protocol live behind it.
type HistorySource interface {
	// FetchHistory retrieves candles for the pair and interval starting at
	// sinceMs (Unix milliseconds), ordered ascending by open time. An empty
	// result is valid and distinct from an error.
	FetchHistory(ctx context.Context, pair, interval string, sinceMs int64) ([]domain.Candle, error)
}

// CandleStore persists one candle series per cache key.
type CandleStore interface {
	// Load returns the cached series for the key. An absent cache is a cold
	// start and loads as an empty series with no error; an unreadable cache
	// is logged and also loads as empty.
	Load(ctx context.Context, key domain.CacheKey) (domain.Series, error)

	// Persist atomically replaces the stored series for the key. Readers
	// never observe a partially written series.
	Persist(ctx context.Context, key domain.CacheKey, series domain.Series) error
}

// GapFiller densifies a trimmed series before it is handed to consumers.
// The loader treats the capability as opaque.
type GapFiller interface {
	// FillGaps returns the series with every missing interval filled in.
	FillGaps(series domain.Series, interval string) (domain.Series, error)
}
