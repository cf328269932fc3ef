package history

import (
	"context"
	"fmt"
	"time"

	"candlecache/internal/domain"
	"candlecache/internal/ports"
)

// Loader materializes trimmed candle series for consumers, optionally
// refreshing the cache first.
type Loader struct {
	store     ports.CandleStore
	syncer    *Synchronizer
	gapFiller ports.GapFiller
	logger    ports.Logger
}

// NewLoader creates a loader. The synchronizer may be nil for cache-only use
// and the gap filler may be nil to skip densification.
func NewLoader(store ports.CandleStore, syncer *Synchronizer, gapFiller ports.GapFiller, logger ports.Logger) (*Loader, error) {
	if store == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for Loader")
	}
	return &Loader{store: store, syncer: syncer, gapFiller: gapFiller, logger: logger}, nil
}

// LoadOne returns the trimmed series for one key. With refresh, the cache is
// synchronized first; a sync failure is logged and the loader falls back to
// whatever is cached. Requesting refresh without a configured history source
// is a ports.ErrMissingFetcher.
func (l *Loader) LoadOne(ctx context.Context, key domain.CacheKey, tr domain.TimeRange, refresh bool) (domain.Series, error) {
	if refresh {
		if l.syncer == nil {
			return nil, fmt.Errorf("cannot refresh %s: %w", key, ports.ErrMissingFetcher)
		}
		if err := l.syncer.Sync(ctx, key, tr); err != nil {
			l.logger.Warn(ctx, "Refresh failed, using cached data", map[string]interface{}{
				"pair": key.Pair, "interval": key.Interval, "error": err.Error()})
		}
	}

	series, err := l.store.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load cached series for %s: %w", key, err)
	}

	trimmed, err := series.Trim(tr)
	if err != nil {
		return nil, fmt.Errorf("failed to trim series for %s: %w", key, err)
	}

	l.warnMissingEdges(ctx, key, tr, trimmed)

	if l.gapFiller != nil && len(trimmed) > 0 {
		filled, err := l.gapFiller.FillGaps(trimmed, key.Interval)
		if err != nil {
			return nil, fmt.Errorf("failed to fill gaps for %s: %w", key, err)
		}
		trimmed = filled
	}

	return trimmed, nil
}

// warnMissingEdges flags date-bounded requests the data could not fully cover.
func (l *Loader) warnMissingEdges(ctx context.Context, key domain.CacheKey, tr domain.TimeRange, series domain.Series) {
	if len(series) == 0 {
		return
	}
	if tr.HasDateStart() {
		if first, ok := series.FirstTimestamp(); ok && first > tr.StartMs() {
			l.logger.Warn(ctx, "Missing data at start of range", map[string]interface{}{
				"pair": key.Pair, "interval": key.Interval,
				"requestedStart": time.UnixMilli(tr.StartMs()).UTC().Format(time.RFC3339),
				"dataStart":      time.UnixMilli(first).UTC().Format(time.RFC3339)})
		}
	}
	if tr.HasDateStop() {
		if last, ok := series.LastTimestamp(); ok && last < tr.StopMs() {
			l.logger.Warn(ctx, "Missing data at end of range", map[string]interface{}{
				"pair": key.Pair, "interval": key.Interval,
				"requestedStop": time.UnixMilli(tr.StopMs()).UTC().Format(time.RFC3339),
				"dataEnd":       time.UnixMilli(last).UTC().Format(time.RFC3339)})
		}
	}
}

// LoadMany returns trimmed series for several keys. Keys that fail or hold no
// data are logged and omitted from the result; one bad key never aborts the
// rest. Requesting refresh without a history source fails up front, since
// that is a configuration bug rather than per-key data state.
func (l *Loader) LoadMany(ctx context.Context, keys []domain.CacheKey, tr domain.TimeRange, refresh bool) (map[domain.CacheKey]domain.Series, error) {
	if refresh && l.syncer == nil {
		return nil, fmt.Errorf("cannot refresh: %w", ports.ErrMissingFetcher)
	}

	result := make(map[domain.CacheKey]domain.Series, len(keys))
	for _, key := range keys {
		series, err := l.LoadOne(ctx, key, tr, refresh)
		if err != nil {
			l.logger.Warn(ctx, "Skipping pair, load failed", map[string]interface{}{
				"pair": key.Pair, "interval": key.Interval, "error": err.Error()})
			continue
		}
		if len(series) == 0 {
			l.logger.Warn(ctx, "No history for pair, skipping", map[string]interface{}{
				"pair": key.Pair, "interval": key.Interval})
			continue
		}
		result[key] = series
	}
	return result, nil
}
