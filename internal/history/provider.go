package history

import (
	"context"
	"fmt"

	"candlecache/internal/domain"
	"candlecache/internal/ports"
)

// DataProvider is the read-side facade for consumers that want tabular data
// without driving the loader themselves.
type DataProvider struct {
	loader *Loader
	logger ports.Logger
}

// NewDataProvider creates a data provider on top of a loader.
func NewDataProvider(loader *Loader, logger ports.Logger) (*DataProvider, error) {
	if loader == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for DataProvider")
	}
	return &DataProvider{loader: loader, logger: logger}, nil
}

// HistoricOHLCV returns the cached series for the pair as a column frame.
// It reads the cache as-is; call Refresh first for up-to-date data.
func (p *DataProvider) HistoricOHLCV(ctx context.Context, pair, interval string) (domain.Frame, error) {
	key := domain.CacheKey{Pair: pair, Interval: interval}
	series, err := p.loader.LoadOne(ctx, key, domain.TimeRange{}, false)
	if err != nil {
		return domain.Frame{}, err
	}
	return series.Frame(), nil
}

// Refresh synchronizes the given keys without materializing their series.
func (p *DataProvider) Refresh(ctx context.Context, keys []domain.CacheKey, tr domain.TimeRange) error {
	if p.loader.syncer == nil {
		return ports.ErrMissingFetcher
	}
	failures := p.loader.syncer.SyncAll(ctx, keys, tr)
	if len(failures) > 0 {
		return fmt.Errorf("refresh failed for %d of %d keys", len(failures), len(keys))
	}
	return nil
}
