package history

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"candlecache/internal/domain"
	"candlecache/internal/ports"
)

type mockGapFiller struct {
	called  int
	lastIn  domain.Series
	out     domain.Series
	fillErr error
}

func (m *mockGapFiller) FillGaps(series domain.Series, interval string) (domain.Series, error) {
	m.called++
	m.lastIn = series
	if m.fillErr != nil {
		return nil, m.fillErr
	}
	if m.out != nil {
		return m.out, nil
	}
	return series, nil
}

func newTestLoader(t *testing.T, store ports.CandleStore, syncer *Synchronizer, gapFiller ports.GapFiller) (*Loader, *mockLogger) {
	t.Helper()
	logger := &mockLogger{}
	l, err := NewLoader(store, syncer, gapFiller, logger)
	require.NoError(t, err)
	return l, logger
}

func TestNewLoader_RequiresStoreAndLogger(t *testing.T) {
	store := newMockStore()
	logger := &mockLogger{}

	_, err := NewLoader(nil, nil, nil, logger)
	assert.Error(t, err)
	_, err = NewLoader(store, nil, nil, nil)
	assert.Error(t, err)

	// Synchronizer and gap filler are optional.
	_, err = NewLoader(store, nil, nil, logger)
	assert.NoError(t, err)
}

func TestLoadOne_CacheOnly(t *testing.T) {
	key := domain.CacheKey{Pair: "ETH/USDT", Interval: "5m"}
	store := newMockStore()
	store.data[key] = seriesAt(1000, 1300, 1600)
	loader, _ := newTestLoader(t, store, nil, nil)

	series, err := loader.LoadOne(context.Background(), key, domain.TimeRange{}, false)
	require.NoError(t, err)
	assert.Equal(t, seriesAt(1000, 1300, 1600), series)
}

func TestLoadOne_RefreshWithoutSourceFails(t *testing.T) {
	key := domain.CacheKey{Pair: "ETH/USDT", Interval: "5m"}
	loader, _ := newTestLoader(t, newMockStore(), nil, nil)

	_, err := loader.LoadOne(context.Background(), key, domain.TimeRange{}, true)
	assert.ErrorIs(t, err, ports.ErrMissingFetcher)
}

func TestLoadOne_RefreshSynchronizesFirst(t *testing.T) {
	key := domain.CacheKey{Pair: "ETH/USDT", Interval: "5m"}
	store := newMockStore()
	store.data[key] = seriesAt(1000, 1300, 1600)
	source := &mockSource{universe: seriesAt(1000, 1300, 1600, 1900)}
	syncer, _ := newTestSynchronizer(t, store, source)
	loader, _ := newTestLoader(t, store, syncer, nil)

	series, err := loader.LoadOne(context.Background(), key, domain.TimeRange{}, true)
	require.NoError(t, err)
	assert.Equal(t, seriesAt(1000, 1300, 1600, 1900), series)
}

func TestLoadOne_SyncFailureFallsBackToCache(t *testing.T) {
	key := domain.CacheKey{Pair: "ETH/USDT", Interval: "5m"}
	store := newMockStore()
	store.data[key] = seriesAt(1000, 1300, 1600)
	source := &mockSource{fetchErr: errors.New("venue down")}
	syncer, _ := newTestSynchronizer(t, store, source)
	loader, logger := newTestLoader(t, store, syncer, nil)

	series, err := loader.LoadOne(context.Background(), key, domain.TimeRange{}, true)
	require.NoError(t, err)
	assert.Equal(t, seriesAt(1000, 1300, 1600), series)
	assert.Contains(t, logger.warnMsgs, "Refresh failed, using cached data")
}

func TestLoadOne_TrimsToRange(t *testing.T) {
	key := domain.CacheKey{Pair: "ETH/USDT", Interval: "1m"}
	store := newMockStore()
	store.data[key] = seriesAt(100_000, 160_000, 220_000)
	loader, _ := newTestLoader(t, store, nil, nil)

	series, err := loader.LoadOne(context.Background(), key, domain.DateRange(130, 400), false)
	require.NoError(t, err)
	assert.Equal(t, seriesAt(160_000, 220_000), series)
}

func TestLoadOne_InvertedRangePropagates(t *testing.T) {
	key := domain.CacheKey{Pair: "ETH/USDT", Interval: "1m"}
	store := newMockStore()
	store.data[key] = seriesAt(100_000, 160_000, 220_000)
	loader, _ := newTestLoader(t, store, nil, nil)

	tr := domain.NewTimeRange(domain.BoundIndex, domain.BoundIndex, 2, 1)
	_, err := loader.LoadOne(context.Background(), key, tr, false)
	require.Error(t, err)

	var rangeErr *domain.RangeError
	assert.ErrorAs(t, err, &rangeErr)
}

func TestLoadOne_EmptyCacheWithRangeIsNoOp(t *testing.T) {
	key := domain.CacheKey{Pair: "ETH/USDT", Interval: "5m"}
	loader, _ := newTestLoader(t, newMockStore(), nil, nil)

	tr := domain.NewTimeRange(domain.BoundIndex, domain.BoundNone, 5, 0)
	series, err := loader.LoadOne(context.Background(), key, tr, false)
	require.NoError(t, err)
	assert.Empty(t, series)
}

func TestLoadOne_WarnsMissingEdges(t *testing.T) {
	key := domain.CacheKey{Pair: "ETH/USDT", Interval: "1m"}
	store := newMockStore()
	store.data[key] = seriesAt(160_000, 220_000)
	loader, logger := newTestLoader(t, store, nil, nil)

	series, err := loader.LoadOne(context.Background(), key, domain.DateRange(100, 400), false)
	require.NoError(t, err)
	assert.Equal(t, seriesAt(160_000, 220_000), series)
	assert.Contains(t, logger.warnMsgs, "Missing data at start of range")
	assert.Contains(t, logger.warnMsgs, "Missing data at end of range")
}

func TestLoadOne_GapFillerRunsOnTrimmedSeries(t *testing.T) {
	key := domain.CacheKey{Pair: "ETH/USDT", Interval: "1m"}
	store := newMockStore()
	store.data[key] = seriesAt(100_000, 160_000, 220_000)
	filler := &mockGapFiller{out: seriesAt(160_000, 190_000, 220_000)}
	loader, _ := newTestLoader(t, store, nil, filler)

	series, err := loader.LoadOne(context.Background(), key, domain.SinceDate(130), false)
	require.NoError(t, err)
	assert.Equal(t, 1, filler.called)
	assert.Equal(t, seriesAt(160_000, 220_000), filler.lastIn)
	assert.Equal(t, filler.out, series)
}

func TestLoadOne_GapFillerSkippedWhenEmpty(t *testing.T) {
	key := domain.CacheKey{Pair: "ETH/USDT", Interval: "1m"}
	filler := &mockGapFiller{}
	loader, _ := newTestLoader(t, newMockStore(), nil, filler)

	series, err := loader.LoadOne(context.Background(), key, domain.TimeRange{}, false)
	require.NoError(t, err)
	assert.Empty(t, series)
	assert.Equal(t, 0, filler.called)
}

func TestLoadMany_OmitsFailingKeys(t *testing.T) {
	good := domain.CacheKey{Pair: "ETH/USDT", Interval: "5m"}
	bad := domain.CacheKey{Pair: "BTC/USDT", Interval: "5m"}
	store := newMockStore()
	store.data[good] = seriesAt(1000, 1300)
	store.loadErr = errors.New("store offline")
	store.failKey = bad
	loader, logger := newTestLoader(t, store, nil, nil)

	result, err := loader.LoadMany(context.Background(), []domain.CacheKey{good, bad}, domain.TimeRange{}, false)
	require.NoError(t, err)

	require.Len(t, result, 1)
	assert.Equal(t, seriesAt(1000, 1300), result[good])
	assert.Contains(t, logger.warnMsgs, "Skipping pair, load failed")
}

func TestLoadMany_OmitsEmptyKeys(t *testing.T) {
	full := domain.CacheKey{Pair: "ETH/USDT", Interval: "5m"}
	empty := domain.CacheKey{Pair: "BTC/USDT", Interval: "5m"}
	store := newMockStore()
	store.data[full] = seriesAt(1000, 1300)
	loader, logger := newTestLoader(t, store, nil, nil)

	result, err := loader.LoadMany(context.Background(), []domain.CacheKey{full, empty}, domain.TimeRange{}, false)
	require.NoError(t, err)

	require.Len(t, result, 1)
	assert.Contains(t, result, full)
	assert.Contains(t, logger.warnMsgs, "No history for pair, skipping")
}

func TestLoadMany_RefreshWithoutSourceFails(t *testing.T) {
	loader, _ := newTestLoader(t, newMockStore(), nil, nil)

	keys := []domain.CacheKey{{Pair: "ETH/USDT", Interval: "5m"}}
	_, err := loader.LoadMany(context.Background(), keys, domain.TimeRange{}, true)
	assert.ErrorIs(t, err, ports.ErrMissingFetcher)
}
