package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"candlecache/internal/domain"
	"candlecache/internal/history"
)

type mockLogger struct {
	infoMsgs []string
	warnMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.infoMsgs = append(m.infoMsgs, msg)
}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.warnMsgs = append(m.warnMsgs, msg)
}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

type mockStore struct {
	data map[domain.CacheKey]domain.Series
}

func (m *mockStore) Load(ctx context.Context, key domain.CacheKey) (domain.Series, error) {
	return append(domain.Series{}, m.data[key]...), nil
}

func (m *mockStore) Persist(ctx context.Context, key domain.CacheKey, series domain.Series) error {
	m.data[key] = append(domain.Series{}, series...)
	return nil
}

type mockSource struct {
	universe []domain.Candle
	fetchErr error
}

func (m *mockSource) FetchHistory(ctx context.Context, pair, interval string, sinceMs int64) ([]domain.Candle, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	var out []domain.Candle
	for _, c := range m.universe {
		if c.Timestamp >= sinceMs {
			out = append(out, c)
		}
	}
	return out, nil
}

func newTestScheduler(t *testing.T, store *mockStore, source *mockSource, keys []domain.CacheKey) (*Scheduler, *mockLogger) {
	t.Helper()
	logger := &mockLogger{}
	syncer, err := history.NewSynchronizer(store, source, logger, 0)
	require.NoError(t, err)
	s, err := New(Config{
		CronSpec: "0 * * * * *",
		Keys:     keys,
		Syncer:   syncer,
		Logger:   logger,
	})
	require.NoError(t, err)
	return s, logger
}

func TestNew_Validation(t *testing.T) {
	store := &mockStore{data: map[domain.CacheKey]domain.Series{}}
	logger := &mockLogger{}
	syncer, err := history.NewSynchronizer(store, &mockSource{}, logger, 0)
	require.NoError(t, err)
	keys := []domain.CacheKey{{Pair: "ETH/USDT", Interval: "5m"}}

	_, err = New(Config{Keys: keys, Syncer: syncer})
	assert.Error(t, err, "logger missing")

	_, err = New(Config{Keys: keys, Logger: logger})
	assert.Error(t, err, "synchronizer missing")

	_, err = New(Config{Syncer: syncer, Logger: logger})
	assert.Error(t, err, "keys missing")

	_, err = New(Config{CronSpec: "not a cron spec", Keys: keys, Syncer: syncer, Logger: logger})
	assert.Error(t, err, "invalid cron spec")

	_, err = New(Config{Keys: keys, Syncer: syncer, Logger: logger})
	assert.NoError(t, err, "default cron spec")
}

func TestRunNow_SynchronizesAllKeys(t *testing.T) {
	keyA := domain.CacheKey{Pair: "ETH/USDT", Interval: "5m"}
	keyB := domain.CacheKey{Pair: "BTC/USDT", Interval: "5m"}
	// Candles must fall inside the cold-start lookback window.
	now := time.Now().UnixMilli()
	universe := []domain.Candle{
		{Timestamp: now - 10*60_000, Close: 1.0},
		{Timestamp: now - 5*60_000, Close: 1.3},
	}
	store := &mockStore{data: map[domain.CacheKey]domain.Series{}}
	source := &mockSource{universe: universe}
	sched, logger := newTestScheduler(t, store, source, []domain.CacheKey{keyA, keyB})

	sched.RunNow()

	assert.Len(t, store.data[keyA], 2)
	assert.Len(t, store.data[keyB], 2)
	assert.Contains(t, logger.infoMsgs, "Scheduled sync finished")
}

func TestRunNow_ReportsFailures(t *testing.T) {
	key := domain.CacheKey{Pair: "ETH/USDT", Interval: "5m"}
	store := &mockStore{data: map[domain.CacheKey]domain.Series{}}
	source := &mockSource{fetchErr: errors.New("venue down")}
	sched, logger := newTestScheduler(t, store, source, []domain.CacheKey{key})

	sched.RunNow()

	assert.Contains(t, logger.warnMsgs, "Scheduled sync finished with failures")
}

func TestStartStop(t *testing.T) {
	key := domain.CacheKey{Pair: "ETH/USDT", Interval: "5m"}
	store := &mockStore{data: map[domain.CacheKey]domain.Series{}}
	sched, logger := newTestScheduler(t, store, &mockSource{}, []domain.CacheKey{key})

	sched.Start()
	sched.Stop()

	assert.Contains(t, logger.infoMsgs, "Scheduler started")
	assert.Contains(t, logger.infoMsgs, "Scheduler stopped")
}
