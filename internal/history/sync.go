package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"candlecache/internal/domain"
	"candlecache/internal/ports"
)

// defaultLookback bounds how far back a cold synchronization reaches when the
// caller gives no time range: 30 days of history.
const defaultLookback = 30 * 24 * time.Hour

// SyncStage identifies which step of a synchronization failed.
type SyncStage string

const (
	StageLoad    SyncStage = "load"
	StagePlan    SyncStage = "plan"
	StageFetch   SyncStage = "fetch"
	StagePersist SyncStage = "persist"
)

// SyncError reports a failed synchronization of one cache key. It keeps the
// key identity and the failing stage so multi-key callers can log it and
// move on.
type SyncError struct {
	Key   domain.CacheKey
	Stage SyncStage
	Err   error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s for %s failed: %v", e.Stage, e.Key, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// Synchronizer keeps cached candle series up to date against a history
// source. Syncs of the same key are serialized; different keys do not block
// each other.
type Synchronizer struct {
	store    ports.CandleStore
	source   ports.HistorySource
	logger   ports.Logger
	lookback time.Duration
	now      func() time.Time

	mu    sync.Mutex
	locks map[domain.CacheKey]*sync.Mutex
}

// NewSynchronizer creates a synchronizer. A non-positive lookback selects the
// 30 day default.
func NewSynchronizer(store ports.CandleStore, source ports.HistorySource, logger ports.Logger, lookback time.Duration) (*Synchronizer, error) {
	if store == nil || source == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for Synchronizer")
	}
	if lookback <= 0 {
		lookback = defaultLookback
	}
	return &Synchronizer{
		store:    store,
		source:   source,
		logger:   logger,
		lookback: lookback,
		now:      time.Now,
		locks:    make(map[domain.CacheKey]*sync.Mutex),
	}, nil
}

// keyLock returns the mutex serializing syncs of one key.
func (s *Synchronizer) keyLock(key domain.CacheKey) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// planSync decides the fetch cursor and which cached candles survive as the
// trusted prefix. The last cached candle is always dropped and re-fetched
// because it may have been persisted while its interval was still open.
func (s *Synchronizer) planSync(cached domain.Series, interval string, tr domain.TimeRange) (domain.Series, int64, error) {
	var sinceMs int64

	switch {
	case tr.HasDateStart():
		sinceMs = tr.StartMs()
	case tr.HasLineStop():
		minutes, err := domain.IntervalMinutes(interval)
		if err != nil {
			return nil, 0, err
		}
		sinceMs = s.now().Add(-time.Duration(tr.StopTS*minutes) * time.Minute).UnixMilli()
	}

	trusted := cached.DropLast()
	if len(trusted) > 0 {
		first, _ := trusted.FirstTimestamp()
		if sinceMs != 0 && sinceMs < first {
			// The requested start predates the cache, so the cached series
			// cannot satisfy it. Discard and re-download from the start.
			return domain.Series{}, sinceMs, nil
		}
		last, _ := trusted.LastTimestamp()
		return trusted, last + 1, nil
	}

	if sinceMs == 0 {
		sinceMs = s.now().Add(-s.lookback).UnixMilli()
	}
	return trusted, sinceMs, nil
}

// Sync brings the cached series for the key up to date: load, drop the
// untrusted tail, fetch everything past the cursor, merge and persist. Any
// failure comes back as a *SyncError naming the key and stage; Sync never
// panics and leaves the previous cache intact on failure.
func (s *Synchronizer) Sync(ctx context.Context, key domain.CacheKey, tr domain.TimeRange) error {
	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	cached, err := s.store.Load(ctx, key)
	if err != nil {
		s.logger.Error(ctx, err, "Cache load failed", map[string]interface{}{
			"pair": key.Pair, "interval": key.Interval})
		return &SyncError{Key: key, Stage: StageLoad, Err: err}
	}

	trusted, sinceMs, err := s.planSync(cached, key.Interval, tr)
	if err != nil {
		return &SyncError{Key: key, Stage: StagePlan, Err: err}
	}

	s.logger.Info(ctx, "Downloading candle history", map[string]interface{}{
		"pair": key.Pair, "interval": key.Interval,
		"since": time.UnixMilli(sinceMs).UTC().Format(time.RFC3339), "cached": len(trusted)})

	fetched, err := s.source.FetchHistory(ctx, key.Pair, key.Interval, sinceMs)
	if err != nil {
		s.logger.Error(ctx, err, "History fetch failed", map[string]interface{}{
			"pair": key.Pair, "interval": key.Interval, "sinceMs": sinceMs})
		return &SyncError{Key: key, Stage: StageFetch, Err: err}
	}

	merged, discarded := trusted.Extend(fetched)
	if discarded > 0 {
		s.logger.Warn(ctx, "Discarded non-advancing fetched candles", map[string]interface{}{
			"pair": key.Pair, "interval": key.Interval, "discarded": discarded})
	}

	if err := s.store.Persist(ctx, key, merged); err != nil {
		s.logger.Error(ctx, err, "Cache persist failed", map[string]interface{}{
			"pair": key.Pair, "interval": key.Interval, "candles": len(merged)})
		return &SyncError{Key: key, Stage: StagePersist, Err: err}
	}

	s.logger.Debug(ctx, "Candle series synchronized", map[string]interface{}{
		"pair": key.Pair, "interval": key.Interval, "fetched": len(fetched), "total": len(merged)})
	return nil
}

// SyncAll synchronizes each key in sequence. Failures are collected per key;
// one bad key never aborts the rest.
func (s *Synchronizer) SyncAll(ctx context.Context, keys []domain.CacheKey, tr domain.TimeRange) map[domain.CacheKey]error {
	failures := make(map[domain.CacheKey]error)
	for _, key := range keys {
		if err := s.Sync(ctx, key, tr); err != nil {
			failures[key] = err
		}
	}
	return failures
}
