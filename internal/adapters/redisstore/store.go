package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"candlecache/internal/domain"
	"candlecache/internal/ports"

	"github.com/redis/go-redis/v9"
)

// Store implements ports.CandleStore on Redis. Each cache key maps to one
// Redis string holding the whole series in the shared row layout, so a SET is
// the same atomic whole-replace the file store gets from its rename.
type Store struct {
	rdb    *redis.Client
	logger ports.Logger
}

// Config holds configuration for the Redis candle store.
type Config struct {
	Addr     string
	Password string
	DB       int
	Logger   ports.Logger
}

// New creates a Redis-backed candle store and pings the server to make sure
// it is reachable.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Redis store")
	}
	addr := cfg.Addr
	if addr == "" {
		addr = "localhost:6379" // Default address
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		err = fmt.Errorf("failed to ping redis at '%s': %w: %w", addr, ports.ErrStoreUnavailable, err)
		cfg.Logger.Error(ctx, err, "Redis store initialization failed")
		return nil, err
	}

	cfg.Logger.Info(ctx, "Redis candle store ready", map[string]interface{}{"addr": addr, "db": cfg.DB})
	return &Store{rdb: rdb, logger: cfg.Logger}, nil
}

// Close shuts down the Redis client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// candlesKey builds the Redis key for one cached series.
func candlesKey(key domain.CacheKey) string {
	return fmt.Sprintf("candles:%s:%s", key.SafePair(), key.Interval)
}

// Load returns the cached series for the key. A missing key is a cold start
// and loads as an empty series; an undecodable value is logged as a warning
// and also loads as empty.
func (s *Store) Load(ctx context.Context, key domain.CacheKey) (domain.Series, error) {
	data, err := s.rdb.Get(ctx, candlesKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			s.logger.Debug(ctx, "No cached value, starting cold", map[string]interface{}{
				"pair": key.Pair, "interval": key.Interval})
			return domain.Series{}, nil
		}
		return nil, fmt.Errorf("failed to get candles for %s: %w: %w", key, ports.ErrQueryFailed, err)
	}

	var series domain.Series
	if err := json.Unmarshal(data, &series); err != nil {
		s.logger.Warn(ctx, "Cached value is corrupt, treating as empty", map[string]interface{}{
			"pair": key.Pair, "interval": key.Interval, "error": err.Error()})
		return domain.Series{}, nil
	}

	s.logger.Debug(ctx, "Loaded candle series", map[string]interface{}{
		"pair": key.Pair, "interval": key.Interval, "candles": len(series)})
	return series, nil
}

// Persist sets the encoded series under the key, replacing any previous value.
func (s *Store) Persist(ctx context.Context, key domain.CacheKey, series domain.Series) error {
	if series == nil {
		series = domain.Series{}
	}
	data, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("failed to encode series for '%s': %w", key, err)
	}

	if err := s.rdb.Set(ctx, candlesKey(key), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set candles for %s: %w: %w", key, ports.ErrPersistFailed, err)
	}

	s.logger.Debug(ctx, "Persisted candle series", map[string]interface{}{
		"pair": key.Pair, "interval": key.Interval, "candles": len(series)})
	return nil
}
