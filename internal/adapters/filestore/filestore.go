package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"candlecache/internal/domain"
	"candlecache/internal/ports"
)

// Store implements ports.CandleStore on plain JSON files, one file per cache
// key. Each file holds the series as an array of
// [timestampMs, open, high, low, close, volume] rows.
type Store struct {
	dataDir string
	logger  ports.Logger
}

// Config holds configuration for the file store.
type Config struct {
	DataDir string
	Logger  ports.Logger
}

// New creates a file-backed candle store rooted at cfg.DataDir.
func New(cfg Config) (*Store, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for file store")
	}
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "./data/history" // Default path
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", dataDir, err)
		cfg.Logger.Error(context.Background(), err, "File store initialization failed")
		return nil, err
	}

	return &Store{dataDir: dataDir, logger: cfg.Logger}, nil
}

// path returns the cache file for a key: <PAIR with slashes replaced>-<interval>.json
func (s *Store) path(key domain.CacheKey) string {
	return filepath.Join(s.dataDir, key.String()+".json")
}

// Load reads the cached series for the key. A missing file is a cold start and
// loads as an empty series; a corrupt or unreadable file is logged as a warning
// and also loads as empty, so one bad cache degrades to a re-download.
func (s *Store) Load(ctx context.Context, key domain.CacheKey) (domain.Series, error) {
	path := s.path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug(ctx, "No cache file, starting cold", map[string]interface{}{
				"pair": key.Pair, "interval": key.Interval, "path": path})
			return domain.Series{}, nil
		}
		s.logger.Warn(ctx, "Cache file is unreadable, treating as empty", map[string]interface{}{
			"pair": key.Pair, "interval": key.Interval, "path": path, "error": err.Error()})
		return domain.Series{}, nil
	}

	var series domain.Series
	if err := json.Unmarshal(data, &series); err != nil {
		s.logger.Warn(ctx, "Cache file is corrupt, treating as empty", map[string]interface{}{
			"pair": key.Pair, "interval": key.Interval, "path": path, "error": err.Error()})
		return domain.Series{}, nil
	}

	s.logger.Debug(ctx, "Loaded candle series", map[string]interface{}{
		"pair": key.Pair, "interval": key.Interval, "candles": len(series)})
	return series, nil
}

// Persist writes the series to a temp file next to the target and renames it
// into place. The rename is what makes the replace atomic, so the temp file
// must stay in the same directory as the target.
func (s *Store) Persist(ctx context.Context, key domain.CacheKey, series domain.Series) error {
	if series == nil {
		series = domain.Series{}
	}
	data, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("failed to encode series for '%s': %w", key, err)
	}

	tmp, err := os.CreateTemp(s.dataDir, key.String()+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in '%s': %w: %w", s.dataDir, ports.ErrPersistFailed, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file '%s': %w: %w", tmpPath, ports.ErrPersistFailed, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file '%s': %w: %w", tmpPath, ports.ErrPersistFailed, err)
	}

	path := s.path(key)
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace cache file '%s': %w: %w", path, ports.ErrPersistFailed, err)
	}

	s.logger.Debug(ctx, "Persisted candle series", map[string]interface{}{
		"pair": key.Pair, "interval": key.Interval, "candles": len(series), "path": path})
	return nil
}
