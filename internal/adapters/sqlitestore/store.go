package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"candlecache/internal/domain"
	"candlecache/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Store implements ports.CandleStore on an embedded SQLite database. All
// series share one candles table keyed by (pair, interval, ts); Persist
// replaces a key's rows inside a single transaction, which preserves the
// whole-replace semantics of the file layout.
type Store struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite candle store.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// New creates a SQLite-backed candle store.
func New(cfg Config) (*Store, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite store")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/candles.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite store initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000") // WAL mode for better concurrency
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite store initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close() // Close the connection if ping fails
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite store initialization failed")
		return nil, err
	}

	db.SetMaxOpenConns(1) // SQLite handles concurrency internally, limit Go-side connections
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	store := &Store{db: db, logger: cfg.Logger}

	if err := store.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite store initialization failed")
		return nil, err
	}

	cfg.Logger.Info(context.Background(), "SQLite candle store ready", map[string]interface{}{"path": dbPath})
	return store, nil
}

// initializeSchema creates the candles table if it doesn't exist.
func (s *Store) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS candles (
		pair     TEXT    NOT NULL,
		interval TEXT    NOT NULL,
		ts       INTEGER NOT NULL,
		open     REAL    NOT NULL,
		high     REAL    NOT NULL,
		low      REAL    NOT NULL,
		close    REAL    NOT NULL,
		volume   REAL    NOT NULL,
		PRIMARY KEY (pair, interval, ts)
	);
	`
	_, err := s.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		s.logger.Info(context.Background(), "Closing SQLite candle store")
		return s.db.Close()
	}
	return nil
}

// Load returns the stored series for the key, ordered by open time ascending.
// A key with no rows loads as an empty series.
func (s *Store) Load(ctx context.Context, key domain.CacheKey) (domain.Series, error) {
	const query = `
	SELECT ts, open, high, low, close, volume
	FROM candles
	WHERE pair = ? AND interval = ?
	ORDER BY ts ASC`

	rows, err := s.db.QueryContext(ctx, query, key.Pair, key.Interval)
	if err != nil {
		return nil, fmt.Errorf("failed to query candles for %s: %w: %w", key, ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	series := domain.Series{}
	for rows.Next() {
		var c domain.Candle
		if err := rows.Scan(&c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan candle row for %s: %w: %w", key, ports.ErrQueryFailed, err)
		}
		series = append(series, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read candle rows for %s: %w: %w", key, ports.ErrQueryFailed, err)
	}

	s.logger.Debug(ctx, "Loaded candle series", map[string]interface{}{
		"pair": key.Pair, "interval": key.Interval, "candles": len(series)})
	return series, nil
}

// Persist replaces the key's rows with the given series in one transaction.
func (s *Store) Persist(ctx context.Context, key domain.CacheKey, series domain.Series) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for %s: %w: %w", key, ports.ErrPersistFailed, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM candles WHERE pair = ? AND interval = ?`, key.Pair, key.Interval); err != nil {
		return fmt.Errorf("failed to clear candles for %s: %w: %w", key, ports.ErrPersistFailed, err)
	}

	const insert = `
	INSERT INTO candles (pair, interval, ts, open, high, low, close, volume)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("failed to prepare insert for %s: %w: %w", key, ports.ErrPersistFailed, err)
	}
	defer stmt.Close()

	for _, c := range series {
		if _, err := stmt.ExecContext(ctx, key.Pair, key.Interval, c.Timestamp, c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			return fmt.Errorf("failed to insert candle %d for %s: %w: %w", c.Timestamp, key, ports.ErrPersistFailed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit candles for %s: %w: %w", key, ports.ErrPersistFailed, err)
	}

	s.logger.Debug(ctx, "Persisted candle series", map[string]interface{}{
		"pair": key.Pair, "interval": key.Interval, "candles": len(series)})
	return nil
}
