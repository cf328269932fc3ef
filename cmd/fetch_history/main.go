package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"candlecache/config"
	"candlecache/internal/adapters/binanceclient"
	"candlecache/internal/adapters/filestore"
	"candlecache/internal/adapters/logger"
	"candlecache/internal/adapters/redisstore"
	"candlecache/internal/adapters/resample"
	"candlecache/internal/adapters/sqlitestore"
	"candlecache/internal/history"
	"candlecache/internal/ports"
	"candlecache/internal/utils"
)

// One-shot cache refresh: sync every configured pair, then optionally export
// the series as CSV.
func main() {
	ctx := context.Background()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	var appLogger ports.Logger
	if cfg.Logging.Format == "text" {
		appLogger = logger.NewStdLogger(logger.ParseLevel(cfg.Logging.Level))
	} else {
		zl, err := logger.NewZerolog(logger.ZerologConfig{
			Level:   cfg.Logging.Level,
			Console: cfg.Logging.Format == "console",
		})
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize logger: %v", err)
		}
		appLogger = zl
	}

	// 3. Initialize Candle Store
	var store ports.CandleStore
	var closeStore func() error
	switch cfg.Store.Backend {
	case "sqlite":
		s, err := sqlitestore.New(sqlitestore.Config{DBPath: cfg.Store.DBPath, Logger: appLogger})
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize sqlite store: %v", err)
		}
		store, closeStore = s, s.Close
	case "redis":
		s, err := redisstore.New(ctx, redisstore.Config{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
			Logger:   appLogger,
		})
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize redis store: %v", err)
		}
		store, closeStore = s, s.Close
	default:
		s, err := filestore.New(filestore.Config{DataDir: cfg.Store.DataDir, Logger: appLogger})
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize file store: %v", err)
		}
		store = s
	}
	if closeStore != nil {
		defer func() {
			if err := closeStore(); err != nil {
				appLogger.Error(ctx, err, "Error closing candle store")
			}
		}()
	}

	// 4. Initialize Exchange Client (Binance Adapter)
	binanceClient, err := binanceclient.New(binanceclient.Config{
		APIKey:     cfg.Binance.APIKey,
		SecretKey:  cfg.Binance.SecretKey,
		UseTestnet: cfg.Binance.UseTestnet,
		Logger:     appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}

	// Connectivity check. Not fatal: the refresh falls back to cached data.
	if err := binanceClient.Ping(ctx); err != nil {
		appLogger.Warn(ctx, "Binance connectivity check failed", map[string]interface{}{"error": err.Error()})
	}

	// 5. Initialize Synchronizer and Loader
	syncer, err := history.NewSynchronizer(store, binanceClient, appLogger, cfg.Lookback())
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize synchronizer: %v", err)
	}

	var gapFiller ports.GapFiller
	if cfg.Sync.FillGaps {
		filler, err := resample.New(resample.Config{Logger: appLogger})
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize gap filler: %v", err)
		}
		gapFiller = filler
	}

	loader, err := history.NewLoader(store, syncer, gapFiller, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize loader: %v", err)
	}

	// 6. Refresh and Load
	keys := cfg.Keys()
	fmt.Printf("Refreshing %d pairs at interval %s...\n", len(keys), cfg.Cache.Interval)
	result, err := loader.LoadMany(ctx, keys, cfg.TimeRange(), true)
	if err != nil {
		appLogger.Error(ctx, err, "Error refreshing history")
		log.Fatalf("Error refreshing history: %v", err)
	}

	for key, series := range result {
		first, _ := series.FirstTimestamp()
		last, _ := series.LastTimestamp()
		appLogger.Info(ctx, "Fetched history", map[string]interface{}{
			"pair":     key.Pair,
			"interval": key.Interval,
			"candles":  len(series),
			"from":     time.UnixMilli(first).UTC().Format(time.RFC3339),
			"to":       time.UnixMilli(last).UTC().Format(time.RFC3339),
		})
	}
	fmt.Printf("Refreshed %d of %d pairs.\n", len(result), len(keys))

	// 7. Optional CSV Export
	if cfg.Export.CSVDir == "" {
		return
	}
	if err := os.MkdirAll(cfg.Export.CSVDir, 0o755); err != nil {
		log.Fatalf("Error creating CSV directory: %v", err)
	}
	for key, series := range result {
		filename := filepath.Join(cfg.Export.CSVDir, key.String()+".csv")
		if err := utils.WriteSeriesCSV(key, series, filename); err != nil {
			appLogger.Error(ctx, err, "Error writing CSV", map[string]interface{}{"filename": filename})
			log.Fatalf("Error writing CSV: %v", err)
		}
		appLogger.Info(ctx, "Saved CSV", map[string]interface{}{"filename": filename})
	}
}
