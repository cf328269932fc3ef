package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up

	"candlecache/config"
	"candlecache/internal/adapters/binanceclient"
	"candlecache/internal/adapters/filestore"
	"candlecache/internal/adapters/logger"
	"candlecache/internal/adapters/redisstore"
	"candlecache/internal/adapters/sqlitestore"
	"candlecache/internal/app"
	"candlecache/internal/history"
	"candlecache/internal/ports"
	"candlecache/internal/scheduler"
)

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
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.Logging.Level})

	// 3. Initialize Candle Store
	var store ports.CandleStore
	var closeStore func() error
	switch cfg.Store.Backend {
	case "sqlite":
		s, err := sqlitestore.New(sqlitestore.Config{DBPath: cfg.Store.DBPath, Logger: appLogger})
		if err != nil {
			appLogger.Error(ctx, err, "FATAL: Failed to initialize sqlite store")
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
			appLogger.Error(ctx, err, "FATAL: Failed to initialize redis store")
			log.Fatalf("FATAL: Failed to initialize redis store: %v", err)
		}
		store, closeStore = s, s.Close
	default:
		s, err := filestore.New(filestore.Config{DataDir: cfg.Store.DataDir, Logger: appLogger})
		if err != nil {
			appLogger.Error(ctx, err, "FATAL: Failed to initialize file store")
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
	appLogger.Info(ctx, "Candle store initialized", map[string]interface{}{"backend": cfg.Store.Backend})

	// 4. Initialize Exchange Client (Binance Adapter)
	binanceClient, err := binanceclient.New(binanceclient.Config{
		APIKey:     cfg.Binance.APIKey,
		SecretKey:  cfg.Binance.SecretKey,
		UseTestnet: cfg.Binance.UseTestnet,
		Logger:     appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize Binance client")
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}
	appLogger.Info(ctx, "Binance client initialized")

	// Connectivity check. Not fatal: scheduled syncs serve cached data and
	// retry on the next tick.
	if err := binanceClient.Ping(ctx); err != nil {
		appLogger.Warn(ctx, "Binance connectivity check failed", map[string]interface{}{"error": err.Error()})
	}

	// 5. Initialize Synchronizer and Scheduler
	syncer, err := history.NewSynchronizer(store, binanceClient, appLogger, cfg.Lookback())
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize synchronizer")
		log.Fatalf("FATAL: Failed to initialize synchronizer: %v", err)
	}

	sched, err := scheduler.New(scheduler.Config{
		CronSpec: cfg.Schedule.CronSpec,
		Keys:     cfg.Keys(),
		Range:    cfg.TimeRange(),
		Syncer:   syncer,
		Logger:   appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize scheduler")
		log.Fatalf("FATAL: Failed to initialize scheduler: %v", err)
	}
	appLogger.Info(ctx, "Scheduler initialized", map[string]interface{}{
		"cron":  cfg.Schedule.CronSpec,
		"pairs": len(cfg.Cache.Pairs),
	})

	// 6. Initialize and Start the Daemon Service
	svc, err := app.NewService(sched, appLogger, cfg.Schedule.SyncOnStart)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize daemon service")
		log.Fatalf("FATAL: Failed to initialize daemon service: %v", err)
	}

	if err := svc.Start(ctx); err != nil {
		appLogger.Error(ctx, err, "Sync daemon exited with error")
		log.Fatalf("FATAL: Sync daemon exited with error: %v", err)
	}

	appLogger.Info(ctx, "Application finished gracefully.")
}
