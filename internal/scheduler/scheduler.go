package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"candlecache/internal/domain"
	"candlecache/internal/history"
	"candlecache/internal/ports"
)

// Scheduler periodically synchronizes a fixed set of cache keys.
type Scheduler struct {
	cron   *cron.Cron
	syncer *history.Synchronizer
	keys   []domain.CacheKey
	tr     domain.TimeRange
	logger ports.Logger
}

// Config holds the configuration for the Scheduler.
type Config struct {
	// CronSpec is a six-field cron expression with a seconds column.
	CronSpec string
	Keys     []domain.CacheKey
	Range    domain.TimeRange
	Syncer   *history.Synchronizer
	Logger   ports.Logger
}

// New creates a scheduler and registers the sync task.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Logger == nil {
		return nil, errors.New("logger is required for Scheduler")
	}
	if cfg.Syncer == nil {
		return nil, errors.New("synchronizer is required for Scheduler")
	}
	if len(cfg.Keys) == 0 {
		return nil, errors.New("at least one cache key is required for Scheduler")
	}
	if cfg.CronSpec == "" {
		// Default: top of every minute
		cfg.CronSpec = "0 * * * * *"
	}

	s := &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		syncer: cfg.Syncer,
		keys:   cfg.Keys,
		tr:     cfg.Range,
		logger: cfg.Logger,
	}
	if _, err := s.cron.AddFunc(cfg.CronSpec, s.syncTask); err != nil {
		return nil, fmt.Errorf("register sync task: %w", err)
	}
	return s, nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info(context.Background(), "Scheduler started", map[string]interface{}{
		"keys": len(s.keys),
	})
}

// Stop stops the scheduler and waits for a running sync to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info(context.Background(), "Scheduler stopped")
}

// RunNow executes the sync task immediately, outside the cron cadence.
func (s *Scheduler) RunNow() {
	s.syncTask()
}

func (s *Scheduler) syncTask() {
	ctx := context.Background()
	started := time.Now()
	failures := s.syncer.SyncAll(ctx, s.keys, s.tr)
	if len(failures) > 0 {
		s.logger.Warn(ctx, "Scheduled sync finished with failures", map[string]interface{}{
			"failed":  len(failures),
			"total":   len(s.keys),
			"elapsed": time.Since(started).String(),
		})
		return
	}
	s.logger.Info(ctx, "Scheduled sync finished", map[string]interface{}{
		"keys":    len(s.keys),
		"elapsed": time.Since(started).String(),
	})
}
