package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"candlecache/internal/ports"
	"candlecache/internal/scheduler"
)

// Service runs the sync daemon: an optional sync on startup, then the cron
// driven schedule until a shutdown signal arrives.
type Service struct {
	scheduler   *scheduler.Scheduler
	logger      ports.Logger
	syncOnStart bool
}

// NewService creates a new daemon service instance.
func NewService(sched *scheduler.Scheduler, logger ports.Logger, syncOnStart bool) (*Service, error) {
	if sched == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for Service")
	}
	return &Service{
		scheduler:   sched,
		logger:      logger,
		syncOnStart: syncOnStart,
	}, nil
}

// Start runs the daemon until the context is canceled or a signal arrives.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info(ctx, "Starting sync daemon...")

	// Create a context that can be canceled by signals
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			s.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
			cancel()
		case <-ctx.Done():
		}
	}()

	if s.syncOnStart {
		s.logger.Info(ctx, "Running initial sync")
		s.scheduler.RunNow()
	}

	s.scheduler.Start()
	<-ctx.Done()
	s.scheduler.Stop()

	s.logger.Info(context.Background(), "Sync daemon stopped")
	return nil
}
