package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// WebhookPurger deletes stored webhook events older than the retention window
type WebhookPurger interface {
	Purge(ctx context.Context, retention time.Duration) (int64, error)
}

// WebhookPurgeSchedulerConfig holds configuration for the purge scheduler
type WebhookPurgeSchedulerConfig struct {
	Enabled   bool
	Interval  time.Duration
	Retention time.Duration

	// Timeout bounds a single purge run
	Timeout time.Duration
}

// WebhookPurgeScheduler periodically purges old webhook events
type WebhookPurgeScheduler struct {
	purger WebhookPurger
	config WebhookPurgeSchedulerConfig
	logger *zap.Logger

	mu        sync.Mutex
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
}

// NewWebhookPurgeScheduler creates a new scheduler
func NewWebhookPurgeScheduler(purger WebhookPurger, cfg WebhookPurgeSchedulerConfig, logger *zap.Logger) (*WebhookPurgeScheduler, error) {
	if cfg.Enabled {
		if cfg.Interval <= 0 {
			return nil, fmt.Errorf("%w: purge interval must be positive", ErrInvalidConfig)
		}
		if cfg.Retention <= 0 {
			return nil, fmt.Errorf("%w: retention must be positive", ErrInvalidConfig)
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &WebhookPurgeScheduler{
		purger: purger,
		config: cfg,
		logger: logger,
	}, nil
}

// Start launches the purge loop. The first run happens after one interval.
func (s *WebhookPurgeScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return
	}
	if !s.config.Enabled {
		s.logger.Info("Webhook purge scheduler is disabled")
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.isRunning = true

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("Webhook purge scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Duration("retention", s.config.Retention))
}

// Stop cancels the loop and waits for an in-flight run, bounded by ctx
func (s *WebhookPurgeScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Webhook purge scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Webhook purge scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the loop is active
func (s *WebhookPurgeScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *WebhookPurgeScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single purge. Errors are logged; the next tick tries again.
func (s *WebhookPurgeScheduler) RunOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	started := time.Now()
	deleted, err := s.purger.Purge(runCtx, s.config.Retention)
	if err != nil {
		s.logger.Error("Webhook purge failed", zap.Error(err))
		return
	}

	s.logger.Info("Webhook purge completed",
		zap.Int64("deleted", deleted),
		zap.Duration("duration", time.Since(started)))
}
