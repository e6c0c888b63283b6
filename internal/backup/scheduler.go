package backup

import (
	"context"
	"time"

	"ricemill-backend/internal/logger"

	"go.uber.org/zap"
)

type Runner interface {
	Run(ctx context.Context) (string, error)
}

// Scheduler runs a backup at start and then every interval.
type Scheduler struct {
	runner   Runner
	interval time.Duration
}

func NewScheduler(r Runner, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Scheduler{runner: r, interval: interval}
}

// Start blocks until ctx is cancelled. Failed runs are logged and retried on
// the next tick.
func (s *Scheduler) Start(ctx context.Context) {
	logger.L().Info("backup scheduler started", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.runner.Run(ctx); err != nil && ctx.Err() == nil {
			logger.L().Error("scheduled backup failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			logger.L().Info("backup scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}
