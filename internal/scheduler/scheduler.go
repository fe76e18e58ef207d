package scheduler

import (
	"context"
	"log/slog"
	"time"

	"channel_metrics/internal/domain"
)

// Runner defines the interface for extraction runs.
type Runner interface {
	Run(ctx context.Context) (*domain.ExtractStats, error)
}

type Scheduler struct {
	runner   Runner
	interval time.Duration
	logger   *slog.Logger
}

func NewScheduler(runner Runner, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	stats, err := s.runner.Run(runCtx)

	status := domain.StatusFor(stats, err)
	if err != nil {
		s.logger.Error("extraction run failed", "status", status.Code, "error", err)
		return
	}
	s.logger.Info("extraction run finished", "status", status.Code, "message", status.Message)
}
