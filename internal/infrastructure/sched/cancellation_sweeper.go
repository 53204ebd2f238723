package sched

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-enrollment/internal/domain/repository"
)

// SweeperMetrics observes sweeper runs
type SweeperMetrics interface {
	CancellationsSwept(n int64)
}

// CancellationSweeper periodically moves APPLIEDFORCANCEL enrollments whose
// cancellation date has passed to CANCELLED. The access gate applies the same
// transition lazily; the sweeper keeps stored state current for readers that
// bypass the gate.
type CancellationSweeper struct {
	interval    time.Duration
	enrollments repository.EnrollmentRepository
	metrics     SweeperMetrics
	now         func() time.Time
	logger      *zap.Logger
}

func NewCancellationSweeper(interval time.Duration, enrollments repository.EnrollmentRepository, metrics SweeperMetrics, logger *zap.Logger) *CancellationSweeper {
	return &CancellationSweeper{
		interval:    interval,
		enrollments: enrollments,
		metrics:     metrics,
		now:         time.Now,
		logger:      logger.With(zap.String("component", "CancellationSweeper")),
	}
}

func (w *CancellationSweeper) Run(ctx context.Context) error {
	w.logger.Info("Starting cancellation sweeper", zap.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Stopping cancellation sweeper")
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.logger.Error("Cancellation sweep failed", zap.Error(err))
			}
		}
	}
}

// RunOnce performs a single sweep and returns the number of records moved
func (w *CancellationSweeper) RunOnce(ctx context.Context) (int64, error) {
	n, err := w.enrollments.ExpireCancellations(ctx, w.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		if w.metrics != nil {
			w.metrics.CancellationsSwept(n)
		}
		w.logger.Info("Expired scheduled cancellations", zap.Int64("count", n))
	}
	return n, nil
}
