package sched

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-enrollment/internal/adapter/webhook"
	"github.com/wekeepgrowing/semo-enrollment/internal/domain/model"
	"github.com/wekeepgrowing/semo-enrollment/internal/domain/repository"
)

// Replayer re-dispatches a stored event
type Replayer interface {
	Replay(ctx context.Context, stored model.WebhookEvent) (webhook.Outcome, error)
}

// ReplayMetrics observes replay outcomes
type ReplayMetrics interface {
	WebhookReplayed(outcome string)
}

type ReplayConfig struct {
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
}

// WebhookReplayer retries logged events that failed or never completed.
// Handlers are idempotent, so an event still in flight may be replayed safely.
type WebhookReplayer struct {
	cfg      ReplayConfig
	events   repository.WebhookEventRepository
	replayer Replayer
	metrics  ReplayMetrics
	now      func() time.Time
	logger   *zap.Logger
}

func NewWebhookReplayer(cfg ReplayConfig, events repository.WebhookEventRepository, replayer Replayer, metrics ReplayMetrics, logger *zap.Logger) *WebhookReplayer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	return &WebhookReplayer{
		cfg:      cfg,
		events:   events,
		replayer: replayer,
		metrics:  metrics,
		now:      time.Now,
		logger:   logger.With(zap.String("component", "WebhookReplayer")),
	}
}

func (w *WebhookReplayer) Run(ctx context.Context) error {
	w.logger.Info("Starting webhook replayer", zap.Duration("interval", w.cfg.Interval))
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Stopping webhook replayer")
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.logger.Error("Webhook replay failed", zap.Error(err))
			}
		}
	}
}

// RunOnce replays one batch of due events and returns how many completed
func (w *WebhookReplayer) RunOnce(ctx context.Context) (int, error) {
	due, err := w.events.ListRetryable(ctx, w.now(), w.cfg.MaxAttempts, w.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, stored := range due {
		if ctx.Err() != nil {
			return completed, ctx.Err()
		}

		outcome, err := w.replayer.Replay(ctx, stored)
		if w.metrics != nil {
			w.metrics.WebhookReplayed(string(outcome))
		}
		if err != nil {
			// the processor has already recorded the failure and the next retry time
			w.logger.Warn("Replayed webhook event failed again",
				zap.String("event_id", stored.ProviderEventID),
				zap.String("event_type", stored.EventType),
				zap.Int("attempts", stored.ProcessingAttempts+1),
				zap.Error(err))
			continue
		}
		completed++
	}

	if len(due) > 0 {
		w.logger.Info("Replayed webhook events",
			zap.Int("due", len(due)),
			zap.Int("completed", completed))
	}
	return completed, nil
}
