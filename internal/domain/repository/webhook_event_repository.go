package repository

import (
	"context"
	"time"

	"github.com/wekeepgrowing/semo-enrollment/internal/domain/model"
)

// WebhookEventRepository stores verified provider events for dedupe and replay
type WebhookEventRepository interface {
	// Record stores the event if its provider id is new and returns the stored row either way.
	Record(ctx context.Context, event *model.WebhookEvent) (*model.WebhookEvent, error)
	MarkCompleted(ctx context.Context, providerEventID string) error
	// MarkFailed increments the attempt counter and schedules the next retry.
	MarkFailed(ctx context.Context, providerEventID string, cause error) error
	// ListRetryable returns pending or failed events that are due and below maxAttempts.
	ListRetryable(ctx context.Context, now time.Time, maxAttempts, limit int) ([]model.WebhookEvent, error)
}
