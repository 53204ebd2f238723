package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wekeepgrowing/semo-enrollment/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/semo-enrollment/internal/domain/repository"
)

type webhookEventRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewWebhookEventRepository creates a new webhook event log repository
func NewWebhookEventRepository(db *gorm.DB, logger *zap.Logger) domainRepo.WebhookEventRepository {
	return &webhookEventRepository{
		db:     db,
		logger: logger,
	}
}

// Record saves a new webhook event, ignoring duplicates, and returns the stored row
func (r *webhookEventRepository) Record(ctx context.Context, event *model.WebhookEvent) (*model.WebhookEvent, error) {
	if event.Status == "" {
		event.Status = model.WebhookStatusPending
	}

	// Use ON CONFLICT to handle duplicate deliveries
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider_event_id"}},
			DoNothing: true,
		}).
		Create(event).Error
	if err != nil {
		r.logger.Error("Failed to save webhook event",
			zap.String("event_id", event.ProviderEventID),
			zap.String("event_type", event.EventType),
			zap.Error(err))
		return nil, fmt.Errorf("failed to save webhook event: %w", err)
	}

	var stored model.WebhookEvent
	if err := r.db.WithContext(ctx).
		Where("provider_event_id = ?", event.ProviderEventID).
		First(&stored).Error; err != nil {
		return nil, fmt.Errorf("failed to load webhook event: %w", err)
	}

	return &stored, nil
}

// MarkCompleted marks a webhook event as processed
func (r *webhookEventRepository) MarkCompleted(ctx context.Context, providerEventID string) error {
	now := time.Now()

	result := r.db.WithContext(ctx).
		Model(&model.WebhookEvent{}).
		Where("provider_event_id = ?", providerEventID).
		Updates(map[string]interface{}{
			"status":        model.WebhookStatusCompleted,
			"processed_at":  &now,
			"last_error":    nil,
			"next_retry_at": nil,
		})

	if result.Error != nil {
		r.logger.Error("Failed to mark webhook as processed",
			zap.String("event_id", providerEventID),
			zap.Error(result.Error))
		return fmt.Errorf("failed to mark webhook as processed: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("webhook event not found: %s", providerEventID)
	}

	return nil
}

// MarkFailed marks a webhook event as failed and schedules the next retry
func (r *webhookEventRepository) MarkFailed(ctx context.Context, providerEventID string, cause error) error {
	var event model.WebhookEvent
	if err := r.db.WithContext(ctx).
		Where("provider_event_id = ?", providerEventID).
		First(&event).Error; err != nil {
		return fmt.Errorf("failed to get webhook event: %w", err)
	}

	attempts := event.ProcessingAttempts + 1
	nextRetry := time.Now().Add(model.RetryDelay(attempts))
	errorMsg := cause.Error()

	result := r.db.WithContext(ctx).
		Model(&model.WebhookEvent{}).
		Where("provider_event_id = ? AND status <> ?", providerEventID, model.WebhookStatusCompleted).
		Updates(map[string]interface{}{
			"status":              model.WebhookStatusFailed,
			"processing_attempts": attempts,
			"last_error":          &errorMsg,
			"next_retry_at":       &nextRetry,
		})

	if result.Error != nil {
		r.logger.Error("Failed to mark webhook as failed",
			zap.String("event_id", providerEventID),
			zap.Error(result.Error))
		return fmt.Errorf("failed to mark webhook as failed: %w", result.Error)
	}

	return nil
}

// ListRetryable retrieves due pending/failed events, oldest first
func (r *webhookEventRepository) ListRetryable(ctx context.Context, now time.Time, maxAttempts, limit int) ([]model.WebhookEvent, error) {
	var events []model.WebhookEvent

	query := r.db.WithContext(ctx).
		Where("status IN (?, ?) AND (next_retry_at IS NULL OR next_retry_at <= ?)",
			model.WebhookStatusPending,
			model.WebhookStatusFailed,
			now).
		Order("created_at ASC")

	if maxAttempts > 0 {
		query = query.Where("processing_attempts < ?", maxAttempts)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&events).Error; err != nil {
		r.logger.Error("Failed to get retryable webhook events", zap.Error(err))
		return nil, fmt.Errorf("failed to get retryable webhook events: %w", err)
	}

	return events, nil
}
