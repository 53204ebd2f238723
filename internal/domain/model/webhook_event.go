package model

import (
	"database/sql/driver"
	"time"

	"gorm.io/datatypes"
)

// WebhookStatus represents the processing status of a webhook
type WebhookStatus string

const (
	WebhookStatusPending   WebhookStatus = "pending"
	WebhookStatusCompleted WebhookStatus = "completed"
	WebhookStatusFailed    WebhookStatus = "failed"
)

// Scan implements sql.Scanner interface
func (w *WebhookStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*w = WebhookStatus(v)
	case []byte:
		*w = WebhookStatus(v)
	default:
		*w = WebhookStatusPending
	}
	return nil
}

// Value implements driver.Valuer interface
func (w WebhookStatus) Value() (driver.Value, error) {
	return string(w), nil
}

// WebhookEvent is a signature-verified provider event kept for dedupe and replay
type WebhookEvent struct {
	ID                 int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	ProviderEventID    string         `gorm:"unique;not null;size:255" json:"provider_event_id"`
	EventType          string         `gorm:"not null;size:100;index" json:"event_type"`
	Status             WebhookStatus  `gorm:"type:webhook_status;default:'pending';index" json:"status"`
	ProcessedAt        *time.Time     `json:"processed_at,omitempty"`
	Data               datatypes.JSON `gorm:"type:jsonb;not null" json:"data"`
	APIVersion         *string        `gorm:"size:20" json:"api_version,omitempty"`
	ProcessingAttempts int            `gorm:"default:0" json:"processing_attempts"`
	LastError          *string        `json:"last_error,omitempty"`
	NextRetryAt        *time.Time     `json:"next_retry_at,omitempty"`
	CreatedAt          time.Time      `gorm:"default:now()" json:"created_at"`
	ProviderCreatedAt  *time.Time     `json:"provider_created_at,omitempty"`
}

// TableName specifies the table name for GORM
func (WebhookEvent) TableName() string {
	return "webhook_events"
}

const (
	retryBaseDelay = 5 * time.Minute
	retryMaxDelay  = 24 * time.Hour
)

// RetryDelay returns the backoff before the given attempt is retried: 5m * 2^attempts, capped at 24h.
func RetryDelay(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	if attempts > 10 {
		return retryMaxDelay
	}
	delay := retryBaseDelay * time.Duration(1<<attempts)
	if delay > retryMaxDelay {
		return retryMaxDelay
	}
	return delay
}
