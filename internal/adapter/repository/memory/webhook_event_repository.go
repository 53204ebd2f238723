package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wekeepgrowing/semo-enrollment/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/semo-enrollment/internal/domain/repository"
)

// WebhookEventRepository keeps the webhook event log in memory
type WebhookEventRepository struct {
	mu     sync.RWMutex
	rows   map[string]model.WebhookEvent
	nextID int64
}

var _ domainRepo.WebhookEventRepository = (*WebhookEventRepository)(nil)

func NewWebhookEventRepository() *WebhookEventRepository {
	return &WebhookEventRepository{rows: make(map[string]model.WebhookEvent)}
}

func (r *WebhookEventRepository) Record(_ context.Context, event *model.WebhookEvent) (*model.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stored, ok := r.rows[event.ProviderEventID]; ok {
		return &stored, nil
	}

	stored := *event
	r.nextID++
	stored.ID = r.nextID
	if stored.Status == "" {
		stored.Status = model.WebhookStatusPending
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	r.rows[stored.ProviderEventID] = stored
	return &stored, nil
}

func (r *WebhookEventRepository) MarkCompleted(_ context.Context, providerEventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, ok := r.rows[providerEventID]
	if !ok {
		return fmt.Errorf("webhook event not found: %s", providerEventID)
	}
	now := time.Now()
	event.Status = model.WebhookStatusCompleted
	event.ProcessedAt = &now
	event.LastError = nil
	event.NextRetryAt = nil
	r.rows[providerEventID] = event
	return nil
}

func (r *WebhookEventRepository) MarkFailed(_ context.Context, providerEventID string, cause error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, ok := r.rows[providerEventID]
	if !ok {
		return fmt.Errorf("webhook event not found: %s", providerEventID)
	}
	if event.Status == model.WebhookStatusCompleted {
		return nil
	}
	event.ProcessingAttempts++
	next := time.Now().Add(model.RetryDelay(event.ProcessingAttempts))
	msg := cause.Error()
	event.Status = model.WebhookStatusFailed
	event.LastError = &msg
	event.NextRetryAt = &next
	r.rows[providerEventID] = event
	return nil
}

func (r *WebhookEventRepository) ListRetryable(_ context.Context, now time.Time, maxAttempts, limit int) ([]model.WebhookEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var events []model.WebhookEvent
	for _, e := range r.rows {
		if e.Status == model.WebhookStatusCompleted {
			continue
		}
		if e.NextRetryAt != nil && e.NextRetryAt.After(now) {
			continue
		}
		if maxAttempts > 0 && e.ProcessingAttempts >= maxAttempts {
			continue
		}
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].CreatedAt.Before(events[j].CreatedAt) })

	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

// Get returns the stored event for assertions.
func (r *WebhookEventRepository) Get(providerEventID string) (model.WebhookEvent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.rows[providerEventID]
	return e, ok
}
