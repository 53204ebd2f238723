package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	domainErrors "github.com/wekeepgrowing/semo-enrollment/internal/domain/errors"
	"github.com/wekeepgrowing/semo-enrollment/internal/domain/model"
	"github.com/wekeepgrowing/semo-enrollment/internal/domain/repository"
	stripeProvider "github.com/wekeepgrowing/semo-enrollment/internal/infrastructure/provider/stripe"
)

// Outcome labels how one delivery was handled
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeUnmatched Outcome = "unmatched"
	OutcomeMalformed Outcome = "malformed"
	OutcomeFailed    Outcome = "failed"
)

// Metrics observes processed deliveries
type Metrics interface {
	WebhookProcessed(eventType string, outcome string, elapsed time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) WebhookProcessed(string, string, time.Duration) {}

// Processor records verified events, skips completed ones and dispatches the rest.
type Processor struct {
	events  repository.WebhookEventRepository
	router  *Router
	metrics Metrics
	logger  *zap.Logger
}

func NewProcessor(events repository.WebhookEventRepository, router *Router, metrics Metrics, logger *zap.Logger) *Processor {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Processor{
		events:  events,
		router:  router,
		metrics: metrics,
		logger:  logger,
	}
}

// Process handles one signature-verified delivery. payload is the raw request body.
// A non-nil error with OutcomeMalformed is a client error; any other error means
// the provider should redeliver.
func (p *Processor) Process(ctx context.Context, event stripe.Event, payload []byte) (Outcome, error) {
	start := time.Now()
	outcome, err := p.process(ctx, event, payload)
	p.metrics.WebhookProcessed(string(event.Type), string(outcome), time.Since(start))
	return outcome, err
}

func (p *Processor) process(ctx context.Context, event stripe.Event, payload []byte) (Outcome, error) {
	if !p.router.Handles(event.Type) {
		p.logger.Debug("Ignoring unhandled webhook event type",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
		return OutcomeIgnored, nil
	}

	record := &model.WebhookEvent{
		ProviderEventID: event.ID,
		EventType:       string(event.Type),
		Status:          model.WebhookStatusPending,
		Data:            datatypes.JSON(payload),
	}
	if event.APIVersion != "" {
		record.APIVersion = &event.APIVersion
	}
	if event.Created != 0 {
		created := stripeProvider.UnixTime(event.Created)
		record.ProviderCreatedAt = &created
	}

	stored, err := p.events.Record(ctx, record)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("failed to record webhook event: %w", err)
	}
	if stored.Status == model.WebhookStatusCompleted {
		p.logger.Info("Webhook event already processed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
		return OutcomeDuplicate, nil
	}

	return p.dispatch(ctx, event)
}

// Replay re-dispatches a stored event. The payload was verified when it was recorded.
func (p *Processor) Replay(ctx context.Context, stored model.WebhookEvent) (Outcome, error) {
	start := time.Now()

	var event stripe.Event
	if err := json.Unmarshal([]byte(stored.Data), &event); err != nil {
		cause := fmt.Errorf("%w: stored payload: %v", ErrMalformedEvent, err)
		p.markFailed(ctx, stored.ProviderEventID, cause)
		p.metrics.WebhookProcessed(stored.EventType, string(OutcomeMalformed), time.Since(start))
		return OutcomeMalformed, cause
	}

	outcome, err := p.dispatch(ctx, event)
	p.metrics.WebhookProcessed(string(event.Type), string(outcome), time.Since(start))
	return outcome, err
}

func (p *Processor) dispatch(ctx context.Context, event stripe.Event) (Outcome, error) {
	err := p.router.Dispatch(ctx, event)

	switch {
	case err == nil:
		p.markCompleted(ctx, event.ID)
		p.logger.Info("Webhook event processed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
		return OutcomeProcessed, nil

	case errors.Is(err, domainErrors.ErrMissingCorrelation):
		// Nothing to reconcile; acknowledge so the provider stops redelivering.
		p.markCompleted(ctx, event.ID)
		p.logger.Warn("Webhook event carries no correlation metadata",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
		return OutcomeUnmatched, nil

	case errors.Is(err, ErrMalformedEvent):
		p.markFailed(ctx, event.ID, err)
		p.logger.Warn("Webhook event could not be decoded",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return OutcomeMalformed, err

	default:
		p.markFailed(ctx, event.ID, err)
		p.logger.Error("Webhook event processing failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return OutcomeFailed, err
	}
}

// markCompleted and markFailed run on a context detached from the request
// deadline so the outcome is still recorded after a timeout.
func (p *Processor) markCompleted(ctx context.Context, eventID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.events.MarkCompleted(ctx, eventID); err != nil {
		p.logger.Warn("Failed to mark webhook event completed",
			zap.String("event_id", eventID),
			zap.Error(err))
	}
}

func (p *Processor) markFailed(ctx context.Context, eventID string, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.events.MarkFailed(ctx, eventID, cause); err != nil {
		p.logger.Warn("Failed to mark webhook event failed",
			zap.String("event_id", eventID),
			zap.Error(err))
	}
}
