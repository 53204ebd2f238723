package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"

	webhookAdapter "github.com/wekeepgrowing/semo-enrollment/internal/adapter/webhook"
)

// MaxWebhookBodyBytes bounds the webhook payload read from the request
const MaxWebhookBodyBytes int64 = 65536

// EventProcessor handles one verified provider event
type EventProcessor interface {
	Process(ctx context.Context, event stripe.Event, payload []byte) (webhookAdapter.Outcome, error)
}

type WebhookHandler struct {
	processor     EventProcessor
	webhookSecret string
	timeout       time.Duration
	logger        *zap.Logger
}

func NewWebhookHandler(processor EventProcessor, webhookSecret string, timeout time.Duration, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		processor:     processor,
		webhookSecret: webhookSecret,
		timeout:       timeout,
		logger:        logger,
	}
}

// HandleWebhook verifies the Stripe-Signature header and processes the event.
// Only persistence failures answer 5xx so the provider redelivers.
func (h *WebhookHandler) HandleWebhook(c echo.Context) error {
	req := c.Request()
	body, err := io.ReadAll(http.MaxBytesReader(c.Response(), req.Body, MaxWebhookBodyBytes))
	if err != nil {
		h.logger.Warn("Error reading webhook body", zap.Error(err))
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "Payload too large", "code": "PAYLOAD_TOO_LARGE"})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Error reading request body", "code": "INVALID_BODY"})
	}

	event, err := webhook.ConstructEventWithOptions(
		body,
		req.Header.Get("Stripe-Signature"),
		h.webhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		h.logger.Warn("Webhook signature verification failed", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Webhook signature verification failed",
			"code":  "INVALID_SIGNATURE",
		})
	}

	h.logger.Info("Webhook Event Received",
		zap.String("type", string(event.Type)),
		zap.String("id", event.ID),
		zap.Time("created", time.Unix(event.Created, 0)),
	)

	ctx := req.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	outcome, err := h.processor.Process(ctx, event, body)
	if err != nil {
		if outcome == webhookAdapter.OutcomeMalformed {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Error parsing webhook", "code": "INVALID_EVENT"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Webhook processing failed", "code": "INTERNAL"})
	}

	return c.JSON(http.StatusOK, echo.Map{"received": true, "outcome": outcome})
}
