package entity

import (
	"time"

	"github.com/wekeepgrowing/semo-enrollment/internal/domain/model"
)

// SubscriptionStatus mirrors the provider's subscription status values.
type SubscriptionStatus string

const (
	SubscriptionStatusTrialing          SubscriptionStatus = "trialing"
	SubscriptionStatusActive            SubscriptionStatus = "active"
	SubscriptionStatusPastDue           SubscriptionStatus = "past_due"
	SubscriptionStatusUnpaid            SubscriptionStatus = "unpaid"
	SubscriptionStatusCanceled          SubscriptionStatus = "canceled"
	SubscriptionStatusIncomplete        SubscriptionStatus = "incomplete"
	SubscriptionStatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	SubscriptionStatusPaused            SubscriptionStatus = "paused"
)

// SubscriptionState is the absolute provider state of one subscription.
type SubscriptionState struct {
	ID                 string
	Status             SubscriptionStatus
	CancelAtPeriodEnd  bool
	CancelAt           *time.Time
	CanceledAt         *time.Time
	EndedAt            *time.Time
	TrialEnd           *time.Time
	CurrentPeriodEnd   *time.Time
	CancellationReason string
	Correlation        Correlation
}

// CheckoutCompleted is the decoded checkout.session.completed payload.
type CheckoutCompleted struct {
	EventID         string
	OccurredAt      time.Time
	SessionID       string
	Mode            model.PaymentType
	Paid            bool
	AmountTotal     int64
	Currency        string
	PaymentIntentID string
	SubscriptionID  string
	InvoiceID       string
	Correlation     Correlation
}

// InvoiceEvent is the decoded payload of every invoice.* event.
type InvoiceEvent struct {
	EventID          string
	OccurredAt       time.Time
	InvoiceID        string
	SubscriptionID   string
	ChargeID         string
	PaymentIntentID  string
	HostedInvoiceURL string
	InvoicePDF       string
	AmountDue        int64
	AmountPaid       int64
	Currency         string
	Correlation      Correlation
}

// SubscriptionEvent is the decoded customer.subscription.* payload.
type SubscriptionEvent struct {
	EventID      string
	OccurredAt   time.Time
	Subscription SubscriptionState
}
