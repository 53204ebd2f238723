package provider

import (
	"context"

	"github.com/wekeepgrowing/semo-enrollment/internal/domain/entity"
	"github.com/wekeepgrowing/semo-enrollment/internal/domain/model"
)

// PaymentProvider is the set of provider calls the enrollment core makes.
type PaymentProvider interface {
	// CreateCheckoutSession creates a hosted checkout page for one course.
	CreateCheckoutSession(ctx context.Context, req *CheckoutSessionRequest) (*CheckoutSession, error)

	// GetSubscription retrieves the current absolute state of a subscription.
	GetSubscription(ctx context.Context, subscriptionID string) (*entity.SubscriptionState, error)

	// GetPaymentIntentReceiptURL resolves payment intent -> latest charge -> receipt URL.
	GetPaymentIntentReceiptURL(ctx context.Context, paymentIntentID string) (string, error)

	// GetChargeReceiptURL resolves a charge's receipt URL.
	GetChargeReceiptURL(ctx context.Context, chargeID string) (string, error)

	// GetInvoiceLinks retrieves the hosted URL and PDF of an invoice.
	GetInvoiceLinks(ctx context.Context, invoiceID string) (*InvoiceLinks, error)
}

// CheckoutSessionRequest describes the checkout page to build
type CheckoutSessionRequest struct {
	Course      *model.Course
	Mode        model.PaymentType
	Correlation entity.Correlation

	// DestinationAccountID receives the teacher's share of the payment.
	DestinationAccountID string
	PlatformFeePercent   float64

	// TrialPeriodDays is attached only for subscriptions and only when > 0.
	TrialPeriodDays int

	SuccessURL string
	CancelURL  string
}

// CheckoutSession is the provider's reference to a created checkout page
type CheckoutSession struct {
	ID  string `json:"sessionId"`
	URL string `json:"url"`
}

// InvoiceLinks are the customer-facing links of an invoice
type InvoiceLinks struct {
	HostedURL string
	PDF       string
}

// ProviderError reports a failed provider call
type ProviderError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *ProviderError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}
