package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-enrollment/internal/domain/entity"
	"github.com/wekeepgrowing/semo-enrollment/internal/domain/model"
	"github.com/wekeepgrowing/semo-enrollment/internal/domain/provider"
)

// StripeProvider implements provider.PaymentProvider with a dedicated API client
type StripeProvider struct {
	api    *client.API
	logger *zap.Logger
}

var _ provider.PaymentProvider = (*StripeProvider)(nil)

// NewStripeProvider creates a Stripe provider. A nil backends value uses the
// public Stripe API.
func NewStripeProvider(secretKey string, backends *stripe.Backends, logger *zap.Logger) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, backends)
	return &StripeProvider{
		api:    api,
		logger: logger,
	}
}

// CreateCheckoutSession builds a hosted checkout with a Connect destination charge.
// Correlation metadata goes on the session and on the payment intent or
// subscription so every later object can be traced back.
func (s *StripeProvider) CreateCheckoutSession(ctx context.Context, req *provider.CheckoutSessionRequest) (*provider.CheckoutSession, error) {
	course := req.Course
	currency := strings.ToLower(course.Currency)
	metadata := req.Correlation.Metadata()

	lineItem := &stripe.CheckoutSessionLineItemParams{Quantity: stripe.Int64(1)}
	if course.ProviderPriceID != nil && *course.ProviderPriceID != "" {
		lineItem.Price = course.ProviderPriceID
	} else {
		lineItem.PriceData = &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:   stripe.String(currency),
			UnitAmount: stripe.Int64(model.AmountToMinor(course.Price, currency)),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(course.Title),
			},
		}
	}

	params := &stripe.CheckoutSessionParams{
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.Correlation.StudentID),
		LineItems:         []*stripe.CheckoutSessionLineItemParams{lineItem},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	switch req.Mode {
	case model.PaymentTypeSubscription:
		params.Mode = stripe.String(string(stripe.CheckoutSessionModeSubscription))
		if lineItem.PriceData != nil {
			lineItem.PriceData.Recurring = &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
				Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
			}
		}
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata:              metadata,
			ApplicationFeePercent: stripe.Float64(req.PlatformFeePercent),
			TransferData: &stripe.CheckoutSessionSubscriptionDataTransferDataParams{
				Destination: stripe.String(req.DestinationAccountID),
			},
		}
		if req.TrialPeriodDays > 0 {
			params.SubscriptionData.TrialPeriodDays = stripe.Int64(int64(req.TrialPeriodDays))
		}
	case model.PaymentTypeOneTime:
		fee, _ := model.SplitFee(course.Price, req.PlatformFeePercent, currency)
		params.Mode = stripe.String(string(stripe.CheckoutSessionModePayment))
		params.PaymentIntentData = &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata:             metadata,
			ApplicationFeeAmount: stripe.Int64(model.AmountToMinor(fee, currency)),
			TransferData: &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
				Destination: stripe.String(req.DestinationAccountID),
			},
		}
	default:
		return nil, &provider.ProviderError{
			Code:    "UNSUPPORTED_MODE",
			Message: "checkout mode is not supported",
			Details: string(req.Mode),
		}
	}

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		s.logger.Error("Failed to create Stripe checkout session",
			zap.String("course_id", course.ID),
			zap.String("student_id", req.Correlation.StudentID),
			zap.Error(err))
		return nil, wrapError("create checkout session", err)
	}

	return &provider.CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (s *StripeProvider) GetSubscription(ctx context.Context, subscriptionID string) (*entity.SubscriptionState, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := s.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, wrapError("retrieve subscription", err)
	}

	state := SubscriptionState(sub)
	return &state, nil
}

// GetPaymentIntentReceiptURL resolves the receipt through the intent's latest charge
func (s *StripeProvider) GetPaymentIntentReceiptURL(ctx context.Context, paymentIntentID string) (string, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	params.AddExpand("latest_charge")

	pi, err := s.api.PaymentIntents.Get(paymentIntentID, params)
	if err != nil {
		return "", wrapError("retrieve payment intent", err)
	}
	if pi.LatestCharge == nil {
		return "", nil
	}
	if pi.LatestCharge.ReceiptURL != "" {
		return pi.LatestCharge.ReceiptURL, nil
	}
	return s.GetChargeReceiptURL(ctx, pi.LatestCharge.ID)
}

func (s *StripeProvider) GetChargeReceiptURL(ctx context.Context, chargeID string) (string, error) {
	params := &stripe.ChargeParams{}
	params.Context = ctx

	ch, err := s.api.Charges.Get(chargeID, params)
	if err != nil {
		return "", wrapError("retrieve charge", err)
	}
	return ch.ReceiptURL, nil
}

func (s *StripeProvider) GetInvoiceLinks(ctx context.Context, invoiceID string) (*provider.InvoiceLinks, error) {
	params := &stripe.InvoiceParams{}
	params.Context = ctx

	in, err := s.api.Invoices.Get(invoiceID, params)
	if err != nil {
		return nil, wrapError("retrieve invoice", err)
	}
	return &provider.InvoiceLinks{HostedURL: in.HostedInvoiceURL, PDF: in.InvoicePDF}, nil
}

func wrapError(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return fmt.Errorf("stripe: failed to %s: %w", op, &provider.ProviderError{
			Code:    string(stripeErr.Code),
			Message: stripeErr.Msg,
			Details: string(stripeErr.Type),
		})
	}
	return fmt.Errorf("stripe: failed to %s: %w", op, err)
}
