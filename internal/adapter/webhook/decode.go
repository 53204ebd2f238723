package webhook

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v79"

	"github.com/wekeepgrowing/semo-enrollment/internal/domain/entity"
	"github.com/wekeepgrowing/semo-enrollment/internal/domain/model"
	stripeProvider "github.com/wekeepgrowing/semo-enrollment/internal/infrastructure/provider/stripe"
)

// ErrMalformedEvent marks a verified event whose object cannot be decoded.
var ErrMalformedEvent = errors.New("malformed webhook event")

func decodeObject(event stripe.Event, v interface{}) error {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return fmt.Errorf("%w: %s has no data object", ErrMalformedEvent, event.ID)
	}
	if err := json.Unmarshal(event.Data.Raw, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedEvent, event.ID, err)
	}
	return nil
}

func decodeCheckoutCompleted(event stripe.Event) (entity.CheckoutCompleted, error) {
	var session stripe.CheckoutSession
	if err := decodeObject(event, &session); err != nil {
		return entity.CheckoutCompleted{}, err
	}

	out := entity.CheckoutCompleted{
		EventID:     event.ID,
		OccurredAt:  stripeProvider.UnixTime(event.Created),
		SessionID:   session.ID,
		AmountTotal: session.AmountTotal,
		Currency:    string(session.Currency),
		Paid: session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
			session.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired,
		Correlation: entity.CorrelationFromMetadata(session.Metadata),
	}

	switch session.Mode {
	case stripe.CheckoutSessionModeSubscription:
		out.Mode = model.PaymentTypeSubscription
	default:
		out.Mode = model.PaymentTypeOneTime
	}
	if session.PaymentIntent != nil {
		out.PaymentIntentID = session.PaymentIntent.ID
	}
	if session.Subscription != nil {
		out.SubscriptionID = session.Subscription.ID
	}
	if session.Invoice != nil {
		out.InvoiceID = session.Invoice.ID
	}
	if out.Correlation.StudentID == "" {
		out.Correlation.StudentID = session.ClientReferenceID
	}
	return out, nil
}

func decodeInvoice(event stripe.Event) (entity.InvoiceEvent, error) {
	var invoice stripe.Invoice
	if err := decodeObject(event, &invoice); err != nil {
		return entity.InvoiceEvent{}, err
	}

	out := entity.InvoiceEvent{
		EventID:          event.ID,
		OccurredAt:       stripeProvider.UnixTime(event.Created),
		InvoiceID:        invoice.ID,
		HostedInvoiceURL: invoice.HostedInvoiceURL,
		InvoicePDF:       invoice.InvoicePDF,
		AmountDue:        invoice.AmountDue,
		AmountPaid:       invoice.AmountPaid,
		Currency:         string(invoice.Currency),
	}
	if invoice.Subscription != nil {
		out.SubscriptionID = invoice.Subscription.ID
	}
	if invoice.Charge != nil {
		out.ChargeID = invoice.Charge.ID
	}
	if invoice.PaymentIntent != nil {
		out.PaymentIntentID = invoice.PaymentIntent.ID
	}
	if invoice.SubscriptionDetails != nil {
		out.Correlation = entity.CorrelationFromMetadata(invoice.SubscriptionDetails.Metadata)
	}
	return out, nil
}

func decodeSubscription(event stripe.Event) (entity.SubscriptionEvent, error) {
	var sub stripe.Subscription
	if err := decodeObject(event, &sub); err != nil {
		return entity.SubscriptionEvent{}, err
	}
	if sub.ID == "" {
		return entity.SubscriptionEvent{}, fmt.Errorf("%w: %s subscription has no id", ErrMalformedEvent, event.ID)
	}

	return entity.SubscriptionEvent{
		EventID:      event.ID,
		OccurredAt:   stripeProvider.UnixTime(event.Created),
		Subscription: stripeProvider.SubscriptionState(&sub),
	}, nil
}
