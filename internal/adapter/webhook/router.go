// Package webhook turns verified Stripe events into reconcile calls.
package webhook

import (
	"context"

	"github.com/stripe/stripe-go/v79"

	"github.com/wekeepgrowing/semo-enrollment/internal/domain/entity"
)

// Reconciler is the set of semantic event handlers the router dispatches to
type Reconciler interface {
	Checkout(ctx context.Context, ev entity.CheckoutCompleted) error
	InvoiceUpdated(ctx context.Context, ev entity.InvoiceEvent) error
	InvoicePaymentSucceeded(ctx context.Context, ev entity.InvoiceEvent) error
	InvoicePaymentFailed(ctx context.Context, ev entity.InvoiceEvent) error
	SubscriptionUpdated(ctx context.Context, ev entity.SubscriptionEvent) error
	SubscriptionDeleted(ctx context.Context, ev entity.SubscriptionEvent) error
}

type handlerFunc func(ctx context.Context, event stripe.Event) error

// Router holds the static event type -> handler table
type Router struct {
	handlers map[stripe.EventType]handlerFunc
}

func NewRouter(r Reconciler) *Router {
	invoiceUpdated := invoiceHandler(r.InvoiceUpdated)
	paymentSucceeded := invoiceHandler(r.InvoicePaymentSucceeded)

	return &Router{
		handlers: map[stripe.EventType]handlerFunc{
			stripe.EventTypeCheckoutSessionCompleted: func(ctx context.Context, event stripe.Event) error {
				ev, err := decodeCheckoutCompleted(event)
				if err != nil {
					return err
				}
				return r.Checkout(ctx, ev)
			},
			stripe.EventTypeInvoiceCreated:          invoiceUpdated,
			stripe.EventTypeInvoiceFinalized:        invoiceUpdated,
			stripe.EventTypeInvoicePaymentSucceeded: paymentSucceeded,
			// invoice.paid carries the same object; one canonical handler keeps both idempotent
			stripe.EventTypeInvoicePaid:                 paymentSucceeded,
			stripe.EventTypeInvoicePaymentFailed:        invoiceHandler(r.InvoicePaymentFailed),
			stripe.EventTypeCustomerSubscriptionUpdated: subscriptionHandler(r.SubscriptionUpdated),
			stripe.EventTypeCustomerSubscriptionDeleted: subscriptionHandler(r.SubscriptionDeleted),
		},
	}
}

// Handles reports whether the event type has a handler
func (r *Router) Handles(t stripe.EventType) bool {
	_, ok := r.handlers[t]
	return ok
}

// Dispatch runs the handler for the event. Unknown types are a no-op.
func (r *Router) Dispatch(ctx context.Context, event stripe.Event) error {
	h, ok := r.handlers[event.Type]
	if !ok {
		return nil
	}
	return h(ctx, event)
}

func invoiceHandler(fn func(context.Context, entity.InvoiceEvent) error) handlerFunc {
	return func(ctx context.Context, event stripe.Event) error {
		ev, err := decodeInvoice(event)
		if err != nil {
			return err
		}
		return fn(ctx, ev)
	}
}

func subscriptionHandler(fn func(context.Context, entity.SubscriptionEvent) error) handlerFunc {
	return func(ctx context.Context, event stripe.Event) error {
		ev, err := decodeSubscription(event)
		if err != nil {
			return err
		}
		return fn(ctx, ev)
	}
}
