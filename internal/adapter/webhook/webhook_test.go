package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-enrollment/internal/adapter/repository/memory"
	"github.com/wekeepgrowing/semo-enrollment/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/semo-enrollment/internal/domain/errors"
	"github.com/wekeepgrowing/semo-enrollment/internal/domain/model"
)

// recordingReconciler records which handler each event reached.
type recordingReconciler struct {
	calls     []string
	checkouts []entity.CheckoutCompleted
	invoices  []entity.InvoiceEvent
	subs      []entity.SubscriptionEvent
	err       error
}

func (r *recordingReconciler) Checkout(_ context.Context, ev entity.CheckoutCompleted) error {
	r.calls = append(r.calls, "checkout")
	r.checkouts = append(r.checkouts, ev)
	return r.err
}

func (r *recordingReconciler) InvoiceUpdated(_ context.Context, ev entity.InvoiceEvent) error {
	r.calls = append(r.calls, "invoice_updated")
	r.invoices = append(r.invoices, ev)
	return r.err
}

func (r *recordingReconciler) InvoicePaymentSucceeded(_ context.Context, ev entity.InvoiceEvent) error {
	r.calls = append(r.calls, "payment_succeeded")
	r.invoices = append(r.invoices, ev)
	return r.err
}

func (r *recordingReconciler) InvoicePaymentFailed(_ context.Context, ev entity.InvoiceEvent) error {
	r.calls = append(r.calls, "payment_failed")
	r.invoices = append(r.invoices, ev)
	return r.err
}

func (r *recordingReconciler) SubscriptionUpdated(_ context.Context, ev entity.SubscriptionEvent) error {
	r.calls = append(r.calls, "subscription_updated")
	r.subs = append(r.subs, ev)
	return r.err
}

func (r *recordingReconciler) SubscriptionDeleted(_ context.Context, ev entity.SubscriptionEvent) error {
	r.calls = append(r.calls, "subscription_deleted")
	r.subs = append(r.subs, ev)
	return r.err
}

const created = 1740830400 // 2025-03-01T12:00:00Z

func newEvent(id string, typ stripe.EventType, object string) stripe.Event {
	return stripe.Event{
		ID:      id,
		Type:    typ,
		Created: created,
		Data:    &stripe.EventData{Raw: json.RawMessage(object)},
	}
}

const invoiceObject = `{"id":"in_1","object":"invoice","subscription":"sub_1","charge":"ch_1",
	"hosted_invoice_url":"https://invoice/1","invoice_pdf":"https://invoice/1.pdf",
	"amount_due":4900,"amount_paid":4900,"currency":"usd",
	"subscription_details":{"metadata":{"studentId":"student-1","courseId":"course-1"}}}`

func TestRouter_Dispatch(t *testing.T) {
	tests := []struct {
		typ  stripe.EventType
		obj  string
		want string
	}{
		{stripe.EventTypeCheckoutSessionCompleted, `{"id":"cs_1","object":"checkout.session"}`, "checkout"},
		{stripe.EventTypeInvoiceCreated, invoiceObject, "invoice_updated"},
		{stripe.EventTypeInvoiceFinalized, invoiceObject, "invoice_updated"},
		{stripe.EventTypeInvoicePaymentSucceeded, invoiceObject, "payment_succeeded"},
		{stripe.EventTypeInvoicePaid, invoiceObject, "payment_succeeded"},
		{stripe.EventTypeInvoicePaymentFailed, invoiceObject, "payment_failed"},
		{stripe.EventTypeCustomerSubscriptionUpdated, `{"id":"sub_1","object":"subscription","status":"active"}`, "subscription_updated"},
		{stripe.EventTypeCustomerSubscriptionDeleted, `{"id":"sub_1","object":"subscription","status":"canceled"}`, "subscription_deleted"},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			rec := &recordingReconciler{}
			router := NewRouter(rec)

			require.True(t, router.Handles(tt.typ))
			require.NoError(t, router.Dispatch(context.Background(), newEvent("evt_1", tt.typ, tt.obj)))
			assert.Equal(t, []string{tt.want}, rec.calls)
		})
	}

	t.Run("unknown type is a no-op", func(t *testing.T) {
		rec := &recordingReconciler{}
		router := NewRouter(rec)
		assert.False(t, router.Handles("customer.created"))
		assert.NoError(t, router.Dispatch(context.Background(), newEvent("evt_1", "customer.created", `{}`)))
		assert.Empty(t, rec.calls)
	})
}

func TestDecodeCheckoutCompleted(t *testing.T) {
	event := newEvent("evt_1", stripe.EventTypeCheckoutSessionCompleted, `{
		"id":"cs_1","object":"checkout.session","mode":"subscription","payment_status":"paid",
		"amount_total":0,"currency":"usd","subscription":"sub_1","invoice":"in_1",
		"metadata":{"studentId":"student-1","courseId":"course-1","teacherId":"teacher-1","paymentType":"SUBSCRIPTION"}}`)

	ev, err := decodeCheckoutCompleted(event)
	require.NoError(t, err)
	assert.Equal(t, "cs_1", ev.SessionID)
	assert.Equal(t, model.PaymentTypeSubscription, ev.Mode)
	assert.True(t, ev.Paid)
	assert.Equal(t, "sub_1", ev.SubscriptionID)
	assert.Equal(t, "in_1", ev.InvoiceID)
	assert.Equal(t, entity.Correlation{StudentID: "student-1", CourseID: "course-1", TeacherID: "teacher-1", PaymentType: model.PaymentTypeSubscription}, ev.Correlation)
	assert.True(t, ev.OccurredAt.Equal(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)))
}

func TestDecodeCheckoutCompleted_OneTime(t *testing.T) {
	event := newEvent("evt_1", stripe.EventTypeCheckoutSessionCompleted, `{
		"id":"cs_2","object":"checkout.session","mode":"payment","payment_status":"unpaid",
		"amount_total":4900,"currency":"usd","payment_intent":"pi_1","client_reference_id":"student-9"}`)

	ev, err := decodeCheckoutCompleted(event)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentTypeOneTime, ev.Mode)
	assert.False(t, ev.Paid)
	assert.Equal(t, "pi_1", ev.PaymentIntentID)
	assert.EqualValues(t, 4900, ev.AmountTotal)
	assert.Equal(t, "student-9", ev.Correlation.StudentID)
	assert.False(t, ev.Correlation.Complete())
}

func TestDecodeInvoice(t *testing.T) {
	ev, err := decodeInvoice(newEvent("evt_1", stripe.EventTypeInvoicePaid, invoiceObject))
	require.NoError(t, err)
	assert.Equal(t, "in_1", ev.InvoiceID)
	assert.Equal(t, "sub_1", ev.SubscriptionID)
	assert.Equal(t, "ch_1", ev.ChargeID)
	assert.Equal(t, "https://invoice/1", ev.HostedInvoiceURL)
	assert.Equal(t, "https://invoice/1.pdf", ev.InvoicePDF)
	assert.EqualValues(t, 4900, ev.AmountPaid)
	assert.Equal(t, "student-1", ev.Correlation.StudentID)
}

func TestDecodeSubscription(t *testing.T) {
	ev, err := decodeSubscription(newEvent("evt_1", stripe.EventTypeCustomerSubscriptionUpdated, `{
		"id":"sub_1","object":"subscription","status":"active","cancel_at_period_end":true,
		"current_period_end":1743422400,"cancellation_details":{"reason":"cancellation_requested"},
		"metadata":{"studentId":"student-1","courseId":"course-1"}}`))
	require.NoError(t, err)

	sub := ev.Subscription
	assert.Equal(t, entity.SubscriptionStatusActive, sub.Status)
	assert.True(t, sub.CancelAtPeriodEnd)
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.EqualValues(t, 1743422400, sub.CurrentPeriodEnd.Unix())
	assert.Nil(t, sub.TrialEnd)
	assert.Equal(t, "cancellation_requested", sub.CancellationReason)
	assert.True(t, sub.Correlation.Complete())
}

func TestDecode_Malformed(t *testing.T) {
	_, err := decodeSubscription(newEvent("evt_1", stripe.EventTypeCustomerSubscriptionUpdated, `{"id": 12`))
	assert.ErrorIs(t, err, ErrMalformedEvent)

	_, err = decodeSubscription(newEvent("evt_2", stripe.EventTypeCustomerSubscriptionUpdated, `{"object":"subscription"}`))
	assert.ErrorIs(t, err, ErrMalformedEvent)

	_, err = decodeInvoice(stripe.Event{ID: "evt_3"})
	assert.ErrorIs(t, err, ErrMalformedEvent)
}

func newProcessor(rec *recordingReconciler) (*Processor, *memory.WebhookEventRepository) {
	events := memory.NewWebhookEventRepository()
	return NewProcessor(events, NewRouter(rec), nil, zap.NewNop()), events
}

// payloadOf renders the request body the provider would have sent for event.
func payloadOf(t *testing.T, event stripe.Event) []byte {
	t.Helper()
	body := fmt.Sprintf(`{"id":%q,"object":"event","type":%q,"created":%d,"data":{"object":%s}}`,
		event.ID, event.Type, event.Created, event.Data.Raw)

	var check stripe.Event
	require.NoError(t, json.Unmarshal([]byte(body), &check))
	return []byte(body)
}

func TestProcessor_Process(t *testing.T) {
	ctx := context.Background()
	event := newEvent("evt_1", stripe.EventTypeInvoicePaymentFailed, invoiceObject)

	t.Run("processes once and acknowledges redelivery", func(t *testing.T) {
		rec := &recordingReconciler{}
		p, events := newProcessor(rec)

		outcome, err := p.Process(ctx, event, payloadOf(t, event))
		require.NoError(t, err)
		assert.Equal(t, OutcomeProcessed, outcome)

		outcome, err = p.Process(ctx, event, payloadOf(t, event))
		require.NoError(t, err)
		assert.Equal(t, OutcomeDuplicate, outcome)
		assert.Len(t, rec.calls, 1)

		stored, ok := events.Get("evt_1")
		require.True(t, ok)
		assert.Equal(t, model.WebhookStatusCompleted, stored.Status)
	})

	t.Run("unhandled type is not recorded", func(t *testing.T) {
		p, events := newProcessor(&recordingReconciler{})
		other := newEvent("evt_x", "customer.created", `{}`)
		outcome, err := p.Process(ctx, other, payloadOf(t, other))
		require.NoError(t, err)
		assert.Equal(t, OutcomeIgnored, outcome)
		_, ok := events.Get("evt_x")
		assert.False(t, ok)
	})

	t.Run("missing correlation is acknowledged", func(t *testing.T) {
		p, events := newProcessor(&recordingReconciler{err: domainErrors.ErrMissingCorrelation})
		outcome, err := p.Process(ctx, event, payloadOf(t, event))
		require.NoError(t, err)
		assert.Equal(t, OutcomeUnmatched, outcome)
		stored, _ := events.Get("evt_1")
		assert.Equal(t, model.WebhookStatusCompleted, stored.Status)
	})

	t.Run("handler failure marks the event for retry", func(t *testing.T) {
		rec := &recordingReconciler{err: errors.New("db down")}
		p, events := newProcessor(rec)

		outcome, err := p.Process(ctx, event, payloadOf(t, event))
		require.Error(t, err)
		assert.Equal(t, OutcomeFailed, outcome)

		stored, _ := events.Get("evt_1")
		assert.Equal(t, model.WebhookStatusFailed, stored.Status)
		assert.Equal(t, 1, stored.ProcessingAttempts)
		require.NotNil(t, stored.LastError)
		assert.Equal(t, "db down", *stored.LastError)

		// provider redelivery runs the handler again
		rec.err = nil
		outcome, err = p.Process(ctx, event, payloadOf(t, event))
		require.NoError(t, err)
		assert.Equal(t, OutcomeProcessed, outcome)
		assert.Len(t, rec.calls, 2)
	})

	t.Run("malformed object", func(t *testing.T) {
		p, _ := newProcessor(&recordingReconciler{})
		bad := newEvent("evt_bad", stripe.EventTypeCustomerSubscriptionUpdated, `{"object":"subscription"}`)
		outcome, err := p.Process(ctx, bad, payloadOf(t, bad))
		assert.ErrorIs(t, err, ErrMalformedEvent)
		assert.Equal(t, OutcomeMalformed, outcome)
	})
}

func TestProcessor_Replay(t *testing.T) {
	ctx := context.Background()
	rec := &recordingReconciler{err: errors.New("timeout")}
	p, events := newProcessor(rec)

	event := newEvent("evt_1", stripe.EventTypeCustomerSubscriptionDeleted, `{"id":"sub_1","object":"subscription","status":"canceled"}`)
	_, err := p.Process(ctx, event, payloadOf(t, event))
	require.Error(t, err)

	stored, _ := events.Get("evt_1")
	rec.err = nil
	outcome, err := p.Replay(ctx, stored)
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, outcome)
	require.Len(t, rec.subs, 2)
	assert.Equal(t, "sub_1", rec.subs[1].Subscription.ID)

	stored, _ = events.Get("evt_1")
	assert.Equal(t, model.WebhookStatusCompleted, stored.Status)
}
