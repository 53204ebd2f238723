package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wekeepgrowing/semo-enrollment/internal/domain/model"
)

func TestCollector(t *testing.T) {
	c := New()

	c.EnrollmentTransition("checkout", "", model.EnrollmentStatusActive)
	c.EnrollmentTransition("checkout", "", model.EnrollmentStatusActive)
	c.EnrollmentConflict("invoice_paid")
	c.AccessChecked(true)
	c.AccessChecked(false)
	c.WebhookProcessed("invoice.paid", "processed", 20*time.Millisecond)
	c.CancellationsSwept(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.transitions.WithLabelValues("checkout", "NONE", "ACTIVE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.conflicts.WithLabelValues("invoice_paid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.accessChecks.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.webhooks.WithLabelValues("invoice.paid", "processed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.sweptEnrollments))
}

func TestCollector_Handler(t *testing.T) {
	c := New()
	c.CheckoutSessionCreated(model.PaymentTypeSubscription)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `enrollment_checkout_sessions_total{payment_type="SUBSCRIPTION"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
