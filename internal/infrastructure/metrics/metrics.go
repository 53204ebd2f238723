package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wekeepgrowing/semo-enrollment/internal/domain/model"
)

const namespace = "enrollment"

// Collector implements the usecase and webhook metric sinks on one registry.
type Collector struct {
	registry *prometheus.Registry

	transitions      *prometheus.CounterVec
	conflicts        *prometheus.CounterVec
	checkoutSessions *prometheus.CounterVec
	accessChecks     *prometheus.CounterVec
	webhooks         *prometheus.CounterVec
	webhookLatency   *prometheus.HistogramVec
	sweptEnrollments prometheus.Counter
	replayedWebhooks *prometheus.CounterVec
}

// New registers every collector, plus the Go and process collectors, on a fresh registry
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Committed enrollment state changes by event and status pair.",
		}, []string{"event", "from", "to"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "write_conflicts_total",
			Help:      "Lost compare-and-swap writes by event.",
		}, []string{"event"}),
		checkoutSessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_sessions_total",
			Help:      "Checkout sessions created by payment type.",
		}, []string{"payment_type"}),
		accessChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "access_checks_total",
			Help:      "Access gate decisions.",
		}, []string{"granted"}),
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhooks_total",
			Help:      "Provider webhook deliveries by event type and outcome.",
		}, []string{"event_type", "outcome"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "webhook_duration_seconds",
			Help:      "Webhook processing latency.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"event_type"}),
		sweptEnrollments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swept_cancellations_total",
			Help:      "Enrollments moved to CANCELLED by the sweeper.",
		}),
		replayedWebhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_replays_total",
			Help:      "Stored webhook events replayed by outcome.",
		}, []string{"outcome"}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.transitions, c.conflicts, c.checkoutSessions, c.accessChecks,
		c.webhooks, c.webhookLatency, c.sweptEnrollments, c.replayedWebhooks,
	)
	return c
}

// Handler exposes the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) EnrollmentTransition(event string, from, to model.EnrollmentStatus) {
	c.transitions.WithLabelValues(event, statusLabel(from), statusLabel(to)).Inc()
}

func (c *Collector) EnrollmentConflict(event string) {
	c.conflicts.WithLabelValues(event).Inc()
}

func (c *Collector) CheckoutSessionCreated(paymentType model.PaymentType) {
	c.checkoutSessions.WithLabelValues(string(paymentType)).Inc()
}

func (c *Collector) AccessChecked(granted bool) {
	c.accessChecks.WithLabelValues(strconv.FormatBool(granted)).Inc()
}

func (c *Collector) WebhookProcessed(eventType string, outcome string, elapsed time.Duration) {
	c.webhooks.WithLabelValues(eventType, outcome).Inc()
	c.webhookLatency.WithLabelValues(eventType).Observe(elapsed.Seconds())
}

func (c *Collector) CancellationsSwept(n int64) {
	c.sweptEnrollments.Add(float64(n))
}

func (c *Collector) WebhookReplayed(outcome string) {
	c.replayedWebhooks.WithLabelValues(outcome).Inc()
}

// statusLabel names the missing record "NONE"
func statusLabel(s model.EnrollmentStatus) string {
	if s == "" {
		return "NONE"
	}
	return string(s)
}
