package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// BillingMetrics holds the service's Prometheus collectors on a private registry.
type BillingMetrics struct {
	registry *prometheus.Registry

	StatusChecks     *prometheus.CounterVec
	StatusUpserts    *prometheus.CounterVec
	RedirectSessions *prometheus.CounterVec
	PromoValidations *prometheus.CounterVec
	WebhookEvents    *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec
}

func NewBillingMetrics() *BillingMetrics {
	reg := prometheus.NewRegistry()
	m := &BillingMetrics{
		registry: reg,
		StatusChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carenest",
			Subsystem: "billing",
			Name:      "status_checks_total",
			Help:      "Subscription status checks by outcome (active, none, error).",
		}, []string{"outcome"}),
		StatusUpserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carenest",
			Subsystem: "billing",
			Name:      "status_upserts_total",
			Help:      "Denormalized status row writes by result (applied, stale, failed).",
		}, []string{"result"}),
		RedirectSessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carenest",
			Subsystem: "billing",
			Name:      "redirect_sessions_total",
			Help:      "Checkout and portal sessions created by kind and result.",
		}, []string{"kind", "result"}),
		PromoValidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carenest",
			Subsystem: "billing",
			Name:      "promo_validations_total",
			Help:      "Promo code validations by result (valid, invalid, error).",
		}, []string{"result"}),
		WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carenest",
			Subsystem: "billing",
			Name:      "webhook_events_total",
			Help:      "Provider webhook deliveries by event type and result.",
		}, []string{"type", "result"}),
		ProviderLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "carenest",
			Subsystem: "billing",
			Name:      "provider_call_seconds",
			Help:      "Latency of billing provider calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"call"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.StatusChecks,
		m.StatusUpserts,
		m.RedirectSessions,
		m.PromoValidations,
		m.WebhookEvents,
		m.ProviderLatency,
	)
	return m
}

func (m *BillingMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *BillingMetrics) Registry() *prometheus.Registry {
	return m.registry
}
