package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// SessionCreateTotal counts payment session creation outcomes.
	SessionCreateTotal *prometheus.CounterVec
	// RefundTotal counts refund request outcomes.
	RefundTotal *prometheus.CounterVec
	// WebhookInboundTotal counts inbound gateway webhooks by event type and outcome.
	WebhookInboundTotal *prometheus.CounterVec
	// WebhookReplaySkipped counts webhook deliveries skipped by the dedup store.
	WebhookReplaySkipped prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		SessionCreateTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_session_total",
			Help:      "Count of payment session creation outcomes.",
		}, []string{"result"})
		RefundTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refund_total",
			Help:      "Count of refund request outcomes.",
		}, []string{"result"})
		WebhookInboundTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_inbound_total",
			Help:      "Count of inbound gateway webhooks by event type and outcome.",
		}, []string{"type", "result"})
		WebhookReplaySkipped = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_replay_skipped_total",
			Help:      "Number of webhook deliveries skipped because the event was already processed.",
		})

		mustRegisterCollector(reg, SessionCreateTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SessionCreateTotal = v
			}
		})
		mustRegisterCollector(reg, RefundTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				RefundTotal = v
			}
		})
		mustRegisterCollector(reg, WebhookInboundTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				WebhookInboundTotal = v
			}
		})
		mustRegisterCollector(reg, WebhookReplaySkipped, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				WebhookReplaySkipped = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, c prometheus.Collector, replace func(prometheus.Collector)) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			replace(are.ExistingCollector)
			return
		}
		panic(err)
	}
}
