package metrics

import "github.com/prometheus/client_golang/prometheus"

// BillingMetrics counts domain events emitted by the billing engine.
type BillingMetrics struct {
	invoicesGenerated  prometheus.Counter
	paymentsApplied    *prometheus.CounterVec
	commissionsCreated prometheus.Counter
	quotaRejections    *prometheus.CounterVec
	transitions        *prometheus.CounterVec
}

// NewBillingMetrics registers the billing counters on the provided registerer.
func NewBillingMetrics(reg prometheus.Registerer) *BillingMetrics {
	if reg == nil {
		return &BillingMetrics{}
	}
	invoicesGenerated := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invoices_generated_total",
		Help:      "Invoices generated from billing cycles.",
	})
	paymentsApplied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invoice_payments_total",
		Help:      "Payments applied to invoices by resulting status.",
	}, []string{"status"})
	commissionsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "commissions_created_total",
		Help:      "Booking commissions created.",
	})
	quotaRejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quota_rejections_total",
		Help:      "Usage requests rejected by plan limits.",
	}, []string{"key"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "subscription_transitions_total",
		Help:      "Subscription lifecycle transitions by change type.",
	}, []string{"change_type"})
	reg.MustRegister(invoicesGenerated, paymentsApplied, commissionsCreated, quotaRejections, transitions)
	return &BillingMetrics{
		invoicesGenerated:  invoicesGenerated,
		paymentsApplied:    paymentsApplied,
		commissionsCreated: commissionsCreated,
		quotaRejections:    quotaRejections,
		transitions:        transitions,
	}
}

func (b *BillingMetrics) IncInvoicesGenerated() {
	if b == nil || b.invoicesGenerated == nil {
		return
	}
	b.invoicesGenerated.Inc()
}

func (b *BillingMetrics) IncPaymentApplied(status string) {
	if b == nil || b.paymentsApplied == nil {
		return
	}
	b.paymentsApplied.WithLabelValues(normalizeLabel(status)).Inc()
}

func (b *BillingMetrics) IncCommissionsCreated() {
	if b == nil || b.commissionsCreated == nil {
		return
	}
	b.commissionsCreated.Inc()
}

func (b *BillingMetrics) IncQuotaRejection(key string) {
	if b == nil || b.quotaRejections == nil {
		return
	}
	b.quotaRejections.WithLabelValues(normalizeLabel(key)).Inc()
}

func (b *BillingMetrics) IncTransition(changeType string) {
	if b == nil || b.transitions == nil {
		return
	}
	b.transitions.WithLabelValues(normalizeLabel(changeType)).Inc()
}
