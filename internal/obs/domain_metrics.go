package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PricingQuoteTotal counts pricing quote computations by result.
	PricingQuoteTotal *prometheus.CounterVec
	// PricingAnomalyTotal counts negative-total clamps in the pricing engine.
	PricingAnomalyTotal prometheus.Counter
	// PaymentIntentTotal counts payment intent creation attempts.
	PaymentIntentTotal *prometheus.CounterVec
	// OrderMaterializedTotal counts order materialization outcomes.
	OrderMaterializedTotal *prometheus.CounterVec
	// AmountMismatchTotal counts divergences between gateway-captured amount and
	// the recomputed cart total at confirmation.
	AmountMismatchTotal prometheus.Counter
	// DiscountSettleTotal counts discount settlement outcomes.
	DiscountSettleTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers checkout domain collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PricingQuoteTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_quote_total",
			Help:      "Count of pricing quote computations by result.",
		}, []string{"result"}))
		PricingAnomalyTotal = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_anomaly_total",
			Help:      "Count of pricing totals clamped to zero.",
		}))
		PaymentIntentTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_intent_total",
			Help:      "Count of payment intent creation outcomes.",
		}, []string{"provider", "result"}))
		OrderMaterializedTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_materialized_total",
			Help:      "Count of order materialization outcomes.",
		}, []string{"provider", "result"}))
		AmountMismatchTotal = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_amount_mismatch_total",
			Help:      "Count of gateway-captured amounts diverging from recomputed cart totals.",
		}))
		DiscountSettleTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_settle_total",
			Help:      "Count of discount settlement outcomes.",
		}, []string{"result"}))
	})
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter) prometheus.Counter {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}
