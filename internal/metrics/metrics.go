// Package metrics exposes payment processing metrics for Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the payment pipeline metrics.
type Metrics struct {
	PaymentsTotal    *prometheus.CounterVec
	PaymentAmountUZS *prometheus.CounterVec
	CallbackDuration *prometheus.HistogramVec
	RetriesTotal     *prometheus.CounterVec
	AuthFailures     *prometheus.CounterVec
	RateLimited      prometheus.Counter
}

// New registers the metrics on the default registry.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "uzpay"
	}

	return &Metrics{
		PaymentsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payments_total",
				Help:      "Payments by gateway and final callback status",
			},
			[]string{"gateway", "status"},
		),
		PaymentAmountUZS: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payment_amount_uzs_total",
				Help:      "Completed payment volume in UZS soums",
			},
			[]string{"gateway"},
		),
		CallbackDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "callback_duration_seconds",
				Help:      "Callback processing duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"gateway"},
		),
		RetriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_retries_total",
				Help:      "Reconciliation retries scheduled by gateway",
			},
			[]string{"gateway"},
		),
		AuthFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "callback_auth_failures_total",
				Help:      "Callbacks rejected for a missing or invalid signature",
			},
			[]string{"gateway"},
		),
		RateLimited: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "callbacks_rate_limited_total",
				Help:      "Callbacks rejected by the rate limiter",
			},
		),
	}
}
