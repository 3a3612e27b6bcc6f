package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CheckoutMetrics makes the engine's retry behavior observable: how many
// checkouts end in each result, how often commits hit a version conflict,
// and how long the whole transaction takes.
type CheckoutMetrics struct {
	Checkouts *prometheus.CounterVec
	Conflicts prometheus.Counter
	Duration  prometheus.Histogram
}

// NewCheckoutMetrics registers the checkout metrics on reg. Tests pass their
// own registry; main passes prometheus.DefaultRegisterer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pos",
		Subsystem: "checkout",
		Name:      "transactions_total",
		Help:      "Total number of checkout transactions by result.",
	}, []string{"result"})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pos",
		Subsystem: "checkout",
		Name:      "conflict_retries_total",
		Help:      "Total number of optimistic retries caused by concurrent commits.",
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pos",
		Subsystem: "checkout",
		Name:      "transaction_duration_seconds",
		Help:      "Checkout transaction latency in seconds, retries included.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	})

	reg.MustRegister(checkouts, conflicts, duration)
	return &CheckoutMetrics{Checkouts: checkouts, Conflicts: conflicts, Duration: duration}
}

// Handler exposes the default registry for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
