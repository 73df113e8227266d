package datafunc

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	invocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrigate_datafunc_invocations_total",
			Help: "Total number of data function invocations by outcome.",
		},
		[]string{"outcome"},
	)
	invocationDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agrigate_datafunc_duration_seconds",
			Help:    "End-to-end data function invocation duration in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)
	invocationRowsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agrigate_datafunc_rows_returned",
			Help:    "Rows returned per successful data function invocation.",
			Buckets: []float64{0, 1, 10, 100, 1000, 10000, 100000},
		},
	)
)

func init() {
	prometheus.MustRegister(
		invocationsTotal,
		invocationDurationSeconds,
		invocationRowsReturned,
	)
}

func observeInvocation(outcome string, rows int, elapsed time.Duration) {
	invocationsTotal.WithLabelValues(outcome).Inc()
	invocationDurationSeconds.Observe(elapsed.Seconds())
	if outcome == "ok" {
		invocationRowsReturned.Observe(float64(rows))
	}
}
