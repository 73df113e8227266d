package maintenance

import "github.com/prometheus/client_golang/prometheus"

var (
	retentionRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrigate_retention_runs_total",
			Help: "Total number of history retention runs by status.",
		},
		[]string{"status"},
	)
	retentionRowsPrunedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "agrigate_retention_rows_pruned_total",
			Help: "Total number of invocation history rows pruned by retention runs.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		retentionRunsTotal,
		retentionRowsPrunedTotal,
	)
}
