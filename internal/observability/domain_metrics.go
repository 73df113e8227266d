package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	historyRecordFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "agrigate_history_record_failures_total",
			Help: "Total number of invocation history writes that failed.",
		},
	)
	archiveUploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrigate_archive_uploads_total",
			Help: "Total number of result archive uploads by status.",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		historyRecordFailuresTotal,
		archiveUploadsTotal,
	)
}

func IncrementHistoryRecordFailure() {
	historyRecordFailuresTotal.Inc()
}

func IncrementArchiveUpload(status string) {
	archiveUploadsTotal.WithLabelValues(status).Inc()
}
