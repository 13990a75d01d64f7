package synchronizer

import "github.com/prometheus/client_golang/prometheus"

var (
	recordsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activity_tracker",
		Subsystem: "sync",
		Name:      "records_total",
		Help:      "Fetched activity records grouped by source and outcome (imported, skipped, failed).",
	}, []string{"source", "outcome"})

	runDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "activity_tracker",
		Subsystem: "sync",
		Name:      "run_duration_seconds",
		Help:      "Wall time of synchronization runs grouped by final status.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"source", "status"})
)

func init() {
	prometheus.MustRegister(recordsCounter, runDuration)
}
