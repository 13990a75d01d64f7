package source

import "github.com/prometheus/client_golang/prometheus"

var (
	pagesFetchedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activity_tracker",
		Subsystem: "source",
		Name:      "pages_fetched_total",
		Help:      "Number of activity pages retrieved from an external platform.",
	}, []string{"source"})

	tokenRefreshCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activity_tracker",
		Subsystem: "source",
		Name:      "token_refresh_total",
		Help:      "Refresh-token grants attempted, labeled by outcome.",
	}, []string{"outcome"})

	fallbackCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "activity_tracker",
		Subsystem: "source",
		Name:      "fixture_fallback_total",
		Help:      "Number of fetches answered with built-in fixture records after a platform error.",
	})
)

func init() {
	prometheus.MustRegister(pagesFetchedCounter, tokenRefreshCounter, fallbackCounter)
}
