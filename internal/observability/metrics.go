// Package observability holds process-wide watermark gauges and the metrics endpoint.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	activityPersistGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "activity_tracker",
		Subsystem: "persistence",
		Name:      "last_activity_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent activity write, by storage driver.",
	}, []string{"driver"})
	syncCompletedGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "activity_tracker",
		Subsystem: "sync",
		Name:      "last_completed_timestamp_seconds",
		Help:      "Unix timestamp of the most recent synchronization that imported at least one activity.",
	}, []string{"source"})
)

func init() {
	prometheus.MustRegister(activityPersistGauge, syncCompletedGauge)
}

// RecordActivityPersisted moves the persistence watermark for driver.
func RecordActivityPersisted(driver string, ts time.Time) {
	if ts.IsZero() {
		return
	}
	activityPersistGauge.WithLabelValues(driver).Set(float64(ts.Unix()))
}

// RecordSyncCompleted moves the sync watermark for source.
func RecordSyncCompleted(source string, ts time.Time) {
	if ts.IsZero() {
		return
	}
	syncCompletedGauge.WithLabelValues(source).Set(float64(ts.Unix()))
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
