// Package observability registers the tracker's Prometheus metrics.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	activityPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "timetracker",
		Subsystem: "persistence",
		Name:      "last_activity_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent activity persisted to Postgres.",
	})
	activitiesRecorded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "timetracker",
		Subsystem: "recorder",
		Name:      "activities_recorded_total",
		Help:      "Total number of activities recorded.",
	})
	sessionsIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "timetracker",
		Subsystem: "auth",
		Name:      "sessions_issued_total",
		Help:      "Total number of login sessions issued.",
	})
	resetEmailsEnqueued = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "timetracker",
		Subsystem: "mail",
		Name:      "reset_emails_enqueued_total",
		Help:      "Total number of password reset emails handed to the queue.",
	})
)

func init() {
	prometheus.MustRegister(activityPersistGauge, activitiesRecorded, sessionsIssued, resetEmailsEnqueued)
}

// RecordActivityPersisted updates the persistence watermark gauge and the
// recorded counter.
func RecordActivityPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	activityPersistGauge.Set(float64(ts.Unix()))
	activitiesRecorded.Inc()
}

// RecordSessionIssued increments the issued-session counter.
func RecordSessionIssued() {
	sessionsIssued.Inc()
}

// RecordResetEmailEnqueued increments the reset-email counter.
func RecordResetEmailEnqueued() {
	resetEmailsEnqueued.Inc()
}
