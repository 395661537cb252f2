package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	botCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total number of bot commands received labeled by command and status",
		},
		[]string{"command", "status"},
	)
	commandDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "command_duration_seconds",
			Help:    "Duration of bot commands in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
	pointsAwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "points_awarded_total",
			Help: "Total points credited to users labeled by reason",
		},
		[]string{"reason"},
	)
	tasksResolvedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasks_resolved_total",
			Help: "Pending task resolutions labeled by task kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
	notifyFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notify_failures_total",
			Help: "Total outbound message deliveries that failed",
		},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by type and severity",
		},
		[]string{"type", "severity"},
	)
)

// RecordCommand increments command counters and records duration.
func RecordCommand(command, status string, duration time.Duration) {
	if command == "" {
		command = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	botCommandsTotal.WithLabelValues(command, status).Inc()
	commandDurationSeconds.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordPointsAwarded tracks credited points by reason.
func RecordPointsAwarded(reason string, points int64) {
	if reason == "" {
		reason = "unknown"
	}

	pointsAwardedTotal.WithLabelValues(reason).Add(float64(points))
}

// RecordTaskResolved tracks a pending task reaching an outcome.
func RecordTaskResolved(kind, outcome string) {
	if kind == "" {
		kind = "unknown"
	}
	if outcome == "" {
		outcome = "unknown"
	}

	tasksResolvedTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordNotifyFailure counts a failed outbound delivery.
func RecordNotifyFailure() {
	notifyFailuresTotal.Inc()
}

// RecordError increments error counters with metadata.
func RecordError(errType, severity string) {
	if errType == "" {
		errType = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(errType, severity).Inc()
}
