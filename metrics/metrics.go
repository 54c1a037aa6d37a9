package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesReceived counts inbound transport messages by kind.
	MessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_received_total",
			Help: "Total number of inbound device messages",
		},
		[]string{"kind"},
	)

	// MessagesDropped counts silently dropped messages by reason.
	MessagesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_dropped_total",
			Help: "Total number of dropped device messages",
		},
		[]string{"reason"},
	)

	// ReadingsStored counts persisted telemetry readings.
	ReadingsStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "readings_stored_total",
			Help: "Total number of telemetry readings stored",
		},
	)

	// ValidationWarnings counts advisory per-field validation failures.
	ValidationWarnings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "validation_warnings_total",
			Help: "Total number of advisory parameter validation failures",
		},
	)

	// AlertsTriggered counts alert rule firings by severity.
	AlertsTriggered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_triggered_total",
			Help: "Total number of alert rule firings",
		},
		[]string{"severity"},
	)

	// NotificationsSent counts notification dispatch outcomes.
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of alert notification dispatch attempts",
		},
		[]string{"status"},
	)

	// WebsocketClients tracks currently connected dashboard sessions.
	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_clients",
			Help: "Number of connected websocket clients",
		},
	)

	// ReadingsPurged counts readings removed by the retention sweeper.
	ReadingsPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "readings_purged_total",
			Help: "Total number of readings purged by retention",
		},
	)

	// AlertLogsPurged counts alert logs removed by the retention sweeper.
	AlertLogsPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alert_logs_purged_total",
			Help: "Total number of alert logs purged by retention",
		},
	)
)
