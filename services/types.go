package services

import (
	"time"

	"telemetry-hub/models"
)

// Fan-out event names pushed to connected dashboard sessions.
const (
	EventTelemetry    = "telemetry"
	EventDeviceStatus = "deviceStatus"
	EventAlert        = "alert"
)

// Transport identifier recorded on stored readings.
const SourceMQTT = "mqtt"

// Publisher is the real-time fan-out sink. Publish is fire-and-forget:
// implementations must never block the caller on slow subscribers.
type Publisher interface {
	Publish(event string, payload interface{})
}

// Notifier dispatches alert notifications. An error marks the delivery as
// failed on the alert log; it is never propagated to the evaluation caller.
type Notifier interface {
	SendAlert(recipients []string, deviceSerial, parameterName string, value, threshold float64, thresholdType, message, severity string) error
}

// StatusCache mirrors liveness and hot readings into a cache layer.
// Implemented by the Redis client. Writes are best-effort; reads serve the
// hot paths (latest reading, current status), with the database as the
// authoritative fallback on any miss or failure.
type StatusCache interface {
	SaveDeviceStatus(serialNumber, status string, seenAt time.Time) error
	GetDeviceStatus(serialNumber string) (string, error)
	SaveLatestReading(serialNumber string, reading *models.TelemetryReading) error
	GetLatestReading(serialNumber string) (*models.TelemetryReading, error)
}

// TelemetryEvent is the payload of a telemetry fan-out event.
type TelemetryEvent struct {
	SerialNumber string                   `json:"serialNumber"`
	DeviceID     uint                     `json:"deviceId"`
	Reading      *models.TelemetryReading `json:"reading"`
}

// DeviceStatusEvent is the payload of a deviceStatus fan-out event.
type DeviceStatusEvent struct {
	SerialNumber string    `json:"serialNumber"`
	DeviceID     uint      `json:"deviceId"`
	Status       string    `json:"status"`
	LastSeenAt   time.Time `json:"lastSeenAt"`
}

// AlertEvent is the payload of an alert fan-out event: the immutable log
// entry plus a snapshot of the rule that fired.
type AlertEvent struct {
	Log  *models.AlertLog  `json:"log"`
	Rule *models.AlertRule `json:"rule"`
}
