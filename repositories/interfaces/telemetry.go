package interfaces

import (
	"time"

	"telemetry-hub/models"
)

// TelemetryRepositoryInterface is the append-only store of validated
// readings. Readings are never updated; retention is enforced by
// DeleteOlderThan.
type TelemetryRepositoryInterface interface {
	Create(reading *models.TelemetryReading) error

	// Range returns readings for a device within [start, end], ordered by
	// timestamp descending. limit <= 0 means no limit.
	Range(deviceID uint, start, end time.Time, limit int) ([]models.TelemetryReading, error)

	// Latest returns the most recent n readings, timestamp descending.
	Latest(deviceID uint, n int) ([]models.TelemetryReading, error)

	DeleteOlderThan(cutoff time.Time) (int64, error)
}
