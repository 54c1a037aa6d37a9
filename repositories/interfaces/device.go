package interfaces

import (
	"time"

	"telemetry-hub/models"
)

// DeviceRepositoryInterface is the authoritative device registry.
// Lookup methods return (nil, nil) when no device matches, so callers can
// distinguish "unknown device" from a storage failure.
type DeviceRepositoryInterface interface {
	Create(device *models.Device) error
	GetByID(id uint) (*models.Device, error)
	GetBySerialNumber(serialNumber string) (*models.Device, error)
	List(limit, offset int) ([]models.Device, error)
	Update(id uint, updates map[string]interface{}) (*models.Device, error)
	Delete(id uint) error

	// MarkSeen sets the device status and refreshes its last-seen
	// timestamp in one update. Used by the ingestion pipeline.
	MarkSeen(id uint, status string, seenAt time.Time) error
}
