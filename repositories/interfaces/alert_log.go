package interfaces

import (
	"time"

	"telemetry-hub/models"
)

// AlertLogRepositoryInterface stores immutable alert firing records. Only
// the notification outcome (set once, right after dispatch) and the
// acknowledgement sub-state may change after creation.
type AlertLogRepositoryInterface interface {
	Create(entry *models.AlertLog) error
	GetByID(id uint) (*models.AlertLog, error)
	List(limit, offset int) ([]models.AlertLog, error)
	ListByDevice(deviceID uint, limit int) ([]models.AlertLog, error)

	RecordNotification(id uint, sent bool, errMsg string, at time.Time) error
	Acknowledge(id uint, by, notes string, at time.Time) error

	DeleteOlderThan(cutoff time.Time) (int64, error)
}
