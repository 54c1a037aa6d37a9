package interfaces

import (
	"telemetry-hub/models"
)

// ParameterRepositoryInterface stores per-device parameter definitions.
type ParameterRepositoryInterface interface {
	Create(param *models.Parameter) error
	CreateBatch(params []models.Parameter) error
	GetByID(id uint) (*models.Parameter, error)
	ListByDevice(deviceID uint) ([]models.Parameter, error)
	Update(id uint, updates map[string]interface{}) (*models.Parameter, error)
	Delete(id uint) error
}
