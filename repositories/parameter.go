package repositories

import (
	"errors"
	"fmt"
	"time"

	"telemetry-hub/models"
	"telemetry-hub/repositories/interfaces"

	"gorm.io/gorm"
)

// ParameterRepository implements ParameterRepositoryInterface.
type ParameterRepository struct {
	db *gorm.DB
}

// NewParameterRepository creates a new instance of ParameterRepository.
func NewParameterRepository(db *gorm.DB) interfaces.ParameterRepositoryInterface {
	return &ParameterRepository{db: db}
}

func (r *ParameterRepository) Create(param *models.Parameter) error {
	if err := r.db.Create(param).Error; err != nil {
		return fmt.Errorf("failed to create parameter %s: %w", param.Name, err)
	}
	return nil
}

func (r *ParameterRepository) CreateBatch(params []models.Parameter) error {
	if len(params) == 0 {
		return nil
	}
	if err := r.db.Create(&params).Error; err != nil {
		return fmt.Errorf("failed to create parameters: %w", err)
	}
	return nil
}

func (r *ParameterRepository) GetByID(id uint) (*models.Parameter, error) {
	var param models.Parameter
	err := r.db.Where("id = ?", id).First(&param).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get parameter %d: %w", id, err)
	}
	return &param, nil
}

func (r *ParameterRepository) ListByDevice(deviceID uint) ([]models.Parameter, error) {
	var params []models.Parameter
	err := r.db.Where("device_id = ?", deviceID).Order("display_order asc, name asc").Find(&params).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list parameters for device %d: %w", deviceID, err)
	}
	return params, nil
}

func (r *ParameterRepository) Update(id uint, updates map[string]interface{}) (*models.Parameter, error) {
	updates["updated_at"] = time.Now()
	result := r.db.Model(&models.Parameter{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update parameter %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("parameter %d not found", id)
	}
	return r.GetByID(id)
}

func (r *ParameterRepository) Delete(id uint) error {
	result := r.db.Delete(&models.Parameter{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete parameter %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("parameter %d not found", id)
	}
	return nil
}
