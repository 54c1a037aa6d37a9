package repositories

import (
	"errors"
	"fmt"
	"time"

	"telemetry-hub/models"
	"telemetry-hub/repositories/interfaces"

	"gorm.io/gorm"
)

// DeviceRepository implements DeviceRepositoryInterface.
type DeviceRepository struct {
	db *gorm.DB
}

// NewDeviceRepository creates a new instance of DeviceRepository.
func NewDeviceRepository(db *gorm.DB) interfaces.DeviceRepositoryInterface {
	return &DeviceRepository{db: db}
}

func (r *DeviceRepository) Create(device *models.Device) error {
	if err := r.db.Create(device).Error; err != nil {
		return fmt.Errorf("failed to create device: %w", err)
	}
	return nil
}

func (r *DeviceRepository) GetByID(id uint) (*models.Device, error) {
	var device models.Device
	err := r.db.Where("id = ?", id).First(&device).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get device %d: %w", id, err)
	}
	return &device, nil
}

func (r *DeviceRepository) GetBySerialNumber(serialNumber string) (*models.Device, error) {
	var device models.Device
	err := r.db.Where("serial_number = ?", serialNumber).First(&device).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get device %s: %w", serialNumber, err)
	}
	return &device, nil
}

func (r *DeviceRepository) List(limit, offset int) ([]models.Device, error) {
	var devices []models.Device
	query := r.db.Order("created_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

func (r *DeviceRepository) Update(id uint, updates map[string]interface{}) (*models.Device, error) {
	updates["updated_at"] = time.Now()
	result := r.db.Model(&models.Device{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update device %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("device %d not found", id)
	}
	return r.GetByID(id)
}

func (r *DeviceRepository) Delete(id uint) error {
	result := r.db.Delete(&models.Device{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete device %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("device %d not found", id)
	}
	return nil
}

// MarkSeen sets status and last-seen in one update.
func (r *DeviceRepository) MarkSeen(id uint, status string, seenAt time.Time) error {
	err := r.db.Model(&models.Device{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":       status,
		"last_seen_at": seenAt,
		"updated_at":   seenAt,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to mark device %d seen: %w", id, err)
	}
	return nil
}
