package repositories

import (
	"fmt"
	"time"

	"telemetry-hub/models"
	"telemetry-hub/repositories/interfaces"

	"gorm.io/gorm"
)

// TelemetryRepository implements TelemetryRepositoryInterface.
type TelemetryRepository struct {
	db *gorm.DB
}

// NewTelemetryRepository creates a new instance of TelemetryRepository.
func NewTelemetryRepository(db *gorm.DB) interfaces.TelemetryRepositoryInterface {
	return &TelemetryRepository{db: db}
}

func (r *TelemetryRepository) Create(reading *models.TelemetryReading) error {
	if err := r.db.Create(reading).Error; err != nil {
		return fmt.Errorf("failed to store reading for device %d: %w", reading.DeviceID, err)
	}
	return nil
}

func (r *TelemetryRepository) Range(deviceID uint, start, end time.Time, limit int) ([]models.TelemetryReading, error) {
	var readings []models.TelemetryReading
	query := r.db.Where("device_id = ? AND timestamp >= ? AND timestamp <= ?", deviceID, start, end).
		Order("timestamp desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&readings).Error; err != nil {
		return nil, fmt.Errorf("failed to query readings for device %d: %w", deviceID, err)
	}
	return readings, nil
}

func (r *TelemetryRepository) Latest(deviceID uint, n int) ([]models.TelemetryReading, error) {
	var readings []models.TelemetryReading
	err := r.db.Where("device_id = ?", deviceID).Order("timestamp desc").Limit(n).Find(&readings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query latest readings for device %d: %w", deviceID, err)
	}
	return readings, nil
}

func (r *TelemetryRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := r.db.Where("timestamp < ?", cutoff).Delete(&models.TelemetryReading{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge expired readings: %w", result.Error)
	}
	return result.RowsAffected, nil
}
