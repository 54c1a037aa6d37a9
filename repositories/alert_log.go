package repositories

import (
	"errors"
	"fmt"
	"time"

	"telemetry-hub/models"
	"telemetry-hub/repositories/interfaces"

	"gorm.io/gorm"
)

// AlertLogRepository implements AlertLogRepositoryInterface.
type AlertLogRepository struct {
	db *gorm.DB
}

// NewAlertLogRepository creates a new instance of AlertLogRepository.
func NewAlertLogRepository(db *gorm.DB) interfaces.AlertLogRepositoryInterface {
	return &AlertLogRepository{db: db}
}

func (r *AlertLogRepository) Create(entry *models.AlertLog) error {
	if err := r.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create alert log: %w", err)
	}
	return nil
}

func (r *AlertLogRepository) GetByID(id uint) (*models.AlertLog, error) {
	var entry models.AlertLog
	err := r.db.Where("id = ?", id).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get alert log %d: %w", id, err)
	}
	return &entry, nil
}

func (r *AlertLogRepository) List(limit, offset int) ([]models.AlertLog, error) {
	var entries []models.AlertLog
	query := r.db.Order("created_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list alert logs: %w", err)
	}
	return entries, nil
}

func (r *AlertLogRepository) ListByDevice(deviceID uint, limit int) ([]models.AlertLog, error) {
	var entries []models.AlertLog
	query := r.db.Where("device_id = ?", deviceID).Order("created_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list alert logs for device %d: %w", deviceID, err)
	}
	return entries, nil
}

func (r *AlertLogRepository) RecordNotification(id uint, sent bool, errMsg string, at time.Time) error {
	err := r.db.Model(&models.AlertLog{}).Where("id = ?", id).Updates(map[string]interface{}{
		"notification_sent":  sent,
		"notification_error": errMsg,
		"notified_at":        at,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to record notification outcome on alert log %d: %w", id, err)
	}
	return nil
}

func (r *AlertLogRepository) Acknowledge(id uint, by, notes string, at time.Time) error {
	result := r.db.Model(&models.AlertLog{}).Where("id = ?", id).Updates(map[string]interface{}{
		"acknowledged":    true,
		"acknowledged_by": by,
		"acknowledged_at": at,
		"ack_notes":       notes,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to acknowledge alert log %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("alert log %d not found", id)
	}
	return nil
}

func (r *AlertLogRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", cutoff).Delete(&models.AlertLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge expired alert logs: %w", result.Error)
	}
	return result.RowsAffected, nil
}
