package repositories

import (
	"errors"
	"fmt"
	"time"

	"telemetry-hub/models"
	"telemetry-hub/repositories/interfaces"

	"gorm.io/gorm"
)

// AlertRuleRepository implements AlertRuleRepositoryInterface.
type AlertRuleRepository struct {
	db *gorm.DB
}

// NewAlertRuleRepository creates a new instance of AlertRuleRepository.
func NewAlertRuleRepository(db *gorm.DB) interfaces.AlertRuleRepositoryInterface {
	return &AlertRuleRepository{db: db}
}

func (r *AlertRuleRepository) Create(rule *models.AlertRule) error {
	var count int64
	err := r.db.Model(&models.AlertRule{}).
		Where("device_id = ? AND parameter_name = ?", rule.DeviceID, rule.ParameterName).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to check rule uniqueness: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("alert rule already exists for device %d parameter %s", rule.DeviceID, rule.ParameterName)
	}
	if err := r.db.Create(rule).Error; err != nil {
		return fmt.Errorf("failed to create alert rule: %w", err)
	}
	return nil
}

func (r *AlertRuleRepository) GetByID(id uint) (*models.AlertRule, error) {
	var rule models.AlertRule
	err := r.db.Where("id = ?", id).First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get alert rule %d: %w", id, err)
	}
	return &rule, nil
}

func (r *AlertRuleRepository) ListByDevice(deviceID uint) ([]models.AlertRule, error) {
	var rules []models.AlertRule
	err := r.db.Where("device_id = ?", deviceID).Order("parameter_name asc").Find(&rules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list alert rules for device %d: %w", deviceID, err)
	}
	return rules, nil
}

func (r *AlertRuleRepository) ListEnabledByDevice(deviceID uint) ([]models.AlertRule, error) {
	var rules []models.AlertRule
	err := r.db.Where("device_id = ? AND enabled = ?", deviceID, true).Find(&rules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled alert rules for device %d: %w", deviceID, err)
	}
	return rules, nil
}

func (r *AlertRuleRepository) Update(id uint, updates map[string]interface{}) (*models.AlertRule, error) {
	updates["updated_at"] = time.Now()
	result := r.db.Model(&models.AlertRule{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update alert rule %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("alert rule %d not found", id)
	}
	return r.GetByID(id)
}

func (r *AlertRuleRepository) Delete(id uint) error {
	result := r.db.Delete(&models.AlertRule{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete alert rule %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("alert rule %d not found", id)
	}
	return nil
}

// TryTrigger claims a firing slot with a single conditional update: the
// cooldown check and the last-triggered/trigger-count commit happen in one
// statement, so two evaluations racing on the same rule cannot both fire.
func (r *AlertRuleRepository) TryTrigger(ruleID uint, now time.Time, cooldown time.Duration) (bool, error) {
	result := r.db.Model(&models.AlertRule{}).
		Where("id = ? AND (last_triggered_at IS NULL OR last_triggered_at <= ?)", ruleID, now.Add(-cooldown)).
		Updates(map[string]interface{}{
			"last_triggered_at": now,
			"trigger_count":     gorm.Expr("trigger_count + 1"),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to claim trigger for rule %d: %w", ruleID, result.Error)
	}
	return result.RowsAffected == 1, nil
}
