package interfaces

import (
	"time"

	"telemetry-hub/models"
)

// AlertRuleRepositoryInterface stores threshold rules, unique per
// (device, parameter) pair.
type AlertRuleRepositoryInterface interface {
	Create(rule *models.AlertRule) error
	GetByID(id uint) (*models.AlertRule, error)
	ListByDevice(deviceID uint) ([]models.AlertRule, error)
	ListEnabledByDevice(deviceID uint) ([]models.AlertRule, error)
	Update(id uint, updates map[string]interface{}) (*models.AlertRule, error)
	Delete(id uint) error

	// TryTrigger atomically claims a firing slot for the rule: it commits
	// the new last-triggered timestamp and increments the trigger count
	// only if the cooldown window has elapsed. Returns false when the rule
	// is still cooling down (or was claimed by a concurrent evaluation).
	TryTrigger(ruleID uint, now time.Time, cooldown time.Duration) (bool, error)
}
