package services

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"telemetry-hub/metrics"
	"telemetry-hub/models"
	"telemetry-hub/repositories/interfaces"
)

// AlertService evaluates validated readings against the device's alert
// rules. Evaluate never returns an error to the ingestion caller: one
// rule's failure is logged and the remaining rules still run.
type AlertService struct {
	rules     interfaces.AlertRuleRepositoryInterface
	logs      interfaces.AlertLogRepositoryInterface
	notifier  Notifier
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewAlertService wires the evaluation engine. notifier may be nil when no
// dispatch channel is configured.
func NewAlertService(
	rules interfaces.AlertRuleRepositoryInterface,
	logs interfaces.AlertLogRepositoryInterface,
	notifier Notifier,
	publisher Publisher,
	logger *slog.Logger,
) *AlertService {
	return &AlertService{
		rules:     rules,
		logs:      logs,
		notifier:  notifier,
		publisher: publisher,
		logger:    logger.With("component", "alert_engine"),
		now:       time.Now,
	}
}

// Evaluate runs every enabled rule of the device against the field map.
func (s *AlertService) Evaluate(deviceID uint, serialNumber string, fields models.FieldMap) {
	rules, err := s.rules.ListEnabledByDevice(deviceID)
	if err != nil {
		s.logger.Error("Failed to load alert rules", "serialNumber", serialNumber, slog.Any("error", err))
		return
	}

	for i := range rules {
		rule := &rules[i]
		if err := s.evaluateRule(rule, serialNumber, fields); err != nil {
			// Isolated failure: siblings still evaluate.
			s.logger.Error("Rule evaluation failed",
				"ruleId", rule.ID, "parameter", rule.ParameterName,
				"serialNumber", serialNumber, slog.Any("error", err))
		}
	}
}

// evaluateRule checks one rule against the reading and fires it if a
// threshold is crossed and the cooldown window has elapsed. The upper
// threshold is checked before the lower one; at most one trigger fires per
// rule per reading. A panic anywhere in the rule's path is converted to an
// error so sibling rules still evaluate.
func (s *AlertService) evaluateRule(rule *models.AlertRule, serialNumber string, fields models.FieldMap) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during rule evaluation: %v", r)
		}
	}()

	value, ok := fields.NumericValue(rule.ParameterName)
	if !ok {
		return nil
	}

	var thresholdType string
	var thresholdValue float64
	switch {
	case rule.UpperEnabled && value > rule.UpperValue:
		thresholdType = models.ThresholdTypeUpper
		thresholdValue = rule.UpperValue
	case rule.LowerEnabled && value < rule.LowerValue:
		thresholdType = models.ThresholdTypeLower
		thresholdValue = rule.LowerValue
	default:
		return nil
	}

	now := s.now()
	// Cooldown check and last-triggered commit are one atomic step;
	// a concurrent evaluation of the same rule cannot also claim it.
	claimed, err := s.rules.TryTrigger(rule.ID, now, rule.Cooldown())
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	entry := &models.AlertLog{
		RuleID:         rule.ID,
		DeviceID:       rule.DeviceID,
		SerialNumber:   serialNumber,
		ParameterName:  rule.ParameterName,
		ThresholdType:  thresholdType,
		ThresholdValue: thresholdValue,
		ActualValue:    value,
		Message:        triggerMessage(serialNumber, rule.ParameterName, value, thresholdValue, thresholdType),
		Severity:       rule.Severity,
		CreatedAt:      now,
	}
	if err := s.logs.Create(entry); err != nil {
		return fmt.Errorf("failed to write alert log: %w", err)
	}
	metrics.AlertsTriggered.WithLabelValues(rule.Severity).Inc()
	s.logger.Info("Alert triggered",
		"serialNumber", serialNumber, "parameter", rule.ParameterName,
		"thresholdType", thresholdType, "value", value, "severity", rule.Severity)

	s.dispatchNotification(rule, entry)

	// Rule snapshot reflects the firing just committed.
	snapshot := *rule
	snapshot.LastTriggeredAt = &now
	snapshot.TriggerCount++

	s.publisher.Publish(EventAlert, AlertEvent{Log: entry, Rule: &snapshot})
	return nil
}

// dispatchNotification sends the email notification when enabled and
// records the delivery outcome on the log entry. Dispatch failures are
// recorded, never propagated.
func (s *AlertService) dispatchNotification(rule *models.AlertRule, entry *models.AlertLog) {
	if s.notifier == nil || !rule.EmailEnabled || len(rule.EmailRecipients) == 0 {
		return
	}

	sendErr := s.notifier.SendAlert(
		rule.EmailRecipients,
		entry.SerialNumber,
		entry.ParameterName,
		entry.ActualValue,
		entry.ThresholdValue,
		entry.ThresholdType,
		entry.Message,
		entry.Severity,
	)

	now := s.now()
	entry.NotifiedAt = &now
	entry.NotificationSent = sendErr == nil
	if sendErr != nil {
		entry.NotificationError = sendErr.Error()
		metrics.NotificationsSent.WithLabelValues("failure").Inc()
		s.logger.Warn("Alert notification failed",
			"alertLogId", entry.ID, slog.Any("error", sendErr))
	} else {
		metrics.NotificationsSent.WithLabelValues("success").Inc()
	}

	if err := s.logs.RecordNotification(entry.ID, entry.NotificationSent, entry.NotificationError, now); err != nil {
		s.logger.Error("Failed to record notification outcome", "alertLogId", entry.ID, slog.Any("error", err))
	}
}

func triggerMessage(serialNumber, parameter string, value, threshold float64, thresholdType string) string {
	direction := "exceeded upper"
	if thresholdType == models.ThresholdTypeLower {
		direction = "dropped below lower"
	}
	return fmt.Sprintf("Device %s: %s value %s %s threshold %s",
		serialNumber, parameter, trimFloat(value), direction, trimFloat(threshold))
}

func trimFloat(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
