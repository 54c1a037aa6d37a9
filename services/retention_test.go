package services

import (
	"testing"
	"time"

	"telemetry-hub/models"
)

func TestRetentionSweep(t *testing.T) {
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	telemetryRepo := newFakeTelemetryRepo()
	telemetryRepo.Create(&models.TelemetryReading{DeviceID: 1, Timestamp: now.Add(-91 * 24 * time.Hour)})
	telemetryRepo.Create(&models.TelemetryReading{DeviceID: 1, Timestamp: now.Add(-time.Hour)})

	logRepo := newFakeLogRepo()
	logRepo.Create(&models.AlertLog{DeviceID: 1, CreatedAt: now.Add(-181 * 24 * time.Hour)})
	logRepo.Create(&models.AlertLog{DeviceID: 1, CreatedAt: now.Add(-time.Hour)})

	svc := NewRetentionService(telemetryRepo, logRepo, 90*24*time.Hour, 180*24*time.Hour, testLogger())
	svc.now = func() time.Time { return now }

	svc.Sweep()

	if len(telemetryRepo.readings) != 1 {
		t.Errorf("Expected 1 reading to survive the sweep, got %d", len(telemetryRepo.readings))
	}
	if len(logRepo.entries) != 1 {
		t.Errorf("Expected 1 alert log to survive the sweep, got %d", len(logRepo.entries))
	}
}
