package services

import (
	"context"
	"log/slog"
	"time"

	"telemetry-hub/metrics"
	"telemetry-hub/repositories/interfaces"
)

// RetentionService purges readings and alert logs past their retention
// windows on a fixed schedule.
type RetentionService struct {
	telemetry          interfaces.TelemetryRepositoryInterface
	alertLogs          interfaces.AlertLogRepositoryInterface
	telemetryRetention time.Duration
	alertLogRetention  time.Duration
	logger             *slog.Logger
	now                func() time.Time
}

func NewRetentionService(
	telemetry interfaces.TelemetryRepositoryInterface,
	alertLogs interfaces.AlertLogRepositoryInterface,
	telemetryRetention, alertLogRetention time.Duration,
	logger *slog.Logger,
) *RetentionService {
	return &RetentionService{
		telemetry:          telemetry,
		alertLogs:          alertLogs,
		telemetryRetention: telemetryRetention,
		alertLogRetention:  alertLogRetention,
		logger:             logger.With("component", "retention"),
		now:                time.Now,
	}
}

// Run sweeps on every tick until the context is cancelled.
func (s *RetentionService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.Sweep()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep runs one purge pass. Failures are logged; the next tick retries.
func (s *RetentionService) Sweep() {
	now := s.now()

	purged, err := s.telemetry.DeleteOlderThan(now.Add(-s.telemetryRetention))
	if err != nil {
		s.logger.Error("Failed to purge expired readings", slog.Any("error", err))
	} else if purged > 0 {
		metrics.ReadingsPurged.Add(float64(purged))
		s.logger.Info("Purged expired readings", "count", purged)
	}

	purged, err = s.alertLogs.DeleteOlderThan(now.Add(-s.alertLogRetention))
	if err != nil {
		s.logger.Error("Failed to purge expired alert logs", slog.Any("error", err))
	} else if purged > 0 {
		metrics.AlertLogsPurged.Add(float64(purged))
		s.logger.Info("Purged expired alert logs", "count", purged)
	}
}
