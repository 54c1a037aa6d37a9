package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"telemetry-hub/metrics"
	"telemetry-hub/models"
	"telemetry-hub/repositories/interfaces"
)

// Drop reasons, used for logging and metrics labels.
const (
	DropReasonBadPayload    = "bad_payload"
	DropReasonBadSerial     = "bad_serial"
	DropReasonUnknownDevice = "unknown_device"
	DropReasonDisabled      = "device_disabled"
	DropReasonEmptyPayload  = "empty_payload"
)

// IngestionService is the pipeline from a raw inbound device message to a
// stored reading, liveness update, alert evaluation, and fan-out event.
// All handlers absorb their own failures: a bad message is logged and
// dropped so it can never abort processing of subsequent messages.
type IngestionService struct {
	devices    interfaces.DeviceRepositoryInterface
	parameters interfaces.ParameterRepositoryInterface
	telemetry  interfaces.TelemetryRepositoryInterface
	alerts     *AlertService
	cache      StatusCache
	publisher  Publisher
	logger     *slog.Logger
	now        func() time.Time
}

// NewIngestionService wires the pipeline. cache may be nil.
func NewIngestionService(
	devices interfaces.DeviceRepositoryInterface,
	parameters interfaces.ParameterRepositoryInterface,
	telemetry interfaces.TelemetryRepositoryInterface,
	alerts *AlertService,
	cache StatusCache,
	publisher Publisher,
	logger *slog.Logger,
) *IngestionService {
	return &IngestionService{
		devices:    devices,
		parameters: parameters,
		telemetry:  telemetry,
		alerts:     alerts,
		cache:      cache,
		publisher:  publisher,
		logger:     logger.With("component", "ingestion"),
		now:        time.Now,
	}
}

// DecodeTelemetry parses a telemetry payload: a flat JSON object of
// field -> value with an optional timestamp field mixed in. The timestamp
// field is removed from the stored map.
func DecodeTelemetry(payload []byte, now time.Time) (*models.TelemetryMessage, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("unparseable telemetry payload: %w", err)
	}

	msg := &models.TelemetryMessage{Timestamp: now, Fields: models.FieldMap{}}
	for k, v := range raw {
		if k == "timestamp" {
			if ts, ok := parseTimestamp(v); ok {
				msg.Timestamp = ts
			}
			continue
		}
		msg.Fields[k] = v
	}
	return msg, nil
}

// parseTimestamp accepts ISO-8601 strings and epoch numbers (seconds or
// milliseconds).
func parseTimestamp(v interface{}) (time.Time, bool) {
	switch ts := v.(type) {
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
			if t, err := time.Parse(layout, ts); err == nil {
				return t, true
			}
		}
	case float64:
		// Values above ~1e12 can only be millisecond epochs.
		if ts > 1e12 {
			return time.UnixMilli(int64(ts)).UTC(), true
		}
		return time.Unix(int64(ts), 0).UTC(), true
	}
	return time.Time{}, false
}

// HandleTelemetry processes one telemetry message for the device
// identified by the topic's serial number segment.
func (s *IngestionService) HandleTelemetry(serialNumber, topic string, payload []byte) {
	metrics.MessagesReceived.WithLabelValues("telemetry").Inc()
	logger := s.logger.With("serialNumber", serialNumber, "topic", topic)

	device, ok := s.resolveDevice(serialNumber, logger)
	if !ok {
		return
	}
	if !device.Enabled {
		s.drop(logger, DropReasonDisabled, "Telemetry from disabled device dropped")
		return
	}

	now := s.now()
	msg, err := DecodeTelemetry(payload, now)
	if err != nil {
		metrics.MessagesDropped.WithLabelValues(DropReasonBadPayload).Inc()
		logger.Error("Failed to decode telemetry payload", slog.Any("error", err))
		return
	}
	if len(msg.Fields) == 0 {
		s.drop(logger, DropReasonEmptyPayload, "Telemetry payload has no data fields")
		return
	}

	// Advisory validation: violations are warnings, never a drop condition.
	s.validateFields(device, msg.Fields, logger)

	reading := &models.TelemetryReading{
		DeviceID:  device.ID,
		Timestamp: msg.Timestamp,
		Fields:    msg.Fields,
		Quality:   models.QualityGood,
		Source:    SourceMQTT,
		Topic:     topic,
	}
	if err := s.telemetry.Create(reading); err != nil {
		// Persistence unavailable is fatal for this message: no durable
		// retry queue, the reading is lost.
		logger.Error("Failed to store reading", slog.Any("error", err))
		return
	}
	metrics.ReadingsStored.Inc()

	s.markSeen(device, models.DeviceStatusOnline, now, logger)
	if s.cache != nil {
		if err := s.cache.SaveLatestReading(device.SerialNumber, reading); err != nil {
			logger.Warn("Failed to cache latest reading", slog.Any("error", err))
		}
	}

	// Synchronous evaluation: cooldown and trigger-count updates for this
	// device's rules complete before the next message for the device is
	// processed.
	s.alerts.Evaluate(device.ID, device.SerialNumber, msg.Fields)

	s.publisher.Publish(EventTelemetry, TelemetryEvent{
		SerialNumber: device.SerialNumber,
		DeviceID:     device.ID,
		Reading:      reading,
	})
}

// HandleStatus processes one status message. Unknown devices are a no-op.
func (s *IngestionService) HandleStatus(serialNumber, topic string, payload []byte) {
	metrics.MessagesReceived.WithLabelValues("status").Inc()
	logger := s.logger.With("serialNumber", serialNumber, "topic", topic)

	device, ok := s.resolveDevice(serialNumber, logger)
	if !ok {
		return
	}

	status := models.DeviceStatusOnline
	var msg models.StatusMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		logger.Warn("Unparseable status payload, defaulting to online", slog.Any("error", err))
	} else if msg.Status != "" {
		// Devices may only report online/offline. error and maintenance are
		// administrative states set via the device-update endpoint; those and
		// any undefined value are clamped to online.
		switch msg.Status {
		case models.DeviceStatusOnline, models.DeviceStatusOffline:
			status = msg.Status
		default:
			logger.Warn("Ignoring non-reportable status value, defaulting to online", "status", msg.Status)
		}
	}

	seenAt := s.now()
	s.markSeen(device, status, seenAt, logger)
	s.publisher.Publish(EventDeviceStatus, DeviceStatusEvent{
		SerialNumber: device.SerialNumber,
		DeviceID:     device.ID,
		Status:       status,
		LastSeenAt:   seenAt,
	})
}

// HandleRegister processes a registration probe. Devices are never
// self-registered: an unknown serial is logged and ignored, a known one is
// treated as an online status refresh.
func (s *IngestionService) HandleRegister(serialNumber, topic string, payload []byte) {
	metrics.MessagesReceived.WithLabelValues("register").Inc()
	logger := s.logger.With("serialNumber", serialNumber, "topic", topic)

	if !models.ValidSerialNumber(serialNumber) {
		s.drop(logger, DropReasonBadSerial, "Registration probe with malformed serial number ignored")
		return
	}
	device, err := s.devices.GetBySerialNumber(serialNumber)
	if err != nil {
		logger.Error("Failed to look up device", slog.Any("error", err))
		return
	}
	if device == nil {
		logger.Info("Registration probe from unregistered device ignored")
		metrics.MessagesDropped.WithLabelValues(DropReasonUnknownDevice).Inc()
		return
	}

	seenAt := s.now()
	s.markSeen(device, models.DeviceStatusOnline, seenAt, logger)
	s.publisher.Publish(EventDeviceStatus, DeviceStatusEvent{
		SerialNumber: device.SerialNumber,
		DeviceID:     device.ID,
		Status:       models.DeviceStatusOnline,
		LastSeenAt:   seenAt,
	})
}

// resolveDevice validates the serial format and looks the device up.
func (s *IngestionService) resolveDevice(serialNumber string, logger *slog.Logger) (*models.Device, bool) {
	if !models.ValidSerialNumber(serialNumber) {
		s.drop(logger, DropReasonBadSerial, "Message with malformed serial number dropped")
		return nil, false
	}
	device, err := s.devices.GetBySerialNumber(serialNumber)
	if err != nil {
		logger.Error("Failed to look up device", slog.Any("error", err))
		return nil, false
	}
	if device == nil {
		s.drop(logger, DropReasonUnknownDevice, "Message from unknown device dropped")
		return nil, false
	}
	return device, true
}

// validateFields runs advisory type/range validation for every defined
// parameter the payload supplies a value for.
func (s *IngestionService) validateFields(device *models.Device, fields models.FieldMap, logger *slog.Logger) {
	params, err := s.parameters.ListByDevice(device.ID)
	if err != nil {
		logger.Warn("Failed to load parameter definitions, skipping validation", slog.Any("error", err))
		return
	}
	for i := range params {
		param := &params[i]
		value, present := fields[param.Name]
		if !present {
			continue
		}
		if res := param.ValidateValue(value); !res.Valid {
			metrics.ValidationWarnings.Inc()
			logger.Warn("Parameter validation failed",
				"parameter", param.Name, "value", value, "reason", res.Reason)
		}
	}
}

// markSeen updates device liveness in the DB and the cache.
func (s *IngestionService) markSeen(device *models.Device, status string, seenAt time.Time, logger *slog.Logger) {
	if err := s.devices.MarkSeen(device.ID, status, seenAt); err != nil {
		logger.Error("Failed to update device liveness", slog.Any("error", err))
		return
	}
	if s.cache != nil {
		if err := s.cache.SaveDeviceStatus(device.SerialNumber, status, seenAt); err != nil {
			logger.Warn("Failed to cache device status", slog.Any("error", err))
		}
	}
}

func (s *IngestionService) drop(logger *slog.Logger, reason, msg string) {
	metrics.MessagesDropped.WithLabelValues(reason).Inc()
	logger.Warn(msg, "reason", reason)
}
