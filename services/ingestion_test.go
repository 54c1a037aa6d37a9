package services

import (
	"testing"
	"time"

	"telemetry-hub/models"
)

func newTestIngestion(devices ...*models.Device) (*IngestionService, *fakeTelemetryRepo, *fakePublisher, *fakeCache) {
	deviceRepo := newFakeDeviceRepo(devices...)
	paramRepo := newFakeParameterRepo()
	telemetryRepo := newFakeTelemetryRepo()
	publisher := &fakePublisher{}
	cache := newFakeCache()
	logger := testLogger()

	alerts := NewAlertService(newFakeRuleRepo(), newFakeLogRepo(), nil, publisher, logger)
	svc := NewIngestionService(deviceRepo, paramRepo, telemetryRepo, alerts, cache, publisher, logger)
	return svc, telemetryRepo, publisher, cache
}

func TestHandleTelemetry(t *testing.T) {
	t.Run("Stores Payload Fields Without Timestamp", func(t *testing.T) {
		device := &models.Device{SerialNumber: "AABBCC1122", Enabled: true}
		svc, telemetryRepo, publisher, cache := newTestIngestion(device)

		payload := []byte(`{"temperature": 21.5, "humidity": 60, "timestamp": "2026-08-27T10:00:00Z"}`)
		svc.HandleTelemetry("AABBCC1122", "iot/devices/AABBCC1122/telemetry", payload)

		if len(telemetryRepo.readings) != 1 {
			t.Fatalf("Expected 1 stored reading, got %d", len(telemetryRepo.readings))
		}
		reading := telemetryRepo.readings[0]
		if len(reading.Fields) != 2 {
			t.Errorf("Expected 2 fields (timestamp stripped), got %d", len(reading.Fields))
		}
		if v, _ := reading.Fields.NumericValue("temperature"); v != 21.5 {
			t.Errorf("Expected temperature 21.5, got %v", v)
		}
		want := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
		if !reading.Timestamp.Equal(want) {
			t.Errorf("Expected timestamp %v, got %v", want, reading.Timestamp)
		}

		if len(publisher.byType(EventTelemetry)) != 1 {
			t.Errorf("Expected 1 telemetry event, got %d", len(publisher.byType(EventTelemetry)))
		}
		if cache.latest["AABBCC1122"] == nil {
			t.Error("Expected latest reading cached")
		}
		if device.Status != models.DeviceStatusOnline {
			t.Errorf("Expected device online, got %s", device.Status)
		}
	})

	t.Run("Malformed Serial Dropped", func(t *testing.T) {
		svc, telemetryRepo, _, _ := newTestIngestion(&models.Device{SerialNumber: "AABBCC1122", Enabled: true})

		svc.HandleTelemetry("bad-serial!", "iot/devices/bad-serial!/telemetry", []byte(`{"temperature": 1}`))

		if len(telemetryRepo.readings) != 0 {
			t.Errorf("Expected no reading stored, got %d", len(telemetryRepo.readings))
		}
	})

	t.Run("Unknown Device Dropped Not Created", func(t *testing.T) {
		deviceRepo := newFakeDeviceRepo()
		telemetryRepo := newFakeTelemetryRepo()
		publisher := &fakePublisher{}
		logger := testLogger()
		alerts := NewAlertService(newFakeRuleRepo(), newFakeLogRepo(), nil, publisher, logger)
		svc := NewIngestionService(deviceRepo, newFakeParameterRepo(), telemetryRepo, alerts, nil, publisher, logger)

		svc.HandleTelemetry("ZZZZZZ9999", "iot/devices/ZZZZZZ9999/telemetry", []byte(`{"temperature": 1}`))

		if len(deviceRepo.devices) != 0 {
			t.Errorf("Expected no device created, got %d", len(deviceRepo.devices))
		}
		if len(telemetryRepo.readings) != 0 {
			t.Errorf("Expected no reading stored, got %d", len(telemetryRepo.readings))
		}
	})

	t.Run("Disabled Device Dropped", func(t *testing.T) {
		svc, telemetryRepo, _, _ := newTestIngestion(&models.Device{SerialNumber: "AABBCC1122", Enabled: false})

		svc.HandleTelemetry("AABBCC1122", "iot/devices/AABBCC1122/telemetry", []byte(`{"temperature": 1}`))

		if len(telemetryRepo.readings) != 0 {
			t.Errorf("Expected no reading stored for disabled device, got %d", len(telemetryRepo.readings))
		}
	})

	t.Run("Empty Payload Dropped", func(t *testing.T) {
		svc, telemetryRepo, _, _ := newTestIngestion(&models.Device{SerialNumber: "AABBCC1122", Enabled: true})

		svc.HandleTelemetry("AABBCC1122", "iot/devices/AABBCC1122/telemetry", []byte(`{"timestamp": "2026-08-27T10:00:00Z"}`))

		if len(telemetryRepo.readings) != 0 {
			t.Errorf("Expected no reading for payload without data fields, got %d", len(telemetryRepo.readings))
		}
	})

	t.Run("Malformed Payload Does Not Abort Subsequent Messages", func(t *testing.T) {
		svc, telemetryRepo, _, _ := newTestIngestion(&models.Device{SerialNumber: "AABBCC1122", Enabled: true})

		svc.HandleTelemetry("AABBCC1122", "iot/devices/AABBCC1122/telemetry", []byte(`{not json`))
		svc.HandleTelemetry("AABBCC1122", "iot/devices/AABBCC1122/telemetry", []byte(`{"temperature": 5}`))

		if len(telemetryRepo.readings) != 1 {
			t.Fatalf("Expected the valid message to be stored, got %d readings", len(telemetryRepo.readings))
		}
	})

	t.Run("Duplicate Delivery Stores Twice", func(t *testing.T) {
		svc, telemetryRepo, _, _ := newTestIngestion(&models.Device{SerialNumber: "AABBCC1122", Enabled: true})

		payload := []byte(`{"temperature": 5}`)
		svc.HandleTelemetry("AABBCC1122", "iot/devices/AABBCC1122/telemetry", payload)
		svc.HandleTelemetry("AABBCC1122", "iot/devices/AABBCC1122/telemetry", payload)

		if len(telemetryRepo.readings) != 2 {
			t.Errorf("Expected 2 stored readings for duplicate delivery, got %d", len(telemetryRepo.readings))
		}
	})
}

func TestHandleStatus(t *testing.T) {
	t.Run("Explicit Status Applied", func(t *testing.T) {
		device := &models.Device{SerialNumber: "AABBCC1122", Enabled: true, Status: models.DeviceStatusOffline}
		svc, _, publisher, cache := newTestIngestion(device)

		svc.HandleStatus("AABBCC1122", "iot/devices/AABBCC1122/status", []byte(`{"status": "online"}`))

		if device.Status != models.DeviceStatusOnline {
			t.Errorf("Expected status online, got %s", device.Status)
		}
		if device.LastSeenAt == nil {
			t.Error("Expected last-seen timestamp set")
		}
		events := publisher.byType(EventDeviceStatus)
		if len(events) != 1 {
			t.Fatalf("Expected 1 status event, got %d", len(events))
		}
		if cache.statuses["AABBCC1122"] != models.DeviceStatusOnline {
			t.Errorf("Expected cached status online, got %q", cache.statuses["AABBCC1122"])
		}
	})

	t.Run("Recovers From Error State", func(t *testing.T) {
		device := &models.Device{SerialNumber: "AABBCC1122", Enabled: true, Status: models.DeviceStatusError}
		svc, _, _, _ := newTestIngestion(device)

		svc.HandleStatus("AABBCC1122", "iot/devices/AABBCC1122/status", []byte(`{"status": "online"}`))

		if device.Status != models.DeviceStatusOnline {
			t.Errorf("Expected error state overwritten with online, got %s", device.Status)
		}
	})

	t.Run("Admin Only States Not Wire Settable", func(t *testing.T) {
		for _, reported := range []string{models.DeviceStatusMaintenance, models.DeviceStatusError} {
			device := &models.Device{SerialNumber: "AABBCC1122", Enabled: true, Status: models.DeviceStatusOffline}
			svc, _, _, cache := newTestIngestion(device)

			svc.HandleStatus("AABBCC1122", "iot/devices/AABBCC1122/status", []byte(`{"status": "`+reported+`"}`))

			if device.Status != models.DeviceStatusOnline {
				t.Errorf("Expected %q clamped to online, got %s", reported, device.Status)
			}
			if cache.statuses["AABBCC1122"] != models.DeviceStatusOnline {
				t.Errorf("Expected cached status online, got %q", cache.statuses["AABBCC1122"])
			}
		}
	})

	t.Run("Undefined Status Value Clamped To Online", func(t *testing.T) {
		device := &models.Device{SerialNumber: "AABBCC1122", Enabled: true, Status: models.DeviceStatusOffline}
		svc, _, publisher, _ := newTestIngestion(device)

		svc.HandleStatus("AABBCC1122", "iot/devices/AABBCC1122/status", []byte(`{"status": "exploded"}`))

		if device.Status != models.DeviceStatusOnline {
			t.Errorf("Expected undefined value clamped to online, got %s", device.Status)
		}
		events := publisher.byType(EventDeviceStatus)
		if len(events) != 1 {
			t.Fatalf("Expected 1 status event, got %d", len(events))
		}
		if events[0].payload.(DeviceStatusEvent).Status != models.DeviceStatusOnline {
			t.Errorf("Expected event to carry the clamped status, got %q",
				events[0].payload.(DeviceStatusEvent).Status)
		}
	})

	t.Run("Offline Report Accepted", func(t *testing.T) {
		device := &models.Device{SerialNumber: "AABBCC1122", Enabled: true, Status: models.DeviceStatusOnline}
		svc, _, _, _ := newTestIngestion(device)

		svc.HandleStatus("AABBCC1122", "iot/devices/AABBCC1122/status", []byte(`{"status": "offline"}`))

		if device.Status != models.DeviceStatusOffline {
			t.Errorf("Expected offline accepted from wire, got %s", device.Status)
		}
	})

	t.Run("Unparseable Payload Defaults To Online", func(t *testing.T) {
		device := &models.Device{SerialNumber: "AABBCC1122", Enabled: true, Status: models.DeviceStatusOffline}
		svc, _, _, _ := newTestIngestion(device)

		svc.HandleStatus("AABBCC1122", "iot/devices/AABBCC1122/status", []byte(`garbage`))

		if device.Status != models.DeviceStatusOnline {
			t.Errorf("Expected default online, got %s", device.Status)
		}
	})
}

func TestHandleRegister(t *testing.T) {
	t.Run("Unknown Device Ignored", func(t *testing.T) {
		deviceRepo := newFakeDeviceRepo()
		publisher := &fakePublisher{}
		logger := testLogger()
		alerts := NewAlertService(newFakeRuleRepo(), newFakeLogRepo(), nil, publisher, logger)
		svc := NewIngestionService(deviceRepo, newFakeParameterRepo(), newFakeTelemetryRepo(), alerts, nil, publisher, logger)

		svc.HandleRegister("ZZZZZZ9999", "iot/devices/ZZZZZZ9999/register", []byte(`{}`))

		if len(deviceRepo.devices) != 0 {
			t.Errorf("Expected registration probe not to create a device, got %d", len(deviceRepo.devices))
		}
		if len(publisher.events) != 0 {
			t.Errorf("Expected no events, got %d", len(publisher.events))
		}
	})

	t.Run("Known Device Refreshed Online", func(t *testing.T) {
		device := &models.Device{SerialNumber: "AABBCC1122", Enabled: true, Status: models.DeviceStatusOffline}
		svc, _, publisher, _ := newTestIngestion(device)

		svc.HandleRegister("AABBCC1122", "iot/devices/AABBCC1122/register", []byte(`{}`))

		if device.Status != models.DeviceStatusOnline {
			t.Errorf("Expected online, got %s", device.Status)
		}
		if len(publisher.byType(EventDeviceStatus)) != 1 {
			t.Errorf("Expected 1 status event, got %d", len(publisher.byType(EventDeviceStatus)))
		}
	})
}

func TestDecodeTelemetry(t *testing.T) {
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	t.Run("Epoch Seconds Timestamp", func(t *testing.T) {
		msg, err := DecodeTelemetry([]byte(`{"temperature": 1, "timestamp": 1756290000}`), now)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if msg.Timestamp.Unix() != 1756290000 {
			t.Errorf("Expected epoch 1756290000, got %d", msg.Timestamp.Unix())
		}
	})

	t.Run("Epoch Milliseconds Timestamp", func(t *testing.T) {
		msg, err := DecodeTelemetry([]byte(`{"temperature": 1, "timestamp": 1756290000123}`), now)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if msg.Timestamp.UnixMilli() != 1756290000123 {
			t.Errorf("Expected epoch ms 1756290000123, got %d", msg.Timestamp.UnixMilli())
		}
	})

	t.Run("Missing Timestamp Uses Receive Time", func(t *testing.T) {
		msg, err := DecodeTelemetry([]byte(`{"temperature": 1}`), now)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !msg.Timestamp.Equal(now) {
			t.Errorf("Expected receive time %v, got %v", now, msg.Timestamp)
		}
	})

	t.Run("Invalid Timestamp Falls Back To Receive Time", func(t *testing.T) {
		msg, err := DecodeTelemetry([]byte(`{"temperature": 1, "timestamp": "yesterday"}`), now)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !msg.Timestamp.Equal(now) {
			t.Errorf("Expected receive time fallback, got %v", msg.Timestamp)
		}
		if _, present := msg.Fields["timestamp"]; present {
			t.Error("Timestamp field must never be stored in the field map")
		}
	})
}
