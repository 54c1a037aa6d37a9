package mqtt

import (
	"testing"
)

func TestParseTopic(t *testing.T) {
	t.Run("Telemetry Topic", func(t *testing.T) {
		serial, kind, err := ParseTopic("iot/devices/1234567890/telemetry")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if serial != "1234567890" {
			t.Errorf("Expected serial '1234567890', got %q", serial)
		}
		if kind != KindTelemetry {
			t.Errorf("Expected kind 'telemetry', got %q", kind)
		}
	})

	t.Run("Status Topic", func(t *testing.T) {
		serial, kind, err := ParseTopic("iot/devices/ABCDEF1234/status")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if serial != "ABCDEF1234" || kind != KindStatus {
			t.Errorf("Got serial=%q kind=%q", serial, kind)
		}
	})

	t.Run("Multi Segment Prefix", func(t *testing.T) {
		serial, kind, err := ParseTopic("acme/prod/devices/1234567890/register")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if serial != "1234567890" || kind != KindRegister {
			t.Errorf("Got serial=%q kind=%q", serial, kind)
		}
	})

	t.Run("Invalid Topics", func(t *testing.T) {
		for _, topic := range []string{
			"",
			"iot/devices",
			"iot/devices/telemetry",
			"iot/gateways/1234567890/telemetry",
			"iot/devices//telemetry",
		} {
			if _, _, err := ParseTopic(topic); err == nil {
				t.Errorf("Expected error for topic %q", topic)
			}
		}
	})
}
