package mqtt

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"telemetry-hub/config"
	"telemetry-hub/services"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Message kinds carried in the last topic segment.
const (
	KindTelemetry = "telemetry"
	KindStatus    = "status"
	KindRegister  = "register"
)

// Client wraps the PAHO MQTT client and routes inbound device messages to
// the ingestion pipeline. Topics follow
// <prefix>/devices/<serialNumber>/<kind>.
type Client struct {
	client      mqtt.Client
	ingestion   *services.IngestionService
	topicPrefix string
	logger      *slog.Logger
}

// NewClient creates and connects a new MQTT client. Subscriptions are
// (re)established on every successful connect, so reconnects resubscribe
// automatically.
func NewClient(cfg *config.Config, ingestion *services.IngestionService, logger *slog.Logger) (*Client, error) {
	c := &Client{
		ingestion:   ingestion,
		topicPrefix: cfg.MQTTTopicPrefix,
		logger:      logger.With("component", "mqtt_client"),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientID).
		SetUsername(cfg.MQTTUsername).
		SetPassword(cfg.MQTTPassword).
		SetKeepAlive(60 * time.Second).
		SetPingTimeout(1 * time.Second).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(10 * time.Second).
		SetCleanSession(true).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(c.onConnectionLost)

	c.client = mqtt.NewClient(opts)
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return c, nil
}

// Disconnect gracefully disconnects the client.
func (c *Client) Disconnect() {
	if c.client.IsConnected() {
		c.client.Disconnect(250)
		c.logger.Info("MQTT client disconnected")
	}
}

func (c *Client) onConnect(client mqtt.Client) {
	c.logger.Info("Connected to MQTT broker, subscribing to device topics")
	c.subscribe(c.topic("+", KindTelemetry), c.handleMessage)
	c.subscribe(c.topic("+", KindStatus), c.handleMessage)
	c.subscribe(c.topic("+", KindRegister), c.handleMessage)
}

func (c *Client) onConnectionLost(client mqtt.Client, err error) {
	c.logger.Error("MQTT connection lost, reconnecting", slog.Any("error", err))
}

func (c *Client) subscribe(topic string, handler mqtt.MessageHandler) {
	if token := c.client.Subscribe(topic, 1, handler); token.Wait() && token.Error() != nil {
		c.logger.Error("Failed to subscribe to topic", "topic", topic, slog.Any("error", token.Error()))
	} else {
		c.logger.Info("Subscribed to topic", "topic", topic)
	}
}

// handleMessage routes one inbound message by its topic's kind segment.
// The ingestion service absorbs all failures, so a bad message never
// breaks the subscriber for the messages behind it.
func (c *Client) handleMessage(client mqtt.Client, msg mqtt.Message) {
	serialNumber, kind, err := ParseTopic(msg.Topic())
	if err != nil {
		c.logger.Warn("Ignoring message with invalid topic", "topic", msg.Topic(), slog.Any("error", err))
		return
	}

	switch kind {
	case KindTelemetry:
		c.ingestion.HandleTelemetry(serialNumber, msg.Topic(), msg.Payload())
	case KindStatus:
		c.ingestion.HandleStatus(serialNumber, msg.Topic(), msg.Payload())
	case KindRegister:
		c.ingestion.HandleRegister(serialNumber, msg.Topic(), msg.Payload())
	default:
		c.logger.Warn("Ignoring message with unknown kind", "topic", msg.Topic(), "kind", kind)
	}
}

func (c *Client) topic(serialNumber, kind string) string {
	return fmt.Sprintf("%s/devices/%s/%s", c.topicPrefix, serialNumber, kind)
}

// ParseTopic extracts the serial number and message kind from a device
// topic of the form <prefix>/devices/<serialNumber>/<kind>.
func ParseTopic(topic string) (serialNumber, kind string, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) < 4 || parts[len(parts)-3] != "devices" {
		return "", "", fmt.Errorf("invalid topic structure: %s", topic)
	}
	serialNumber = parts[len(parts)-2]
	kind = parts[len(parts)-1]
	if serialNumber == "" || kind == "" {
		return "", "", fmt.Errorf("invalid topic structure: %s", topic)
	}
	return serialNumber, kind, nil
}
