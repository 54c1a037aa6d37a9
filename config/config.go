package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MQTT
	MQTTBroker      string
	MQTTClientID    string
	MQTTUsername    string
	MQTTPassword    string
	MQTTTopicPrefix string

	// HTTP
	HTTPAddr string

	// SMTP (alert notifications)
	SMTPEnabled bool
	SMTPHost    string
	SMTPPort    string
	SMTPFrom    string

	// Retention
	TelemetryRetention time.Duration
	AlertLogRetention  time.Duration
	RetentionSweep     time.Duration

	// Devices with no telemetry within this window are reported stale.
	StaleAfter time.Duration

	// Application
	LogLevel string
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	telemetryDays, _ := strconv.Atoi(getEnv("TELEMETRY_RETENTION_DAYS", "90"))
	alertLogDays, _ := strconv.Atoi(getEnv("ALERT_LOG_RETENTION_DAYS", "180"))
	sweepMin, _ := strconv.Atoi(getEnv("RETENTION_SWEEP_MINUTES", "60"))
	staleMin, _ := strconv.Atoi(getEnv("STALE_AFTER_MINUTES", "10"))

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "telemetry_hub"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,

		MQTTBroker:      getEnv("MQTT_BROKER", "tcp://localhost:1883"),
		MQTTClientID:    getEnv("MQTT_CLIENT_ID", "telemetry-hub"),
		MQTTUsername:    getEnv("MQTT_USERNAME", ""),
		MQTTPassword:    getEnv("MQTT_PASSWORD", ""),
		MQTTTopicPrefix: getEnv("MQTT_TOPIC_PREFIX", "iot"),

		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		SMTPEnabled: getEnv("SMTP_ENABLED", "false") == "true",
		SMTPHost:    getEnv("SMTP_HOST", "localhost"),
		SMTPPort:    getEnv("SMTP_PORT", "587"),
		SMTPFrom:    getEnv("SMTP_FROM", "alerts@telemetry-hub.local"),

		TelemetryRetention: time.Duration(telemetryDays) * 24 * time.Hour,
		AlertLogRetention:  time.Duration(alertLogDays) * 24 * time.Hour,
		RetentionSweep:     time.Duration(sweepMin) * time.Minute,
		StaleAfter:         time.Duration(staleMin) * time.Minute,

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
