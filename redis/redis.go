package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"telemetry-hub/config"
	"telemetry-hub/models"

	"github.com/go-redis/redis/v8"
)

// RedisClient caches device liveness and the latest reading per device so
// dashboard reads do not hit Postgres for hot data. The cache is
// best-effort: the database remains authoritative.
type RedisClient struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisClient(cfg *config.Config) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{client: rdb, ctx: ctx}, nil
}

// SaveDeviceStatus caches a device's liveness with a timestamp.
func (r *RedisClient) SaveDeviceStatus(serialNumber, status string, seenAt time.Time) error {
	key := fmt.Sprintf("device:status:%s", serialNumber)

	info := map[string]interface{}{
		"status":   status,
		"lastSeen": seenAt.Unix(),
	}
	infoJSON, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal device status: %w", err)
	}

	if err := r.client.Set(r.ctx, key, infoJSON, 24*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to save device status to Redis: %w", err)
	}
	return nil
}

// GetDeviceStatus returns the cached liveness for a device.
func (r *RedisClient) GetDeviceStatus(serialNumber string) (string, error) {
	key := fmt.Sprintf("device:status:%s", serialNumber)

	val, err := r.client.Get(r.ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", fmt.Errorf("status not cached for device %s", serialNumber)
		}
		return "", fmt.Errorf("failed to get device status from Redis: %w", err)
	}

	var info map[string]interface{}
	if err := json.Unmarshal([]byte(val), &info); err != nil {
		return "", fmt.Errorf("failed to unmarshal device status: %w", err)
	}
	status, ok := info["status"].(string)
	if !ok {
		return "", fmt.Errorf("invalid device status format")
	}
	return status, nil
}

// SaveLatestReading caches the most recent reading for a device.
func (r *RedisClient) SaveLatestReading(serialNumber string, reading *models.TelemetryReading) error {
	key := fmt.Sprintf("device:latest:%s", serialNumber)

	readingJSON, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("failed to marshal reading: %w", err)
	}
	if err := r.client.Set(r.ctx, key, readingJSON, 24*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to save latest reading to Redis: %w", err)
	}
	return nil
}

// GetLatestReading returns the cached most recent reading for a device.
func (r *RedisClient) GetLatestReading(serialNumber string) (*models.TelemetryReading, error) {
	key := fmt.Sprintf("device:latest:%s", serialNumber)

	val, err := r.client.Get(r.ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("no cached reading for device %s", serialNumber)
		}
		return nil, fmt.Errorf("failed to get latest reading from Redis: %w", err)
	}

	var reading models.TelemetryReading
	if err := json.Unmarshal([]byte(val), &reading); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reading: %w", err)
	}
	return &reading, nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
