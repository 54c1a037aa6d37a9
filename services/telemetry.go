package services

import (
	"fmt"
	"sort"
	"time"

	"telemetry-hub/models"
	"telemetry-hub/repositories/interfaces"
)

// Supported aggregation bucket intervals.
var bucketIntervals = map[string]time.Duration{
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"1h":  time.Hour,
	"6h":  6 * time.Hour,
	"1d":  24 * time.Hour,
}

// DefaultInterval is used when an aggregation query names no interval.
const DefaultInterval = time.Hour

// ParseInterval maps an interval name (5m/15m/1h/6h/1d) to a duration.
// An empty name yields the default.
func ParseInterval(name string) (time.Duration, error) {
	if name == "" {
		return DefaultInterval, nil
	}
	interval, ok := bucketIntervals[name]
	if !ok {
		return 0, fmt.Errorf("unsupported aggregation interval %q", name)
	}
	return interval, nil
}

// BucketStart aligns a timestamp to the start of its fixed-width bucket:
// timestamp minus timestamp-mod-interval, relative to the Unix epoch.
func BucketStart(ts time.Time, interval time.Duration) time.Time {
	ms := ts.UnixMilli()
	intervalMs := interval.Milliseconds()
	aligned := ms - mod(ms, intervalMs)
	return time.UnixMilli(aligned).UTC()
}

// mod is a non-negative modulo so pre-epoch timestamps still align to the
// bucket start on their left.
func mod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// TelemetryService answers reading queries and aggregations for the
// dashboard and export collaborators. cache may be nil.
type TelemetryService struct {
	telemetry interfaces.TelemetryRepositoryInterface
	cache     StatusCache
}

func NewTelemetryService(telemetry interfaces.TelemetryRepositoryInterface, cache StatusCache) *TelemetryService {
	return &TelemetryService{telemetry: telemetry, cache: cache}
}

// Range returns readings in [start, end], newest first.
func (s *TelemetryService) Range(deviceID uint, start, end time.Time, limit int) ([]models.TelemetryReading, error) {
	return s.telemetry.Range(deviceID, start, end, limit)
}

// Latest returns the n most recent readings, newest first. The single
// most recent reading is the dashboard hot path and is served from the
// cache when present; the database answers everything else.
func (s *TelemetryService) Latest(serialNumber string, deviceID uint, n int) ([]models.TelemetryReading, error) {
	if n <= 0 {
		n = 1
	}
	if n == 1 && s.cache != nil {
		if reading, err := s.cache.GetLatestReading(serialNumber); err == nil && reading != nil {
			return []models.TelemetryReading{*reading}, nil
		}
	}
	return s.telemetry.Latest(deviceID, n)
}

// Aggregate groups the named field's numeric values into fixed-width
// epoch-aligned buckets and computes avg/min/max/count per bucket.
// Readings where the field is absent, null, or non-numeric are excluded.
// Output is ordered ascending by bucket start.
func (s *TelemetryService) Aggregate(deviceID uint, parameter string, start, end time.Time, interval time.Duration) ([]models.AggregateBucket, error) {
	readings, err := s.telemetry.Range(deviceID, start, end, 0)
	if err != nil {
		return nil, err
	}

	type accumulator struct {
		sum   float64
		min   float64
		max   float64
		count int
	}
	buckets := make(map[int64]*accumulator)

	for i := range readings {
		value, ok := readings[i].Fields.NumericValue(parameter)
		if !ok {
			continue
		}
		key := BucketStart(readings[i].Timestamp, interval).UnixMilli()
		acc, exists := buckets[key]
		if !exists {
			buckets[key] = &accumulator{sum: value, min: value, max: value, count: 1}
			continue
		}
		acc.sum += value
		acc.count++
		if value < acc.min {
			acc.min = value
		}
		if value > acc.max {
			acc.max = value
		}
	}

	out := make([]models.AggregateBucket, 0, len(buckets))
	for key, acc := range buckets {
		out = append(out, models.AggregateBucket{
			BucketStart: time.UnixMilli(key).UTC(),
			Average:     acc.sum / float64(acc.count),
			Minimum:     acc.min,
			Maximum:     acc.max,
			Count:       acc.count,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].BucketStart.Before(out[j].BucketStart)
	})
	return out, nil
}
