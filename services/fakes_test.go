package services

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"telemetry-hub/models"
)

// In-memory repository fakes backing the service tests. They mirror the
// repository contracts: lookups return (nil, nil) on a miss, Range is
// newest first, TryTrigger enforces the cooldown window.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeDeviceRepo struct {
	devices map[string]*models.Device
	nextID  uint
}

func newFakeDeviceRepo(devices ...*models.Device) *fakeDeviceRepo {
	r := &fakeDeviceRepo{devices: make(map[string]*models.Device), nextID: 1}
	for _, d := range devices {
		if d.ID == 0 {
			d.ID = r.nextID
		}
		if d.ID >= r.nextID {
			r.nextID = d.ID + 1
		}
		r.devices[d.SerialNumber] = d
	}
	return r
}

func (r *fakeDeviceRepo) Create(device *models.Device) error {
	device.ID = r.nextID
	r.nextID++
	r.devices[device.SerialNumber] = device
	return nil
}

func (r *fakeDeviceRepo) GetByID(id uint) (*models.Device, error) {
	for _, d := range r.devices {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, nil
}

func (r *fakeDeviceRepo) GetBySerialNumber(serialNumber string) (*models.Device, error) {
	return r.devices[serialNumber], nil
}

func (r *fakeDeviceRepo) List(limit, offset int) ([]models.Device, error) {
	out := make([]models.Device, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeDeviceRepo) Update(id uint, updates map[string]interface{}) (*models.Device, error) {
	d, _ := r.GetByID(id)
	if d == nil {
		return nil, fmt.Errorf("device %d not found", id)
	}
	if status, ok := updates["status"].(string); ok {
		d.Status = status
	}
	if name, ok := updates["name"].(string); ok {
		d.Name = name
	}
	if enabled, ok := updates["enabled"].(bool); ok {
		d.Enabled = enabled
	}
	return d, nil
}

func (r *fakeDeviceRepo) Delete(id uint) error {
	for serial, d := range r.devices {
		if d.ID == id {
			delete(r.devices, serial)
		}
	}
	return nil
}

func (r *fakeDeviceRepo) MarkSeen(id uint, status string, seenAt time.Time) error {
	d, _ := r.GetByID(id)
	if d == nil {
		return fmt.Errorf("device %d not found", id)
	}
	d.Status = status
	ts := seenAt
	d.LastSeenAt = &ts
	return nil
}

type fakeParameterRepo struct {
	params []models.Parameter
	nextID uint
}

func newFakeParameterRepo(params ...models.Parameter) *fakeParameterRepo {
	r := &fakeParameterRepo{nextID: 1}
	for _, p := range params {
		if p.ID == 0 {
			p.ID = r.nextID
		}
		if p.ID >= r.nextID {
			r.nextID = p.ID + 1
		}
		r.params = append(r.params, p)
	}
	return r
}

func (r *fakeParameterRepo) Create(param *models.Parameter) error {
	param.ID = r.nextID
	r.nextID++
	r.params = append(r.params, *param)
	return nil
}

func (r *fakeParameterRepo) CreateBatch(params []models.Parameter) error {
	for i := range params {
		if err := r.Create(&params[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeParameterRepo) GetByID(id uint) (*models.Parameter, error) {
	for i := range r.params {
		if r.params[i].ID == id {
			return &r.params[i], nil
		}
	}
	return nil, nil
}

func (r *fakeParameterRepo) ListByDevice(deviceID uint) ([]models.Parameter, error) {
	var out []models.Parameter
	for _, p := range r.params {
		if p.DeviceID == deviceID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeParameterRepo) Update(id uint, updates map[string]interface{}) (*models.Parameter, error) {
	return r.GetByID(id)
}

func (r *fakeParameterRepo) Delete(id uint) error { return nil }

type fakeTelemetryRepo struct {
	readings []models.TelemetryReading
	nextID   uint
	failNext bool
}

func newFakeTelemetryRepo() *fakeTelemetryRepo {
	return &fakeTelemetryRepo{nextID: 1}
}

func (r *fakeTelemetryRepo) Create(reading *models.TelemetryReading) error {
	if r.failNext {
		r.failNext = false
		return fmt.Errorf("storage unavailable")
	}
	reading.ID = r.nextID
	r.nextID++
	r.readings = append(r.readings, *reading)
	return nil
}

func (r *fakeTelemetryRepo) Range(deviceID uint, start, end time.Time, limit int) ([]models.TelemetryReading, error) {
	var out []models.TelemetryReading
	for _, reading := range r.readings {
		if reading.DeviceID != deviceID {
			continue
		}
		if reading.Timestamp.Before(start) || reading.Timestamp.After(end) {
			continue
		}
		out = append(out, reading)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeTelemetryRepo) Latest(deviceID uint, n int) ([]models.TelemetryReading, error) {
	return r.Range(deviceID, time.Time{}, time.Now().Add(time.Hour), n)
}

func (r *fakeTelemetryRepo) DeleteOlderThan(cutoff time.Time) (int64, error) {
	var kept []models.TelemetryReading
	var purged int64
	for _, reading := range r.readings {
		if reading.Timestamp.Before(cutoff) {
			purged++
			continue
		}
		kept = append(kept, reading)
	}
	r.readings = kept
	return purged, nil
}

type fakeRuleRepo struct {
	rules []models.AlertRule
}

func newFakeRuleRepo(rules ...models.AlertRule) *fakeRuleRepo {
	return &fakeRuleRepo{rules: rules}
}

func (r *fakeRuleRepo) Create(rule *models.AlertRule) error {
	rule.ID = uint(len(r.rules) + 1)
	r.rules = append(r.rules, *rule)
	return nil
}

func (r *fakeRuleRepo) GetByID(id uint) (*models.AlertRule, error) {
	for i := range r.rules {
		if r.rules[i].ID == id {
			return &r.rules[i], nil
		}
	}
	return nil, nil
}

func (r *fakeRuleRepo) ListByDevice(deviceID uint) ([]models.AlertRule, error) {
	var out []models.AlertRule
	for _, rule := range r.rules {
		if rule.DeviceID == deviceID {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (r *fakeRuleRepo) ListEnabledByDevice(deviceID uint) ([]models.AlertRule, error) {
	var out []models.AlertRule
	for _, rule := range r.rules {
		if rule.DeviceID == deviceID && rule.Enabled {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (r *fakeRuleRepo) Update(id uint, updates map[string]interface{}) (*models.AlertRule, error) {
	return r.GetByID(id)
}

func (r *fakeRuleRepo) Delete(id uint) error { return nil }

func (r *fakeRuleRepo) TryTrigger(ruleID uint, now time.Time, cooldown time.Duration) (bool, error) {
	for i := range r.rules {
		if r.rules[i].ID != ruleID {
			continue
		}
		last := r.rules[i].LastTriggeredAt
		if last != nil && last.After(now.Add(-cooldown)) {
			return false, nil
		}
		ts := now
		r.rules[i].LastTriggeredAt = &ts
		r.rules[i].TriggerCount++
		return true, nil
	}
	return false, fmt.Errorf("rule %d not found", ruleID)
}

type fakeLogRepo struct {
	entries  []models.AlertLog
	failNext bool
}

func newFakeLogRepo() *fakeLogRepo { return &fakeLogRepo{} }

func (r *fakeLogRepo) Create(entry *models.AlertLog) error {
	if r.failNext {
		r.failNext = false
		return fmt.Errorf("storage unavailable")
	}
	entry.ID = uint(len(r.entries) + 1)
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeLogRepo) GetByID(id uint) (*models.AlertLog, error) {
	for i := range r.entries {
		if r.entries[i].ID == id {
			return &r.entries[i], nil
		}
	}
	return nil, nil
}

func (r *fakeLogRepo) List(limit, offset int) ([]models.AlertLog, error) {
	return r.entries, nil
}

func (r *fakeLogRepo) ListByDevice(deviceID uint, limit int) ([]models.AlertLog, error) {
	var out []models.AlertLog
	for _, e := range r.entries {
		if e.DeviceID == deviceID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeLogRepo) RecordNotification(id uint, sent bool, errMsg string, at time.Time) error {
	for i := range r.entries {
		if r.entries[i].ID == id {
			r.entries[i].NotificationSent = sent
			r.entries[i].NotificationError = errMsg
			ts := at
			r.entries[i].NotifiedAt = &ts
		}
	}
	return nil
}

func (r *fakeLogRepo) Acknowledge(id uint, by, notes string, at time.Time) error {
	for i := range r.entries {
		if r.entries[i].ID == id {
			r.entries[i].Acknowledged = true
			r.entries[i].AcknowledgedBy = by
			r.entries[i].AckNotes = notes
			ts := at
			r.entries[i].AcknowledgedAt = &ts
		}
	}
	return nil
}

func (r *fakeLogRepo) DeleteOlderThan(cutoff time.Time) (int64, error) {
	var kept []models.AlertLog
	var purged int64
	for _, e := range r.entries {
		if e.CreatedAt.Before(cutoff) {
			purged++
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept
	return purged, nil
}

type publishedEvent struct {
	event   string
	payload interface{}
}

type fakePublisher struct {
	events []publishedEvent
}

func (p *fakePublisher) Publish(event string, payload interface{}) {
	p.events = append(p.events, publishedEvent{event: event, payload: payload})
}

func (p *fakePublisher) byType(event string) []publishedEvent {
	var out []publishedEvent
	for _, e := range p.events {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}

type notifierCall struct {
	recipients []string
	serial     string
	parameter  string
	value      float64
}

type fakeNotifier struct {
	calls     []notifierCall
	err       error
	panicNext bool
}

func (n *fakeNotifier) SendAlert(recipients []string, deviceSerial, parameterName string, value, threshold float64, thresholdType, message, severity string) error {
	if n.panicNext {
		n.panicNext = false
		panic("notifier blew up")
	}
	n.calls = append(n.calls, notifierCall{
		recipients: recipients,
		serial:     deviceSerial,
		parameter:  parameterName,
		value:      value,
	})
	return n.err
}

type fakeCache struct {
	statuses map[string]string
	latest   map[string]*models.TelemetryReading
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		statuses: make(map[string]string),
		latest:   make(map[string]*models.TelemetryReading),
	}
}

func (c *fakeCache) SaveDeviceStatus(serialNumber, status string, seenAt time.Time) error {
	c.statuses[serialNumber] = status
	return nil
}

func (c *fakeCache) GetDeviceStatus(serialNumber string) (string, error) {
	status, ok := c.statuses[serialNumber]
	if !ok {
		return "", fmt.Errorf("status not cached for device %s", serialNumber)
	}
	return status, nil
}

func (c *fakeCache) SaveLatestReading(serialNumber string, reading *models.TelemetryReading) error {
	c.latest[serialNumber] = reading
	return nil
}

func (c *fakeCache) GetLatestReading(serialNumber string) (*models.TelemetryReading, error) {
	reading, ok := c.latest[serialNumber]
	if !ok {
		return nil, fmt.Errorf("no cached reading for device %s", serialNumber)
	}
	return reading, nil
}
