package models

import (
	"time"
)

// Device status values.
const (
	DeviceStatusOnline      = "online"
	DeviceStatusOffline     = "offline"
	DeviceStatusError       = "error"
	DeviceStatusMaintenance = "maintenance"
)

// Parameter data types.
const (
	DataTypeBoolean         = "boolean"
	DataTypeInteger         = "integer"
	DataTypeUnsignedInteger = "unsigned_integer"
	DataTypeFloat           = "float"
	DataTypeSignedFloat     = "signed_float"
	DataTypeString          = "string"
)

// Reading quality tags.
const (
	QualityGood  = "good"
	QualityFair  = "fair"
	QualityPoor  = "poor"
	QualityError = "error"
)

// Alert severities.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Threshold types recorded on alert logs.
const (
	ThresholdTypeUpper = "upper"
	ThresholdTypeLower = "lower"
)

// Database Models

// Device is the authoritative record of a registered device. Devices are
// created by an administrator; inbound messages never create one.
type Device struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	SerialNumber string     `gorm:"index:idx_device_serial,unique" json:"serialNumber"`
	Name         string     `json:"name"`
	DeviceType   string     `json:"deviceType"`
	Enabled      bool       `gorm:"default:true" json:"enabled"`
	Status       string     `gorm:"default:offline" json:"status"`
	LastSeenAt   *time.Time `json:"lastSeenAt"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Parameter is a typed measurement field a device may report.
// Unique per (device, name).
type Parameter struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	DeviceID     uint      `gorm:"index:idx_param_device_name,unique" json:"deviceId"`
	Name         string    `gorm:"index:idx_param_device_name,unique" json:"name"`
	DataType     string    `json:"dataType"`
	MinValue     *float64  `json:"minValue"`
	MaxValue     *float64  `json:"maxValue"`
	Unit         string    `json:"unit"`
	Locked       bool      `json:"locked"`
	DisplayOrder int       `json:"displayOrder"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TelemetryReading is one immutable stored telemetry record. The field map
// is an open schema: it is stored exactly as received, whether or not every
// field matches a defined parameter. Expired readings are purged after the
// retention window.
type TelemetryReading struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	DeviceID  uint      `gorm:"index:idx_reading_device_ts" json:"deviceId"`
	Timestamp time.Time `gorm:"index:idx_reading_device_ts,sort:desc" json:"timestamp"`
	Fields    FieldMap  `gorm:"type:jsonb" json:"fields"`
	Quality   string    `gorm:"default:good" json:"quality"`
	Source    string    `json:"source"`
	Topic     string    `json:"topic"`
	CreatedAt time.Time `json:"createdAt"`
}

// Threshold is one side of an alert rule.
type Threshold struct {
	Value   float64 `json:"value"`
	Enabled bool    `json:"enabled"`
}

// AlertRule is a threshold alert definition bound to one (device, parameter)
// pair, unique per pair. LastTriggeredAt and TriggerCount are committed by
// the evaluation engine in a single conditional update so a rule cannot
// double-fire inside its cooldown window.
type AlertRule struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	DeviceID        uint       `gorm:"index:idx_rule_device_param,unique" json:"deviceId"`
	ParameterName   string     `gorm:"index:idx_rule_device_param,unique" json:"parameterName"`
	Enabled         bool       `gorm:"default:true" json:"enabled"`
	UpperValue      float64    `json:"upperValue"`
	UpperEnabled    bool       `json:"upperEnabled"`
	LowerValue      float64    `json:"lowerValue"`
	LowerEnabled    bool       `json:"lowerEnabled"`
	CooldownSec     int        `gorm:"default:300" json:"cooldownSec"`
	LastTriggeredAt *time.Time `json:"lastTriggeredAt"`
	TriggerCount    int64      `json:"triggerCount"`
	Severity        string     `gorm:"default:medium" json:"severity"`
	EmailEnabled    bool       `json:"emailEnabled"`
	EmailRecipients StringList `gorm:"type:jsonb" json:"emailRecipients"`
	// SMS delivery is reserved; recipients are stored but never dispatched.
	SMSRecipients StringList `gorm:"type:jsonb" json:"smsRecipients"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Upper returns the rule's upper threshold.
func (r *AlertRule) Upper() Threshold {
	return Threshold{Value: r.UpperValue, Enabled: r.UpperEnabled}
}

// Lower returns the rule's lower threshold.
func (r *AlertRule) Lower() Threshold {
	return Threshold{Value: r.LowerValue, Enabled: r.LowerEnabled}
}

// Cooldown returns the rule's cooldown as a duration.
func (r *AlertRule) Cooldown() time.Duration {
	return time.Duration(r.CooldownSec) * time.Second
}

// AlertLog is the immutable record of one rule firing. Parameter name and
// threshold data are denormalized so the log survives rule edits. Only the
// acknowledgement sub-state is mutable. Purged after the retention window.
type AlertLog struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	RuleID         uint    `gorm:"index" json:"ruleId"`
	DeviceID       uint    `gorm:"index" json:"deviceId"`
	SerialNumber   string  `json:"serialNumber"`
	ParameterName  string  `json:"parameterName"`
	ThresholdType  string  `json:"thresholdType"`
	ThresholdValue float64 `json:"thresholdValue"`
	ActualValue    float64 `json:"actualValue"`
	Message        string  `json:"message"`
	Severity       string  `json:"severity"`

	NotificationSent  bool       `json:"notificationSent"`
	NotificationError string     `json:"notificationError,omitempty"`
	NotifiedAt        *time.Time `json:"notifiedAt"`

	Acknowledged   bool       `json:"acknowledged"`
	AcknowledgedBy string     `json:"acknowledgedBy,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledgedAt"`
	AckNotes       string     `json:"ackNotes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// MQTT Message Structures

// TelemetryMessage is the decoded body of a telemetry topic message: a flat
// field map with an optional timestamp field mixed in.
type TelemetryMessage struct {
	Timestamp time.Time
	Fields    FieldMap
}

// StatusMessage is the decoded body of a status topic message.
type StatusMessage struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// AggregateBucket is one fixed-width time bucket of an aggregation query.
type AggregateBucket struct {
	BucketStart time.Time `json:"bucketStart"`
	Average     float64   `json:"average"`
	Minimum     float64   `json:"minimum"`
	Maximum     float64   `json:"maximum"`
	Count       int       `json:"count"`
}

// DeviceView is a device plus read-time staleness information. There is no
// background offline sweep; consumers judge staleness from LastSeenAgeSec.
type DeviceView struct {
	Device
	LastSeenAgeSec *int64 `json:"lastSeenAgeSec"`
	Stale          bool   `json:"stale"`
}

// NewDeviceView derives the read-time view of a device. A device is marked
// stale when it has not reported within staleAfter.
func NewDeviceView(d Device, now time.Time, staleAfter time.Duration) DeviceView {
	view := DeviceView{Device: d}
	if d.LastSeenAt != nil {
		age := int64(now.Sub(*d.LastSeenAt).Seconds())
		view.LastSeenAgeSec = &age
		view.Stale = now.Sub(*d.LastSeenAt) > staleAfter
	} else {
		view.Stale = true
	}
	return view
}
