package services

import (
	"fmt"
	"log/slog"
	"time"

	"telemetry-hub/models"
	"telemetry-hub/repositories/interfaces"
)

// defaultParameters seeds typed parameter definitions when a device of a
// known type is registered.
var defaultParameters = map[string][]models.Parameter{
	"temperature_sensor": {
		{Name: "temperature", DataType: models.DataTypeSignedFloat, Unit: "°C", DisplayOrder: 1},
		{Name: "humidity", DataType: models.DataTypeFloat, MinValue: f(0), MaxValue: f(100), Unit: "%", DisplayOrder: 2},
	},
	"multi_sensor": {
		{Name: "temperature", DataType: models.DataTypeSignedFloat, Unit: "°C", DisplayOrder: 1},
		{Name: "humidity", DataType: models.DataTypeFloat, MinValue: f(0), MaxValue: f(100), Unit: "%", DisplayOrder: 2},
		{Name: "pressure", DataType: models.DataTypeFloat, MinValue: f(0), Unit: "hPa", DisplayOrder: 3},
	},
	"smart_meter": {
		{Name: "power", DataType: models.DataTypeFloat, MinValue: f(0), Unit: "W", DisplayOrder: 1},
		{Name: "voltage", DataType: models.DataTypeFloat, MinValue: f(0), Unit: "V", DisplayOrder: 2},
		{Name: "current", DataType: models.DataTypeFloat, MinValue: f(0), Unit: "A", DisplayOrder: 3},
	},
}

func f(v float64) *float64 { return &v }

// DeviceService covers device registry administration: registration with
// serial validation and type-based parameter defaulting, read-time
// staleness views, and the explicit status edits (error/maintenance) that
// ingestion never performs.
type DeviceService struct {
	devices    interfaces.DeviceRepositoryInterface
	parameters interfaces.ParameterRepositoryInterface
	cache      StatusCache
	staleAfter time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewDeviceService wires the registry. cache may be nil.
func NewDeviceService(
	devices interfaces.DeviceRepositoryInterface,
	parameters interfaces.ParameterRepositoryInterface,
	cache StatusCache,
	staleAfter time.Duration,
	logger *slog.Logger,
) *DeviceService {
	return &DeviceService{
		devices:    devices,
		parameters: parameters,
		cache:      cache,
		staleAfter: staleAfter,
		logger:     logger.With("component", "device_registry"),
		now:        time.Now,
	}
}

// Register creates a device and seeds default parameters for its type.
func (s *DeviceService) Register(device *models.Device) error {
	if !models.ValidSerialNumber(device.SerialNumber) {
		return fmt.Errorf("invalid serial number %q", device.SerialNumber)
	}
	existing, err := s.devices.GetBySerialNumber(device.SerialNumber)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("device %s already registered", device.SerialNumber)
	}

	if device.Status == "" {
		device.Status = models.DeviceStatusOffline
	}
	if err := s.devices.Create(device); err != nil {
		return err
	}

	defaults, ok := defaultParameters[device.DeviceType]
	if !ok {
		return nil
	}
	params := make([]models.Parameter, len(defaults))
	for i, def := range defaults {
		params[i] = def
		params[i].DeviceID = device.ID
	}
	if err := s.parameters.CreateBatch(params); err != nil {
		// The device exists; missing defaults can be created manually.
		s.logger.Warn("Failed to seed default parameters",
			"serialNumber", device.SerialNumber, slog.Any("error", err))
	}
	return nil
}

// List returns read-time device views with staleness derived from
// last-seen age.
func (s *DeviceService) List(limit, offset int) ([]models.DeviceView, error) {
	devices, err := s.devices.List(limit, offset)
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]models.DeviceView, len(devices))
	for i, d := range devices {
		views[i] = models.NewDeviceView(d, now, s.staleAfter)
	}
	return views, nil
}

// Get returns one device view by serial number, or nil when unknown.
func (s *DeviceService) Get(serialNumber string) (*models.DeviceView, error) {
	device, err := s.devices.GetBySerialNumber(serialNumber)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, nil
	}
	view := models.NewDeviceView(*device, s.now(), s.staleAfter)
	return &view, nil
}

// Update applies administrative edits. Status may only be set to one of
// the defined liveness states; error/maintenance exist only on this path.
// Status edits are written through to the cache so the cached value never
// lags behind an administrative change.
func (s *DeviceService) Update(id uint, updates map[string]interface{}) (*models.Device, error) {
	status, statusEdit := updates["status"].(string)
	if statusEdit {
		switch status {
		case models.DeviceStatusOnline, models.DeviceStatusOffline,
			models.DeviceStatusError, models.DeviceStatusMaintenance:
		default:
			return nil, fmt.Errorf("invalid device status %q", status)
		}
	}

	device, err := s.devices.Update(id, updates)
	if err != nil {
		return nil, err
	}
	if statusEdit && s.cache != nil {
		if err := s.cache.SaveDeviceStatus(device.SerialNumber, status, s.now()); err != nil {
			s.logger.Warn("Failed to write status edit through to cache",
				"serialNumber", device.SerialNumber, slog.Any("error", err))
		}
	}
	return device, nil
}

// Status returns a device's current liveness state, serving the cache
// first and falling back to the registry. An empty string means the
// device is unknown.
func (s *DeviceService) Status(serialNumber string) (string, error) {
	if s.cache != nil {
		if status, err := s.cache.GetDeviceStatus(serialNumber); err == nil && status != "" {
			return status, nil
		}
	}
	device, err := s.devices.GetBySerialNumber(serialNumber)
	if err != nil {
		return "", err
	}
	if device == nil {
		return "", nil
	}
	return device.Status, nil
}

// Parameters lists the device's parameter definitions in display order.
func (s *DeviceService) Parameters(deviceID uint) ([]models.Parameter, error) {
	return s.parameters.ListByDevice(deviceID)
}

// CreateParameter adds a parameter definition to a device.
func (s *DeviceService) CreateParameter(param *models.Parameter) error {
	return s.parameters.Create(param)
}

// UpdateParameter edits a parameter definition. Locked parameters reject
// edits unless the caller holds the admin flag.
func (s *DeviceService) UpdateParameter(id uint, updates map[string]interface{}, admin bool) (*models.Parameter, error) {
	param, err := s.parameters.GetByID(id)
	if err != nil {
		return nil, err
	}
	if param == nil {
		return nil, fmt.Errorf("parameter %d not found", id)
	}
	if param.Locked && !admin {
		return nil, fmt.Errorf("parameter %s is locked", param.Name)
	}
	return s.parameters.Update(id, updates)
}
