package handlers

import (
	"net/http"
	"strconv"

	"telemetry-hub/models"
	"telemetry-hub/utils"

	"github.com/labstack/echo/v4"
)

// deviceBySerial resolves the :serialNumber path param to a device view.
// A nil view with a nil error means the device was not found and a 404 has
// already been written.
func (h *APIHandler) deviceBySerial(c echo.Context) (*models.DeviceView, error) {
	serialNumber := c.Param("serialNumber")
	device, err := h.devices.Get(serialNumber)
	if err != nil {
		return nil, c.JSON(http.StatusInternalServerError, utils.ErrorResponse(err.Error()))
	}
	if device == nil {
		return nil, c.JSON(http.StatusNotFound, utils.ErrorResponse("device not found"))
	}
	return device, nil
}

// ListDevices returns all registered devices with read-time staleness.
func (h *APIHandler) ListDevices(c echo.Context) error {
	pagination := utils.GetPaginationParams(c.QueryParam("limit"), c.QueryParam("offset"), 50)
	devices, err := h.devices.List(pagination.Limit, pagination.Offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrorResponse(err.Error()))
	}
	response := utils.CreateListResponse(devices, len(devices), &pagination)
	return c.JSON(http.StatusOK, utils.SuccessResponse("Devices retrieved successfully", response))
}

// RegisterDevice creates a device. This is the only way a device comes
// into existence; inbound messages never create one.
func (h *APIHandler) RegisterDevice(c echo.Context) error {
	var device models.Device
	if err := c.Bind(&device); err != nil {
		return c.JSON(http.StatusBadRequest, utils.ErrorResponse("invalid device payload"))
	}
	if err := h.devices.Register(&device); err != nil {
		return c.JSON(http.StatusBadRequest, utils.ErrorResponse(err.Error()))
	}
	return c.JSON(http.StatusCreated, utils.SuccessResponse("Device registered successfully", device))
}

// GetDevice returns one device by serial number.
func (h *APIHandler) GetDevice(c echo.Context) error {
	device, err := h.deviceBySerial(c)
	if device == nil {
		return err
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Device retrieved successfully", device))
}

// UpdateDevice applies administrative edits, including the explicit
// error/maintenance status transitions.
func (h *APIHandler) UpdateDevice(c echo.Context) error {
	device, err := h.deviceBySerial(c)
	if device == nil {
		return err
	}

	var updates map[string]interface{}
	if err := c.Bind(&updates); err != nil {
		return c.JSON(http.StatusBadRequest, utils.ErrorResponse("invalid update payload"))
	}
	updated, err := h.devices.Update(device.ID, updates)
	if err != nil {
		return c.JSON(http.StatusBadRequest, utils.ErrorResponse(err.Error()))
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Device updated successfully", updated))
}

// GetDeviceStatus returns the device's current liveness state, served
// from the cache when available.
func (h *APIHandler) GetDeviceStatus(c echo.Context) error {
	serialNumber := c.Param("serialNumber")
	status, err := h.devices.Status(serialNumber)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrorResponse(err.Error()))
	}
	if status == "" {
		return c.JSON(http.StatusNotFound, utils.ErrorResponse("device not found"))
	}
	data := map[string]string{"serialNumber": serialNumber, "status": status}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Device status retrieved successfully", data))
}

// ListParameters returns the device's parameter definitions.
func (h *APIHandler) ListParameters(c echo.Context) error {
	device, err := h.deviceBySerial(c)
	if device == nil {
		return err
	}
	params, err := h.devices.Parameters(device.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrorResponse(err.Error()))
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Parameters retrieved successfully", params))
}

// CreateParameter adds a parameter definition to a device.
func (h *APIHandler) CreateParameter(c echo.Context) error {
	device, err := h.deviceBySerial(c)
	if device == nil {
		return err
	}

	var param models.Parameter
	if err := c.Bind(&param); err != nil {
		return c.JSON(http.StatusBadRequest, utils.ErrorResponse("invalid parameter payload"))
	}
	param.DeviceID = device.ID
	if err := h.devices.CreateParameter(&param); err != nil {
		return c.JSON(http.StatusBadRequest, utils.ErrorResponse(err.Error()))
	}
	return c.JSON(http.StatusCreated, utils.SuccessResponse("Parameter created successfully", param))
}

// UpdateParameter edits a parameter definition. Locked parameters require
// the admin flag (X-Admin header, verified upstream by the auth proxy).
func (h *APIHandler) UpdateParameter(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, utils.ErrorResponse("invalid parameter id"))
	}

	var updates map[string]interface{}
	if err := c.Bind(&updates); err != nil {
		return c.JSON(http.StatusBadRequest, utils.ErrorResponse("invalid update payload"))
	}

	admin := c.Request().Header.Get("X-Admin") == "true"
	param, err := h.devices.UpdateParameter(uint(id), updates, admin)
	if err != nil {
		return c.JSON(http.StatusBadRequest, utils.ErrorResponse(err.Error()))
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Parameter updated successfully", param))
}
