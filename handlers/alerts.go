package handlers

import (
	"net/http"
	"strconv"
	"time"

	"telemetry-hub/models"
	"telemetry-hub/utils"

	"github.com/labstack/echo/v4"
)

// ListAlertRules returns the threshold rules defined for a device.
func (h *APIHandler) ListAlertRules(c echo.Context) error {
	device, err := h.deviceBySerial(c)
	if device == nil {
		return err
	}
	rules, err := h.rules.ListByDevice(device.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrorResponse(err.Error()))
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Alert rules retrieved successfully",
		utils.CreateListResponse(rules, len(rules), nil)))
}

// CreateAlertRule defines a new threshold rule on a device parameter.
func (h *APIHandler) CreateAlertRule(c echo.Context) error {
	device, err := h.deviceBySerial(c)
	if device == nil {
		return err
	}

	var rule models.AlertRule
	if err := c.Bind(&rule); err != nil {
		return c.JSON(http.StatusBadRequest, utils.ErrorResponse("invalid alert rule payload"))
	}
	if rule.ParameterName == "" {
		return c.JSON(http.StatusBadRequest, utils.ErrorResponse("parameterName is required"))
	}
	if !rule.UpperEnabled && !rule.LowerEnabled {
		return c.JSON(http.StatusBadRequest, utils.ErrorResponse("at least one threshold must be enabled"))
	}
	rule.DeviceID = device.ID
	if err := h.rules.Create(&rule); err != nil {
		return c.JSON(http.StatusBadRequest, utils.ErrorResponse(err.Error()))
	}
	return c.JSON(http.StatusCreated, utils.SuccessResponse("Alert rule created successfully", rule))
}

// UpdateAlertRule edits a threshold rule (thresholds, cooldown, enabled
// flag, notification targets).
func (h *APIHandler) UpdateAlertRule(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, utils.ErrorResponse("invalid alert rule id"))
	}

	var updates map[string]interface{}
	if err := c.Bind(&updates); err != nil {
		return c.JSON(http.StatusBadRequest, utils.ErrorResponse("invalid update payload"))
	}
	rule, err := h.rules.Update(uint(id), updates)
	if err != nil {
		return c.JSON(http.StatusBadRequest, utils.ErrorResponse(err.Error()))
	}
	if rule == nil {
		return c.JSON(http.StatusNotFound, utils.ErrorResponse("alert rule not found"))
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Alert rule updated successfully", rule))
}

// DeleteAlertRule removes a threshold rule. Past alert logs keep their
// denormalized copy of the rule data.
func (h *APIHandler) DeleteAlertRule(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, utils.ErrorResponse("invalid alert rule id"))
	}
	if err := h.rules.Delete(uint(id)); err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrorResponse(err.Error()))
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Alert rule deleted successfully", nil))
}

// ListAlertLogs returns recent alert firings across all devices.
func (h *APIHandler) ListAlertLogs(c echo.Context) error {
	pagination := utils.GetPaginationParams(c.QueryParam("limit"), c.QueryParam("offset"), 100)
	logs, err := h.alertLogs.List(pagination.Limit, pagination.Offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrorResponse(err.Error()))
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Alerts retrieved successfully",
		utils.CreateListResponse(logs, len(logs), &pagination)))
}

// ListDeviceAlertLogs returns recent alert firings for one device.
func (h *APIHandler) ListDeviceAlertLogs(c echo.Context) error {
	device, err := h.deviceBySerial(c)
	if device == nil {
		return err
	}
	limit := utils.GetIntOrDefault(c.QueryParam("limit"), 100)
	logs, err := h.alertLogs.ListByDevice(device.ID, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrorResponse(err.Error()))
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Alerts retrieved successfully",
		utils.CreateListResponse(logs, len(logs), nil)))
}

// AcknowledgeAlert marks one alert log entry as acknowledged.
func (h *APIHandler) AcknowledgeAlert(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, utils.ErrorResponse("invalid alert id"))
	}

	var body struct {
		AcknowledgedBy string `json:"acknowledgedBy"`
		Notes          string `json:"notes"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, utils.ErrorResponse("invalid acknowledge payload"))
	}
	if body.AcknowledgedBy == "" {
		return c.JSON(http.StatusBadRequest, utils.ErrorResponse("acknowledgedBy is required"))
	}

	entry, err := h.alertLogs.GetByID(uint(id))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrorResponse(err.Error()))
	}
	if entry == nil {
		return c.JSON(http.StatusNotFound, utils.ErrorResponse("alert not found"))
	}
	if entry.Acknowledged {
		return c.JSON(http.StatusConflict, utils.ErrorResponse("alert already acknowledged"))
	}

	if err := h.alertLogs.Acknowledge(uint(id), body.AcknowledgedBy, body.Notes, time.Now().UTC()); err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrorResponse(err.Error()))
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Alert acknowledged successfully", nil))
}
