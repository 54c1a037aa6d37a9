package handlers

import (
	"net/http"
	"time"

	"telemetry-hub/services"
	"telemetry-hub/utils"

	"github.com/labstack/echo/v4"
)

// parseTimeRange reads the start/end query params (RFC3339). Missing
// values default to the last 24 hours.
func parseTimeRange(c echo.Context) (start, end time.Time, err error) {
	end = time.Now().UTC()
	start = end.Add(-24 * time.Hour)

	if s := c.QueryParam("start"); s != "" {
		start, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return start, end, err
		}
	}
	if e := c.QueryParam("end"); e != "" {
		end, err = time.Parse(time.RFC3339, e)
		if err != nil {
			return start, end, err
		}
	}
	return start, end, nil
}

// GetReadings returns readings for a device in a time range, newest first.
func (h *APIHandler) GetReadings(c echo.Context) error {
	device, err := h.deviceBySerial(c)
	if device == nil {
		return err
	}

	start, end, err := parseTimeRange(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, utils.ErrorResponse("invalid time range, use RFC3339"))
	}
	limit := utils.GetIntOrDefault(c.QueryParam("limit"), 1000)

	readings, err := h.telemetry.Range(device.ID, start, end, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrorResponse(err.Error()))
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Readings retrieved successfully",
		utils.CreateListResponse(readings, len(readings), nil)))
}

// GetLatestReadings returns the n most recent readings for a device.
func (h *APIHandler) GetLatestReadings(c echo.Context) error {
	device, err := h.deviceBySerial(c)
	if device == nil {
		return err
	}

	n := utils.GetIntOrDefault(c.QueryParam("count"), 1)
	readings, err := h.telemetry.Latest(device.SerialNumber, device.ID, n)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrorResponse(err.Error()))
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Latest readings retrieved successfully",
		utils.CreateListResponse(readings, len(readings), nil)))
}

// GetAggregation computes per-bucket avg/min/max/count for one numeric
// field over a time range.
func (h *APIHandler) GetAggregation(c echo.Context) error {
	device, err := h.deviceBySerial(c)
	if device == nil {
		return err
	}

	parameter := c.QueryParam("parameter")
	if parameter == "" {
		return c.JSON(http.StatusBadRequest, utils.ErrorResponse("parameter query param is required"))
	}
	interval, err := services.ParseInterval(c.QueryParam("interval"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, utils.ErrorResponse(err.Error()))
	}
	start, end, err := parseTimeRange(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, utils.ErrorResponse("invalid time range, use RFC3339"))
	}

	buckets, err := h.telemetry.Aggregate(device.ID, parameter, start, end, interval)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrorResponse(err.Error()))
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Aggregation computed successfully",
		utils.CreateListResponse(buckets, len(buckets), nil)))
}
