package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"telemetry-hub/repositories/interfaces"
	"telemetry-hub/services"
	"telemetry-hub/utils"
	"telemetry-hub/websocket"

	gwebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var upgrader = gwebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboard origins are a deployment concern; the API itself is open.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// APIHandler handles all API requests of the telemetry platform.
type APIHandler struct {
	devices   *services.DeviceService
	telemetry *services.TelemetryService
	rules     interfaces.AlertRuleRepositoryInterface
	alertLogs interfaces.AlertLogRepositoryInterface
	hub       *websocket.Hub
	logger    *slog.Logger
}

// NewAPIHandler creates a new instance of APIHandler.
func NewAPIHandler(
	devices *services.DeviceService,
	telemetry *services.TelemetryService,
	rules interfaces.AlertRuleRepositoryInterface,
	alertLogs interfaces.AlertLogRepositoryInterface,
	hub *websocket.Hub,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		devices:   devices,
		telemetry: telemetry,
		rules:     rules,
		alertLogs: alertLogs,
		hub:       hub,
		logger:    logger.With("component", "api"),
	}
}

// RegisterRoutes wires all routes onto the echo instance.
func (h *APIHandler) RegisterRoutes(e *echo.Echo) {
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.Logger())

	e.GET("/ws", h.HandleWebSocket)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	api.GET("/health", h.HealthCheck)

	api.GET("/devices", h.ListDevices)
	api.POST("/devices", h.RegisterDevice)
	api.GET("/devices/:serialNumber", h.GetDevice)
	api.PUT("/devices/:serialNumber", h.UpdateDevice)
	api.GET("/devices/:serialNumber/status", h.GetDeviceStatus)

	api.GET("/devices/:serialNumber/parameters", h.ListParameters)
	api.POST("/devices/:serialNumber/parameters", h.CreateParameter)
	api.PUT("/parameters/:id", h.UpdateParameter)

	api.GET("/devices/:serialNumber/readings", h.GetReadings)
	api.GET("/devices/:serialNumber/readings/latest", h.GetLatestReadings)
	api.GET("/devices/:serialNumber/readings/aggregate", h.GetAggregation)

	api.GET("/devices/:serialNumber/alert-rules", h.ListAlertRules)
	api.POST("/devices/:serialNumber/alert-rules", h.CreateAlertRule)
	api.PUT("/alert-rules/:id", h.UpdateAlertRule)
	api.DELETE("/alert-rules/:id", h.DeleteAlertRule)

	api.GET("/alerts", h.ListAlertLogs)
	api.GET("/devices/:serialNumber/alerts", h.ListDeviceAlertLogs)
	api.POST("/alerts/:id/acknowledge", h.AcknowledgeAlert)
}

// HealthCheck provides a simple health status of the service.
func (h *APIHandler) HealthCheck(c echo.Context) error {
	data := map[string]interface{}{
		"service":   "telemetry-hub",
		"timestamp": time.Now().Unix(),
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Service is healthy", data))
}

// HandleWebSocket upgrades the connection and registers the session with
// the fan-out hub.
func (h *APIHandler) HandleWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", slog.Any("error", err))
		return nil
	}

	client := websocket.NewClient(h.hub, conn, h.logger)
	h.hub.RegisterClient(client)

	go client.WritePump()
	go client.ReadPump()
	return nil
}
