package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telemetry-hub/config"
	"telemetry-hub/database"
	"telemetry-hub/handlers"
	"telemetry-hub/mqtt"
	"telemetry-hub/notification"
	"telemetry-hub/redis"
	"telemetry-hub/services"
	"telemetry-hub/websocket"

	"github.com/labstack/echo/v4"
)

func main() {
	cfg := config.LoadConfig()
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	db, err := database.NewDatabase(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize database", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := redis.NewRedisClient(cfg)
	if err != nil {
		logger.Error("Failed to initialize Redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer redisClient.Close()

	hub := websocket.NewHub(logger)
	go hub.Run()

	var notifier services.Notifier
	if cfg.SMTPEnabled {
		notifier = notification.NewEmailNotifier(cfg, logger)
	} else {
		logger.Info("SMTP disabled, alert notifications will not be dispatched")
	}

	alertService := services.NewAlertService(db.AlertRuleRepo, db.AlertLogRepo, notifier, hub, logger)
	ingestionService := services.NewIngestionService(
		db.DeviceRepo, db.ParameterRepo, db.TelemetryRepo,
		alertService, redisClient, hub, logger,
	)
	telemetryService := services.NewTelemetryService(db.TelemetryRepo, redisClient)
	deviceService := services.NewDeviceService(db.DeviceRepo, db.ParameterRepo, redisClient, cfg.StaleAfter, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	retention := services.NewRetentionService(
		db.TelemetryRepo, db.AlertLogRepo,
		cfg.TelemetryRetention, cfg.AlertLogRetention, logger,
	)
	go retention.Run(ctx, cfg.RetentionSweep)

	mqttClient, err := mqtt.NewClient(cfg, ingestionService, logger)
	if err != nil {
		logger.Error("Failed to initialize MQTT client", slog.Any("error", err))
		os.Exit(1)
	}
	defer mqttClient.Disconnect()

	apiHandler := handlers.NewAPIHandler(
		deviceService, telemetryService,
		db.AlertRuleRepo, db.AlertLogRepo,
		hub, logger,
	)

	e := echo.New()
	e.HideBanner = true
	apiHandler.RegisterRoutes(e)

	go func() {
		logger.Info("Starting HTTP server", "addr", cfg.HTTPAddr)
		if err := e.Start(cfg.HTTPAddr); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", slog.Any("error", err))
	}

	logger.Info("Server stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
