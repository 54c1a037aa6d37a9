package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"telemetry-hub/config"
	"telemetry-hub/models"
	"telemetry-hub/repositories"
	"telemetry-hub/repositories/interfaces"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// gormLogger adapts slog to be used as a GORM logger.
type gormLogger struct {
	slogger *slog.Logger
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return l
}
func (l *gormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.slogger.InfoContext(ctx, msg, "gorm_data", data)
}
func (l *gormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.slogger.WarnContext(ctx, msg, "gorm_data", data)
}
func (l *gormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.slogger.ErrorContext(ctx, msg, "gorm_data", data)
}
func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()
	attrs := []slog.Attr{
		slog.String("latency", elapsed.String()),
		slog.String("sql", sql),
		slog.Int64("rows_affected", rows),
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		attrs = append(attrs, slog.Any("error", err))
		l.slogger.LogAttrs(ctx, slog.LevelError, "GORM Trace", attrs...)
	} else {
		l.slogger.LogAttrs(ctx, slog.LevelDebug, "GORM Trace", attrs...)
	}
}

// Database holds the DB connection and all repository instances.
type Database struct {
	DB            *gorm.DB
	DeviceRepo    interfaces.DeviceRepositoryInterface
	ParameterRepo interfaces.ParameterRepositoryInterface
	TelemetryRepo interfaces.TelemetryRepositoryInterface
	AlertRuleRepo interfaces.AlertRuleRepositoryInterface
	AlertLogRepo  interfaces.AlertLogRepositoryInterface
}

// NewDatabase creates a new database connection and initializes repositories.
func NewDatabase(cfg *config.Config, appLogger *slog.Logger) (*Database, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)

	dbLogger := appLogger.With("component", "database")
	dbLogger.Info("Connecting to database...", "host", cfg.DBHost, "port", cfg.DBPort, "user", cfg.DBUser)

	gormConfig := &gorm.Config{
		Logger: &gormLogger{slogger: dbLogger},
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	dbLogger.Info("Database connected successfully")

	dbLogger.Info("Starting database migration...")
	err = db.AutoMigrate(
		&models.Device{}, &models.Parameter{},
		&models.TelemetryReading{},
		&models.AlertRule{}, &models.AlertLog{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	dbLogger.Info("Database migration completed successfully")

	return &Database{
		DB:            db,
		DeviceRepo:    repositories.NewDeviceRepository(db),
		ParameterRepo: repositories.NewParameterRepository(db),
		TelemetryRepo: repositories.NewTelemetryRepository(db),
		AlertRuleRepo: repositories.NewAlertRuleRepository(db),
		AlertLogRepo:  repositories.NewAlertLogRepository(db),
	}, nil
}
