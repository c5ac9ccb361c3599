package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"dispatch/cmd"
	"dispatch/internal/adapters/out/postgres/driverrepo"
	"dispatch/internal/adapters/out/postgres/orderrepo"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	config := getConfigs(logger)

	gormDB, err := gorm.Open(gormpostgres.Open(config.DSN()), &gorm.Config{})
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := gormDB.AutoMigrate(&orderrepo.OrderDTO{}, &driverrepo.DriverDTO{}); err != nil {
		logger.Error("Failed to migrate schema", "error", err)
		os.Exit(1)
	}

	root, err := cmd.NewCompositionRoot(config, gormDB, logger)
	if err != nil {
		logger.Error("Failed to build application", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Location history lives in a partitioned table; the first maintenance
	// pass runs inline so the first write finds its partition.
	if err := root.LocationRepository().Migrate(ctx); err != nil {
		logger.Error("Failed to migrate location history", "error", err)
		os.Exit(1)
	}
	maintenance := root.CreatePartitionMaintenanceJob()
	maintenance.Run(ctx)

	if err := root.RebuildScheduleBook(ctx); err != nil {
		logger.Error("Failed to rebuild schedule book", "error", err)
		os.Exit(1)
	}

	manager := root.CreateJobManager(maintenance)
	if err := manager.StartAll(); err != nil {
		logger.Error("Failed to start background jobs", "error", err)
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})
	root.CreateServer().RegisterRoutes(e)

	go func() {
		if err := e.Start(fmt.Sprintf("0.0.0.0:%s", config.HTTPPort)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	manager.StopAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shut down HTTP server", "error", err)
	}
	if err := root.Pipeline().Close(shutdownCtx); err != nil {
		logger.Error("Failed to drain ingestion pipeline", "error", err)
	}
}

func getConfigs(logger *slog.Logger) cmd.Config {
	if err := godotenv.Load(".env"); err != nil {
		logger.Info("No .env file found, reading configuration from environment")
	}

	return cmd.Config{
		HTTPPort:   envString("HTTP_PORT", "8080"),
		DBHost:     envString("DB_HOST", "localhost"),
		DBPort:     envString("DB_PORT", "5432"),
		DBUser:     envString("DB_USER", "postgres"),
		DBPassword: envString("DB_PASSWORD", "postgres"),
		DBName:     envString("DB_NAME", "dispatch"),
		DBSslMode:  envString("DB_SSLMODE", "disable"),

		GoogleMapsAPIKey: envString("GOOGLE_MAPS_API_KEY", ""),

		IngestionQueueSize:     envInt("INGESTION_QUEUE_SIZE", 0),
		IngestionWorkers:       envInt("INGESTION_WORKERS", 0),
		IngestionBatchSize:     envInt("INGESTION_BATCH_SIZE", 0),
		IngestionFlushInterval: envDuration("INGESTION_FLUSH_INTERVAL", 0),

		UrgentInitialRadiusMeters: envFloat("URGENT_INITIAL_RADIUS_METERS", 0),
		UrgentRadiusStepMeters:    envFloat("URGENT_RADIUS_STEP_METERS", 0),
		UrgentMaxRadiusMeters:     envFloat("URGENT_MAX_RADIUS_METERS", 0),

		GeoPrecision:     envInt("GEO_PRECISION", 0),
		PositionLiveness: envDuration("POSITION_LIVENESS", 0),

		LocationRetention: envDuration("LOCATION_RETENTION", 30*24*time.Hour),
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("Invalid integer in environment, using fallback", "key", key, "value", value)
		return fallback
	}
	return parsed
}

func envFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		slog.Warn("Invalid float in environment, using fallback", "key", key, "value", value)
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("Invalid duration in environment, using fallback", "key", key, "value", value)
		return fallback
	}
	return parsed
}
