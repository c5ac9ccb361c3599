package cmd

import (
	"fmt"
	"time"
)

// Config carries every tunable of the dispatch service. Values come from
// the environment; see cmd/app for the loading code and the defaults.
type Config struct {
	HTTPPort string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	// GoogleMapsAPIKey enables road-distance route estimates. Empty key
	// means the service runs on straight-line estimates only.
	GoogleMapsAPIKey string

	IngestionQueueSize     int
	IngestionWorkers       int
	IngestionBatchSize     int
	IngestionFlushInterval time.Duration

	// Urgent assignment searches an expanding radius around the pickup.
	// Zero values fall back to the engine defaults.
	UrgentInitialRadiusMeters float64
	UrgentRadiusStepMeters    float64
	UrgentMaxRadiusMeters     float64

	// GeoPrecision is the cell precision of the in-memory position index.
	GeoPrecision int

	// PositionLiveness is how long a position fix counts as current.
	PositionLiveness time.Duration

	// LocationRetention is how far back position history is kept before
	// its partitions are dropped.
	LocationRetention time.Duration
}

// DSN builds the postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}
