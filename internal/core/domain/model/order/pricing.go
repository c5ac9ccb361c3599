package order

import (
	"math"
	"time"
)

// Tariff for the price quoted at order creation, in cents.
const (
	baseFareCents     = 250
	centsPerKilometer = 90
	centsPerMinute    = 35
)

// EstimatePrice quotes a trip from the routed distance and duration:
// base fare plus distance and time components, rounded to whole cents.
func EstimatePrice(distanceMeters float64, duration time.Duration) int64 {
	distanceCents := math.Round(distanceMeters / 1_000 * centsPerKilometer)
	timeCents := math.Round(duration.Minutes() * centsPerMinute)
	return baseFareCents + int64(distanceCents) + int64(timeCents)
}
