package ports

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
)

var (
	// ErrRouteNotFound is returned when the routing oracle has no route
	// between the two points.
	ErrRouteNotFound = errors.New("no route found between points")

	// ErrRoutingUnavailable is returned when the routing oracle cannot be
	// reached. Callers fall back to straight-line estimates.
	ErrRoutingUnavailable = errors.New("routing service unavailable")
)

// RouteLeg is the routing oracle's answer for a single origin->destination
// leg: real road distance, expected travel time and an encoded polyline.
type RouteLeg struct {
	DistanceMeters float64
	Duration       time.Duration
	Polyline       string
}

// RoutingClient is the outbound port to an external routing service.
// Implementations must respect ctx cancellation; the callers treat
// ErrRoutingUnavailable as a soft failure and degrade to haversine.
type RoutingClient interface {
	// Route computes a driving route from origin to destination.
	Route(ctx context.Context, origin, destination kernel.GeoPoint) (RouteLeg, error)
}
