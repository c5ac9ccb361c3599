package googlemaps

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
)

// RoutingEstimator adapts the routing client to the route sequencer's
// estimator contract. Errors pass through untouched; the sequencer decides
// how to degrade.
type RoutingEstimator struct {
	routing ports.RoutingClient
}

// NewRoutingEstimator creates an estimator backed by the routing client.
func NewRoutingEstimator(routing ports.RoutingClient) RoutingEstimator {
	return RoutingEstimator{routing: routing}
}

// Estimate computes the travel cost of one leg via the routing service.
func (e RoutingEstimator) Estimate(ctx context.Context, from, to kernel.GeoPoint) (services.LegEstimate, error) {
	leg, err := e.routing.Route(ctx, from, to)
	if err != nil {
		return services.LegEstimate{}, err
	}
	return services.LegEstimate{
		DistanceMeters: leg.DistanceMeters,
		Duration:       leg.Duration,
	}, nil
}
