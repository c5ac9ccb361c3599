package services

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// fallbackSpeedMetersPerSecond approximates urban driving speed when only
// the straight-line distance is known. Roughly 30 km/h.
const fallbackSpeedMetersPerSecond = 8.3

// LegEstimate is the travel cost of a single leg between two points.
type LegEstimate struct {
	DistanceMeters float64
	Duration       time.Duration
}

// TravelEstimator supplies leg costs for route sequencing. The production
// implementation asks the external routing service; any error degrades the
// leg to a straight-line estimate.
type TravelEstimator interface {
	Estimate(ctx context.Context, from, to kernel.GeoPoint) (LegEstimate, error)
}

// SequencedStop is one pickup stop in the computed visiting order.
type SequencedStop struct {
	OrderID kernel.UUID
	Leg     LegEstimate
}

// RouteSequencer orders a driver's stops to reduce total travel.
//
// The sequencing is greedy nearest-neighbor from the driver's current
// position over the orders' pickup points. Exact optimization is
// deliberately out: with the handful of simultaneous orders a driver
// carries, nearest-neighbor stays within a few percent of optimal and
// needs no solver.
type RouteSequencer struct {
	estimator TravelEstimator
}

// NewRouteSequencer creates a sequencer backed by the given estimator.
func NewRouteSequencer(estimator TravelEstimator) *RouteSequencer {
	return &RouteSequencer{estimator: estimator}
}

// Sequence returns the orders' pickups in visiting order starting from the
// driver's position, with per-leg cost estimates. Orders slice is not
// mutated. Cancelling ctx aborts the remaining legs.
func (s *RouteSequencer) Sequence(ctx context.Context, start kernel.GeoPoint, orders []*order.Order) ([]SequencedStop, error) {
	remaining := make([]*order.Order, len(orders))
	copy(remaining, orders)

	stops := make([]SequencedStop, 0, len(remaining))
	current := start

	for len(remaining) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bestIdx := -1
		var bestLeg LegEstimate
		for i, o := range remaining {
			leg, err := s.legCost(ctx, current, o.Pickup())
			if err != nil {
				return nil, err
			}
			if bestIdx == -1 || leg.DistanceMeters < bestLeg.DistanceMeters {
				bestIdx = i
				bestLeg = leg
			}
		}

		next := remaining[bestIdx]
		stops = append(stops, SequencedStop{OrderID: next.ID(), Leg: bestLeg})
		current = next.Pickup()
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return stops, nil
}

// legCost asks the estimator and falls back to haversine when the routing
// service cannot answer. Only a cancelled context is fatal.
func (s *RouteSequencer) legCost(ctx context.Context, from, to kernel.GeoPoint) (LegEstimate, error) {
	if s.estimator != nil {
		leg, err := s.estimator.Estimate(ctx, from, to)
		if err == nil {
			return leg, nil
		}
		if ctx.Err() != nil {
			return LegEstimate{}, ctx.Err()
		}
	}

	d, err := from.DistanceTo(to)
	if err != nil {
		return LegEstimate{}, err
	}
	return LegEstimate{
		DistanceMeters: d,
		Duration:       time.Duration(d / fallbackSpeedMetersPerSecond * float64(time.Second)),
	}, nil
}
