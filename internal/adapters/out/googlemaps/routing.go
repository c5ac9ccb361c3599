// Package googlemaps implements the outbound routing port on top of the
// Google Maps Directions API.
package googlemaps

import (
	"context"
	"fmt"

	"dispatch/internal/core/ports"

	"dispatch/internal/core/domain/model/kernel"

	"googlemaps.github.io/maps"
)

// directionsAPI is the slice of the Maps client the adapter needs.
type directionsAPI interface {
	Directions(ctx context.Context, r *maps.DirectionsRequest) ([]maps.Route, []maps.GeocodedWaypoint, error)
}

// RoutingClient answers route queries via the Google Maps Directions API.
// An unreachable API maps to ErrRoutingUnavailable, so callers degrade to
// straight-line estimates instead of failing the operation.
type RoutingClient struct {
	client directionsAPI
}

// NewRoutingClient creates a routing client with the given API key.
func NewRoutingClient(apiKey string) (*RoutingClient, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &RoutingClient{client: client}, nil
}

// Route computes a driving route between two points. The first returned
// route's first leg is taken as the answer.
func (c *RoutingClient) Route(
	ctx context.Context,
	origin, destination kernel.GeoPoint,
) (ports.RouteLeg, error) {
	r := &maps.DirectionsRequest{
		Origin:      formatPoint(origin),
		Destination: formatPoint(destination),
		Mode:        maps.TravelModeDriving,
	}

	routes, _, err := c.client.Directions(ctx, r)
	if err != nil {
		if ctx.Err() != nil {
			return ports.RouteLeg{}, ctx.Err()
		}
		return ports.RouteLeg{}, fmt.Errorf("%w: %w", ports.ErrRoutingUnavailable, err)
	}

	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return ports.RouteLeg{}, ports.ErrRouteNotFound
	}

	leg := routes[0].Legs[0]
	return ports.RouteLeg{
		DistanceMeters: float64(leg.Distance.Meters),
		Duration:       leg.Duration,
		Polyline:       routes[0].OverviewPolyline.Points,
	}, nil
}

func formatPoint(p kernel.GeoPoint) string {
	return fmt.Sprintf("%f,%f", p.Latitude(), p.Longitude())
}
