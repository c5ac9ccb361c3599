package googlemaps

import (
	"context"
	"errors"
	"testing"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"
)

type stubDirections struct {
	routes []maps.Route
	err    error

	lastRequest *maps.DirectionsRequest
}

func (s *stubDirections) Directions(
	_ context.Context,
	r *maps.DirectionsRequest,
) ([]maps.Route, []maps.GeocodedWaypoint, error) {
	s.lastRequest = r
	return s.routes, nil, s.err
}

func testPoints(t *testing.T) (kernel.GeoPoint, kernel.GeoPoint) {
	t.Helper()

	origin, err := kernel.NewGeoPoint(52.5200, 13.4050)
	require.NoError(t, err)
	destination, err := kernel.NewGeoPoint(52.5000, 13.4500)
	require.NoError(t, err)
	return origin, destination
}

func TestRoutingClient_Route(t *testing.T) {
	t.Run("maps the first leg of the first route", func(t *testing.T) {
		stub := &stubDirections{
			routes: []maps.Route{{
				Legs: []*maps.Leg{{
					Distance: maps.Distance{Meters: 4250},
					Duration: 17 * time.Minute,
				}},
				OverviewPolyline: maps.Polyline{Points: "_p~iF~ps|U_ulLnnqC"},
			}},
		}
		client := &RoutingClient{client: stub}
		origin, destination := testPoints(t)

		leg, err := client.Route(t.Context(), origin, destination)

		require.NoError(t, err)
		assert.InEpsilon(t, 4250.0, leg.DistanceMeters, 1e-9)
		assert.Equal(t, 17*time.Minute, leg.Duration)
		assert.Equal(t, "_p~iF~ps|U_ulLnnqC", leg.Polyline)

		require.NotNil(t, stub.lastRequest)
		assert.Equal(t, "52.520000,13.405000", stub.lastRequest.Origin)
		assert.Equal(t, "52.500000,13.450000", stub.lastRequest.Destination)
		assert.Equal(t, maps.TravelModeDriving, stub.lastRequest.Mode)
	})

	t.Run("empty route list means no route", func(t *testing.T) {
		client := &RoutingClient{client: &stubDirections{}}
		origin, destination := testPoints(t)

		_, err := client.Route(t.Context(), origin, destination)

		require.ErrorIs(t, err, ports.ErrRouteNotFound)
	})

	t.Run("transport failure maps to unavailable", func(t *testing.T) {
		stub := &stubDirections{err: errors.New("connection refused")}
		client := &RoutingClient{client: stub}
		origin, destination := testPoints(t)

		_, err := client.Route(t.Context(), origin, destination)

		require.ErrorIs(t, err, ports.ErrRoutingUnavailable)
	})

	t.Run("cancelled context wins over transport error", func(t *testing.T) {
		stub := &stubDirections{err: errors.New("context canceled")}
		client := &RoutingClient{client: stub}
		origin, destination := testPoints(t)

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		_, err := client.Route(ctx, origin, destination)

		require.ErrorIs(t, err, context.Canceled)
	})
}
