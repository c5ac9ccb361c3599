package services_test

import (
	"context"
	"testing"
	"time"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingOrder(t *testing.T, priority order.Priority, iv kernel.TimeInterval) *order.Order {
	t.Helper()

	pickup, err := kernel.NewGeoPoint(52.52, 13.40)
	require.NoError(t, err)
	dropoff, err := kernel.NewGeoPoint(52.50, 13.45)
	require.NoError(t, err)

	o, err := order.NewOrder(kernel.NewUUID(), pickup, dropoff, "a", "b", iv, priority)
	require.NoError(t, err)
	return o
}

func availableDriver(t *testing.T, name string) *driver.Driver {
	t.Helper()

	d, err := driver.NewDriver(kernel.NewUUID(), name)
	require.NoError(t, err)
	return d
}

func allCandidates(drivers ...*driver.Driver) services.CandidateFunc {
	return func(*order.Order) []*driver.Driver {
		return drivers
	}
}

func TestAssignmentEngine_BatchAssign(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns each order to the first free driver", func(t *testing.T) {
		book := services.NewScheduleBook()
		engine := services.NewAssignmentEngine(book, services.AssignmentConfig{})
		d1, d2 := availableDriver(t, "d1"), availableDriver(t, "d2")

		// both orders want the same hour, so one driver cannot take both
		o1 := pendingOrder(t, order.PriorityNormal, interval(t, 0, time.Hour))
		o2 := pendingOrder(t, order.PriorityNormal, interval(t, 0, time.Hour))

		result, err := engine.BatchAssign(ctx, []*order.Order{o1, o2}, allCandidates(d1, d2), true)

		require.NoError(t, err)
		require.Len(t, result.Assignments, 2)
		assert.Empty(t, result.Unassigned)
		assert.False(t, result.Assignments[0].DriverID.IsEqual(result.Assignments[1].DriverID))
	})

	t.Run("higher priority orders are placed first", func(t *testing.T) {
		book := services.NewScheduleBook()
		engine := services.NewAssignmentEngine(book, services.AssignmentConfig{})
		d1 := availableDriver(t, "d1")

		low := pendingOrder(t, order.PriorityLow, interval(t, 0, time.Hour))
		urgent := pendingOrder(t, order.PriorityUrgent, interval(t, 0, time.Hour))

		// only one driver: the urgent order must win the contested slot
		result, err := engine.BatchAssign(ctx, []*order.Order{low, urgent}, allCandidates(d1), true)

		require.NoError(t, err)
		require.Len(t, result.Assignments, 1)
		assert.True(t, result.Assignments[0].OrderID.IsEqual(urgent.ID()))
		require.Len(t, result.Unassigned, 1)
		assert.True(t, result.Unassigned[0].OrderID.IsEqual(low.ID()))
	})

	t.Run("conflicting candidate is skipped for the next one", func(t *testing.T) {
		book := services.NewScheduleBook()
		engine := services.NewAssignmentEngine(book, services.AssignmentConfig{})
		busy, free := availableDriver(t, "busy"), availableDriver(t, "free")

		require.NoError(t, book.Reserve(busy.ID(), kernel.NewUUID(), interval(t, 0, 2*time.Hour)))

		o := pendingOrder(t, order.PriorityNormal, interval(t, 0, time.Hour))
		result, err := engine.BatchAssign(ctx, []*order.Order{o}, allCandidates(busy, free), true)

		require.NoError(t, err)
		require.Len(t, result.Assignments, 1)
		assert.True(t, result.Assignments[0].DriverID.IsEqual(free.ID()))
	})

	t.Run("non-dispatchable drivers are never considered", func(t *testing.T) {
		book := services.NewScheduleBook()
		engine := services.NewAssignmentEngine(book, services.AssignmentConfig{})
		offline := availableDriver(t, "offline")
		require.NoError(t, offline.GoOffline())

		o := pendingOrder(t, order.PriorityNormal, interval(t, 0, time.Hour))
		result, err := engine.BatchAssign(ctx, []*order.Order{o}, allCandidates(offline), true)

		require.NoError(t, err)
		assert.Empty(t, result.Assignments)
		require.Len(t, result.Unassigned, 1)
	})

	t.Run("preview run leaves the ledger untouched", func(t *testing.T) {
		book := services.NewScheduleBook()
		engine := services.NewAssignmentEngine(book, services.AssignmentConfig{})
		d1 := availableDriver(t, "d1")

		o1 := pendingOrder(t, order.PriorityNormal, interval(t, 0, time.Hour))
		o2 := pendingOrder(t, order.PriorityNormal, interval(t, 0, time.Hour))

		result, err := engine.BatchAssign(ctx, []*order.Order{o1, o2}, allCandidates(d1), false)

		require.NoError(t, err)
		// tentative bookings exclude each other even in preview
		assert.Len(t, result.Assignments, 1)
		assert.Len(t, result.Unassigned, 1)
		// but nothing was committed
		assert.Empty(t, book.ReservationsFor(d1.ID()))
	})

	t.Run("stops when context is cancelled", func(t *testing.T) {
		book := services.NewScheduleBook()
		engine := services.NewAssignmentEngine(book, services.AssignmentConfig{})

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		o := pendingOrder(t, order.PriorityNormal, interval(t, 0, time.Hour))
		_, err := engine.BatchAssign(cancelled, []*order.Order{o}, allCandidates(), true)

		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("non-pending orders are reported unassigned", func(t *testing.T) {
		book := services.NewScheduleBook()
		engine := services.NewAssignmentEngine(book, services.AssignmentConfig{})
		d1 := availableDriver(t, "d1")

		o := pendingOrder(t, order.PriorityNormal, interval(t, 0, time.Hour))
		require.NoError(t, o.Assign(kernel.NewUUID()))

		result, err := engine.BatchAssign(ctx, []*order.Order{o}, allCandidates(d1), true)

		require.NoError(t, err)
		assert.Empty(t, result.Assignments)
		require.Len(t, result.Unassigned, 1)
	})
}

func TestAssignmentEngine_UrgentAssign(t *testing.T) {
	ctx := context.Background()

	t.Run("takes nearest driver in the first ring", func(t *testing.T) {
		book := services.NewScheduleBook()
		engine := services.NewAssignmentEngine(book, services.AssignmentConfig{})
		near := availableDriver(t, "near")

		o := pendingOrder(t, order.PriorityUrgent, interval(t, 0, time.Hour))
		rings := 0
		nearest := func(_ kernel.GeoPoint, radius float64) []*driver.Driver {
			rings++
			return []*driver.Driver{near}
		}

		a, err := engine.UrgentAssign(ctx, o, nearest)

		require.NoError(t, err)
		assert.True(t, a.DriverID.IsEqual(near.ID()))
		assert.Equal(t, 1, rings, "must not widen past the first hit")
		assert.Len(t, book.ReservationsFor(near.ID()), 1)
	})

	t.Run("widens the radius until a free driver appears", func(t *testing.T) {
		book := services.NewScheduleBook()
		engine := services.NewAssignmentEngine(book, services.AssignmentConfig{})
		far := availableDriver(t, "far")

		o := pendingOrder(t, order.PriorityUrgent, interval(t, 0, time.Hour))
		var radii []float64
		nearest := func(_ kernel.GeoPoint, radius float64) []*driver.Driver {
			radii = append(radii, radius)
			if radius >= services.DefaultUrgentInitialRadiusMeters+2*services.DefaultUrgentRadiusStepMeters {
				return []*driver.Driver{far}
			}
			return nil
		}

		a, err := engine.UrgentAssign(ctx, o, nearest)

		require.NoError(t, err)
		assert.True(t, a.DriverID.IsEqual(far.ID()))
		assert.Len(t, radii, 3)
	})

	t.Run("configured radii drive the search rings", func(t *testing.T) {
		book := services.NewScheduleBook()
		engine := services.NewAssignmentEngine(book, services.AssignmentConfig{
			UrgentInitialRadiusMeters: 500,
			UrgentRadiusStepMeters:    250,
			UrgentMaxRadiusMeters:     1_000,
		})

		o := pendingOrder(t, order.PriorityUrgent, interval(t, 0, time.Hour))
		var radii []float64
		nearest := func(_ kernel.GeoPoint, radius float64) []*driver.Driver {
			radii = append(radii, radius)
			return nil
		}

		_, err := engine.UrgentAssign(ctx, o, nearest)

		require.ErrorIs(t, err, services.ErrDriverNotFound)
		assert.Equal(t, []float64{500, 750, 1_000}, radii)
	})

	t.Run("exhausting the maximum radius fails", func(t *testing.T) {
		book := services.NewScheduleBook()
		engine := services.NewAssignmentEngine(book, services.AssignmentConfig{})

		o := pendingOrder(t, order.PriorityUrgent, interval(t, 0, time.Hour))
		nearest := func(kernel.GeoPoint, float64) []*driver.Driver { return nil }

		_, err := engine.UrgentAssign(ctx, o, nearest)

		require.ErrorIs(t, err, services.ErrDriverNotFound)
	})

	t.Run("conflicting near driver loses to free farther driver", func(t *testing.T) {
		book := services.NewScheduleBook()
		engine := services.NewAssignmentEngine(book, services.AssignmentConfig{})
		near, far := availableDriver(t, "near"), availableDriver(t, "far")

		require.NoError(t, book.Reserve(near.ID(), kernel.NewUUID(), interval(t, 0, 2*time.Hour)))

		o := pendingOrder(t, order.PriorityUrgent, interval(t, 0, time.Hour))
		nearest := func(_ kernel.GeoPoint, radius float64) []*driver.Driver {
			return []*driver.Driver{near, far}
		}

		a, err := engine.UrgentAssign(ctx, o, nearest)

		require.NoError(t, err)
		assert.True(t, a.DriverID.IsEqual(far.ID()))
	})

	t.Run("rejects non-pending order", func(t *testing.T) {
		book := services.NewScheduleBook()
		engine := services.NewAssignmentEngine(book, services.AssignmentConfig{})

		o := pendingOrder(t, order.PriorityUrgent, interval(t, 0, time.Hour))
		require.NoError(t, o.Assign(kernel.NewUUID()))

		_, err := engine.UrgentAssign(ctx, o, func(kernel.GeoPoint, float64) []*driver.Driver { return nil })

		require.ErrorIs(t, err, order.ErrTransitionNotAllowed)
	})
}
