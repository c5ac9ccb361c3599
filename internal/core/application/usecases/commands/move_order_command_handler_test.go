package commands_test

import (
	"testing"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMoveOrderCommandHandler_Handle(t *testing.T) {
	t.Run("moves assigned order to a new window", func(t *testing.T) {
		book := services.NewScheduleBook()
		o := makePendingOrder(t, order.PriorityNormal, testInterval(t, 0, time.Hour))
		d := makeDriver(t, "Anna")
		require.NoError(t, book.Reserve(d.ID(), o.ID(), o.Interval()))
		require.NoError(t, o.Assign(d.ID()))

		orderRepo, driverRepo := &MockOrderRepository{}, &MockDriverRepository{}
		_, factory := newUoW(orderRepo, driverRepo)
		orderRepo.On("Get", mock.Anything, o.ID()).Return(o, nil)
		orderRepo.On("Update", mock.Anything, o).Return(nil)

		cmd, err := commands.NewMoveOrderCommand(o.ID(),
			testWindowStart.Add(2*time.Hour), testWindowStart.Add(3*time.Hour), nil)
		require.NoError(t, err)

		handler := commands.NewMoveOrderCommandHandler(factory, book)
		require.NoError(t, handler.Handle(t.Context(), cmd))

		reservations := book.ReservationsFor(d.ID())
		require.Len(t, reservations, 1)
		assert.True(t, reservations[0].Interval.IsEqual(testInterval(t, 2*time.Hour, 3*time.Hour)))
		assert.True(t, o.Interval().IsEqual(testInterval(t, 2*time.Hour, 3*time.Hour)))
	})

	t.Run("conflicting move leaves original reservation intact", func(t *testing.T) {
		book := services.NewScheduleBook()
		o := makePendingOrder(t, order.PriorityNormal, testInterval(t, 0, time.Hour))
		d := makeDriver(t, "Anna")
		original := o.Interval()
		require.NoError(t, book.Reserve(d.ID(), o.ID(), original))
		require.NoError(t, o.Assign(d.ID()))

		blocker := makePendingOrder(t, order.PriorityNormal, testInterval(t, 2*time.Hour, 3*time.Hour))
		require.NoError(t, book.Reserve(d.ID(), blocker.ID(), blocker.Interval()))

		orderRepo, driverRepo := &MockOrderRepository{}, &MockDriverRepository{}
		_, factory := newUoW(orderRepo, driverRepo)
		orderRepo.On("Get", mock.Anything, o.ID()).Return(o, nil)

		cmd, err := commands.NewMoveOrderCommand(o.ID(),
			testWindowStart.Add(2*time.Hour+30*time.Minute), testWindowStart.Add(3*time.Hour+30*time.Minute), nil)
		require.NoError(t, err)

		handler := commands.NewMoveOrderCommandHandler(factory, book)
		err = handler.Handle(t.Context(), cmd)

		require.ErrorIs(t, err, services.ErrSchedulingConflict)
		assert.True(t, o.Interval().IsEqual(original), "aggregate must be unchanged")
		reservations := book.ReservationsFor(d.ID())
		require.Len(t, reservations, 2)
	})

	t.Run("moves order to a different driver", func(t *testing.T) {
		book := services.NewScheduleBook()
		o := makePendingOrder(t, order.PriorityNormal, testInterval(t, 0, time.Hour))
		from, to := makeDriver(t, "Anna"), makeDriver(t, "Boris")
		require.NoError(t, book.Reserve(from.ID(), o.ID(), o.Interval()))
		require.NoError(t, o.Assign(from.ID()))

		orderRepo, driverRepo := &MockOrderRepository{}, &MockDriverRepository{}
		_, factory := newUoW(orderRepo, driverRepo)
		orderRepo.On("Get", mock.Anything, o.ID()).Return(o, nil)
		orderRepo.On("Update", mock.Anything, o).Return(nil)
		driverRepo.On("Get", mock.Anything, to.ID()).Return(to, nil)

		toID := to.ID()
		cmd, err := commands.NewMoveOrderCommand(o.ID(),
			testWindowStart, testWindowStart.Add(time.Hour), &toID)
		require.NoError(t, err)

		handler := commands.NewMoveOrderCommandHandler(factory, book)
		require.NoError(t, handler.Handle(t.Context(), cmd))

		assert.Empty(t, book.ReservationsFor(from.ID()))
		assert.Len(t, book.ReservationsFor(to.ID()), 1)
		assert.True(t, o.DriverID().IsEqual(to.ID()))
	})

	t.Run("reschedules pending order without touching the ledger", func(t *testing.T) {
		book := services.NewScheduleBook()
		o := makePendingOrder(t, order.PriorityNormal, testInterval(t, 0, time.Hour))

		orderRepo, driverRepo := &MockOrderRepository{}, &MockDriverRepository{}
		_, factory := newUoW(orderRepo, driverRepo)
		orderRepo.On("Get", mock.Anything, o.ID()).Return(o, nil)
		orderRepo.On("Update", mock.Anything, o).Return(nil)

		cmd, err := commands.NewMoveOrderCommand(o.ID(),
			testWindowStart.Add(4*time.Hour), testWindowStart.Add(5*time.Hour), nil)
		require.NoError(t, err)

		handler := commands.NewMoveOrderCommandHandler(factory, book)
		require.NoError(t, handler.Handle(t.Context(), cmd))

		assert.True(t, o.Interval().IsEqual(testInterval(t, 4*time.Hour, 5*time.Hour)))
	})

	t.Run("rejects moving a terminal order", func(t *testing.T) {
		book := services.NewScheduleBook()
		o := makePendingOrder(t, order.PriorityNormal, testInterval(t, 0, time.Hour))
		require.NoError(t, o.Cancel("customer request", testWindowStart))

		orderRepo, driverRepo := &MockOrderRepository{}, &MockDriverRepository{}
		_, factory := newUoW(orderRepo, driverRepo)
		orderRepo.On("Get", mock.Anything, o.ID()).Return(o, nil)

		cmd, err := commands.NewMoveOrderCommand(o.ID(),
			testWindowStart.Add(2*time.Hour), testWindowStart.Add(3*time.Hour), nil)
		require.NoError(t, err)

		handler := commands.NewMoveOrderCommandHandler(factory, book)
		err = handler.Handle(t.Context(), cmd)

		require.ErrorIs(t, err, order.ErrOrderIsTerminal)
	})
}
