package commands_test

import (
	"testing"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCancelOrderCommandHandler_Handle(t *testing.T) {
	t.Run("cancels pending order", func(t *testing.T) {
		book := services.NewScheduleBook()
		o := makePendingOrder(t, order.PriorityNormal, testInterval(t, 0, time.Hour))

		orderRepo, driverRepo := &MockOrderRepository{}, &MockDriverRepository{}
		_, factory := newUoW(orderRepo, driverRepo)
		orderRepo.On("Get", mock.Anything, o.ID()).Return(o, nil)
		orderRepo.On("Update", mock.Anything, o).Return(nil)

		cmd, err := commands.NewCancelOrderCommand(o.ID(), "customer request")
		require.NoError(t, err)

		handler := commands.NewCancelOrderCommandHandler(factory, book)
		require.NoError(t, handler.Handle(t.Context(), cmd))

		assert.Equal(t, order.Cancelled, o.Status())
		assert.Equal(t, "customer request", o.CancelReason())
		require.NotNil(t, o.CancelledAt())
	})

	t.Run("cancelling in-progress trip frees the busy driver and the slot", func(t *testing.T) {
		book := services.NewScheduleBook()
		d := makeDriver(t, "Anna")
		o := inProgressOrder(t, book, d)

		orderRepo, driverRepo := &MockOrderRepository{}, &MockDriverRepository{}
		_, factory := newUoW(orderRepo, driverRepo)
		orderRepo.On("Get", mock.Anything, o.ID()).Return(o, nil)
		orderRepo.On("Update", mock.Anything, o).Return(nil)
		driverRepo.On("Get", mock.Anything, d.ID()).Return(d, nil)
		driverRepo.On("Update", mock.Anything, d).Return(nil)

		cmd, err := commands.NewCancelOrderCommand(o.ID(), "vehicle breakdown")
		require.NoError(t, err)

		handler := commands.NewCancelOrderCommandHandler(factory, book)
		require.NoError(t, handler.Handle(t.Context(), cmd))

		assert.Equal(t, order.Cancelled, o.Status())
		assert.Equal(t, driver.StatusAvailable, d.Status())
		assert.Empty(t, book.ReservationsFor(d.ID()))
	})

	t.Run("cancelling an assigned order frees its driver", func(t *testing.T) {
		book := services.NewScheduleBook()
		d := makeDriver(t, "Anna")

		o := makePendingOrder(t, order.PriorityNormal, testInterval(t, 0, time.Hour))
		require.NoError(t, book.Reserve(d.ID(), o.ID(), o.Interval()))
		require.NoError(t, o.Assign(d.ID()))
		require.NoError(t, d.MarkBusy())

		orderRepo, driverRepo := &MockOrderRepository{}, &MockDriverRepository{}
		_, factory := newUoW(orderRepo, driverRepo)
		orderRepo.On("Get", mock.Anything, o.ID()).Return(o, nil)
		orderRepo.On("Update", mock.Anything, o).Return(nil)
		driverRepo.On("Get", mock.Anything, d.ID()).Return(d, nil)
		driverRepo.On("Update", mock.Anything, d).Return(nil)

		cmd, err := commands.NewCancelOrderCommand(o.ID(), "no longer needed")
		require.NoError(t, err)

		handler := commands.NewCancelOrderCommandHandler(factory, book)
		require.NoError(t, handler.Handle(t.Context(), cmd))

		assert.Equal(t, order.Cancelled, o.Status())
		assert.Equal(t, driver.StatusAvailable, d.Status(), "the order's driver is freed")
		assert.Empty(t, book.ReservationsFor(d.ID()))
		driverRepo.AssertCalled(t, "Update", mock.Anything, d)
	})

	t.Run("rejects cancelling a terminal order", func(t *testing.T) {
		book := services.NewScheduleBook()
		o := makePendingOrder(t, order.PriorityNormal, testInterval(t, 0, time.Hour))
		require.NoError(t, o.Cancel("first", testWindowStart))

		orderRepo, driverRepo := &MockOrderRepository{}, &MockDriverRepository{}
		_, factory := newUoW(orderRepo, driverRepo)
		orderRepo.On("Get", mock.Anything, o.ID()).Return(o, nil)

		cmd, err := commands.NewCancelOrderCommand(o.ID(), "second")
		require.NoError(t, err)

		handler := commands.NewCancelOrderCommandHandler(factory, book)
		err = handler.Handle(t.Context(), cmd)

		require.ErrorIs(t, err, order.ErrTransitionNotAllowed)
	})

	t.Run("requires a reason at construction", func(t *testing.T) {
		o := makePendingOrder(t, order.PriorityNormal, testInterval(t, 0, time.Hour))

		_, err := commands.NewCancelOrderCommand(o.ID(), "")

		require.ErrorIs(t, err, commands.ErrReasonIsRequired)
	})
}
