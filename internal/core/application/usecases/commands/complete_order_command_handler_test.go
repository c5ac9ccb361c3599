package commands_test

import (
	"errors"
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

func inProgressOrder(t *testing.T, book *services.ScheduleBook, d *driver.Driver) *order.Order {
	t.Helper()

	o := makePendingOrder(t, order.PriorityNormal, testInterval(t, 0, time.Hour))
	require.NoError(t, book.Reserve(d.ID(), o.ID(), o.Interval()))
	require.NoError(t, o.Assign(d.ID()))
	require.NoError(t, o.MarkEnRoute())
	require.NoError(t, o.MarkArrived(testWindowStart))
	require.NoError(t, o.Start(testWindowStart.Add(5*time.Minute)))
	require.NoError(t, d.MarkBusy())
	return o
}

func TestCompleteOrderCommandHandler_Handle(t *testing.T) {
	t.Run("completes order, frees driver and releases slot", func(t *testing.T) {
		book := services.NewScheduleBook()
		d := makeDriver(t, "Anna")
		o := inProgressOrder(t, book, d)

		orderRepo, driverRepo := &MockOrderRepository{}, &MockDriverRepository{}
		uow, factory := newUoW(orderRepo, driverRepo)
		orderRepo.On("Get", mock.Anything, o.ID()).Return(o, nil)
		orderRepo.On("Update", mock.Anything, o).Return(nil)
		driverRepo.On("Get", mock.Anything, d.ID()).Return(d, nil)
		driverRepo.On("Update", mock.Anything, d).Return(nil)

		cmd, err := commands.NewCompleteOrderCommand(o.ID())
		require.NoError(t, err)

		handler := commands.NewCompleteOrderCommandHandler(factory, book)
		require.NoError(t, handler.Handle(t.Context(), cmd))

		assert.Equal(t, order.Completed, o.Status())
		require.NotNil(t, o.EndTime())
		assert.Equal(t, driver.StatusAvailable, d.Status())
		assert.Empty(t, book.ReservationsFor(d.ID()))
		uow.AssertCalled(t, "Commit", mock.Anything)
	})

	t.Run("cannot complete an order that has not started", func(t *testing.T) {
		book := services.NewScheduleBook()
		d := makeDriver(t, "Anna")
		o := makePendingOrder(t, order.PriorityNormal, testInterval(t, 0, time.Hour))
		require.NoError(t, book.Reserve(d.ID(), o.ID(), o.Interval()))
		require.NoError(t, o.Assign(d.ID()))

		orderRepo, driverRepo := &MockOrderRepository{}, &MockDriverRepository{}
		_, factory := newUoW(orderRepo, driverRepo)
		orderRepo.On("Get", mock.Anything, o.ID()).Return(o, nil)
		driverRepo.On("Get", mock.Anything, d.ID()).Return(d, nil)

		cmd, err := commands.NewCompleteOrderCommand(o.ID())
		require.NoError(t, err)

		handler := commands.NewCompleteOrderCommandHandler(factory, book)
		err = handler.Handle(t.Context(), cmd)

		require.ErrorIs(t, err, order.ErrTransitionNotAllowed)
		assert.Len(t, book.ReservationsFor(d.ID()), 1, "slot stays booked")
	})

	t.Run("failed commit keeps the reservation", func(t *testing.T) {
		book := services.NewScheduleBook()
		d := makeDriver(t, "Anna")
		o := inProgressOrder(t, book, d)

		orderRepo, driverRepo := &MockOrderRepository{}, &MockDriverRepository{}
		uow := &MockUoW{}
		uow.On("Begin", mock.Anything).Return(nil)
		uow.On("Commit", mock.Anything).Return(errors.New("commit failed"))
		uow.On("Rollback", mock.Anything).Return(nil)
		uow.On("OrderRepository").Return(orderRepo)
		uow.On("DriverRepository").Return(driverRepo)
		factory := &MockUoWFactory{}
		factory.On("Create").Return(uow)

		orderRepo.On("Get", mock.Anything, o.ID()).Return(o, nil)
		orderRepo.On("Update", mock.Anything, o).Return(nil)
		driverRepo.On("Get", mock.Anything, d.ID()).Return(d, nil)
		driverRepo.On("Update", mock.Anything, d).Return(nil)

		cmd, err := commands.NewCompleteOrderCommand(o.ID())
		require.NoError(t, err)

		handler := commands.NewCompleteOrderCommandHandler(factory, book)
		err = handler.Handle(t.Context(), cmd)

		require.Error(t, err)
		assert.Len(t, book.ReservationsFor(d.ID()), 1)
	})
}
