package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/services"
)

// CancelOrderCommandHandler abandons an order from any non-terminal state.
// The scheduling reservation is released and the order's driver, if any,
// becomes available again.
type CancelOrderCommandHandler struct {
	uowFactory UoWFactory
	book       *services.ScheduleBook
	now        func() time.Time
}

// NewCancelOrderCommandHandler creates a handler for cancellations.
func NewCancelOrderCommandHandler(uowFactory UoWFactory, book *services.ScheduleBook) CancelOrderCommandHandler {
	return CancelOrderCommandHandler{
		uowFactory: uowFactory,
		book:       book,
		now:        time.Now,
	}
}

// Handle processes the cancellation. Cancelling a terminal order returns
// order.ErrTransitionNotAllowed; nothing is released in that case.
func (h CancelOrderCommandHandler) Handle(ctx context.Context, cmd CancelOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderAggregate, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	// the cancelled order's driver becomes available again, whatever
	// lifecycle stage the trip was in
	var driverAggregate *driver.Driver
	if orderAggregate.DriverID() != nil {
		driverAggregate, err = uow.DriverRepository().Get(ctx, *orderAggregate.DriverID())
		if err != nil {
			return err
		}
	}

	if err = orderAggregate.Cancel(cmd.Reason(), h.now()); err != nil {
		return err
	}

	if driverAggregate != nil && driverAggregate.Status() == driver.StatusBusy {
		if err = driverAggregate.MarkAvailable(); err != nil {
			return err
		}
		if err = uow.DriverRepository().Update(ctx, driverAggregate); err != nil {
			return err
		}
	}

	if err = uow.OrderRepository().Update(ctx, orderAggregate); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.book.Release(cmd.OrderID())
	return nil
}
