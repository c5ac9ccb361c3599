package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/services"
)

// CompleteOrderCommandHandler finishes a delivery: the order becomes
// Completed with its end time stamped, the driver becomes available again
// and the scheduling reservation is released.
type CompleteOrderCommandHandler struct {
	uowFactory UoWFactory
	book       *services.ScheduleBook
	now        func() time.Time
}

// NewCompleteOrderCommandHandler creates a handler for completions.
func NewCompleteOrderCommandHandler(uowFactory UoWFactory, book *services.ScheduleBook) CompleteOrderCommandHandler {
	return CompleteOrderCommandHandler{
		uowFactory: uowFactory,
		book:       book,
		now:        time.Now,
	}
}

// Handle processes the completion. The reservation is released only after
// the transaction commits; a failed commit keeps the slot booked.
func (h CompleteOrderCommandHandler) Handle(ctx context.Context, cmd CompleteOrderCommand) error {
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
	if orderAggregate.DriverID() == nil {
		return ErrOrderHasNoDriver
	}

	driverAggregate, err := uow.DriverRepository().Get(ctx, *orderAggregate.DriverID())
	if err != nil {
		return err
	}

	if err = orderAggregate.Complete(h.now()); err != nil {
		return err
	}
	if err = driverAggregate.MarkAvailable(); err != nil {
		return err
	}

	if err = uow.OrderRepository().Update(ctx, orderAggregate); err != nil {
		return err
	}
	if err = uow.DriverRepository().Update(ctx, driverAggregate); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.book.Release(cmd.OrderID())
	return nil
}
