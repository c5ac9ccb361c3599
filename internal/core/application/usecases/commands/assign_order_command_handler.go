package commands

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/services"
)

// ErrDriverNotDispatchable is returned when the target driver is offline,
// busy with status changes disabled, or deactivated.
var ErrDriverNotDispatchable = errors.New("driver is not dispatchable")

// AssignOrderCommandHandler assigns one order to one driver.
//
// The scheduling ledger is the gatekeeper: the reservation is taken before
// the aggregates change, and released again if persistence fails, so the
// ledger and the database never disagree for long.
type AssignOrderCommandHandler struct {
	uowFactory UoWFactory
	book       *services.ScheduleBook
}

// NewAssignOrderCommandHandler creates a handler for manual assignment.
func NewAssignOrderCommandHandler(uowFactory UoWFactory, book *services.ScheduleBook) AssignOrderCommandHandler {
	return AssignOrderCommandHandler{
		uowFactory: uowFactory,
		book:       book,
	}
}

// Handle processes the assignment command. Returns a
// services.SchedulingConflictError when the driver's schedule is taken for
// the order's window.
func (h AssignOrderCommandHandler) Handle(ctx context.Context, cmd AssignOrderCommand) error {
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

	driverAggregate, err := uow.DriverRepository().Get(ctx, cmd.DriverID())
	if err != nil {
		return err
	}
	if !driverAggregate.IsDispatchable() {
		return ErrDriverNotDispatchable
	}

	if err = h.book.Reserve(cmd.DriverID(), cmd.OrderID(), orderAggregate.Interval()); err != nil {
		return err
	}

	if err = orderAggregate.Assign(cmd.DriverID()); err != nil {
		h.book.Release(cmd.OrderID())
		return err
	}
	if err = driverAggregate.MarkBusy(); err != nil {
		h.book.Release(cmd.OrderID())
		return err
	}

	if err = uow.OrderRepository().Update(ctx, orderAggregate); err != nil {
		h.book.Release(cmd.OrderID())
		return err
	}
	if err = uow.DriverRepository().Update(ctx, driverAggregate); err != nil {
		h.book.Release(cmd.OrderID())
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		h.book.Release(cmd.OrderID())
		return err
	}

	return nil
}
