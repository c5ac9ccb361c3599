package commands

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
)

// ErrCannotChangeDriverOfPendingOrder is returned when a move names a new
// driver for an order that has none yet; assignment is a separate command.
var ErrCannotChangeDriverOfPendingOrder = errors.New(
	"cannot change driver of a pending order, assign it first",
)

// MoveOrderCommandHandler reschedules an order.
//
// For assigned orders the ledger move is atomic: a conflict on the target
// slot leaves the original reservation untouched and the order unchanged.
// Pending orders hold no reservation, so only the aggregate changes.
type MoveOrderCommandHandler struct {
	uowFactory UoWFactory
	book       *services.ScheduleBook
}

// NewMoveOrderCommandHandler creates a handler for order moves.
func NewMoveOrderCommandHandler(uowFactory UoWFactory, book *services.ScheduleBook) MoveOrderCommandHandler {
	return MoveOrderCommandHandler{
		uowFactory: uowFactory,
		book:       book,
	}
}

// Handle processes the move command. Returns order.ErrOrderIsTerminal for
// finished orders and services.SchedulingConflictError when the target
// slot is taken.
func (h MoveOrderCommandHandler) Handle(ctx context.Context, cmd MoveOrderCommand) error {
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
	if orderAggregate.Status().IsTerminal() {
		return order.ErrOrderIsTerminal
	}

	if orderAggregate.DriverID() == nil {
		if cmd.NewDriverID() != nil {
			return ErrCannotChangeDriverOfPendingOrder
		}
		// no reservation to move for a pending order
		if err = orderAggregate.Reschedule(cmd.NewInterval(), nil); err != nil {
			return err
		}
		if err = uow.OrderRepository().Update(ctx, orderAggregate); err != nil {
			return err
		}
		return uow.Commit(ctx)
	}

	targetDriverID := *orderAggregate.DriverID()
	if cmd.NewDriverID() != nil {
		target, driverErr := uow.DriverRepository().Get(ctx, *cmd.NewDriverID())
		if driverErr != nil {
			return driverErr
		}
		if !target.IsActive() {
			return ErrDriverNotDispatchable
		}
		targetDriverID = *cmd.NewDriverID()
	}

	previousDriverID := *orderAggregate.DriverID()
	previousInterval := orderAggregate.Interval()

	if err = h.book.Move(cmd.OrderID(), targetDriverID, cmd.NewInterval()); err != nil {
		return err
	}

	restore := func() {
		_ = h.book.Move(cmd.OrderID(), previousDriverID, previousInterval)
	}

	if err = orderAggregate.Reschedule(cmd.NewInterval(), cmd.NewDriverID()); err != nil {
		restore()
		return err
	}

	if err = uow.OrderRepository().Update(ctx, orderAggregate); err != nil {
		restore()
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		restore()
		return err
	}

	return nil
}
