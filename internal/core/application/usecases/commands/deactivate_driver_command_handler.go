package commands

import (
	"context"
	"errors"

	"dispatch/internal/geo"
)

// ErrDriverHasActiveOrders is returned when deactivating a driver who
// still holds live assignments; those must be completed, cancelled or
// moved first.
var ErrDriverHasActiveOrders = errors.New("driver has active orders")

// DeactivateDriverCommandHandler soft-deletes a driver. The driver's
// history survives, but they leave the geospatial index and stop being
// considered for assignment.
type DeactivateDriverCommandHandler struct {
	uowFactory UoWFactory
	index      *geo.Index
}

// NewDeactivateDriverCommandHandler creates a handler for deactivations.
func NewDeactivateDriverCommandHandler(uowFactory UoWFactory, index *geo.Index) DeactivateDriverCommandHandler {
	return DeactivateDriverCommandHandler{
		uowFactory: uowFactory,
		index:      index,
	}
}

// Handle processes the deactivation command.
func (h DeactivateDriverCommandHandler) Handle(ctx context.Context, cmd DeactivateDriverCommand) error {
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

	driverAggregate, err := uow.DriverRepository().Get(ctx, cmd.DriverID())
	if err != nil {
		return err
	}

	activeOrders, err := uow.OrderRepository().GetActiveByDriver(ctx, cmd.DriverID())
	if err != nil {
		return err
	}
	if len(activeOrders) > 0 {
		return ErrDriverHasActiveOrders
	}

	// the index entry is about to be removed; pin its last fix on the
	// aggregate so the position survives the deactivation
	if pos, seenAt, ok := h.index.Position(cmd.DriverID()); ok {
		if err = driverAggregate.UpdatePosition(pos, seenAt); err != nil {
			return err
		}
	}

	driverAggregate.Deactivate()

	if err = uow.DriverRepository().Update(ctx, driverAggregate); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.index.Remove(cmd.DriverID())
	return nil
}
