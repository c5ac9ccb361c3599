package commands

import (
	"context"
	"errors"
	"time"
)

// ErrOrderHasNoDriver is returned when a lifecycle command needs the
// assigned driver but the order has none.
var ErrOrderHasNoDriver = errors.New("order has no assigned driver")

// StartTripCommandHandler moves an arrived order to InProgress and marks
// the driver busy, in one transaction.
type StartTripCommandHandler struct {
	uowFactory UoWFactory
	now        func() time.Time
}

// NewStartTripCommandHandler creates a handler for trip starts.
func NewStartTripCommandHandler(uowFactory UoWFactory) StartTripCommandHandler {
	return StartTripCommandHandler{
		uowFactory: uowFactory,
		now:        time.Now,
	}
}

// Handle processes the trip start.
func (h StartTripCommandHandler) Handle(ctx context.Context, cmd StartTripCommand) error {
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

	if err = orderAggregate.Start(h.now()); err != nil {
		return err
	}
	if err = driverAggregate.MarkBusy(); err != nil {
		return err
	}

	if err = uow.OrderRepository().Update(ctx, orderAggregate); err != nil {
		return err
	}
	if err = uow.DriverRepository().Update(ctx, driverAggregate); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
