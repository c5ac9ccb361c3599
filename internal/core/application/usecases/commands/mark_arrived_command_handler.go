package commands

import (
	"context"
	"time"
)

// MarkArrivedCommandHandler moves an en-route order to DriverArrived and
// stamps the arrival time.
type MarkArrivedCommandHandler struct {
	uowFactory OrderUoWFactory
	now        func() time.Time
}

// NewMarkArrivedCommandHandler creates a handler for arrival reports.
func NewMarkArrivedCommandHandler(uowFactory OrderUoWFactory) MarkArrivedCommandHandler {
	return MarkArrivedCommandHandler{
		uowFactory: uowFactory,
		now:        time.Now,
	}
}

// Handle processes the arrival report.
func (h MarkArrivedCommandHandler) Handle(ctx context.Context, cmd MarkArrivedCommand) error {
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

	if err = orderAggregate.MarkArrived(h.now()); err != nil {
		return err
	}

	if err = uow.OrderRepository().Update(ctx, orderAggregate); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
