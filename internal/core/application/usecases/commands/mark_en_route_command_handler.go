package commands

import (
	"context"
)

// MarkEnRouteCommandHandler moves an assigned order to EnRoutePickup.
type MarkEnRouteCommandHandler struct {
	uowFactory OrderUoWFactory
}

// NewMarkEnRouteCommandHandler creates a handler for en-route reports.
func NewMarkEnRouteCommandHandler(uowFactory OrderUoWFactory) MarkEnRouteCommandHandler {
	return MarkEnRouteCommandHandler{uowFactory: uowFactory}
}

// Handle processes the en-route report.
func (h MarkEnRouteCommandHandler) Handle(ctx context.Context, cmd MarkEnRouteCommand) error {
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

	if err = orderAggregate.MarkEnRoute(); err != nil {
		return err
	}

	if err = uow.OrderRepository().Update(ctx, orderAggregate); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
