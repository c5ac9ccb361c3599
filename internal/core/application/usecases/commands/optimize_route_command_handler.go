package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/services"
	"dispatch/internal/geo"
)

// OptimizeRouteCommandHandler sequences a driver's active pickups from
// their current position. The route is advisory; it changes no state.
type OptimizeRouteCommandHandler struct {
	uowFactory UoWFactory
	sequencer  *services.RouteSequencer
	index      *geo.Index
	now        func() time.Time
}

// NewOptimizeRouteCommandHandler creates a handler for route sequencing.
func NewOptimizeRouteCommandHandler(
	uowFactory UoWFactory,
	sequencer *services.RouteSequencer,
	index *geo.Index,
) OptimizeRouteCommandHandler {
	return OptimizeRouteCommandHandler{
		uowFactory: uowFactory,
		sequencer:  sequencer,
		index:      index,
		now:        time.Now,
	}
}

// Handle computes the visiting order for the driver's active orders.
func (h OptimizeRouteCommandHandler) Handle(ctx context.Context, cmd OptimizeRouteCommand) ([]services.SequencedStop, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	driverAggregate, err := uow.DriverRepository().Get(ctx, cmd.DriverID())
	if err != nil {
		return nil, err
	}

	activeOrders, err := uow.OrderRepository().GetActiveByDriver(ctx, cmd.DriverID())
	if err != nil {
		return nil, err
	}
	if len(activeOrders) == 0 {
		return []services.SequencedStop{}, nil
	}

	// start from the live position, then the persisted last-known one,
	// then the earliest pickup when the driver never reported at all
	start, _, ok := h.index.Position(cmd.DriverID())
	if !ok {
		if lastKnown := driverAggregate.LastPosition(); lastKnown != nil {
			start = *lastKnown
		} else {
			start = activeOrders[0].Pickup()
		}
	}

	return h.sequencer.Sequence(ctx, start, activeOrders)
}
