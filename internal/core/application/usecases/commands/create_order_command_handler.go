package commands

import (
	"context"
	"log/slog"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
)

// CreateOrderCommandHandler handles order registration. The new order
// starts Pending; a route estimate is attached when the routing service
// answers in time, and skipped otherwise. Order creation must not depend
// on the routing service being up.
type CreateOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	routing    ports.RoutingClient
	logger     *slog.Logger
}

// NewCreateOrderCommandHandler creates a handler for order creation.
// routing may be nil; orders are then created without estimates.
func NewCreateOrderCommandHandler(
	uowFactory OrderUoWFactory,
	routing ports.RoutingClient,
	logger *slog.Logger,
) CreateOrderCommandHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		routing:    routing,
		logger:     logger.With("component", "create_order"),
	}
}

// Handle processes the order creation command.
func (h CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	newOrder, err := order.NewOrder(
		cmd.OrderID(),
		cmd.Pickup(), cmd.Dropoff(),
		cmd.PickupAddress(), cmd.DropoffAddress(),
		cmd.Interval(),
		cmd.Priority(),
	)
	if err != nil {
		return err
	}

	if h.routing != nil {
		if leg, routeErr := h.routing.Route(ctx, cmd.Pickup(), cmd.Dropoff()); routeErr == nil {
			newOrder.SetRouteEstimate(order.RouteEstimate{
				DistanceMeters: leg.DistanceMeters,
				Duration:       leg.Duration,
				PriceCents:     order.EstimatePrice(leg.DistanceMeters, leg.Duration),
				Geometry:       leg.Polyline,
			})
		} else {
			h.logger.Warn("route estimate unavailable",
				"order_id", cmd.OrderID().String(),
				"error", routeErr)
		}
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.OrderRepository().Add(ctx, newOrder); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
