package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrMarkEnRouteCommandIsNotConstructed = errors.New(
	"MarkEnRouteCommand must be created via NewMarkEnRouteCommand constructor",
)

// MarkEnRouteCommand reports that the driver started driving to the pickup.
type MarkEnRouteCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

// NewMarkEnRouteCommand creates a validated command.
func NewMarkEnRouteCommand(orderID kernel.UUID) (MarkEnRouteCommand, error) {
	cmd := MarkEnRouteCommand{
		guard: guard.NewConstructorGuard(),
	}
	if err := orderID.Validate(); err != nil {
		return MarkEnRouteCommand{}, err
	}
	cmd.orderID = orderID
	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c MarkEnRouteCommand) Validate() error {
	return c.guard.Validate(ErrMarkEnRouteCommandIsNotConstructed)
}

// OrderID returns the order the driver is heading to.
func (c MarkEnRouteCommand) OrderID() kernel.UUID {
	return c.orderID
}
