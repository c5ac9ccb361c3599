package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrStartTripCommandIsNotConstructed = errors.New(
	"StartTripCommand must be created via NewStartTripCommand constructor",
)

// StartTripCommand reports that the delivery trip started at the pickup.
type StartTripCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

// NewStartTripCommand creates a validated command.
func NewStartTripCommand(orderID kernel.UUID) (StartTripCommand, error) {
	cmd := StartTripCommand{
		guard: guard.NewConstructorGuard(),
	}
	if err := orderID.Validate(); err != nil {
		return StartTripCommand{}, err
	}
	cmd.orderID = orderID
	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c StartTripCommand) Validate() error {
	return c.guard.Validate(ErrStartTripCommandIsNotConstructed)
}

// OrderID returns the order whose trip starts.
func (c StartTripCommand) OrderID() kernel.UUID {
	return c.orderID
}
