package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrMarkArrivedCommandIsNotConstructed = errors.New(
	"MarkArrivedCommand must be created via NewMarkArrivedCommand constructor",
)

// MarkArrivedCommand reports that the driver reached the pickup point.
type MarkArrivedCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

// NewMarkArrivedCommand creates a validated command.
func NewMarkArrivedCommand(orderID kernel.UUID) (MarkArrivedCommand, error) {
	cmd := MarkArrivedCommand{
		guard: guard.NewConstructorGuard(),
	}
	if err := orderID.Validate(); err != nil {
		return MarkArrivedCommand{}, err
	}
	cmd.orderID = orderID
	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c MarkArrivedCommand) Validate() error {
	return c.guard.Validate(ErrMarkArrivedCommandIsNotConstructed)
}

// OrderID returns the order whose pickup was reached.
func (c MarkArrivedCommand) OrderID() kernel.UUID {
	return c.orderID
}
