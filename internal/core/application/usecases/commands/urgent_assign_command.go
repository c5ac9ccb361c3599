package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrUrgentAssignCommandIsNotConstructed = errors.New(
	"UrgentAssignCommand must be created via NewUrgentAssignCommand constructor",
)

// UrgentAssignCommand requests the nearest-driver fast path for one order,
// bypassing the next batch run.
type UrgentAssignCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

// NewUrgentAssignCommand creates a validated urgent assignment command.
func NewUrgentAssignCommand(orderID kernel.UUID) (UrgentAssignCommand, error) {
	cmd := UrgentAssignCommand{
		guard: guard.NewConstructorGuard(),
	}
	if err := orderID.Validate(); err != nil {
		return UrgentAssignCommand{}, err
	}
	cmd.orderID = orderID
	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c UrgentAssignCommand) Validate() error {
	return c.guard.Validate(ErrUrgentAssignCommandIsNotConstructed)
}

// OrderID returns the order to fast-path.
func (c UrgentAssignCommand) OrderID() kernel.UUID {
	return c.orderID
}
