package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrDeactivateDriverCommandIsNotConstructed = errors.New(
	"DeactivateDriverCommand must be created via NewDeactivateDriverCommand constructor",
)

// DeactivateDriverCommand represents a request to soft-delete a driver.
type DeactivateDriverCommand struct { //nolint:recvcheck //using for validation
	driverID kernel.UUID

	guard guard.ConstructorGuard
}

// NewDeactivateDriverCommand creates a validated deactivation command.
func NewDeactivateDriverCommand(driverID kernel.UUID) (DeactivateDriverCommand, error) {
	cmd := DeactivateDriverCommand{
		guard: guard.NewConstructorGuard(),
	}
	if err := driverID.Validate(); err != nil {
		return DeactivateDriverCommand{}, err
	}
	cmd.driverID = driverID
	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c DeactivateDriverCommand) Validate() error {
	return c.guard.Validate(ErrDeactivateDriverCommandIsNotConstructed)
}

// DriverID returns the driver to deactivate.
func (c DeactivateDriverCommand) DriverID() kernel.UUID {
	return c.driverID
}
