package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrOptimizeRouteCommandIsNotConstructed = errors.New(
	"OptimizeRouteCommand must be created via NewOptimizeRouteCommand constructor",
)

// OptimizeRouteCommand requests a visiting order for a driver's active
// pickups starting from the driver's current position.
type OptimizeRouteCommand struct { //nolint:recvcheck //using for validation
	driverID kernel.UUID

	guard guard.ConstructorGuard
}

// NewOptimizeRouteCommand creates a validated route optimization command.
func NewOptimizeRouteCommand(driverID kernel.UUID) (OptimizeRouteCommand, error) {
	cmd := OptimizeRouteCommand{
		guard: guard.NewConstructorGuard(),
	}
	if err := driverID.Validate(); err != nil {
		return OptimizeRouteCommand{}, err
	}
	cmd.driverID = driverID
	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c OptimizeRouteCommand) Validate() error {
	return c.guard.Validate(ErrOptimizeRouteCommandIsNotConstructed)
}

// DriverID returns the driver whose route is sequenced.
func (c OptimizeRouteCommand) DriverID() kernel.UUID {
	return c.driverID
}
