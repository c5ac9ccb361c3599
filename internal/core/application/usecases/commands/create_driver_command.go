package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var (
	ErrCreateDriverCommandIsNotConstructed = errors.New(
		"CreateDriverCommand must be created via NewCreateDriverCommand constructor",
	)
	ErrDriverNameIsRequired = errors.New("driver name is required")
)

// CreateDriverCommand represents a request to register a new driver.
type CreateDriverCommand struct { //nolint:recvcheck //using for validation
	driverID kernel.UUID
	name     string

	guard guard.ConstructorGuard
}

// NewCreateDriverCommand creates a validated driver registration command.
func NewCreateDriverCommand(driverID kernel.UUID, name string) (CreateDriverCommand, error) {
	cmd := CreateDriverCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setDriverID(driverID),
		cmd.setName(name),
	); err != nil {
		return CreateDriverCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateDriverCommand) Validate() error {
	return c.guard.Validate(ErrCreateDriverCommandIsNotConstructed)
}

// DriverID returns the new driver's identifier.
func (c CreateDriverCommand) DriverID() kernel.UUID {
	return c.driverID
}

// Name returns the new driver's display name.
func (c CreateDriverCommand) Name() string {
	return c.name
}

func (c *CreateDriverCommand) setDriverID(driverID kernel.UUID) error {
	if err := driverID.Validate(); err != nil {
		return err
	}
	c.driverID = driverID
	return nil
}

func (c *CreateDriverCommand) setName(name string) error {
	if name == "" {
		return ErrDriverNameIsRequired
	}
	c.name = name
	return nil
}
