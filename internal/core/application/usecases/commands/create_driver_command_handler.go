package commands

import (
	"context"

	"dispatch/internal/core/domain/model/driver"
)

// CreateDriverCommandHandler registers a new driver in the Available state.
type CreateDriverCommandHandler struct {
	uowFactory DriverUoWFactory
}

// NewCreateDriverCommandHandler creates a handler for driver registration.
func NewCreateDriverCommandHandler(uowFactory DriverUoWFactory) CreateDriverCommandHandler {
	return CreateDriverCommandHandler{uowFactory: uowFactory}
}

// Handle processes the registration command.
func (h CreateDriverCommandHandler) Handle(ctx context.Context, cmd CreateDriverCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	newDriver, err := driver.NewDriver(cmd.DriverID(), cmd.Name())
	if err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.DriverRepository().Add(ctx, newDriver); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
