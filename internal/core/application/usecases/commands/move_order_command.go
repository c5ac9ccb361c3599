package commands

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrMoveOrderCommandIsNotConstructed = errors.New(
	"MoveOrderCommand must be created via NewMoveOrderCommand constructor",
)

// MoveOrderCommand represents a request to reschedule an order: a new time
// window and optionally a different driver.
type MoveOrderCommand struct { //nolint:recvcheck //using for validation
	orderID     kernel.UUID
	newInterval kernel.TimeInterval
	newDriverID *kernel.UUID

	guard guard.ConstructorGuard
}

// NewMoveOrderCommand creates a validated move command. newDriverID nil
// keeps the current driver.
func NewMoveOrderCommand(orderID kernel.UUID, start, end time.Time, newDriverID *kernel.UUID) (MoveOrderCommand, error) {
	cmd := MoveOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	interval, intervalErr := kernel.NewTimeInterval(start, end)

	if err := errors.Join(
		cmd.setOrderID(orderID),
		intervalErr,
	); err != nil {
		return MoveOrderCommand{}, err
	}

	if newDriverID != nil {
		if err := newDriverID.Validate(); err != nil {
			return MoveOrderCommand{}, err
		}
		id := *newDriverID
		cmd.newDriverID = &id
	}

	cmd.newInterval = interval
	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c MoveOrderCommand) Validate() error {
	return c.guard.Validate(ErrMoveOrderCommandIsNotConstructed)
}

// OrderID returns the order to move.
func (c MoveOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// NewInterval returns the requested time window.
func (c MoveOrderCommand) NewInterval() kernel.TimeInterval {
	return c.newInterval
}

// NewDriverID returns the requested driver, or nil to keep the current one.
func (c MoveOrderCommand) NewDriverID() *kernel.UUID {
	return c.newDriverID
}

func (c *MoveOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}
