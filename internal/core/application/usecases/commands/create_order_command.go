package commands

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/guard"
)

var (
	ErrCreateOrderCommandIsNotConstructed = errors.New(
		"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
	)
	ErrPickupAddressIsRequired  = errors.New("pickup address is required")
	ErrDropoffAddressIsRequired = errors.New("dropoff address is required")
)

// CreateOrderCommand represents a request to register a new delivery order:
// where to pick up, where to drop off, the scheduled window and the
// assignment priority.
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID        kernel.UUID
	pickup         kernel.GeoPoint
	dropoff        kernel.GeoPoint
	pickupAddress  string
	dropoffAddress string
	interval       kernel.TimeInterval
	priority       order.Priority

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand creates a validated order creation command.
// The time window is half-open [start, end).
func NewCreateOrderCommand(
	orderID kernel.UUID,
	pickupLat, pickupLon, dropoffLat, dropoffLon float64,
	pickupAddress, dropoffAddress string,
	start, end time.Time,
	priority order.Priority,
) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	pickup, pickupErr := kernel.NewGeoPoint(pickupLat, pickupLon)
	dropoff, dropoffErr := kernel.NewGeoPoint(dropoffLat, dropoffLon)
	interval, intervalErr := kernel.NewTimeInterval(start, end)

	if err := errors.Join(
		cmd.setOrderID(orderID),
		pickupErr,
		dropoffErr,
		intervalErr,
		cmd.setPickupAddress(pickupAddress),
		cmd.setDropoffAddress(dropoffAddress),
		priority.Validate(),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	cmd.pickup = pickup
	cmd.dropoff = dropoff
	cmd.interval = interval
	cmd.priority = priority
	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

// OrderID returns the unique identifier for the new order.
func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// Pickup returns the pickup coordinates.
func (c CreateOrderCommand) Pickup() kernel.GeoPoint {
	return c.pickup
}

// Dropoff returns the dropoff coordinates.
func (c CreateOrderCommand) Dropoff() kernel.GeoPoint {
	return c.dropoff
}

// PickupAddress returns the human-readable pickup address.
func (c CreateOrderCommand) PickupAddress() string {
	return c.pickupAddress
}

// DropoffAddress returns the human-readable dropoff address.
func (c CreateOrderCommand) DropoffAddress() string {
	return c.dropoffAddress
}

// Interval returns the scheduled delivery window.
func (c CreateOrderCommand) Interval() kernel.TimeInterval {
	return c.interval
}

// Priority returns the assignment priority.
func (c CreateOrderCommand) Priority() order.Priority {
	return c.priority
}

func (c *CreateOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *CreateOrderCommand) setPickupAddress(address string) error {
	if address == "" {
		return ErrPickupAddressIsRequired
	}
	c.pickupAddress = address
	return nil
}

func (c *CreateOrderCommand) setDropoffAddress(address string) error {
	if address == "" {
		return ErrDropoffAddressIsRequired
	}
	c.dropoffAddress = address
	return nil
}
