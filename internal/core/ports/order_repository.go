package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
type OrderRepository interface {
	// Add persists a new order aggregate to storage.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists changes to an existing order aggregate.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order aggregate by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetAllPending retrieves unassigned orders sorted by priority
	// descending, then interval start ascending. The batch assignment run
	// consumes them in this order.
	GetAllPending(ctx context.Context) ([]*order.Order, error)

	// GetAllActive retrieves every order that holds a live scheduling
	// reservation. Used to rebuild the scheduling ledger on startup.
	GetAllActive(ctx context.Context) ([]*order.Order, error)

	// GetActiveByDriver retrieves the driver's active orders sorted by
	// interval start ascending.
	GetActiveByDriver(ctx context.Context, driverID kernel.UUID) ([]*order.Order, error)
}
