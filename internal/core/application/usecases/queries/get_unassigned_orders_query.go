// Package queries contains read operations for retrieving system state.
// Implements the Query pattern for read operations in the CQRS architecture.
// Queries return optimized read models for specific use cases.
package queries

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/guard"
)

var (
	ErrGetUnassignedOrdersQueryIsNotConstructed = errors.New(
		"GetUnassignedOrdersQuery must be created via NewGetUnassignedOrdersQuery constructor",
	)
)

// GetUnassignedOrdersQuery retrieves all orders waiting for a driver.
// Results come back in dispatch order, so the first row is the next
// order a batch run would try to place.
//
// Example:
//
//	query := NewGetUnassignedOrdersQuery()
//	handler := NewGetUnassignedOrdersQueryHandler(db)
//
//	pending, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return fmt.Errorf("failed to retrieve unassigned orders: %w", err)
//	}
//
//	for _, o := range pending {
//	    fmt.Printf("Order %s (%s) wants pickup at %s\n",
//	        o.ID, o.Priority, o.Interval.Start())
//	}
type GetUnassignedOrdersQuery struct {
	guard guard.ConstructorGuard
}

// NewGetUnassignedOrdersQuery creates a query for the pending-order backlog.
// This is a parameterless query that fetches every order without a driver.
func NewGetUnassignedOrdersQuery() GetUnassignedOrdersQuery {
	return GetUnassignedOrdersQuery{guard: guard.NewConstructorGuard()}
}

// Validate ensures the query was created through the constructor.
// Returns ErrGetUnassignedOrdersQueryIsNotConstructed if validation fails.
func (q GetUnassignedOrdersQuery) Validate() error {
	return q.guard.Validate(ErrGetUnassignedOrdersQueryIsNotConstructed)
}

// GetUnassignedOrdersQueryResponse is one pending order in the read model.
// Carries the fields a dispatcher needs to judge the backlog: priority,
// the requested service window and the pickup location.
type GetUnassignedOrdersQueryResponse struct {
	ID            kernel.UUID
	Priority      order.Priority
	Interval      kernel.TimeInterval
	Pickup        kernel.GeoPoint
	PickupAddress string
}
