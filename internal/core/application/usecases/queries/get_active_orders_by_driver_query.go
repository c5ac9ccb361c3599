package queries

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

var (
	ErrGetActiveOrdersByDriverQueryIsNotConstructed = errors.New(
		"GetActiveOrdersByDriverQuery must be created via NewGetActiveOrdersByDriverQuery constructor",
	)
)

// GetActiveOrdersByDriverQuery retrieves the live workload of one driver:
// every order assigned to them that has not yet completed or been cancelled.
//
// Example:
//
//	query, err := NewGetActiveOrdersByDriverQuery(driverID)
//	if err != nil {
//	    return err
//	}
//
//	workload, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return fmt.Errorf("failed to retrieve driver workload: %w", err)
//	}
type GetActiveOrdersByDriverQuery struct {
	driverID kernel.UUID

	isConstructed bool
}

// NewGetActiveOrdersByDriverQuery creates a workload query for one driver.
// Returns an error if the driver ID is invalid.
func NewGetActiveOrdersByDriverQuery(driverID kernel.UUID) (GetActiveOrdersByDriverQuery, error) {
	if err := driverID.Validate(); err != nil {
		return GetActiveOrdersByDriverQuery{}, err
	}

	return GetActiveOrdersByDriverQuery{
		driverID:      driverID,
		isConstructed: true,
	}, nil
}

// DriverID returns the driver whose workload is requested.
func (q GetActiveOrdersByDriverQuery) DriverID() kernel.UUID {
	return q.driverID
}

// Validate ensures the query was created through the constructor.
// Returns ErrGetActiveOrdersByDriverQueryIsNotConstructed if validation fails.
func (q GetActiveOrdersByDriverQuery) Validate() error {
	if !q.isConstructed {
		return ErrGetActiveOrdersByDriverQueryIsNotConstructed
	}

	return nil
}

// GetActiveOrdersByDriverQueryResponse is one in-flight order in a driver's
// workload, with the drop-off details the driver still has to serve.
type GetActiveOrdersByDriverQueryResponse struct {
	ID             kernel.UUID
	Status         order.Status
	Interval       kernel.TimeInterval
	Dropoff        kernel.GeoPoint
	DropoffAddress string
}
