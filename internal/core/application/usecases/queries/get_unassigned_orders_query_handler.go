package queries

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetUnassignedOrdersQueryHandler reads the pending-order backlog from the
// database. Uses direct SQL for optimal read performance in the CQRS pattern.
//
// Example:
//
//	handler := NewGetUnassignedOrdersQueryHandler(db)
//	query := NewGetUnassignedOrdersQuery()
//
//	pending, err := handler.Handle(ctx, query)
//	if err != nil {
//	    log.Printf("Failed to get unassigned orders: %v", err)
//	    return err
//	}
//
//	fmt.Printf("%d orders waiting for a driver\n", len(pending))
type GetUnassignedOrdersQueryHandler struct {
	db *gorm.DB
}

// NewGetUnassignedOrdersQueryHandler creates a handler for backlog queries.
// Requires a GORM database connection for query execution.
func NewGetUnassignedOrdersQueryHandler(db *gorm.DB) GetUnassignedOrdersQueryHandler {
	return GetUnassignedOrdersQueryHandler{db: db}
}

// Handle executes the query to retrieve all orders still awaiting a driver.
// Results are sorted the way the assignment engine consumes them: highest
// priority first, earlier service windows before later ones, order ID as the
// final tie-break.
func (h GetUnassignedOrdersQueryHandler) Handle(
	ctx context.Context,
	query GetUnassignedOrdersQuery,
) ([]GetUnassignedOrdersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	orders := make([]GetUnassignedOrdersQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			priority,
			time_start,
			time_end,
			pickup_lat,
			pickup_lon,
			pickup_address
		FROM orders
		WHERE status = ?
		ORDER BY priority DESC, time_start, id
	`, order.Pending).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var orderResp GetUnassignedOrdersQueryResponse
		var id uuid.UUID
		var priority int
		var timeStart, timeEnd time.Time
		var pickupLat, pickupLon float64

		err = rows.Scan(
			&id,
			&priority,
			&timeStart,
			&timeEnd,
			&pickupLat,
			&pickupLon,
			&orderResp.PickupAddress,
		)
		if err != nil {
			return nil, err
		}

		orderID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		orderResp.ID = orderID
		orderResp.Priority = order.Priority(priority)

		interval, ivErr := kernel.NewTimeInterval(timeStart, timeEnd)
		if ivErr != nil {
			return nil, ivErr
		}
		orderResp.Interval = interval

		pickup, geoErr := kernel.NewGeoPoint(pickupLat, pickupLon)
		if geoErr != nil {
			return nil, geoErr
		}
		orderResp.Pickup = pickup
		orders = append(orders, orderResp)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}
