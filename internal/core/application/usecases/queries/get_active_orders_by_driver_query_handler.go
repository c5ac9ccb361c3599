package queries

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetActiveOrdersByDriverQueryHandler reads one driver's in-flight orders
// from the database, sorted by service window start.
type GetActiveOrdersByDriverQueryHandler struct {
	db *gorm.DB
}

// NewGetActiveOrdersByDriverQueryHandler creates a handler for driver
// workload queries. Requires a GORM database connection.
func NewGetActiveOrdersByDriverQueryHandler(db *gorm.DB) GetActiveOrdersByDriverQueryHandler {
	return GetActiveOrdersByDriverQueryHandler{db: db}
}

// Handle executes the query for one driver's active orders. An order counts
// as active from assignment until it completes or is cancelled.
func (h GetActiveOrdersByDriverQueryHandler) Handle(
	ctx context.Context,
	query GetActiveOrdersByDriverQuery,
) ([]GetActiveOrdersByDriverQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	orders := make([]GetActiveOrdersByDriverQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			status,
			time_start,
			time_end,
			dropoff_lat,
			dropoff_lon,
			dropoff_address
		FROM orders
		WHERE driver_id = ? AND status IN (?, ?, ?, ?)
		ORDER BY time_start, id
	`,
		query.DriverID().Bytes(),
		order.Assigned,
		order.EnRoutePickup,
		order.DriverArrived,
		order.InProgress,
	).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var orderResp GetActiveOrdersByDriverQueryResponse
		var id uuid.UUID
		var status int
		var timeStart, timeEnd time.Time
		var dropoffLat, dropoffLon float64

		err = rows.Scan(
			&id,
			&status,
			&timeStart,
			&timeEnd,
			&dropoffLat,
			&dropoffLon,
			&orderResp.DropoffAddress,
		)
		if err != nil {
			return nil, err
		}

		orderID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		orderResp.ID = orderID
		orderResp.Status = order.Status(status)

		interval, ivErr := kernel.NewTimeInterval(timeStart, timeEnd)
		if ivErr != nil {
			return nil, ivErr
		}
		orderResp.Interval = interval

		dropoff, geoErr := kernel.NewGeoPoint(dropoffLat, dropoffLon)
		if geoErr != nil {
			return nil, geoErr
		}
		orderResp.Dropoff = dropoff
		orders = append(orders, orderResp)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}
