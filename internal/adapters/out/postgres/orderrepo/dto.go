// Package orderrepo provides data transfer objects and mapping functions for order persistence.
// This package implements the repository pattern for the order domain aggregate, handling
// the conversion between domain entities and database representations.
package orderrepo

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO represents the database structure for persisting order aggregates.
// Maps order domain entities to relational database tables with proper indexing
// for efficient querying by status and driver assignment.
type OrderDTO struct {
	ID             uuid.UUID   `gorm:"type:uuid;primaryKey"`
	DriverID       *uuid.UUID  `gorm:"type:uuid;index"`
	Status         int         `gorm:"index"`
	Priority       int
	TimeStart      time.Time `gorm:"index"`
	TimeEnd        time.Time
	Pickup         GeoPointDTO `gorm:"embedded;embeddedPrefix:pickup_"`
	Dropoff        GeoPointDTO `gorm:"embedded;embeddedPrefix:dropoff_"`
	PickupAddress  string
	DropoffAddress string
	ArrivedAt      *time.Time
	StartedAt      *time.Time
	EndTime        *time.Time
	CancelledAt    *time.Time
	CancelReason   string
	Route          RouteEstimateDTO `gorm:"embedded;embeddedPrefix:route_"`
}

// TableName specifies the database table name for order entities.
// Overrides GORM's default naming convention to use "orders".
func (OrderDTO) TableName() string {
	return "orders"
}

// GeoPointDTO represents embedded WGS84 coordinates within the order table.
// Used for both the pickup and drop-off points via column prefixes.
type GeoPointDTO struct {
	Lat float64 `gorm:"type:double precision"`
	Lon float64 `gorm:"type:double precision"`
}

// RouteEstimateDTO represents the embedded, optional routing estimate.
// All fields are null until a routing provider answered for the order.
type RouteEstimateDTO struct {
	DistanceMeters *float64
	DurationSecs   *int64
	PriceCents     *int64
	Geometry       *string
}

// fromDomain converts an order domain aggregate to its database representation.
// Maps all order attributes including optional driver assignment and estimate.
func fromDomain(aggregate *order.Order) OrderDTO {
	var driverID *uuid.UUID
	if id := aggregate.DriverID(); id != nil {
		raw := id.Bytes()
		driverID = &raw
	}

	var route RouteEstimateDTO
	if est := aggregate.Estimate(); est != nil {
		distance := est.DistanceMeters
		durationSecs := int64(est.Duration / time.Second)
		priceCents := est.PriceCents
		geometry := est.Geometry
		route = RouteEstimateDTO{
			DistanceMeters: &distance,
			DurationSecs:   &durationSecs,
			PriceCents:     &priceCents,
			Geometry:       &geometry,
		}
	}

	return OrderDTO{
		ID:       aggregate.ID().Bytes(),
		DriverID: driverID,
		Status:   int(aggregate.Status()),
		Priority: int(aggregate.Priority()),
		TimeStart: aggregate.Interval().Start(),
		TimeEnd:   aggregate.Interval().End(),
		Pickup: GeoPointDTO{
			Lat: aggregate.Pickup().Latitude(),
			Lon: aggregate.Pickup().Longitude(),
		},
		Dropoff: GeoPointDTO{
			Lat: aggregate.Dropoff().Latitude(),
			Lon: aggregate.Dropoff().Longitude(),
		},
		PickupAddress:  aggregate.PickupAddress(),
		DropoffAddress: aggregate.DropoffAddress(),
		ArrivedAt:      aggregate.ArrivedAt(),
		StartedAt:      aggregate.StartedAt(),
		EndTime:        aggregate.EndTime(),
		CancelledAt:    aggregate.CancelledAt(),
		CancelReason:   aggregate.CancelReason(),
		Route:          route,
	}
}

// toDomain converts a database DTO to an order domain aggregate.
// Reconstructs the complete aggregate including lifecycle timestamps and the
// optional driver assignment using RestoreOrder.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	var driverID *kernel.UUID
	if dto.DriverID != nil {
		dID, driverErr := kernel.UUIDFromBytes((*dto.DriverID)[:])
		if driverErr != nil {
			return nil, driverErr
		}

		driverID = &dID
	}

	interval, err := kernel.NewTimeInterval(dto.TimeStart, dto.TimeEnd)
	if err != nil {
		return nil, err
	}

	pickup, err := kernel.NewGeoPoint(dto.Pickup.Lat, dto.Pickup.Lon)
	if err != nil {
		return nil, err
	}

	dropoff, err := kernel.NewGeoPoint(dto.Dropoff.Lat, dto.Dropoff.Lon)
	if err != nil {
		return nil, err
	}

	var estimate *order.RouteEstimate
	if dto.Route.DistanceMeters != nil {
		estimate = &order.RouteEstimate{
			DistanceMeters: *dto.Route.DistanceMeters,
		}
		if dto.Route.DurationSecs != nil {
			estimate.Duration = time.Duration(*dto.Route.DurationSecs) * time.Second
		}
		if dto.Route.PriceCents != nil {
			estimate.PriceCents = *dto.Route.PriceCents
		}
		if dto.Route.Geometry != nil {
			estimate.Geometry = *dto.Route.Geometry
		}
	}

	return order.RestoreOrder(order.RestoreOrderParams{
		ID:             id,
		DriverID:       driverID,
		Status:         order.Status(dto.Status),
		Priority:       order.Priority(dto.Priority),
		Interval:       interval,
		Pickup:         pickup,
		Dropoff:        dropoff,
		PickupAddress:  dto.PickupAddress,
		DropoffAddress: dto.DropoffAddress,
		ArrivedAt:      dto.ArrivedAt,
		StartedAt:      dto.StartedAt,
		EndTime:        dto.EndTime,
		CancelledAt:    dto.CancelledAt,
		CancelReason:   dto.CancelReason,
		Estimate:       estimate,
	})
}
