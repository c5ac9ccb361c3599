// Package driverrepo provides data transfer objects and mapping functions for driver persistence.
// This package implements the repository pattern for the driver domain aggregate, handling
// the conversion between domain entities and database representations.
package driverrepo

import (
	"time"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// DriverDTO represents the database structure for persisting driver aggregates.
// The last known position is denormalized into the row; the full position
// history lives in the partitioned driver_locations table.
type DriverDTO struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name       string    `gorm:"type:varchar(255);not null"`
	Status     int       `gorm:"index"`
	LastLat    *float64  `gorm:"type:double precision"`
	LastLon    *float64  `gorm:"type:double precision"`
	LastSeenAt *time.Time
	IsActive   bool `gorm:"index"`
}

// TableName specifies the database table name for driver entities.
// Overrides GORM's default naming convention to use "drivers".
func (DriverDTO) TableName() string {
	return "drivers"
}

// fromDomain converts a driver domain aggregate to its database representation.
func fromDomain(aggregate *driver.Driver) DriverDTO {
	dto := DriverDTO{
		ID:       aggregate.ID().Bytes(),
		Name:     aggregate.Name(),
		Status:   int(aggregate.Status()),
		IsActive: aggregate.IsActive(),
	}

	if pos := aggregate.LastPosition(); pos != nil {
		lat, lon := pos.Latitude(), pos.Longitude()
		dto.LastLat = &lat
		dto.LastLon = &lon
	}
	if seen := aggregate.LastSeenAt(); seen != nil {
		t := *seen
		dto.LastSeenAt = &t
	}

	return dto
}

// toDomain converts a database DTO to a driver domain aggregate.
// Reconstructs the complete aggregate including the optional last known
// position using RestoreDriver.
func toDomain(dto DriverDTO) (*driver.Driver, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	var lastPosition *kernel.GeoPoint
	if dto.LastLat != nil && dto.LastLon != nil {
		pos, posErr := kernel.NewGeoPoint(*dto.LastLat, *dto.LastLon)
		if posErr != nil {
			return nil, posErr
		}
		lastPosition = &pos
	}

	return driver.RestoreDriver(
		id,
		dto.Name,
		driver.Status(dto.Status),
		lastPosition,
		dto.LastSeenAt,
		dto.IsActive,
	)
}
