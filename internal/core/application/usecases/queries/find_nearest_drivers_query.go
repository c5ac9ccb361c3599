package queries

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
)

var (
	ErrFindNearestDriversQueryIsNotConstructed = errors.New(
		"FindNearestDriversQuery must be created via NewFindNearestDriversQuery constructor",
	)
	ErrSearchRadiusMustBePositive = errors.New("search radius must be positive")
	ErrResultLimitMustBePositive  = errors.New("result limit must be positive")
)

// FindNearestDriversQuery asks for the drivers closest to a point, nearest
// first. The query is served from the in-memory position index rather than
// the database, so answers reflect the latest ingested locations.
//
// Example:
//
//	query, err := NewFindNearestDriversQuery(pickup, 3000, 5)
//	if err != nil {
//	    return err
//	}
//
//	nearest, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return fmt.Errorf("failed to find nearby drivers: %w", err)
//	}
type FindNearestDriversQuery struct {
	point        kernel.GeoPoint
	radiusMeters float64
	limit        int

	isConstructed bool
}

// NewFindNearestDriversQuery creates a proximity query around a point.
// Radius is in meters and limit caps the number of results.
func NewFindNearestDriversQuery(
	point kernel.GeoPoint,
	radiusMeters float64,
	limit int,
) (FindNearestDriversQuery, error) {
	if err := point.Validate(); err != nil {
		return FindNearestDriversQuery{}, err
	}
	if radiusMeters <= 0 {
		return FindNearestDriversQuery{}, ErrSearchRadiusMustBePositive
	}
	if limit <= 0 {
		return FindNearestDriversQuery{}, ErrResultLimitMustBePositive
	}

	return FindNearestDriversQuery{
		point:         point,
		radiusMeters:  radiusMeters,
		limit:         limit,
		isConstructed: true,
	}, nil
}

// Point returns the center of the search.
func (q FindNearestDriversQuery) Point() kernel.GeoPoint {
	return q.point
}

// RadiusMeters returns the search radius in meters.
func (q FindNearestDriversQuery) RadiusMeters() float64 {
	return q.radiusMeters
}

// Limit returns the maximum number of drivers to return.
func (q FindNearestDriversQuery) Limit() int {
	return q.limit
}

// Validate ensures the query was created through the constructor.
// Returns ErrFindNearestDriversQueryIsNotConstructed if validation fails.
func (q FindNearestDriversQuery) Validate() error {
	if !q.isConstructed {
		return ErrFindNearestDriversQueryIsNotConstructed
	}

	return nil
}

// FindNearestDriversQueryResponse is one driver in a proximity result,
// with the position and freshness of the fix the distance was computed from.
type FindNearestDriversQueryResponse struct {
	DriverID       kernel.UUID
	Position       kernel.GeoPoint
	RecordedAt     time.Time
	DistanceMeters float64
}
