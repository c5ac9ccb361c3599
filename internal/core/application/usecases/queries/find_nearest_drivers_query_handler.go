package queries

import (
	"context"
	"time"

	"dispatch/internal/geo"
)

// FindNearestDriversQueryHandler answers proximity queries from the live
// position index. Drivers whose last fix is older than the index liveness
// window are excluded, so a silent driver stops showing up on its own.
type FindNearestDriversQueryHandler struct {
	index *geo.Index
	now   func() time.Time
}

// NewFindNearestDriversQueryHandler creates a handler backed by the given
// position index.
func NewFindNearestDriversQueryHandler(index *geo.Index) FindNearestDriversQueryHandler {
	return FindNearestDriversQueryHandler{
		index: index,
		now:   time.Now,
	}
}

// Handle executes the proximity query. Results are sorted nearest first.
func (h FindNearestDriversQueryHandler) Handle(
	ctx context.Context,
	query FindNearestDriversQuery,
) ([]FindNearestDriversQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	neighbors := h.index.Near(query.Point(), query.RadiusMeters(), query.Limit(), h.now())

	drivers := make([]FindNearestDriversQueryResponse, 0, len(neighbors))
	for _, n := range neighbors {
		drivers = append(drivers, FindNearestDriversQueryResponse{
			DriverID:       n.DriverID,
			Position:       n.Position,
			RecordedAt:     n.RecordedAt,
			DistanceMeters: n.DistanceMeters,
		})
	}

	return drivers, nil
}
