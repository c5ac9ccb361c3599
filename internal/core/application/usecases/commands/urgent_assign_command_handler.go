package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/geo"
)

// UrgentAssignCommandHandler assigns one order to the nearest driver with
// a free schedule slot, widening the search radius ring by ring. Returns
// services.ErrDriverNotFound when no driver is reachable within the
// maximum radius.
type UrgentAssignCommandHandler struct {
	uowFactory UoWFactory
	engine     *services.AssignmentEngine
	book       *services.ScheduleBook
	index      *geo.Index
	now        func() time.Time
}

// NewUrgentAssignCommandHandler creates a handler for the urgent fast path.
func NewUrgentAssignCommandHandler(
	uowFactory UoWFactory,
	engine *services.AssignmentEngine,
	book *services.ScheduleBook,
	index *geo.Index,
) UrgentAssignCommandHandler {
	return UrgentAssignCommandHandler{
		uowFactory: uowFactory,
		engine:     engine,
		book:       book,
		index:      index,
		now:        time.Now,
	}
}

// Handle processes the urgent assignment and returns the resulting match.
func (h UrgentAssignCommandHandler) Handle(ctx context.Context, cmd UrgentAssignCommand) (services.Assignment, error) {
	if err := cmd.Validate(); err != nil {
		return services.Assignment{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return services.Assignment{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderAggregate, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
	if err != nil {
		return services.Assignment{}, err
	}

	available, err := uow.DriverRepository().GetAllAvailable(ctx)
	if err != nil {
		return services.Assignment{}, err
	}
	byID := make(map[kernel.UUID]*driver.Driver, len(available))
	for _, d := range available {
		byID[d.ID()] = d
	}

	nearest := func(point kernel.GeoPoint, radiusMeters float64) []*driver.Driver {
		hits := h.index.Near(point, radiusMeters, 0, h.now())
		ring := make([]*driver.Driver, 0, len(hits))
		for _, hit := range hits {
			if d, ok := byID[hit.DriverID]; ok {
				ring = append(ring, d)
			}
		}
		return ring
	}

	assignment, err := h.engine.UrgentAssign(ctx, orderAggregate, nearest)
	if err != nil {
		return services.Assignment{}, err
	}

	rollback := func() {
		h.book.Release(cmd.OrderID())
	}

	if err = orderAggregate.Assign(assignment.DriverID); err != nil {
		rollback()
		return services.Assignment{}, err
	}
	assigned := byID[assignment.DriverID]
	if err = assigned.MarkBusy(); err != nil {
		rollback()
		return services.Assignment{}, err
	}
	if err = uow.OrderRepository().Update(ctx, orderAggregate); err != nil {
		rollback()
		return services.Assignment{}, err
	}
	if err = uow.DriverRepository().Update(ctx, assigned); err != nil {
		rollback()
		return services.Assignment{}, err
	}
	if err = uow.Commit(ctx); err != nil {
		rollback()
		return services.Assignment{}, err
	}

	return assignment, nil
}
