package commands

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/geo"
)

// batchCandidateRadiusMeters bounds the proximity ranking for batch runs.
// Drivers without a live position still participate, ranked last.
const batchCandidateRadiusMeters = 15_000.0

// BatchAssignCommandHandler runs the assignment engine over all pending
// orders. Candidates per order are the available drivers ranked by
// distance from the order's pickup; drivers with no live position rank
// after all located ones, in a deterministic order.
type BatchAssignCommandHandler struct {
	uowFactory UoWFactory
	engine     *services.AssignmentEngine
	book       *services.ScheduleBook
	index      *geo.Index
	logger     *slog.Logger
	now        func() time.Time
}

// NewBatchAssignCommandHandler creates a handler for batch assignment runs.
func NewBatchAssignCommandHandler(
	uowFactory UoWFactory,
	engine *services.AssignmentEngine,
	book *services.ScheduleBook,
	index *geo.Index,
	logger *slog.Logger,
) BatchAssignCommandHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return BatchAssignCommandHandler{
		uowFactory: uowFactory,
		engine:     engine,
		book:       book,
		index:      index,
		logger:     logger.With("component", "batch_assign"),
		now:        time.Now,
	}
}

// Handle executes one run and returns the assignment summary. In commit
// mode the matched orders are persisted as Assigned and their drivers as
// busy; reservations for orders that fail to persist are rolled back.
func (h BatchAssignCommandHandler) Handle(ctx context.Context, cmd BatchAssignCommand) (services.AssignmentResult, error) {
	if err := cmd.Validate(); err != nil {
		return services.AssignmentResult{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return services.AssignmentResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	pending, err := uow.OrderRepository().GetAllPending(ctx)
	if err != nil {
		return services.AssignmentResult{}, err
	}
	available, err := uow.DriverRepository().GetAllAvailable(ctx)
	if err != nil {
		return services.AssignmentResult{}, err
	}

	result, err := h.engine.BatchAssign(ctx, pending, h.rankByProximity(available), cmd.Commit())
	if err != nil {
		if cmd.Commit() {
			h.releaseAll(result.Assignments)
		}
		return services.AssignmentResult{}, err
	}

	if !cmd.Commit() {
		return result, nil
	}

	ordersByID := make(map[kernel.UUID]*order.Order, len(pending))
	for _, o := range pending {
		ordersByID[o.ID()] = o
	}
	driversByID := make(map[kernel.UUID]*driver.Driver, len(available))
	for _, d := range available {
		driversByID[d.ID()] = d
	}

	for _, a := range result.Assignments {
		o := ordersByID[a.OrderID]
		if err = o.Assign(a.DriverID); err != nil {
			h.releaseAll(result.Assignments)
			return services.AssignmentResult{}, err
		}
		if err = uow.OrderRepository().Update(ctx, o); err != nil {
			h.releaseAll(result.Assignments)
			return services.AssignmentResult{}, err
		}

		d := driversByID[a.DriverID]
		if d.Status() == driver.StatusBusy {
			continue
		}
		if err = d.MarkBusy(); err != nil {
			h.releaseAll(result.Assignments)
			return services.AssignmentResult{}, err
		}
		if err = uow.DriverRepository().Update(ctx, d); err != nil {
			h.releaseAll(result.Assignments)
			return services.AssignmentResult{}, err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		h.releaseAll(result.Assignments)
		return services.AssignmentResult{}, err
	}

	h.logger.Info("batch assignment run finished",
		"assigned", len(result.Assignments),
		"unassigned", len(result.Unassigned))
	return result, nil
}

// rankByProximity builds the candidate ranking for one order: located
// drivers nearest the pickup first, unlocated drivers after them sorted by
// id so repeated runs are deterministic.
func (h BatchAssignCommandHandler) rankByProximity(available []*driver.Driver) services.CandidateFunc {
	byID := make(map[kernel.UUID]*driver.Driver, len(available))
	for _, d := range available {
		byID[d.ID()] = d
	}

	return func(o *order.Order) []*driver.Driver {
		ranked := make([]*driver.Driver, 0, len(available))
		taken := make(map[kernel.UUID]bool, len(available))

		for _, hit := range h.index.Near(o.Pickup(), batchCandidateRadiusMeters, 0, h.now()) {
			if d, ok := byID[hit.DriverID]; ok {
				ranked = append(ranked, d)
				taken[hit.DriverID] = true
			}
		}

		rest := make([]*driver.Driver, 0, len(available))
		for _, d := range available {
			if !taken[d.ID()] {
				rest = append(rest, d)
			}
		}
		sort.Slice(rest, func(i, j int) bool {
			return rest[i].ID().String() < rest[j].ID().String()
		})
		return append(ranked, rest...)
	}
}

func (h BatchAssignCommandHandler) releaseAll(assignments []services.Assignment) {
	for _, a := range assignments {
		h.book.Release(a.OrderID)
	}
}
