package services

import (
	"context"
	"errors"
	"sort"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// ErrDriverNotFound is returned when no driver can take an order: none were
// offered, none are dispatchable, or every candidate's schedule conflicts.
var ErrDriverNotFound = errors.New("driver not found")

// Default parameters for the urgent expanding-radius search, in meters.
const (
	DefaultUrgentInitialRadiusMeters = 2_000.0
	DefaultUrgentRadiusStepMeters    = 2_000.0
	DefaultUrgentMaxRadiusMeters     = 10_000.0
)

// AssignmentConfig tunes the urgent expanding-radius search. The zero
// value picks the defaults, so callers only set what they change.
type AssignmentConfig struct {
	UrgentInitialRadiusMeters float64
	UrgentRadiusStepMeters    float64
	UrgentMaxRadiusMeters     float64
}

func (c AssignmentConfig) withDefaults() AssignmentConfig {
	if c.UrgentInitialRadiusMeters <= 0 {
		c.UrgentInitialRadiusMeters = DefaultUrgentInitialRadiusMeters
	}
	if c.UrgentRadiusStepMeters <= 0 {
		c.UrgentRadiusStepMeters = DefaultUrgentRadiusStepMeters
	}
	if c.UrgentMaxRadiusMeters <= 0 {
		c.UrgentMaxRadiusMeters = DefaultUrgentMaxRadiusMeters
	}
	return c
}

// CandidateFunc ranks dispatchable drivers for an order, best first.
// The batch run calls it once per order; proximity ranking typically comes
// from the geospatial index.
type CandidateFunc func(o *order.Order) []*driver.Driver

// NearestFunc returns dispatchable drivers within radius meters of the
// point, nearest first. Used by the urgent fast path.
type NearestFunc func(point kernel.GeoPoint, radiusMeters float64) []*driver.Driver

// Assignment records one successful order-to-driver match.
type Assignment struct {
	OrderID  kernel.UUID
	DriverID kernel.UUID
	Interval kernel.TimeInterval
}

// UnassignedOrder records one order the run could not place and why.
type UnassignedOrder struct {
	OrderID kernel.UUID
	Reason  string
}

// AssignmentResult summarizes a batch run.
type AssignmentResult struct {
	Assignments []Assignment
	Unassigned  []UnassignedOrder
}

// AssignmentEngine matches pending orders to drivers against the
// scheduling ledger.
//
// Business rules:
//   - orders are processed by priority descending, then interval start
//     ascending, with the order ID as a deterministic tie-break
//   - a candidate whose schedule conflicts is skipped, not retried; the
//     engine moves to the next candidate
//   - preview runs book into a cloned ledger, so tentative assignments
//     within the batch still exclude each other
type AssignmentEngine struct {
	book *ScheduleBook
	cfg  AssignmentConfig
}

// NewAssignmentEngine creates an engine bound to the scheduling ledger.
// Zero fields in cfg fall back to the package defaults.
func NewAssignmentEngine(book *ScheduleBook, cfg AssignmentConfig) *AssignmentEngine {
	return &AssignmentEngine{book: book, cfg: cfg.withDefaults()}
}

// BatchAssign walks the pending orders in dispatch order and books the
// first candidate driver whose schedule is free. With commit false the run
// is a dry run against a ledger clone and live state is untouched.
//
// The run stops early when ctx is cancelled; assignments already booked
// stay booked (commit true) and the error is returned alongside the
// partial result.
func (e *AssignmentEngine) BatchAssign(
	ctx context.Context,
	orders []*order.Order,
	candidates CandidateFunc,
	commit bool,
) (AssignmentResult, error) {
	book := e.book
	if !commit {
		book = e.book.Clone()
	}

	sorted := make([]*order.Order, len(orders))
	copy(sorted, orders)
	sortForDispatch(sorted)

	var result AssignmentResult
	for _, o := range sorted {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if o.Status() != order.Pending {
			result.Unassigned = append(result.Unassigned, UnassignedOrder{
				OrderID: o.ID(),
				Reason:  "order is not pending",
			})
			continue
		}

		a, ok := e.placeOne(book, o, candidates(o))
		if !ok {
			result.Unassigned = append(result.Unassigned, UnassignedOrder{
				OrderID: o.ID(),
				Reason:  "no driver with a free schedule slot",
			})
			continue
		}
		result.Assignments = append(result.Assignments, a)
	}
	return result, nil
}

// UrgentAssign finds the nearest driver with a free schedule slot using an
// expanding radius search: initial radius, then widening by the step until
// the maximum. Returns ErrDriverNotFound when the search exhausts the
// maximum radius. Urgent assignments always commit.
func (e *AssignmentEngine) UrgentAssign(ctx context.Context, o *order.Order, nearest NearestFunc) (Assignment, error) {
	if o.Status() != order.Pending {
		return Assignment{}, &order.TransitionNotAllowedError{From: o.Status(), To: order.Assigned}
	}

	seen := make(map[kernel.UUID]bool)
	for radius := e.cfg.UrgentInitialRadiusMeters; radius <= e.cfg.UrgentMaxRadiusMeters; radius += e.cfg.UrgentRadiusStepMeters {
		if err := ctx.Err(); err != nil {
			return Assignment{}, err
		}

		ring := nearest(o.Pickup(), radius)

		// drivers already rejected in a smaller ring stay rejected;
		// widening the radius only adds new candidates
		fresh := ring[:0:0]
		for _, d := range ring {
			if !seen[d.ID()] {
				seen[d.ID()] = true
				fresh = append(fresh, d)
			}
		}

		if a, ok := e.placeOne(e.book, o, fresh); ok {
			return a, nil
		}
	}
	return Assignment{}, ErrDriverNotFound
}

// placeOne books the order on the first dispatchable candidate whose
// schedule accepts the interval.
func (e *AssignmentEngine) placeOne(book *ScheduleBook, o *order.Order, candidates []*driver.Driver) (Assignment, bool) {
	for _, d := range candidates {
		if !d.IsDispatchable() {
			continue
		}
		if err := book.Reserve(d.ID(), o.ID(), o.Interval()); err != nil {
			continue
		}
		return Assignment{
			OrderID:  o.ID(),
			DriverID: d.ID(),
			Interval: o.Interval(),
		}, true
	}
	return Assignment{}, false
}

// sortForDispatch orders the batch: priority descending, interval start
// ascending, order ID as the final deterministic tie-break.
func sortForDispatch(orders []*order.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].Priority() != orders[j].Priority() {
			return orders[i].Priority() > orders[j].Priority()
		}
		si, sj := orders[i].Interval().Start(), orders[j].Interval().Start()
		if !si.Equal(sj) {
			return si.Before(sj)
		}
		return orders[i].ID().String() < orders[j].ID().String()
	})
}
