package services

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"dispatch/internal/core/domain/model/kernel"
)

var (
	// ErrSchedulingConflict is the sentinel for reservation overlaps.
	ErrSchedulingConflict = errors.New("scheduling conflict")

	// ErrReservationNotFound is returned when moving or releasing a
	// reservation the ledger does not hold.
	ErrReservationNotFound = errors.New("reservation not found")
)

// SchedulingConflictError reports a rejected reservation: which driver,
// the interval that was requested and the existing reservation it collides
// with. Callers surface the colliding order so dispatchers can decide what
// to move.
type SchedulingConflictError struct {
	DriverID            kernel.UUID
	RequestedInterval   kernel.TimeInterval
	ConflictingOrderID  kernel.UUID
	ConflictingInterval kernel.TimeInterval
}

func (e *SchedulingConflictError) Error() string {
	return fmt.Sprintf("scheduling conflict: driver %s interval %s collides with order %s (%s)",
		e.DriverID, e.RequestedInterval, e.ConflictingOrderID, e.ConflictingInterval)
}

func (e *SchedulingConflictError) Unwrap() error {
	return ErrSchedulingConflict
}

// Reservation is one entry in the ledger: an order holding a time interval
// on a driver's schedule.
type Reservation struct {
	OrderID  kernel.UUID
	Interval kernel.TimeInterval
}

// ScheduleBook is the in-memory scheduling ledger. It is the single
// authority on driver time: every assignment and every schedule change
// must pass through Reserve or Move before the order aggregate is touched.
//
// Invariants:
//   - no two reservations of the same driver overlap (intervals are
//     half-open, so back-to-back slots coexist)
//   - an order holds at most one reservation
//   - Move is atomic: on conflict the original reservation is restored
//     with the exact original bounds
//
// The ledger is process-local state rebuilt from active orders on startup.
// All methods are safe for concurrent use.
type ScheduleBook struct {
	mu sync.Mutex

	// byDriver holds each driver's reservations sorted by interval start.
	byDriver map[kernel.UUID][]Reservation
	// byOrder maps an order to the driver whose schedule it occupies.
	byOrder map[kernel.UUID]kernel.UUID
}

// NewScheduleBook creates an empty scheduling ledger.
func NewScheduleBook() *ScheduleBook {
	return &ScheduleBook{
		byDriver: make(map[kernel.UUID][]Reservation),
		byOrder:  make(map[kernel.UUID]kernel.UUID),
	}
}

// Reserve books the interval on the driver's schedule for the order.
// Returns a SchedulingConflictError naming the colliding reservation when
// the interval overlaps an existing one. Reserving the same order twice is
// rejected as a conflict with itself unless the bounds are identical, in
// which case it is a no-op.
func (b *ScheduleBook) Reserve(driverID, orderID kernel.UUID, interval kernel.TimeInterval) error {
	if err := errors.Join(driverID.Validate(), orderID.Validate(), interval.Validate()); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if existingDriver, ok := b.byOrder[orderID]; ok {
		existing, _ := b.findLocked(existingDriver, orderID)
		if existingDriver.IsEqual(driverID) && existing.Interval.IsEqual(interval) {
			return nil
		}
		return &SchedulingConflictError{
			DriverID:            driverID,
			RequestedInterval:   interval,
			ConflictingOrderID:  orderID,
			ConflictingInterval: existing.Interval,
		}
	}

	return b.insertLocked(driverID, orderID, interval)
}

// Release removes the order's reservation. Releasing an order the ledger
// does not hold is a no-op, so completion and cancellation handlers can
// call it unconditionally.
func (b *ScheduleBook) Release(orderID kernel.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.removeLocked(orderID)
}

// Move atomically replaces the order's reservation with a new driver and
// interval. The old slot is freed before the conflict check, so moving an
// order within its own slot on the same driver always succeeds. On
// conflict the original reservation is restored with its exact bounds and
// the SchedulingConflictError is returned.
func (b *ScheduleBook) Move(orderID, newDriverID kernel.UUID, newInterval kernel.TimeInterval) error {
	if err := errors.Join(newDriverID.Validate(), orderID.Validate(), newInterval.Validate()); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	oldDriverID, ok := b.byOrder[orderID]
	if !ok {
		return ErrReservationNotFound
	}
	old, _ := b.findLocked(oldDriverID, orderID)

	b.removeLocked(orderID)

	if err := b.insertLocked(newDriverID, orderID, newInterval); err != nil {
		// restore the exact original reservation; the slot was just
		// freed so this cannot fail
		_ = b.insertLocked(oldDriverID, orderID, old.Interval)
		return err
	}
	return nil
}

// Rebuild resets the ledger to exactly the given reservations, replacing
// all current state. Used on startup to replay active orders from storage.
// Conflicting input is an error: persisted state must already satisfy the
// no-overlap invariant.
func (b *ScheduleBook) Rebuild(reservations map[kernel.UUID][]Reservation) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.byDriver = make(map[kernel.UUID][]Reservation, len(reservations))
	b.byOrder = make(map[kernel.UUID]kernel.UUID)

	for driverID, list := range reservations {
		for _, r := range list {
			if err := b.insertLocked(driverID, r.OrderID, r.Interval); err != nil {
				return err
			}
		}
	}
	return nil
}

// Clone returns an independent deep copy of the ledger. Preview assignment
// runs book into a clone so tentative reservations see each other without
// touching live state.
func (b *ScheduleBook) Clone() *ScheduleBook {
	b.mu.Lock()
	defer b.mu.Unlock()

	clone := NewScheduleBook()
	for driverID, list := range b.byDriver {
		cp := make([]Reservation, len(list))
		copy(cp, list)
		clone.byDriver[driverID] = cp
	}
	for orderID, driverID := range b.byOrder {
		clone.byOrder[orderID] = driverID
	}
	return clone
}

// ReservationsFor returns a copy of the driver's reservations sorted by
// interval start.
func (b *ScheduleBook) ReservationsFor(driverID kernel.UUID) []Reservation {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.byDriver[driverID]
	out := make([]Reservation, len(list))
	copy(out, list)
	return out
}

// HasConflict reports whether reserving the interval on the driver's
// schedule would collide, without booking anything. The assignment engine
// uses it for preview runs.
func (b *ScheduleBook) HasConflict(driverID kernel.UUID, interval kernel.TimeInterval) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, conflict := b.conflictLocked(driverID, interval)
	return conflict
}

func (b *ScheduleBook) insertLocked(driverID, orderID kernel.UUID, interval kernel.TimeInterval) error {
	if existing, conflict := b.conflictLocked(driverID, interval); conflict {
		return &SchedulingConflictError{
			DriverID:            driverID,
			RequestedInterval:   interval,
			ConflictingOrderID:  existing.OrderID,
			ConflictingInterval: existing.Interval,
		}
	}

	list := b.byDriver[driverID]
	r := Reservation{OrderID: orderID, Interval: interval}
	idx := sort.Search(len(list), func(i int) bool {
		return list[i].Interval.Start().After(interval.Start())
	})
	list = append(list, Reservation{})
	copy(list[idx+1:], list[idx:])
	list[idx] = r

	b.byDriver[driverID] = list
	b.byOrder[orderID] = driverID
	return nil
}

func (b *ScheduleBook) removeLocked(orderID kernel.UUID) {
	driverID, ok := b.byOrder[orderID]
	if !ok {
		return
	}
	delete(b.byOrder, orderID)

	list := b.byDriver[driverID]
	for i, r := range list {
		if r.OrderID.IsEqual(orderID) {
			b.byDriver[driverID] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(b.byDriver[driverID]) == 0 {
		delete(b.byDriver, driverID)
	}
}

func (b *ScheduleBook) conflictLocked(driverID kernel.UUID, interval kernel.TimeInterval) (Reservation, bool) {
	for _, r := range b.byDriver[driverID] {
		if r.Interval.Overlaps(interval) {
			return r, true
		}
		if !r.Interval.Start().Before(interval.End()) {
			break
		}
	}
	return Reservation{}, false
}

func (b *ScheduleBook) findLocked(driverID, orderID kernel.UUID) (Reservation, bool) {
	for _, r := range b.byDriver[driverID] {
		if r.OrderID.IsEqual(orderID) {
			return r, true
		}
	}
	return Reservation{}, false
}
