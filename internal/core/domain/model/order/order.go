package order

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not
	// created through NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder or RestoreOrder constructor")

	// ErrOrderIsTerminal is returned when rescheduling an order whose
	// lifecycle already finished.
	ErrOrderIsTerminal = errors.New("order is in a terminal status")

	// ErrDriverIDIsRequired is returned when assigning without a driver.
	ErrDriverIDIsRequired = errors.New("driver id is required for assignment")

	// ErrCancelReasonIsRequired is returned when cancelling without a reason.
	ErrCancelReasonIsRequired = errors.New("cancel reason is required")
)

// RouteEstimate carries the routing oracle's answer for the pickup->dropoff
// leg. Geometry is an opaque encoded polyline; the core never interprets it.
type RouteEstimate struct {
	DistanceMeters float64
	Duration       time.Duration
	PriceCents     int64
	Geometry       string
}

// Order is the aggregate root for a delivery order. It owns the lifecycle
// state machine and all timestamps derived from it; time/driver changes go
// through the scheduling ledger before they are reflected here.
//
// Invariants:
//   - id, pickup, dropoff, and interval are valid value objects
//   - status transitions follow the lifecycle table in status.go
//   - driverID is set exactly when status is Assigned or later (non-cancelled
//     orders), and the pair (driverID, interval) is covered by a reservation
//     while the order is active
type Order struct {
	id       kernel.UUID
	driverID *kernel.UUID

	status   Status
	priority Priority
	interval kernel.TimeInterval

	pickup         kernel.GeoPoint
	dropoff        kernel.GeoPoint
	pickupAddress  string
	dropoffAddress string

	arrivedAt    *time.Time
	startedAt    *time.Time
	endTime      *time.Time
	cancelledAt  *time.Time
	cancelReason string

	estimate *RouteEstimate

	isConstructed bool
}

// NewOrder creates a Pending order with validated value objects.
// The route estimate starts empty; the creation handler fills it in when
// the routing oracle is reachable.
func NewOrder(
	id kernel.UUID,
	pickup, dropoff kernel.GeoPoint,
	pickupAddress, dropoffAddress string,
	interval kernel.TimeInterval,
	priority Priority,
) (*Order, error) {
	o := &Order{
		status:        Pending,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setPickup(pickup),
		o.setDropoff(dropoff),
		o.setInterval(interval),
		o.setPriority(priority),
	); err != nil {
		return nil, err
	}

	o.pickupAddress = pickupAddress
	o.dropoffAddress = dropoffAddress
	return o, nil
}

// RestoreOrderParams carries the persisted state of an order.
type RestoreOrderParams struct {
	ID             kernel.UUID
	DriverID       *kernel.UUID
	Status         Status
	Priority       Priority
	Interval       kernel.TimeInterval
	Pickup         kernel.GeoPoint
	Dropoff        kernel.GeoPoint
	PickupAddress  string
	DropoffAddress string
	ArrivedAt      *time.Time
	StartedAt      *time.Time
	EndTime        *time.Time
	CancelledAt    *time.Time
	CancelReason   string
	Estimate       *RouteEstimate
}

// RestoreOrder reconstructs an order aggregate from persistent storage.
// Unlike NewOrder it accepts any lifecycle state, so repositories can
// hydrate historical and in-flight orders alike.
func RestoreOrder(p RestoreOrderParams) (*Order, error) {
	o := &Order{
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(p.ID),
		o.setPickup(p.Pickup),
		o.setDropoff(p.Dropoff),
		o.setInterval(p.Interval),
		o.setPriority(p.Priority),
		p.Status.Validate(),
	); err != nil {
		return nil, err
	}

	if p.DriverID != nil {
		if err := p.DriverID.Validate(); err != nil {
			return nil, err
		}
		id := *p.DriverID
		o.driverID = &id
	}

	o.status = p.Status
	o.pickupAddress = p.PickupAddress
	o.dropoffAddress = p.DropoffAddress
	o.arrivedAt = p.ArrivedAt
	o.startedAt = p.StartedAt
	o.endTime = p.EndTime
	o.cancelledAt = p.CancelledAt
	o.cancelReason = p.CancelReason
	o.estimate = p.Estimate
	return o, nil
}

// Validate ensures the Order was created through a constructor.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// IsEqual compares two orders by identifier.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

// ID returns the order's unique identifier.
func (o *Order) ID() kernel.UUID {
	return o.id
}

// DriverID returns the assigned driver's ID, or nil when unassigned.
func (o *Order) DriverID() *kernel.UUID {
	return o.driverID
}

// Status returns the current lifecycle status.
func (o *Order) Status() Status {
	return o.status
}

// Priority returns the assignment priority.
func (o *Order) Priority() Priority {
	return o.priority
}

// Interval returns the half-open scheduled time interval.
func (o *Order) Interval() kernel.TimeInterval {
	return o.interval
}

// Pickup returns the pickup coordinates.
func (o *Order) Pickup() kernel.GeoPoint {
	return o.pickup
}

// Dropoff returns the dropoff coordinates.
func (o *Order) Dropoff() kernel.GeoPoint {
	return o.dropoff
}

// PickupAddress returns the human-readable pickup address.
func (o *Order) PickupAddress() string {
	return o.pickupAddress
}

// DropoffAddress returns the human-readable dropoff address.
func (o *Order) DropoffAddress() string {
	return o.dropoffAddress
}

// ArrivedAt returns when the driver reached the pickup, if it happened.
func (o *Order) ArrivedAt() *time.Time {
	return o.arrivedAt
}

// StartedAt returns when the trip started, if it happened.
func (o *Order) StartedAt() *time.Time {
	return o.startedAt
}

// EndTime returns when the order completed, if it happened.
func (o *Order) EndTime() *time.Time {
	return o.endTime
}

// CancelledAt returns when the order was cancelled, if it happened.
func (o *Order) CancelledAt() *time.Time {
	return o.cancelledAt
}

// CancelReason returns the stored cancellation reason, if any.
func (o *Order) CancelReason() string {
	return o.cancelReason
}

// Estimate returns the routing oracle's estimate, or nil when the oracle
// was unavailable at creation and no estimate has been backfilled.
func (o *Order) Estimate() *RouteEstimate {
	return o.estimate
}

// IsActive reports whether the order holds a live scheduling reservation.
func (o *Order) IsActive() bool {
	return o.status.IsActive()
}

// SetRouteEstimate stores the routing oracle's answer for this order.
func (o *Order) SetRouteEstimate(est RouteEstimate) {
	o.estimate = &est
}

// Assign moves Pending -> Assigned and records the driver. The caller must
// already hold a reservation for (driverID, interval) in the scheduling
// ledger; the aggregate only records the outcome.
func (o *Order) Assign(driverID kernel.UUID) error {
	if err := driverID.Validate(); err != nil {
		return ErrDriverIDIsRequired
	}

	newStatus, err := o.status.TransitionTo(Assigned)
	if err != nil {
		return err
	}

	o.status = newStatus
	o.driverID = &driverID
	return nil
}

// MarkEnRoute moves Assigned -> EnRoutePickup.
func (o *Order) MarkEnRoute() error {
	newStatus, err := o.status.TransitionTo(EnRoutePickup)
	if err != nil {
		return err
	}

	o.status = newStatus
	return nil
}

// MarkArrived moves EnRoutePickup -> DriverArrived and stamps arrivedAt.
func (o *Order) MarkArrived(now time.Time) error {
	newStatus, err := o.status.TransitionTo(DriverArrived)
	if err != nil {
		return err
	}

	o.status = newStatus
	t := now
	o.arrivedAt = &t
	return nil
}

// Start moves DriverArrived -> InProgress and stamps startedAt.
func (o *Order) Start(now time.Time) error {
	newStatus, err := o.status.TransitionTo(InProgress)
	if err != nil {
		return err
	}

	o.status = newStatus
	t := now
	o.startedAt = &t
	return nil
}

// Complete moves InProgress -> Completed and stamps endTime. The caller
// releases the scheduling reservation and frees the driver.
func (o *Order) Complete(now time.Time) error {
	newStatus, err := o.status.TransitionTo(Completed)
	if err != nil {
		return err
	}

	o.status = newStatus
	t := now
	o.endTime = &t
	return nil
}

// Cancel moves any non-terminal status -> Cancelled, stamps cancelledAt and
// stores the reason. Cancelling a terminal order is rejected, not ignored.
func (o *Order) Cancel(reason string, now time.Time) error {
	if reason == "" {
		return ErrCancelReasonIsRequired
	}

	newStatus, err := o.status.TransitionTo(Cancelled)
	if err != nil {
		return err
	}

	o.status = newStatus
	t := now
	o.cancelledAt = &t
	o.cancelReason = reason
	return nil
}

// Reschedule replaces the order's time interval and, when driverID is not
// nil, its driver. Only callable while the order is active; the scheduling
// ledger move must already have succeeded.
func (o *Order) Reschedule(interval kernel.TimeInterval, driverID *kernel.UUID) error {
	if o.status.IsTerminal() {
		return ErrOrderIsTerminal
	}

	if err := interval.Validate(); err != nil {
		return err
	}

	if driverID != nil {
		if err := driverID.Validate(); err != nil {
			return err
		}
		id := *driverID
		o.driverID = &id
	}

	o.interval = interval
	return nil
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setPickup(p kernel.GeoPoint) error {
	if err := p.Validate(); err != nil {
		return err
	}
	o.pickup = p
	return nil
}

func (o *Order) setDropoff(p kernel.GeoPoint) error {
	if err := p.Validate(); err != nil {
		return err
	}
	o.dropoff = p
	return nil
}

func (o *Order) setInterval(iv kernel.TimeInterval) error {
	if err := iv.Validate(); err != nil {
		return err
	}
	o.interval = iv
	return nil
}

func (o *Order) setPriority(p Priority) error {
	if err := p.Validate(); err != nil {
		return err
	}
	o.priority = p
	return nil
}
