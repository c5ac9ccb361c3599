package order

import (
	"errors"
	"fmt"
)

// Status represents the lifecycle state of a delivery order.
//
// The lifecycle forms a directed path with a cancellation escape hatch:
//
//	Pending -> Assigned -> EnRoutePickup -> DriverArrived -> InProgress -> Completed
//
// with Cancelled reachable from every non-terminal state. Completed and
// Cancelled are terminal: no transition leaves them, and re-entering a
// terminal state is rejected rather than treated as a no-op.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// Pending is the initial status: the order awaits a driver.
	Pending

	// Assigned indicates a driver holds a reservation for the order.
	Assigned

	// EnRoutePickup indicates the driver is traveling to the pickup point.
	EnRoutePickup

	// DriverArrived indicates the driver reached the pickup point.
	DriverArrived

	// InProgress indicates the delivery trip is underway.
	InProgress

	// Completed indicates the order was delivered. Terminal.
	Completed

	// Cancelled indicates the order was abandoned. Terminal.
	Cancelled
)

// ErrTransitionNotAllowed is the sentinel for illegal lifecycle transitions.
// Callers must not retry a rejected transition automatically.
var ErrTransitionNotAllowed = errors.New("order status transition not allowed")

// TransitionNotAllowedError reports an attempted transition outside the
// lifecycle table.
type TransitionNotAllowedError struct {
	From Status
	To   Status
}

func (e *TransitionNotAllowedError) Error() string {
	return fmt.Sprintf("order status transition not allowed: %s -> %s", e.From, e.To)
}

func (e *TransitionNotAllowedError) Unwrap() error {
	return ErrTransitionNotAllowed
}

// allowedTransitions encodes the lifecycle as a directed graph.
// Terminal states map to nil: nothing leaves them.
var allowedTransitions = map[Status][]Status{
	Pending:       {Assigned, Cancelled},
	Assigned:      {EnRoutePickup, Cancelled},
	EnRoutePickup: {DriverArrived, Cancelled},
	DriverArrived: {InProgress, Cancelled},
	InProgress:    {Completed, Cancelled},
	Completed:     nil,
	Cancelled:     nil,
}

func statusStrings() map[Status]string {
	return map[Status]string{
		Unknown:       "Unknown",
		Pending:       "Pending",
		Assigned:      "Assigned",
		EnRoutePickup: "EnRoutePickup",
		DriverArrived: "DriverArrived",
		InProgress:    "InProgress",
		Completed:     "Completed",
		Cancelled:     "Cancelled",
	}
}

// String returns the human-readable name of the status.
// Implements fmt.Stringer; safe to call on invalid values.
func (s Status) String() string {
	if str, ok := statusStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// Validate checks that the Status is one of the defined lifecycle states.
// Used when reconstructing orders from persistence or external input.
func (s Status) Validate() error {
	if _, ok := allowedTransitions[s]; !ok {
		return &TransitionNotAllowedError{From: Unknown, To: s}
	}
	return nil
}

// IsTerminal reports whether the status absorbs all further transitions.
func (s Status) IsTerminal() bool {
	return s == Completed || s == Cancelled
}

// IsActive reports whether an order in this status holds a live scheduling
// reservation. Active means any non-terminal assigned-or-later state plus
// Pending (which may already own a time slot awaiting assignment).
func (s Status) IsActive() bool {
	return !s.IsTerminal()
}

// CanTransitionTo reports whether the lifecycle table allows s -> to.
func (s Status) CanTransitionTo(to Status) bool {
	for _, next := range allowedTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionTo returns the new status if the table allows the move, or a
// TransitionNotAllowedError describing the rejected pair.
func (s Status) TransitionTo(to Status) (Status, error) {
	if !s.CanTransitionTo(to) {
		return Unknown, &TransitionNotAllowedError{From: s, To: to}
	}
	return to, nil
}
