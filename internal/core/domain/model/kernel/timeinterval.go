package kernel

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// ErrTimeIntervalIsNotConstructed is returned when attempting to use an
// improperly initialized TimeInterval. Intervals must be created via
// NewTimeInterval.
var ErrTimeIntervalIsNotConstructed = errs.NewValueIsRequiredError(
	"time interval must be created via NewTimeInterval constructor")

// TimeInterval is an immutable half-open time span [start, end).
// Two intervals that merely touch at a boundary do not overlap, so a
// delivery ending at 11:00 and one starting at 11:00 may share a driver.
// Instants keep their location, so comparisons are timezone-aware.
//
// Example:
//
//	iv, err := kernel.NewTimeInterval(start, start.Add(time.Hour))
//	if err != nil {
//	    // handle validation error
//	}
//	iv.Overlaps(other) // true only for a real intersection
type TimeInterval struct { //nolint:recvcheck //using for validation
	start time.Time
	end   time.Time
	guard guard.ConstructorGuard
}

// NewTimeInterval creates a TimeInterval after validating that both bounds
// are set and that end is strictly after start.
func NewTimeInterval(start, end time.Time) (TimeInterval, error) {
	iv := TimeInterval{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(iv.setStart(start), iv.setEnd(end)); err != nil {
		return TimeInterval{}, err
	}

	if !iv.end.After(iv.start) {
		return TimeInterval{}, errs.NewValueIsInvalidErrorWithCause("time interval",
			fmt.Errorf("end %s is not after start %s", end.Format(time.RFC3339), start.Format(time.RFC3339)))
	}

	return iv, nil
}

// Validate checks that the TimeInterval was created through its constructor.
func (iv TimeInterval) Validate() error {
	return iv.guard.Validate(ErrTimeIntervalIsNotConstructed)
}

// Start returns the inclusive lower bound.
func (iv TimeInterval) Start() time.Time {
	return iv.start
}

// End returns the exclusive upper bound.
func (iv TimeInterval) End() time.Time {
	return iv.end
}

// Duration returns end minus start.
func (iv TimeInterval) Duration() time.Duration {
	return iv.end.Sub(iv.start)
}

// Overlaps reports whether two half-open intervals intersect.
// Adjacent intervals ([10:00,11:00) and [11:00,12:00)) do not overlap.
func (iv TimeInterval) Overlaps(other TimeInterval) bool {
	return iv.start.Before(other.end) && other.start.Before(iv.end)
}

// Contains reports whether t falls within [start, end).
func (iv TimeInterval) Contains(t time.Time) bool {
	return !t.Before(iv.start) && t.Before(iv.end)
}

// IsEqual compares two intervals by their bounds (instant equality, so the
// same moment expressed in different zones compares equal).
func (iv TimeInterval) IsEqual(other TimeInterval) bool {
	return iv.start.Equal(other.start) && iv.end.Equal(other.end)
}

// String implements fmt.Stringer.
func (iv TimeInterval) String() string {
	return fmt.Sprintf("[%s, %s)", iv.start.Format(time.RFC3339), iv.end.Format(time.RFC3339))
}

// setStart sets the lower bound with validation.
// Pointer receiver for self-encapsulated validation during construction.
func (iv *TimeInterval) setStart(start time.Time) error {
	if start.IsZero() {
		return errs.NewValueIsRequiredError("time_start")
	}

	iv.start = start
	return nil
}

// setEnd sets the upper bound with validation.
// Pointer receiver for self-encapsulated validation during construction.
func (iv *TimeInterval) setEnd(end time.Time) error {
	if end.IsZero() {
		return errs.NewValueIsRequiredError("time_end")
	}

	iv.end = end
	return nil
}
