package driver

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

// Status describes the driver's availability for dispatch.
type Status int

const (
	// StatusUnknown represents an invalid or undefined status.
	StatusUnknown Status = iota

	// StatusAvailable means the driver can receive assignments.
	StatusAvailable

	// StatusBusy means the driver is executing an order.
	StatusBusy

	// StatusOffline means the driver is not working and must not be
	// considered by the assignment engine or nearest-driver queries.
	StatusOffline
)

func statusStrings() map[Status]string {
	return map[Status]string{
		StatusUnknown:   "Unknown",
		StatusAvailable: "Available",
		StatusBusy:      "Busy",
		StatusOffline:   "Offline",
	}
}

// String returns the human-readable name of the status.
func (s Status) String() string {
	if str, ok := statusStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// Validate checks that the Status is one of the defined states.
func (s Status) Validate() error {
	if s == StatusUnknown {
		return errs.NewValueIsRequiredError("status")
	}
	if _, ok := statusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status",
			fmt.Errorf("%d is not a valid driver status", s))
	}
	return nil
}
