package order

import (
	"fmt"
	"strings"

	"dispatch/internal/pkg/errs"
)

// Priority ranks orders for assignment. Higher priorities are matched first
// during batch assignment; Urgent orders additionally qualify for the
// nearest-driver fast path.
type Priority int

const (
	// PriorityLow is below-default urgency.
	PriorityLow Priority = iota + 1
	// PriorityNormal is the default for new orders.
	PriorityNormal
	// PriorityHigh is above-default urgency.
	PriorityHigh
	// PriorityUrgent requests immediate nearest-driver assignment.
	PriorityUrgent
)

func priorityStrings() map[Priority]string {
	return map[Priority]string{
		PriorityLow:    "Low",
		PriorityNormal: "Normal",
		PriorityHigh:   "High",
		PriorityUrgent: "Urgent",
	}
}

// String returns the human-readable name of the priority.
func (p Priority) String() string {
	if str, ok := priorityStrings()[p]; ok {
		return str
	}
	return "Unknown"
}

// ParsePriority maps a priority name back to its value, ignoring case.
// An empty name parses to PriorityNormal.
func ParsePriority(name string) (Priority, error) {
	if name == "" {
		return PriorityNormal, nil
	}
	for p, str := range priorityStrings() {
		if strings.EqualFold(str, name) {
			return p, nil
		}
	}
	return 0, errs.NewValueIsInvalidErrorWithCause("priority",
		fmt.Errorf("%q is not a valid priority", name))
}

// Validate checks that the Priority is one of the defined levels.
func (p Priority) Validate() error {
	if _, ok := priorityStrings()[p]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("priority",
			fmt.Errorf("%d is not a valid priority", p))
	}
	return nil
}
