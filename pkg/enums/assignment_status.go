package enums

import "fmt"

// AssignmentStatus tracks a courier assignment lifecycle.
type AssignmentStatus string

const (
	AssignmentStatusAssigned   AssignmentStatus = "assigned"
	AssignmentStatusAccepted   AssignmentStatus = "accepted"
	AssignmentStatusRejected   AssignmentStatus = "rejected"
	AssignmentStatusEnRoute    AssignmentStatus = "en_route"
	AssignmentStatusPickedUp   AssignmentStatus = "picked_up"
	AssignmentStatusDelivering AssignmentStatus = "delivering"
	AssignmentStatusDelivered  AssignmentStatus = "delivered"
	AssignmentStatusCancelled  AssignmentStatus = "cancelled"
)

var validAssignmentStatuses = []AssignmentStatus{
	AssignmentStatusAssigned,
	AssignmentStatusAccepted,
	AssignmentStatusRejected,
	AssignmentStatusEnRoute,
	AssignmentStatusPickedUp,
	AssignmentStatusDelivering,
	AssignmentStatusDelivered,
	AssignmentStatusCancelled,
}

// String implements fmt.Stringer.
func (a AssignmentStatus) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AssignmentStatus.
func (a AssignmentStatus) IsValid() bool {
	for _, candidate := range validAssignmentStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the assignment can no longer change state.
func (a AssignmentStatus) IsTerminal() bool {
	switch a {
	case AssignmentStatusDelivered, AssignmentStatusCancelled, AssignmentStatusRejected:
		return true
	default:
		return false
	}
}

// ParseAssignmentStatus converts raw input into an AssignmentStatus.
func ParseAssignmentStatus(value string) (AssignmentStatus, error) {
	for _, candidate := range validAssignmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid assignment status %q", value)
}
