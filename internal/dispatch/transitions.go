package dispatch

import (
	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
)

// assignmentTransitions is the forward-only assignment state machine. An
// assignment can be cancelled from any active state; rejected, delivered,
// and cancelled are terminal.
var assignmentTransitions = map[enums.AssignmentStatus][]enums.AssignmentStatus{
	enums.AssignmentStatusAssigned:   {enums.AssignmentStatusAccepted, enums.AssignmentStatusRejected, enums.AssignmentStatusCancelled},
	enums.AssignmentStatusAccepted:   {enums.AssignmentStatusEnRoute, enums.AssignmentStatusCancelled},
	enums.AssignmentStatusEnRoute:    {enums.AssignmentStatusPickedUp, enums.AssignmentStatusCancelled},
	enums.AssignmentStatusPickedUp:   {enums.AssignmentStatusDelivering, enums.AssignmentStatusCancelled},
	enums.AssignmentStatusDelivering: {enums.AssignmentStatusDelivered, enums.AssignmentStatusCancelled},
	enums.AssignmentStatusRejected:   {},
	enums.AssignmentStatusDelivered:  {},
	enums.AssignmentStatusCancelled:  {},
}

// CanTransition reports whether moving from one assignment status to another
// is allowed.
func CanTransition(from, to enums.AssignmentStatus) bool {
	for _, next := range assignmentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
