package orders

import (
	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
)

// allowedTransitions is the forward-only order state machine. Cancellation is
// reachable from every non-terminal state; nothing leaves a terminal state.
var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusAccepted:    {enums.OrderStatusPreparing, enums.OrderStatusCancelled},
	enums.OrderStatusPreparing:   {enums.OrderStatusReady, enums.OrderStatusCancelled},
	enums.OrderStatusReady:       {enums.OrderStatusWithCourier, enums.OrderStatusCancelled},
	enums.OrderStatusWithCourier: {enums.OrderStatusInTransit, enums.OrderStatusCancelled},
	enums.OrderStatusInTransit:   {enums.OrderStatusDelivered, enums.OrderStatusCancelled},
	enums.OrderStatusDelivered:   {},
	enums.OrderStatusCancelled:   {},
}

// CanTransition reports whether moving from one order status to another is
// allowed.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
