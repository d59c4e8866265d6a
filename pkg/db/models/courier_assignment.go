package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
)

// CourierAssignment links one order to one courier. Transition timestamps are
// set once when the matching state is entered and never rewritten.
type CourierAssignment struct {
	ID           uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID              `gorm:"column:order_id;type:uuid;not null;index"`
	CourierID    uuid.UUID              `gorm:"column:courier_id;type:uuid;not null;index"`
	Status       enums.AssignmentStatus `gorm:"column:status;type:assignment_status;not null;default:'assigned'"`
	AssignedAt   time.Time              `gorm:"column:assigned_at;autoCreateTime"`
	AcceptedAt   *time.Time             `gorm:"column:accepted_at"`
	RejectedAt   *time.Time             `gorm:"column:rejected_at"`
	EnRouteAt    *time.Time             `gorm:"column:en_route_at"`
	PickedUpAt   *time.Time             `gorm:"column:picked_up_at"`
	DeliveringAt *time.Time             `gorm:"column:delivering_at"`
	DeliveredAt  *time.Time             `gorm:"column:delivered_at"`
	CancelledAt  *time.Time             `gorm:"column:cancelled_at"`
}
