package dispatch

import (
	"time"

	"github.com/google/uuid"

	"github.com/mkotelnikov/pizzeria-backend/pkg/db/models"
	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
)

// CourierDTO is the API projection of a courier.
type CourierDTO struct {
	ID         uuid.UUID           `json:"id"`
	Name       string              `json:"name"`
	Phone      string              `json:"phone"`
	Status     enums.CourierStatus `json:"status"`
	CurrentLat *float64            `json:"currentLat,omitempty"`
	CurrentLng *float64            `json:"currentLng,omitempty"`
	LocationAt *time.Time          `json:"locationAt,omitempty"`
}

// AssignmentDTO is the API projection of an assignment.
type AssignmentDTO struct {
	ID           uuid.UUID              `json:"id"`
	OrderID      uuid.UUID              `json:"orderId"`
	CourierID    uuid.UUID              `json:"courierId"`
	Status       enums.AssignmentStatus `json:"status"`
	AssignedAt   time.Time              `json:"assignedAt"`
	AcceptedAt   *time.Time             `json:"acceptedAt,omitempty"`
	RejectedAt   *time.Time             `json:"rejectedAt,omitempty"`
	EnRouteAt    *time.Time             `json:"enRouteAt,omitempty"`
	PickedUpAt   *time.Time             `json:"pickedUpAt,omitempty"`
	DeliveringAt *time.Time             `json:"deliveringAt,omitempty"`
	DeliveredAt  *time.Time             `json:"deliveredAt,omitempty"`
	CancelledAt  *time.Time             `json:"cancelledAt,omitempty"`
}

// LocationDTO is one location sample.
type LocationDTO struct {
	CourierID  uuid.UUID `json:"courierId"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	RecordedAt time.Time `json:"recordedAt"`
}

func toCourierDTO(courier *models.Courier) *CourierDTO {
	return &CourierDTO{
		ID:         courier.ID,
		Name:       courier.Name,
		Phone:      courier.Phone,
		Status:     courier.Status,
		CurrentLat: courier.CurrentLat,
		CurrentLng: courier.CurrentLng,
		LocationAt: courier.LocationAt,
	}
}

func toAssignmentDTO(assignment *models.CourierAssignment) *AssignmentDTO {
	return &AssignmentDTO{
		ID:           assignment.ID,
		OrderID:      assignment.OrderID,
		CourierID:    assignment.CourierID,
		Status:       assignment.Status,
		AssignedAt:   assignment.AssignedAt,
		AcceptedAt:   assignment.AcceptedAt,
		RejectedAt:   assignment.RejectedAt,
		EnRouteAt:    assignment.EnRouteAt,
		PickedUpAt:   assignment.PickedUpAt,
		DeliveringAt: assignment.DeliveringAt,
		DeliveredAt:  assignment.DeliveredAt,
		CancelledAt:  assignment.CancelledAt,
	}
}

func toLocationDTO(sample *models.CourierLocation) *LocationDTO {
	return &LocationDTO{
		CourierID:  sample.CourierID,
		Lat:        sample.Lat,
		Lng:        sample.Lng,
		RecordedAt: sample.RecordedAt,
	}
}
