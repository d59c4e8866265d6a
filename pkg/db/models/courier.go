package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
)

// Courier is a delivery driver. CurrentLat/CurrentLng denormalize the latest
// location sample and stay nil until the first report.
type Courier struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      *uuid.UUID          `gorm:"column:user_id;type:uuid"`
	Name        string              `gorm:"column:name;not null"`
	Phone       string              `gorm:"column:phone;not null"`
	Status      enums.CourierStatus `gorm:"column:status;type:courier_status;not null;default:'offline'"`
	CurrentLat  *float64            `gorm:"column:current_lat"`
	CurrentLng  *float64            `gorm:"column:current_lng"`
	LocationAt  *time.Time          `gorm:"column:location_at"`
	Assignments []CourierAssignment `gorm:"foreignKey:CourierID"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
