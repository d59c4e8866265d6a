package models

import (
	"time"

	"github.com/google/uuid"
)

// CourierLocation is one sample in the append-only location time series.
type CourierLocation struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CourierID  uuid.UUID `gorm:"column:courier_id;type:uuid;not null;index:ix_courier_locations_courier_time,priority:1"`
	Lat        float64   `gorm:"column:lat;not null"`
	Lng        float64   `gorm:"column:lng;not null"`
	RecordedAt time.Time `gorm:"column:recorded_at;not null;index:ix_courier_locations_courier_time,priority:2"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
