package models

import (
	"time"

	"github.com/google/uuid"
)

// Warehouse is a physical stock location owning inventory batches.
type Warehouse struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string               `gorm:"column:name;not null"`
	Address   *string              `gorm:"column:address"`
	IsActive  bool                 `gorm:"column:is_active;not null;default:true"`
	Batches   []WarehouseInventory `gorm:"foreignKey:WarehouseID"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
