package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
)

// WarehouseInventory is one batch of one product at one warehouse. Multiple
// batches per product coexist; withdrawals consume the earliest expiry first.
// The expiry_date index backs FEFO batch selection.
type WarehouseInventory struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WarehouseID   uuid.UUID         `gorm:"column:warehouse_id;type:uuid;not null;index"`
	ProductID     uuid.UUID         `gorm:"column:product_id;type:uuid;not null;index:ix_warehouse_inventory_fefo,priority:1"`
	Quantity      int               `gorm:"column:quantity;not null"`
	ExpiryDate    time.Time         `gorm:"column:expiry_date;type:date;not null;index:ix_warehouse_inventory_fefo,priority:2"`
	PurchasePrice decimal.Decimal   `gorm:"column:purchase_price;type:decimal(12,2);not null;default:0"`
	Supplier      string            `gorm:"column:supplier"`
	Status        enums.BatchStatus `gorm:"column:status;type:batch_status;not null;default:'available'"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the singular-warehouse compound name.
func (WarehouseInventory) TableName() string { return "warehouse_inventory" }
