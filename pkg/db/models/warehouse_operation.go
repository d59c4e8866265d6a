package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
)

// WarehouseOperation is an immutable log entry of one quantity change against
// one batch. Rows are never updated or deleted; corrections append inverse
// entries. QuantityBefore/QuantityAfter snapshot the batch around the change
// so the balance is auditable without replaying the full log.
type WarehouseOperation struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BatchID        uuid.UUID           `gorm:"column:batch_id;type:uuid;not null;index"`
	WarehouseID    uuid.UUID           `gorm:"column:warehouse_id;type:uuid;not null"`
	ProductID      uuid.UUID           `gorm:"column:product_id;type:uuid;not null;index"`
	Type           enums.OperationType `gorm:"column:type;type:operation_type;not null"`
	Quantity       int                 `gorm:"column:quantity;not null"`
	QuantityBefore int                 `gorm:"column:quantity_before;not null"`
	QuantityAfter  int                 `gorm:"column:quantity_after;not null"`
	Reason         *string             `gorm:"column:reason"`
	ReferenceID    *uuid.UUID          `gorm:"column:reference_id;type:uuid"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
}
