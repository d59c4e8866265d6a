package warehouse

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkotelnikov/pizzeria-backend/pkg/db/models"
	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
)

// BatchDTO is the API projection of an inventory batch.
type BatchDTO struct {
	ID            uuid.UUID         `json:"id"`
	WarehouseID   uuid.UUID         `json:"warehouseId"`
	ProductID     uuid.UUID         `json:"productId"`
	Quantity      int               `json:"quantity"`
	ExpiryDate    time.Time         `json:"expiryDate"`
	PurchasePrice decimal.Decimal   `json:"purchasePrice"`
	Supplier      string            `json:"supplier,omitempty"`
	Status        enums.BatchStatus `json:"status"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// OperationDTO is the API projection of one operation log row.
type OperationDTO struct {
	ID             uuid.UUID           `json:"id"`
	BatchID        uuid.UUID           `json:"batchId"`
	WarehouseID    uuid.UUID           `json:"warehouseId"`
	ProductID      uuid.UUID           `json:"productId"`
	Type           enums.OperationType `json:"type"`
	Quantity       int                 `json:"quantity"`
	QuantityBefore int                 `json:"quantityBefore"`
	QuantityAfter  int                 `json:"quantityAfter"`
	Reason         *string             `json:"reason,omitempty"`
	ReferenceID    *uuid.UUID          `json:"referenceId,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
}

func toBatchDTO(batch *models.WarehouseInventory) *BatchDTO {
	return &BatchDTO{
		ID:            batch.ID,
		WarehouseID:   batch.WarehouseID,
		ProductID:     batch.ProductID,
		Quantity:      batch.Quantity,
		ExpiryDate:    batch.ExpiryDate,
		PurchasePrice: batch.PurchasePrice,
		Supplier:      batch.Supplier,
		Status:        batch.Status,
		CreatedAt:     batch.CreatedAt,
	}
}

func toOperationDTO(op *models.WarehouseOperation) *OperationDTO {
	return &OperationDTO{
		ID:             op.ID,
		BatchID:        op.BatchID,
		WarehouseID:    op.WarehouseID,
		ProductID:      op.ProductID,
		Type:           op.Type,
		Quantity:       op.Quantity,
		QuantityBefore: op.QuantityBefore,
		QuantityAfter:  op.QuantityAfter,
		Reason:         op.Reason,
		ReferenceID:    op.ReferenceID,
		CreatedAt:      op.CreatedAt,
	}
}
