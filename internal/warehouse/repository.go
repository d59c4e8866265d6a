package warehouse

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mkotelnikov/pizzeria-backend/pkg/db/models"
	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
)

var forUpdate = clause.Locking{Strength: "UPDATE"}

// Repository wires batch and operation persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// CreateBatch inserts a new inventory batch row.
func (r *Repository) CreateBatch(ctx context.Context, tx *gorm.DB, batch *models.WarehouseInventory) (*models.WarehouseInventory, error) {
	if err := r.conn(tx).WithContext(ctx).Create(batch).Error; err != nil {
		return nil, err
	}
	return batch, nil
}

// LockBatchesFEFO loads the product's available batches at the warehouse
// under FOR UPDATE, earliest expiry first with id as the tiebreak. This is
// the FEFO candidate set for a withdrawal.
func (r *Repository) LockBatchesFEFO(ctx context.Context, tx *gorm.DB, warehouseID, productID uuid.UUID) ([]models.WarehouseInventory, error) {
	var batches []models.WarehouseInventory
	err := r.conn(tx).WithContext(ctx).
		Clauses(forUpdate).
		Where("warehouse_id = ? AND product_id = ?", warehouseID, productID).
		Where("status = ? AND quantity > 0", enums.BatchStatusAvailable).
		Order("expiry_date ASC").
		Order("id ASC").
		Find(&batches).Error
	return batches, err
}

// LockBatchByID loads one batch under FOR UPDATE.
func (r *Repository) LockBatchByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.WarehouseInventory, error) {
	var batch models.WarehouseInventory
	err := r.conn(tx).WithContext(ctx).
		Clauses(forUpdate).
		First(&batch, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// UpdateBatchQuantity writes the batch's new quantity and status.
func (r *Repository) UpdateBatchQuantity(ctx context.Context, tx *gorm.DB, id uuid.UUID, quantity int, status enums.BatchStatus) error {
	return r.conn(tx).WithContext(ctx).
		Model(&models.WarehouseInventory{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"quantity": quantity,
			"status":   status,
		}).Error
}

// AppendOperation inserts one immutable operation log row.
func (r *Repository) AppendOperation(ctx context.Context, tx *gorm.DB, op *models.WarehouseOperation) error {
	return r.conn(tx).WithContext(ctx).Create(op).Error
}

// ListBatches returns the product's batches at the warehouse, earliest
// expiry first.
func (r *Repository) ListBatches(ctx context.Context, warehouseID, productID uuid.UUID) ([]models.WarehouseInventory, error) {
	var batches []models.WarehouseInventory
	err := r.db.WithContext(ctx).
		Where("warehouse_id = ? AND product_id = ?", warehouseID, productID).
		Order("expiry_date ASC").
		Order("id ASC").
		Find(&batches).Error
	return batches, err
}

// ListExpiringBatches returns available batches expiring on or before the
// cutoff date, earliest expiry first.
func (r *Repository) ListExpiringBatches(ctx context.Context, cutoff time.Time) ([]models.WarehouseInventory, error) {
	var batches []models.WarehouseInventory
	err := r.db.WithContext(ctx).
		Where("status = ? AND quantity > 0", enums.BatchStatusAvailable).
		Where("expiry_date <= ?", cutoff).
		Order("expiry_date ASC").
		Order("id ASC").
		Find(&batches).Error
	return batches, err
}

// ListOperations returns the batch's operation log, oldest first.
func (r *Repository) ListOperations(ctx context.Context, batchID uuid.UUID) ([]models.WarehouseOperation, error) {
	var ops []models.WarehouseOperation
	err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at ASC").
		Find(&ops).Error
	return ops, err
}
