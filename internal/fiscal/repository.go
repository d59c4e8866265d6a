package fiscal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mkotelnikov/pizzeria-backend/pkg/db/models"
	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
)

var forUpdate = clause.Locking{Strength: "UPDATE"}

// Repository wires shift and receipt persistence.
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

// CreateShift inserts a new shift row.
func (r *Repository) CreateShift(ctx context.Context, shift *models.Shift) (*models.Shift, error) {
	if err := r.db.WithContext(ctx).Create(shift).Error; err != nil {
		return nil, err
	}
	return shift, nil
}

// FindShiftByID loads the shift without associations.
func (r *Repository) FindShiftByID(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
	var shift models.Shift
	if err := r.db.WithContext(ctx).First(&shift, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &shift, nil
}

// FindOpenShiftByCashier returns the cashier's open shift, if any.
func (r *Repository) FindOpenShiftByCashier(ctx context.Context, cashierID uuid.UUID) (*models.Shift, error) {
	var shift models.Shift
	err := r.db.WithContext(ctx).
		Where("cashier_id = ? AND status = ?", cashierID, enums.ShiftStatusOpen).
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

// LockShiftByID loads the shift row under FOR UPDATE.
func (r *Repository) LockShiftByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Shift, error) {
	var shift models.Shift
	err := r.conn(tx).WithContext(ctx).
		Clauses(forUpdate).
		First(&shift, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

// CloseShift flips an open shift to closed and stamps closed_at once. The
// affected-rows count tells the caller whether the shift was still open.
func (r *Repository) CloseShift(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error) {
	result := r.conn(tx).WithContext(ctx).
		Model(&models.Shift{}).
		Where("id = ? AND status = ?", id, enums.ShiftStatusOpen).
		Updates(map[string]any{
			"status":    enums.ShiftStatusClosed,
			"closed_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

// IncrementShiftTotals bumps the receipt counter and the per-method total in
// place. Totals are never recomputed by scanning receipts.
func (r *Repository) IncrementShiftTotals(ctx context.Context, tx *gorm.DB, shiftID uuid.UUID, method enums.PaymentMethod, amount decimal.Decimal) error {
	column := totalColumnFor(method)
	return r.conn(tx).WithContext(ctx).
		Model(&models.Shift{}).
		Where("id = ?", shiftID).
		Updates(map[string]any{
			"receipt_count": gorm.Expr("receipt_count + 1"),
			column:          gorm.Expr(column+" + ?", amount),
		}).Error
}

func totalColumnFor(method enums.PaymentMethod) string {
	switch method {
	case enums.PaymentMethodCard:
		return "total_card"
	case enums.PaymentMethodOnline:
		return "total_online"
	default:
		return "total_cash"
	}
}

// CreateReceipt inserts a receipt row inside the caller's transaction.
func (r *Repository) CreateReceipt(ctx context.Context, tx *gorm.DB, receipt *models.FiscalReceipt) (*models.FiscalReceipt, error) {
	if err := r.conn(tx).WithContext(ctx).Create(receipt).Error; err != nil {
		return nil, err
	}
	return receipt, nil
}

// FindReceiptByOrder returns the receipt for the order, if one exists.
func (r *Repository) FindReceiptByOrder(ctx context.Context, orderID uuid.UUID) (*models.FiscalReceipt, error) {
	var receipt models.FiscalReceipt
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&receipt).Error
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// ListReceiptsByShift returns the shift's receipts, oldest first.
func (r *Repository) ListReceiptsByShift(ctx context.Context, shiftID uuid.UUID) ([]models.FiscalReceipt, error) {
	var receipts []models.FiscalReceipt
	err := r.db.WithContext(ctx).
		Where("shift_id = ?", shiftID).
		Order("created_at ASC").
		Find(&receipts).Error
	return receipts, err
}
