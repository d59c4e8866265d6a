package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mkotelnikov/pizzeria-backend/pkg/db/models"
	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
)

// Repository wires order persistence. Mutating methods take an optional
// transaction handle; nil falls back to the pooled connection.
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

// NextOrderNumber draws the next value from the order number sequence.
func (r *Repository) NextOrderNumber(ctx context.Context, tx *gorm.DB) (int64, error) {
	var number int64
	err := r.conn(tx).WithContext(ctx).
		Raw("SELECT nextval('order_number_seq')").
		Scan(&number).Error
	return number, err
}

// Create inserts the order together with its line items.
func (r *Repository) Create(ctx context.Context, tx *gorm.DB, order *models.Order) (*models.Order, error) {
	if err := r.conn(tx).WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// FindByID loads the order with its line items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// LockByID loads the order row under FOR UPDATE for a status transition.
func (r *Repository) LockByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.conn(tx).WithContext(ctx).
		Clauses(forUpdate).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateStatus persists a status change and its timestamp markers. The
// delivered/cancelled timestamps are written once, on entry into the state.
func (r *Repository) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status enums.OrderStatus) error {
	updates := map[string]any{"status": status}
	now := time.Now()
	switch status {
	case enums.OrderStatusDelivered:
		updates["delivered_at"] = now
	case enums.OrderStatusCancelled:
		updates["cancelled_at"] = now
	}
	return r.conn(tx).WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// List returns orders ordered newest first, optionally filtered by status.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC, id DESC")
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", filter.Cursor.CreatedAt, filter.Cursor.ID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	var rows []models.Order
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
