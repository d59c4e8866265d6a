package integrations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mkotelnikov/pizzeria-backend/pkg/db/models"
	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
)

// Repository wires sync log persistence.
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

// Insert records a sync row, optionally inside the caller's transaction.
func (r *Repository) Insert(ctx context.Context, tx *gorm.DB, row *models.IntegrationSync) error {
	return r.conn(tx).WithContext(ctx).Create(row).Error
}

// FetchRetryable returns pending and failed rows that still have attempts
// left, oldest first.
func (r *Repository) FetchRetryable(ctx context.Context, maxAttempts, limit int) ([]models.IntegrationSync, error) {
	var rows []models.IntegrationSync
	err := r.db.WithContext(ctx).
		Where("status IN ?", []enums.SyncStatus{enums.SyncStatusPending, enums.SyncStatusFailed}).
		Where("retry_count < ?", maxAttempts).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// MarkSuccess flips the row to success and stamps synced_at.
func (r *Repository) MarkSuccess(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.IntegrationSync{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":    enums.SyncStatusSuccess,
			"synced_at": time.Now(),
		}).Error
}

// MarkFailure flips the row to failed, records the error, and bumps the
// retry counter.
func (r *Repository) MarkFailure(ctx context.Context, id uuid.UUID, cause error) error {
	return r.db.WithContext(ctx).
		Model(&models.IntegrationSync{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":      enums.SyncStatusFailed,
			"last_error":  cause.Error(),
			"retry_count": gorm.Expr("retry_count + 1"),
		}).Error
}
