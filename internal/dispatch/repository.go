package dispatch

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

// activeStatuses are assignment states that still occupy the courier.
var activeStatuses = []enums.AssignmentStatus{
	enums.AssignmentStatusAssigned,
	enums.AssignmentStatusAccepted,
	enums.AssignmentStatusEnRoute,
	enums.AssignmentStatusPickedUp,
	enums.AssignmentStatusDelivering,
}

// Repository wires courier and assignment persistence.
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

// CreateCourier inserts a new courier row.
func (r *Repository) CreateCourier(ctx context.Context, courier *models.Courier) (*models.Courier, error) {
	if err := r.db.WithContext(ctx).Create(courier).Error; err != nil {
		return nil, err
	}
	return courier, nil
}

// FindCourierByID loads the courier without associations.
func (r *Repository) FindCourierByID(ctx context.Context, id uuid.UUID) (*models.Courier, error) {
	var courier models.Courier
	if err := r.db.WithContext(ctx).First(&courier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &courier, nil
}

// ListCouriers returns couriers, optionally filtered by status.
func (r *Repository) ListCouriers(ctx context.Context, status *enums.CourierStatus) ([]models.Courier, error) {
	query := r.db.WithContext(ctx).Order("name ASC")
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var couriers []models.Courier
	if err := query.Find(&couriers).Error; err != nil {
		return nil, err
	}
	return couriers, nil
}

// ClaimCourier flips an available courier to busy. The affected-rows count
// is the compare-and-swap result: zero means the courier was not available.
func (r *Repository) ClaimCourier(ctx context.Context, tx *gorm.DB, courierID uuid.UUID) (int64, error) {
	result := r.conn(tx).WithContext(ctx).
		Model(&models.Courier{}).
		Where("id = ? AND status = ?", courierID, enums.CourierStatusAvailable).
		Update("status", enums.CourierStatusBusy)
	return result.RowsAffected, result.Error
}

// SetCourierStatus writes the courier's status unconditionally.
func (r *Repository) SetCourierStatus(ctx context.Context, tx *gorm.DB, courierID uuid.UUID, status enums.CourierStatus) error {
	return r.conn(tx).WithContext(ctx).
		Model(&models.Courier{}).
		Where("id = ?", courierID).
		Update("status", status).Error
}

// CreateAssignment inserts a new assignment row.
func (r *Repository) CreateAssignment(ctx context.Context, tx *gorm.DB, assignment *models.CourierAssignment) (*models.CourierAssignment, error) {
	if err := r.conn(tx).WithContext(ctx).Create(assignment).Error; err != nil {
		return nil, err
	}
	return assignment, nil
}

// LockAssignmentByID loads the assignment row under FOR UPDATE.
func (r *Repository) LockAssignmentByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.CourierAssignment, error) {
	var assignment models.CourierAssignment
	err := r.conn(tx).WithContext(ctx).
		Clauses(forUpdate).
		First(&assignment, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// FindAssignmentByID loads the assignment without locking.
func (r *Repository) FindAssignmentByID(ctx context.Context, id uuid.UUID) (*models.CourierAssignment, error) {
	var assignment models.CourierAssignment
	if err := r.db.WithContext(ctx).First(&assignment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

// timestampColumns maps each entered state to the column stamped on entry.
var timestampColumns = map[enums.AssignmentStatus]string{
	enums.AssignmentStatusAccepted:   "accepted_at",
	enums.AssignmentStatusRejected:   "rejected_at",
	enums.AssignmentStatusEnRoute:    "en_route_at",
	enums.AssignmentStatusPickedUp:   "picked_up_at",
	enums.AssignmentStatusDelivering: "delivering_at",
	enums.AssignmentStatusDelivered:  "delivered_at",
	enums.AssignmentStatusCancelled:  "cancelled_at",
}

// UpdateAssignmentStatus persists the status and stamps the matching
// timestamp column once.
func (r *Repository) UpdateAssignmentStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status enums.AssignmentStatus) error {
	updates := map[string]any{"status": status}
	if column, ok := timestampColumns[status]; ok {
		updates[column] = time.Now()
	}
	return r.conn(tx).WithContext(ctx).
		Model(&models.CourierAssignment{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// CountActiveAssignments counts the courier's assignments still in an active
// state, excluding one assignment id.
func (r *Repository) CountActiveAssignments(ctx context.Context, tx *gorm.DB, courierID, excludeID uuid.UUID) (int64, error) {
	var count int64
	err := r.conn(tx).WithContext(ctx).
		Model(&models.CourierAssignment{}).
		Where("courier_id = ? AND id <> ?", courierID, excludeID).
		Where("status IN ?", activeStatuses).
		Count(&count).Error
	return count, err
}

// ListAssignmentsByOrder returns the order's assignments, newest first.
func (r *Repository) ListAssignmentsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.CourierAssignment, error) {
	var assignments []models.CourierAssignment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("assigned_at DESC").
		Find(&assignments).Error
	return assignments, err
}

// InsertLocation appends one location sample.
func (r *Repository) InsertLocation(ctx context.Context, tx *gorm.DB, sample *models.CourierLocation) error {
	return r.conn(tx).WithContext(ctx).Create(sample).Error
}

// UpdateCourierLocation denormalizes the latest sample onto the courier row.
// Samples can arrive out of order, so a row holding a newer timestamp is left
// untouched.
func (r *Repository) UpdateCourierLocation(ctx context.Context, tx *gorm.DB, courierID uuid.UUID, lat, lng float64, recordedAt time.Time) error {
	return r.conn(tx).WithContext(ctx).
		Model(&models.Courier{}).
		Where("id = ?", courierID).
		Where("location_at IS NULL OR location_at <= ?", recordedAt).
		Updates(map[string]any{
			"current_lat": lat,
			"current_lng": lng,
			"location_at": recordedAt,
		}).Error
}

// ListLocations returns the courier's samples within the window, newest
// first.
func (r *Repository) ListLocations(ctx context.Context, courierID uuid.UUID, since time.Time, limit int) ([]models.CourierLocation, error) {
	query := r.db.WithContext(ctx).
		Where("courier_id = ?", courierID).
		Order("recorded_at DESC")
	if !since.IsZero() {
		query = query.Where("recorded_at >= ?", since)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var samples []models.CourierLocation
	if err := query.Find(&samples).Error; err != nil {
		return nil, err
	}
	return samples, nil
}
