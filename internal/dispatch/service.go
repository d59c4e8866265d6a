package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mkotelnikov/pizzeria-backend/pkg/db"
	"github.com/mkotelnikov/pizzeria-backend/pkg/db/models"
	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/mkotelnikov/pizzeria-backend/pkg/errors"
	"github.com/mkotelnikov/pizzeria-backend/pkg/logger"
)

// Service exposes courier dispatch operations.
type Service interface {
	CreateCourier(ctx context.Context, input CreateCourierInput) (*CourierDTO, error)
	SetCourierStatus(ctx context.Context, courierID uuid.UUID, status enums.CourierStatus) (*CourierDTO, error)
	ListCouriers(ctx context.Context, status *enums.CourierStatus) ([]CourierDTO, error)
	AssignOrder(ctx context.Context, orderID, courierID uuid.UUID) (*AssignmentDTO, error)
	Transition(ctx context.Context, assignmentID uuid.UUID, next enums.AssignmentStatus) (*AssignmentDTO, error)
	RecordLocation(ctx context.Context, courierID uuid.UUID, lat, lng float64, recordedAt time.Time) error
	ListLocations(ctx context.Context, courierID uuid.UUID, since time.Time, limit int) ([]LocationDTO, error)
}

// CreateCourierInput holds the validated payload to register a courier.
type CreateCourierInput struct {
	UserID *uuid.UUID
	Name   string
	Phone  string
}

type repository interface {
	CreateCourier(ctx context.Context, courier *models.Courier) (*models.Courier, error)
	FindCourierByID(ctx context.Context, id uuid.UUID) (*models.Courier, error)
	ListCouriers(ctx context.Context, status *enums.CourierStatus) ([]models.Courier, error)
	ClaimCourier(ctx context.Context, tx *gorm.DB, courierID uuid.UUID) (int64, error)
	SetCourierStatus(ctx context.Context, tx *gorm.DB, courierID uuid.UUID, status enums.CourierStatus) error
	CreateAssignment(ctx context.Context, tx *gorm.DB, assignment *models.CourierAssignment) (*models.CourierAssignment, error)
	LockAssignmentByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.CourierAssignment, error)
	FindAssignmentByID(ctx context.Context, id uuid.UUID) (*models.CourierAssignment, error)
	UpdateAssignmentStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status enums.AssignmentStatus) error
	CountActiveAssignments(ctx context.Context, tx *gorm.DB, courierID, excludeID uuid.UUID) (int64, error)
	InsertLocation(ctx context.Context, tx *gorm.DB, sample *models.CourierLocation) error
	UpdateCourierLocation(ctx context.Context, tx *gorm.DB, courierID uuid.UUID, lat, lng float64, recordedAt time.Time) error
	ListLocations(ctx context.Context, courierID uuid.UUID, since time.Time, limit int) ([]models.CourierLocation, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type service struct {
	repo   repository
	tx     txRunner
	orders orderReader
	logg   *logger.Logger
}

// NewService constructs a dispatch service instance.
func NewService(repo repository, tx txRunner, orders orderReader, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dispatch repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order reader required")
	}
	return &service{repo: repo, tx: tx, orders: orders, logg: logg}, nil
}

func (s *service) CreateCourier(ctx context.Context, input CreateCourierInput) (*CourierDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "courier name is required")
	}
	phone := strings.TrimSpace(input.Phone)
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "courier phone is required")
	}
	courier := &models.Courier{
		UserID: input.UserID,
		Name:   name,
		Phone:  phone,
		Status: enums.CourierStatusOffline,
	}
	created, err := s.repo.CreateCourier(ctx, courier)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating courier")
	}
	return toCourierDTO(created), nil
}

// SetCourierStatus handles manual status changes: going on shift, taking a
// break, going home. Busy is owned by the assignment flow and cannot be set
// by hand.
func (s *service) SetCourierStatus(ctx context.Context, courierID uuid.UUID, status enums.CourierStatus) (*CourierDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown courier status")
	}
	if status == enums.CourierStatusBusy {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "busy is set by order assignment")
	}

	courier, err := s.repo.FindCourierByID(ctx, courierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "courier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading courier")
	}
	if courier.Status == enums.CourierStatusBusy {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "courier has an active delivery")
	}

	if err := s.repo.SetCourierStatus(ctx, nil, courierID, status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating courier status")
	}
	courier.Status = status
	return toCourierDTO(courier), nil
}

func (s *service) ListCouriers(ctx context.Context, status *enums.CourierStatus) ([]CourierDTO, error) {
	couriers, err := s.repo.ListCouriers(ctx, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing couriers")
	}
	result := make([]CourierDTO, 0, len(couriers))
	for i := range couriers {
		result = append(result, *toCourierDTO(&couriers[i]))
	}
	return result, nil
}

// AssignOrder hands the order to an available courier. The courier claim is
// a compare-and-swap on the status column, so two dispatchers racing for the
// same courier cannot both win.
func (s *service) AssignOrder(ctx context.Context, orderID, courierID uuid.UUID) (*AssignmentDTO, error) {
	if _, err := s.orders.FindByID(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if _, err := s.repo.FindCourierByID(ctx, courierID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "courier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading courier")
	}

	assignment := &models.CourierAssignment{
		OrderID:   orderID,
		CourierID: courierID,
		Status:    enums.AssignmentStatusAssigned,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		claimed, err := s.repo.ClaimCourier(ctx, tx, courierID)
		if err != nil {
			return err
		}
		if claimed == 0 {
			return pkgerrors.New(pkgerrors.CodeCourierUnavailable, "courier is not available").
				WithDetails(map[string]any{"courierId": courierID.String()})
		}
		_, err = s.repo.CreateAssignment(ctx, tx, assignment)
		return err
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		if db.IsUniqueViolation(err, "ux_courier_assignments_active_order") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "order already has an active assignment")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "assigning order")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":   orderID.String(),
			"courier_id": courierID.String(),
		})
		s.logg.Info(logCtx, "order assigned to courier")
	}
	return toAssignmentDTO(assignment), nil
}

// Transition moves the assignment along its state machine. Entering a
// terminal state frees the courier, but only when no other active assignment
// still holds them.
func (s *service) Transition(ctx context.Context, assignmentID uuid.UUID, next enums.AssignmentStatus) (*AssignmentDTO, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown assignment status")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		assignment, err := s.repo.LockAssignmentByID(ctx, tx, assignmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
			}
			return err
		}
		if !CanTransition(assignment.Status, next) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "assignment status transition disallowed").
				WithDetails(map[string]any{"from": assignment.Status.String(), "to": next.String()})
		}
		if err := s.repo.UpdateAssignmentStatus(ctx, tx, assignmentID, next); err != nil {
			return err
		}
		if next.IsTerminal() {
			active, err := s.repo.CountActiveAssignments(ctx, tx, assignment.CourierID, assignmentID)
			if err != nil {
				return err
			}
			if active == 0 {
				if err := s.repo.SetCourierStatus(ctx, tx, assignment.CourierID, enums.CourierStatusAvailable); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "transitioning assignment")
	}

	assignment, err := s.repo.FindAssignmentByID(ctx, assignmentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading assignment")
	}
	return toAssignmentDTO(assignment), nil
}

// RecordLocation appends one sample and refreshes the courier's denormalized
// position in the same transaction.
func (s *service) RecordLocation(ctx context.Context, courierID uuid.UUID, lat, lng float64, recordedAt time.Time) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return pkgerrors.New(pkgerrors.CodeValidation, "coordinate out of range")
	}
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}
	courier, err := s.repo.FindCourierByID(ctx, courierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "courier not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading courier")
	}

	// A late sample still lands in the log but must not clobber a newer
	// current location. The repository repeats this check in SQL against
	// concurrent writers.
	refresh := courier.LocationAt == nil || !courier.LocationAt.After(recordedAt)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		sample := &models.CourierLocation{
			CourierID:  courierID,
			Lat:        lat,
			Lng:        lng,
			RecordedAt: recordedAt,
		}
		if err := s.repo.InsertLocation(ctx, tx, sample); err != nil {
			return err
		}
		if !refresh {
			return nil
		}
		return s.repo.UpdateCourierLocation(ctx, tx, courierID, lat, lng, recordedAt)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording location")
	}
	return nil
}

func (s *service) ListLocations(ctx context.Context, courierID uuid.UUID, since time.Time, limit int) ([]LocationDTO, error) {
	samples, err := s.repo.ListLocations(ctx, courierID, since, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing locations")
	}
	result := make([]LocationDTO, 0, len(samples))
	for i := range samples {
		result = append(result, *toLocationDTO(&samples[i]))
	}
	return result, nil
}
