package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mkotelnikov/pizzeria-backend/pkg/db/models"
	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/mkotelnikov/pizzeria-backend/pkg/errors"
)

type stubRepo struct {
	couriers    map[uuid.UUID]*models.Courier
	assignments map[uuid.UUID]*models.CourierAssignment
	locations   []models.CourierLocation
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		couriers:    map[uuid.UUID]*models.Courier{},
		assignments: map[uuid.UUID]*models.CourierAssignment{},
	}
}

func (s *stubRepo) CreateCourier(_ context.Context, courier *models.Courier) (*models.Courier, error) {
	if courier.ID == uuid.Nil {
		courier.ID = uuid.New()
	}
	s.couriers[courier.ID] = courier
	return courier, nil
}

func (s *stubRepo) FindCourierByID(_ context.Context, id uuid.UUID) (*models.Courier, error) {
	courier, ok := s.couriers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return courier, nil
}

func (s *stubRepo) ListCouriers(_ context.Context, status *enums.CourierStatus) ([]models.Courier, error) {
	var out []models.Courier
	for _, courier := range s.couriers {
		if status != nil && courier.Status != *status {
			continue
		}
		out = append(out, *courier)
	}
	return out, nil
}

func (s *stubRepo) ClaimCourier(_ context.Context, _ *gorm.DB, courierID uuid.UUID) (int64, error) {
	courier, ok := s.couriers[courierID]
	if !ok || courier.Status != enums.CourierStatusAvailable {
		return 0, nil
	}
	courier.Status = enums.CourierStatusBusy
	return 1, nil
}

func (s *stubRepo) SetCourierStatus(_ context.Context, _ *gorm.DB, courierID uuid.UUID, status enums.CourierStatus) error {
	courier, ok := s.couriers[courierID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	courier.Status = status
	return nil
}

func (s *stubRepo) CreateAssignment(_ context.Context, _ *gorm.DB, assignment *models.CourierAssignment) (*models.CourierAssignment, error) {
	if assignment.ID == uuid.Nil {
		assignment.ID = uuid.New()
	}
	if assignment.AssignedAt.IsZero() {
		assignment.AssignedAt = time.Now()
	}
	s.assignments[assignment.ID] = assignment
	return assignment, nil
}

func (s *stubRepo) LockAssignmentByID(ctx context.Context, _ *gorm.DB, id uuid.UUID) (*models.CourierAssignment, error) {
	return s.FindAssignmentByID(ctx, id)
}

func (s *stubRepo) FindAssignmentByID(_ context.Context, id uuid.UUID) (*models.CourierAssignment, error) {
	assignment, ok := s.assignments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return assignment, nil
}

func (s *stubRepo) UpdateAssignmentStatus(_ context.Context, _ *gorm.DB, id uuid.UUID, status enums.AssignmentStatus) error {
	assignment, ok := s.assignments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	assignment.Status = status
	now := time.Now()
	switch status {
	case enums.AssignmentStatusAccepted:
		assignment.AcceptedAt = &now
	case enums.AssignmentStatusRejected:
		assignment.RejectedAt = &now
	case enums.AssignmentStatusEnRoute:
		assignment.EnRouteAt = &now
	case enums.AssignmentStatusPickedUp:
		assignment.PickedUpAt = &now
	case enums.AssignmentStatusDelivering:
		assignment.DeliveringAt = &now
	case enums.AssignmentStatusDelivered:
		assignment.DeliveredAt = &now
	case enums.AssignmentStatusCancelled:
		assignment.CancelledAt = &now
	}
	return nil
}

func (s *stubRepo) CountActiveAssignments(_ context.Context, _ *gorm.DB, courierID, excludeID uuid.UUID) (int64, error) {
	var count int64
	for _, assignment := range s.assignments {
		if assignment.CourierID != courierID || assignment.ID == excludeID {
			continue
		}
		if !assignment.Status.IsTerminal() {
			count++
		}
	}
	return count, nil
}

func (s *stubRepo) ListAssignmentsByOrder(_ context.Context, orderID uuid.UUID) ([]models.CourierAssignment, error) {
	var out []models.CourierAssignment
	for _, assignment := range s.assignments {
		if assignment.OrderID == orderID {
			out = append(out, *assignment)
		}
	}
	return out, nil
}

func (s *stubRepo) InsertLocation(_ context.Context, _ *gorm.DB, sample *models.CourierLocation) error {
	s.locations = append(s.locations, *sample)
	return nil
}

func (s *stubRepo) UpdateCourierLocation(_ context.Context, _ *gorm.DB, courierID uuid.UUID, lat, lng float64, recordedAt time.Time) error {
	courier, ok := s.couriers[courierID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	courier.CurrentLat = &lat
	courier.CurrentLng = &lng
	courier.LocationAt = &recordedAt
	return nil
}

func (s *stubRepo) ListLocations(_ context.Context, courierID uuid.UUID, _ time.Time, _ int) ([]models.CourierLocation, error) {
	var out []models.CourierLocation
	for _, sample := range s.locations {
		if sample.CourierID == courierID {
			out = append(out, sample)
		}
	}
	return out, nil
}

type stubTx struct{}

func (stubTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOrders struct {
	rows map[uuid.UUID]*models.Order
}

func (s *stubOrders) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

type fixture struct {
	svc    Service
	repo   *stubRepo
	orders *stubOrders
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newStubRepo()
	orders := &stubOrders{rows: map[uuid.UUID]*models.Order{}}
	svc, err := NewService(repo, stubTx{}, orders, nil)
	require.NoError(t, err)
	return &fixture{svc: svc, repo: repo, orders: orders}
}

func (f *fixture) seedCourier(status enums.CourierStatus) uuid.UUID {
	id := uuid.New()
	f.repo.couriers[id] = &models.Courier{ID: id, Name: "Courier", Phone: "+7", Status: status}
	return id
}

func (f *fixture) seedOrder() uuid.UUID {
	id := uuid.New()
	f.orders.rows[id] = &models.Order{ID: id, Status: enums.OrderStatusReady}
	return id
}

func TestAssignOrder(t *testing.T) {
	f := newFixture(t)

	t.Run("success", func(t *testing.T) {
		courierID := f.seedCourier(enums.CourierStatusAvailable)
		orderID := f.seedOrder()

		dto, err := f.svc.AssignOrder(context.Background(), orderID, courierID)
		require.NoError(t, err)
		require.Equal(t, enums.AssignmentStatusAssigned, dto.Status)
		require.Equal(t, enums.CourierStatusBusy, f.repo.couriers[courierID].Status)
	})

	t.Run("busyCourierRejected", func(t *testing.T) {
		courierID := f.seedCourier(enums.CourierStatusBusy)
		orderID := f.seedOrder()

		_, err := f.svc.AssignOrder(context.Background(), orderID, courierID)
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeCourierUnavailable))
	})

	t.Run("offlineCourierRejected", func(t *testing.T) {
		courierID := f.seedCourier(enums.CourierStatusOffline)
		orderID := f.seedOrder()

		_, err := f.svc.AssignOrder(context.Background(), orderID, courierID)
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeCourierUnavailable))
	})

	t.Run("doubleAssignRejected", func(t *testing.T) {
		courierID := f.seedCourier(enums.CourierStatusAvailable)
		first := f.seedOrder()
		second := f.seedOrder()

		_, err := f.svc.AssignOrder(context.Background(), first, courierID)
		require.NoError(t, err)

		_, err = f.svc.AssignOrder(context.Background(), second, courierID)
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeCourierUnavailable))
	})

	t.Run("unknownOrder", func(t *testing.T) {
		courierID := f.seedCourier(enums.CourierStatusAvailable)
		_, err := f.svc.AssignOrder(context.Background(), uuid.New(), courierID)
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
	})
}

func TestAssignmentLifecycle(t *testing.T) {
	f := newFixture(t)
	courierID := f.seedCourier(enums.CourierStatusAvailable)
	orderID := f.seedOrder()

	assignment, err := f.svc.AssignOrder(context.Background(), orderID, courierID)
	require.NoError(t, err)

	for _, next := range []enums.AssignmentStatus{
		enums.AssignmentStatusAccepted,
		enums.AssignmentStatusEnRoute,
		enums.AssignmentStatusPickedUp,
		enums.AssignmentStatusDelivering,
		enums.AssignmentStatusDelivered,
	} {
		dto, err := f.svc.Transition(context.Background(), assignment.ID, next)
		require.NoError(t, err)
		require.Equal(t, next, dto.Status)
	}

	final := f.repo.assignments[assignment.ID]
	require.NotNil(t, final.AcceptedAt)
	require.NotNil(t, final.DeliveredAt)
	require.Equal(t, enums.CourierStatusAvailable, f.repo.couriers[courierID].Status)
}

func TestTransitionRejectReleasesCourier(t *testing.T) {
	f := newFixture(t)
	courierID := f.seedCourier(enums.CourierStatusAvailable)
	orderID := f.seedOrder()

	assignment, err := f.svc.AssignOrder(context.Background(), orderID, courierID)
	require.NoError(t, err)
	require.Equal(t, enums.CourierStatusBusy, f.repo.couriers[courierID].Status)

	_, err = f.svc.Transition(context.Background(), assignment.ID, enums.AssignmentStatusRejected)
	require.NoError(t, err)
	require.Equal(t, enums.CourierStatusAvailable, f.repo.couriers[courierID].Status)
}

func TestTransitionKeepsCourierBusyWithOtherActiveAssignment(t *testing.T) {
	f := newFixture(t)
	courierID := f.seedCourier(enums.CourierStatusBusy)

	first := uuid.New()
	second := uuid.New()
	f.repo.assignments[first] = &models.CourierAssignment{
		ID: first, OrderID: uuid.New(), CourierID: courierID,
		Status: enums.AssignmentStatusDelivering, AssignedAt: time.Now(),
	}
	f.repo.assignments[second] = &models.CourierAssignment{
		ID: second, OrderID: uuid.New(), CourierID: courierID,
		Status: enums.AssignmentStatusAssigned, AssignedAt: time.Now(),
	}

	_, err := f.svc.Transition(context.Background(), first, enums.AssignmentStatusDelivered)
	require.NoError(t, err)
	require.Equal(t, enums.CourierStatusBusy, f.repo.couriers[courierID].Status)
}

func TestTransitionRules(t *testing.T) {
	f := newFixture(t)
	courierID := f.seedCourier(enums.CourierStatusBusy)

	seed := func(status enums.AssignmentStatus) uuid.UUID {
		id := uuid.New()
		f.repo.assignments[id] = &models.CourierAssignment{
			ID: id, OrderID: uuid.New(), CourierID: courierID,
			Status: status, AssignedAt: time.Now(),
		}
		return id
	}

	t.Run("skipRejected", func(t *testing.T) {
		id := seed(enums.AssignmentStatusAssigned)
		_, err := f.svc.Transition(context.Background(), id, enums.AssignmentStatusDelivered)
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
	})

	t.Run("terminalIsFinal", func(t *testing.T) {
		id := seed(enums.AssignmentStatusDelivered)
		_, err := f.svc.Transition(context.Background(), id, enums.AssignmentStatusCancelled)
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
	})

	t.Run("rejectedOnlyFromAssigned", func(t *testing.T) {
		id := seed(enums.AssignmentStatusEnRoute)
		_, err := f.svc.Transition(context.Background(), id, enums.AssignmentStatusRejected)
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
	})
}

func TestRecordLocation(t *testing.T) {
	f := newFixture(t)
	courierID := f.seedCourier(enums.CourierStatusAvailable)

	at := time.Now().Add(-time.Minute)
	err := f.svc.RecordLocation(context.Background(), courierID, 55.75, 37.61, at)
	require.NoError(t, err)

	require.Len(t, f.repo.locations, 1)
	courier := f.repo.couriers[courierID]
	require.NotNil(t, courier.CurrentLat)
	require.Equal(t, 55.75, *courier.CurrentLat)
	require.Equal(t, 37.61, *courier.CurrentLng)
	require.True(t, courier.LocationAt.Equal(at))

	t.Run("outOfRange", func(t *testing.T) {
		err := f.svc.RecordLocation(context.Background(), courierID, 91, 0, time.Now())
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	})

	t.Run("unknownCourier", func(t *testing.T) {
		err := f.svc.RecordLocation(context.Background(), uuid.New(), 1, 1, time.Now())
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
	})
}

func TestRecordLocationOutOfOrderSample(t *testing.T) {
	f := newFixture(t)
	courierID := f.seedCourier(enums.CourierStatusBusy)

	newer := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)

	require.NoError(t, f.svc.RecordLocation(context.Background(), courierID, 55.75, 37.61, newer))
	require.NoError(t, f.svc.RecordLocation(context.Background(), courierID, 54.98, 82.89, older))

	// Both samples are in the log, but the late one must not become the
	// courier's current location.
	require.Len(t, f.repo.locations, 2)
	courier := f.repo.couriers[courierID]
	require.Equal(t, 55.75, *courier.CurrentLat)
	require.Equal(t, 37.61, *courier.CurrentLng)
	require.True(t, courier.LocationAt.Equal(newer))

	// A sample at the same instant may refresh the coordinate.
	require.NoError(t, f.svc.RecordLocation(context.Background(), courierID, 55.76, 37.62, newer))
	require.Equal(t, 55.76, *courier.CurrentLat)
}
