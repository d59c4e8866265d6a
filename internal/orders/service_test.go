package orders

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mkotelnikov/pizzeria-backend/pkg/db/models"
	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/mkotelnikov/pizzeria-backend/pkg/errors"
	"github.com/mkotelnikov/pizzeria-backend/pkg/outbox"
	"github.com/mkotelnikov/pizzeria-backend/pkg/pagination"
	"github.com/mkotelnikov/pizzeria-backend/pkg/zones"
)

type stubRepo struct {
	orders     map[uuid.UUID]*models.Order
	nextNumber int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{orders: map[uuid.UUID]*models.Order{}}
}

func (s *stubRepo) NextOrderNumber(_ context.Context, _ *gorm.DB) (int64, error) {
	s.nextNumber++
	return s.nextNumber, nil
}

func (s *stubRepo) Create(_ context.Context, _ *gorm.DB, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	s.orders[order.ID] = order
	return order, nil
}

func (s *stubRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (s *stubRepo) LockByID(ctx context.Context, _ *gorm.DB, id uuid.UUID) (*models.Order, error) {
	return s.FindByID(ctx, id)
}

func (s *stubRepo) UpdateStatus(_ context.Context, _ *gorm.DB, id uuid.UUID, status enums.OrderStatus) error {
	order, ok := s.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.Status = status
	return nil
}

func (s *stubRepo) List(_ context.Context, filter ListFilter) ([]models.Order, error) {
	var out []models.Order
	for _, order := range s.orders {
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		if filter.Cursor != nil {
			if order.CreatedAt.After(filter.Cursor.CreatedAt) {
				continue
			}
			if order.CreatedAt.Equal(filter.Cursor.CreatedAt) && order.ID.String() >= filter.Cursor.ID.String() {
				continue
			}
		}
		out = append(out, *order)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

type stubTx struct{}

func (stubTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubProducts struct {
	rows map[uuid.UUID]models.Product
}

func (s *stubProducts) FindProductsByIDs(_ context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		if product, ok := s.rows[id]; ok {
			out = append(out, product)
		}
	}
	return out, nil
}

type stubEvents struct {
	emitted []outbox.DomainEvent
}

func (s *stubEvents) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	s.emitted = append(s.emitted, event)
	return nil
}

type enqueuedSync struct {
	target    enums.SyncTarget
	operation string
	entityID  uuid.UUID
}

type stubSyncs struct {
	rows []enqueuedSync
}

func (s *stubSyncs) Enqueue(_ context.Context, _ *gorm.DB, target enums.SyncTarget, operation, _ string, entityID uuid.UUID, _ any) error {
	s.rows = append(s.rows, enqueuedSync{target: target, operation: operation, entityID: entityID})
	return nil
}

type fixture struct {
	svc      Service
	repo     *stubRepo
	products *stubProducts
	events   *stubEvents
	syncs    *stubSyncs
}

func newFixture(t *testing.T, lookup zones.Lookup) *fixture {
	t.Helper()
	repo := newStubRepo()
	products := &stubProducts{rows: map[uuid.UUID]models.Product{}}
	events := &stubEvents{}
	syncs := &stubSyncs{}
	svc, err := NewService(repo, stubTx{}, products, lookup, events, syncs, 200, nil)
	require.NoError(t, err)
	return &fixture{svc: svc, repo: repo, products: products, events: events, syncs: syncs}
}

func (f *fixture) addProduct(priceCents int, available bool) uuid.UUID {
	id := uuid.New()
	f.products.rows[id] = models.Product{
		ID:          id,
		Name:        "product",
		PriceCents:  priceCents,
		IsAvailable: available,
	}
	return id
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func TestCreateOrderTotals(t *testing.T) {
	f := newFixture(t, zones.Static{FeeCents: 200, ETAMinutes: 30})
	pizza := f.addProduct(450, true)
	drink := f.addProduct(240, true)

	dto, err := f.svc.Create(context.Background(), CreateOrderInput{
		CustomerName:    "Ivan",
		CustomerPhone:   "+70000000000",
		DeliveryAddress: strPtr("Lenina 1"),
		DeliveryLat:     floatPtr(55.75),
		DeliveryLng:     floatPtr(37.61),
		DeliveryType:    enums.DeliveryTypeDelivery,
		PaymentMethod:   enums.PaymentMethodCash,
		Items: []CreateOrderItemInput{
			{ProductID: pizza, Qty: 1},
			{ProductID: drink, Qty: 1},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 690, dto.SubtotalCents)
	require.Equal(t, 200, dto.DeliveryCostCents)
	require.Equal(t, 890, dto.TotalCents)
	require.Equal(t, enums.OrderStatusAccepted, dto.Status)
	require.Len(t, dto.Items, 2)
	require.Equal(t, int64(1), dto.OrderNumber)
}

func TestCreateOrderPickupHasNoDeliveryCost(t *testing.T) {
	f := newFixture(t, zones.Static{FeeCents: 200})
	pizza := f.addProduct(450, true)

	dto, err := f.svc.Create(context.Background(), CreateOrderInput{
		CustomerName:  "Ivan",
		CustomerPhone: "+70000000000",
		DeliveryType:  enums.DeliveryTypePickup,
		PaymentMethod: enums.PaymentMethodCard,
		Items:         []CreateOrderItemInput{{ProductID: pizza, Qty: 2}},
	})
	require.NoError(t, err)
	require.Equal(t, 0, dto.DeliveryCostCents)
	require.Equal(t, 900, dto.TotalCents)
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t, nil)
	pizza := f.addProduct(450, true)
	unavailable := f.addProduct(100, false)

	t.Run("emptyItems", func(t *testing.T) {
		_, err := f.svc.Create(context.Background(), CreateOrderInput{
			CustomerName:  "Ivan",
			CustomerPhone: "+70000000000",
			DeliveryType:  enums.DeliveryTypePickup,
			PaymentMethod: enums.PaymentMethodCash,
		})
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	})

	t.Run("unknownProduct", func(t *testing.T) {
		_, err := f.svc.Create(context.Background(), CreateOrderInput{
			CustomerName:  "Ivan",
			CustomerPhone: "+70000000000",
			DeliveryType:  enums.DeliveryTypePickup,
			PaymentMethod: enums.PaymentMethodCash,
			Items:         []CreateOrderItemInput{{ProductID: uuid.New(), Qty: 1}},
		})
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	})

	t.Run("unavailableProduct", func(t *testing.T) {
		_, err := f.svc.Create(context.Background(), CreateOrderInput{
			CustomerName:  "Ivan",
			CustomerPhone: "+70000000000",
			DeliveryType:  enums.DeliveryTypePickup,
			PaymentMethod: enums.PaymentMethodCash,
			Items:         []CreateOrderItemInput{{ProductID: unavailable, Qty: 1}},
		})
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	})

	t.Run("missingDeliveryAddress", func(t *testing.T) {
		_, err := f.svc.Create(context.Background(), CreateOrderInput{
			CustomerName:  "Ivan",
			CustomerPhone: "+70000000000",
			DeliveryType:  enums.DeliveryTypeDelivery,
			PaymentMethod: enums.PaymentMethodCash,
			Items:         []CreateOrderItemInput{{ProductID: pizza, Qty: 1}},
		})
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	})
}

func seedOrder(f *fixture, status enums.OrderStatus) uuid.UUID {
	id := uuid.New()
	f.repo.orders[id] = &models.Order{
		ID:            id,
		Status:        status,
		TotalCents:    890,
		PaymentMethod: enums.PaymentMethodCash,
	}
	return id
}

func TestTransitionStatusForwardOnly(t *testing.T) {
	f := newFixture(t, nil)

	t.Run("happyPath", func(t *testing.T) {
		id := seedOrder(f, enums.OrderStatusAccepted)
		for _, next := range []enums.OrderStatus{
			enums.OrderStatusPreparing,
			enums.OrderStatusReady,
			enums.OrderStatusWithCourier,
			enums.OrderStatusInTransit,
			enums.OrderStatusDelivered,
		} {
			dto, err := f.svc.TransitionStatus(context.Background(), id, next)
			require.NoError(t, err)
			require.Equal(t, next, dto.Status)
		}
	})

	t.Run("backwardRejected", func(t *testing.T) {
		id := seedOrder(f, enums.OrderStatusReady)
		_, err := f.svc.TransitionStatus(context.Background(), id, enums.OrderStatusAccepted)
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
		require.Equal(t, enums.OrderStatusReady, f.repo.orders[id].Status)
	})

	t.Run("skipRejected", func(t *testing.T) {
		id := seedOrder(f, enums.OrderStatusAccepted)
		_, err := f.svc.TransitionStatus(context.Background(), id, enums.OrderStatusDelivered)
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
	})

	t.Run("terminalIsFinal", func(t *testing.T) {
		id := seedOrder(f, enums.OrderStatusDelivered)
		_, err := f.svc.TransitionStatus(context.Background(), id, enums.OrderStatusCancelled)
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
	})

	t.Run("cancelFromAnyActive", func(t *testing.T) {
		for _, from := range []enums.OrderStatus{
			enums.OrderStatusAccepted,
			enums.OrderStatusPreparing,
			enums.OrderStatusReady,
			enums.OrderStatusWithCourier,
			enums.OrderStatusInTransit,
		} {
			id := seedOrder(f, from)
			dto, err := f.svc.TransitionStatus(context.Background(), id, enums.OrderStatusCancelled)
			require.NoError(t, err)
			require.Equal(t, enums.OrderStatusCancelled, dto.Status)
		}
	})

	t.Run("notFound", func(t *testing.T) {
		_, err := f.svc.TransitionStatus(context.Background(), uuid.New(), enums.OrderStatusPreparing)
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
	})
}

func TestDeliveredEmitsEventAndSync(t *testing.T) {
	f := newFixture(t, nil)
	id := seedOrder(f, enums.OrderStatusInTransit)

	_, err := f.svc.TransitionStatus(context.Background(), id, enums.OrderStatusDelivered)
	require.NoError(t, err)

	require.Len(t, f.events.emitted, 1)
	require.Equal(t, enums.EventOrderDelivered, f.events.emitted[0].EventType)
	require.Equal(t, id, f.events.emitted[0].AggregateID)

	require.Len(t, f.syncs.rows, 1)
	require.Equal(t, enums.SyncTargetAggregator, f.syncs.rows[0].target)
	require.Equal(t, "update_order_status", f.syncs.rows[0].operation)
}

func TestCanTransitionTable(t *testing.T) {
	require.True(t, CanTransition(enums.OrderStatusAccepted, enums.OrderStatusPreparing))
	require.True(t, CanTransition(enums.OrderStatusInTransit, enums.OrderStatusDelivered))
	require.False(t, CanTransition(enums.OrderStatusDelivered, enums.OrderStatusInTransit))
	require.False(t, CanTransition(enums.OrderStatusCancelled, enums.OrderStatusAccepted))
	require.False(t, CanTransition(enums.OrderStatusPreparing, enums.OrderStatusWithCourier))
}

func TestListOrdersCursorPagination(t *testing.T) {
	f := newFixture(t, zones.Static{FeeCents: 150, ETAMinutes: 30})
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		order := &models.Order{
			ID:        uuid.New(),
			Status:    enums.OrderStatusAccepted,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		_, err := f.repo.Create(context.Background(), nil, order)
		require.NoError(t, err)
	}

	first, err := f.svc.List(context.Background(), ListFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Orders, 2)
	require.NotEmpty(t, first.NextCursor)
	require.True(t, first.Orders[0].CreatedAt.After(first.Orders[1].CreatedAt))

	cursor, err := pagination.ParseCursor(first.NextCursor)
	require.NoError(t, err)

	second, err := f.svc.List(context.Background(), ListFilter{Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, second.Orders, 1)
	require.Empty(t, second.NextCursor)

	seen := map[uuid.UUID]bool{}
	for _, order := range append(first.Orders, second.Orders...) {
		seen[order.ID] = true
	}
	require.Len(t, seen, 3)
}
