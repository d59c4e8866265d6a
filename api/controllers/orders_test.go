package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	ordersvc "github.com/mkotelnikov/pizzeria-backend/internal/orders"
	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/mkotelnikov/pizzeria-backend/pkg/errors"
	"github.com/mkotelnikov/pizzeria-backend/pkg/logger"
)

type testOrdersService struct {
	createFn     func(ctx context.Context, input ordersvc.CreateOrderInput) (*ordersvc.OrderDTO, error)
	transitionFn func(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*ordersvc.OrderDTO, error)
	getFn        func(ctx context.Context, orderID uuid.UUID) (*ordersvc.OrderDTO, error)
	listFn       func(ctx context.Context, filter ordersvc.ListFilter) (*ordersvc.OrderPage, error)
}

func (s *testOrdersService) Create(ctx context.Context, input ordersvc.CreateOrderInput) (*ordersvc.OrderDTO, error) {
	if s.createFn != nil {
		return s.createFn(ctx, input)
	}
	return &ordersvc.OrderDTO{}, nil
}

func (s *testOrdersService) TransitionStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*ordersvc.OrderDTO, error) {
	if s.transitionFn != nil {
		return s.transitionFn(ctx, orderID, next)
	}
	return &ordersvc.OrderDTO{}, nil
}

func (s *testOrdersService) Get(ctx context.Context, orderID uuid.UUID) (*ordersvc.OrderDTO, error) {
	if s.getFn != nil {
		return s.getFn(ctx, orderID)
	}
	return &ordersvc.OrderDTO{}, nil
}

func (s *testOrdersService) List(ctx context.Context, filter ordersvc.ListFilter) (*ordersvc.OrderPage, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return &ordersvc.OrderPage{}, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestOrderCreateSuccess(t *testing.T) {
	productID := uuid.New()
	var captured ordersvc.CreateOrderInput
	svc := &testOrdersService{
		createFn: func(_ context.Context, input ordersvc.CreateOrderInput) (*ordersvc.OrderDTO, error) {
			captured = input
			return &ordersvc.OrderDTO{ID: uuid.New(), OrderNumber: 42, TotalCents: 89000}, nil
		},
	}

	body := `{
		"customerName": "Ivan",
		"customerPhone": "+79990001122",
		"deliveryType": "pickup",
		"paymentMethod": "cash",
		"items": [{"productId": "` + productID.String() + `", "qty": 2}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	resp := httptest.NewRecorder()

	OrderCreate(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if captured.DeliveryType != enums.DeliveryTypePickup {
		t.Fatalf("unexpected delivery type %s", captured.DeliveryType)
	}
	if len(captured.Items) != 1 || captured.Items[0].ProductID != productID || captured.Items[0].Qty != 2 {
		t.Fatalf("unexpected items %+v", captured.Items)
	}

	var envelope struct {
		Data ordersvc.OrderDTO `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.OrderNumber != 42 {
		t.Fatalf("unexpected order number %d", envelope.Data.OrderNumber)
	}
}

func TestOrderCreateRejectsUnknownDeliveryType(t *testing.T) {
	svc := &testOrdersService{
		createFn: func(_ context.Context, _ ordersvc.CreateOrderInput) (*ordersvc.OrderDTO, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}

	body := `{
		"customerName": "Ivan",
		"customerPhone": "+79990001122",
		"deliveryType": "teleport",
		"paymentMethod": "cash",
		"items": [{"productId": "` + uuid.NewString() + `", "qty": 1}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	resp := httptest.NewRecorder()

	OrderCreate(svc, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestOrderTransitionStateConflict(t *testing.T) {
	orderID := uuid.New()
	svc := &testOrdersService{
		transitionFn: func(_ context.Context, id uuid.UUID, next enums.OrderStatus) (*ordersvc.OrderDTO, error) {
			if id != orderID {
				t.Fatalf("unexpected order id %s", id)
			}
			if next != enums.OrderStatusDelivered {
				t.Fatalf("unexpected status %s", next)
			}
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "transition not allowed")
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/transition",
		strings.NewReader(`{"status": "delivered"}`))
	req = withURLParam(req, "orderId", orderID.String())
	resp := httptest.NewRecorder()

	OrderTransition(svc, testLogger())(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeStateConflict) {
		t.Fatalf("unexpected error code %s", envelope.Error.Code)
	}
}

func TestOrderGetInvalidID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/not-a-uuid", nil)
	req = withURLParam(req, "orderId", "not-a-uuid")
	resp := httptest.NewRecorder()

	OrderGet(&testOrdersService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestOrderListRejectsBadCursor(t *testing.T) {
	svc := &testOrdersService{
		listFn: func(context.Context, ordersvc.ListFilter) (*ordersvc.OrderPage, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?cursor=!!!", nil)
	resp := httptest.NewRecorder()

	OrderList(svc, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}
