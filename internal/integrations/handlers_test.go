package integrations

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mkotelnikov/pizzeria-backend/pkg/db/models"
	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
)

type recordingAggregator struct {
	NoopAggregator

	externalID string
	status     enums.OrderStatus
	menu       []MenuEntry
}

func (r *recordingAggregator) UpdateOrderStatus(_ context.Context, externalID string, status enums.OrderStatus) error {
	r.externalID = externalID
	r.status = status
	return nil
}

func (r *recordingAggregator) SyncMenu(_ context.Context, menu []MenuEntry) error {
	r.menu = menu
	return nil
}

type recordingRegistrar struct {
	orderID uuid.UUID
	shiftID uuid.UUID
	amount  decimal.Decimal
	method  enums.PaymentMethod
}

func (r *recordingRegistrar) RetryRegistration(_ context.Context, orderID, shiftID uuid.UUID, amount decimal.Decimal, method enums.PaymentMethod) error {
	r.orderID = orderID
	r.shiftID = shiftID
	r.amount = amount
	r.method = method
	return nil
}

func TestAggregatorSyncHandler(t *testing.T) {
	t.Run("updateOrderStatus", func(t *testing.T) {
		agg := &recordingAggregator{}
		handler := AggregatorSyncHandler(agg)

		entityID := uuid.New()
		payload, err := json.Marshal(map[string]any{"status": "delivered"})
		require.NoError(t, err)

		err = handler(context.Background(), models.IntegrationSync{
			Operation: "update_order_status",
			EntityID:  entityID,
			Payload:   payload,
		})
		require.NoError(t, err)
		require.Equal(t, entityID.String(), agg.externalID)
		require.Equal(t, enums.OrderStatusDelivered, agg.status)
	})

	t.Run("syncMenu", func(t *testing.T) {
		agg := &recordingAggregator{}
		handler := AggregatorSyncHandler(agg)

		productID := uuid.New()
		payload, err := json.Marshal([]MenuEntry{{ProductID: productID, Name: "Margherita", PriceCents: 1200, Available: true}})
		require.NoError(t, err)

		err = handler(context.Background(), models.IntegrationSync{Operation: "sync_menu", Payload: payload})
		require.NoError(t, err)
		require.Len(t, agg.menu, 1)
		require.Equal(t, productID, agg.menu[0].ProductID)
	})

	t.Run("unknownStatus", func(t *testing.T) {
		handler := AggregatorSyncHandler(&recordingAggregator{})
		err := handler(context.Background(), models.IntegrationSync{
			Operation: "update_order_status",
			Payload:   json.RawMessage(`{"status":"teleported"}`),
		})
		require.Error(t, err)
	})

	t.Run("unknownOperation", func(t *testing.T) {
		handler := AggregatorSyncHandler(&recordingAggregator{})
		err := handler(context.Background(), models.IntegrationSync{Operation: "warp_menu"})
		require.Error(t, err)
	})
}

func TestFiscalSyncHandler(t *testing.T) {
	registrar := &recordingRegistrar{}
	handler := FiscalSyncHandler(registrar)

	orderID := uuid.New()
	shiftID := uuid.New()
	payload, err := json.Marshal(map[string]any{
		"shiftId":       shiftID.String(),
		"amount":        "24.50",
		"paymentMethod": "card",
	})
	require.NoError(t, err)

	err = handler(context.Background(), models.IntegrationSync{
		Operation: "register_receipt",
		EntityID:  orderID,
		Payload:   payload,
	})
	require.NoError(t, err)
	require.Equal(t, orderID, registrar.orderID)
	require.Equal(t, shiftID, registrar.shiftID)
	require.True(t, registrar.amount.Equal(decimal.RequireFromString("24.50")))
	require.Equal(t, enums.PaymentMethodCard, registrar.method)
}

func TestFiscalSyncHandlerBadPayload(t *testing.T) {
	registrar := &recordingRegistrar{}
	handler := FiscalSyncHandler(registrar)

	cases := []string{
		`{"shiftId":"not-a-uuid","amount":"5.00","paymentMethod":"card"}`,
		`{"shiftId":"` + uuid.NewString() + `","amount":"not-a-number","paymentMethod":"card"}`,
		`{"shiftId":"` + uuid.NewString() + `","amount":"5.00","paymentMethod":"barter"}`,
	}
	for _, raw := range cases {
		err := handler(context.Background(), models.IntegrationSync{
			Operation: "register_receipt",
			Payload:   json.RawMessage(raw),
		})
		require.Error(t, err)
	}
	require.Equal(t, uuid.Nil, registrar.orderID)
}

func TestERPSyncHandler(t *testing.T) {
	handler := ERPSyncHandler(NoopERP{})

	err := handler(context.Background(), models.IntegrationSync{
		Operation: "push_sales_report",
		EntityID:  uuid.New(),
		Payload:   json.RawMessage(`{"totalCents":120000}`),
	})
	require.NoError(t, err)

	err = handler(context.Background(), models.IntegrationSync{Operation: "sell_building"})
	require.Error(t, err)
}
