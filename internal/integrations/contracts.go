package integrations

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
)

// Stamp is the fiscal authority's acknowledgement of one registered sale.
type Stamp struct {
	ReceiptNumber  string
	DocumentNumber string
	FiscalSign     string
}

// ExternalOrder is an order pulled from a delivery aggregator.
type ExternalOrder struct {
	ExternalID    string
	CustomerName  string
	CustomerPhone string
	Address       string
	TotalCents    int
}

// Aggregator is the capability contract for delivery marketplace partners.
type Aggregator interface {
	Connect(ctx context.Context) error
	SyncMenu(ctx context.Context, menu []MenuEntry) error
	GetOrders(ctx context.Context) ([]ExternalOrder, error)
	UpdateOrderStatus(ctx context.Context, externalID string, status enums.OrderStatus) error
}

// MenuEntry is one published menu line.
type MenuEntry struct {
	ProductID  uuid.UUID
	Name       string
	PriceCents int
	Available  bool
}

// FiscalAuthority registers completed sales and returns the document triple.
type FiscalAuthority interface {
	Register(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal, paymentType enums.PaymentMethod) (*Stamp, error)
}

// ERP is the capability contract for the back-office accounting system.
type ERP interface {
	Connect(ctx context.Context) error
	SyncCatalog(ctx context.Context, entries []MenuEntry) error
	PushSalesReport(ctx context.Context, shiftID uuid.UUID, payload any) error
}
