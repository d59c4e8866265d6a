package integrations

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
)

// NoopAggregator accepts every call without talking to anyone. Used in dev
// and in environments where no marketplace is connected.
type NoopAggregator struct{}

func (NoopAggregator) Connect(context.Context) error { return nil }

func (NoopAggregator) SyncMenu(context.Context, []MenuEntry) error { return nil }

func (NoopAggregator) GetOrders(context.Context) ([]ExternalOrder, error) { return nil, nil }

func (NoopAggregator) UpdateOrderStatus(context.Context, string, enums.OrderStatus) error {
	return nil
}

// FakeFiscalAuthority mints locally unique document triples without an
// external registrar. Numbers are monotonic per process.
type FakeFiscalAuthority struct {
	counter atomic.Int64
}

func NewFakeFiscalAuthority() *FakeFiscalAuthority {
	return &FakeFiscalAuthority{}
}

func (f *FakeFiscalAuthority) Register(_ context.Context, orderID uuid.UUID, amount decimal.Decimal, _ enums.PaymentMethod) (*Stamp, error) {
	n := f.counter.Add(1)
	return &Stamp{
		ReceiptNumber:  fmt.Sprintf("R-%06d", n),
		DocumentNumber: fmt.Sprintf("D-%d-%d", time.Now().Unix(), n),
		FiscalSign:     fmt.Sprintf("%08x", orderID.ID()^uint32(amount.IntPart())),
	}, nil
}

// NoopERP accepts every call without talking to anyone.
type NoopERP struct{}

func (NoopERP) Connect(context.Context) error { return nil }

func (NoopERP) SyncCatalog(context.Context, []MenuEntry) error { return nil }

func (NoopERP) PushSalesReport(context.Context, uuid.UUID, any) error { return nil }
