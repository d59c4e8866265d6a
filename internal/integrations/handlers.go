package integrations

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkotelnikov/pizzeria-backend/pkg/db/models"
	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
)

// AggregatorSyncHandler builds the handler that replays aggregator rows
// against the connected marketplace.
func AggregatorSyncHandler(agg Aggregator) Handler {
	return func(ctx context.Context, row models.IntegrationSync) error {
		switch row.Operation {
		case "update_order_status":
			var payload struct {
				Status string `json:"status"`
			}
			if err := json.Unmarshal(row.Payload, &payload); err != nil {
				return fmt.Errorf("decoding aggregator payload: %w", err)
			}
			status, err := enums.ParseOrderStatus(payload.Status)
			if err != nil {
				return fmt.Errorf("decoding aggregator payload: %w", err)
			}
			return agg.UpdateOrderStatus(ctx, row.EntityID.String(), status)

		case "sync_menu":
			var entries []MenuEntry
			if err := json.Unmarshal(row.Payload, &entries); err != nil {
				return fmt.Errorf("decoding menu payload: %w", err)
			}
			return agg.SyncMenu(ctx, entries)

		default:
			return fmt.Errorf("unknown aggregator operation %q", row.Operation)
		}
	}
}

// FiscalRegistrar completes a failed fiscal registration end to end: it must
// register the sale and persist the receipt with its shift totals.
type FiscalRegistrar interface {
	RetryRegistration(ctx context.Context, orderID, shiftID uuid.UUID, amount decimal.Decimal, method enums.PaymentMethod) error
}

// FiscalSyncHandler builds the handler that retries failed fiscal
// registrations. The row's entity is the order; the payload carries the
// shift, amount and payment method captured at failure time.
func FiscalSyncHandler(registrar FiscalRegistrar) Handler {
	return func(ctx context.Context, row models.IntegrationSync) error {
		if row.Operation != "register_receipt" {
			return fmt.Errorf("unknown fiscal operation %q", row.Operation)
		}
		var payload struct {
			ShiftID       string `json:"shiftId"`
			Amount        string `json:"amount"`
			PaymentMethod string `json:"paymentMethod"`
		}
		if err := json.Unmarshal(row.Payload, &payload); err != nil {
			return fmt.Errorf("decoding fiscal payload: %w", err)
		}
		shiftID, err := uuid.Parse(payload.ShiftID)
		if err != nil {
			return fmt.Errorf("decoding fiscal payload: %w", err)
		}
		amount, err := decimal.NewFromString(payload.Amount)
		if err != nil {
			return fmt.Errorf("decoding fiscal payload: %w", err)
		}
		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			return fmt.Errorf("decoding fiscal payload: %w", err)
		}
		return registrar.RetryRegistration(ctx, row.EntityID, shiftID, amount, method)
	}
}

// ERPSyncHandler builds the handler that pushes back-office rows to the ERP.
func ERPSyncHandler(erp ERP) Handler {
	return func(ctx context.Context, row models.IntegrationSync) error {
		switch row.Operation {
		case "push_sales_report":
			return erp.PushSalesReport(ctx, row.EntityID, row.Payload)

		case "sync_catalog":
			var entries []MenuEntry
			if err := json.Unmarshal(row.Payload, &entries); err != nil {
				return fmt.Errorf("decoding catalog payload: %w", err)
			}
			return erp.SyncCatalog(ctx, entries)

		default:
			return fmt.Errorf("unknown erp operation %q", row.Operation)
		}
	}
}
