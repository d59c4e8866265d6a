package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkotelnikov/pizzeria-backend/api/responses"
	"github.com/mkotelnikov/pizzeria-backend/api/validators"
	warehousesvc "github.com/mkotelnikov/pizzeria-backend/internal/warehouse"
	pkgerrors "github.com/mkotelnikov/pizzeria-backend/pkg/errors"
	"github.com/mkotelnikov/pizzeria-backend/pkg/logger"
)

type receiveBatchRequest struct {
	WarehouseID   string           `json:"warehouseId" validate:"required,uuid"`
	ProductID     string           `json:"productId" validate:"required,uuid"`
	Quantity      int              `json:"quantity" validate:"required,min=1"`
	ExpiryDate    time.Time        `json:"expiryDate" validate:"required"`
	PurchasePrice *decimal.Decimal `json:"purchasePrice,omitempty"`
	Supplier      string           `json:"supplier,omitempty"`
	ReferenceID   *string          `json:"referenceId,omitempty" validate:"omitempty,uuid"`
}

type withdrawRequest struct {
	WarehouseID string  `json:"warehouseId" validate:"required,uuid"`
	ProductID   string  `json:"productId" validate:"required,uuid"`
	Quantity    int     `json:"quantity" validate:"required,min=1"`
	Reason      *string `json:"reason,omitempty"`
	ReferenceID *string `json:"referenceId,omitempty" validate:"omitempty,uuid"`
}

type adjustBatchRequest struct {
	Delta  int    `json:"delta" validate:"required"`
	Reason string `json:"reason" validate:"required"`
}

type transferBatchRequest struct {
	ToWarehouseID string  `json:"toWarehouseId" validate:"required,uuid"`
	Quantity      int     `json:"quantity" validate:"required,min=1"`
	Reason        *string `json:"reason,omitempty"`
}

func parseOptionalUUID(value *string, name string) (*uuid.UUID, error) {
	if value == nil {
		return nil, nil
	}
	id, err := uuid.Parse(*value)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "field must be a uuid").WithDetails(map[string]any{"field": name})
	}
	return &id, nil
}

// BatchReceive registers incoming stock as a new batch.
func BatchReceive(svc warehousesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload receiveBatchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		warehouseID, _ := uuid.Parse(payload.WarehouseID)
		productID, _ := uuid.Parse(payload.ProductID)
		referenceID, err := parseOptionalUUID(payload.ReferenceID, "referenceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := warehousesvc.ReceiveBatchInput{
			WarehouseID: warehouseID,
			ProductID:   productID,
			Quantity:    payload.Quantity,
			ExpiryDate:  payload.ExpiryDate,
			Supplier:    payload.Supplier,
			ReferenceID: referenceID,
		}
		if payload.PurchasePrice != nil {
			input.PurchasePrice = *payload.PurchasePrice
		}

		batch, err := svc.ReceiveBatch(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, batch)
	}
}

// StockWithdraw removes stock following earliest expiry order.
func StockWithdraw(svc warehousesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload withdrawRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		warehouseID, _ := uuid.Parse(payload.WarehouseID)
		productID, _ := uuid.Parse(payload.ProductID)
		referenceID, err := parseOptionalUUID(payload.ReferenceID, "referenceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		operations, err := svc.Withdraw(r.Context(), warehousesvc.WithdrawInput{
			WarehouseID: warehouseID,
			ProductID:   productID,
			Quantity:    payload.Quantity,
			Reason:      payload.Reason,
			ReferenceID: referenceID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, operations)
	}
}

// BatchAdjust corrects one batch's balance by a signed delta.
func BatchAdjust(svc warehousesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		batchID, err := validators.ParsePathUUID(chi.URLParam(r, "batchId"), "batchId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adjustBatchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		operation, err := svc.Adjust(r.Context(), warehousesvc.AdjustInput{
			BatchID: batchID,
			Delta:   payload.Delta,
			Reason:  payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, operation)
	}
}

// BatchTransfer moves quantity from a batch into another warehouse.
func BatchTransfer(svc warehousesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		batchID, err := validators.ParsePathUUID(chi.URLParam(r, "batchId"), "batchId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload transferBatchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		toWarehouseID, _ := uuid.Parse(payload.ToWarehouseID)

		result, err := svc.Transfer(r.Context(), warehousesvc.TransferInput{
			BatchID:       batchID,
			ToWarehouseID: toWarehouseID,
			Quantity:      payload.Quantity,
			Reason:        payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// BatchList returns inventory batches for a warehouse, optionally narrowed to
// one product.
func BatchList(svc warehousesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		warehouseID, err := validators.ParseQueryUUID(r, "warehouseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if warehouseID == nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "warehouseId is required"))
			return
		}
		productID, err := validators.ParseQueryUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pid := uuid.Nil
		if productID != nil {
			pid = *productID
		}
		batches, err := svc.ListBatches(r.Context(), *warehouseID, pid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, batches)
	}
}

// ExpiryAlerts returns batches expiring within the threshold window.
func ExpiryAlerts(svc warehousesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		threshold, err := validators.ParseQueryInt(r, "days", 7, 1, 90)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		alerts := make([]warehousesvc.ExpiryAlert, 0)
		for alert := range svc.ExpiryAlerts(r.Context(), threshold) {
			alerts = append(alerts, alert)
		}
		responses.WriteSuccess(w, alerts)
	}
}
