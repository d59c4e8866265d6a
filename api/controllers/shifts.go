package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mkotelnikov/pizzeria-backend/api/middleware"
	"github.com/mkotelnikov/pizzeria-backend/api/responses"
	"github.com/mkotelnikov/pizzeria-backend/api/validators"
	fiscalsvc "github.com/mkotelnikov/pizzeria-backend/internal/fiscal"
	pkgerrors "github.com/mkotelnikov/pizzeria-backend/pkg/errors"
	"github.com/mkotelnikov/pizzeria-backend/pkg/logger"
)

type issueReceiptRequest struct {
	OrderID string `json:"orderId" validate:"required,uuid"`
}

// ShiftOpen opens a cash register shift for the calling cashier.
func ShiftOpen(svc fiscalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		if userID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}
		cashierID, err := uuid.Parse(userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id"))
			return
		}

		shift, err := svc.OpenShift(r.Context(), cashierID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, shift)
	}
}

// ShiftClose finalizes a shift and freezes its totals.
func ShiftClose(svc fiscalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "shiftId"), "shiftId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shift, err := svc.CloseShift(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shift)
	}
}

// ShiftGet returns one shift with its running totals.
func ShiftGet(svc fiscalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "shiftId"), "shiftId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shift, err := svc.GetShift(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shift)
	}
}

// ShiftReceipts lists the fiscal receipts issued during a shift.
func ShiftReceipts(svc fiscalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "shiftId"), "shiftId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		receipts, err := svc.ListReceipts(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, receipts)
	}
}

// ReceiptIssue registers a fiscal receipt for an order within a shift.
func ReceiptIssue(svc fiscalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shiftID, err := validators.ParsePathUUID(chi.URLParam(r, "shiftId"), "shiftId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload issueReceiptRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := uuid.Parse(payload.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		receipt, err := svc.IssueReceipt(r.Context(), orderID, shiftID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, receipt)
	}
}
