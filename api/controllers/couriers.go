package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mkotelnikov/pizzeria-backend/api/responses"
	"github.com/mkotelnikov/pizzeria-backend/api/validators"
	dispatchsvc "github.com/mkotelnikov/pizzeria-backend/internal/dispatch"
	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/mkotelnikov/pizzeria-backend/pkg/errors"
	"github.com/mkotelnikov/pizzeria-backend/pkg/logger"
)

type createCourierRequest struct {
	UserID *string `json:"userId,omitempty" validate:"omitempty,uuid"`
	Name   string  `json:"name" validate:"required"`
	Phone  string  `json:"phone" validate:"required"`
}

type courierStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type assignOrderRequest struct {
	CourierID string `json:"courierId" validate:"required,uuid"`
}

type assignmentTransitionRequest struct {
	Status string `json:"status" validate:"required"`
}

type courierLocationRequest struct {
	Lat        float64    `json:"lat" validate:"gte=-90,lte=90"`
	Lng        float64    `json:"lng" validate:"gte=-180,lte=180"`
	RecordedAt *time.Time `json:"recordedAt,omitempty"`
}

// CourierCreate registers a courier.
func CourierCreate(svc dispatchsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createCourierRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID, err := parseOptionalUUID(payload.UserID, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		courier, err := svc.CreateCourier(r.Context(), dispatchsvc.CreateCourierInput{
			UserID: userID,
			Name:   payload.Name,
			Phone:  payload.Phone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, courier)
	}
}

// CourierSetStatus flips a courier between available and offline.
func CourierSetStatus(svc dispatchsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "courierId"), "courierId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload courierStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseCourierStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		courier, err := svc.SetCourierStatus(r.Context(), id, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, courier)
	}
}

// CourierList returns couriers, optionally filtered by status.
func CourierList(svc dispatchsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var status *enums.CourierStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseCourierStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			status = &parsed
		}

		couriers, err := svc.ListCouriers(r.Context(), status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, couriers)
	}
}

// OrderAssign hands an order to an available courier.
func OrderAssign(svc dispatchsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload assignOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		courierID, err := uuid.Parse(payload.CourierID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid courier id"))
			return
		}

		assignment, err := svc.AssignOrder(r.Context(), orderID, courierID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, assignment)
	}
}

// AssignmentTransition advances a delivery assignment.
func AssignmentTransition(svc dispatchsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "assignmentId"), "assignmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload assignmentTransitionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseAssignmentStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		assignment, err := svc.Transition(r.Context(), id, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, assignment)
	}
}

// CourierLocation records a courier position sample.
func CourierLocation(svc dispatchsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "courierId"), "courierId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload courierLocationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recordedAt := time.Time{}
		if payload.RecordedAt != nil {
			recordedAt = *payload.RecordedAt
		}
		if err := svc.RecordLocation(r.Context(), id, payload.Lat, payload.Lng, recordedAt); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"status": "recorded"})
	}
}

// CourierLocations returns recent position samples for a courier.
func CourierLocations(svc dispatchsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "courierId"), "courierId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 500)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		since := time.Time{}
		if raw := strings.TrimSpace(r.URL.Query().Get("since")); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "since must be RFC3339").WithDetails(map[string]any{"field": "since"}))
				return
			}
			since = parsed
		}

		locations, err := svc.ListLocations(r.Context(), id, since, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, locations)
	}
}
