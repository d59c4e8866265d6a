package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mkotelnikov/pizzeria-backend/api/responses"
	"github.com/mkotelnikov/pizzeria-backend/api/validators"
	ordersvc "github.com/mkotelnikov/pizzeria-backend/internal/orders"
	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/mkotelnikov/pizzeria-backend/pkg/errors"
	"github.com/mkotelnikov/pizzeria-backend/pkg/logger"
	"github.com/mkotelnikov/pizzeria-backend/pkg/pagination"
)

type createOrderItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Qty       int    `json:"qty" validate:"required,min=1"`
}

type createOrderRequest struct {
	CustomerName    string                   `json:"customerName" validate:"required"`
	CustomerPhone   string                   `json:"customerPhone" validate:"required"`
	DeliveryAddress *string                  `json:"deliveryAddress,omitempty"`
	DeliveryLat     *float64                 `json:"deliveryLat,omitempty" validate:"omitempty,gte=-90,lte=90"`
	DeliveryLng     *float64                 `json:"deliveryLng,omitempty" validate:"omitempty,gte=-180,lte=180"`
	DeliveryType    string                   `json:"deliveryType" validate:"required"`
	PaymentMethod   string                   `json:"paymentMethod" validate:"required"`
	DiscountCents   int                      `json:"discountCents" validate:"omitempty,min=0"`
	Comment         *string                  `json:"comment,omitempty"`
	Items           []createOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type transitionOrderRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderCreate accepts a new customer order.
func OrderCreate(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deliveryType, err := enums.ParseDeliveryType(strings.TrimSpace(payload.DeliveryType))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery type"))
			return
		}
		paymentMethod, err := enums.ParsePaymentMethod(strings.TrimSpace(payload.PaymentMethod))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		items := make([]ordersvc.CreateOrderItemInput, 0, len(payload.Items))
		for _, item := range payload.Items {
			productID, err := uuid.Parse(item.ProductID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
				return
			}
			items = append(items, ordersvc.CreateOrderItemInput{ProductID: productID, Qty: item.Qty})
		}

		order, err := svc.Create(r.Context(), ordersvc.CreateOrderInput{
			CustomerName:    payload.CustomerName,
			CustomerPhone:   payload.CustomerPhone,
			DeliveryAddress: payload.DeliveryAddress,
			DeliveryLat:     payload.DeliveryLat,
			DeliveryLng:     payload.DeliveryLng,
			DeliveryType:    deliveryType,
			PaymentMethod:   paymentMethod,
			DiscountCents:   payload.DiscountCents,
			Comment:         payload.Comment,
			Items:           items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// OrderGet returns one order with its lines.
func OrderGet(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderList returns recent orders, optionally filtered by status.
func OrderList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cursor, err := pagination.ParseCursor(r.URL.Query().Get("cursor"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor"))
			return
		}

		var status *enums.OrderStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			status = &parsed
		}

		page, err := svc.List(r.Context(), ordersvc.ListFilter{Status: status, Limit: limit, Cursor: cursor})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// OrderTransition advances an order to its next status.
func OrderTransition(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload transitionOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		order, err := svc.TransitionStatus(r.Context(), id, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderCancel moves an order to the cancelled status.
func OrderCancel(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.TransitionStatus(r.Context(), id, enums.OrderStatusCancelled)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
