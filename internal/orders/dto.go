package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/mkotelnikov/pizzeria-backend/pkg/db/models"
	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
	"github.com/mkotelnikov/pizzeria-backend/pkg/pagination"
)

// ListFilter narrows order listings.
type ListFilter struct {
	Status *enums.OrderStatus
	Limit  int
	Cursor *pagination.Cursor
}

// OrderPage is one page of orders. NextCursor is empty on the last page.
type OrderPage struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

// OrderItemDTO is the API projection of one order line.
type OrderItemDTO struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"productId"`
	ProductName string    `json:"productName"`
	PriceCents  int       `json:"priceCents"`
	Qty         int       `json:"qty"`
	TotalCents  int       `json:"totalCents"`
}

// OrderDTO is the API projection of an order.
type OrderDTO struct {
	ID                uuid.UUID           `json:"id"`
	OrderNumber       int64               `json:"orderNumber"`
	CustomerName      string              `json:"customerName"`
	CustomerPhone     string              `json:"customerPhone"`
	DeliveryAddress   *string             `json:"deliveryAddress,omitempty"`
	DeliveryLat       *float64            `json:"deliveryLat,omitempty"`
	DeliveryLng       *float64            `json:"deliveryLng,omitempty"`
	DeliveryType      enums.DeliveryType  `json:"deliveryType"`
	PaymentMethod     enums.PaymentMethod `json:"paymentMethod"`
	Status            enums.OrderStatus   `json:"status"`
	SubtotalCents     int                 `json:"subtotalCents"`
	DeliveryCostCents int                 `json:"deliveryCostCents"`
	DiscountCents     int                 `json:"discountCents"`
	TotalCents        int                 `json:"totalCents"`
	Comment           *string             `json:"comment,omitempty"`
	Items             []OrderItemDTO      `json:"items"`
	DeliveredAt       *time.Time          `json:"deliveredAt,omitempty"`
	CancelledAt       *time.Time          `json:"cancelledAt,omitempty"`
	CreatedAt         time.Time           `json:"createdAt"`
}

func toOrderDTO(order *models.Order) *OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			PriceCents:  item.PriceCents,
			Qty:         item.Qty,
			TotalCents:  item.TotalCents,
		})
	}
	return &OrderDTO{
		ID:                order.ID,
		OrderNumber:       order.OrderNumber,
		CustomerName:      order.CustomerName,
		CustomerPhone:     order.CustomerPhone,
		DeliveryAddress:   order.DeliveryAddress,
		DeliveryLat:       order.DeliveryLat,
		DeliveryLng:       order.DeliveryLng,
		DeliveryType:      order.DeliveryType,
		PaymentMethod:     order.PaymentMethod,
		Status:            order.Status,
		SubtotalCents:     order.SubtotalCents,
		DeliveryCostCents: order.DeliveryCostCents,
		DiscountCents:     order.DiscountCents,
		TotalCents:        order.TotalCents,
		Comment:           order.Comment,
		Items:             items,
		DeliveredAt:       order.DeliveredAt,
		CancelledAt:       order.CancelledAt,
		CreatedAt:         order.CreatedAt,
	}
}
