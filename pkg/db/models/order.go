package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
)

// Order is the transactional record of a sale. Total is always recomputed
// from line items plus delivery cost minus discount, never edited directly.
type Order struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber       int64               `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerName      string              `gorm:"column:customer_name;not null"`
	CustomerPhone     string              `gorm:"column:customer_phone;not null"`
	DeliveryAddress   *string             `gorm:"column:delivery_address"`
	DeliveryLat       *float64            `gorm:"column:delivery_lat"`
	DeliveryLng       *float64            `gorm:"column:delivery_lng"`
	DeliveryType      enums.DeliveryType  `gorm:"column:delivery_type;type:delivery_type;not null"`
	PaymentMethod     enums.PaymentMethod `gorm:"column:payment_method;type:payment_method;not null;default:'cash'"`
	Status            enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'accepted'"`
	SubtotalCents     int                 `gorm:"column:subtotal_cents;not null"`
	DeliveryCostCents int                 `gorm:"column:delivery_cost_cents;not null;default:0"`
	DiscountCents     int                 `gorm:"column:discount_cents;not null;default:0"`
	TotalCents        int                 `gorm:"column:total_cents;not null"`
	Comment           *string             `gorm:"column:comment"`
	Items             []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Receipt           *FiscalReceipt      `gorm:"foreignKey:OrderID"`
	Assignments       []CourierAssignment `gorm:"foreignKey:OrderID"`
	DeliveredAt       *time.Time          `gorm:"column:delivered_at"`
	CancelledAt       *time.Time          `gorm:"column:cancelled_at"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
