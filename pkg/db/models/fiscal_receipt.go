package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
)

// FiscalReceipt records the authority-assigned document/sign pair for one
// completed sale. Amount must equal the order total for that payment.
type FiscalReceipt struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_fiscal_receipts_order"`
	ShiftID        uuid.UUID           `gorm:"column:shift_id;type:uuid;not null;index"`
	ReceiptNumber  string              `gorm:"column:receipt_number;not null"`
	DocumentNumber string              `gorm:"column:document_number;not null"`
	FiscalSign     string              `gorm:"column:fiscal_sign;not null"`
	Amount         decimal.Decimal     `gorm:"column:amount;type:decimal(12,2);not null"`
	PaymentMethod  enums.PaymentMethod `gorm:"column:payment_method;type:payment_method;not null"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
}
