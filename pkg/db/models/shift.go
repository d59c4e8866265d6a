package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
)

// Shift is a cashier-scoped accumulation window. Totals are incremented in
// the same transaction as each receipt insert, never recomputed by scans.
type Shift struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CashierID    uuid.UUID         `gorm:"column:cashier_id;type:uuid;not null;index"`
	Status       enums.ShiftStatus `gorm:"column:status;type:shift_status;not null;default:'open'"`
	OpenedAt     time.Time         `gorm:"column:opened_at;not null"`
	ClosedAt     *time.Time        `gorm:"column:closed_at"`
	ReceiptCount int               `gorm:"column:receipt_count;not null;default:0"`
	TotalCash    decimal.Decimal   `gorm:"column:total_cash;type:decimal(12,2);not null;default:0"`
	TotalCard    decimal.Decimal   `gorm:"column:total_card;type:decimal(12,2);not null;default:0"`
	TotalOnline  decimal.Decimal   `gorm:"column:total_online;type:decimal(12,2);not null;default:0"`
	Receipts     []FiscalReceipt   `gorm:"foreignKey:ShiftID"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
