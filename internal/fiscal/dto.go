package fiscal

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkotelnikov/pizzeria-backend/pkg/db/models"
	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
)

// ShiftDTO is the API projection of a shift.
type ShiftDTO struct {
	ID           uuid.UUID         `json:"id"`
	CashierID    uuid.UUID         `json:"cashierId"`
	Status       enums.ShiftStatus `json:"status"`
	OpenedAt     time.Time         `json:"openedAt"`
	ClosedAt     *time.Time        `json:"closedAt,omitempty"`
	ReceiptCount int               `json:"receiptCount"`
	TotalCash    decimal.Decimal   `json:"totalCash"`
	TotalCard    decimal.Decimal   `json:"totalCard"`
	TotalOnline  decimal.Decimal   `json:"totalOnline"`
}

// ReceiptDTO is the API projection of a fiscal receipt.
type ReceiptDTO struct {
	ID             uuid.UUID           `json:"id"`
	OrderID        uuid.UUID           `json:"orderId"`
	ShiftID        uuid.UUID           `json:"shiftId"`
	ReceiptNumber  string              `json:"receiptNumber"`
	DocumentNumber string              `json:"documentNumber"`
	FiscalSign     string              `json:"fiscalSign"`
	Amount         decimal.Decimal     `json:"amount"`
	PaymentMethod  enums.PaymentMethod `json:"paymentMethod"`
	CreatedAt      time.Time           `json:"createdAt"`
}

func toShiftDTO(shift *models.Shift) *ShiftDTO {
	return &ShiftDTO{
		ID:           shift.ID,
		CashierID:    shift.CashierID,
		Status:       shift.Status,
		OpenedAt:     shift.OpenedAt,
		ClosedAt:     shift.ClosedAt,
		ReceiptCount: shift.ReceiptCount,
		TotalCash:    shift.TotalCash,
		TotalCard:    shift.TotalCard,
		TotalOnline:  shift.TotalOnline,
	}
}

func toReceiptDTO(receipt *models.FiscalReceipt) *ReceiptDTO {
	return &ReceiptDTO{
		ID:             receipt.ID,
		OrderID:        receipt.OrderID,
		ShiftID:        receipt.ShiftID,
		ReceiptNumber:  receipt.ReceiptNumber,
		DocumentNumber: receipt.DocumentNumber,
		FiscalSign:     receipt.FiscalSign,
		Amount:         receipt.Amount,
		PaymentMethod:  receipt.PaymentMethod,
		CreatedAt:      receipt.CreatedAt,
	}
}
