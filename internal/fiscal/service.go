package fiscal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mkotelnikov/pizzeria-backend/internal/integrations"
	"github.com/mkotelnikov/pizzeria-backend/pkg/db"
	"github.com/mkotelnikov/pizzeria-backend/pkg/db/models"
	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/mkotelnikov/pizzeria-backend/pkg/errors"
	"github.com/mkotelnikov/pizzeria-backend/pkg/logger"
)

// Service exposes shift lifecycle and receipt issuance.
type Service interface {
	OpenShift(ctx context.Context, cashierID uuid.UUID) (*ShiftDTO, error)
	CloseShift(ctx context.Context, shiftID uuid.UUID) (*ShiftDTO, error)
	GetShift(ctx context.Context, shiftID uuid.UUID) (*ShiftDTO, error)
	IssueReceipt(ctx context.Context, orderID, shiftID uuid.UUID) (*ReceiptDTO, error)
	RetryRegistration(ctx context.Context, orderID, shiftID uuid.UUID, amount decimal.Decimal, method enums.PaymentMethod) error
	ListReceipts(ctx context.Context, shiftID uuid.UUID) ([]ReceiptDTO, error)
}

type repository interface {
	CreateShift(ctx context.Context, shift *models.Shift) (*models.Shift, error)
	FindShiftByID(ctx context.Context, id uuid.UUID) (*models.Shift, error)
	FindOpenShiftByCashier(ctx context.Context, cashierID uuid.UUID) (*models.Shift, error)
	LockShiftByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Shift, error)
	CloseShift(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error)
	IncrementShiftTotals(ctx context.Context, tx *gorm.DB, shiftID uuid.UUID, method enums.PaymentMethod, amount decimal.Decimal) error
	CreateReceipt(ctx context.Context, tx *gorm.DB, receipt *models.FiscalReceipt) (*models.FiscalReceipt, error)
	FindReceiptByOrder(ctx context.Context, orderID uuid.UUID) (*models.FiscalReceipt, error)
	ListReceiptsByShift(ctx context.Context, shiftID uuid.UUID) ([]models.FiscalReceipt, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type failureRecorder interface {
	RecordFailure(ctx context.Context, target enums.SyncTarget, operation, entityType string, entityID uuid.UUID, payload any, cause error) error
}

type service struct {
	repo      repository
	tx        txRunner
	orders    orderReader
	authority integrations.FiscalAuthority
	syncs     failureRecorder
	logg      *logger.Logger
}

// NewService constructs a fiscal service instance.
func NewService(repo repository, tx txRunner, orders orderReader, authority integrations.FiscalAuthority, syncs failureRecorder, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("fiscal repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order reader required")
	}
	if authority == nil {
		return nil, fmt.Errorf("fiscal authority required")
	}
	if syncs == nil {
		return nil, fmt.Errorf("failure recorder required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		orders:    orders,
		authority: authority,
		syncs:     syncs,
		logg:      logg,
	}, nil
}

// OpenShift opens the cashier's working shift. A cashier holds at most one
// open shift; the partial unique index backs this check under races.
func (s *service) OpenShift(ctx context.Context, cashierID uuid.UUID) (*ShiftDTO, error) {
	if _, err := s.repo.FindOpenShiftByCashier(ctx, cashierID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cashier already has an open shift")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking open shift")
	}

	shift := &models.Shift{
		CashierID: cashierID,
		Status:    enums.ShiftStatusOpen,
		OpenedAt:  time.Now(),
	}
	created, err := s.repo.CreateShift(ctx, shift)
	if err != nil {
		if db.IsUniqueViolation(err, "ux_shifts_open_cashier") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "cashier already has an open shift")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "opening shift")
	}
	return toShiftDTO(created), nil
}

// CloseShift closes an open shift exactly once.
func (s *service) CloseShift(ctx context.Context, shiftID uuid.UUID) (*ShiftDTO, error) {
	shift, err := s.repo.FindShiftByID(ctx, shiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shift not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading shift")
	}
	if shift.Status == enums.ShiftStatusClosed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "shift is already closed")
	}

	affected, err := s.repo.CloseShift(ctx, nil, shiftID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "closing shift")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "shift is already closed")
	}

	closed, err := s.repo.FindShiftByID(ctx, shiftID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading shift")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "shift_id", shiftID.String()), "shift closed")
	}
	return toShiftDTO(closed), nil
}

func (s *service) GetShift(ctx context.Context, shiftID uuid.UUID) (*ShiftDTO, error) {
	shift, err := s.repo.FindShiftByID(ctx, shiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shift not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading shift")
	}
	return toShiftDTO(shift), nil
}

// IssueReceipt registers the order's sale with the fiscal authority and
// records the receipt. The shift's counters move in the same transaction as
// the receipt insert. An unreachable registrar leaves a failed sync row for
// the worker and surfaces a retryable integration error.
func (s *service) IssueReceipt(ctx context.Context, orderID, shiftID uuid.UUID) (*ReceiptDTO, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}

	if _, err := s.repo.FindReceiptByOrder(ctx, orderID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order already has a fiscal receipt")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking existing receipt")
	}

	shift, err := s.repo.FindShiftByID(ctx, shiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shift not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading shift")
	}
	if shift.Status != enums.ShiftStatusOpen {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "shift is closed")
	}

	amount := decimal.NewFromInt(int64(order.TotalCents)).Div(decimal.NewFromInt(100))

	stamp, err := s.authority.Register(ctx, orderID, amount, order.PaymentMethod)
	if err != nil {
		payload := map[string]any{
			"orderId":       orderID.String(),
			"shiftId":       shiftID.String(),
			"amount":        amount.String(),
			"paymentMethod": order.PaymentMethod.String(),
		}
		if recordErr := s.syncs.RecordFailure(ctx, enums.SyncTargetFiscal, "register_receipt", "order", orderID, payload, err); recordErr != nil && s.logg != nil {
			s.logg.Error(ctx, "recording fiscal sync failure", recordErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeIntegration, err, "registering sale with fiscal authority")
	}

	receipt := &models.FiscalReceipt{
		OrderID:        orderID,
		ShiftID:        shiftID,
		ReceiptNumber:  stamp.ReceiptNumber,
		DocumentNumber: stamp.DocumentNumber,
		FiscalSign:     stamp.FiscalSign,
		Amount:         amount,
		PaymentMethod:  order.PaymentMethod,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		locked, err := s.repo.LockShiftByID(ctx, tx, shiftID)
		if err != nil {
			return err
		}
		if locked.Status != enums.ShiftStatusOpen {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "shift is closed")
		}
		if _, err := s.repo.CreateReceipt(ctx, tx, receipt); err != nil {
			return err
		}
		return s.repo.IncrementShiftTotals(ctx, tx, shiftID, order.PaymentMethod, amount)
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		if db.IsUniqueViolation(err, "ux_fiscal_receipts_order") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "order already has a fiscal receipt")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording fiscal receipt")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":       orderID.String(),
			"shift_id":       shiftID.String(),
			"receipt_number": stamp.ReceiptNumber,
		})
		s.logg.Info(logCtx, "fiscal receipt issued")
	}
	return toReceiptDTO(receipt), nil
}

// RetryRegistration completes a receipt whose registrar call failed earlier.
// The sync worker drives it with the amount and payment method captured when
// the failure was recorded. The sale is booked to the shift it happened in
// even if that shift has since closed. An order that already has a receipt is
// treated as done so a concurrent manual issuance never registers twice.
func (s *service) RetryRegistration(ctx context.Context, orderID, shiftID uuid.UUID, amount decimal.Decimal, method enums.PaymentMethod) error {
	if _, err := s.repo.FindReceiptByOrder(ctx, orderID); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("checking existing receipt: %w", err)
	}

	stamp, err := s.authority.Register(ctx, orderID, amount, method)
	if err != nil {
		return fmt.Errorf("registering sale with fiscal authority: %w", err)
	}

	receipt := &models.FiscalReceipt{
		OrderID:        orderID,
		ShiftID:        shiftID,
		ReceiptNumber:  stamp.ReceiptNumber,
		DocumentNumber: stamp.DocumentNumber,
		FiscalSign:     stamp.FiscalSign,
		Amount:         amount,
		PaymentMethod:  method,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.CreateReceipt(ctx, tx, receipt); err != nil {
			return err
		}
		return s.repo.IncrementShiftTotals(ctx, tx, shiftID, method, amount)
	})
	if err != nil {
		if db.IsUniqueViolation(err, "ux_fiscal_receipts_order") {
			return nil
		}
		return fmt.Errorf("recording fiscal receipt: %w", err)
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":       orderID.String(),
			"shift_id":       shiftID.String(),
			"receipt_number": stamp.ReceiptNumber,
		})
		s.logg.Info(logCtx, "fiscal registration recovered")
	}
	return nil
}

func (s *service) ListReceipts(ctx context.Context, shiftID uuid.UUID) ([]ReceiptDTO, error) {
	receipts, err := s.repo.ListReceiptsByShift(ctx, shiftID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing receipts")
	}
	result := make([]ReceiptDTO, 0, len(receipts))
	for i := range receipts {
		result = append(result, *toReceiptDTO(&receipts[i]))
	}
	return result, nil
}
