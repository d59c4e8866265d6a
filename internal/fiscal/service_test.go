package fiscal

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mkotelnikov/pizzeria-backend/internal/integrations"
	"github.com/mkotelnikov/pizzeria-backend/pkg/db/models"
	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/mkotelnikov/pizzeria-backend/pkg/errors"
)

type stubRepo struct {
	shifts   map[uuid.UUID]*models.Shift
	receipts map[uuid.UUID]*models.FiscalReceipt
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		shifts:   map[uuid.UUID]*models.Shift{},
		receipts: map[uuid.UUID]*models.FiscalReceipt{},
	}
}

func (s *stubRepo) CreateShift(_ context.Context, shift *models.Shift) (*models.Shift, error) {
	for _, existing := range s.shifts {
		if existing.CashierID == shift.CashierID && existing.Status == enums.ShiftStatusOpen {
			return nil, errors.New("duplicate key value violates unique constraint \"ux_shifts_open_cashier\"")
		}
	}
	if shift.ID == uuid.Nil {
		shift.ID = uuid.New()
	}
	s.shifts[shift.ID] = shift
	return shift, nil
}

func (s *stubRepo) FindShiftByID(_ context.Context, id uuid.UUID) (*models.Shift, error) {
	shift, ok := s.shifts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return shift, nil
}

func (s *stubRepo) FindOpenShiftByCashier(_ context.Context, cashierID uuid.UUID) (*models.Shift, error) {
	for _, shift := range s.shifts {
		if shift.CashierID == cashierID && shift.Status == enums.ShiftStatusOpen {
			return shift, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) LockShiftByID(ctx context.Context, _ *gorm.DB, id uuid.UUID) (*models.Shift, error) {
	return s.FindShiftByID(ctx, id)
}

func (s *stubRepo) CloseShift(_ context.Context, _ *gorm.DB, id uuid.UUID) (int64, error) {
	shift, ok := s.shifts[id]
	if !ok || shift.Status != enums.ShiftStatusOpen {
		return 0, nil
	}
	shift.Status = enums.ShiftStatusClosed
	return 1, nil
}

func (s *stubRepo) IncrementShiftTotals(_ context.Context, _ *gorm.DB, shiftID uuid.UUID, method enums.PaymentMethod, amount decimal.Decimal) error {
	shift, ok := s.shifts[shiftID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	shift.ReceiptCount++
	switch method {
	case enums.PaymentMethodCard:
		shift.TotalCard = shift.TotalCard.Add(amount)
	case enums.PaymentMethodOnline:
		shift.TotalOnline = shift.TotalOnline.Add(amount)
	default:
		shift.TotalCash = shift.TotalCash.Add(amount)
	}
	return nil
}

func (s *stubRepo) CreateReceipt(_ context.Context, _ *gorm.DB, receipt *models.FiscalReceipt) (*models.FiscalReceipt, error) {
	if receipt.ID == uuid.Nil {
		receipt.ID = uuid.New()
	}
	s.receipts[receipt.ID] = receipt
	return receipt, nil
}

func (s *stubRepo) FindReceiptByOrder(_ context.Context, orderID uuid.UUID) (*models.FiscalReceipt, error) {
	for _, receipt := range s.receipts {
		if receipt.OrderID == orderID {
			return receipt, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) ListReceiptsByShift(_ context.Context, shiftID uuid.UUID) ([]models.FiscalReceipt, error) {
	var out []models.FiscalReceipt
	for _, receipt := range s.receipts {
		if receipt.ShiftID == shiftID {
			out = append(out, *receipt)
		}
	}
	return out, nil
}

type stubTx struct{}

func (stubTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOrders struct {
	rows map[uuid.UUID]*models.Order
}

func (s *stubOrders) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

type countingAuthority struct {
	calls *int
}

func (c countingAuthority) Register(context.Context, uuid.UUID, decimal.Decimal, enums.PaymentMethod) (*integrations.Stamp, error) {
	*c.calls++
	return &integrations.Stamp{ReceiptNumber: "R-000099", DocumentNumber: "D-99", FiscalSign: "deadbeef"}, nil
}

type failingAuthority struct{}

func (failingAuthority) Register(context.Context, uuid.UUID, decimal.Decimal, enums.PaymentMethod) (*integrations.Stamp, error) {
	return nil, errors.New("registrar offline")
}

type recordedFailure struct {
	target    enums.SyncTarget
	operation string
}

type stubFailures struct {
	rows []recordedFailure
}

func (s *stubFailures) RecordFailure(_ context.Context, target enums.SyncTarget, operation, _ string, _ uuid.UUID, _ any, _ error) error {
	s.rows = append(s.rows, recordedFailure{target: target, operation: operation})
	return nil
}

type fixture struct {
	svc      Service
	repo     *stubRepo
	orders   *stubOrders
	failures *stubFailures
}

func newFixture(t *testing.T, authority integrations.FiscalAuthority) *fixture {
	t.Helper()
	repo := newStubRepo()
	orders := &stubOrders{rows: map[uuid.UUID]*models.Order{}}
	failures := &stubFailures{}
	if authority == nil {
		authority = integrations.NewFakeFiscalAuthority()
	}
	svc, err := NewService(repo, stubTx{}, orders, authority, failures, nil)
	require.NoError(t, err)
	return &fixture{svc: svc, repo: repo, orders: orders, failures: failures}
}

func (f *fixture) seedShift(status enums.ShiftStatus) uuid.UUID {
	id := uuid.New()
	f.repo.shifts[id] = &models.Shift{ID: id, CashierID: uuid.New(), Status: status}
	return id
}

func (f *fixture) seedOrder(totalCents int, method enums.PaymentMethod) uuid.UUID {
	id := uuid.New()
	f.orders.rows[id] = &models.Order{
		ID:            id,
		Status:        enums.OrderStatusDelivered,
		TotalCents:    totalCents,
		PaymentMethod: method,
	}
	return id
}

func TestOpenShift(t *testing.T) {
	f := newFixture(t, nil)
	cashierID := uuid.New()

	dto, err := f.svc.OpenShift(context.Background(), cashierID)
	require.NoError(t, err)
	require.Equal(t, enums.ShiftStatusOpen, dto.Status)

	_, err = f.svc.OpenShift(context.Background(), cashierID)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
}

func TestCloseShiftOnce(t *testing.T) {
	f := newFixture(t, nil)
	shiftID := f.seedShift(enums.ShiftStatusOpen)

	dto, err := f.svc.CloseShift(context.Background(), shiftID)
	require.NoError(t, err)
	require.Equal(t, enums.ShiftStatusClosed, dto.Status)

	_, err = f.svc.CloseShift(context.Background(), shiftID)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
}

func TestIssueReceipt(t *testing.T) {
	f := newFixture(t, nil)
	shiftID := f.seedShift(enums.ShiftStatusOpen)
	orderID := f.seedOrder(89000, enums.PaymentMethodCash)

	receipt, err := f.svc.IssueReceipt(context.Background(), orderID, shiftID)
	require.NoError(t, err)
	require.True(t, receipt.Amount.Equal(decimal.NewFromInt(890)))
	require.NotEmpty(t, receipt.ReceiptNumber)
	require.NotEmpty(t, receipt.FiscalSign)

	shift := f.repo.shifts[shiftID]
	require.Equal(t, 1, shift.ReceiptCount)
	require.True(t, shift.TotalCash.Equal(decimal.NewFromInt(890)))
	require.True(t, shift.TotalCard.IsZero())
}

func TestIssueReceiptDuplicateOrder(t *testing.T) {
	f := newFixture(t, nil)
	shiftID := f.seedShift(enums.ShiftStatusOpen)
	orderID := f.seedOrder(50000, enums.PaymentMethodCard)

	_, err := f.svc.IssueReceipt(context.Background(), orderID, shiftID)
	require.NoError(t, err)

	_, err = f.svc.IssueReceipt(context.Background(), orderID, shiftID)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))

	require.Equal(t, 1, f.repo.shifts[shiftID].ReceiptCount)
}

func TestIssueReceiptClosedShift(t *testing.T) {
	f := newFixture(t, nil)
	shiftID := f.seedShift(enums.ShiftStatusClosed)
	orderID := f.seedOrder(50000, enums.PaymentMethodCash)

	_, err := f.svc.IssueReceipt(context.Background(), orderID, shiftID)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
	require.Empty(t, f.repo.receipts)
}

func TestIssueReceiptAuthorityDown(t *testing.T) {
	f := newFixture(t, failingAuthority{})
	shiftID := f.seedShift(enums.ShiftStatusOpen)
	orderID := f.seedOrder(50000, enums.PaymentMethodOnline)

	_, err := f.svc.IssueReceipt(context.Background(), orderID, shiftID)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeIntegration))
	require.True(t, pkgerrors.As(err).Retryable())

	require.Empty(t, f.repo.receipts)
	require.Equal(t, 0, f.repo.shifts[shiftID].ReceiptCount)
	require.Len(t, f.failures.rows, 1)
	require.Equal(t, enums.SyncTargetFiscal, f.failures.rows[0].target)
	require.Equal(t, "register_receipt", f.failures.rows[0].operation)
}

func TestRetryRegistrationRecordsReceipt(t *testing.T) {
	f := newFixture(t, nil)
	shiftID := f.seedShift(enums.ShiftStatusOpen)
	orderID := f.seedOrder(2450, enums.PaymentMethodCard)
	amount := decimal.RequireFromString("24.50")

	err := f.svc.RetryRegistration(context.Background(), orderID, shiftID, amount, enums.PaymentMethodCard)
	require.NoError(t, err)

	receipt, err := f.repo.FindReceiptByOrder(context.Background(), orderID)
	require.NoError(t, err)
	require.NotEmpty(t, receipt.ReceiptNumber)
	require.True(t, receipt.Amount.Equal(amount))

	shift := f.repo.shifts[shiftID]
	require.Equal(t, 1, shift.ReceiptCount)
	require.True(t, shift.TotalCard.Equal(amount))
}

func TestRetryRegistrationAfterShiftClose(t *testing.T) {
	f := newFixture(t, nil)
	shiftID := f.seedShift(enums.ShiftStatusClosed)
	orderID := f.seedOrder(1000, enums.PaymentMethodCash)
	amount := decimal.RequireFromString("10.00")

	err := f.svc.RetryRegistration(context.Background(), orderID, shiftID, amount, enums.PaymentMethodCash)
	require.NoError(t, err)

	_, err = f.repo.FindReceiptByOrder(context.Background(), orderID)
	require.NoError(t, err)
	require.Equal(t, 1, f.repo.shifts[shiftID].ReceiptCount)
}

func TestRetryRegistrationIdempotent(t *testing.T) {
	var calls int
	f := newFixture(t, countingAuthority{calls: &calls})
	shiftID := f.seedShift(enums.ShiftStatusOpen)
	orderID := f.seedOrder(500, enums.PaymentMethodCash)
	amount := decimal.RequireFromString("5.00")

	receiptID := uuid.New()
	f.repo.receipts[receiptID] = &models.FiscalReceipt{
		ID:      receiptID,
		OrderID: orderID,
		ShiftID: shiftID,
		Amount:  amount,
	}

	err := f.svc.RetryRegistration(context.Background(), orderID, shiftID, amount, enums.PaymentMethodCash)
	require.NoError(t, err)
	require.Zero(t, calls)
	require.Equal(t, 0, f.repo.shifts[shiftID].ReceiptCount)
}

func TestRetryRegistrationAuthorityStillDown(t *testing.T) {
	f := newFixture(t, failingAuthority{})
	shiftID := f.seedShift(enums.ShiftStatusOpen)
	orderID := f.seedOrder(500, enums.PaymentMethodCash)

	err := f.svc.RetryRegistration(context.Background(), orderID, shiftID, decimal.RequireFromString("5.00"), enums.PaymentMethodCash)
	require.Error(t, err)

	_, err = f.repo.FindReceiptByOrder(context.Background(), orderID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
