package warehouse

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mkotelnikov/pizzeria-backend/pkg/db/models"
	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/mkotelnikov/pizzeria-backend/pkg/errors"
)

type stubRepo struct {
	batches map[uuid.UUID]*models.WarehouseInventory
	ops     []models.WarehouseOperation
}

func newStubRepo() *stubRepo {
	return &stubRepo{batches: map[uuid.UUID]*models.WarehouseInventory{}}
}

func (s *stubRepo) CreateBatch(_ context.Context, _ *gorm.DB, batch *models.WarehouseInventory) (*models.WarehouseInventory, error) {
	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}
	s.batches[batch.ID] = batch
	return batch, nil
}

func (s *stubRepo) LockBatchesFEFO(_ context.Context, _ *gorm.DB, warehouseID, productID uuid.UUID) ([]models.WarehouseInventory, error) {
	var out []models.WarehouseInventory
	for _, batch := range s.batches {
		if batch.WarehouseID != warehouseID || batch.ProductID != productID {
			continue
		}
		if batch.Status != enums.BatchStatusAvailable || batch.Quantity == 0 {
			continue
		}
		out = append(out, *batch)
	}
	// expiry ASC, id as tiebreak
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			earlier := out[j].ExpiryDate.Before(out[i].ExpiryDate)
			tie := out[j].ExpiryDate.Equal(out[i].ExpiryDate) && out[j].ID.String() < out[i].ID.String()
			if earlier || tie {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (s *stubRepo) LockBatchByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*models.WarehouseInventory, error) {
	batch, ok := s.batches[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *batch
	return &copied, nil
}

func (s *stubRepo) UpdateBatchQuantity(_ context.Context, _ *gorm.DB, id uuid.UUID, quantity int, status enums.BatchStatus) error {
	batch, ok := s.batches[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	batch.Quantity = quantity
	batch.Status = status
	return nil
}

func (s *stubRepo) AppendOperation(_ context.Context, _ *gorm.DB, op *models.WarehouseOperation) error {
	if op.ID == uuid.Nil {
		op.ID = uuid.New()
	}
	s.ops = append(s.ops, *op)
	return nil
}

func (s *stubRepo) ListBatches(_ context.Context, warehouseID, productID uuid.UUID) ([]models.WarehouseInventory, error) {
	var out []models.WarehouseInventory
	for _, batch := range s.batches {
		if batch.WarehouseID == warehouseID && batch.ProductID == productID {
			out = append(out, *batch)
		}
	}
	return out, nil
}

func (s *stubRepo) ListExpiringBatches(_ context.Context, cutoff time.Time) ([]models.WarehouseInventory, error) {
	var out []models.WarehouseInventory
	for _, batch := range s.batches {
		if batch.Status != enums.BatchStatusAvailable || batch.Quantity == 0 {
			continue
		}
		if !batch.ExpiryDate.After(cutoff) {
			out = append(out, *batch)
		}
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].ExpiryDate.Before(out[i].ExpiryDate) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

type stubTx struct{}

func (stubTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newService(t *testing.T) (Service, *stubRepo) {
	t.Helper()
	repo := newStubRepo()
	svc, err := NewService(repo, stubTx{}, nil)
	require.NoError(t, err)
	return svc, repo
}

func seedBatch(repo *stubRepo, productID, warehouseID uuid.UUID, qty int, expiry time.Time) uuid.UUID {
	id := uuid.New()
	repo.batches[id] = &models.WarehouseInventory{
		ID:          id,
		WarehouseID: warehouseID,
		ProductID:   productID,
		Quantity:    qty,
		ExpiryDate:  expiry,
		Status:      enums.BatchStatusAvailable,
	}
	return id
}

func TestReceiveBatch(t *testing.T) {
	svc, repo := newService(t)

	dto, err := svc.ReceiveBatch(context.Background(), ReceiveBatchInput{
		WarehouseID:   uuid.New(),
		ProductID:     uuid.New(),
		Quantity:      40,
		ExpiryDate:    time.Now().AddDate(0, 0, 14),
		PurchasePrice: decimal.RequireFromString("120.50"),
		Supplier:      "Molino",
	})
	require.NoError(t, err)
	require.Equal(t, 40, dto.Quantity)
	require.Equal(t, enums.BatchStatusAvailable, dto.Status)

	require.Len(t, repo.ops, 1)
	require.Equal(t, enums.OperationTypeReceipt, repo.ops[0].Type)
	require.Equal(t, 0, repo.ops[0].QuantityBefore)
	require.Equal(t, 40, repo.ops[0].QuantityAfter)

	t.Run("nonPositiveQty", func(t *testing.T) {
		_, err := svc.ReceiveBatch(context.Background(), ReceiveBatchInput{
			WarehouseID: uuid.New(),
			ProductID:   uuid.New(),
			Quantity:    0,
			ExpiryDate:  time.Now(),
		})
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	})
}

func TestWithdrawFEFO(t *testing.T) {
	svc, repo := newService(t)
	productID := uuid.New()
	warehouseID := uuid.New()

	early := seedBatch(repo, productID, warehouseID, 10, time.Now().AddDate(0, 0, 3))
	late := seedBatch(repo, productID, warehouseID, 10, time.Now().AddDate(0, 0, 9))

	ops, err := svc.Withdraw(context.Background(), WithdrawInput{
		WarehouseID: warehouseID,
		ProductID:   productID,
		Quantity:    15,
	})
	require.NoError(t, err)

	require.Len(t, ops, 2)
	require.Equal(t, early, ops[0].BatchID)
	require.Equal(t, 10, ops[0].Quantity)
	require.Equal(t, late, ops[1].BatchID)
	require.Equal(t, 5, ops[1].Quantity)

	require.Equal(t, 0, repo.batches[early].Quantity)
	require.Equal(t, enums.BatchStatusDepleted, repo.batches[early].Status)
	require.Equal(t, 5, repo.batches[late].Quantity)
	require.Equal(t, enums.BatchStatusAvailable, repo.batches[late].Status)

	for _, op := range ops {
		require.Equal(t, enums.OperationTypeWithdrawal, op.Type)
	}
}

func TestWithdrawInsufficientStock(t *testing.T) {
	svc, repo := newService(t)
	productID := uuid.New()
	warehouseID := uuid.New()

	a := seedBatch(repo, productID, warehouseID, 12, time.Now().AddDate(0, 0, 2))
	b := seedBatch(repo, productID, warehouseID, 8, time.Now().AddDate(0, 0, 6))

	_, err := svc.Withdraw(context.Background(), WithdrawInput{
		WarehouseID: warehouseID,
		ProductID:   productID,
		Quantity:    25,
	})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock))

	require.Equal(t, 12, repo.batches[a].Quantity)
	require.Equal(t, 8, repo.batches[b].Quantity)
	require.Empty(t, repo.ops)
}

func TestAdjust(t *testing.T) {
	svc, repo := newService(t)
	productID := uuid.New()
	warehouseID := uuid.New()
	batchID := seedBatch(repo, productID, warehouseID, 10, time.Now().AddDate(0, 0, 5))

	t.Run("negativeDelta", func(t *testing.T) {
		op, err := svc.Adjust(context.Background(), AdjustInput{
			BatchID: batchID,
			Delta:   -4,
			Reason:  "spoilage",
		})
		require.NoError(t, err)
		require.Equal(t, enums.OperationTypeAdjustment, op.Type)
		require.Equal(t, 10, op.QuantityBefore)
		require.Equal(t, 6, op.QuantityAfter)
		require.Equal(t, 6, repo.batches[batchID].Quantity)
	})

	t.Run("wouldGoNegative", func(t *testing.T) {
		_, err := svc.Adjust(context.Background(), AdjustInput{
			BatchID: batchID,
			Delta:   -100,
			Reason:  "typo",
		})
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock))
		require.Equal(t, 6, repo.batches[batchID].Quantity)
	})

	t.Run("missingReason", func(t *testing.T) {
		_, err := svc.Adjust(context.Background(), AdjustInput{BatchID: batchID, Delta: 1})
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	})
}

func TestTransfer(t *testing.T) {
	svc, repo := newService(t)
	productID := uuid.New()
	sourceWarehouse := uuid.New()
	destWarehouse := uuid.New()

	expiry := time.Now().AddDate(0, 0, 5)
	batchID := seedBatch(repo, productID, sourceWarehouse, 20, expiry)
	repo.batches[batchID].PurchasePrice = decimal.RequireFromString("85.00")
	repo.batches[batchID].Supplier = "Molino"

	result, err := svc.Transfer(context.Background(), TransferInput{
		BatchID:       batchID,
		ToWarehouseID: destWarehouse,
		Quantity:      8,
	})
	require.NoError(t, err)

	require.Equal(t, 12, repo.batches[batchID].Quantity)
	require.Equal(t, enums.BatchStatusAvailable, repo.batches[batchID].Status)

	dest := result.NewBatch
	require.Equal(t, destWarehouse, dest.WarehouseID)
	require.Equal(t, productID, dest.ProductID)
	require.Equal(t, 8, dest.Quantity)
	require.True(t, dest.ExpiryDate.Equal(expiry))
	require.True(t, dest.PurchasePrice.Equal(decimal.RequireFromString("85.00")))
	require.Equal(t, "Molino", dest.Supplier)

	require.Len(t, result.Operations, 2)
	outgoing, incoming := result.Operations[0], result.Operations[1]
	require.Equal(t, enums.OperationTypeTransfer, outgoing.Type)
	require.Equal(t, enums.OperationTypeTransfer, incoming.Type)
	require.Equal(t, -8, outgoing.Quantity)
	require.Equal(t, 8, incoming.Quantity)
	require.Equal(t, batchID, outgoing.BatchID)
	require.Equal(t, dest.ID, incoming.BatchID)
	require.NotNil(t, outgoing.ReferenceID)
	require.NotNil(t, incoming.ReferenceID)
	require.Equal(t, dest.ID, *outgoing.ReferenceID)
	require.Equal(t, batchID, *incoming.ReferenceID)

	t.Run("depletesSource", func(t *testing.T) {
		_, err := svc.Transfer(context.Background(), TransferInput{
			BatchID:       batchID,
			ToWarehouseID: destWarehouse,
			Quantity:      12,
		})
		require.NoError(t, err)
		require.Equal(t, 0, repo.batches[batchID].Quantity)
		require.Equal(t, enums.BatchStatusDepleted, repo.batches[batchID].Status)
	})
}

func TestTransferRejected(t *testing.T) {
	svc, repo := newService(t)
	productID := uuid.New()
	sourceWarehouse := uuid.New()
	batchID := seedBatch(repo, productID, sourceWarehouse, 5, time.Now().AddDate(0, 0, 5))

	t.Run("insufficientStock", func(t *testing.T) {
		_, err := svc.Transfer(context.Background(), TransferInput{
			BatchID:       batchID,
			ToWarehouseID: uuid.New(),
			Quantity:      6,
		})
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock))
		require.Equal(t, 5, repo.batches[batchID].Quantity)
		require.Empty(t, repo.ops)
	})

	t.Run("sameWarehouse", func(t *testing.T) {
		_, err := svc.Transfer(context.Background(), TransferInput{
			BatchID:       batchID,
			ToWarehouseID: sourceWarehouse,
			Quantity:      2,
		})
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	})

	t.Run("unknownBatch", func(t *testing.T) {
		_, err := svc.Transfer(context.Background(), TransferInput{
			BatchID:       uuid.New(),
			ToWarehouseID: uuid.New(),
			Quantity:      1,
		})
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
	})

	t.Run("nonPositiveQty", func(t *testing.T) {
		_, err := svc.Transfer(context.Background(), TransferInput{
			BatchID:       batchID,
			ToWarehouseID: uuid.New(),
		})
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	})
}

func TestExpiryAlerts(t *testing.T) {
	svc, repo := newService(t)
	productID := uuid.New()
	warehouseID := uuid.New()

	soon := seedBatch(repo, productID, warehouseID, 5, time.Now().AddDate(0, 0, 1))
	seedBatch(repo, productID, warehouseID, 5, time.Now().AddDate(0, 0, 30))
	later := seedBatch(repo, productID, warehouseID, 5, time.Now().AddDate(0, 0, 3))

	var got []ExpiryAlert
	for alert := range svc.ExpiryAlerts(context.Background(), 7) {
		got = append(got, alert)
	}

	require.Len(t, got, 2)
	require.Equal(t, soon, got[0].Batch.ID)
	require.Equal(t, later, got[1].Batch.ID)
	require.LessOrEqual(t, got[0].DaysRemaining, got[1].DaysRemaining)

	t.Run("earlyBreak", func(t *testing.T) {
		count := 0
		for range svc.ExpiryAlerts(context.Background(), 7) {
			count++
			break
		}
		require.Equal(t, 1, count)
	})
}
