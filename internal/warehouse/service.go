package warehouse

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mkotelnikov/pizzeria-backend/pkg/db"
	"github.com/mkotelnikov/pizzeria-backend/pkg/db/models"
	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/mkotelnikov/pizzeria-backend/pkg/errors"
	"github.com/mkotelnikov/pizzeria-backend/pkg/logger"
)

const (
	withdrawMaxRetries   = 3
	withdrawRetryBackoff = 25 * time.Millisecond
)

// Service exposes warehouse ledger operations.
type Service interface {
	ReceiveBatch(ctx context.Context, input ReceiveBatchInput) (*BatchDTO, error)
	Withdraw(ctx context.Context, input WithdrawInput) ([]OperationDTO, error)
	Adjust(ctx context.Context, input AdjustInput) (*OperationDTO, error)
	Transfer(ctx context.Context, input TransferInput) (*TransferResult, error)
	ExpiryAlerts(ctx context.Context, thresholdDays int) iter.Seq[ExpiryAlert]
	ListBatches(ctx context.Context, warehouseID, productID uuid.UUID) ([]BatchDTO, error)
}

// ReceiveBatchInput holds the validated payload to receive stock.
type ReceiveBatchInput struct {
	WarehouseID   uuid.UUID
	ProductID     uuid.UUID
	Quantity      int
	ExpiryDate    time.Time
	PurchasePrice decimal.Decimal
	Supplier      string
	ReferenceID   *uuid.UUID
}

// WithdrawInput holds the validated payload to withdraw stock.
type WithdrawInput struct {
	WarehouseID uuid.UUID
	ProductID   uuid.UUID
	Quantity    int
	Reason      *string
	ReferenceID *uuid.UUID
}

// AdjustInput corrects one batch's balance by a signed delta.
type AdjustInput struct {
	BatchID uuid.UUID
	Delta   int
	Reason  string
}

// TransferInput moves quantity out of one batch into another warehouse.
type TransferInput struct {
	BatchID       uuid.UUID
	ToWarehouseID uuid.UUID
	Quantity      int
	Reason        *string
}

// TransferResult describes the destination batch and the two operation rows
// a transfer appends.
type TransferResult struct {
	NewBatch   BatchDTO       `json:"newBatch"`
	Operations []OperationDTO `json:"operations"`
}

// ExpiryAlert flags one batch nearing its expiry date.
type ExpiryAlert struct {
	Batch         BatchDTO
	DaysRemaining int
}

type repository interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, batch *models.WarehouseInventory) (*models.WarehouseInventory, error)
	LockBatchesFEFO(ctx context.Context, tx *gorm.DB, warehouseID, productID uuid.UUID) ([]models.WarehouseInventory, error)
	LockBatchByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.WarehouseInventory, error)
	UpdateBatchQuantity(ctx context.Context, tx *gorm.DB, id uuid.UUID, quantity int, status enums.BatchStatus) error
	AppendOperation(ctx context.Context, tx *gorm.DB, op *models.WarehouseOperation) error
	ListBatches(ctx context.Context, warehouseID, productID uuid.UUID) ([]models.WarehouseInventory, error)
	ListExpiringBatches(ctx context.Context, cutoff time.Time) ([]models.WarehouseInventory, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo repository
	tx   txRunner
	logg *logger.Logger
}

// NewService constructs a warehouse service instance.
func NewService(repo repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("warehouse repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

// ReceiveBatch records incoming stock as a new batch plus one receipt
// operation.
func (s *service) ReceiveBatch(ctx context.Context, input ReceiveBatchInput) (*BatchDTO, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.ExpiryDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expiry date is required")
	}
	if input.PurchasePrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase price cannot be negative")
	}

	batch := &models.WarehouseInventory{
		WarehouseID:   input.WarehouseID,
		ProductID:     input.ProductID,
		Quantity:      input.Quantity,
		ExpiryDate:    input.ExpiryDate,
		PurchasePrice: input.PurchasePrice,
		Supplier:      input.Supplier,
		Status:        enums.BatchStatusAvailable,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.CreateBatch(ctx, tx, batch); err != nil {
			return err
		}
		return s.repo.AppendOperation(ctx, tx, &models.WarehouseOperation{
			BatchID:        batch.ID,
			WarehouseID:    batch.WarehouseID,
			ProductID:      batch.ProductID,
			Type:           enums.OperationTypeReceipt,
			Quantity:       input.Quantity,
			QuantityBefore: 0,
			QuantityAfter:  input.Quantity,
			ReferenceID:    input.ReferenceID,
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "receiving batch")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"batch_id":   batch.ID.String(),
			"product_id": batch.ProductID.String(),
			"quantity":   input.Quantity,
		})
		s.logg.Info(logCtx, "batch received")
	}
	return toBatchDTO(batch), nil
}

// Withdraw consumes stock first-expired-first-out. All candidate batches are
// locked up front; either every touched batch is updated and logged, or
// nothing is. Serialization conflicts are retried with bounded backoff.
func (s *service) Withdraw(ctx context.Context, input WithdrawInput) ([]OperationDTO, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var ops []OperationDTO
	backoff := retry.WithMaxRetries(withdrawMaxRetries, retry.NewFibonacci(withdrawRetryBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		ops = nil
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			created, err := s.withdrawLocked(ctx, tx, input)
			if err != nil {
				return err
			}
			ops = created
			return nil
		})
		if err != nil && db.IsSerializationFailure(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "withdrawing stock")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"product_id": input.ProductID.String(),
			"quantity":   input.Quantity,
			"batches":    len(ops),
		})
		s.logg.Info(logCtx, "stock withdrawn")
	}
	return ops, nil
}

func (s *service) withdrawLocked(ctx context.Context, tx *gorm.DB, input WithdrawInput) ([]OperationDTO, error) {
	batches, err := s.repo.LockBatchesFEFO(ctx, tx, input.WarehouseID, input.ProductID)
	if err != nil {
		return nil, err
	}

	available := 0
	for _, batch := range batches {
		available += batch.Quantity
	}
	if available < input.Quantity {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock to withdraw").
			WithDetails(map[string]any{
				"productId": input.ProductID.String(),
				"requested": input.Quantity,
				"available": available,
			})
	}

	remaining := input.Quantity
	var ops []OperationDTO
	for _, batch := range batches {
		if remaining == 0 {
			break
		}
		take := batch.Quantity
		if take > remaining {
			take = remaining
		}
		after := batch.Quantity - take
		status := enums.BatchStatusAvailable
		if after == 0 {
			status = enums.BatchStatusDepleted
		}
		if err := s.repo.UpdateBatchQuantity(ctx, tx, batch.ID, after, status); err != nil {
			return nil, err
		}
		op := &models.WarehouseOperation{
			BatchID:        batch.ID,
			WarehouseID:    batch.WarehouseID,
			ProductID:      batch.ProductID,
			Type:           enums.OperationTypeWithdrawal,
			Quantity:       take,
			QuantityBefore: batch.Quantity,
			QuantityAfter:  after,
			Reason:         input.Reason,
			ReferenceID:    input.ReferenceID,
		}
		if err := s.repo.AppendOperation(ctx, tx, op); err != nil {
			return nil, err
		}
		ops = append(ops, *toOperationDTO(op))
		remaining -= take
	}
	return ops, nil
}

// Adjust corrects one batch's balance with an adjustment operation. Existing
// operation rows are never rewritten; corrections only append.
func (s *service) Adjust(ctx context.Context, input AdjustInput) (*OperationDTO, error) {
	if input.Delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta cannot be zero")
	}
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}

	var op *models.WarehouseOperation
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		batch, err := s.repo.LockBatchByID(ctx, tx, input.BatchID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "batch not found")
			}
			return err
		}
		after := batch.Quantity + input.Delta
		if after < 0 {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "adjustment would drive quantity negative").
				WithDetails(map[string]any{
					"batchId":   batch.ID.String(),
					"available": batch.Quantity,
					"delta":     input.Delta,
				})
		}
		status := batch.Status
		if after == 0 {
			status = enums.BatchStatusDepleted
		} else if status == enums.BatchStatusDepleted {
			status = enums.BatchStatusAvailable
		}
		if err := s.repo.UpdateBatchQuantity(ctx, tx, batch.ID, after, status); err != nil {
			return err
		}
		reason := input.Reason
		op = &models.WarehouseOperation{
			BatchID:        batch.ID,
			WarehouseID:    batch.WarehouseID,
			ProductID:      batch.ProductID,
			Type:           enums.OperationTypeAdjustment,
			Quantity:       input.Delta,
			QuantityBefore: batch.Quantity,
			QuantityAfter:  after,
			Reason:         &reason,
		}
		return s.repo.AppendOperation(ctx, tx, op)
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "adjusting batch")
	}
	return toOperationDTO(op), nil
}

// Transfer moves quantity from one batch into another warehouse. The moved
// stock keeps its expiry date and purchase price so FEFO ordering survives
// the move. Both sides land in the operation log as transfer rows pointing
// at each other through ReferenceID.
func (s *service) Transfer(ctx context.Context, input TransferInput) (*TransferResult, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.ToWarehouseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "destination warehouse is required")
	}

	var result *TransferResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		source, err := s.repo.LockBatchByID(ctx, tx, input.BatchID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "batch not found")
			}
			return err
		}
		if source.WarehouseID == input.ToWarehouseID {
			return pkgerrors.New(pkgerrors.CodeValidation, "destination matches the batch's warehouse")
		}
		if source.Status != enums.BatchStatusAvailable || source.Quantity < input.Quantity {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock in batch").
				WithDetails(map[string]any{
					"batchId":   source.ID.String(),
					"available": source.Quantity,
					"requested": input.Quantity,
				})
		}

		after := source.Quantity - input.Quantity
		status := source.Status
		if after == 0 {
			status = enums.BatchStatusDepleted
		}
		if err := s.repo.UpdateBatchQuantity(ctx, tx, source.ID, after, status); err != nil {
			return err
		}

		dest, err := s.repo.CreateBatch(ctx, tx, &models.WarehouseInventory{
			WarehouseID:   input.ToWarehouseID,
			ProductID:     source.ProductID,
			Quantity:      input.Quantity,
			ExpiryDate:    source.ExpiryDate,
			PurchasePrice: source.PurchasePrice,
			Supplier:      source.Supplier,
			Status:        enums.BatchStatusAvailable,
		})
		if err != nil {
			return err
		}

		outgoing := &models.WarehouseOperation{
			BatchID:        source.ID,
			WarehouseID:    source.WarehouseID,
			ProductID:      source.ProductID,
			Type:           enums.OperationTypeTransfer,
			Quantity:       -input.Quantity,
			QuantityBefore: source.Quantity,
			QuantityAfter:  after,
			Reason:         input.Reason,
			ReferenceID:    &dest.ID,
		}
		if err := s.repo.AppendOperation(ctx, tx, outgoing); err != nil {
			return err
		}
		incoming := &models.WarehouseOperation{
			BatchID:        dest.ID,
			WarehouseID:    dest.WarehouseID,
			ProductID:      dest.ProductID,
			Type:           enums.OperationTypeTransfer,
			Quantity:       input.Quantity,
			QuantityBefore: 0,
			QuantityAfter:  dest.Quantity,
			Reason:         input.Reason,
			ReferenceID:    &source.ID,
		}
		if err := s.repo.AppendOperation(ctx, tx, incoming); err != nil {
			return err
		}

		result = &TransferResult{
			NewBatch:   *toBatchDTO(dest),
			Operations: []OperationDTO{*toOperationDTO(outgoing), *toOperationDTO(incoming)},
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "transferring stock")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"batch_id":     input.BatchID.String(),
			"to_warehouse": input.ToWarehouseID.String(),
			"quantity":     input.Quantity,
		})
		s.logg.Info(logCtx, "stock transferred")
	}
	return result, nil
}

// ExpiryAlerts yields batches expiring within thresholdDays, soonest first.
// The query runs lazily on first pull.
func (s *service) ExpiryAlerts(ctx context.Context, thresholdDays int) iter.Seq[ExpiryAlert] {
	return func(yield func(ExpiryAlert) bool) {
		now := time.Now()
		cutoff := now.AddDate(0, 0, thresholdDays)
		batches, err := s.repo.ListExpiringBatches(ctx, cutoff)
		if err != nil {
			if s.logg != nil {
				s.logg.Error(ctx, "listing expiring batches", err)
			}
			return
		}
		for i := range batches {
			days := int(batches[i].ExpiryDate.Sub(now).Hours() / 24)
			if days < 0 {
				days = 0
			}
			alert := ExpiryAlert{
				Batch:         *toBatchDTO(&batches[i]),
				DaysRemaining: days,
			}
			if !yield(alert) {
				return
			}
		}
	}
}

func (s *service) ListBatches(ctx context.Context, warehouseID, productID uuid.UUID) ([]BatchDTO, error) {
	batches, err := s.repo.ListBatches(ctx, warehouseID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing batches")
	}
	result := make([]BatchDTO, 0, len(batches))
	for i := range batches {
		result = append(result, *toBatchDTO(&batches[i]))
	}
	return result, nil
}
