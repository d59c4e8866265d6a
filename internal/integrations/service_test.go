package integrations

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mkotelnikov/pizzeria-backend/pkg/db/models"
	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
)

type stubSyncRepo struct {
	rows map[uuid.UUID]*models.IntegrationSync
}

func newStubSyncRepo() *stubSyncRepo {
	return &stubSyncRepo{rows: map[uuid.UUID]*models.IntegrationSync{}}
}

func (s *stubSyncRepo) Insert(_ context.Context, _ *gorm.DB, row *models.IntegrationSync) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	s.rows[row.ID] = row
	return nil
}

func (s *stubSyncRepo) FetchRetryable(_ context.Context, maxAttempts, limit int) ([]models.IntegrationSync, error) {
	var out []models.IntegrationSync
	for _, row := range s.rows {
		if row.Status == enums.SyncStatusSuccess || row.RetryCount >= maxAttempts {
			continue
		}
		out = append(out, *row)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *stubSyncRepo) MarkSuccess(_ context.Context, id uuid.UUID) error {
	row, ok := s.rows[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	row.Status = enums.SyncStatusSuccess
	return nil
}

func (s *stubSyncRepo) MarkFailure(_ context.Context, id uuid.UUID, cause error) error {
	row, ok := s.rows[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	message := cause.Error()
	row.Status = enums.SyncStatusFailed
	row.LastError = &message
	row.RetryCount++
	return nil
}

func TestEnqueueRecordsPendingRow(t *testing.T) {
	repo := newStubSyncRepo()
	svc, err := NewService(repo, nil)
	require.NoError(t, err)

	entityID := uuid.New()
	err = svc.Enqueue(context.Background(), nil, enums.SyncTargetAggregator, "update_order_status", "order", entityID, map[string]any{"status": "delivered"})
	require.NoError(t, err)

	require.Len(t, repo.rows, 1)
	for _, row := range repo.rows {
		require.Equal(t, enums.SyncStatusPending, row.Status)
		require.Equal(t, entityID, row.EntityID)
		require.Equal(t, 0, row.RetryCount)
	}
}

func TestProcessBatchRetriesAndCounts(t *testing.T) {
	repo := newStubSyncRepo()
	svc, err := NewService(repo, nil)
	require.NoError(t, err)

	okID := uuid.New()
	badID := uuid.New()
	repo.rows[okID] = &models.IntegrationSync{ID: okID, Target: enums.SyncTargetAggregator, Status: enums.SyncStatusPending}
	repo.rows[badID] = &models.IntegrationSync{ID: badID, Target: enums.SyncTargetFiscal, Status: enums.SyncStatusFailed, RetryCount: 1}

	svc.RegisterHandler(enums.SyncTargetAggregator, func(context.Context, models.IntegrationSync) error {
		return nil
	})
	svc.RegisterHandler(enums.SyncTargetFiscal, func(context.Context, models.IntegrationSync) error {
		return errors.New("registrar offline")
	})

	succeeded, failed, err := svc.ProcessBatch(context.Background(), 5, 10)
	require.NoError(t, err)
	require.Equal(t, 1, succeeded)
	require.Equal(t, 1, failed)

	require.Equal(t, enums.SyncStatusSuccess, repo.rows[okID].Status)
	require.Equal(t, enums.SyncStatusFailed, repo.rows[badID].Status)
	require.Equal(t, 2, repo.rows[badID].RetryCount)
	require.NotNil(t, repo.rows[badID].LastError)
}

func TestProcessBatchSkipsExhaustedRows(t *testing.T) {
	repo := newStubSyncRepo()
	svc, err := NewService(repo, nil)
	require.NoError(t, err)

	spentID := uuid.New()
	repo.rows[spentID] = &models.IntegrationSync{ID: spentID, Target: enums.SyncTargetERP, Status: enums.SyncStatusFailed, RetryCount: 5}

	called := false
	svc.RegisterHandler(enums.SyncTargetERP, func(context.Context, models.IntegrationSync) error {
		called = true
		return nil
	})

	succeeded, failed, err := svc.ProcessBatch(context.Background(), 5, 10)
	require.NoError(t, err)
	require.Zero(t, succeeded)
	require.Zero(t, failed)
	require.False(t, called)
}

func TestFakeFiscalAuthorityMintsUniqueStamps(t *testing.T) {
	authority := NewFakeFiscalAuthority()
	a, err := authority.Register(context.Background(), uuid.New(), decimal.NewFromInt(890), enums.PaymentMethodCash)
	require.NoError(t, err)
	b, err := authority.Register(context.Background(), uuid.New(), decimal.NewFromInt(890), enums.PaymentMethodCard)
	require.NoError(t, err)
	require.NotEqual(t, a.ReceiptNumber, b.ReceiptNumber)
	require.NotEmpty(t, a.FiscalSign)
}
