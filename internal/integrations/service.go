package integrations

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mkotelnikov/pizzeria-backend/pkg/db/models"
	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/mkotelnikov/pizzeria-backend/pkg/errors"
	"github.com/mkotelnikov/pizzeria-backend/pkg/logger"
)

// Handler executes one sync row against its external target.
type Handler func(ctx context.Context, row models.IntegrationSync) error

type syncRepo interface {
	Insert(ctx context.Context, tx *gorm.DB, row *models.IntegrationSync) error
	FetchRetryable(ctx context.Context, maxAttempts, limit int) ([]models.IntegrationSync, error)
	MarkSuccess(ctx context.Context, id uuid.UUID) error
	MarkFailure(ctx context.Context, id uuid.UUID, cause error) error
}

// Service owns the sync log. Domain code enqueues rows inside its own
// transactions; the sync worker drains them out of band so an unreachable
// partner never blocks a state transition.
type Service struct {
	repo     syncRepo
	handlers map[enums.SyncTarget]Handler
	logg     *logger.Logger
}

// NewService constructs the sync log service.
func NewService(repo syncRepo, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sync repository required")
	}
	return &Service{
		repo:     repo,
		handlers: map[enums.SyncTarget]Handler{},
		logg:     logg,
	}, nil
}

// RegisterHandler binds a target to the code that pushes its rows.
func (s *Service) RegisterHandler(target enums.SyncTarget, handler Handler) {
	s.handlers[target] = handler
}

// Enqueue records a pending sync row, joining the caller's transaction when
// one is provided.
func (s *Service) Enqueue(ctx context.Context, tx *gorm.DB, target enums.SyncTarget, operation, entityType string, entityID uuid.UUID, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshaling sync payload")
	}
	row := &models.IntegrationSync{
		Target:     target,
		Operation:  operation,
		EntityType: entityType,
		EntityID:   entityID,
		Status:     enums.SyncStatusPending,
		Payload:    raw,
	}
	return s.repo.Insert(ctx, tx, row)
}

// RecordFailure enqueues a row that already failed once, so the worker picks
// it up with its first retry counted.
func (s *Service) RecordFailure(ctx context.Context, target enums.SyncTarget, operation, entityType string, entityID uuid.UUID, payload any, cause error) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshaling sync payload")
	}
	message := cause.Error()
	row := &models.IntegrationSync{
		Target:     target,
		Operation:  operation,
		EntityType: entityType,
		EntityID:   entityID,
		Status:     enums.SyncStatusFailed,
		RetryCount: 1,
		LastError:  &message,
		Payload:    raw,
	}
	return s.repo.Insert(ctx, nil, row)
}

// ProcessBatch drains up to limit retryable rows, dispatching each to its
// target handler. Returns counts of rows synced and rows that failed again.
func (s *Service) ProcessBatch(ctx context.Context, maxAttempts, limit int) (succeeded, failed int, err error) {
	rows, err := s.repo.FetchRetryable(ctx, maxAttempts, limit)
	if err != nil {
		return 0, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "fetching retryable sync rows")
	}

	for _, row := range rows {
		handler, ok := s.handlers[row.Target]
		if !ok {
			// No handler wired for this target in this process; leave
			// the row for a worker that has one.
			continue
		}
		if handlerErr := handler(ctx, row); handlerErr != nil {
			failed++
			if markErr := s.repo.MarkFailure(ctx, row.ID, handlerErr); markErr != nil {
				return succeeded, failed, markErr
			}
			if s.logg != nil {
				logCtx := s.logg.WithFields(ctx, map[string]any{
					"sync_id": row.ID.String(),
					"target":  row.Target,
				})
				s.logg.Warn(logCtx, "sync attempt failed")
			}
			continue
		}
		if markErr := s.repo.MarkSuccess(ctx, row.ID); markErr != nil {
			return succeeded, failed, markErr
		}
		succeeded++
	}
	return succeeded, failed, nil
}
