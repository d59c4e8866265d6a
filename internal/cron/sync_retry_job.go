package cron

import (
	"context"
	"fmt"

	"github.com/mkotelnikov/pizzeria-backend/pkg/logger"
)

const (
	syncRetryMaxAttempts = 5
	syncRetryBatchSize   = 50
)

// SyncRetryJobParams configure the integration sync retry job.
type SyncRetryJobParams struct {
	Logger      *logger.Logger
	Processor   syncProcessor
	MaxAttempts int
	BatchSize   int
}

type syncProcessor interface {
	ProcessBatch(ctx context.Context, maxAttempts, limit int) (succeeded, failed int, err error)
}

// NewSyncRetryJob builds the job that drains pending and failed integration
// sync rows through their registered handlers.
func NewSyncRetryJob(params SyncRetryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Processor == nil {
		return nil, fmt.Errorf("sync processor required")
	}
	maxAttempts := params.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = syncRetryMaxAttempts
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = syncRetryBatchSize
	}
	return &syncRetryJob{
		logg:        params.Logger,
		processor:   params.Processor,
		maxAttempts: maxAttempts,
		batchSize:   batchSize,
	}, nil
}

type syncRetryJob struct {
	logg        *logger.Logger
	processor   syncProcessor
	maxAttempts int
	batchSize   int
}

func (j *syncRetryJob) Name() string { return "integration-sync-retry" }

func (j *syncRetryJob) Run(ctx context.Context) error {
	succeeded, failed, err := j.processor.ProcessBatch(ctx, j.maxAttempts, j.batchSize)
	if err != nil {
		return fmt.Errorf("integration sync retry: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"rows_succeeded": succeeded,
		"rows_failed":    failed,
	})
	j.logg.Info(logCtx, "integration sync batch processed")
	return nil
}
