package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/mkotelnikov/pizzeria-backend/pkg/db/models"
	"github.com/mkotelnikov/pizzeria-backend/pkg/logger"
)

const outboxPublishBatchSize = 100

// Publisher delivers a stored domain event to its downstream consumer.
type Publisher interface {
	Publish(ctx context.Context, event models.OutboxEvent) error
}

type outboxPublishRepo interface {
	FetchUnpublished(limit int) ([]models.OutboxEvent, error)
	MarkPublished(id uuid.UUID) error
	MarkFailed(id uuid.UUID, err error) error
}

// OutboxPublishJobParams configure the outbox relay job.
type OutboxPublishJobParams struct {
	Logger     *logger.Logger
	Repository outboxPublishRepo
	Publisher  Publisher
	BatchSize  int
}

// NewOutboxPublishJob builds the job that relays unpublished outbox events.
func NewOutboxPublishJob(params OutboxPublishJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	if params.Publisher == nil {
		return nil, fmt.Errorf("publisher required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = outboxPublishBatchSize
	}
	return &outboxPublishJob{
		logg:      params.Logger,
		repo:      params.Repository,
		publisher: params.Publisher,
		batchSize: batchSize,
	}, nil
}

type outboxPublishJob struct {
	logg      *logger.Logger
	repo      outboxPublishRepo
	publisher Publisher
	batchSize int
}

func (j *outboxPublishJob) Name() string { return "outbox-publish" }

func (j *outboxPublishJob) Run(ctx context.Context) error {
	events, err := j.repo.FetchUnpublished(j.batchSize)
	if err != nil {
		return fmt.Errorf("fetch unpublished events: %w", err)
	}

	var published int
	var errs error
	for _, event := range events {
		if err := j.publisher.Publish(ctx, event); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("publish %s %s: %w", event.EventType, event.ID, err))
			if markErr := j.repo.MarkFailed(event.ID, err); markErr != nil {
				errs = multierr.Append(errs, fmt.Errorf("mark failed %s: %w", event.ID, markErr))
			}
			continue
		}
		if err := j.repo.MarkPublished(event.ID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("mark published %s: %w", event.ID, err))
			continue
		}
		published++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"events_fetched":   len(events),
		"events_published": published,
	})
	j.logg.Info(logCtx, "outbox relay cycle complete")
	return errs
}
