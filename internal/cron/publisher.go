package cron

import (
	"context"
	"fmt"

	"github.com/mkotelnikov/pizzeria-backend/pkg/db/models"
	"github.com/mkotelnikov/pizzeria-backend/pkg/logger"
)

// LogPublisher writes outbox events to the structured log. It stands in for
// a message broker until one is connected.
type LogPublisher struct {
	logg *logger.Logger
}

func NewLogPublisher(logg *logger.Logger) (*LogPublisher, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &LogPublisher{logg: logg}, nil
}

func (p *LogPublisher) Publish(ctx context.Context, event models.OutboxEvent) error {
	logCtx := p.logg.WithFields(ctx, map[string]any{
		"event_id":       event.ID,
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID,
		"event":          "outbox.published",
	})
	p.logg.Info(logCtx, "domain event published")
	return nil
}
