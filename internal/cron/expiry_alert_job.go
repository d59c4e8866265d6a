package cron

import (
	"context"
	"fmt"
	"iter"

	"github.com/mkotelnikov/pizzeria-backend/internal/warehouse"
	"github.com/mkotelnikov/pizzeria-backend/pkg/logger"
)

const expiryAlertThresholdDays = 7

type expiryAlertSource interface {
	ExpiryAlerts(ctx context.Context, thresholdDays int) iter.Seq[warehouse.ExpiryAlert]
}

// ExpiryAlertJobParams configure the expiring-stock alert job.
type ExpiryAlertJobParams struct {
	Logger        *logger.Logger
	Warehouse     expiryAlertSource
	ThresholdDays int
}

// NewExpiryAlertJob builds the job that logs a warning for every batch
// approaching its expiry date.
func NewExpiryAlertJob(params ExpiryAlertJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Warehouse == nil {
		return nil, fmt.Errorf("warehouse service required")
	}
	threshold := params.ThresholdDays
	if threshold <= 0 {
		threshold = expiryAlertThresholdDays
	}
	return &expiryAlertJob{
		logg:      params.Logger,
		warehouse: params.Warehouse,
		threshold: threshold,
	}, nil
}

type expiryAlertJob struct {
	logg      *logger.Logger
	warehouse expiryAlertSource
	threshold int
}

func (j *expiryAlertJob) Name() string { return "expiry-alerts" }

func (j *expiryAlertJob) Run(ctx context.Context) error {
	var count int
	for alert := range j.warehouse.ExpiryAlerts(ctx, j.threshold) {
		count++
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"batch_id":       alert.Batch.ID,
			"product_id":     alert.Batch.ProductID,
			"warehouse_id":   alert.Batch.WarehouseID,
			"quantity":       alert.Batch.Quantity,
			"expiry_date":    alert.Batch.ExpiryDate,
			"days_remaining": alert.DaysRemaining,
		})
		j.logg.Warn(logCtx, "stock batch approaching expiry")
	}
	if count > 0 {
		j.logg.Info(j.logg.WithField(ctx, "batches", count), "expiry alerts emitted")
	}
	return nil
}
