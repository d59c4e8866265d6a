package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mkotelnikov/pizzeria-backend/internal/cron"
	"github.com/mkotelnikov/pizzeria-backend/internal/fiscal"
	"github.com/mkotelnikov/pizzeria-backend/internal/integrations"
	"github.com/mkotelnikov/pizzeria-backend/internal/orders"
	"github.com/mkotelnikov/pizzeria-backend/internal/warehouse"
	"github.com/mkotelnikov/pizzeria-backend/pkg/config"
	"github.com/mkotelnikov/pizzeria-backend/pkg/db"
	"github.com/mkotelnikov/pizzeria-backend/pkg/db/models"
	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
	"github.com/mkotelnikov/pizzeria-backend/pkg/logger"
	"github.com/mkotelnikov/pizzeria-backend/pkg/metrics"
	"github.com/mkotelnikov/pizzeria-backend/pkg/migrate"
	"github.com/mkotelnikov/pizzeria-backend/pkg/outbox"
	"github.com/mkotelnikov/pizzeria-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "sync-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "sync-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()

	metricsCollector := metrics.NewSyncJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName(cfg.App.Env)), cfg.Sync.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create sync lock", err)
		os.Exit(1)
	}

	syncService, err := integrations.NewService(integrations.NewRepository(gormDB), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create sync service", err)
		os.Exit(1)
	}

	fiscalService, err := fiscal.NewService(
		fiscal.NewRepository(gormDB),
		dbClient,
		orders.NewRepository(gormDB),
		integrations.NewFakeFiscalAuthority(),
		syncService,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create fiscal service", err)
		os.Exit(1)
	}

	register := func(target enums.SyncTarget, handler integrations.Handler) {
		syncService.RegisterHandler(target, func(ctx context.Context, row models.IntegrationSync) error {
			metricsCollector.IncRetried(string(target))
			return handler(ctx, row)
		})
	}
	register(enums.SyncTargetAggregator, integrations.AggregatorSyncHandler(integrations.NoopAggregator{}))
	register(enums.SyncTargetFiscal, integrations.FiscalSyncHandler(fiscalService))
	register(enums.SyncTargetERP, integrations.ERPSyncHandler(integrations.NoopERP{}))

	warehouseService, err := warehouse.NewService(warehouse.NewRepository(gormDB), dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create warehouse service", err)
		os.Exit(1)
	}

	publisher, err := cron.NewLogPublisher(logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox publisher", err)
		os.Exit(1)
	}

	syncRetryJob, err := cron.NewSyncRetryJob(cron.SyncRetryJobParams{
		Logger:      logg,
		Processor:   syncService,
		MaxAttempts: cfg.Sync.MaxAttempts,
		BatchSize:   cfg.Sync.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sync retry job", err)
		os.Exit(1)
	}

	outboxJob, err := cron.NewOutboxPublishJob(cron.OutboxPublishJobParams{
		Logger:     logg,
		Repository: outbox.NewRepository(gormDB),
		Publisher:  publisher,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox publish job", err)
		os.Exit(1)
	}

	expiryJob, err := cron.NewExpiryAlertJob(cron.ExpiryAlertJobParams{
		Logger:    logg,
		Warehouse: warehouseService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create expiry alert job", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(syncRetryJob, outboxJob, expiryJob)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Sync.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sync worker service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Sync.Interval.String(),
	})
	logg.Info(ctx, "starting sync worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "sync worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "sync worker shutting down gracefully")
}

func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("sync-worker:%s", env)
}
