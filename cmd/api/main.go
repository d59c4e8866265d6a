package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mkotelnikov/pizzeria-backend/api/routes"
	authsvc "github.com/mkotelnikov/pizzeria-backend/internal/auth"
	"github.com/mkotelnikov/pizzeria-backend/internal/catalog"
	"github.com/mkotelnikov/pizzeria-backend/internal/dispatch"
	"github.com/mkotelnikov/pizzeria-backend/internal/fiscal"
	"github.com/mkotelnikov/pizzeria-backend/internal/integrations"
	"github.com/mkotelnikov/pizzeria-backend/internal/orders"
	"github.com/mkotelnikov/pizzeria-backend/internal/users"
	"github.com/mkotelnikov/pizzeria-backend/internal/warehouse"
	"github.com/mkotelnikov/pizzeria-backend/pkg/auth/session"
	"github.com/mkotelnikov/pizzeria-backend/pkg/config"
	"github.com/mkotelnikov/pizzeria-backend/pkg/db"
	"github.com/mkotelnikov/pizzeria-backend/pkg/logger"
	"github.com/mkotelnikov/pizzeria-backend/pkg/migrate"
	"github.com/mkotelnikov/pizzeria-backend/pkg/outbox"
	"github.com/mkotelnikov/pizzeria-backend/pkg/redis"
	"github.com/mkotelnikov/pizzeria-backend/pkg/zones"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()

	var zoneLookup zones.Lookup
	if cfg.Zones.BaseURL != "" {
		client, err := zones.NewClient(cfg.Zones)
		if err != nil {
			logg.Error(context.Background(), "failed to create zone client", err)
			os.Exit(1)
		}
		zoneLookup = client
	} else {
		zoneLookup = zones.Static{FeeCents: cfg.Zones.DefaultFee, ETAMinutes: cfg.Zones.DefaultETAMins}
	}

	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)

	syncService, err := integrations.NewService(integrations.NewRepository(gormDB), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create sync service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(gormDB)
	ordersService, err := orders.NewService(
		ordersRepo,
		dbClient,
		catalog.NewRepository(gormDB),
		zoneLookup,
		outboxService,
		syncService,
		cfg.Zones.DefaultFee,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	fiscalService, err := fiscal.NewService(
		fiscal.NewRepository(gormDB),
		dbClient,
		ordersRepo,
		integrations.NewFakeFiscalAuthority(),
		syncService,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create fiscal service", err)
		os.Exit(1)
	}

	warehouseService, err := warehouse.NewService(warehouse.NewRepository(gormDB), dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create warehouse service", err)
		os.Exit(1)
	}

	dispatchService, err := dispatch.NewService(dispatch.NewRepository(gormDB), dbClient, ordersRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create dispatch service", err)
		os.Exit(1)
	}

	usersRepo := users.NewRepository(gormDB)
	usersService, err := users.NewService(usersRepo, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	authService, err := authsvc.NewService(usersRepo, sessionManager, cfg.JWT, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	handler := routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, routes.Services{
		Auth:      authService,
		Users:     usersService,
		Catalog:   catalogService,
		Orders:    ordersService,
		Fiscal:    fiscalService,
		Warehouse: warehouseService,
		Dispatch:  dispatchService,
	})

	addr := ":" + cfg.App.Port
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}

	logg.Info(ctx, "api server shut down gracefully")
}
