package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mkotelnikov/pizzeria-backend/api/controllers"
	"github.com/mkotelnikov/pizzeria-backend/api/middleware"
	authsvc "github.com/mkotelnikov/pizzeria-backend/internal/auth"
	catalogsvc "github.com/mkotelnikov/pizzeria-backend/internal/catalog"
	dispatchsvc "github.com/mkotelnikov/pizzeria-backend/internal/dispatch"
	fiscalsvc "github.com/mkotelnikov/pizzeria-backend/internal/fiscal"
	ordersvc "github.com/mkotelnikov/pizzeria-backend/internal/orders"
	usersvc "github.com/mkotelnikov/pizzeria-backend/internal/users"
	warehousesvc "github.com/mkotelnikov/pizzeria-backend/internal/warehouse"
	"github.com/mkotelnikov/pizzeria-backend/pkg/config"
	"github.com/mkotelnikov/pizzeria-backend/pkg/db"
	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
	"github.com/mkotelnikov/pizzeria-backend/pkg/logger"
	"github.com/mkotelnikov/pizzeria-backend/pkg/redis"
)

// Services bundles everything the router wires into controllers.
type Services struct {
	Auth      authsvc.Service
	Users     usersvc.Service
	Catalog   catalogsvc.Service
	Orders    ordersvc.Service
	Fiscal    fiscalsvc.Service
	Warehouse warehousesvc.Service
	Dispatch  dispatchsvc.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessions middleware.SessionChecker,
	services Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	admin := string(enums.UserRoleAdmin)
	cashier := string(enums.UserRoleCashier)
	courier := string(enums.UserRoleCourier)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.AuthLogin(services.Auth, logg))
		r.With(middleware.Auth(cfg.JWT, sessions, logg)).Post("/logout", controllers.AuthLogout(services.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, admin))
			r.Post("/", controllers.UserCreate(services.Users, logg))
			r.Get("/", controllers.UserList(services.Users, logg))
			r.Get("/{userId}", controllers.UserGet(services.Users, logg))
			r.Delete("/{userId}", controllers.UserDeactivate(services.Users, logg))
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/categories", controllers.CategoryList(services.Catalog, logg))
			r.Get("/products", controllers.ProductList(services.Catalog, logg))
			r.Get("/products/{productId}", controllers.ProductGet(services.Catalog, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, admin))
				r.Post("/categories", controllers.CategoryCreate(services.Catalog, logg))
				r.Patch("/categories/{categoryId}", controllers.CategoryUpdate(services.Catalog, logg))
				r.Post("/products", controllers.ProductCreate(services.Catalog, logg))
				r.Patch("/products/{productId}", controllers.ProductUpdate(services.Catalog, logg))
				r.Delete("/products/{productId}", controllers.ProductDelete(services.Catalog, logg))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(services.Orders, logg))
			r.Get("/{orderId}", controllers.OrderGet(services.Orders, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, admin, cashier))
				r.Post("/", controllers.OrderCreate(services.Orders, logg))
				r.Post("/{orderId}/transition", controllers.OrderTransition(services.Orders, logg))
				r.Post("/{orderId}/cancel", controllers.OrderCancel(services.Orders, logg))
				r.Post("/{orderId}/assign", controllers.OrderAssign(services.Dispatch, logg))
			})
		})

		r.Route("/shifts", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, admin, cashier))
			r.Post("/", controllers.ShiftOpen(services.Fiscal, logg))
			r.Get("/{shiftId}", controllers.ShiftGet(services.Fiscal, logg))
			r.Post("/{shiftId}/close", controllers.ShiftClose(services.Fiscal, logg))
			r.Get("/{shiftId}/receipts", controllers.ShiftReceipts(services.Fiscal, logg))
			r.Post("/{shiftId}/receipts", controllers.ReceiptIssue(services.Fiscal, logg))
		})

		r.Route("/warehouse", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, admin))
			r.Post("/batches", controllers.BatchReceive(services.Warehouse, logg))
			r.Get("/batches", controllers.BatchList(services.Warehouse, logg))
			r.Post("/batches/{batchId}/adjust", controllers.BatchAdjust(services.Warehouse, logg))
			r.Post("/batches/{batchId}/transfer", controllers.BatchTransfer(services.Warehouse, logg))
			r.Post("/withdrawals", controllers.StockWithdraw(services.Warehouse, logg))
			r.Get("/expiry-alerts", controllers.ExpiryAlerts(services.Warehouse, logg))
		})

		r.Route("/couriers", func(r chi.Router) {
			r.Get("/", controllers.CourierList(services.Dispatch, logg))
			r.Get("/{courierId}/locations", controllers.CourierLocations(services.Dispatch, logg))

			r.With(middleware.RequireRole(logg, admin)).Post("/", controllers.CourierCreate(services.Dispatch, logg))
			r.With(middleware.RequireRole(logg, admin, courier)).Post("/{courierId}/status", controllers.CourierSetStatus(services.Dispatch, logg))
			r.With(middleware.RequireRole(logg, admin, courier)).Post("/{courierId}/locations", controllers.CourierLocation(services.Dispatch, logg))
		})

		r.Route("/assignments", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, admin, cashier, courier))
			r.Post("/{assignmentId}/transition", controllers.AssignmentTransition(services.Dispatch, logg))
		})
	})

	return r
}
