package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/autoshop-backend/api/controllers"
	"github.com/angelmondragon/autoshop-backend/api/middleware"
	"github.com/angelmondragon/autoshop-backend/internal/auth"
	"github.com/angelmondragon/autoshop-backend/internal/budgets"
	"github.com/angelmondragon/autoshop-backend/internal/notifications"
	products "github.com/angelmondragon/autoshop-backend/internal/products"
	"github.com/angelmondragon/autoshop-backend/internal/purchaseorders"
	"github.com/angelmondragon/autoshop-backend/internal/sales"
	"github.com/angelmondragon/autoshop-backend/internal/serviceorders"
	"github.com/angelmondragon/autoshop-backend/internal/stock"
	"github.com/angelmondragon/autoshop-backend/pkg/config"
	"github.com/angelmondragon/autoshop-backend/pkg/enums"
	"github.com/angelmondragon/autoshop-backend/pkg/logger"
	"github.com/angelmondragon/autoshop-backend/pkg/redis"
)

// redisStore is what the HTTP layer needs from redis: login rate limiting,
// idempotency records and the readiness probe.
type redisStore interface {
	redis.IdempotencyStore
	controllers.Pinger
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Services groups the domain services mounted by the router. Nil services
// answer 503 from their handlers.
type Services struct {
	Auth           auth.Service
	Products       products.Service
	Stock          stock.Service
	Sales          sales.Service
	Budgets        budgets.Service
	ServiceOrders  serviceorders.Service
	PurchaseOrders purchaseorders.Service
	Notifications  notifications.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient redisStore,
	gatherer prometheus.Gatherer,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, "/health/live", "/health/ready", cfg.Metrics.Path),
		middleware.CORS(cfg.App),
	)

	loginThrottle := middleware.Throttle("login", cfg.AuthRateLimit.LoginWindow, redisClient, logg,
		middleware.ByClientIP(cfg.AuthRateLimit.LoginIPLimit),
		middleware.ByBodyEmail(cfg.AuthRateLimit.LoginEmailLimit),
	)

	staff := middleware.RequireRoles(logg, enums.RoleAdmin, enums.RoleMechanic)
	adminOnly := middleware.RequireRoles(logg, enums.RoleAdmin)
	catalogWriters := middleware.RequireRoles(logg, enums.RoleAdmin, enums.RoleSupplier)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if cfg.Metrics.Enabled && cfg.Metrics.Path != "" && gatherer != nil {
		r.Handle(cfg.Metrics.Path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.With(loginThrottle).Post("/auth/login", controllers.AuthLogin(svc.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.Idempotency(redisClient, logg))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ListProducts(svc.Products, logg))
				r.With(catalogWriters).Post("/", controllers.CreateProduct(svc.Products, logg))
				r.Get("/{productId}", controllers.GetProduct(svc.Products, logg))
				r.With(catalogWriters).Patch("/{productId}", controllers.UpdateProduct(svc.Products, logg))
				r.Get("/{productId}/movements", controllers.ProductMovements(svc.Stock, logg))
				r.With(adminOnly).Get("/{productId}/reconcile", controllers.ProductReconcile(svc.Stock, logg))
			})

			r.With(adminOnly).Post("/stock/movements", controllers.RecordStockMovement(svc.Stock, logg))

			r.Route("/sales", func(r chi.Router) {
				r.Use(staff)
				r.Get("/", controllers.ListSales(svc.Sales, logg))
				r.Post("/", controllers.CreateSale(svc.Sales, logg))
				r.Get("/{saleId}", controllers.GetSale(svc.Sales, logg))
			})

			r.Route("/budgets", func(r chi.Router) {
				r.Get("/", controllers.ListBudgets(svc.Budgets, logg))
				r.With(staff).Post("/", controllers.CreateBudget(svc.Budgets, logg))
				r.Route("/{budgetId}", func(r chi.Router) {
					r.Get("/", controllers.GetBudget(svc.Budgets, logg))
					r.With(staff).Post("/lines", controllers.AddBudgetLine(svc.Budgets, logg))
					r.With(staff).Patch("/lines/{lineId}", controllers.UpdateBudgetLine(svc.Budgets, logg))
					r.With(staff).Delete("/lines/{lineId}", controllers.DeleteBudgetLine(svc.Budgets, logg))
					r.With(staff).Post("/finalize", controllers.FinalizeBudget(svc.Budgets, logg))
					r.Post("/approve", controllers.ApproveBudget(svc.Budgets, logg))
					r.Post("/reject", controllers.RejectBudget(svc.Budgets, logg))
				})
			})

			r.Route("/service-orders", func(r chi.Router) {
				r.Get("/", controllers.ListServiceOrders(svc.ServiceOrders, logg))
				r.With(staff).Post("/", controllers.CreateServiceOrder(svc.ServiceOrders, logg))
				r.Route("/{orderId}", func(r chi.Router) {
					r.Get("/", controllers.GetServiceOrder(svc.ServiceOrders, logg))
					r.With(staff).Post("/lines", controllers.AddServiceOrderLine(svc.ServiceOrders, logg))
					r.With(staff).Patch("/status", controllers.UpdateServiceOrderStatus(svc.ServiceOrders, logg))
					r.With(staff).Put("/checklist", controllers.SaveChecklist(svc.ServiceOrders, logg))
					r.With(staff).Put("/report", controllers.SaveReport(svc.ServiceOrders, logg))
					r.Get("/report", controllers.GetReport(svc.ServiceOrders, logg))
				})
			})

			r.Route("/purchase-orders", func(r chi.Router) {
				r.Use(catalogWriters)
				r.Get("/", controllers.ListPurchaseOrders(svc.PurchaseOrders, logg))
				r.Post("/", controllers.CreatePurchaseOrder(svc.PurchaseOrders, logg))
				r.Get("/{purchaseOrderId}", controllers.GetPurchaseOrder(svc.PurchaseOrders, logg))
				r.Post("/{purchaseOrderId}/receive", controllers.ReceivePurchaseOrder(svc.PurchaseOrders, logg))
				r.Post("/{purchaseOrderId}/cancel", controllers.CancelPurchaseOrder(svc.PurchaseOrders, logg))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Use(staff)
				r.Get("/", controllers.ListNotifications(svc.Notifications, logg))
				r.Post("/read-all", controllers.MarkAllNotificationsRead(svc.Notifications, logg))
				r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svc.Notifications, logg))
			})
		})
	})

	return r
}
