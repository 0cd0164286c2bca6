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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/autoshop-backend/api/routes"
	"github.com/angelmondragon/autoshop-backend/internal/auth"
	"github.com/angelmondragon/autoshop-backend/internal/budgets"
	"github.com/angelmondragon/autoshop-backend/internal/lineitems"
	"github.com/angelmondragon/autoshop-backend/internal/notifications"
	products "github.com/angelmondragon/autoshop-backend/internal/products"
	"github.com/angelmondragon/autoshop-backend/internal/purchaseorders"
	"github.com/angelmondragon/autoshop-backend/internal/sales"
	"github.com/angelmondragon/autoshop-backend/internal/serviceorders"
	"github.com/angelmondragon/autoshop-backend/internal/stock"
	"github.com/angelmondragon/autoshop-backend/internal/users"
	"github.com/angelmondragon/autoshop-backend/pkg/config"
	"github.com/angelmondragon/autoshop-backend/pkg/db"
	"github.com/angelmondragon/autoshop-backend/pkg/logger"
	"github.com/angelmondragon/autoshop-backend/pkg/metrics"
	"github.com/angelmondragon/autoshop-backend/pkg/migrate"
	"github.com/angelmondragon/autoshop-backend/pkg/redis"
	"github.com/angelmondragon/autoshop-backend/pkg/security"
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
		Format:      cfg.App.LogFormat,
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	inventoryMetrics := metrics.NewInventoryMetrics(registry)

	services, err := buildServices(cfg, logg, dbClient, inventoryMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, registry, services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "graceful shutdown failed", err)
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, inventoryMetrics *metrics.InventoryMetrics) (routes.Services, error) {
	conn := dbClient.DB()

	notificationsService, err := notifications.NewService(notifications.NewRepository(conn))
	if err != nil {
		return routes.Services{}, err
	}
	dispatcher := notifications.NewDispatcher(
		notifications.LogSink{From: cfg.Notifications.FromEmail, Logg: logg},
		cfg.Notifications.Recipients,
		logg,
	)

	stockRepo := stock.NewRepository(conn)
	ledger, err := stock.NewLedger(stockRepo, notificationsService, dispatcher, inventoryMetrics)
	if err != nil {
		return routes.Services{}, err
	}
	stockService, err := stock.NewService(dbClient, stockRepo, ledger)
	if err != nil {
		return routes.Services{}, err
	}

	hasher, err := security.NewHasher(cfg.Password)
	if err != nil {
		return routes.Services{}, err
	}
	authService, err := auth.NewService(auth.ServiceParams{
		Users:     users.NewRepository(conn),
		Passwords: hasher,
		JWT:       cfg.JWT,
	})
	if err != nil {
		return routes.Services{}, err
	}

	productService, err := products.NewService(products.NewRepository(conn), dbClient, ledger, cfg.Inventory.DefaultMinStock)
	if err != nil {
		return routes.Services{}, err
	}

	salesService, err := sales.NewService(dbClient, sales.NewRepository(conn), ledger, inventoryMetrics)
	if err != nil {
		return routes.Services{}, err
	}

	lineRepo := lineitems.NewRepository(conn)
	catalog := lineitems.NewCatalog(conn)
	orderRepo := serviceorders.NewRepository(conn)
	opener := serviceorders.NewOpener(orderRepo, serviceorders.NewNumberGenerator(cfg.Inventory.OrderNumberPrefix))

	budgetService, err := budgets.NewService(dbClient, budgets.NewRepository(conn), lineRepo, catalog, opener)
	if err != nil {
		return routes.Services{}, err
	}
	orderService, err := serviceorders.NewService(dbClient, orderRepo, lineRepo, catalog, opener, ledger)
	if err != nil {
		return routes.Services{}, err
	}

	purchaseService, err := purchaseorders.NewService(dbClient, purchaseorders.NewRepository(conn), ledger)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Auth:           authService,
		Products:       productService,
		Stock:          stockService,
		Sales:          salesService,
		Budgets:        budgetService,
		ServiceOrders:  orderService,
		PurchaseOrders: purchaseService,
		Notifications:  notificationsService,
	}, nil
}
