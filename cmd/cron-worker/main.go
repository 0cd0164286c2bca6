package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/autoshop-backend/internal/cron"
	"github.com/angelmondragon/autoshop-backend/internal/notifications"
	"github.com/angelmondragon/autoshop-backend/internal/stock"
	"github.com/angelmondragon/autoshop-backend/pkg/config"
	"github.com/angelmondragon/autoshop-backend/pkg/db"
	"github.com/angelmondragon/autoshop-backend/pkg/logger"
	"github.com/angelmondragon/autoshop-backend/pkg/metrics"
	"github.com/angelmondragon/autoshop-backend/pkg/migrate"
	"github.com/angelmondragon/autoshop-backend/pkg/redis"
)

const serviceName = "cron-worker"

func main() {
	once := flag.Bool("once", false, "run a single maintenance cycle and exit")
	flag.Parse()

	boot := logger.New(logger.Options{ServiceName: serviceName})
	if err := godotenv.Load(); err != nil {
		boot.Debug(context.Background(), ".env not loaded, using process environment")
	}
	cfg, err := config.Load()
	if err != nil {
		boot.Error(context.Background(), "config.load_failed", err)
		os.Exit(1)
	}
	logg := logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Maintenance.Interval.String(),
	})

	if err := run(ctx, cfg, logg, *once); err != nil {
		logg.Error(ctx, "cron_worker.failed", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, once bool) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer closeQuietly(ctx, logg, "database", dbClient.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer closeQuietly(ctx, logg, "redis", redisClient.Close)

	cronMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, cron.LockKey(cfg.App.Env), 0)
	if err != nil {
		return fmt.Errorf("maintenance lock: %w", err)
	}
	jobs, err := maintenanceJobs(cfg, logg, dbClient, cronMetrics)
	if err != nil {
		return fmt.Errorf("register jobs: %w", err)
	}
	svc, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Jobs:     jobs,
		Lock:     lock,
		Metrics:  cronMetrics,
		Interval: cfg.Maintenance.Interval,
	})
	if err != nil {
		return err
	}

	if once {
		ran, err := svc.RunOnce(ctx)
		logg.Info(logg.WithField(ctx, "ran", ran), "cron_worker.single_cycle")
		return err
	}

	logg.Info(ctx, "cron_worker.started")
	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logg.Info(ctx, "cron_worker.stopped")
	return nil
}

func maintenanceJobs(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, cronMetrics *metrics.CronJobMetrics) ([]cron.Job, error) {
	conn := dbClient.DB()
	notes := notifications.NewRepository(conn)
	alerts, err := notifications.NewService(notes)
	if err != nil {
		return nil, err
	}
	stockRepo := stock.NewRepository(conn)
	ledger, err := stock.NewLedger(stockRepo, alerts, nil, nil)
	if err != nil {
		return nil, err
	}
	stockService, err := stock.NewService(dbClient, stockRepo, ledger)
	if err != nil {
		return nil, err
	}

	reconcile, err := cron.NewStockReconcileJob(cron.StockReconcileJobParams{
		Logger:     logg,
		Products:   stockRepo,
		Reconciler: stockService,
		Metrics:    cronMetrics,
		BatchSize:  cfg.Maintenance.ReconcileBatchSize,
	})
	if err != nil {
		return nil, err
	}
	retention, err := cron.NewNotificationRetentionJob(logg, notes, cfg.Maintenance.NotificationRetention)
	if err != nil {
		return nil, err
	}
	return []cron.Job{reconcile, retention}, nil
}

func closeQuietly(ctx context.Context, logg *logger.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(logg.WithField(ctx, "resource", what), "cron_worker.close_failed", err)
	}
}
