package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/autoshop-backend/internal/stock"
	pkgerrors "github.com/angelmondragon/autoshop-backend/pkg/errors"
	"github.com/angelmondragon/autoshop-backend/pkg/logger"
	"github.com/angelmondragon/autoshop-backend/pkg/metrics"
)

const defaultReconcileBatch = 200

type productScanner interface {
	ProductIDsAfter(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
}

type stockReconciler interface {
	Reconcile(ctx context.Context, productID uuid.UUID) (*stock.Reconciliation, error)
}

type StockReconcileJobParams struct {
	Logger     *logger.Logger
	Products   productScanner
	Reconciler stockReconciler
	Metrics    *metrics.CronJobMetrics
	BatchSize  int
}

// NewStockReconcileJob compares every product's stock column with its ledger
// balance and reports drift. It never writes; corrections go through manual
// adjustments.
func NewStockReconcileJob(params StockReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product scanner required")
	}
	if params.Reconciler == nil {
		return nil, fmt.Errorf("stock reconciler required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultReconcileBatch
	}
	return &stockReconcileJob{
		logg:       params.Logger,
		products:   params.Products,
		reconciler: params.Reconciler,
		metrics:    params.Metrics,
		batch:      batch,
	}, nil
}

type stockReconcileJob struct {
	logg       *logger.Logger
	products   productScanner
	reconciler stockReconciler
	metrics    *metrics.CronJobMetrics
	batch      int
}

func (j *stockReconcileJob) Name() string { return "stock-reconcile" }

func (j *stockReconcileJob) Run(ctx context.Context) error {
	var (
		after    uuid.UUID
		scanned  int
		drifted  int
		failures error
	)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ids, err := j.products.ProductIDsAfter(ctx, after, j.batch)
		if err != nil {
			return fmt.Errorf("scan products: %w", err)
		}
		for _, id := range ids {
			scanned++
			result, err := j.reconciler.Reconcile(ctx, id)
			if err != nil {
				if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
					continue
				}
				failures = multierr.Append(failures, fmt.Errorf("product %s: %w", id, err))
				continue
			}
			if result.Consistent {
				continue
			}
			drifted++
			driftCtx := j.logg.WithFields(ctx, map[string]any{
				"product_id":     id.String(),
				"stock_qty":      result.StockQty,
				"ledger_balance": result.LedgerBalance,
				"drift":          result.Drift,
			})
			j.logg.Warn(driftCtx, "stock.ledger_drift")
		}
		if len(ids) < j.batch {
			break
		}
		after = ids[len(ids)-1]
	}

	j.metrics.SetDriftedProducts(drifted)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"products_scanned": scanned,
		"products_drifted": drifted,
		"failures":         len(multierr.Errors(failures)),
	})
	j.logg.Info(logCtx, "stock reconciliation complete")
	return failures
}
