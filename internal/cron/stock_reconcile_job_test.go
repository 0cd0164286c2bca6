package cron

import (
	"context"
	"errors"
	"io"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/angelmondragon/autoshop-backend/internal/stock"
	pkgerrors "github.com/angelmondragon/autoshop-backend/pkg/errors"
	"github.com/angelmondragon/autoshop-backend/pkg/logger"
	"github.com/angelmondragon/autoshop-backend/pkg/metrics"
)

type fakeProductScanner struct {
	ids   []uuid.UUID
	calls int
}

func (f *fakeProductScanner) ProductIDsAfter(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	f.calls++
	start := 0
	if after != uuid.Nil {
		for i, id := range f.ids {
			if id == after {
				start = i + 1
				break
			}
		}
	}
	end := start + limit
	if end > len(f.ids) {
		end = len(f.ids)
	}
	return f.ids[start:end], nil
}

type fakeReconciler struct {
	drift   map[uuid.UUID]int64
	missing map[uuid.UUID]bool
	broken  map[uuid.UUID]bool
	seen    []uuid.UUID
}

func (f *fakeReconciler) Reconcile(ctx context.Context, productID uuid.UUID) (*stock.Reconciliation, error) {
	f.seen = append(f.seen, productID)
	if f.missing[productID] {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if f.broken[productID] {
		return nil, errors.New("db down")
	}
	drift := f.drift[productID]
	return &stock.Reconciliation{ProductID: productID, Drift: drift, Consistent: drift == 0}, nil
}

func sortedIDs(n int) []uuid.UUID {
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a].String() < ids[b].String() })
	return ids
}

func newReconcileJob(t *testing.T, scanner productScanner, reconciler stockReconciler, m *metrics.CronJobMetrics, batch int) Job {
	t.Helper()
	job, err := NewStockReconcileJob(StockReconcileJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Products:   scanner,
		Reconciler: reconciler,
		Metrics:    m,
		BatchSize:  batch,
	})
	require.NoError(t, err)
	return job
}

func TestStockReconcileJobScansAllBatches(t *testing.T) {
	ids := sortedIDs(5)
	scanner := &fakeProductScanner{ids: ids}
	reconciler := &fakeReconciler{drift: map[uuid.UUID]int64{ids[1]: 2, ids[4]: -1}}
	registry := prometheus.NewRegistry()
	cronMetrics := metrics.NewCronJobMetrics(registry)

	job := newReconcileJob(t, scanner, reconciler, cronMetrics, 2)
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, ids, reconciler.seen)
	assert.Equal(t, 3, scanner.calls)

	mfs, err := registry.Gather()
	require.NoError(t, err)
	var drifted float64 = -1
	for _, mf := range mfs {
		if mf.GetName() == "stock_ledger_drift_products" {
			drifted = mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	assert.Equal(t, float64(2), drifted)
}

func TestStockReconcileJobSkipsDeletedProducts(t *testing.T) {
	ids := sortedIDs(3)
	reconciler := &fakeReconciler{missing: map[uuid.UUID]bool{ids[0]: true}}

	job := newReconcileJob(t, &fakeProductScanner{ids: ids}, reconciler, nil, 10)

	require.NoError(t, job.Run(context.Background()))
	assert.Len(t, reconciler.seen, 3)
}

func TestStockReconcileJobCollectsFailures(t *testing.T) {
	ids := sortedIDs(4)
	reconciler := &fakeReconciler{broken: map[uuid.UUID]bool{ids[0]: true, ids[2]: true}}

	job := newReconcileJob(t, &fakeProductScanner{ids: ids}, reconciler, nil, 10)
	err := job.Run(context.Background())

	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Len(t, reconciler.seen, 4)
}

func TestNewStockReconcileJobRequiresDeps(t *testing.T) {
	_, err := NewStockReconcileJob(StockReconcileJobParams{Logger: logger.New(logger.Options{Output: io.Discard})})
	assert.Error(t, err)
}
