package metrics

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestInventoryMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewInventoryMetrics(reg)
	metrics.ObserveMovement("OUT", "sale", 3)
	metrics.ObserveMovement("OUT", "sale", 2)
	metrics.ObserveMovement("IN", "purchase_receipt", 10)
	metrics.IncLowStock()
	metrics.IncSale()
	metrics.IncRejected("insufficient_stock")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "stock_movements_total", "reason", "sale"); err != nil {
		t.Fatalf("fetch movements: %v", err)
	} else if got != 2 {
		t.Fatalf("expected 2 sale movements, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "stock_movement_units_total", "direction", "IN"); err != nil {
		t.Fatalf("fetch units: %v", err)
	} else if got != 10 {
		t.Fatalf("expected 10 units in, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "stock_movements_rejected_total", "cause", "insufficient_stock"); err != nil {
		t.Fatalf("fetch rejected: %v", err)
	} else if got != 1 {
		t.Fatalf("expected 1 rejection, got %f", got)
	}

	if got := fetchPlainCounter(mfs, "low_stock_alerts_total"); got != 1 {
		t.Fatalf("expected 1 low stock alert, got %f", got)
	}
	if got := fetchPlainCounter(mfs, "sales_completed_total"); got != 1 {
		t.Fatalf("expected 1 sale, got %f", got)
	}
}

func TestInventoryMetricsNilSafe(t *testing.T) {
	var metrics *InventoryMetrics
	metrics.ObserveMovement("OUT", "sale", 1)
	metrics.IncLowStock()
	metrics.IncSale()
	metrics.IncRejected("x")

	NewInventoryMetrics(nil).IncSale()
}

func fetchPlainCounter(mfs []*dto.MetricFamily, name string) float64 {
	mf := findMetricFamily(mfs, name)
	if mf == nil || len(mf.GetMetric()) == 0 {
		return -1
	}
	return mf.GetMetric()[0].GetCounter().GetValue()
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
