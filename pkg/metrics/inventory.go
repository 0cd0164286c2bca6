package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// InventoryMetrics counts ledger activity for stock dashboards.
type InventoryMetrics struct {
	movements *prometheus.CounterVec
	units     *prometheus.CounterVec
	lowStock  prometheus.Counter
	sales     prometheus.Counter
	rejected  *prometheus.CounterVec
}

// NewInventoryMetrics registers the inventory metrics on the provided registerer.
func NewInventoryMetrics(reg prometheus.Registerer) *InventoryMetrics {
	if reg == nil {
		return &InventoryMetrics{}
	}
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_movements_total",
		Help: "Stock movements recorded, by direction and reason.",
	}, []string{"direction", "reason"})
	units := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_movement_units_total",
		Help: "Units moved through the ledger, by direction.",
	}, []string{"direction"})
	lowStock := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "low_stock_alerts_total",
		Help: "Low stock notifications raised.",
	})
	sales := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sales_completed_total",
		Help: "Sales committed.",
	})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_movements_rejected_total",
		Help: "Stock movements refused, by cause.",
	}, []string{"cause"})
	reg.MustRegister(movements, units, lowStock, sales, rejected)
	return &InventoryMetrics{
		movements: movements,
		units:     units,
		lowStock:  lowStock,
		sales:     sales,
		rejected:  rejected,
	}
}

// ObserveMovement records one committed ledger row.
func (m *InventoryMetrics) ObserveMovement(direction, reason string, quantity int) {
	if m == nil || m.movements == nil {
		return
	}
	direction = normalizeLabel(direction)
	m.movements.WithLabelValues(direction, normalizeLabel(reason)).Inc()
	if quantity > 0 {
		m.units.WithLabelValues(direction).Add(float64(quantity))
	}
}

func (m *InventoryMetrics) IncLowStock() {
	if m == nil || m.lowStock == nil {
		return
	}
	m.lowStock.Inc()
}

func (m *InventoryMetrics) IncSale() {
	if m == nil || m.sales == nil {
		return
	}
	m.sales.Inc()
}

// IncRejected counts a refused movement such as an insufficient stock OUT.
func (m *InventoryMetrics) IncRejected(cause string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(cause)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
