package stock

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoshop-backend/pkg/db/models"
	"github.com/angelmondragon/autoshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autoshop-backend/pkg/errors"
	"github.com/angelmondragon/autoshop-backend/pkg/metrics"
)

// Mode selects how an OUT movement treats missing stock.
type Mode int

const (
	// Strict refuses an OUT larger than the current stock.
	Strict Mode = iota
	// Lenient applies the OUT even when stock goes negative.
	Lenient
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type lowStockRaiser interface {
	RaiseLowStock(ctx context.Context, tx *gorm.DB, product *models.Product, stockAfter int) (*models.Notification, error)
}

type alertNotifier interface {
	Notify(ctx context.Context, notes ...models.Notification)
}

// MovementInput describes one ledger entry.
type MovementInput struct {
	ProductID       uuid.UUID
	Direction       enums.MovementDirection
	Quantity        int
	Reason          enums.MovementReason
	Mode            Mode
	UnitCost        *decimal.Decimal
	Note            string
	SaleID          *uuid.UUID
	ServiceOrderID  *uuid.UUID
	PurchaseOrderID *uuid.UUID
	ActorUserID     *uuid.UUID
}

// Recorded is the outcome of a committed-or-pending movement. Alert is set
// when the movement left the product under its minimum.
type Recorded struct {
	Movement *models.StockMovement
	Product  *models.Product
	Alert    *models.Notification
}

// Alerts collects the notifications raised by a batch of movements.
func Alerts(recorded ...*Recorded) []models.Notification {
	var out []models.Notification
	for _, r := range recorded {
		if r != nil && r.Alert != nil {
			out = append(out, *r.Alert)
		}
	}
	return out
}

// Ledger applies stock movements. Record runs on the caller's transaction so
// that every write of a workflow commits or aborts together.
type Ledger struct {
	repo     Repository
	alerts   lowStockRaiser
	notifier alertNotifier
	metrics  *metrics.InventoryMetrics
}

// NewLedger wires the ledger. notifier and inventoryMetrics may be nil.
func NewLedger(repo Repository, alerts lowStockRaiser, notifier alertNotifier, inventoryMetrics *metrics.InventoryMetrics) (*Ledger, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if alerts == nil {
		return nil, fmt.Errorf("low stock notifier required")
	}
	return &Ledger{repo: repo, alerts: alerts, notifier: notifier, metrics: inventoryMetrics}, nil
}

// Record updates the product stock and appends the matching movement row.
func (l *Ledger) Record(ctx context.Context, tx *gorm.DB, input MovementInput) (*Recorded, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stock movement requires a transaction")
	}
	if err := validateMovement(input); err != nil {
		return nil, err
	}

	repo := l.repo.WithTx(tx)
	product, err := repo.FindProduct(ctx, input.ProductID)
	if err != nil {
		return nil, productLookupError(err, input.ProductID)
	}

	switch {
	case input.Direction == enums.MovementIn:
		err = repo.ApplyDelta(ctx, product.ID, input.Quantity)
	case input.Mode == Lenient:
		err = repo.ApplyDelta(ctx, product.ID, -input.Quantity)
	default:
		var applied bool
		applied, err = repo.DecrementIfAvailable(ctx, product.ID, input.Quantity)
		if err == nil && !applied {
			l.metrics.IncRejected("insufficient_stock")
			return nil, InsufficientStock(product, input.Quantity)
		}
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product stock")
	}

	product, err = repo.FindProduct(ctx, product.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload product stock")
	}

	movement := &models.StockMovement{
		ProductID:       product.ID,
		Direction:       input.Direction,
		Quantity:        input.Quantity,
		UnitCost:        input.UnitCost,
		Reason:          input.Reason,
		Note:            strings.TrimSpace(input.Note),
		StockAfter:      product.StockQty,
		SaleID:          input.SaleID,
		ServiceOrderID:  input.ServiceOrderID,
		PurchaseOrderID: input.PurchaseOrderID,
		ActorUserID:     input.ActorUserID,
	}
	if err := repo.CreateMovement(ctx, movement); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append stock movement")
	}

	recorded := &Recorded{Movement: movement, Product: product}
	if input.Direction == enums.MovementOut && product.IsLowStock() {
		alert, err := l.alerts.RaiseLowStock(ctx, tx, product, product.StockQty)
		if err != nil {
			return nil, err
		}
		recorded.Alert = alert
	}
	return recorded, nil
}

// Committed reports metrics for movements whose transaction committed and
// hands their alerts to the delivery sink.
func (l *Ledger) Committed(ctx context.Context, recorded ...*Recorded) {
	for _, r := range recorded {
		if r == nil || r.Movement == nil {
			continue
		}
		l.metrics.ObserveMovement(string(r.Movement.Direction), string(r.Movement.Reason), r.Movement.Quantity)
		if r.Alert != nil {
			l.metrics.IncLowStock()
		}
	}
	if l.notifier == nil {
		return
	}
	if alerts := Alerts(recorded...); len(alerts) > 0 {
		l.notifier.Notify(ctx, alerts...)
	}
}

// HasCompletionMovement reports whether an order already depleted a product.
func (l *Ledger) HasCompletionMovement(ctx context.Context, tx *gorm.DB, orderID, productID uuid.UUID) (bool, error) {
	found, err := l.repo.WithTx(tx).HasCompletionMovement(ctx, orderID, productID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check completion movement")
	}
	return found, nil
}

// InsufficientStock builds the error returned when an OUT exceeds stock.
func InsufficientStock(product *models.Product, requested int) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("insufficient stock for %s", product.Name)).
		WithDetails(map[string]any{
			"product_id": product.ID,
			"requested":  requested,
			"available":  product.StockQty,
		})
}

func validateMovement(input MovementInput) error {
	if input.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if !input.Direction.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid movement direction %q", input.Direction))
	}
	if input.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}
	if !input.Reason.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid movement reason %q", input.Reason))
	}
	if input.UnitCost != nil && input.UnitCost.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit cost must not be negative")
	}
	return nil
}

func productLookupError(err error, productID uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
			WithDetails(map[string]any{"product_id": productID})
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
}
