package purchaseorders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoshop-backend/internal/stock"
	"github.com/angelmondragon/autoshop-backend/pkg/auth"
	"github.com/angelmondragon/autoshop-backend/pkg/db/models"
	"github.com/angelmondragon/autoshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autoshop-backend/pkg/errors"
	"github.com/angelmondragon/autoshop-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type stockLedger interface {
	Record(ctx context.Context, tx *gorm.DB, input stock.MovementInput) (*stock.Recorded, error)
	Committed(ctx context.Context, recorded ...*stock.Recorded)
}

// Service handles supplier replenishment orders.
type Service interface {
	Create(ctx context.Context, principal auth.Principal, input CreateInput) (*models.PurchaseOrder, error)
	Get(ctx context.Context, principal auth.Principal, id uuid.UUID) (*models.PurchaseOrder, error)
	List(ctx context.Context, principal auth.Principal, params pagination.Params) (*OrderList, error)
	Receive(ctx context.Context, principal auth.Principal, id uuid.UUID) (*models.PurchaseOrder, error)
	Cancel(ctx context.Context, principal auth.Principal, id uuid.UUID) (*models.PurchaseOrder, error)
}

// CreateInput defaults SupplierID to the caller's supplier record.
type CreateInput struct {
	SupplierID uuid.UUID
	Lines      []LineInput
}

type LineInput struct {
	ProductID uuid.UUID
	Quantity  int
	UnitCost  *decimal.Decimal
}

type OrderList struct {
	Items  []models.PurchaseOrder `json:"items"`
	Cursor string                 `json:"cursor"`
}

type service struct {
	tx     txRunner
	repo   Repository
	ledger stockLedger
	now    func() time.Time
}

// NewService builds the purchase order service.
func NewService(tx txRunner, repo Repository, ledger stockLedger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("purchase order repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	return &service{tx: tx, repo: repo, ledger: ledger, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, principal auth.Principal, input CreateInput) (*models.PurchaseOrder, error) {
	if input.SupplierID == uuid.Nil && principal.Role == enums.RoleSupplier && principal.EntityID != nil {
		input.SupplierID = *principal.EntityID
	}
	if input.SupplierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier_id is required")
	}
	if !canAct(principal, input.SupplierID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins and the supplier can place this order")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase order requires at least one line")
	}

	order := &models.PurchaseOrder{
		SupplierID: input.SupplierID,
		Status:     enums.PurchaseOrderStatusPending,
		Total:      decimal.Zero,
	}
	productIDs := make([]uuid.UUID, 0, len(input.Lines))
	for i, line := range input.Lines {
		switch {
		case line.ProductID == uuid.Nil:
			return nil, lineError(i, "product_id is required")
		case line.Quantity <= 0:
			return nil, lineError(i, "quantity must be greater than zero")
		case line.UnitCost == nil:
			return nil, lineError(i, "unit_cost is required")
		case line.UnitCost.IsNegative():
			return nil, lineError(i, "unit_cost must not be negative")
		}
		subtotal := models.LineSubtotal(line.Quantity, *line.UnitCost)
		order.Lines = append(order.Lines, models.PurchaseOrderLine{
			ProductID: line.ProductID,
			Position:  i,
			Quantity:  line.Quantity,
			UnitCost:  *line.UnitCost,
			Subtotal:  subtotal,
		})
		order.Total = order.Total.Add(subtotal)
		productIDs = append(productIDs, line.ProductID)
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		exists, err := repo.SupplierExists(ctx, input.SupplierID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		missing, err := repo.MissingProducts(ctx, productIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
		}
		if len(missing) > 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"product_ids": missing})
		}
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchase order")
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.EnsureCoded(err, pkgerrors.CodeDependency, "create purchase order")
	}
	return order, nil
}

func (s *service) Get(ctx context.Context, principal auth.Principal, id uuid.UUID) (*models.PurchaseOrder, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err)
	}
	if !canAct(principal, order.SupplierID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "purchase order not accessible")
	}
	return order, nil
}

// List shows suppliers their own orders; admins see all.
func (s *service) List(ctx context.Context, principal auth.Principal, params pagination.Params) (*OrderList, error) {
	query := listOrdersParams{Limit: params.Limit}
	switch {
	case principal.IsAdmin():
	case principal.Role == enums.RoleSupplier && principal.EntityID != nil:
		query.SupplierID = principal.EntityID
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "purchase orders are not visible to this role")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	query.Cursor = cursor

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchase orders")
	}
	items, next := pagination.Page(rows, params.Limit, func(o models.PurchaseOrder) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return &OrderList{Items: items, Cursor: next}, nil
}

// Receive marks a PENDING order as received and books one IN movement per
// line at the line's unit cost.
func (s *service) Receive(ctx context.Context, principal auth.Principal, id uuid.UUID) (*models.PurchaseOrder, error) {
	var (
		order    *models.PurchaseOrder
		recorded []*stock.Recorded
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		recorded = nil
		var err error
		order, err = s.transition(ctx, tx, principal, id, enums.PurchaseOrderStatusReceived)
		if err != nil {
			return err
		}
		for i := range order.Lines {
			line := order.Lines[i]
			r, err := s.ledger.Record(ctx, tx, stock.MovementInput{
				ProductID:       line.ProductID,
				Direction:       enums.MovementIn,
				Quantity:        line.Quantity,
				Reason:          enums.MovementReasonPurchaseReceipt,
				UnitCost:        &line.UnitCost,
				PurchaseOrderID: &order.ID,
				ActorUserID:     principal.ActorID(),
			})
			if err != nil {
				return err
			}
			recorded = append(recorded, r)
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.EnsureCoded(err, pkgerrors.CodeDependency, "receive purchase order")
	}
	s.ledger.Committed(ctx, recorded...)
	return order, nil
}

func (s *service) Cancel(ctx context.Context, principal auth.Principal, id uuid.UUID) (*models.PurchaseOrder, error) {
	var order *models.PurchaseOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		order, err = s.transition(ctx, tx, principal, id, enums.PurchaseOrderStatusCancelled)
		return err
	})
	if err != nil {
		return nil, pkgerrors.EnsureCoded(err, pkgerrors.CodeDependency, "cancel purchase order")
	}
	return order, nil
}

func (s *service) transition(ctx context.Context, tx *gorm.DB, principal auth.Principal, id uuid.UUID, to enums.PurchaseOrderStatus) (*models.PurchaseOrder, error) {
	repo := s.repo.WithTx(tx)
	order, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err)
	}
	if !canAct(principal, order.SupplierID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "purchase order not accessible")
	}

	var receivedAt *time.Time
	if to == enums.PurchaseOrderStatusReceived {
		now := s.now().UTC()
		receivedAt = &now
	}
	moved, err := repo.Transition(ctx, order.ID, to, receivedAt)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update purchase order status")
	}
	if !moved {
		return nil, pkgerrors.New(pkgerrors.CodeAlreadyProcessed, "purchase order already processed").
			WithDetails(map[string]any{"purchase_order_id": order.ID, "status": order.Status})
	}
	order.Status = to
	order.ReceivedAt = receivedAt
	return order, nil
}

func canAct(principal auth.Principal, supplierID uuid.UUID) bool {
	return principal.IsAdmin() || (principal.Role == enums.RoleSupplier && principal.Owns(supplierID))
}

func lineError(index int, message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).
		WithDetails(map[string]any{"line": index})
}

func lookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "purchase order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase order")
}
