package stock

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoshop-backend/pkg/auth"
	"github.com/angelmondragon/autoshop-backend/pkg/db/models"
	"github.com/angelmondragon/autoshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autoshop-backend/pkg/errors"
	"github.com/angelmondragon/autoshop-backend/pkg/pagination"
)

// Service exposes the ledger to HTTP callers: manual entries, the audit trail
// and drift checks.
type Service interface {
	RecordManual(ctx context.Context, principal auth.Principal, input ManualMovementInput) (*models.StockMovement, error)
	ListMovements(ctx context.Context, productID uuid.UUID, params pagination.Params) (*MovementList, error)
	Reconcile(ctx context.Context, productID uuid.UUID) (*Reconciliation, error)
}

// ManualMovementInput is an admin correction or an opening balance.
type ManualMovementInput struct {
	ProductID uuid.UUID
	Direction enums.MovementDirection
	Quantity  int
	Reason    enums.MovementReason
	UnitCost  *decimal.Decimal
	Note      string
}

// MovementList is one page of the audit trail, newest first.
type MovementList struct {
	Items  []models.StockMovement `json:"items"`
	Cursor string                 `json:"cursor"`
}

// Reconciliation compares the denormalized stock column against the ledger.
type Reconciliation struct {
	ProductID     uuid.UUID `json:"product_id"`
	StockQty      int       `json:"stock_qty"`
	LedgerIn      int64     `json:"ledger_in"`
	LedgerOut     int64     `json:"ledger_out"`
	LedgerBalance int64     `json:"ledger_balance"`
	Drift         int64     `json:"drift"`
	Consistent    bool      `json:"consistent"`
}

type service struct {
	tx     txRunner
	repo   Repository
	ledger *Ledger
}

// NewService builds the stock service on top of a ledger.
func NewService(tx txRunner, repo Repository, ledger *Ledger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	return &service{tx: tx, repo: repo, ledger: ledger}, nil
}

func (s *service) RecordManual(ctx context.Context, principal auth.Principal, input ManualMovementInput) (*models.StockMovement, error) {
	if !principal.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can adjust stock manually")
	}
	if input.Reason == "" {
		input.Reason = enums.MovementReasonManualAdjustment
	}
	switch input.Reason {
	case enums.MovementReasonManualAdjustment:
	case enums.MovementReasonInitialStock:
		if input.Direction != enums.MovementIn {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "initial stock must be an IN movement")
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("reason %q is reserved for workflows", input.Reason))
	}

	var recorded *Recorded
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		recorded, err = s.ledger.Record(ctx, tx, MovementInput{
			ProductID:   input.ProductID,
			Direction:   input.Direction,
			Quantity:    input.Quantity,
			Reason:      input.Reason,
			Mode:        Strict,
			UnitCost:    input.UnitCost,
			Note:        input.Note,
			ActorUserID: principal.ActorID(),
		})
		return err
	})
	if err != nil {
		return nil, pkgerrors.EnsureCoded(err, pkgerrors.CodeDependency, "record stock movement")
	}

	s.ledger.Committed(ctx, recorded)
	return recorded.Movement, nil
}

func (s *service) ListMovements(ctx context.Context, productID uuid.UUID, params pagination.Params) (*MovementList, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if _, err := s.repo.FindProduct(ctx, productID); err != nil {
		return nil, productLookupError(err, productID)
	}

	rows, err := s.repo.ListMovements(ctx, listMovementsParams{ProductID: productID, Limit: params.Limit, Cursor: cursor})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock movements")
	}

	items, next := pagination.Page(rows, params.Limit, func(m models.StockMovement) pagination.Cursor {
		return pagination.Cursor{CreatedAt: m.CreatedAt, ID: m.ID}
	})
	return &MovementList{Items: items, Cursor: next}, nil
}

func (s *service) Reconcile(ctx context.Context, productID uuid.UUID) (*Reconciliation, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindProduct(ctx, productID)
	if err != nil {
		return nil, productLookupError(err, productID)
	}
	totals, err := s.repo.SumByDirection(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum stock movements")
	}

	balance := totals[enums.MovementIn] - totals[enums.MovementOut]
	drift := int64(product.StockQty) - balance
	return &Reconciliation{
		ProductID:     product.ID,
		StockQty:      product.StockQty,
		LedgerIn:      totals[enums.MovementIn],
		LedgerOut:     totals[enums.MovementOut],
		LedgerBalance: balance,
		Drift:         drift,
		Consistent:    drift == 0,
	}, nil
}
