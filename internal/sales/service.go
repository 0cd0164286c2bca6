package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoshop-backend/internal/stock"
	"github.com/angelmondragon/autoshop-backend/pkg/auth"
	"github.com/angelmondragon/autoshop-backend/pkg/db/models"
	"github.com/angelmondragon/autoshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autoshop-backend/pkg/errors"
	"github.com/angelmondragon/autoshop-backend/pkg/metrics"
	"github.com/angelmondragon/autoshop-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type stockLedger interface {
	Record(ctx context.Context, tx *gorm.DB, input stock.MovementInput) (*stock.Recorded, error)
	Committed(ctx context.Context, recorded ...*stock.Recorded)
}

// Service processes counter sales.
type Service interface {
	ProcessSale(ctx context.Context, principal auth.Principal, lines []LineInput) (*models.Sale, error)
	GetSale(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	ListSales(ctx context.Context, params pagination.Params) (*SaleList, error)
}

// LineInput is one requested product. UnitPrice falls back to the product's
// sale price when nil.
type LineInput struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice *decimal.Decimal
}

// SaleList is one page of sales, newest first.
type SaleList struct {
	Items  []models.Sale `json:"items"`
	Cursor string        `json:"cursor"`
}

type service struct {
	tx      txRunner
	repo    Repository
	ledger  stockLedger
	metrics *metrics.InventoryMetrics
}

// NewService builds the sales service. inventoryMetrics may be nil.
func NewService(tx txRunner, repo Repository, ledger stockLedger, inventoryMetrics *metrics.InventoryMetrics) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	return &service{tx: tx, repo: repo, ledger: ledger, metrics: inventoryMetrics}, nil
}

func (s *service) ProcessSale(ctx context.Context, principal auth.Principal, lines []LineInput) (*models.Sale, error) {
	if !principal.Is(enums.RoleAdmin, enums.RoleMechanic) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins and mechanics can register sales")
	}
	if err := validateLines(lines); err != nil {
		return nil, err
	}

	var (
		sale     *models.Sale
		recorded []*stock.Recorded
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		recorded = recorded[:0]

		sale = &models.Sale{Total: decimal.Zero, ActorUserID: principal.ActorID()}
		if err := repo.CreateSale(ctx, sale); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sale")
		}

		total := decimal.Zero
		saleLines := make([]models.SaleLine, 0, len(lines))
		for i, input := range lines {
			movement, err := s.ledger.Record(ctx, tx, stock.MovementInput{
				ProductID:   input.ProductID,
				Direction:   enums.MovementOut,
				Quantity:    input.Quantity,
				Reason:      enums.MovementReasonSale,
				Mode:        stock.Strict,
				SaleID:      &sale.ID,
				ActorUserID: principal.ActorID(),
			})
			if err != nil {
				return err
			}
			recorded = append(recorded, movement)

			price := movement.Product.SalePrice
			if input.UnitPrice != nil {
				price = *input.UnitPrice
			}
			line := models.SaleLine{
				SaleID:    sale.ID,
				ProductID: input.ProductID,
				Position:  i,
				Quantity:  input.Quantity,
				UnitPrice: price,
			}
			if err := repo.CreateLine(ctx, &line); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sale line")
			}
			total = total.Add(line.Subtotal)
			saleLines = append(saleLines, line)
		}

		if err := repo.UpdateTotal(ctx, sale.ID, total); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update sale total")
		}
		sale.Total = total
		sale.Lines = saleLines
		return nil
	})
	if err != nil {
		return nil, pkgerrors.EnsureCoded(err, pkgerrors.CodeDependency, "process sale")
	}

	s.ledger.Committed(ctx, recorded...)
	s.metrics.IncSale()
	return sale, nil
}

func (s *service) GetSale(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale id required")
	}
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale")
	}
	return sale, nil
}

func (s *service) ListSales(ctx context.Context, params pagination.Params) (*SaleList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, listSalesParams{Limit: params.Limit, Cursor: cursor})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sales")
	}
	items, next := pagination.Page(rows, params.Limit, func(sale models.Sale) pagination.Cursor {
		return pagination.Cursor{CreatedAt: sale.CreatedAt, ID: sale.ID}
	})
	return &SaleList{Items: items, Cursor: next}, nil
}

func validateLines(lines []LineInput) error {
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "sale requires at least one line")
	}
	for i, line := range lines {
		if line.ProductID == uuid.Nil {
			return lineError(i, "product_id is required")
		}
		if line.Quantity <= 0 {
			return lineError(i, "quantity must be greater than zero")
		}
		if line.UnitPrice != nil && line.UnitPrice.IsNegative() {
			return lineError(i, "unit_price must not be negative")
		}
		if line.UnitPrice != nil && !line.UnitPrice.Equal(line.UnitPrice.Round(2)) {
			return lineError(i, "unit_price must have at most 2 decimal places")
		}
	}
	return nil
}

func lineError(index int, message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).
		WithDetails(map[string]any{"line": index})
}
