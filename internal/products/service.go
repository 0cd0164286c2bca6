package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

// Service exposes product catalog operations.
type Service interface {
	CreateProduct(ctx context.Context, principal auth.Principal, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, principal auth.Principal, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
}

// CreateProductInput holds the validated payload to create a product.
// InitialStock is booked as an initial_stock movement.
type CreateProductInput struct {
	SupplierID   *uuid.UUID
	Name         string
	Cost         *decimal.Decimal
	SalePrice    *decimal.Decimal
	MinStock     *int
	InitialStock int
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name      *string
	Cost      *decimal.Decimal
	SalePrice *decimal.Decimal
	MinStock  *int
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type stockLedger interface {
	Record(ctx context.Context, tx *gorm.DB, input stock.MovementInput) (*stock.Recorded, error)
	Committed(ctx context.Context, recorded ...*stock.Recorded)
}

type service struct {
	repo            *Repository
	tx              txRunner
	ledger          stockLedger
	defaultMinStock int
}

// NewService constructs a product service instance.
func NewService(repo *Repository, tx txRunner, ledger stockLedger, defaultMinStock int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if defaultMinStock < 0 {
		return nil, fmt.Errorf("default min stock must not be negative")
	}
	return &service{repo: repo, tx: tx, ledger: ledger, defaultMinStock: defaultMinStock}, nil
}

// CreateProduct registers a product and books its opening balance.
func (s *service) CreateProduct(ctx context.Context, principal auth.Principal, input CreateProductInput) (*ProductDTO, error) {
	supplierID, err := resolveSupplier(principal, input.SupplierID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.Cost == nil || input.SalePrice == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost and sale_price are required")
	}
	if err := validatePrices(*input.Cost, *input.SalePrice); err != nil {
		return nil, err
	}
	minStock := s.defaultMinStock
	if input.MinStock != nil {
		minStock = *input.MinStock
	}
	if err := validateMinStock(minStock); err != nil {
		return nil, err
	}
	if input.InitialStock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "initial_stock must not be negative")
	}

	var (
		created  *models.Product
		recorded *stock.Recorded
	)
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		product, err := s.repo.WithTx(tx).CreateProduct(ctx, &models.Product{
			SupplierID: supplierID,
			Name:       name,
			Cost:       *input.Cost,
			SalePrice:  *input.SalePrice,
			StockQty:   0,
			MinStock:   minStock,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
		}
		created = product

		if input.InitialStock == 0 {
			return nil
		}
		recorded, err = s.ledger.Record(ctx, tx, stock.MovementInput{
			ProductID:   product.ID,
			Direction:   enums.MovementIn,
			Quantity:    input.InitialStock,
			Reason:      enums.MovementReasonInitialStock,
			UnitCost:    input.Cost,
			ActorUserID: principal.ActorID(),
		})
		if err != nil {
			return err
		}
		created = recorded.Product
		return nil
	}); err != nil {
		return nil, pkgerrors.EnsureCoded(err, pkgerrors.CodeDependency, "create product")
	}

	if recorded != nil {
		s.ledger.Committed(ctx, recorded)
	}
	return NewProductDTO(created), nil
}

// UpdateProduct changes catalog fields. Stock is never editable here.
func (s *service) UpdateProduct(ctx context.Context, principal auth.Principal, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	if !principal.Is(enums.RoleAdmin, enums.RoleSupplier) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins and suppliers can edit products")
	}

	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, lookupError(err)
	}
	if !principal.IsAdmin() && (product.SupplierID == nil || !principal.Owns(*product.SupplierID)) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product does not belong to supplier")
	}

	if err := applyUpdateToProduct(product, input); err != nil {
		return nil, err
	}
	updated, err := s.repo.UpdateProduct(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
	}
	return NewProductDTO(updated), nil
}

func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, lookupError(err)
	}
	return NewProductDTO(product), nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListProducts(ctx, input.Filters, input.Pagination.Limit, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	rows, next := pagination.Page(rows, input.Pagination.Limit, func(p models.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})

	items := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *NewProductDTO(&rows[i]))
	}
	return &ProductListResult{Items: items, Cursor: next}, nil
}

// resolveSupplier returns the supplier a new product is attached to. Suppliers
// always create under their own record; admins may pick any or none.
func resolveSupplier(principal auth.Principal, requested *uuid.UUID) (*uuid.UUID, error) {
	switch principal.Role {
	case enums.RoleAdmin:
		return requested, nil
	case enums.RoleSupplier:
		if principal.EntityID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "supplier profile missing")
		}
		if requested != nil && *requested != *principal.EntityID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "suppliers can only create their own products")
		}
		id := *principal.EntityID
		return &id, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins and suppliers can create products")
	}
}

func applyUpdateToProduct(product *models.Product, input UpdateProductInput) error {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		product.Name = name
	}
	if input.Cost != nil {
		product.Cost = *input.Cost
	}
	if input.SalePrice != nil {
		product.SalePrice = *input.SalePrice
	}
	if input.MinStock != nil {
		if err := validateMinStock(*input.MinStock); err != nil {
			return err
		}
		product.MinStock = *input.MinStock
	}
	return validatePrices(product.Cost, product.SalePrice)
}

func validatePrices(cost, salePrice decimal.Decimal) error {
	if cost.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cost must not be negative")
	}
	if !salePrice.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "sale_price must be greater than zero")
	}
	return nil
}

func validateMinStock(value int) error {
	if value < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "min_stock must not be negative")
	}
	return nil
}

func lookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
}
