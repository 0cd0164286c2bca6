package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/autoshop-backend/pkg/db/models"
)

// ProductDTO represents the product payload returned to clients.
type ProductDTO struct {
	ID         uuid.UUID       `json:"id"`
	SupplierID *uuid.UUID      `json:"supplier_id,omitempty"`
	Name       string          `json:"name"`
	Cost       decimal.Decimal `json:"cost"`
	SalePrice  decimal.Decimal `json:"sale_price"`
	StockQty   int             `json:"stock_qty"`
	MinStock   int             `json:"min_stock"`
	LowStock   bool            `json:"low_stock"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ProductListResult is one page of products.
type ProductListResult struct {
	Items  []ProductDTO `json:"items"`
	Cursor string       `json:"cursor"`
}

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(product *models.Product) *ProductDTO {
	return &ProductDTO{
		ID:         product.ID,
		SupplierID: product.SupplierID,
		Name:       product.Name,
		Cost:       product.Cost,
		SalePrice:  product.SalePrice,
		StockQty:   product.StockQty,
		MinStock:   product.MinStock,
		LowStock:   product.IsLowStock(),
		CreatedAt:  product.CreatedAt,
		UpdatedAt:  product.UpdatedAt,
	}
}
