package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a stocked part. StockQty is denormalized from the movement
// ledger and only changes through stock movements.
type Product struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SupplierID *uuid.UUID      `gorm:"column:supplier_id;type:uuid" json:"supplier_id"`
	Name       string          `gorm:"column:name;not null" json:"name"`
	Cost       decimal.Decimal `gorm:"column:cost;type:numeric(12,2);not null" json:"cost"`
	SalePrice  decimal.Decimal `gorm:"column:sale_price;type:numeric(12,2);not null" json:"sale_price"`
	StockQty   int             `gorm:"column:stock_qty;not null;default:0" json:"stock_qty"`
	MinStock   int             `gorm:"column:min_stock;not null" json:"min_stock"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// IsLowStock reports whether the product sits under its minimum threshold.
func (p Product) IsLowStock() bool {
	return p.StockQty < p.MinStock
}
