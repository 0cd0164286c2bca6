package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sale is a counter sale. Total is the sum of its line subtotals.
type Sale struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Total       decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null" json:"total"`
	ActorUserID *uuid.UUID      `gorm:"column:actor_user_id;type:uuid" json:"actor_user_id"`
	Lines       []SaleLine      `gorm:"foreignKey:SaleID" json:"lines"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (s *Sale) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}

// SaleLine stores the price charged at sale time.
type SaleLine struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SaleID    uuid.UUID       `gorm:"column:sale_id;type:uuid;not null;uniqueIndex:sale_lines_position_unique" json:"sale_id"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	Position  int             `gorm:"column:position;not null;uniqueIndex:sale_lines_position_unique" json:"position"`
	Quantity  int             `gorm:"column:quantity;not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null" json:"unit_price"`
	Subtotal  decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null" json:"subtotal"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (l *SaleLine) BeforeCreate(*gorm.DB) error {
	assignID(&l.ID)
	return nil
}

// BeforeSave keeps subtotal equal to quantity x unit price on every write.
func (l *SaleLine) BeforeSave(*gorm.DB) error {
	l.Subtotal = LineSubtotal(l.Quantity, l.UnitPrice)
	return nil
}

// LineSubtotal multiplies a quantity by its unit price.
func LineSubtotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}
