package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoshop-backend/pkg/enums"
)

// StockMovement is an immutable ledger entry. Rows are never updated or deleted.
type StockMovement struct {
	ID              uuid.UUID               `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProductID       uuid.UUID               `gorm:"column:product_id;type:uuid;not null;index" json:"product_id"`
	Direction       enums.MovementDirection `gorm:"column:direction;type:varchar(8);not null" json:"direction"`
	Quantity        int                     `gorm:"column:quantity;not null" json:"quantity"`
	UnitCost        *decimal.Decimal        `gorm:"column:unit_cost;type:numeric(12,2)" json:"unit_cost"`
	Reason          enums.MovementReason    `gorm:"column:reason;type:varchar(40);not null" json:"reason"`
	Note            string                  `gorm:"column:note;not null;default:''" json:"note"`
	StockAfter      int                     `gorm:"column:stock_after;not null" json:"stock_after"`
	SaleID          *uuid.UUID              `gorm:"column:sale_id;type:uuid" json:"sale_id"`
	ServiceOrderID  *uuid.UUID              `gorm:"column:service_order_id;type:uuid" json:"service_order_id"`
	PurchaseOrderID *uuid.UUID              `gorm:"column:purchase_order_id;type:uuid" json:"purchase_order_id"`
	ActorUserID     *uuid.UUID              `gorm:"column:actor_user_id;type:uuid" json:"actor_user_id"`
	CreatedAt       time.Time               `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (m *StockMovement) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}

// SignedQuantity returns the quantity with the direction applied.
func (m StockMovement) SignedQuantity() int {
	return m.Direction.Sign() * m.Quantity
}
