package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoshop-backend/pkg/enums"
)

// PurchaseOrder replenishes stock from a supplier once received.
type PurchaseOrder struct {
	ID         uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SupplierID uuid.UUID                 `gorm:"column:supplier_id;type:uuid;not null" json:"supplier_id"`
	Status     enums.PurchaseOrderStatus `gorm:"column:status;type:varchar(16);not null" json:"status"`
	Total      decimal.Decimal           `gorm:"column:total;type:numeric(12,2);not null" json:"total"`
	ReceivedAt *time.Time                `gorm:"column:received_at" json:"received_at"`
	Lines      []PurchaseOrderLine       `gorm:"foreignKey:PurchaseOrderID" json:"lines"`
	CreatedAt  time.Time                 `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time                 `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (p *PurchaseOrder) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	if p.Status == "" {
		p.Status = enums.PurchaseOrderStatusPending
	}
	return nil
}

type PurchaseOrderLine struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	PurchaseOrderID uuid.UUID       `gorm:"column:purchase_order_id;type:uuid;not null;uniqueIndex:purchase_order_lines_position_unique" json:"purchase_order_id"`
	ProductID       uuid.UUID       `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	Position        int             `gorm:"column:position;not null;uniqueIndex:purchase_order_lines_position_unique" json:"position"`
	Quantity        int             `gorm:"column:quantity;not null" json:"quantity"`
	UnitCost        decimal.Decimal `gorm:"column:unit_cost;type:numeric(12,2);not null" json:"unit_cost"`
	Subtotal        decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null" json:"subtotal"`
}

func (l *PurchaseOrderLine) BeforeCreate(*gorm.DB) error {
	assignID(&l.ID)
	return nil
}

func (l *PurchaseOrderLine) BeforeSave(*gorm.DB) error {
	l.Subtotal = LineSubtotal(l.Quantity, l.UnitCost)
	return nil
}
