package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoshop-backend/pkg/enums"
)

var (
	ErrLineParentRequired  = errors.New("line item parent is required")
	ErrLineContentRequired = errors.New("line item must reference a product or a service")
	ErrLineQuantity        = errors.New("line item quantity must be greater than zero")
	ErrLineUnitPrice       = errors.New("line item unit price must not be negative")
)

// LineParent identifies the single document that owns a line.
type LineParent struct {
	Kind enums.LineParentKind
	ID   uuid.UUID
}

// BudgetParent returns the parent reference of a budget line.
func BudgetParent(id uuid.UUID) LineParent {
	return LineParent{Kind: enums.LineParentBudget, ID: id}
}

// ServiceOrderParent returns the parent reference of a service order line.
func ServiceOrderParent(id uuid.UUID) LineParent {
	return LineParent{Kind: enums.LineParentServiceOrder, ID: id}
}

// LineContent identifies the single product or service a line charges for.
type LineContent struct {
	Kind enums.LineContentKind
	ID   uuid.UUID
}

// ProductContent returns the content reference of a parts line.
func ProductContent(id uuid.UUID) LineContent {
	return LineContent{Kind: enums.LineContentProduct, ID: id}
}

// ServiceContent returns the content reference of a labour line.
func ServiceContent(id uuid.UUID) LineContent {
	return LineContent{Kind: enums.LineContentService, ID: id}
}

// LineItem belongs to exactly one budget or service order and references
// exactly one product or service.
type LineItem struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ParentKind  enums.LineParentKind  `gorm:"column:parent_kind;type:varchar(16);not null;index:idx_line_items_parent,priority:1" json:"parent_kind"`
	ParentID    uuid.UUID             `gorm:"column:parent_id;type:uuid;not null;index:idx_line_items_parent,priority:2" json:"parent_id"`
	ContentKind enums.LineContentKind `gorm:"column:content_kind;type:varchar(16);not null" json:"content_kind"`
	ContentID   uuid.UUID             `gorm:"column:content_id;type:uuid;not null" json:"content_id"`
	Description string                `gorm:"column:description;not null;default:''" json:"description"`
	Quantity    int                   `gorm:"column:quantity;not null" json:"quantity"`
	UnitPrice   decimal.Decimal       `gorm:"column:unit_price;type:numeric(12,2);not null" json:"unit_price"`
	Subtotal    decimal.Decimal       `gorm:"column:subtotal;type:numeric(12,2);not null" json:"subtotal"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// NewLineItem builds a validated line with its subtotal computed.
func NewLineItem(parent LineParent, content LineContent, quantity int, unitPrice decimal.Decimal) (*LineItem, error) {
	if !parent.Kind.IsValid() || parent.ID == uuid.Nil {
		return nil, ErrLineParentRequired
	}
	if !content.Kind.IsValid() || content.ID == uuid.Nil {
		return nil, ErrLineContentRequired
	}
	line := &LineItem{
		ParentKind:  parent.Kind,
		ParentID:    parent.ID,
		ContentKind: content.Kind,
		ContentID:   content.ID,
	}
	if err := line.SetAmounts(quantity, unitPrice); err != nil {
		return nil, err
	}
	return line, nil
}

// NewBudgetLine builds a line owned by a budget.
func NewBudgetLine(budgetID uuid.UUID, content LineContent, quantity int, unitPrice decimal.Decimal) (*LineItem, error) {
	return NewLineItem(BudgetParent(budgetID), content, quantity, unitPrice)
}

// NewOrderLine builds a line owned by a service order.
func NewOrderLine(orderID uuid.UUID, content LineContent, quantity int, unitPrice decimal.Decimal) (*LineItem, error) {
	return NewLineItem(ServiceOrderParent(orderID), content, quantity, unitPrice)
}

// SetAmounts replaces quantity and unit price and recomputes the subtotal.
func (l *LineItem) SetAmounts(quantity int, unitPrice decimal.Decimal) error {
	if quantity <= 0 {
		return ErrLineQuantity
	}
	if unitPrice.IsNegative() {
		return ErrLineUnitPrice
	}
	l.Quantity = quantity
	l.UnitPrice = unitPrice
	l.Subtotal = LineSubtotal(quantity, unitPrice)
	return nil
}

func (l *LineItem) Parent() LineParent {
	return LineParent{Kind: l.ParentKind, ID: l.ParentID}
}

func (l *LineItem) Content() LineContent {
	return LineContent{Kind: l.ContentKind, ID: l.ContentID}
}

// ProductID returns the referenced product when the line is a parts line.
func (l *LineItem) ProductID() (uuid.UUID, bool) {
	if l.ContentKind != enums.LineContentProduct {
		return uuid.Nil, false
	}
	return l.ContentID, true
}

func (l *LineItem) BeforeCreate(*gorm.DB) error {
	assignID(&l.ID)
	return nil
}

// BeforeSave rejects illegal parent/content combinations and keeps the
// subtotal in sync on every write.
func (l *LineItem) BeforeSave(*gorm.DB) error {
	if !l.ParentKind.IsValid() || l.ParentID == uuid.Nil {
		return ErrLineParentRequired
	}
	if !l.ContentKind.IsValid() || l.ContentID == uuid.Nil {
		return ErrLineContentRequired
	}
	if l.Quantity <= 0 {
		return ErrLineQuantity
	}
	l.Subtotal = LineSubtotal(l.Quantity, l.UnitPrice)
	return nil
}
