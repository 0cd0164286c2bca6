package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoshop-backend/pkg/enums"
)

// Notification stores in-app alerts raised by the stock ledger.
type Notification struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Type      enums.NotificationType `gorm:"column:type;type:varchar(32);not null" json:"type"`
	Message   string                 `gorm:"column:message;type:text;not null" json:"message"`
	ProductID *uuid.UUID             `gorm:"column:product_id;type:uuid" json:"product_id"`
	ReadAt    *time.Time             `gorm:"column:read_at" json:"read_at"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	assignID(&n.ID)
	return nil
}

// IsRead reports whether the notification was acknowledged.
func (n Notification) IsRead() bool {
	return n.ReadAt != nil
}
