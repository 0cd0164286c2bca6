package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoshop-backend/pkg/enums"
)

// Budget is a quote for work on a vehicle. Total is derived from its lines.
type Budget struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Status          enums.BudgetStatus `gorm:"column:status;type:varchar(16);not null;default:'PENDING'" json:"status"`
	CustomerID      uuid.UUID          `gorm:"column:customer_id;type:uuid;not null" json:"customer_id"`
	VehicleID       uuid.UUID          `gorm:"column:vehicle_id;type:uuid;not null" json:"vehicle_id"`
	MechanicID      *uuid.UUID         `gorm:"column:mechanic_id;type:uuid" json:"mechanic_id"`
	AppointmentID   *uuid.UUID         `gorm:"column:appointment_id;type:uuid" json:"appointment_id"`
	ChecklistID     *uuid.UUID         `gorm:"column:checklist_id;type:uuid" json:"checklist_id"`
	ValidUntil      *time.Time         `gorm:"column:valid_until" json:"valid_until"`
	Total           decimal.Decimal    `gorm:"column:total;type:numeric(12,2);not null;default:0" json:"total"`
	RejectionReason *string            `gorm:"column:rejection_reason" json:"rejection_reason"`
	DecidedAt       *time.Time         `gorm:"column:decided_at" json:"decided_at"`
	DecidedBy       *uuid.UUID         `gorm:"column:decided_by;type:uuid" json:"decided_by"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (b *Budget) BeforeCreate(*gorm.DB) error {
	assignID(&b.ID)
	if b.Status == "" {
		b.Status = enums.BudgetStatusPending
	}
	return nil
}
