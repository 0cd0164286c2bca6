package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoshop-backend/pkg/enums"
)

// ServiceOrder is the work order opened for a vehicle, usually from an
// approved budget.
type ServiceOrder struct {
	ID         uuid.UUID                `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Number     string                   `gorm:"column:number;not null;uniqueIndex" json:"number"`
	Status     enums.ServiceOrderStatus `gorm:"column:status;type:varchar(20);not null" json:"status"`
	VehicleID  uuid.UUID                `gorm:"column:vehicle_id;type:uuid;not null" json:"vehicle_id"`
	MechanicID *uuid.UUID               `gorm:"column:mechanic_id;type:uuid" json:"mechanic_id"`
	BudgetID   *uuid.UUID               `gorm:"column:budget_id;type:uuid;uniqueIndex" json:"budget_id"`
	OpenedAt   time.Time                `gorm:"column:opened_at;not null" json:"opened_at"`
	ClosedAt   *time.Time               `gorm:"column:closed_at" json:"closed_at"`
	CreatedAt  time.Time                `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time                `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (o *ServiceOrder) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	if o.OpenedAt.IsZero() {
		o.OpenedAt = time.Now().UTC()
	}
	return nil
}

// OrderNumberSequence holds the last number issued per year.
type OrderNumberSequence struct {
	Year      int   `gorm:"column:year;primaryKey;autoIncrement:false" json:"year"`
	LastValue int64 `gorm:"column:last_value;not null" json:"last_value"`
}

// Checklist records the vehicle condition at intake.
type Checklist struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ServiceOrderID uuid.UUID `gorm:"column:service_order_id;type:uuid;not null;uniqueIndex" json:"service_order_id"`
	FuelLevel      int       `gorm:"column:fuel_level;not null" json:"fuel_level"`
	BodyworkDamage string    `gorm:"column:bodywork_damage;not null;default:''" json:"bodywork_damage"`
	PossibleDefect string    `gorm:"column:possible_defect;not null" json:"possible_defect"`
	Notes          string    `gorm:"column:notes;not null;default:''" json:"notes"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (c *Checklist) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// TechnicalReport is the mechanic's diagnosis for a service order.
type TechnicalReport struct {
	ID                uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ServiceOrderID    uuid.UUID  `gorm:"column:service_order_id;type:uuid;not null;uniqueIndex" json:"service_order_id"`
	MechanicID        *uuid.UUID `gorm:"column:mechanic_id;type:uuid" json:"mechanic_id"`
	Diagnosis         string     `gorm:"column:diagnosis;not null" json:"diagnosis"`
	CorrectiveActions string     `gorm:"column:corrective_actions;not null;default:''" json:"corrective_actions"`
	Recommendations   string     `gorm:"column:recommendations;not null;default:''" json:"recommendations"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (r *TechnicalReport) BeforeCreate(*gorm.DB) error {
	assignID(&r.ID)
	return nil
}
