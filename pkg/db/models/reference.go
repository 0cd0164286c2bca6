package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Reference data below is owned by other modules; this service only reads it.

type Customer struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name      string     `gorm:"column:name;not null" json:"name"`
	Email     *string    `gorm:"column:email" json:"email"`
	UserID    *uuid.UUID `gorm:"column:user_id;type:uuid" json:"user_id"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (c *Customer) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}

type Vehicle struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CustomerID uuid.UUID `gorm:"column:customer_id;type:uuid;not null;index" json:"customer_id"`
	Plate      string    `gorm:"column:plate;not null;uniqueIndex" json:"plate"`
	Make       string    `gorm:"column:make;not null;default:''" json:"make"`
	Model      string    `gorm:"column:model;not null" json:"model"`
	Year       int       `gorm:"column:year" json:"year"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (v *Vehicle) BeforeCreate(*gorm.DB) error {
	assignID(&v.ID)
	return nil
}

type Mechanic struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name      string     `gorm:"column:name;not null" json:"name"`
	Email     string     `gorm:"column:email;not null" json:"email"`
	UserID    *uuid.UUID `gorm:"column:user_id;type:uuid" json:"user_id"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (m *Mechanic) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}

type Supplier struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	LegalName string     `gorm:"column:legal_name;not null" json:"legal_name"`
	TaxID     string     `gorm:"column:tax_id;not null;uniqueIndex" json:"tax_id"`
	UserID    *uuid.UUID `gorm:"column:user_id;type:uuid" json:"user_id"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (s *Supplier) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}

// Service is a labour item that can be quoted; it never touches stock.
type Service struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Description string          `gorm:"column:description;not null" json:"description"`
	BasePrice   decimal.Decimal `gorm:"column:base_price;type:numeric(12,2);not null" json:"base_price"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (s *Service) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}
