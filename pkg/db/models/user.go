package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoshop-backend/pkg/enums"
)

// User is a login identity. EntityID links it to the customer, mechanic or
// supplier record matching its role; admins have none.
type User struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Email        string     `gorm:"column:email;type:text;not null;uniqueIndex" json:"email"`
	PasswordHash string     `gorm:"column:password_hash;not null" json:"-"`
	Role         enums.Role `gorm:"column:role;type:varchar(16);not null" json:"role"`
	EntityID     *uuid.UUID `gorm:"column:entity_id;type:uuid" json:"entity_id"`
	IsActive     bool       `gorm:"column:is_active;not null" json:"is_active"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at" json:"last_login_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	assignID(&u.ID)
	return nil
}
