package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/autoshop-backend/pkg/db/models"
	"github.com/angelmondragon/autoshop-backend/pkg/enums"
)

// Profile is the caller-visible view of a user; it never carries the hash.
type Profile struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Role        enums.Role `json:"role"`
	EntityID    *uuid.UUID `json:"entity_id,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

func NewProfile(u *models.User) *Profile {
	if u == nil {
		return nil
	}
	return &Profile{ID: u.ID, Email: u.Email, Role: u.Role, EntityID: u.EntityID, LastLoginAt: u.LastLoginAt}
}

// NewUser is the input to Repository.Create. Accounts start active unless
// Disabled is set.
type NewUser struct {
	Email        string
	PasswordHash string
	Role         enums.Role
	EntityID     *uuid.UUID
	Disabled     bool
}

// NormalizeEmail is the canonical form stored and looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
