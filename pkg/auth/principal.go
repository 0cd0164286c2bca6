package auth

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/autoshop-backend/pkg/enums"
)

// Principal is the authenticated caller. EntityID points at the customer,
// mechanic or supplier record bound to the user; it is nil for admins.
type Principal struct {
	UserID   uuid.UUID
	Role     enums.Role
	EntityID *uuid.UUID
}

func (p Principal) IsAdmin() bool {
	return p.Role == enums.RoleAdmin
}

// Is reports whether the principal holds one of the given roles.
func (p Principal) Is(roles ...enums.Role) bool {
	return p.Role.OneOf(roles...)
}

// Owns reports whether the principal's bound entity is the given id.
func (p Principal) Owns(entityID uuid.UUID) bool {
	return p.EntityID != nil && *p.EntityID == entityID
}

// ActorID returns the user id as a pointer for audit columns.
func (p Principal) ActorID() *uuid.UUID {
	if p.UserID == uuid.Nil {
		return nil
	}
	id := p.UserID
	return &id
}
