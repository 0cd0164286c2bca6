package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/autoshop-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	Role     enums.Role
	EntityID *uuid.UUID
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID   uuid.UUID  `json:"user_id"`
	Role     enums.Role `json:"role"`
	EntityID *uuid.UUID `json:"entity_id,omitempty"`
	jwt.RegisteredClaims
}

// Principal converts verified claims into the caller identity.
func (c AccessTokenClaims) Principal() Principal {
	return Principal{UserID: c.UserID, Role: c.Role, EntityID: c.EntityID}
}
