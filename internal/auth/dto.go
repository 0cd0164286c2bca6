package auth

import (
	"github.com/angelmondragon/autoshop-backend/internal/users"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=256"`
}

// LoginResponse carries a bearer token and the profile it was issued for.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresIn   int            `json:"expires_in"`
	User        *users.Profile `json:"user"`
}
