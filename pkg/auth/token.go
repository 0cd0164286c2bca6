package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/autoshop-backend/pkg/config"
	"github.com/angelmondragon/autoshop-backend/pkg/enums"
)

var (
	// ErrMisconfigured means the signing settings are unusable.
	ErrMisconfigured = errors.New("jwt settings incomplete")
	// ErrInvalidToken wraps every reason a presented token is refused.
	ErrInvalidToken = errors.New("invalid access token")
)

const clockSkew = 30 * time.Second

var signingMethod = jwt.SigningMethodHS256

func checkSettings(cfg config.JWTConfig) error {
	switch {
	case cfg.Secret == "":
		return fmt.Errorf("%w: secret missing", ErrMisconfigured)
	case cfg.Issuer == "":
		return fmt.Errorf("%w: issuer missing", ErrMisconfigured)
	case cfg.TTL() <= 0:
		return fmt.Errorf("%w: expiration must be positive", ErrMisconfigured)
	}
	return nil
}

// MintAccessToken signs an HS256 token for payload, valid from now for the
// configured TTL. Every role except admin must carry the id of its linked
// customer, mechanic or supplier record.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	if err := checkSettings(cfg); err != nil {
		return "", err
	}
	if payload.UserID == uuid.Nil {
		return "", errors.New("mint token: user id missing")
	}
	if !payload.Role.IsValid() {
		return "", fmt.Errorf("mint token: unknown role %q", payload.Role)
	}
	if payload.Role != enums.RoleAdmin && (payload.EntityID == nil || *payload.EntityID == uuid.Nil) {
		return "", fmt.Errorf("mint token: role %s needs an entity id", payload.Role)
	}

	jti := payload.JTI
	if jti == "" {
		jti = uuid.NewString()
	}
	claims := AccessTokenClaims{
		UserID:   payload.UserID,
		Role:     payload.Role,
		EntityID: payload.EntityID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    cfg.Issuer,
			Subject:   payload.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL())),
		},
	}
	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("mint token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies signature, issuer and lifetime, then checks that
// the custom claims agree with the registered subject.
func ParseAccessToken(cfg config.JWTConfig, raw string) (*AccessTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("%w: secret missing", ErrMisconfigured)
	}

	claims := &AccessTokenClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
	)
	if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(cfg.Secret), nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	switch {
	case !claims.Role.IsValid():
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	case claims.UserID == uuid.Nil || claims.Subject != claims.UserID.String():
		return nil, fmt.Errorf("%w: subject mismatch", ErrInvalidToken)
	}
	return claims, nil
}
