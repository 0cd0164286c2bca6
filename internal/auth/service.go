package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoshop-backend/internal/users"
	pkgAuth "github.com/angelmondragon/autoshop-backend/pkg/auth"
	"github.com/angelmondragon/autoshop-backend/pkg/config"
	"github.com/angelmondragon/autoshop-backend/pkg/db/models"
	"github.com/angelmondragon/autoshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autoshop-backend/pkg/errors"
)

// Every refusal uses the same message so callers cannot probe which emails exist.
var errBadCredentials = pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
}

type userStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time, upgradedHash string) error
}

type passwordChecker interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (ok, rehash bool, err error)
	BurnDecoy(password string)
}

type ServiceParams struct {
	Users     userStore
	Passwords passwordChecker
	JWT       config.JWTConfig
}

type service struct {
	users     userStore
	passwords passwordChecker
	jwt       config.JWTConfig
	now       func() time.Time
}

func NewService(p ServiceParams) (Service, error) {
	switch {
	case p.Users == nil:
		return nil, errors.New("auth: user store is required")
	case p.Passwords == nil:
		return nil, errors.New("auth: password hasher is required")
	case p.JWT.Secret == "":
		return nil, errors.New("auth: jwt secret is required")
	}
	return &service{
		users:     p.Users,
		passwords: p.Passwords,
		jwt:       p.JWT,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Login checks the password, records the login (upgrading a weak hash on the
// way) and issues an access token. Non-admin accounts must be linked to
// their customer, mechanic or supplier record.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, upgradedHash, err := s.checkPassword(ctx, users.NormalizeEmail(req.Email), req.Password)
	if err != nil {
		return nil, err
	}
	if !user.Role.IsValid() || (user.Role != enums.RoleAdmin && user.EntityID == nil) {
		return nil, errBadCredentials
	}

	now := s.now()
	token, err := pkgAuth.MintAccessToken(s.jwt, now, pkgAuth.AccessTokenPayload{
		UserID:   user.ID,
		Role:     user.Role,
		EntityID: user.EntityID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	if err := s.users.RecordLogin(ctx, user.ID, now, upgradedHash); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record login")
	}
	user.LastLoginAt = &now

	return &LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.jwt.TTL().Seconds()),
		User:        users.NewProfile(user),
	}, nil
}

// checkPassword returns the user and, when its stored hash is weaker than
// the current settings, a replacement hash.
func (s *service) checkPassword(ctx context.Context, email, password string) (*models.User, string, error) {
	if email == "" || password == "" {
		return nil, "", errBadCredentials
	}
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.passwords.BurnDecoy(password)
		return nil, "", errBadCredentials
	}
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}

	ok, rehash, err := s.passwords.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok || !user.IsActive {
		return nil, "", errBadCredentials
	}
	if !rehash {
		return user, "", nil
	}
	upgraded, err := s.passwords.Hash(password)
	if err != nil {
		return user, "", nil
	}
	return user, upgraded, nil
}
