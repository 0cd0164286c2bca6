package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pkgAuth "github.com/angelmondragon/autoshop-backend/pkg/auth"
	"github.com/angelmondragon/autoshop-backend/pkg/config"
	"github.com/angelmondragon/autoshop-backend/pkg/db/models"
	"github.com/angelmondragon/autoshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autoshop-backend/pkg/errors"
	"github.com/angelmondragon/autoshop-backend/pkg/security"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "autoshop", ExpirationMinutes: 30}

func argon(t *testing.T, passes int) *security.Hasher {
	t.Helper()
	h, err := security.NewHasher(config.PasswordConfig{ArgonMemoryKB: 8 * 1024, ArgonTime: passes, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32})
	require.NoError(t, err)
	return h
}

func hashWith(t *testing.T, h *security.Hasher, password string) string {
	t.Helper()
	hash, err := h.Hash(password)
	require.NoError(t, err)
	return hash
}

type stubUsers struct {
	user      *models.User
	err       error
	lookedUp  string
	lastLogin *time.Time
	newHash   string
}

func (s *stubUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.lookedUp = email
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

func (s *stubUsers) RecordLogin(_ context.Context, _ uuid.UUID, at time.Time, upgradedHash string) error {
	s.lastLogin = &at
	s.newHash = upgradedHash
	return nil
}

type countingHasher struct {
	*security.Hasher
	decoys int
}

func (c *countingHasher) BurnDecoy(password string) {
	c.decoys++
	c.Hasher.BurnDecoy(password)
}

func newTestService(t *testing.T, store *stubUsers, hasher passwordChecker) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Users: store, Passwords: hasher, JWT: testJWT})
	require.NoError(t, err)
	return svc
}

func TestLoginMechanicCarriesEntity(t *testing.T) {
	h := argon(t, 1)
	mechanicID := uuid.New()
	store := &stubUsers{user: &models.User{
		ID:           uuid.New(),
		Email:        "mechanic@shop.test",
		PasswordHash: hashWith(t, h, "wrench-secret"),
		Role:         enums.RoleMechanic,
		EntityID:     &mechanicID,
		IsActive:     true,
	}}

	resp, err := newTestService(t, store, h).Login(context.Background(), LoginRequest{Email: "  Mechanic@Shop.test ", Password: "wrench-secret"})
	require.NoError(t, err)
	assert.Equal(t, "mechanic@shop.test", store.lookedUp)

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, enums.RoleMechanic, claims.Principal().Role)
	assert.True(t, claims.Principal().Owns(mechanicID))
	assert.Equal(t, 1800, resp.ExpiresIn)
	assert.Equal(t, "Bearer", resp.TokenType)
	require.NotNil(t, resp.User)
	assert.NotNil(t, resp.User.LastLoginAt)
	assert.NotNil(t, store.lastLogin)
	assert.Empty(t, store.newHash)
}

func TestLoginUpgradesWeakHash(t *testing.T) {
	weak := hashWith(t, argon(t, 1), "brake-fluid")
	store := &stubUsers{user: &models.User{ID: uuid.New(), Email: "admin@shop.test", PasswordHash: weak, Role: enums.RoleAdmin, IsActive: true}}

	_, err := newTestService(t, store, argon(t, 2)).Login(context.Background(), LoginRequest{Email: "admin@shop.test", Password: "brake-fluid"})
	require.NoError(t, err)
	assert.True(t, strings.Contains(store.newHash, ",t=2,"), store.newHash)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := argon(t, 1)
	hash := hashWith(t, h, "correct-horse")
	admin := &models.User{ID: uuid.New(), Email: "admin@shop.test", PasswordHash: hash, Role: enums.RoleAdmin, IsActive: true}

	cases := map[string]struct {
		store *stubUsers
		req   LoginRequest
	}{
		"wrong password": {&stubUsers{user: admin}, LoginRequest{Email: admin.Email, Password: "nope"}},
		"unknown email":  {&stubUsers{err: gorm.ErrRecordNotFound}, LoginRequest{Email: "ghost@shop.test", Password: "correct-horse"}},
		"blank email":    {&stubUsers{user: admin}, LoginRequest{Email: " ", Password: "correct-horse"}},
		"inactive user": {&stubUsers{user: &models.User{
			ID: uuid.New(), Email: "old@shop.test", PasswordHash: hash, Role: enums.RoleAdmin,
		}}, LoginRequest{Email: "old@shop.test", Password: "correct-horse"}},
		"customer without entity": {&stubUsers{user: &models.User{
			ID: uuid.New(), Email: "c@shop.test", PasswordHash: hash, Role: enums.RoleCustomer, IsActive: true,
		}}, LoginRequest{Email: "c@shop.test", Password: "correct-horse"}},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := newTestService(t, tc.store, h).Login(context.Background(), tc.req)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized), "got %v", err)
			assert.Nil(t, tc.store.lastLogin)
		})
	}
}

func TestLoginUnknownEmailBurnsDecoy(t *testing.T) {
	hasher := &countingHasher{Hasher: argon(t, 1)}
	_, err := newTestService(t, &stubUsers{err: gorm.ErrRecordNotFound}, hasher).
		Login(context.Background(), LoginRequest{Email: "ghost@shop.test", Password: "pw"})
	require.Error(t, err)
	assert.Equal(t, 1, hasher.decoys)
}

func TestLoginLookupFailureIsDependencyError(t *testing.T) {
	_, err := newTestService(t, &stubUsers{err: errors.New("connection reset")}, argon(t, 1)).
		Login(context.Background(), LoginRequest{Email: "a@shop.test", Password: "x"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestNewServiceRequiresDeps(t *testing.T) {
	h := argon(t, 1)
	_, err := NewService(ServiceParams{Passwords: h, JWT: testJWT})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Users: &stubUsers{}, JWT: testJWT})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Users: &stubUsers{}, Passwords: h})
	assert.Error(t, err)
}
