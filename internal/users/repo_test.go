package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/autoshop-backend/internal/testsupport"
	"github.com/angelmondragon/autoshop-backend/pkg/enums"
)

func TestRepositoryCreateNormalizesEmail(t *testing.T) {
	repo := NewRepository(testsupport.OpenDB(t))
	ctx := context.Background()
	supplierID := uuid.New()

	created, err := repo.Create(ctx, NewUser{
		Email:        " Parts@Supplier.TEST ",
		PasswordHash: "hash",
		Role:         enums.RoleSupplier,
		EntityID:     &supplierID,
	})
	require.NoError(t, err)
	assert.Equal(t, "parts@supplier.test", created.Email)
	assert.True(t, created.IsActive)

	found, err := repo.FindByEmail(ctx, NormalizeEmail("PARTS@supplier.test"))
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Nil(t, found.LastLoginAt)

	disabled, err := repo.Create(ctx, NewUser{Email: "gone@shop.test", PasswordHash: "h", Role: enums.RoleAdmin, Disabled: true})
	require.NoError(t, err)
	assert.False(t, disabled.IsActive)
}

func TestRecordLoginOptionallyUpgradesHash(t *testing.T) {
	repo := NewRepository(testsupport.OpenDB(t))
	ctx := context.Background()
	created, err := repo.Create(ctx, NewUser{Email: "admin@shop.test", PasswordHash: "old", Role: enums.RoleAdmin})
	require.NoError(t, err)

	first := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.RecordLogin(ctx, created.ID, first, ""))
	reloaded, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastLoginAt)
	assert.True(t, reloaded.LastLoginAt.Equal(first))
	assert.Equal(t, "old", reloaded.PasswordHash)

	require.NoError(t, repo.RecordLogin(ctx, created.ID, first.Add(time.Hour), "new"))
	reloaded, err = repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", reloaded.PasswordHash)

	profile := NewProfile(reloaded)
	assert.Equal(t, enums.RoleAdmin, profile.Role)
	assert.Nil(t, NewProfile(nil))
}
