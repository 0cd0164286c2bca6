package users

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/angelmondragon/autoshop-backend/pkg/db/models"
	"github.com/angelmondragon/autoshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autoshop-backend/pkg/errors"
)

type adminStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, in NewUser) (*models.User, error)
}

type passwordHasher interface {
	Hash(password string) (string, error)
}

// EnsureAdmin creates the bootstrap admin account unless the email is taken.
// The bool reports whether a row was inserted.
func EnsureAdmin(ctx context.Context, store adminStore, hasher passwordHasher, email, password string) (*models.User, bool, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "email and password required")
	}

	existing, err := store.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != enums.RoleAdmin {
			return nil, false, pkgerrors.New(pkgerrors.CodeConflict, "email belongs to a non-admin user")
		}
		return existing, false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup admin")
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash admin password")
	}
	user, err := store.Create(ctx, NewUser{Email: email, PasswordHash: hash, Role: enums.RoleAdmin})
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create admin")
	}
	return user, true, nil
}
