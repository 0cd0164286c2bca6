package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoshop-backend/internal/repo"
	"github.com/angelmondragon/autoshop-backend/pkg/db/models"
)

type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Create(ctx context.Context, in NewUser) (*models.User, error) {
	user := &models.User{
		Email:        NormalizeEmail(in.Email),
		PasswordHash: in.PasswordHash,
		Role:         in.Role,
		EntityID:     in.EntityID,
		IsActive:     !in.Disabled,
	}
	if err := r.DB(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail expects an already normalized email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return repo.First[models.User](r.DB(ctx), "email = ?", email)
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return repo.First[models.User](r.DB(ctx), "id = ?", id)
}

// RecordLogin stamps last_login_at and, when upgradedHash is not empty,
// replaces the stored password hash in the same statement.
func (r *Repository) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time, upgradedHash string) error {
	columns := map[string]any{"last_login_at": at}
	if upgradedHash != "" {
		columns["password_hash"] = upgradedHash
	}
	return r.DB(ctx).Model(&models.User{}).Where("id = ?", id).UpdateColumns(columns).Error
}
