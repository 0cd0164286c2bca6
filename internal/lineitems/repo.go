// Package lineitems stores the product and service lines shared by budgets
// and service orders.
package lineitems

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoshop-backend/internal/repo"
	"github.com/angelmondragon/autoshop-backend/pkg/db/models"
)

// Repository reads and writes line items scoped to a single parent.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, line *models.LineItem) error
	Save(ctx context.Context, line *models.LineItem) error
	Delete(ctx context.Context, parent models.LineParent, lineID uuid.UUID) (bool, error)
	Find(ctx context.Context, parent models.LineParent, lineID uuid.UUID) (*models.LineItem, error)
	ListByParent(ctx context.Context, parent models.LineParent) ([]models.LineItem, error)
	CountByParent(ctx context.Context, parent models.LineParent) (int64, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a line item repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.Tx(tx)}
}

func (r *repository) Create(ctx context.Context, line *models.LineItem) error {
	return r.DB(ctx).Create(line).Error
}

func (r *repository) Save(ctx context.Context, line *models.LineItem) error {
	return r.DB(ctx).Save(line).Error
}

func (r *repository) Delete(ctx context.Context, parent models.LineParent, lineID uuid.UUID) (bool, error) {
	result := r.DB(ctx).
		Where("id = ? AND parent_kind = ? AND parent_id = ?", lineID, parent.Kind, parent.ID).
		Delete(&models.LineItem{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) Find(ctx context.Context, parent models.LineParent, lineID uuid.UUID) (*models.LineItem, error) {
	var line models.LineItem
	err := r.DB(ctx).
		Where("id = ? AND parent_kind = ? AND parent_id = ?", lineID, parent.Kind, parent.ID).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// ListByParent returns lines in insertion order.
func (r *repository) ListByParent(ctx context.Context, parent models.LineParent) ([]models.LineItem, error) {
	var lines []models.LineItem
	err := r.DB(ctx).
		Where("parent_kind = ? AND parent_id = ?", parent.Kind, parent.ID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&lines).Error
	return lines, err
}

func (r *repository) CountByParent(ctx context.Context, parent models.LineParent) (int64, error) {
	var n int64
	err := r.DB(ctx).
		Model(&models.LineItem{}).
		Where("parent_kind = ? AND parent_id = ?", parent.Kind, parent.ID).
		Count(&n).Error
	return n, err
}
