package budgets

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoshop-backend/internal/repo"
	"github.com/angelmondragon/autoshop-backend/pkg/db/models"
	"github.com/angelmondragon/autoshop-backend/pkg/enums"
	"github.com/angelmondragon/autoshop-backend/pkg/pagination"
)

// Repository persists budgets.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, budget *models.Budget) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Budget, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Budget, error)
	List(ctx context.Context, params listBudgetsParams) ([]models.Budget, error)
	UpdateTotal(ctx context.Context, id uuid.UUID, total decimal.Decimal) error
	Decide(ctx context.Context, id uuid.UUID, decision decision) (bool, error)
	FindVehicle(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
}

type listBudgetsParams struct {
	Limit      int
	Cursor     *pagination.Cursor
	CustomerID *uuid.UUID
	Status     *enums.BudgetStatus
}

// decision is the single write a PENDING budget can receive.
type decision struct {
	Status    enums.BudgetStatus
	DecidedBy *uuid.UUID
	DecidedAt time.Time
	Reason    *string
}

type repository struct {
	repo.Base
}

// NewRepository returns a budget repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.Tx(tx)}
}

func (r *repository) Create(ctx context.Context, budget *models.Budget) error {
	return r.DB(ctx).Create(budget).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Budget, error) {
	return repo.First[models.Budget](r.DB(ctx), "id = ?", id)
}

// FindByIDForUpdate loads the budget and holds its row until the
// transaction ends.
func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Budget, error) {
	return repo.First[models.Budget](repo.ForUpdate(r.DB(ctx)), "id = ?", id)
}

func (r *repository) List(ctx context.Context, params listBudgetsParams) ([]models.Budget, error) {
	query := r.DB(ctx).Model(&models.Budget{})
	if params.CustomerID != nil {
		query = query.Where("customer_id = ?", *params.CustomerID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	var rows []models.Budget
	err := query.Scopes(pagination.Keyset(params.Cursor, params.Limit)).Find(&rows).Error
	return rows, err
}

func (r *repository) UpdateTotal(ctx context.Context, id uuid.UUID, total decimal.Decimal) error {
	return r.DB(ctx).
		Model(&models.Budget{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"total":      total,
			"updated_at": time.Now().UTC(),
		}).Error
}

// Decide moves a PENDING budget to its final status. Only one concurrent
// caller can match the status predicate; the others get false.
func (r *repository) Decide(ctx context.Context, id uuid.UUID, d decision) (bool, error) {
	updates := map[string]any{
		"status":     d.Status,
		"decided_at": d.DecidedAt,
		"decided_by": d.DecidedBy,
		"updated_at": time.Now().UTC(),
	}
	if d.Reason != nil {
		updates["rejection_reason"] = *d.Reason
	}
	result := r.DB(ctx).
		Model(&models.Budget{}).
		Where("id = ? AND status = ?", id, enums.BudgetStatusPending).
		UpdateColumns(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) FindVehicle(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	return repo.First[models.Vehicle](r.DB(ctx), "id = ?", id)
}
