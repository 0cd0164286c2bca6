package serviceorders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/autoshop-backend/internal/repo"
	"github.com/angelmondragon/autoshop-backend/pkg/db/models"
	"github.com/angelmondragon/autoshop-backend/pkg/enums"
	"github.com/angelmondragon/autoshop-backend/pkg/pagination"
)

// Repository persists service orders and their one-to-one documents.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.ServiceOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.ServiceOrder, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.ServiceOrder, error)
	List(ctx context.Context, params listOrdersParams) ([]models.ServiceOrder, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.ServiceOrderStatus, closedAt *time.Time) (bool, error)
	FindVehicle(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	FindChecklist(ctx context.Context, orderID uuid.UUID) (*models.Checklist, error)
	UpsertChecklist(ctx context.Context, checklist *models.Checklist) error
	FindReport(ctx context.Context, orderID uuid.UUID) (*models.TechnicalReport, error)
	UpsertReport(ctx context.Context, report *models.TechnicalReport) error
}

type listOrdersParams struct {
	Limit      int
	Cursor     *pagination.Cursor
	CustomerID *uuid.UUID
	Status     *enums.ServiceOrderStatus
}

type repository struct {
	repo.Base
}

// NewRepository returns a service order repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.Tx(tx)}
}

func (r *repository) Create(ctx context.Context, order *models.ServiceOrder) error {
	return r.DB(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ServiceOrder, error) {
	return repo.First[models.ServiceOrder](r.DB(ctx), "id = ?", id)
}

// FindByIDForUpdate loads the service order and holds its row until the
// transaction ends.
func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.ServiceOrder, error) {
	return repo.First[models.ServiceOrder](repo.ForUpdate(r.DB(ctx)), "id = ?", id)
}

// List returns one buffered page of orders, newest first. CustomerID limits
// the result to orders on that customer's vehicles.
func (r *repository) List(ctx context.Context, params listOrdersParams) ([]models.ServiceOrder, error) {
	query := r.DB(ctx).Model(&models.ServiceOrder{})
	if params.CustomerID != nil {
		query = query.Where("vehicle_id IN (?)",
			r.DB(ctx).Model(&models.Vehicle{}).Select("id").Where("customer_id = ?", *params.CustomerID))
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	var rows []models.ServiceOrder
	err := query.Scopes(pagination.Keyset(params.Cursor, params.Limit)).Find(&rows).Error
	return rows, err
}

// TransitionStatus moves an order out of from. It reports false when the row
// was no longer in from.
func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.ServiceOrderStatus, closedAt *time.Time) (bool, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	if closedAt != nil {
		updates["closed_at"] = *closedAt
	}
	result := r.DB(ctx).
		Model(&models.ServiceOrder{}).
		Where("id = ? AND status = ?", id, from).
		UpdateColumns(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) FindVehicle(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	return repo.First[models.Vehicle](r.DB(ctx), "id = ?", id)
}

func (r *repository) FindChecklist(ctx context.Context, orderID uuid.UUID) (*models.Checklist, error) {
	return repo.First[models.Checklist](r.DB(ctx), "service_order_id = ?", orderID)
}

// UpsertChecklist inserts or replaces the order's checklist and reloads it.
func (r *repository) UpsertChecklist(ctx context.Context, checklist *models.Checklist) error {
	err := r.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "service_order_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"fuel_level", "bodywork_damage", "possible_defect", "notes", "updated_at"}),
	}).Create(checklist).Error
	if err != nil {
		return err
	}
	saved, err := r.FindChecklist(ctx, checklist.ServiceOrderID)
	if err != nil {
		return err
	}
	*checklist = *saved
	return nil
}

func (r *repository) FindReport(ctx context.Context, orderID uuid.UUID) (*models.TechnicalReport, error) {
	return repo.First[models.TechnicalReport](r.DB(ctx), "service_order_id = ?", orderID)
}

// UpsertReport inserts or replaces the order's technical report and reloads it.
func (r *repository) UpsertReport(ctx context.Context, report *models.TechnicalReport) error {
	err := r.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "service_order_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"mechanic_id", "diagnosis", "corrective_actions", "recommendations", "updated_at"}),
	}).Create(report).Error
	if err != nil {
		return err
	}
	saved, err := r.FindReport(ctx, report.ServiceOrderID)
	if err != nil {
		return err
	}
	*report = *saved
	return nil
}
