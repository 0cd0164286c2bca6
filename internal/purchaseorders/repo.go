package purchaseorders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoshop-backend/internal/repo"
	"github.com/angelmondragon/autoshop-backend/pkg/db/models"
	"github.com/angelmondragon/autoshop-backend/pkg/enums"
	"github.com/angelmondragon/autoshop-backend/pkg/pagination"
)

// Repository persists purchase orders with their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.PurchaseOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	List(ctx context.Context, params listOrdersParams) ([]models.PurchaseOrder, error)
	Transition(ctx context.Context, id uuid.UUID, to enums.PurchaseOrderStatus, receivedAt *time.Time) (bool, error)
	SupplierExists(ctx context.Context, id uuid.UUID) (bool, error)
	MissingProducts(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
}

type listOrdersParams struct {
	Limit      int
	Cursor     *pagination.Cursor
	SupplierID *uuid.UUID
}

type repository struct {
	repo.Base
}

// NewRepository returns a purchase order repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.Tx(tx)}
}

// Create inserts the order and its lines in one statement batch.
func (r *repository) Create(ctx context.Context, order *models.PurchaseOrder) error {
	return r.DB(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	var order models.PurchaseOrder
	err := r.DB(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, params listOrdersParams) ([]models.PurchaseOrder, error) {
	query := r.DB(ctx).Model(&models.PurchaseOrder{})
	if params.SupplierID != nil {
		query = query.Where("supplier_id = ?", *params.SupplierID)
	}

	var rows []models.PurchaseOrder
	err := query.Scopes(pagination.Keyset(params.Cursor, params.Limit)).Find(&rows).Error
	return rows, err
}

// Transition moves a PENDING order to its final status; false means another
// caller already did.
func (r *repository) Transition(ctx context.Context, id uuid.UUID, to enums.PurchaseOrderStatus, receivedAt *time.Time) (bool, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	if receivedAt != nil {
		updates["received_at"] = *receivedAt
	}
	result := r.DB(ctx).
		Model(&models.PurchaseOrder{}).
		Where("id = ? AND status = ?", id, enums.PurchaseOrderStatusPending).
		UpdateColumns(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) SupplierExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var n int64
	err := r.DB(ctx).Model(&models.Supplier{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// MissingProducts returns the ids that have no product row.
func (r *repository) MissingProducts(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []uuid.UUID
	if err := r.DB(ctx).Model(&models.Product{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, err
	}
	present := make(map[uuid.UUID]struct{}, len(found))
	for _, id := range found {
		present[id] = struct{}{}
	}
	var missing []uuid.UUID
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
