package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoshop-backend/pkg/db/models"
	"github.com/angelmondragon/autoshop-backend/pkg/enums"
	"github.com/angelmondragon/autoshop-backend/pkg/pagination"
)

// Repository manages the product stock column and its movement ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	DecrementIfAvailable(ctx context.Context, productID uuid.UUID, quantity int) (bool, error)
	ApplyDelta(ctx context.Context, productID uuid.UUID, delta int) error
	CreateMovement(ctx context.Context, movement *models.StockMovement) error
	HasCompletionMovement(ctx context.Context, orderID, productID uuid.UUID) (bool, error)
	ListMovements(ctx context.Context, params listMovementsParams) ([]models.StockMovement, error)
	SumByDirection(ctx context.Context, productID uuid.UUID) (map[enums.MovementDirection]int64, error)
	ProductIDsAfter(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a stock repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

type listMovementsParams struct {
	ProductID uuid.UUID
	Limit     int
	Cursor    *pagination.Cursor
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// DecrementIfAvailable subtracts quantity only while the row still holds at
// least that much; concurrent writers serialize on the row lock.
func (r *repository) DecrementIfAvailable(ctx context.Context, productID uuid.UUID, quantity int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock_qty >= ?", productID, quantity).
		UpdateColumns(map[string]any{
			"stock_qty":  gorm.Expr("stock_qty - ?", quantity),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) ApplyDelta(ctx context.Context, productID uuid.UUID, delta int) error {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumns(map[string]any{
			"stock_qty":  gorm.Expr("stock_qty + ?", delta),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) CreateMovement(ctx context.Context, movement *models.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) HasCompletionMovement(ctx context.Context, orderID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.StockMovement{}).
		Where("service_order_id = ? AND product_id = ? AND reason = ?", orderID, productID, enums.MovementReasonServiceOrderCompletion).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListMovements(ctx context.Context, params listMovementsParams) ([]models.StockMovement, error) {
	query := r.db.WithContext(ctx).
		Model(&models.StockMovement{}).
		Where("product_id = ?", params.ProductID)

	var movements []models.StockMovement
	if err := query.Scopes(pagination.Keyset(params.Cursor, params.Limit)).Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

func (r *repository) SumByDirection(ctx context.Context, productID uuid.UUID) (map[enums.MovementDirection]int64, error) {
	var rows []struct {
		Direction enums.MovementDirection
		Total     int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.StockMovement{}).
		Select("direction, COALESCE(SUM(quantity), 0) AS total").
		Where("product_id = ?", productID).
		Group("direction").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	totals := map[enums.MovementDirection]int64{enums.MovementIn: 0, enums.MovementOut: 0}
	for _, row := range rows {
		totals[row.Direction] = row.Total
	}
	return totals, nil
}

// ProductIDsAfter pages through product ids in ascending order for batch scans.
func (r *repository) ProductIDsAfter(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := r.db.WithContext(ctx).Model(&models.Product{})
	if after != uuid.Nil {
		query = query.Where("id > ?", after)
	}
	if err := query.Order("id ASC").Limit(limit).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
