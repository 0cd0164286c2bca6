package sales

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoshop-backend/pkg/db/models"
	"github.com/angelmondragon/autoshop-backend/pkg/pagination"
)

// Repository persists sales and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateSale(ctx context.Context, sale *models.Sale) error
	CreateLine(ctx context.Context, line *models.SaleLine) error
	UpdateTotal(ctx context.Context, saleID uuid.UUID, total decimal.Decimal) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	List(ctx context.Context, params listSalesParams) ([]models.Sale, error)
}

type listSalesParams struct {
	Limit  int
	Cursor *pagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a sales repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateSale(ctx context.Context, sale *models.Sale) error {
	return r.db.WithContext(ctx).Omit("Lines").Create(sale).Error
}

func (r *repository) CreateLine(ctx context.Context, line *models.SaleLine) error {
	return r.db.WithContext(ctx).Create(line).Error
}

func (r *repository) UpdateTotal(ctx context.Context, saleID uuid.UUID, total decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Where("id = ?", saleID).
		UpdateColumn("total", total).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&sale, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// List returns one buffered page of sales, newest first.
func (r *repository) List(ctx context.Context, params listSalesParams) ([]models.Sale, error) {
	var rows []models.Sale
	err := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Scopes(pagination.Keyset(params.Cursor, params.Limit)).
		Find(&rows).Error
	return rows, err
}
