package product

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoshop-backend/pkg/db/models"
	"github.com/angelmondragon/autoshop-backend/pkg/pagination"
)

// Repository persists the product catalog. Stock columns are written only
// by the stock ledger.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository bound to db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository that runs on tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct writes the editable catalog columns and leaves stock alone.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", product.ID).
		UpdateColumns(map[string]any{
			"name":       product.Name,
			"cost":       product.Cost,
			"sale_price": product.SalePrice,
			"min_stock":  product.MinStock,
			"updated_at": time.Now().UTC(),
		}).Error
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, product.ID)
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ListProducts returns one buffered page of products, newest first.
func (r *Repository) ListProducts(ctx context.Context, filters ProductListFilters, limit int, cursor *pagination.Cursor) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})
	if filters.LowStock {
		query = query.Where("stock_qty < min_stock")
	}
	if filters.SupplierID != nil {
		query = query.Where("supplier_id = ?", *filters.SupplierID)
	}
	if q := strings.TrimSpace(filters.Query); q != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}

	var rows []models.Product
	err := query.Scopes(pagination.Keyset(cursor, limit)).Find(&rows).Error
	return rows, err
}
