package lineitems

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoshop-backend/internal/repo"
	"github.com/angelmondragon/autoshop-backend/pkg/db/models"
	"github.com/angelmondragon/autoshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autoshop-backend/pkg/errors"
)

// Priced is what a line needs to know about the thing it charges for.
type Priced struct {
	Description string
	UnitPrice   decimal.Decimal
}

// Catalog resolves line contents against the product and service tables.
type Catalog struct {
	repo.Base
}

func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{Base: repo.NewBase(db)}
}

// WithTx returns a catalog reading through tx.
func (c *Catalog) WithTx(tx *gorm.DB) *Catalog {
	return &Catalog{Base: c.Base.Tx(tx)}
}

// Resolve loads the referenced product or service. A missing row is a
// NOT_FOUND error naming the content kind.
func (c *Catalog) Resolve(ctx context.Context, content models.LineContent) (*Priced, error) {
	switch content.Kind {
	case enums.LineContentProduct:
		product, err := repo.First[models.Product](c.DB(ctx), "id = ?", content.ID)
		if err != nil {
			return nil, lookupError(err, "product", content.ID)
		}
		return &Priced{Description: product.Name, UnitPrice: product.SalePrice}, nil
	case enums.LineContentService:
		service, err := repo.First[models.Service](c.DB(ctx), "id = ?", content.ID)
		if err != nil {
			return nil, lookupError(err, "service", content.ID)
		}
		return &Priced{Description: service.Description, UnitPrice: service.BasePrice}, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid line content kind %q", content.Kind))
	}
}

// ProductNames maps product ids to their current names.
func (c *Catalog) ProductNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var products []models.Product
	if err := c.DB(ctx).Select("id", "name").Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product names")
	}
	for _, p := range products {
		names[p.ID] = p.Name
	}
	return names, nil
}

func lookupError(err error, kind string, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, kind+" not found").
			WithDetails(map[string]any{kind + "_id": id})
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+kind)
}
