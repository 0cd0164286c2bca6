package lineitems

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/autoshop-backend/pkg/db/models"
	"github.com/angelmondragon/autoshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autoshop-backend/pkg/errors"
)

// Input is a requested line. UnitPrice defaults to the catalog price.
type Input struct {
	ContentKind enums.LineContentKind
	ContentID   uuid.UUID
	Quantity    int
	UnitPrice   *decimal.Decimal
}

// Content returns the typed content reference of the input.
func (in Input) Content() models.LineContent {
	if in.ContentKind == enums.LineContentService {
		return models.ServiceContent(in.ContentID)
	}
	return models.ProductContent(in.ContentID)
}

// Update changes the amounts of an existing line. Nil fields keep their value.
type Update struct {
	Quantity  *int
	UnitPrice *decimal.Decimal
}

// Build validates in, resolves its content and returns an unsaved line owned
// by parent.
func Build(ctx context.Context, catalog *Catalog, parent models.LineParent, in Input) (*models.LineItem, error) {
	if !in.ContentKind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "kind must be PRODUCT or SERVICE")
	}
	if in.ContentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	content := in.Content()
	priced, err := catalog.Resolve(ctx, content)
	if err != nil {
		return nil, err
	}
	price := priced.UnitPrice
	if in.UnitPrice != nil {
		price = *in.UnitPrice
	}
	line, err := models.NewLineItem(parent, content, in.Quantity, price)
	if err != nil {
		return nil, ValidationError(err)
	}
	line.Description = priced.Description
	return line, nil
}

// Apply merges update into line and recomputes its subtotal.
func Apply(line *models.LineItem, update Update) error {
	quantity := line.Quantity
	if update.Quantity != nil {
		quantity = *update.Quantity
	}
	price := line.UnitPrice
	if update.UnitPrice != nil {
		price = *update.UnitPrice
	}
	if err := line.SetAmounts(quantity, price); err != nil {
		return ValidationError(err)
	}
	return nil
}

// Total sums the subtotals of lines.
func Total(lines []models.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(models.LineSubtotal(line.Quantity, line.UnitPrice))
	}
	return total
}

// ValidationError maps model validation failures onto VALIDATION_ERROR.
func ValidationError(err error) error {
	switch {
	case errors.Is(err, models.ErrLineQuantity),
		errors.Is(err, models.ErrLineUnitPrice),
		errors.Is(err, models.ErrLineContentRequired),
		errors.Is(err, models.ErrLineParentRequired):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	return err
}
