package controllers

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/autoshop-backend/internal/lineitems"
	"github.com/angelmondragon/autoshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autoshop-backend/pkg/errors"
)

// lineRequest is the body shared by budget and service-order line endpoints.
type lineRequest struct {
	Kind      string           `json:"kind" validate:"required"`
	ItemID    uuid.UUID        `json:"item_id" validate:"required"`
	Quantity  int              `json:"quantity" validate:"gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

func (l lineRequest) toInput() (lineitems.Input, error) {
	kind, err := enums.ParseLineContentKind(strings.ToUpper(strings.TrimSpace(l.Kind)))
	if err != nil {
		return lineitems.Input{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "kind must be PRODUCT or SERVICE")
	}
	return lineitems.Input{
		ContentKind: kind,
		ContentID:   l.ItemID,
		Quantity:    l.Quantity,
		UnitPrice:   l.UnitPrice,
	}, nil
}

type lineUpdateRequest struct {
	Quantity  *int             `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}
