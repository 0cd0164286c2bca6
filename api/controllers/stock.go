package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/autoshop-backend/api/responses"
	"github.com/angelmondragon/autoshop-backend/api/validators"
	"github.com/angelmondragon/autoshop-backend/internal/stock"
	"github.com/angelmondragon/autoshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autoshop-backend/pkg/errors"
	"github.com/angelmondragon/autoshop-backend/pkg/logger"
)

type manualMovementRequest struct {
	ProductID uuid.UUID        `json:"product_id" validate:"required"`
	Direction string           `json:"direction" validate:"required,oneof=IN OUT"`
	Quantity  int              `json:"quantity" validate:"gt=0"`
	Reason    string           `json:"reason,omitempty"`
	UnitCost  *decimal.Decimal `json:"unit_cost,omitempty"`
	Note      string           `json:"note,omitempty" validate:"max=500"`
}

// RecordStockMovement books a manual ledger entry.
func RecordStockMovement(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("stock service"))
			return
		}
		principal, err := principalFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload manualMovementRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		direction, err := enums.ParseMovementDirection(payload.Direction)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid direction"))
			return
		}
		reason := enums.MovementReasonManualAdjustment
		if payload.Reason != "" {
			reason, err = enums.ParseMovementReason(payload.Reason)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid reason"))
				return
			}
		}

		movement, err := svc.RecordManual(r.Context(), principal, stock.ManualMovementInput{
			ProductID: payload.ProductID,
			Direction: direction,
			Quantity:  payload.Quantity,
			Reason:    reason,
			UnitCost:  payload.UnitCost,
			Note:      payload.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, movement)
	}
}
