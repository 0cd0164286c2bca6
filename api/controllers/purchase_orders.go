package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/autoshop-backend/api/responses"
	"github.com/angelmondragon/autoshop-backend/api/validators"
	"github.com/angelmondragon/autoshop-backend/internal/purchaseorders"
	"github.com/angelmondragon/autoshop-backend/pkg/auth"
	"github.com/angelmondragon/autoshop-backend/pkg/db/models"
	"github.com/angelmondragon/autoshop-backend/pkg/logger"
)

type createPurchaseOrderRequest struct {
	SupplierID uuid.UUID                  `json:"supplier_id" validate:"required"`
	Lines      []purchaseOrderLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type purchaseOrderLineRequest struct {
	ProductID uuid.UUID        `json:"product_id" validate:"required"`
	Quantity  int              `json:"quantity" validate:"gt=0"`
	UnitCost  *decimal.Decimal `json:"unit_cost" validate:"required"`
}

func CreatePurchaseOrder(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("purchase order service"))
			return
		}
		principal, err := principalFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createPurchaseOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]purchaseorders.LineInput, 0, len(payload.Lines))
		for _, line := range payload.Lines {
			lines = append(lines, purchaseorders.LineInput{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitCost:  line.UnitCost,
			})
		}

		order, err := svc.Create(r.Context(), principal, purchaseorders.CreateInput{
			SupplierID: payload.SupplierID,
			Lines:      lines,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func ListPurchaseOrders(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("purchase order service"))
			return
		}
		principal, err := principalFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), principal, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func GetPurchaseOrder(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
	return purchaseOrderAction(svc, logg, purchaseorders.Service.Get)
}

// ReceivePurchaseOrder books the order's lines into stock exactly once.
func ReceivePurchaseOrder(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
	return purchaseOrderAction(svc, logg, purchaseorders.Service.Receive)
}

func CancelPurchaseOrder(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
	return purchaseOrderAction(svc, logg, purchaseorders.Service.Cancel)
}

type purchaseOrderOp func(svc purchaseorders.Service, ctx context.Context, principal auth.Principal, id uuid.UUID) (*models.PurchaseOrder, error)

func purchaseOrderAction(svc purchaseorders.Service, logg *logger.Logger, op purchaseOrderOp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("purchase order service"))
			return
		}
		principal, err := principalFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "purchaseOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := op(svc, r.Context(), principal, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
