package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/autoshop-backend/api/responses"
	"github.com/angelmondragon/autoshop-backend/api/validators"
	productsvc "github.com/angelmondragon/autoshop-backend/internal/products"
	"github.com/angelmondragon/autoshop-backend/internal/stock"
	"github.com/angelmondragon/autoshop-backend/pkg/logger"
)

type createProductRequest struct {
	SupplierID   *uuid.UUID       `json:"supplier_id,omitempty"`
	Name         string           `json:"name" validate:"required,max=200"`
	Cost         *decimal.Decimal `json:"cost" validate:"required"`
	SalePrice    *decimal.Decimal `json:"sale_price" validate:"required"`
	MinStock     *int             `json:"min_stock,omitempty" validate:"omitempty,gte=0"`
	InitialStock int              `json:"initial_stock" validate:"gte=0"`
}

type updateProductRequest struct {
	Name      *string          `json:"name,omitempty" validate:"omitempty,max=200"`
	Cost      *decimal.Decimal `json:"cost,omitempty"`
	SalePrice *decimal.Decimal `json:"sale_price,omitempty"`
	MinStock  *int             `json:"min_stock,omitempty" validate:"omitempty,gte=0"`
}

// CreateProduct registers a catalog product. Suppliers create under their own record.
func CreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product service"))
			return
		}
		principal, err := principalFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), principal, productsvc.CreateProductInput{
			SupplierID:   payload.SupplierID,
			Name:         payload.Name,
			Cost:         payload.Cost,
			SalePrice:    payload.SalePrice,
			MinStock:     payload.MinStock,
			InitialStock: payload.InitialStock,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func UpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product service"))
			return
		}
		principal, err := principalFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), principal, productID, productsvc.UpdateProductInput{
			Name:      payload.Name,
			Cost:      payload.Cost,
			SalePrice: payload.SalePrice,
			MinStock:  payload.MinStock,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func GetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product service"))
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ListProducts supports ?low_stock=true, ?supplier_id= and ?q= filters.
func ListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product service"))
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lowStock, err := validators.ParseQueryBool(r, "low_stock")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		supplierID, err := validators.ParseQueryUUID(r, "supplier_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListProducts(r.Context(), productsvc.ListProductsInput{
			Filters: productsvc.ProductListFilters{
				LowStock:   lowStock,
				SupplierID: supplierID,
				Query:      validators.ParseQueryText(r, "q", 100),
			},
			Pagination: params,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func ProductMovements(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("stock service"))
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListMovements(r.Context(), productID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ProductReconcile compares the cached stock quantity with the ledger sum.
func ProductReconcile(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("stock service"))
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Reconcile(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
