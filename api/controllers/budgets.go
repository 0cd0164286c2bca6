package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/autoshop-backend/api/responses"
	"github.com/angelmondragon/autoshop-backend/api/validators"
	"github.com/angelmondragon/autoshop-backend/internal/budgets"
	"github.com/angelmondragon/autoshop-backend/internal/lineitems"
	"github.com/angelmondragon/autoshop-backend/pkg/auth"
	"github.com/angelmondragon/autoshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autoshop-backend/pkg/errors"
	"github.com/angelmondragon/autoshop-backend/pkg/logger"
)

type createBudgetRequest struct {
	CustomerID    uuid.UUID  `json:"customer_id" validate:"required"`
	VehicleID     uuid.UUID  `json:"vehicle_id" validate:"required"`
	MechanicID    *uuid.UUID `json:"mechanic_id,omitempty"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	ValidUntil    *time.Time `json:"valid_until,omitempty"`
}

type rejectBudgetRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

func CreateBudget(svc budgets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("budget service"))
			return
		}
		principal, err := principalFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createBudgetRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Create(r.Context(), principal, budgets.CreateInput{
			CustomerID:    payload.CustomerID,
			VehicleID:     payload.VehicleID,
			MechanicID:    payload.MechanicID,
			AppointmentID: payload.AppointmentID,
			ValidUntil:    payload.ValidUntil,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

func GetBudget(svc budgets.Service, logg *logger.Logger) http.HandlerFunc {
	return budgetAction(svc, logg, http.StatusOK, func(r *http.Request, p budgetCall) (any, error) {
		return svc.Get(r.Context(), p.principal, p.budgetID)
	})
}

// ListBudgets supports ?status= filtering. Customers only see their own budgets.
func ListBudgets(svc budgets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("budget service"))
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

		listParams := budgets.ListParams{Limit: params.Limit, Cursor: params.Cursor}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseBudgetStatus(strings.ToUpper(raw))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			listParams.Status = &status
		}

		list, err := svc.List(r.Context(), principal, listParams)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func AddBudgetLine(svc budgets.Service, logg *logger.Logger) http.HandlerFunc {
	return budgetAction(svc, logg, http.StatusCreated, func(r *http.Request, p budgetCall) (any, error) {
		var payload lineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		input, err := payload.toInput()
		if err != nil {
			return nil, err
		}
		return svc.AddLine(r.Context(), p.principal, p.budgetID, input)
	})
}

func UpdateBudgetLine(svc budgets.Service, logg *logger.Logger) http.HandlerFunc {
	return budgetAction(svc, logg, http.StatusOK, func(r *http.Request, p budgetCall) (any, error) {
		lineID, err := validators.ParseUUIDParam(r, "lineId")
		if err != nil {
			return nil, err
		}
		var payload lineUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.UpdateLine(r.Context(), p.principal, p.budgetID, lineID, lineitems.Update{
			Quantity:  payload.Quantity,
			UnitPrice: payload.UnitPrice,
		})
	})
}

func DeleteBudgetLine(svc budgets.Service, logg *logger.Logger) http.HandlerFunc {
	return budgetAction(svc, logg, http.StatusOK, func(r *http.Request, p budgetCall) (any, error) {
		lineID, err := validators.ParseUUIDParam(r, "lineId")
		if err != nil {
			return nil, err
		}
		return svc.DeleteLine(r.Context(), p.principal, p.budgetID, lineID)
	})
}

func FinalizeBudget(svc budgets.Service, logg *logger.Logger) http.HandlerFunc {
	return budgetAction(svc, logg, http.StatusOK, func(r *http.Request, p budgetCall) (any, error) {
		return svc.Finalize(r.Context(), p.principal, p.budgetID)
	})
}

// ApproveBudget approves a pending budget and opens its service order.
func ApproveBudget(svc budgets.Service, logg *logger.Logger) http.HandlerFunc {
	return budgetAction(svc, logg, http.StatusOK, func(r *http.Request, p budgetCall) (any, error) {
		return svc.Approve(r.Context(), p.principal, p.budgetID)
	})
}

func RejectBudget(svc budgets.Service, logg *logger.Logger) http.HandlerFunc {
	return budgetAction(svc, logg, http.StatusOK, func(r *http.Request, p budgetCall) (any, error) {
		var payload rejectBudgetRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				return nil, err
			}
		}
		return svc.Reject(r.Context(), p.principal, p.budgetID, payload.Reason)
	})
}

type budgetCall struct {
	principal auth.Principal
	budgetID  uuid.UUID
}

// budgetAction resolves the caller and {budgetId} before running fn.
func budgetAction(svc budgets.Service, logg *logger.Logger, status int, fn func(*http.Request, budgetCall) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("budget service"))
			return
		}
		principal, err := principalFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		budgetID, err := validators.ParseUUIDParam(r, "budgetId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := fn(r, budgetCall{principal: principal, budgetID: budgetID})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}
