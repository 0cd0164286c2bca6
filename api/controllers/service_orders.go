package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/autoshop-backend/api/responses"
	"github.com/angelmondragon/autoshop-backend/api/validators"
	"github.com/angelmondragon/autoshop-backend/internal/serviceorders"
	"github.com/angelmondragon/autoshop-backend/pkg/auth"
	"github.com/angelmondragon/autoshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autoshop-backend/pkg/errors"
	"github.com/angelmondragon/autoshop-backend/pkg/logger"
)

type createServiceOrderRequest struct {
	VehicleID  uuid.UUID  `json:"vehicle_id" validate:"required"`
	MechanicID *uuid.UUID `json:"mechanic_id,omitempty"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type checklistRequest struct {
	FuelLevel      int    `json:"fuel_level" validate:"gte=0,lte=100"`
	BodyworkDamage string `json:"bodywork_damage" validate:"max=2000"`
	PossibleDefect string `json:"possible_defect" validate:"required,max=2000"`
	Notes          string `json:"notes" validate:"max=2000"`
}

type reportRequest struct {
	Diagnosis         string `json:"diagnosis" validate:"required"`
	CorrectiveActions string `json:"corrective_actions"`
	Recommendations   string `json:"recommendations"`
}

func CreateServiceOrder(svc serviceorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("service order service"))
			return
		}
		principal, err := principalFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createServiceOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Create(r.Context(), principal, serviceorders.CreateInput{
			VehicleID:  payload.VehicleID,
			MechanicID: payload.MechanicID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// ListServiceOrders scopes results to the caller: customers see their vehicles only.
func ListServiceOrders(svc serviceorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("service order service"))
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

		listParams := serviceorders.ListParams{Limit: params.Limit, Cursor: params.Cursor}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := parseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
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

func GetServiceOrder(svc serviceorders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderAction(svc, logg, http.StatusOK, func(r *http.Request, p orderCall) (any, error) {
		return svc.Get(r.Context(), p.principal, p.orderID)
	})
}

func AddServiceOrderLine(svc serviceorders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderAction(svc, logg, http.StatusCreated, func(r *http.Request, p orderCall) (any, error) {
		var payload lineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		input, err := payload.toInput()
		if err != nil {
			return nil, err
		}
		return svc.AddLine(r.Context(), p.principal, p.orderID, input)
	})
}

// UpdateServiceOrderStatus moves the order; COMPLETED depletes stock for its parts.
func UpdateServiceOrderStatus(svc serviceorders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderAction(svc, logg, http.StatusOK, func(r *http.Request, p orderCall) (any, error) {
		var payload updateStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		status, err := parseOrderStatus(payload.Status)
		if err != nil {
			return nil, err
		}
		return svc.UpdateStatus(r.Context(), p.principal, p.orderID, status)
	})
}

func SaveChecklist(svc serviceorders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderAction(svc, logg, http.StatusOK, func(r *http.Request, p orderCall) (any, error) {
		var payload checklistRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.SaveChecklist(r.Context(), p.principal, p.orderID, serviceorders.ChecklistInput{
			FuelLevel:      payload.FuelLevel,
			BodyworkDamage: payload.BodyworkDamage,
			PossibleDefect: payload.PossibleDefect,
			Notes:          payload.Notes,
		})
	})
}

func SaveReport(svc serviceorders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderAction(svc, logg, http.StatusOK, func(r *http.Request, p orderCall) (any, error) {
		var payload reportRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.SaveReport(r.Context(), p.principal, p.orderID, serviceorders.ReportInput{
			Diagnosis:         payload.Diagnosis,
			CorrectiveActions: payload.CorrectiveActions,
			Recommendations:   payload.Recommendations,
		})
	})
}

func GetReport(svc serviceorders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderAction(svc, logg, http.StatusOK, func(r *http.Request, p orderCall) (any, error) {
		return svc.GetReport(r.Context(), p.principal, p.orderID)
	})
}

func parseOrderStatus(raw string) (enums.ServiceOrderStatus, error) {
	status, err := enums.ParseServiceOrderStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}
	return status, nil
}

type orderCall struct {
	principal auth.Principal
	orderID   uuid.UUID
}

func orderAction(svc serviceorders.Service, logg *logger.Logger, status int, fn func(*http.Request, orderCall) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("service order service"))
			return
		}
		principal, err := principalFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := fn(r, orderCall{principal: principal, orderID: orderID})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}
