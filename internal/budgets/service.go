package budgets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoshop-backend/internal/lineitems"
	"github.com/angelmondragon/autoshop-backend/internal/serviceorders"
	"github.com/angelmondragon/autoshop-backend/pkg/auth"
	"github.com/angelmondragon/autoshop-backend/pkg/db/models"
	"github.com/angelmondragon/autoshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autoshop-backend/pkg/errors"
	"github.com/angelmondragon/autoshop-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderOpener interface {
	Open(ctx context.Context, tx *gorm.DB, input serviceorders.OpenInput) (*models.ServiceOrder, error)
}

// Service manages budgets from drafting to the customer's decision.
type Service interface {
	Create(ctx context.Context, principal auth.Principal, input CreateInput) (*BudgetView, error)
	Get(ctx context.Context, principal auth.Principal, id uuid.UUID) (*BudgetView, error)
	List(ctx context.Context, principal auth.Principal, params ListParams) (*BudgetList, error)
	AddLine(ctx context.Context, principal auth.Principal, budgetID uuid.UUID, input lineitems.Input) (*BudgetView, error)
	UpdateLine(ctx context.Context, principal auth.Principal, budgetID, lineID uuid.UUID, update lineitems.Update) (*BudgetView, error)
	DeleteLine(ctx context.Context, principal auth.Principal, budgetID, lineID uuid.UUID) (*BudgetView, error)
	Finalize(ctx context.Context, principal auth.Principal, budgetID uuid.UUID) (*BudgetView, error)
	Approve(ctx context.Context, principal auth.Principal, budgetID uuid.UUID) (*Decision, error)
	Reject(ctx context.Context, principal auth.Principal, budgetID uuid.UUID, reason string) (*Decision, error)
}

type CreateInput struct {
	CustomerID    uuid.UUID
	VehicleID     uuid.UUID
	MechanicID    *uuid.UUID
	AppointmentID *uuid.UUID
	ValidUntil    *time.Time
}

type ListParams struct {
	Limit  int
	Cursor string
	Status *enums.BudgetStatus
}

// BudgetView is a budget with its lines in insertion order.
type BudgetView struct {
	Budget models.Budget     `json:"budget"`
	Lines  []models.LineItem `json:"lines"`
}

type BudgetList struct {
	Items  []models.Budget `json:"items"`
	Cursor string          `json:"cursor"`
}

// Decision is the outcome of approving or rejecting a budget. ServiceOrder is
// set only on approval.
type Decision struct {
	Budget       models.Budget        `json:"budget"`
	ServiceOrder *models.ServiceOrder `json:"service_order,omitempty"`
}

type service struct {
	tx         txRunner
	repo       Repository
	lines      lineitems.Repository
	catalog    *lineitems.Catalog
	aggregator *Aggregator
	opener     orderOpener
	now        func() time.Time
}

// NewService builds the budget service.
func NewService(tx txRunner, repo Repository, lines lineitems.Repository, catalog *lineitems.Catalog, opener orderOpener) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("budget repository required")
	}
	if lines == nil || catalog == nil {
		return nil, fmt.Errorf("line item storage required")
	}
	if opener == nil {
		return nil, fmt.Errorf("order opener required")
	}
	return &service{
		tx:         tx,
		repo:       repo,
		lines:      lines,
		catalog:    catalog,
		aggregator: NewAggregator(repo, lines),
		opener:     opener,
		now:        time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, principal auth.Principal, input CreateInput) (*BudgetView, error) {
	if !principal.Is(enums.RoleAdmin, enums.RoleMechanic) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins and mechanics can draft budgets")
	}
	if input.CustomerID == uuid.Nil || input.VehicleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer_id and vehicle_id are required")
	}
	if input.ValidUntil != nil && input.ValidUntil.Before(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "valid_until must be in the future")
	}
	if input.MechanicID == nil && principal.Role == enums.RoleMechanic {
		input.MechanicID = principal.EntityID
	}

	vehicle, err := s.repo.FindVehicle(ctx, input.VehicleID)
	if err != nil {
		return nil, lookupError(err, "vehicle")
	}
	if vehicle.CustomerID != input.CustomerID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle does not belong to customer")
	}

	budget := &models.Budget{
		Status:        enums.BudgetStatusPending,
		CustomerID:    input.CustomerID,
		VehicleID:     input.VehicleID,
		MechanicID:    input.MechanicID,
		AppointmentID: input.AppointmentID,
		ValidUntil:    input.ValidUntil,
	}
	if err := s.repo.Create(ctx, budget); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create budget")
	}
	return &BudgetView{Budget: *budget, Lines: []models.LineItem{}}, nil
}

func (s *service) Get(ctx context.Context, principal auth.Principal, id uuid.UUID) (*BudgetView, error) {
	budget, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "budget")
	}
	if !canView(principal, budget) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "budget not accessible")
	}
	return s.view(ctx, s.lines, budget)
}

// List shows customers their own budgets; staff see all.
func (s *service) List(ctx context.Context, principal auth.Principal, params ListParams) (*BudgetList, error) {
	if !principal.Is(enums.RoleAdmin, enums.RoleMechanic, enums.RoleCustomer) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "budgets are not visible to this role")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	query := listBudgetsParams{Limit: params.Limit, Cursor: cursor, Status: params.Status}
	if principal.Role == enums.RoleCustomer {
		if principal.EntityID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "customer profile missing")
		}
		query.CustomerID = principal.EntityID
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list budgets")
	}
	items, next := pagination.Page(rows, params.Limit, func(b models.Budget) pagination.Cursor {
		return pagination.Cursor{CreatedAt: b.CreatedAt, ID: b.ID}
	})
	return &BudgetList{Items: items, Cursor: next}, nil
}

func (s *service) AddLine(ctx context.Context, principal auth.Principal, budgetID uuid.UUID, input lineitems.Input) (*BudgetView, error) {
	return s.editLines(ctx, principal, budgetID, func(tx *gorm.DB, budget *models.Budget) error {
		line, err := lineitems.Build(ctx, s.catalog.WithTx(tx), models.BudgetParent(budget.ID), input)
		if err != nil {
			return err
		}
		if err := s.lines.WithTx(tx).Create(ctx, line); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create budget line")
		}
		return nil
	})
}

func (s *service) UpdateLine(ctx context.Context, principal auth.Principal, budgetID, lineID uuid.UUID, update lineitems.Update) (*BudgetView, error) {
	return s.editLines(ctx, principal, budgetID, func(tx *gorm.DB, budget *models.Budget) error {
		lines := s.lines.WithTx(tx)
		line, err := lines.Find(ctx, models.BudgetParent(budget.ID), lineID)
		if err != nil {
			return lookupError(err, "budget line")
		}
		if err := lineitems.Apply(line, update); err != nil {
			return err
		}
		if err := lines.Save(ctx, line); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update budget line")
		}
		return nil
	})
}

func (s *service) DeleteLine(ctx context.Context, principal auth.Principal, budgetID, lineID uuid.UUID) (*BudgetView, error) {
	return s.editLines(ctx, principal, budgetID, func(tx *gorm.DB, budget *models.Budget) error {
		deleted, err := s.lines.WithTx(tx).Delete(ctx, models.BudgetParent(budget.ID), lineID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete budget line")
		}
		if !deleted {
			return pkgerrors.New(pkgerrors.CodeNotFound, "budget line not found")
		}
		return nil
	})
}

// editLines runs one line mutation on a PENDING budget and recomputes the
// total in the same transaction.
func (s *service) editLines(ctx context.Context, principal auth.Principal, budgetID uuid.UUID, mutate func(tx *gorm.DB, budget *models.Budget) error) (*BudgetView, error) {
	if !principal.Is(enums.RoleAdmin, enums.RoleMechanic) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins and mechanics can edit budget lines")
	}

	var view *BudgetView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		budget, err := s.pending(ctx, tx, budgetID)
		if err != nil {
			return err
		}
		if err := mutate(tx, budget); err != nil {
			return err
		}
		if budget.Total, err = s.aggregator.RecomputeTotal(ctx, tx, budget.ID); err != nil {
			return err
		}
		view, err = s.view(ctx, s.lines.WithTx(tx), budget)
		return err
	})
	if err != nil {
		return nil, pkgerrors.EnsureCoded(err, pkgerrors.CodeDependency, "edit budget lines")
	}
	return view, nil
}

// Finalize checks that a PENDING budget has at least one line and settles its
// total before it is sent to the customer.
func (s *service) Finalize(ctx context.Context, principal auth.Principal, budgetID uuid.UUID) (*BudgetView, error) {
	if !principal.Is(enums.RoleAdmin, enums.RoleMechanic) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins and mechanics can finalize budgets")
	}

	var view *BudgetView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		budget, err := s.pending(ctx, tx, budgetID)
		if err != nil {
			return err
		}
		count, err := s.lines.WithTx(tx).CountByParent(ctx, models.BudgetParent(budget.ID))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count budget lines")
		}
		if count == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "budget must contain at least one service or product")
		}
		if budget.Total, err = s.aggregator.RecomputeTotal(ctx, tx, budget.ID); err != nil {
			return err
		}
		view, err = s.view(ctx, s.lines.WithTx(tx), budget)
		return err
	})
	if err != nil {
		return nil, pkgerrors.EnsureCoded(err, pkgerrors.CodeDependency, "finalize budget")
	}
	return view, nil
}

// Approve accepts a PENDING budget and opens its service order in the same
// transaction.
func (s *service) Approve(ctx context.Context, principal auth.Principal, budgetID uuid.UUID) (*Decision, error) {
	var result *Decision
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		budget, err := s.decide(ctx, tx, principal, budgetID, enums.BudgetStatusApproved, nil)
		if err != nil {
			return err
		}
		order, err := s.opener.Open(ctx, tx, serviceorders.OpenInput{
			VehicleID:  budget.VehicleID,
			MechanicID: budget.MechanicID,
			BudgetID:   &budget.ID,
		})
		if err != nil {
			return err
		}
		result = &Decision{Budget: *budget, ServiceOrder: order}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.EnsureCoded(err, pkgerrors.CodeDependency, "approve budget")
	}
	return result, nil
}

func (s *service) Reject(ctx context.Context, principal auth.Principal, budgetID uuid.UUID, reason string) (*Decision, error) {
	var note *string
	if trimmed := strings.TrimSpace(reason); trimmed != "" {
		note = &trimmed
	}

	var result *Decision
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		budget, err := s.decide(ctx, tx, principal, budgetID, enums.BudgetStatusRejected, note)
		if err != nil {
			return err
		}
		result = &Decision{Budget: *budget}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.EnsureCoded(err, pkgerrors.CodeDependency, "reject budget")
	}
	return result, nil
}

// decide applies the conditional PENDING -> status update. Staff and the
// budget's customer may decide. An approval needs at least one line.
func (s *service) decide(ctx context.Context, tx *gorm.DB, principal auth.Principal, budgetID uuid.UUID, status enums.BudgetStatus, reason *string) (*models.Budget, error) {
	repo := s.repo.WithTx(tx)
	budget, err := repo.FindByIDForUpdate(ctx, budgetID)
	if err != nil {
		return nil, lookupError(err, "budget")
	}
	if !canView(principal, budget) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "budget not accessible")
	}
	if status == enums.BudgetStatusApproved && budget.Status == enums.BudgetStatusPending {
		count, err := s.lines.WithTx(tx).CountByParent(ctx, models.BudgetParent(budget.ID))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count budget lines")
		}
		if count == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "budget must contain at least one service or product")
		}
	}

	moved, err := repo.Decide(ctx, budget.ID, decision{
		Status:    status,
		DecidedBy: principal.ActorID(),
		DecidedAt: s.now().UTC(),
		Reason:    reason,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update budget status")
	}
	if !moved {
		return nil, alreadyProcessed(budget.ID)
	}
	return repo.FindByID(ctx, budget.ID)
}

func (s *service) pending(ctx context.Context, tx *gorm.DB, budgetID uuid.UUID) (*models.Budget, error) {
	budget, err := s.repo.WithTx(tx).FindByIDForUpdate(ctx, budgetID)
	if err != nil {
		return nil, lookupError(err, "budget")
	}
	if budget.Status != enums.BudgetStatusPending {
		return nil, alreadyProcessed(budget.ID)
	}
	return budget, nil
}

func (s *service) view(ctx context.Context, lines lineitems.Repository, budget *models.Budget) (*BudgetView, error) {
	items, err := lines.ListByParent(ctx, models.BudgetParent(budget.ID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load budget lines")
	}
	if items == nil {
		items = []models.LineItem{}
	}
	return &BudgetView{Budget: *budget, Lines: items}, nil
}

func canView(principal auth.Principal, budget *models.Budget) bool {
	if principal.Is(enums.RoleAdmin, enums.RoleMechanic) {
		return true
	}
	return principal.Role == enums.RoleCustomer && principal.Owns(budget.CustomerID)
}

func alreadyProcessed(id uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeAlreadyProcessed, "budget already processed").
		WithDetails(map[string]any{"budget_id": id})
}

func lookupError(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, what+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+what)
}
