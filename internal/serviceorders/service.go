package serviceorders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoshop-backend/internal/lineitems"
	"github.com/angelmondragon/autoshop-backend/internal/stock"
	"github.com/angelmondragon/autoshop-backend/pkg/auth"
	"github.com/angelmondragon/autoshop-backend/pkg/db/models"
	"github.com/angelmondragon/autoshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autoshop-backend/pkg/errors"
	"github.com/angelmondragon/autoshop-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service runs the service order lifecycle.
type Service interface {
	Create(ctx context.Context, principal auth.Principal, input CreateInput) (*OrderView, error)
	Get(ctx context.Context, principal auth.Principal, id uuid.UUID) (*OrderView, error)
	List(ctx context.Context, principal auth.Principal, params ListParams) (*OrderList, error)
	AddLine(ctx context.Context, principal auth.Principal, id uuid.UUID, input lineitems.Input) (*models.LineItem, error)
	UpdateStatus(ctx context.Context, principal auth.Principal, id uuid.UUID, status enums.ServiceOrderStatus) (*OrderView, error)
	SaveChecklist(ctx context.Context, principal auth.Principal, id uuid.UUID, input ChecklistInput) (*models.Checklist, error)
	SaveReport(ctx context.Context, principal auth.Principal, id uuid.UUID, input ReportInput) (*ReportView, error)
	GetReport(ctx context.Context, principal auth.Principal, id uuid.UUID) (*ReportView, error)
}

type CreateInput struct {
	VehicleID  uuid.UUID
	MechanicID *uuid.UUID
}

type ListParams struct {
	Limit  int
	Cursor string
	Status *enums.ServiceOrderStatus
}

type ChecklistInput struct {
	FuelLevel      int
	BodyworkDamage string
	PossibleDefect string
	Notes          string
}

type ReportInput struct {
	Diagnosis         string
	CorrectiveActions string
	Recommendations   string
}

// OrderView is an order with the lines that will be consumed on completion and
// the status text shown to the vehicle owner.
type OrderView struct {
	Order             models.ServiceOrder `json:"order"`
	CustomerID        uuid.UUID           `json:"customer_id"`
	StatusLabel       string              `json:"status_label"`
	StatusDescription string              `json:"status_description"`
	Lines             []models.LineItem   `json:"lines"`
	BudgetLines       []models.LineItem   `json:"budget_lines"`
}

type OrderList struct {
	Items  []OrderView `json:"items"`
	Cursor string      `json:"cursor"`
}

// ReportView pairs the report with a summary of the parts the order used.
type ReportView struct {
	Report    models.TechnicalReport `json:"report"`
	PartsUsed []string               `json:"parts_used"`
}

type service struct {
	tx      txRunner
	repo    Repository
	lines   lineitems.Repository
	catalog *lineitems.Catalog
	opener  *Opener
	ledger  stockLedger
	now     func() time.Time
}

// NewService builds the service order service.
func NewService(tx txRunner, repo Repository, lines lineitems.Repository, catalog *lineitems.Catalog, opener *Opener, ledger stockLedger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("service order repository required")
	}
	if lines == nil || catalog == nil {
		return nil, fmt.Errorf("line item storage required")
	}
	if opener == nil {
		return nil, fmt.Errorf("order opener required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	return &service{
		tx:      tx,
		repo:    repo,
		lines:   lines,
		catalog: catalog,
		opener:  opener,
		ledger:  ledger,
		now:     time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, principal auth.Principal, input CreateInput) (*OrderView, error) {
	if !principal.Is(enums.RoleAdmin, enums.RoleMechanic) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins and mechanics can open service orders")
	}
	if input.VehicleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle_id is required")
	}
	if input.MechanicID == nil && principal.Role == enums.RoleMechanic {
		input.MechanicID = principal.EntityID
	}

	var view *OrderView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		vehicle, err := s.repo.WithTx(tx).FindVehicle(ctx, input.VehicleID)
		if err != nil {
			return lookupError(err, "vehicle")
		}
		order, err := s.opener.Open(ctx, tx, OpenInput{VehicleID: vehicle.ID, MechanicID: input.MechanicID})
		if err != nil {
			return err
		}
		view = newView(order, vehicle.CustomerID)
		return nil
	})
	if err != nil {
		return nil, pkgerrors.EnsureCoded(err, pkgerrors.CodeDependency, "create service order")
	}
	return view, nil
}

func (s *service) Get(ctx context.Context, principal auth.Principal, id uuid.UUID) (*OrderView, error) {
	order, vehicle, err := s.loadVisible(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	own, fromBudget, err := gatherLines(ctx, s.lines, order)
	if err != nil {
		return nil, err
	}
	view := newView(order, vehicle.CustomerID)
	if own != nil {
		view.Lines = own
	}
	if fromBudget != nil {
		view.BudgetLines = fromBudget
	}
	return view, nil
}

// List shows customers the orders on their own vehicles; staff see all.
func (s *service) List(ctx context.Context, principal auth.Principal, params ListParams) (*OrderList, error) {
	if !principal.Is(enums.RoleAdmin, enums.RoleMechanic, enums.RoleCustomer) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "service orders are not visible to this role")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	query := listOrdersParams{Limit: params.Limit, Cursor: cursor, Status: params.Status}
	if principal.Role == enums.RoleCustomer {
		if principal.EntityID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "customer profile missing")
		}
		query.CustomerID = principal.EntityID
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list service orders")
	}
	rows, next := pagination.Page(rows, params.Limit, func(o models.ServiceOrder) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})

	items := make([]OrderView, 0, len(rows))
	owners := map[uuid.UUID]uuid.UUID{}
	for i := range rows {
		customerID, ok := owners[rows[i].VehicleID]
		if !ok {
			vehicle, err := s.repo.FindVehicle(ctx, rows[i].VehicleID)
			if err != nil {
				return nil, lookupError(err, "vehicle")
			}
			customerID = vehicle.CustomerID
			owners[rows[i].VehicleID] = customerID
		}
		items = append(items, *newView(&rows[i], customerID))
	}
	return &OrderList{Items: items, Cursor: next}, nil
}

func (s *service) AddLine(ctx context.Context, principal auth.Principal, id uuid.UUID, input lineitems.Input) (*models.LineItem, error) {
	if !principal.Is(enums.RoleAdmin, enums.RoleMechanic) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins and mechanics can add order lines")
	}

	var line *models.LineItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.repo.WithTx(tx).FindByIDForUpdate(ctx, id)
		if err != nil {
			return lookupError(err, "service order")
		}
		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("service order is %s", order.Status))
		}
		line, err = lineitems.Build(ctx, s.catalog.WithTx(tx), models.ServiceOrderParent(order.ID), input)
		if err != nil {
			return err
		}
		if err := s.lines.WithTx(tx).Create(ctx, line); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create service order line")
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.EnsureCoded(err, pkgerrors.CodeDependency, "add service order line")
	}
	return line, nil
}

// UpdateStatus applies a status change. Moving into COMPLETED closes the order
// and depletes stock for every product line in the same transaction.
func (s *service) UpdateStatus(ctx context.Context, principal auth.Principal, id uuid.UUID, status enums.ServiceOrderStatus) (*OrderView, error) {
	if !principal.Is(enums.RoleAdmin, enums.RoleMechanic) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins and mechanics can change order status")
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", status))
	}

	var (
		order    *models.ServiceOrder
		vehicle  *models.Vehicle
		recorded []*stock.Recorded
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		recorded = nil

		var err error
		order, err = repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return lookupError(err, "service order")
		}
		vehicle, err = repo.FindVehicle(ctx, order.VehicleID)
		if err != nil {
			return lookupError(err, "vehicle")
		}
		if order.Status == status {
			return nil
		}
		if err := checkTransition(order.Status, status); err != nil {
			return err
		}

		var closedAt *time.Time
		if status.IsTerminal() {
			now := s.now().UTC()
			closedAt = &now
		}
		moved, err := repo.TransitionStatus(ctx, order.ID, order.Status, status, closedAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update service order status")
		}
		if !moved {
			current, err := repo.FindByID(ctx, order.ID)
			if err != nil {
				return lookupError(err, "service order")
			}
			if current.Status == status {
				order = current
				return nil
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("service order changed to %s concurrently", current.Status))
		}

		if status == enums.ServiceOrderStatusCompleted {
			recorded, err = depleteStock(ctx, tx, s.ledger, s.lines, order, principal)
			if err != nil {
				return err
			}
		}
		order, err = repo.FindByID(ctx, order.ID)
		if err != nil {
			return lookupError(err, "service order")
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.EnsureCoded(err, pkgerrors.CodeDependency, "update service order status")
	}

	s.ledger.Committed(ctx, recorded...)
	return newView(order, vehicle.CustomerID), nil
}

func (s *service) SaveChecklist(ctx context.Context, principal auth.Principal, id uuid.UUID, input ChecklistInput) (*models.Checklist, error) {
	if !principal.Is(enums.RoleAdmin, enums.RoleMechanic) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins and mechanics can fill checklists")
	}
	if input.FuelLevel < 0 || input.FuelLevel > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fuel_level must be between 0 and 100")
	}
	defect := strings.TrimSpace(input.PossibleDefect)
	if defect == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "possible_defect is required")
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, lookupError(err, "service order")
	}
	checklist := &models.Checklist{
		ServiceOrderID: id,
		FuelLevel:      input.FuelLevel,
		BodyworkDamage: strings.TrimSpace(input.BodyworkDamage),
		PossibleDefect: defect,
		Notes:          strings.TrimSpace(input.Notes),
	}
	if err := s.repo.UpsertChecklist(ctx, checklist); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save checklist")
	}
	return checklist, nil
}

func (s *service) SaveReport(ctx context.Context, principal auth.Principal, id uuid.UUID, input ReportInput) (*ReportView, error) {
	if !principal.Is(enums.RoleAdmin, enums.RoleMechanic) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins and mechanics can write technical reports")
	}
	diagnosis := strings.TrimSpace(input.Diagnosis)
	if diagnosis == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "diagnosis is required")
	}

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "service order")
	}
	report := &models.TechnicalReport{
		ServiceOrderID:    order.ID,
		Diagnosis:         diagnosis,
		CorrectiveActions: strings.TrimSpace(input.CorrectiveActions),
		Recommendations:   strings.TrimSpace(input.Recommendations),
	}
	if principal.Role == enums.RoleMechanic {
		report.MechanicID = principal.EntityID
	} else {
		report.MechanicID = order.MechanicID
	}
	if err := s.repo.UpsertReport(ctx, report); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save technical report")
	}
	return s.reportView(ctx, order, report)
}

func (s *service) GetReport(ctx context.Context, principal auth.Principal, id uuid.UUID) (*ReportView, error) {
	order, _, err := s.loadVisible(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	report, err := s.repo.FindReport(ctx, order.ID)
	if err != nil {
		return nil, lookupError(err, "technical report")
	}
	return s.reportView(ctx, order, report)
}

func (s *service) reportView(ctx context.Context, order *models.ServiceOrder, report *models.TechnicalReport) (*ReportView, error) {
	own, fromBudget, err := gatherLines(ctx, s.lines, order)
	if err != nil {
		return nil, err
	}
	parts := Parts(own, fromBudget)
	ids := make([]uuid.UUID, 0, len(parts))
	for _, p := range parts {
		ids = append(ids, p.ProductID)
	}
	names, err := s.catalog.ProductNames(ctx, ids)
	if err != nil {
		return nil, err
	}
	used := make([]string, 0, len(parts))
	for _, p := range parts {
		used = append(used, fmt.Sprintf("%dx %s", p.Quantity, names[p.ProductID]))
	}
	return &ReportView{Report: *report, PartsUsed: used}, nil
}

// loadVisible loads an order the principal may read. Customers only see
// orders on their own vehicles; suppliers see none.
func (s *service) loadVisible(ctx context.Context, principal auth.Principal, id uuid.UUID) (*models.ServiceOrder, *models.Vehicle, error) {
	if id == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "service order id required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, lookupError(err, "service order")
	}
	vehicle, err := s.repo.FindVehicle(ctx, order.VehicleID)
	if err != nil {
		return nil, nil, lookupError(err, "vehicle")
	}
	switch {
	case principal.Is(enums.RoleAdmin, enums.RoleMechanic):
	case principal.Role == enums.RoleCustomer && principal.Owns(vehicle.CustomerID):
	default:
		return nil, nil, pkgerrors.New(pkgerrors.CodeForbidden, "service order not accessible")
	}
	return order, vehicle, nil
}

// checkTransition allows moves between open states and from any open state
// into COMPLETED or CANCELLED. Terminal states are final.
func checkTransition(from, to enums.ServiceOrderStatus) error {
	if from.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("service order is already %s", from)).
			WithDetails(map[string]any{"from": from, "to": to})
	}
	return nil
}

func newView(order *models.ServiceOrder, customerID uuid.UUID) *OrderView {
	return &OrderView{
		Order:             *order,
		CustomerID:        customerID,
		StatusLabel:       order.Status.CustomerLabel(),
		StatusDescription: order.Status.CustomerDescription(),
		Lines:             []models.LineItem{},
		BudgetLines:       []models.LineItem{},
	}
}

func lookupError(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, what+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+what)
}
