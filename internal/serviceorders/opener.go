package serviceorders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoshop-backend/pkg/db"
	"github.com/angelmondragon/autoshop-backend/pkg/db/models"
	"github.com/angelmondragon/autoshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autoshop-backend/pkg/errors"
)

// OpenInput describes a new order. BudgetID is set when the order comes from
// an approved budget.
type OpenInput struct {
	VehicleID  uuid.UUID
	MechanicID *uuid.UUID
	BudgetID   *uuid.UUID
}

// Opener numbers and inserts service orders on a caller's transaction.
type Opener struct {
	repo    Repository
	numbers NumberGenerator
	now     func() time.Time
}

func NewOpener(repo Repository, numbers NumberGenerator) *Opener {
	return &Opener{repo: repo, numbers: numbers, now: time.Now}
}

// Open creates an IN_PROGRESS order. A second order for the same budget is
// rejected by the unique budget index and reported as ALREADY_PROCESSED.
func (o *Opener) Open(ctx context.Context, tx *gorm.DB, input OpenInput) (*models.ServiceOrder, error) {
	if input.VehicleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle id required")
	}
	now := o.now().UTC()
	number, err := o.numbers.Next(ctx, tx, now)
	if err != nil {
		return nil, err
	}

	order := &models.ServiceOrder{
		Number:     number,
		Status:     enums.ServiceOrderStatusInProgress,
		VehicleID:  input.VehicleID,
		MechanicID: input.MechanicID,
		BudgetID:   input.BudgetID,
		OpenedAt:   now,
	}
	if err := o.repo.WithTx(tx).Create(ctx, order); err != nil {
		if input.BudgetID != nil && db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeAlreadyProcessed, "budget already has a service order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create service order")
	}
	return order, nil
}
