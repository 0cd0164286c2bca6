package budgets

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoshop-backend/internal/lineitems"
	"github.com/angelmondragon/autoshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/autoshop-backend/pkg/errors"
)

// Aggregator keeps Budget.Total equal to the sum of its line subtotals.
type Aggregator struct {
	budgets Repository
	lines   lineitems.Repository
}

func NewAggregator(budgets Repository, lines lineitems.Repository) *Aggregator {
	return &Aggregator{budgets: budgets, lines: lines}
}

// RecomputeTotal sums the budget's current lines on tx and stores the result
// when it differs from the persisted total.
func (a *Aggregator) RecomputeTotal(ctx context.Context, tx *gorm.DB, budgetID uuid.UUID) (decimal.Decimal, error) {
	budgets := a.budgets.WithTx(tx)
	budget, err := budgets.FindByID(ctx, budgetID)
	if err != nil {
		return decimal.Zero, lookupError(err, "budget")
	}
	lines, err := a.lines.WithTx(tx).ListByParent(ctx, models.BudgetParent(budgetID))
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load budget lines")
	}

	total := lineitems.Total(lines)
	if total.Equal(budget.Total) {
		return budget.Total, nil
	}
	if err := budgets.UpdateTotal(ctx, budgetID, total); err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update budget total")
	}
	return total, nil
}
