package serviceorders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoshop-backend/internal/lineitems"
	"github.com/angelmondragon/autoshop-backend/internal/stock"
	"github.com/angelmondragon/autoshop-backend/pkg/auth"
	"github.com/angelmondragon/autoshop-backend/pkg/db/models"
	"github.com/angelmondragon/autoshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autoshop-backend/pkg/errors"
)

type stockLedger interface {
	Record(ctx context.Context, tx *gorm.DB, input stock.MovementInput) (*stock.Recorded, error)
	Committed(ctx context.Context, recorded ...*stock.Recorded)
	HasCompletionMovement(ctx context.Context, tx *gorm.DB, orderID, productID uuid.UUID) (bool, error)
}

// PartUsage is the total quantity of one product consumed by an order.
type PartUsage struct {
	ProductID uuid.UUID
	Quantity  int
}

// Parts merges product lines by product, keeping the order in which each
// product first appears. Service lines are ignored.
func Parts(lines ...[]models.LineItem) []PartUsage {
	var parts []PartUsage
	index := map[uuid.UUID]int{}
	for _, group := range lines {
		for i := range group {
			productID, ok := group[i].ProductID()
			if !ok {
				continue
			}
			if at, seen := index[productID]; seen {
				parts[at].Quantity += group[i].Quantity
				continue
			}
			index[productID] = len(parts)
			parts = append(parts, PartUsage{ProductID: productID, Quantity: group[i].Quantity})
		}
	}
	return parts
}

// gatherLines returns the order's own lines followed by its budget's lines.
func gatherLines(ctx context.Context, lines lineitems.Repository, order *models.ServiceOrder) ([]models.LineItem, []models.LineItem, error) {
	own, err := lines.ListByParent(ctx, models.ServiceOrderParent(order.ID))
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service order lines")
	}
	if order.BudgetID == nil {
		return own, nil, nil
	}
	fromBudget, err := lines.ListByParent(ctx, models.BudgetParent(*order.BudgetID))
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load budget lines")
	}
	return own, fromBudget, nil
}

// depleteStock records one lenient OUT per consumed product. Products that
// already carry a completion movement for this order are skipped.
func depleteStock(ctx context.Context, tx *gorm.DB, ledger stockLedger, lines lineitems.Repository, order *models.ServiceOrder, principal auth.Principal) ([]*stock.Recorded, error) {
	own, fromBudget, err := gatherLines(ctx, lines.WithTx(tx), order)
	if err != nil {
		return nil, err
	}

	var recorded []*stock.Recorded
	for _, part := range Parts(own, fromBudget) {
		done, err := ledger.HasCompletionMovement(ctx, tx, order.ID, part.ProductID)
		if err != nil {
			return nil, err
		}
		if done {
			continue
		}
		r, err := ledger.Record(ctx, tx, stock.MovementInput{
			ProductID:      part.ProductID,
			Direction:      enums.MovementOut,
			Quantity:       part.Quantity,
			Reason:         enums.MovementReasonServiceOrderCompletion,
			Mode:           stock.Lenient,
			ServiceOrderID: &order.ID,
			ActorUserID:    principal.ActorID(),
		})
		if err != nil {
			return nil, err
		}
		recorded = append(recorded, r)
	}
	return recorded, nil
}
