package stock

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/autoshop-backend/internal/testsupport"
	"github.com/angelmondragon/autoshop-backend/pkg/auth"
	"github.com/angelmondragon/autoshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autoshop-backend/pkg/errors"
	"github.com/angelmondragon/autoshop-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, ledgerFixture) {
	t.Helper()
	f := newLedgerFixture(t)
	svc, err := NewService(testsupport.TxRunner{DB: f.db}, NewRepository(f.db), f.ledger)
	require.NoError(t, err)
	return svc, f
}

func adminPrincipal() auth.Principal {
	return auth.Principal{UserID: uuid.New(), Role: enums.RoleAdmin}
}

func TestRecordManualRequiresAdmin(t *testing.T) {
	svc, f := newTestService(t)
	product := testsupport.MustCreateProduct(t, f.db, "Bulb", 1, 0, "3.00")
	mechanicID := uuid.New()

	_, err := svc.RecordManual(context.Background(), auth.Principal{UserID: uuid.New(), Role: enums.RoleMechanic, EntityID: &mechanicID}, ManualMovementInput{
		ProductID: product.ID,
		Direction: enums.MovementIn,
		Quantity:  1,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestRecordManualRejectsWorkflowReasons(t *testing.T) {
	svc, f := newTestService(t)
	product := testsupport.MustCreateProduct(t, f.db, "Bulb", 1, 0, "3.00")

	_, err := svc.RecordManual(context.Background(), adminPrincipal(), ManualMovementInput{
		ProductID: product.ID,
		Direction: enums.MovementOut,
		Quantity:  1,
		Reason:    enums.MovementReasonSale,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.RecordManual(context.Background(), adminPrincipal(), ManualMovementInput{
		ProductID: product.ID,
		Direction: enums.MovementOut,
		Quantity:  1,
		Reason:    enums.MovementReasonInitialStock,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestRecordManualAdjustsAndNotifies(t *testing.T) {
	svc, f := newTestService(t)
	product := testsupport.MustCreateProduct(t, f.db, "Battery", 6, 5, "300.00")
	admin := adminPrincipal()

	movement, err := svc.RecordManual(context.Background(), admin, ManualMovementInput{
		ProductID: product.ID,
		Direction: enums.MovementOut,
		Quantity:  2,
		Note:      "  damaged in storage ",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.MovementReasonManualAdjustment, movement.Reason)
	assert.Equal(t, "damaged in storage", movement.Note)
	assert.Equal(t, 4, movement.StockAfter)
	require.NotNil(t, movement.ActorUserID)
	assert.Equal(t, admin.UserID, *movement.ActorUserID)
	assert.Len(t, f.notifier.notes, 1)

	_, err = svc.RecordManual(context.Background(), admin, ManualMovementInput{
		ProductID: product.ID,
		Direction: enums.MovementOut,
		Quantity:  50,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
	assert.Equal(t, 4, testsupport.StockOf(t, f.db, product.ID))
}

func TestListMovementsNewestFirst(t *testing.T) {
	svc, f := newTestService(t)
	product := testsupport.MustCreateProduct(t, f.db, "Hose", 0, 0, "5.00")
	admin := adminPrincipal()

	for i := 0; i < 3; i++ {
		_, err := svc.RecordManual(context.Background(), admin, ManualMovementInput{
			ProductID: product.ID,
			Direction: enums.MovementIn,
			Quantity:  i + 1,
		})
		require.NoError(t, err)
	}

	page, err := svc.ListMovements(context.Background(), product.ID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.NotEmpty(t, page.Cursor)

	all, err := svc.ListMovements(context.Background(), product.ID, pagination.Params{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, all.Items, 3)
	assert.Empty(t, all.Cursor)

	_, err = svc.ListMovements(context.Background(), uuid.New(), pagination.Params{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.ListMovements(context.Background(), product.ID, pagination.Params{Cursor: "not-base64!"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestReconcile(t *testing.T) {
	svc, f := newTestService(t)
	admin := adminPrincipal()

	clean := testsupport.MustCreateProduct(t, f.db, "Clean", 0, 0, "5.00")
	_, err := svc.RecordManual(context.Background(), admin, ManualMovementInput{ProductID: clean.ID, Direction: enums.MovementIn, Quantity: 7, Reason: enums.MovementReasonInitialStock})
	require.NoError(t, err)
	_, err = svc.RecordManual(context.Background(), admin, ManualMovementInput{ProductID: clean.ID, Direction: enums.MovementOut, Quantity: 2})
	require.NoError(t, err)

	report, err := svc.Reconcile(context.Background(), clean.ID)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.Equal(t, int64(7), report.LedgerIn)
	assert.Equal(t, int64(2), report.LedgerOut)
	assert.Equal(t, 5, report.StockQty)

	drifted := testsupport.MustCreateProduct(t, f.db, "Seeded", 9, 0, "5.00")
	report, err = svc.Reconcile(context.Background(), drifted.ID)
	require.NoError(t, err)
	assert.False(t, report.Consistent)
	assert.Equal(t, int64(9), report.Drift)
}
