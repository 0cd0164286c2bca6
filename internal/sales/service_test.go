package sales

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoshop-backend/internal/notifications"
	"github.com/angelmondragon/autoshop-backend/internal/stock"
	"github.com/angelmondragon/autoshop-backend/internal/testsupport"
	"github.com/angelmondragon/autoshop-backend/pkg/auth"
	"github.com/angelmondragon/autoshop-backend/pkg/db/models"
	"github.com/angelmondragon/autoshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autoshop-backend/pkg/errors"
	"github.com/angelmondragon/autoshop-backend/pkg/pagination"
)

func newSalesService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := testsupport.OpenDB(t)
	notes, err := notifications.NewService(notifications.NewRepository(db))
	require.NoError(t, err)
	ledger, err := stock.NewLedger(stock.NewRepository(db), notes, nil, nil)
	require.NoError(t, err)
	svc, err := NewService(testsupport.TxRunner{DB: db}, NewRepository(db), ledger, nil)
	require.NoError(t, err)
	return svc, db
}

func mechanic() auth.Principal {
	id := uuid.New()
	return auth.Principal{UserID: uuid.New(), Role: enums.RoleMechanic, EntityID: &id}
}

func TestProcessSaleRecordsLinesAndMovements(t *testing.T) {
	svc, db := newSalesService(t)
	pads := testsupport.MustCreateProduct(t, db, "Brake Pad", 10, 2, "40.00")
	oil := testsupport.MustCreateProduct(t, db, "Oil", 5, 1, "25.50")
	discounted := decimal.RequireFromString("20.00")

	sale, err := svc.ProcessSale(context.Background(), mechanic(), []LineInput{
		{ProductID: pads.ID, Quantity: 2},
		{ProductID: oil.ID, Quantity: 3, UnitPrice: &discounted},
	})
	require.NoError(t, err)
	assert.True(t, sale.Total.Equal(decimal.RequireFromString("140.00")), sale.Total.String())
	require.Len(t, sale.Lines, 2)
	assert.True(t, sale.Lines[0].UnitPrice.Equal(pads.SalePrice))
	assert.True(t, sale.Lines[1].Subtotal.Equal(decimal.RequireFromString("60.00")))

	assert.Equal(t, 8, testsupport.StockOf(t, db, pads.ID))
	assert.Equal(t, 2, testsupport.StockOf(t, db, oil.ID))
	assert.Equal(t, int64(2), testsupport.Count(t, db, &models.StockMovement{}, "sale_id = ? AND direction = ?", sale.ID, enums.MovementOut))

	loaded, err := svc.GetSale(context.Background(), sale.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Lines, 2)
	assert.Equal(t, pads.ID, loaded.Lines[0].ProductID)
	assert.Equal(t, oil.ID, loaded.Lines[1].ProductID)
	assert.True(t, loaded.Total.Equal(sale.Total))
}

func TestProcessSaleAbortsWholeSaleOnShortLine(t *testing.T) {
	svc, db := newSalesService(t)
	first := testsupport.MustCreateProduct(t, db, "Filter", 10, 0, "12.00")
	second := testsupport.MustCreateProduct(t, db, "Spark Plug", 1, 0, "8.00")

	_, err := svc.ProcessSale(context.Background(), mechanic(), []LineInput{
		{ProductID: first.ID, Quantity: 4},
		{ProductID: second.ID, Quantity: 2},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))

	assert.Equal(t, 10, testsupport.StockOf(t, db, first.ID))
	assert.Equal(t, 1, testsupport.StockOf(t, db, second.ID))
	assert.Equal(t, int64(0), testsupport.Count(t, db, &models.Sale{}, ""))
	assert.Equal(t, int64(0), testsupport.Count(t, db, &models.SaleLine{}, ""))
	assert.Equal(t, int64(0), testsupport.Count(t, db, &models.StockMovement{}, ""))
}

func TestProcessSaleUnknownProduct(t *testing.T) {
	svc, db := newSalesService(t)
	known := testsupport.MustCreateProduct(t, db, "Filter", 10, 0, "12.00")

	_, err := svc.ProcessSale(context.Background(), mechanic(), []LineInput{
		{ProductID: known.ID, Quantity: 1},
		{ProductID: uuid.New(), Quantity: 1},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Equal(t, 10, testsupport.StockOf(t, db, known.ID))
	assert.Equal(t, int64(0), testsupport.Count(t, db, &models.Sale{}, ""))
}

func TestProcessSaleValidation(t *testing.T) {
	svc, db := newSalesService(t)
	product := testsupport.MustCreateProduct(t, db, "Filter", 10, 0, "12.00")
	negative := decimal.NewFromInt(-1)
	subCent := decimal.RequireFromString("10.005")

	cases := map[string][]LineInput{
		"empty":          nil,
		"zero quantity":  {{ProductID: product.ID, Quantity: 0}},
		"negative price": {{ProductID: product.ID, Quantity: 1, UnitPrice: &negative}},
		"sub-cent price": {{ProductID: product.ID, Quantity: 1}, {ProductID: product.ID, Quantity: 3, UnitPrice: &subCent}},
		"missing id":     {{Quantity: 1}},
	}
	for name, lines := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ProcessSale(context.Background(), mechanic(), lines)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), err)
		})
	}
	assert.Equal(t, 10, testsupport.StockOf(t, db, product.ID))
	assert.Equal(t, int64(0), testsupport.Count(t, db, &models.Sale{}, ""))

	trailing := decimal.RequireFromString("10.500")
	sale, err := svc.ProcessSale(context.Background(), mechanic(), []LineInput{{ProductID: product.ID, Quantity: 3, UnitPrice: &trailing}})
	require.NoError(t, err)
	assert.True(t, sale.Total.Equal(decimal.RequireFromString("31.50")), sale.Total.String())
}

func TestProcessSaleRejectsCustomers(t *testing.T) {
	svc, db := newSalesService(t)
	product := testsupport.MustCreateProduct(t, db, "Filter", 10, 0, "12.00")
	customerID := uuid.New()

	_, err := svc.ProcessSale(context.Background(), auth.Principal{UserID: uuid.New(), Role: enums.RoleCustomer, EntityID: &customerID}, []LineInput{
		{ProductID: product.ID, Quantity: 1},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestGetSaleNotFound(t *testing.T) {
	svc, _ := newSalesService(t)
	_, err := svc.GetSale(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListSalesPaginates(t *testing.T) {
	svc, db := newSalesService(t)
	product := testsupport.MustCreateProduct(t, db, "Filter", 10, 0, "12.00")
	for i := 0; i < 3; i++ {
		_, err := svc.ProcessSale(context.Background(), mechanic(), []LineInput{{ProductID: product.ID, Quantity: 1}})
		require.NoError(t, err)
	}

	first, err := svc.ListSales(context.Background(), pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.Cursor)

	rest, err := svc.ListSales(context.Background(), pagination.Params{Limit: 2, Cursor: first.Cursor})
	require.NoError(t, err)
	require.Len(t, rest.Items, 1)
	assert.Empty(t, rest.Cursor)
	for _, seen := range first.Items {
		assert.NotEqual(t, seen.ID, rest.Items[0].ID)
	}
}
