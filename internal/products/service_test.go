package product

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

func newProductService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := testsupport.OpenDB(t)
	notes, err := notifications.NewService(notifications.NewRepository(db))
	require.NoError(t, err)
	ledger, err := stock.NewLedger(stock.NewRepository(db), notes, nil, nil)
	require.NoError(t, err)
	svc, err := NewService(NewRepository(db), testsupport.TxRunner{DB: db}, ledger, 5)
	require.NoError(t, err)
	return svc, db
}

func dec(value string) *decimal.Decimal {
	d := decimal.RequireFromString(value)
	return &d
}

func intPtr(v int) *int {
	return &v
}

func stringPtr(v string) *string {
	return &v
}

func supplierPrincipal(id uuid.UUID) auth.Principal {
	return auth.Principal{UserID: uuid.New(), Role: enums.RoleSupplier, EntityID: &id}
}

func TestCreateProductBooksInitialStock(t *testing.T) {
	svc, db := newProductService(t)
	supplier := testsupport.MustCreateSupplier(t, db)

	created, err := svc.CreateProduct(context.Background(), supplierPrincipal(supplier.ID), CreateProductInput{
		Name:         "  Brake Disc ",
		Cost:         dec("60.00"),
		SalePrice:    dec("95.00"),
		InitialStock: 8,
	})
	require.NoError(t, err)
	assert.Equal(t, "Brake Disc", created.Name)
	assert.Equal(t, 8, created.StockQty)
	assert.Equal(t, 5, created.MinStock)
	require.NotNil(t, created.SupplierID)
	assert.Equal(t, supplier.ID, *created.SupplierID)

	var movement models.StockMovement
	require.NoError(t, db.First(&movement, "product_id = ?", created.ID).Error)
	assert.Equal(t, enums.MovementReasonInitialStock, movement.Reason)
	assert.Equal(t, 8, movement.Quantity)
}

func TestCreateProductWithoutStockHasNoMovement(t *testing.T) {
	svc, db := newProductService(t)

	created, err := svc.CreateProduct(context.Background(), auth.Principal{UserID: uuid.New(), Role: enums.RoleAdmin}, CreateProductInput{
		Name:      "Coolant",
		Cost:      dec("10"),
		SalePrice: dec("18"),
		MinStock:  intPtr(0),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, created.MinStock)
	assert.False(t, created.LowStock)
	assert.Nil(t, created.SupplierID)
	assert.Equal(t, int64(0), testsupport.Count(t, db, &models.StockMovement{}, ""))
}

func TestCreateProductValidation(t *testing.T) {
	svc, db := newProductService(t)
	supplier := testsupport.MustCreateSupplier(t, db)
	principal := supplierPrincipal(supplier.ID)

	cases := map[string]CreateProductInput{
		"missing name":     {Cost: dec("1"), SalePrice: dec("2")},
		"missing price":    {Name: "x", Cost: dec("1")},
		"zero sale price":  {Name: "x", Cost: dec("1"), SalePrice: dec("0")},
		"negative cost":    {Name: "x", Cost: dec("-1"), SalePrice: dec("2")},
		"negative minimum": {Name: "x", Cost: dec("1"), SalePrice: dec("2"), MinStock: intPtr(-1)},
		"negative stock":   {Name: "x", Cost: dec("1"), SalePrice: dec("2"), InitialStock: -3},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateProduct(context.Background(), principal, input)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), err)
		})
	}

	other := uuid.New()
	_, err := svc.CreateProduct(context.Background(), principal, CreateProductInput{SupplierID: &other, Name: "x", Cost: dec("1"), SalePrice: dec("2")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	mechanicID := uuid.New()
	_, err = svc.CreateProduct(context.Background(), auth.Principal{UserID: uuid.New(), Role: enums.RoleMechanic, EntityID: &mechanicID}, CreateProductInput{Name: "x", Cost: dec("1"), SalePrice: dec("2")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestUpdateProductNeverTouchesStock(t *testing.T) {
	svc, db := newProductService(t)
	supplier := testsupport.MustCreateSupplier(t, db)
	created, err := svc.CreateProduct(context.Background(), supplierPrincipal(supplier.ID), CreateProductInput{
		Name: "Wiper", Cost: dec("4"), SalePrice: dec("9"), InitialStock: 3,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateProduct(context.Background(), supplierPrincipal(supplier.ID), created.ID, UpdateProductInput{
		Name:      stringPtr("Wiper Blade"),
		SalePrice: dec("11.50"),
		MinStock:  intPtr(4),
	})
	require.NoError(t, err)
	assert.Equal(t, "Wiper Blade", updated.Name)
	assert.True(t, updated.SalePrice.Equal(decimal.RequireFromString("11.50")))
	assert.Equal(t, 3, updated.StockQty)
	assert.True(t, updated.LowStock)

	_, err = svc.UpdateProduct(context.Background(), supplierPrincipal(uuid.New()), created.ID, UpdateProductInput{Name: stringPtr("Mine")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	_, err = svc.UpdateProduct(context.Background(), supplierPrincipal(supplier.ID), created.ID, UpdateProductInput{SalePrice: dec("0")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.UpdateProduct(context.Background(), supplierPrincipal(supplier.ID), uuid.New(), UpdateProductInput{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListProductsLowStockFilter(t *testing.T) {
	svc, db := newProductService(t)
	low := testsupport.MustCreateProduct(t, db, "Low Filter", 1, 5, "10.00")
	testsupport.MustCreateProduct(t, db, "Enough Oil", 9, 5, "10.00")
	testsupport.MustCreateProduct(t, db, "Exact Pad", 5, 5, "10.00")

	all, err := svc.ListProducts(context.Background(), ListProductsInput{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 3)

	lowOnly, err := svc.ListProducts(context.Background(), ListProductsInput{Filters: ProductListFilters{LowStock: true}})
	require.NoError(t, err)
	require.Len(t, lowOnly.Items, 1)
	assert.Equal(t, low.ID, lowOnly.Items[0].ID)
	assert.True(t, lowOnly.Items[0].LowStock)

	search, err := svc.ListProducts(context.Background(), ListProductsInput{Filters: ProductListFilters{Query: "oil"}})
	require.NoError(t, err)
	require.Len(t, search.Items, 1)
	assert.Equal(t, "Enough Oil", search.Items[0].Name)

	page, err := svc.ListProducts(context.Background(), ListProductsInput{Pagination: pagination.Params{Limit: 2}})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.NotEmpty(t, page.Cursor)

	_, err = svc.GetProduct(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
