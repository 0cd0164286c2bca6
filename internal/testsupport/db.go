// Package testsupport opens throwaway sqlite databases and seeds the reference
// rows that workflow tests need.
package testsupport

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/angelmondragon/autoshop-backend/pkg/db/models"
)

// AllModels lists every table the service owns or references.
func AllModels() []any {
	return []any{
		&models.User{},
		&models.Customer{},
		&models.Vehicle{},
		&models.Mechanic{},
		&models.Supplier{},
		&models.Service{},
		&models.Product{},
		&models.StockMovement{},
		&models.Sale{},
		&models.SaleLine{},
		&models.Budget{},
		&models.ServiceOrder{},
		&models.OrderNumberSequence{},
		&models.LineItem{},
		&models.Checklist{},
		&models.TechnicalReport{},
		&models.PurchaseOrder{},
		&models.PurchaseOrderLine{},
		&models.Notification{},
	}
}

// OpenDB returns an isolated in-memory database with the full schema.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", "autoshop", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(AllModels()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

// TxRunner adapts a raw gorm connection to the WithTx shape the services use.
type TxRunner struct {
	DB *gorm.DB
}

func (r TxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.DB.WithContext(ctx).Transaction(fn)
}

// Money parses a decimal literal and fails the test on bad input.
func Money(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse money %q: %v", value, err)
	}
	return d
}

func MustCreateProduct(t *testing.T, db *gorm.DB, name string, stock, minStock int, price string) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:      name,
		Cost:      Money(t, price).Div(decimal.NewFromInt(2)),
		SalePrice: Money(t, price),
		StockQty:  stock,
		MinStock:  minStock,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func MustCreateService(t *testing.T, db *gorm.DB, description, price string) *models.Service {
	t.Helper()
	service := &models.Service{Description: description, BasePrice: Money(t, price)}
	if err := db.Create(service).Error; err != nil {
		t.Fatalf("create service: %v", err)
	}
	return service
}

func MustCreateSupplier(t *testing.T, db *gorm.DB) *models.Supplier {
	t.Helper()
	supplier := &models.Supplier{LegalName: "Parts Co", TaxID: uuid.NewString()}
	if err := db.Create(supplier).Error; err != nil {
		t.Fatalf("create supplier: %v", err)
	}
	return supplier
}

func MustCreateMechanic(t *testing.T, db *gorm.DB) *models.Mechanic {
	t.Helper()
	mechanic := &models.Mechanic{Name: "Rosa", Email: uuid.NewString() + "@shop.test"}
	if err := db.Create(mechanic).Error; err != nil {
		t.Fatalf("create mechanic: %v", err)
	}
	return mechanic
}

// MustCreateCustomerVehicle seeds a customer owning one vehicle.
func MustCreateCustomerVehicle(t *testing.T, db *gorm.DB) (*models.Customer, *models.Vehicle) {
	t.Helper()
	customer := &models.Customer{Name: "Dana"}
	if err := db.Create(customer).Error; err != nil {
		t.Fatalf("create customer: %v", err)
	}
	vehicle := &models.Vehicle{
		CustomerID: customer.ID,
		Plate:      "P-" + uuid.NewString()[:8],
		Make:       "Fiat",
		Model:      "Uno",
		Year:       2012,
	}
	if err := db.Create(vehicle).Error; err != nil {
		t.Fatalf("create vehicle: %v", err)
	}
	return customer, vehicle
}

// StockOf reloads the persisted stock quantity of a product.
func StockOf(t *testing.T, db *gorm.DB, productID uuid.UUID) int {
	t.Helper()
	var product models.Product
	if err := db.First(&product, "id = ?", productID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	return product.StockQty
}

// Count returns the number of rows of the given model matching the condition.
func Count(t *testing.T, db *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}

// LockedReads lists the tables read with a row lock, in query order.
type LockedReads struct {
	mu     sync.Mutex
	tables []string
}

// RecordLockedReads notes every query on db that carries a FOR locking clause.
// SQLite drops the clause from the SQL, so the statement is inspected instead.
func RecordLockedReads(t *testing.T, db *gorm.DB) *LockedReads {
	t.Helper()
	reads := &LockedReads{}
	err := db.Callback().Query().Before("gorm:query").Register("testsupport:locked_reads", func(tx *gorm.DB) {
		if _, ok := tx.Statement.Clauses["FOR"]; !ok {
			return
		}
		reads.mu.Lock()
		reads.tables = append(reads.tables, tx.Statement.Table)
		reads.mu.Unlock()
	})
	if err != nil {
		t.Fatalf("register lock recorder: %v", err)
	}
	return reads
}

func (r *LockedReads) Tables() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.tables...)
}

func (r *LockedReads) Reset() {
	r.mu.Lock()
	r.tables = nil
	r.mu.Unlock()
}
