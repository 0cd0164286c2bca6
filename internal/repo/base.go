package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Base holds the connection a repository reads and writes through. Bind it to
// a transaction with Tx.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// Tx returns a Base writing through tx, or b unchanged when tx is nil.
func (b Base) Tx(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}

// DB returns the connection scoped to ctx.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// First loads the first T matching the condition. Missing rows surface as
// gorm.ErrRecordNotFound for the service layer to classify.
func First[T any](db *gorm.DB, query any, args ...any) (*T, error) {
	var row T
	if err := db.Where(query, args...).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ForUpdate adds a row lock to db's next read. Writers that check a parent's
// status before touching its children read through it so a concurrent status
// change waits for them. SQLite has no row locks and drops the clause.
func ForUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
