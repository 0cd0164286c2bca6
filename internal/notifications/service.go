package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoshop-backend/pkg/db/models"
	"github.com/angelmondragon/autoshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autoshop-backend/pkg/errors"
	"github.com/angelmondragon/autoshop-backend/pkg/pagination"
)

// Service lists and acknowledges staff notifications and records low-stock
// alerts for the stock ledger.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context) (int64, error)
	RaiseLowStock(ctx context.Context, tx *gorm.DB, product *models.Product, stockAfter int) (*models.Notification, error)
}

type store interface {
	Create(ctx context.Context, n *models.Notification) error
	Page(ctx context.Context, f Filter, cursor *pagination.Cursor, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	MarkAllRead(ctx context.Context, at time.Time) (int64, error)
}

// ListParams carries raw query values from the handler.
type ListParams struct {
	Limit      int
	Cursor     string
	UnreadOnly bool
	Type       string
}

type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

type service struct {
	store store
	now   func() time.Time
}

func NewService(s store) (Service, error) {
	if s == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications store required")
	}
	return &service{store: s, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	f := Filter{UnreadOnly: params.UnreadOnly}
	if params.Type != "" {
		kind, err := enums.ParseNotificationType(params.Type)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid notification type")
		}
		f.Type = kind
	}
	var cursor *pagination.Cursor
	if params.Cursor != "" {
		c, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		cursor = c
	}

	rows, err := s.store.Page(ctx, f, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	items, next := pagination.Page(rows, params.Limit, func(n models.Notification) pagination.Cursor {
		return pagination.Cursor{CreatedAt: n.CreatedAt, ID: n.ID}
	})
	if items == nil {
		items = []models.Notification{}
	}
	return &ListResult{Items: items, Cursor: next}, nil
}

func (s *service) MarkRead(ctx context.Context, notificationID uuid.UUID) error {
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}
	found, err := s.store.MarkRead(ctx, notificationID, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context) (int64, error) {
	n, err := s.store.MarkAllRead(ctx, s.now())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return n, nil
}

// RaiseLowStock records one alert for a movement that left product under its
// minimum. The insert joins tx so it commits or rolls back with the movement.
func (s *service) RaiseLowStock(ctx context.Context, tx *gorm.DB, product *models.Product, stockAfter int) (*models.Notification, error) {
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product required")
	}
	productID := product.ID
	alert := &models.Notification{
		Type:      enums.NotificationTypeLowStock,
		Message:   LowStockMessage(product.Name, stockAfter, product.MinStock),
		ProductID: &productID,
	}
	if err := s.bound(tx).Create(ctx, alert); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create low stock notification")
	}
	return alert, nil
}

func (s *service) bound(tx *gorm.DB) store {
	if tx == nil {
		return s.store
	}
	if r, ok := s.store.(*Repository); ok {
		return r.WithTx(tx)
	}
	return s.store
}

// LowStockMessage renders the alert text for a product under its minimum.
func LowStockMessage(productName string, quantity, minimum int) string {
	return fmt.Sprintf("Low stock: %s has %d unit(s) left, minimum is %d.", productName, quantity, minimum)
}
