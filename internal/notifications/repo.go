package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoshop-backend/internal/repo"
	"github.com/angelmondragon/autoshop-backend/pkg/db/models"
	"github.com/angelmondragon/autoshop-backend/pkg/enums"
	"github.com/angelmondragon/autoshop-backend/pkg/pagination"
)

// Filter narrows a notification listing.
type Filter struct {
	UnreadOnly bool
	Type       enums.NotificationType
}

// Repository persists notifications.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx binds the repository to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.Tx(tx)}
}

func (r *Repository) Create(ctx context.Context, n *models.Notification) error {
	return r.DB(ctx).Create(n).Error
}

// Page returns up to limit+1 rows after cursor so the caller can tell whether
// another page exists.
func (r *Repository) Page(ctx context.Context, f Filter, cursor *pagination.Cursor, limit int) ([]models.Notification, error) {
	q := r.DB(ctx).Model(&models.Notification{})
	if f.UnreadOnly {
		q = q.Where("read_at IS NULL")
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	var rows []models.Notification
	err := q.Scopes(pagination.Keyset(cursor, limit)).Find(&rows).Error
	return rows, err
}

// MarkRead stamps read_at on an unread notification. found is false only when
// no row has that id; re-reading an already read row is a no-op.
func (r *Repository) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) (found bool, err error) {
	res := r.DB(ctx).Model(&models.Notification{}).
		Where("id = ? AND read_at IS NULL", id).
		UpdateColumn("read_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	var n int64
	if err := r.DB(ctx).Model(&models.Notification{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Repository) MarkAllRead(ctx context.Context, at time.Time) (int64, error) {
	res := r.DB(ctx).Model(&models.Notification{}).
		Where("read_at IS NULL").
		UpdateColumn("read_at", at)
	return res.RowsAffected, res.Error
}

// DeleteReadBefore purges notifications read before cutoff. Unread rows stay
// however old they are.
func (r *Repository) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.DB(ctx).
		Where("read_at IS NOT NULL AND read_at < ?", cutoff).
		Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}
