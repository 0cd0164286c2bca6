package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoshop-backend/internal/testsupport"
	"github.com/angelmondragon/autoshop-backend/pkg/db/models"
	"github.com/angelmondragon/autoshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autoshop-backend/pkg/errors"
	"github.com/angelmondragon/autoshop-backend/pkg/pagination"
)

type stubStore struct {
	rows     []models.Notification
	filter   Filter
	limit    int
	found    bool
	marked   time.Time
	bulk     int64
	err      error
	inserted []*models.Notification
}

func (s *stubStore) Create(_ context.Context, n *models.Notification) error {
	s.inserted = append(s.inserted, n)
	return s.err
}

func (s *stubStore) Page(_ context.Context, f Filter, _ *pagination.Cursor, limit int) ([]models.Notification, error) {
	s.filter, s.limit = f, limit
	return s.rows, s.err
}

func (s *stubStore) MarkRead(_ context.Context, _ uuid.UUID, at time.Time) (bool, error) {
	s.marked = at
	return s.found, s.err
}

func (s *stubStore) MarkAllRead(_ context.Context, at time.Time) (int64, error) {
	s.marked = at
	return s.bulk, s.err
}

func newStubbed(t *testing.T, st *stubStore) *service {
	t.Helper()
	svc, err := NewService(st)
	require.NoError(t, err)
	impl := svc.(*service)
	impl.now = func() time.Time { return time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC) }
	return impl
}

func TestNewServiceRequiresStore(t *testing.T) {
	_, err := NewService(nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestListForwardsFiltersAndPages(t *testing.T) {
	older := models.Notification{ID: uuid.New(), CreatedAt: time.Now().Add(-2 * time.Hour)}
	newer := models.Notification{ID: uuid.New(), CreatedAt: time.Now().Add(-time.Hour)}
	st := &stubStore{rows: []models.Notification{newer, older}}

	result, err := newStubbed(t, st).List(context.Background(), ListParams{Limit: 1, UnreadOnly: true, Type: " LOW_STOCK "})
	require.NoError(t, err)
	assert.Equal(t, Filter{UnreadOnly: true, Type: enums.NotificationTypeLowStock}, st.filter)
	assert.Equal(t, 1, st.limit)
	require.Len(t, result.Items, 1)
	assert.Equal(t, newer.ID, result.Items[0].ID)

	next, err := pagination.ParseCursor(result.Cursor)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, next.ID)
}

func TestListEmptyPageHasNoCursor(t *testing.T) {
	result, err := newStubbed(t, &stubStore{}).List(context.Background(), ListParams{})
	require.NoError(t, err)
	assert.NotNil(t, result.Items)
	assert.Empty(t, result.Cursor)
}

func TestListRejectsBadInput(t *testing.T) {
	svc := newStubbed(t, &stubStore{})

	_, err := svc.List(context.Background(), ListParams{Cursor: "bad"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.List(context.Background(), ListParams{Type: "carrier_pigeon"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestMarkRead(t *testing.T) {
	st := &stubStore{found: true}
	svc := newStubbed(t, st)
	require.NoError(t, svc.MarkRead(context.Background(), uuid.New()))
	assert.Equal(t, svc.now(), st.marked)

	st.found = false
	err := svc.MarkRead(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	err = svc.MarkRead(context.Background(), uuid.Nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestMarkAllRead(t *testing.T) {
	count, err := newStubbed(t, &stubStore{bulk: 3}).MarkAllRead(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	_, err = newStubbed(t, &stubStore{err: errors.New("boom")}).MarkAllRead(context.Background())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestRaiseLowStockPersistsOnTransaction(t *testing.T) {
	db := testsupport.OpenDB(t)
	product := testsupport.MustCreateProduct(t, db, "Oil Filter", 3, 5, "12.00")
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	var raised *models.Notification
	err = db.Transaction(func(tx *gorm.DB) error {
		var err error
		raised, err = svc.RaiseLowStock(context.Background(), tx, product, 3)
		return err
	})
	require.NoError(t, err)
	require.NotNil(t, raised)
	assert.Equal(t, enums.NotificationTypeLowStock, raised.Type)
	assert.Equal(t, "Low stock: Oil Filter has 3 unit(s) left, minimum is 5.", raised.Message)

	var stored models.Notification
	require.NoError(t, db.First(&stored, "id = ?", raised.ID).Error)
	require.NotNil(t, stored.ProductID)
	assert.Equal(t, product.ID, *stored.ProductID)
}

func TestRaiseLowStockRollsBackWithCaller(t *testing.T) {
	db := testsupport.OpenDB(t)
	product := testsupport.MustCreateProduct(t, db, "Spark Plug", 1, 5, "8.00")
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		if _, err := svc.RaiseLowStock(context.Background(), tx, product, 1); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)
	assert.Equal(t, int64(0), testsupport.Count(t, db, &models.Notification{}, ""))
}

func TestRepositoryReadState(t *testing.T) {
	db := testsupport.OpenDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	low := &models.Notification{Type: enums.NotificationTypeLowStock, Message: "a"}
	sys := &models.Notification{Type: enums.NotificationTypeSystem, Message: "b"}
	require.NoError(t, repo.Create(ctx, low))
	require.NoError(t, repo.Create(ctx, sys))

	found, err := repo.MarkRead(ctx, low.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, found)
	found, err = repo.MarkRead(ctx, low.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, found, "already read rows still count as found")
	found, err = repo.MarkRead(ctx, uuid.New(), time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, found)

	unread, err := repo.Page(ctx, Filter{UnreadOnly: true}, nil, 10)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, sys.ID, unread[0].ID)

	typed, err := repo.Page(ctx, Filter{Type: enums.NotificationTypeLowStock}, nil, 10)
	require.NoError(t, err)
	require.Len(t, typed, 1)
	assert.Equal(t, low.ID, typed[0].ID)

	updated, err := repo.MarkAllRead(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)
}

func TestRepositoryDeleteReadBefore(t *testing.T) {
	db := testsupport.OpenDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	old := &models.Notification{Type: enums.NotificationTypeSystem, Message: "old"}
	fresh := &models.Notification{Type: enums.NotificationTypeSystem, Message: "fresh"}
	unread := &models.Notification{Type: enums.NotificationTypeSystem, Message: "unread"}
	for _, n := range []*models.Notification{old, fresh, unread} {
		require.NoError(t, repo.Create(ctx, n))
	}
	_, err := repo.MarkRead(ctx, old.ID, now.Add(-48*time.Hour))
	require.NoError(t, err)
	_, err = repo.MarkRead(ctx, fresh.ID, now)
	require.NoError(t, err)

	deleted, err := repo.DeleteReadBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Equal(t, int64(2), testsupport.Count(t, db, &models.Notification{}, ""))
}
