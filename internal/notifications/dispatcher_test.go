package notifications

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/angelmondragon/autoshop-backend/pkg/db/models"
	"github.com/angelmondragon/autoshop-backend/pkg/enums"
	"github.com/angelmondragon/autoshop-backend/pkg/logger"
)

type recordingSink struct {
	failFor   map[string]bool
	delivered []string
}

func (s *recordingSink) Deliver(ctx context.Context, recipient string, notification models.Notification) error {
	if s.failFor[recipient] {
		return errors.New("mailbox unavailable")
	}
	s.delivered = append(s.delivered, recipient+":"+notification.Message)
	return nil
}

func TestDispatcherDeliversToEveryRecipient(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, []string{"stock@shop.test", " ", "owner@shop.test"}, nil)

	err := d.Deliver(context.Background(),
		models.Notification{ID: uuid.New(), Type: enums.NotificationTypeLowStock, Message: "one"},
		models.Notification{ID: uuid.New(), Type: enums.NotificationTypeLowStock, Message: "two"},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"stock@shop.test:one", "owner@shop.test:one",
		"stock@shop.test:two", "owner@shop.test:two",
	}, sink.delivered)
}

func TestDispatcherAggregatesFailures(t *testing.T) {
	sink := &recordingSink{failFor: map[string]bool{"a@shop.test": true, "b@shop.test": true}}
	d := NewDispatcher(sink, []string{"a@shop.test", "b@shop.test", "c@shop.test"}, nil)

	err := d.Deliver(context.Background(), models.Notification{ID: uuid.New(), Message: "low"})
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Equal(t, []string{"c@shop.test:low"}, sink.delivered)
}

func TestDispatcherNotifySwallowsAndLogs(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})
	sink := &recordingSink{failFor: map[string]bool{"a@shop.test": true}}
	d := NewDispatcher(sink, []string{"a@shop.test"}, logg)

	d.Notify(context.Background(), models.Notification{ID: uuid.New(), Message: "low"})

	assert.True(t, strings.Contains(buf.String(), "notifications.delivery_failed"))
	assert.True(t, strings.Contains(buf.String(), `"failed_deliveries":1`))
}

func TestDispatcherNoopWithoutRecipients(t *testing.T) {
	var nilDispatcher *Dispatcher
	require.NoError(t, nilDispatcher.Deliver(context.Background(), models.Notification{}))
	require.NoError(t, NewDispatcher(&recordingSink{}, nil, nil).Deliver(context.Background(), models.Notification{}))
	require.NoError(t, NewDispatcher(nil, []string{"x@shop.test"}, nil).Deliver(context.Background(), models.Notification{}))
}

func TestLogSinkWritesDelivery(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})
	sink := LogSink{From: "stock@autoshop.local", Logg: logg}

	err := sink.Deliver(context.Background(), "owner@shop.test", models.Notification{ID: uuid.New(), Type: enums.NotificationTypeLowStock, Message: "Low stock"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "notifications.delivered")
	assert.Contains(t, buf.String(), "owner@shop.test")

	assert.Error(t, LogSink{}.Deliver(context.Background(), "x", models.Notification{}))
}
