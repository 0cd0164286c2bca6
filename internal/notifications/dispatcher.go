package notifications

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/angelmondragon/autoshop-backend/pkg/db/models"
	"github.com/angelmondragon/autoshop-backend/pkg/logger"
)

// Sink delivers a stored notification to one recipient outside the database.
type Sink interface {
	Deliver(ctx context.Context, recipient string, notification models.Notification) error
}

// Dispatcher fans committed alerts out to the configured recipients. Delivery
// is best-effort: failures are logged and never reach the caller's workflow.
type Dispatcher struct {
	sink       Sink
	recipients []string
	logg       *logger.Logger
}

// NewDispatcher builds a dispatcher; a nil sink or empty recipient list turns
// delivery into a no-op.
func NewDispatcher(sink Sink, recipients []string, logg *logger.Logger) *Dispatcher {
	clean := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if r = strings.TrimSpace(r); r != "" {
			clean = append(clean, r)
		}
	}
	return &Dispatcher{sink: sink, recipients: clean, logg: logg}
}

// Deliver sends every notification to every recipient and returns the combined
// failures.
func (d *Dispatcher) Deliver(ctx context.Context, notes ...models.Notification) error {
	if d == nil || d.sink == nil || len(d.recipients) == 0 {
		return nil
	}
	var errs error
	for _, note := range notes {
		for _, recipient := range d.recipients {
			if err := d.sink.Deliver(ctx, recipient, note); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("deliver %s to %s: %w", note.ID, recipient, err))
			}
		}
	}
	return errs
}

// Notify delivers and swallows errors after logging them.
func (d *Dispatcher) Notify(ctx context.Context, notes ...models.Notification) {
	if d == nil || len(notes) == 0 {
		return
	}
	err := d.Deliver(ctx, notes...)
	if err == nil || d.logg == nil {
		return
	}
	failures := multierr.Errors(err)
	logCtx := d.logg.WithFields(ctx, map[string]any{
		"failed_deliveries": len(failures),
		"error":             err.Error(),
	})
	d.logg.Warn(logCtx, "notifications.delivery_failed")
}

// LogSink writes deliveries to the structured log. It stands in for an email
// gateway until one is configured.
type LogSink struct {
	From string
	Logg *logger.Logger
}

func (s LogSink) Deliver(ctx context.Context, recipient string, notification models.Notification) error {
	if s.Logg == nil {
		return fmt.Errorf("log sink has no logger")
	}
	logCtx := s.Logg.WithFields(ctx, map[string]any{
		"from":            s.From,
		"to":              recipient,
		"notification_id": notification.ID.String(),
		"type":            string(notification.Type),
		"message":         notification.Message,
	})
	s.Logg.Info(logCtx, "notifications.delivered")
	return nil
}
