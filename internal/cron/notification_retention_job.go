package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/autoshop-backend/pkg/logger"
)

const defaultNotificationRetention = 30 * 24 * time.Hour

type readNotificationPurger interface {
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// notificationRetentionJob deletes notifications acknowledged longer than
// retention ago. Unread alerts are left alone.
type notificationRetentionJob struct {
	logg      *logger.Logger
	purger    readNotificationPurger
	retention time.Duration
	clock     func() time.Time
}

// NewNotificationRetentionJob falls back to a 30 day retention when retention
// is not positive.
func NewNotificationRetentionJob(logg *logger.Logger, purger readNotificationPurger, retention time.Duration) (Job, error) {
	switch {
	case logg == nil:
		return nil, fmt.Errorf("logger required")
	case purger == nil:
		return nil, fmt.Errorf("notification purger required")
	}
	if retention <= 0 {
		retention = defaultNotificationRetention
	}
	return &notificationRetentionJob{logg: logg, purger: purger, retention: retention, clock: time.Now}, nil
}

func (j *notificationRetentionJob) Name() string { return "notification-retention" }

func (j *notificationRetentionJob) Run(ctx context.Context) error {
	cutoff := j.clock().UTC().Add(-j.retention)
	n, err := j.purger.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge read notifications before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	if n == 0 {
		return nil
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff.Format(time.RFC3339),
		"deleted": n,
	}), "maintenance.notifications_purged")
	return nil
}
