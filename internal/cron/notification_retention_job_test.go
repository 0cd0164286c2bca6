package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/autoshop-backend/pkg/logger"
)

type recordingPurger struct {
	cutoffs []time.Time
	deleted int64
	err     error
}

func (p *recordingPurger) DeleteReadBefore(_ context.Context, cutoff time.Time) (int64, error) {
	p.cutoffs = append(p.cutoffs, cutoff)
	return p.deleted, p.err
}

func retentionJob(t *testing.T, p *recordingPurger, retention time.Duration, now time.Time) *notificationRetentionJob {
	t.Helper()
	job, err := NewNotificationRetentionJob(logger.New(logger.Options{Output: io.Discard}), p, retention)
	require.NoError(t, err)
	impl := job.(*notificationRetentionJob)
	impl.clock = func() time.Time { return now }
	return impl
}

func TestNotificationRetentionCutoff(t *testing.T) {
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	cases := map[string]struct {
		retention time.Duration
		want      time.Time
	}{
		"default":  {0, now.Add(-defaultNotificationRetention)},
		"negative": {-time.Hour, now.Add(-defaultNotificationRetention)},
		"one week": {7 * 24 * time.Hour, time.Date(2026, 3, 24, 12, 0, 0, 0, time.UTC)},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			p := &recordingPurger{deleted: 4}
			require.NoError(t, retentionJob(t, p, tc.retention, now).Run(context.Background()))
			require.Len(t, p.cutoffs, 1)
			assert.True(t, tc.want.Equal(p.cutoffs[0]), "cutoff %s", p.cutoffs[0])
		})
	}
}

func TestNotificationRetentionWrapsErrors(t *testing.T) {
	boom := errors.New("boom")
	p := &recordingPurger{err: boom}
	err := retentionJob(t, p, 0, time.Now()).Run(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestNewNotificationRetentionJobRequiresDeps(t *testing.T) {
	_, err := NewNotificationRetentionJob(nil, &recordingPurger{}, 0)
	assert.Error(t, err)
	_, err = NewNotificationRetentionJob(logger.New(logger.Options{Output: io.Discard}), nil, 0)
	assert.Error(t, err)
}
