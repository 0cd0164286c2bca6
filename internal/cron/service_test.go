package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/angelmondragon/autoshop-backend/pkg/logger"
	"github.com/angelmondragon/autoshop-backend/pkg/metrics"
)

var quietLogger = logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})

type fakeLock struct {
	held     bool
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	f.releases++
	return nil
}

type countingJob struct {
	name string
	err  error
	runs int
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(context.Context) error {
	j.runs++
	return j.err
}

func TestRunOnceRunsEveryJobAndCombinesFailures(t *testing.T) {
	first := &countingJob{name: "notification-retention", err: errors.New("db timeout")}
	second := &countingJob{name: "stock-reconcile"}
	lock := &fakeLock{}
	service, err := NewService(ServiceParams{
		Logger:  quietLogger,
		Jobs:    []Job{first, nil, second},
		Lock:    lock,
		Metrics: metrics.NewCronJobMetrics(prometheus.NewRegistry()),
	})
	require.NoError(t, err)

	ran, err := service.RunOnce(context.Background())

	assert.True(t, ran)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 1)
	assert.Contains(t, err.Error(), "notification-retention")
	assert.Equal(t, 1, first.runs)
	assert.Equal(t, 1, second.runs)
	assert.Equal(t, 1, lock.releases)
	assert.False(t, lock.held)
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	job := &countingJob{name: "stock-reconcile"}
	lock := &fakeLock{held: true}
	service, err := NewService(ServiceParams{Logger: quietLogger, Jobs: []Job{job}, Lock: lock})
	require.NoError(t, err)

	ran, err := service.RunOnce(context.Background())

	require.NoError(t, err)
	assert.False(t, ran)
	assert.Zero(t, job.runs)
	assert.Zero(t, lock.releases)
}

func TestRunStopsOnCancel(t *testing.T) {
	job := &countingJob{name: "stock-reconcile"}
	service, err := NewService(ServiceParams{Logger: quietLogger, Jobs: []Job{job}, Lock: &fakeLock{}, Interval: time.Hour})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, service.Run(ctx), context.Canceled)
	assert.Equal(t, 1, job.runs)
}

func TestNewServiceRejectsDuplicateJobs(t *testing.T) {
	_, err := NewService(ServiceParams{
		Logger: quietLogger,
		Lock:   &fakeLock{},
		Jobs:   []Job{&countingJob{name: "a"}, &countingJob{name: "a"}},
	})
	assert.Error(t, err)

	_, err = NewService(ServiceParams{Logger: quietLogger})
	assert.Error(t, err)
}
