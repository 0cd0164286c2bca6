package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/autoshop-backend/pkg/logger"
	"github.com/angelmondragon/autoshop-backend/pkg/metrics"
)

const defaultInterval = 6 * time.Hour

// Job is one maintenance task. Run must be safe to repeat.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type ServiceParams struct {
	Logger   *logger.Logger
	Jobs     []Job
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
}

// Service runs its jobs in order once per interval. The lock keeps a cycle
// exclusive across worker replicas of one environment.
type Service struct {
	logg     *logger.Logger
	jobs     []Job
	lock     Lock
	metrics  *metrics.CronJobMetrics
	interval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	jobs := make([]Job, 0, len(params.Jobs))
	names := make(map[string]struct{}, len(params.Jobs))
	for _, job := range params.Jobs {
		if job == nil {
			continue
		}
		if _, dup := names[job.Name()]; dup {
			return nil, fmt.Errorf("job %q registered twice", job.Name())
		}
		names[job.Name()] = struct{}{}
		jobs = append(jobs, job)
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:     params.Logger,
		jobs:     jobs,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: interval,
	}, nil
}

// Run executes a cycle immediately and then on every tick until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logg.Error(ctx, "maintenance.cycle_failed", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce runs every job a single time under the lock. It reports false when
// another worker held the lock. Job failures do not stop later jobs; they are
// returned combined.
func (s *Service) RunOnce(ctx context.Context) (bool, error) {
	acquired, err := s.lock.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire maintenance lock: %w", err)
	}
	if !acquired {
		s.logg.Info(ctx, "maintenance.cycle_skipped")
		return false, nil
	}
	defer func() {
		if err := s.lock.Release(ctx); err != nil {
			s.logg.Error(ctx, "maintenance.lock_release_failed", err)
		}
	}()

	var errs error
	for _, job := range s.jobs {
		errs = multierr.Append(errs, s.runJob(ctx, job))
	}
	return true, errs
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	ctx = s.logg.WithField(ctx, "job", job.Name())
	start := time.Now()
	err := job.Run(ctx)
	elapsed := time.Since(start)

	s.metrics.ObserveRun(job.Name(), elapsed, err)
	ctx = s.logg.WithField(ctx, "duration_ms", elapsed.Milliseconds())
	if err != nil {
		s.logg.Error(ctx, "maintenance.job_failed", err)
		return fmt.Errorf("%s: %w", job.Name(), err)
	}
	s.logg.Info(ctx, "maintenance.job_done")
	return nil
}
