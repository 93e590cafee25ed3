package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	pkgerrors "github.com/Kiran3100/Hostel-Main-sub019/pkg/errors"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/logger"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/metrics"
)

const defaultInterval = 15 * time.Minute

// ErrUnknownJob is returned by RunJob for names missing from the registry.
var ErrUnknownJob = errors.New("unknown billing job")

type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
	// JobTimeout bounds a single job. Zero leaves jobs bounded only by the run context.
	JobTimeout time.Duration
}

// Service runs the registered billing jobs on a fixed cadence. A cycle only
// runs on the replica holding the lock, and a failing job does not stop the
// jobs after it.
type Service struct {
	logg       *logger.Logger
	registry   *Registry
	lock       Lock
	metrics    *metrics.CronJobMetrics
	interval   time.Duration
	jobTimeout time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:       params.Logger,
		registry:   registry,
		lock:       params.Lock,
		metrics:    params.Metrics,
		interval:   interval,
		jobTimeout: params.JobTimeout,
	}, nil
}

// Run executes a cycle immediately and then every interval until ctx ends.
// Job failures are logged, never returned.
func (s *Service) Run(ctx context.Context) error {
	s.tick(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "billing scheduler stopping")
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Service) tick(ctx context.Context) {
	if _, err := s.runCycle(ctx, s.registry.Jobs()); err != nil {
		s.logg.Error(ctx, "billing cycle finished with errors", err)
	}
}

// RunOnce executes every job a single time. The returned error combines the
// failures of individual jobs.
func (s *Service) RunOnce(ctx context.Context) (RunReport, error) {
	return s.runCycle(ctx, s.registry.Jobs())
}

// RunJob executes one named job under the lock.
func (s *Service) RunJob(ctx context.Context, name string) (RunReport, error) {
	job, ok := s.registry.Lookup(name)
	if !ok {
		return RunReport{}, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.runCycle(ctx, []Job{job})
}

// RunReport summarizes one cycle. Skipped is set when another replica held the lock.
type RunReport struct {
	Skipped   bool
	Succeeded []string
	Failed    []string
}

func (s *Service) runCycle(ctx context.Context, jobs []Job) (RunReport, error) {
	var report RunReport
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return report, fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.logg.Info(ctx, "another billing worker holds the lock; skipping this cycle")
		s.metrics.IncSkipped()
		report.Skipped = true
		return report, nil
	}
	defer func() {
		if relErr := s.lock.Release(context.WithoutCancel(ctx)); relErr != nil {
			s.logg.Error(ctx, "failed to release billing lock", relErr)
		}
	}()

	start := time.Now()
	var errs error
	extender, _ := s.lock.(Extender)
	for i, job := range jobs {
		if ctx.Err() != nil {
			errs = multierr.Append(errs, ctx.Err())
			break
		}
		if extender != nil && i > 0 {
			if err := extender.Extend(ctx); err != nil {
				s.logg.Error(ctx, "billing lock lost mid-cycle; stopping", err)
				errs = multierr.Append(errs, fmt.Errorf("extend lock: %w", err))
				break
			}
		}
		if err := s.runJob(ctx, job); err != nil {
			report.Failed = append(report.Failed, job.Name())
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", job.Name(), err))
			continue
		}
		report.Succeeded = append(report.Succeeded, job.Name())
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"succeeded":   len(report.Succeeded),
		"failed":      len(report.Failed),
		"duration_ms": time.Since(start).Milliseconds(),
	}), "billing cycle complete")
	return report, errs
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	name := job.Name()
	jobCtx := s.logg.WithFields(ctx, map[string]any{"job": name, "event": "cron.job"})
	if s.jobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(jobCtx, s.jobTimeout)
		defer cancel()
	}

	s.logg.Debug(jobCtx, "job start")
	start := time.Now()
	err := job.Run(jobCtx)
	duration := time.Since(start)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())

	if s.metrics != nil {
		s.metrics.ObserveDuration(name, duration)
		if err != nil {
			s.metrics.IncFailure(name)
		} else {
			s.metrics.IncSuccess(name)
		}
	}
	if err != nil {
		s.logg.Error(s.logg.WithFields(jobCtx, map[string]any{
			"error_code": string(pkgerrors.CodeOf(err)),
			"retryable":  pkgerrors.IsRetryable(err),
		}), "job failed", err)
		return err
	}
	s.logg.Info(jobCtx, "job completed")
	return nil
}
