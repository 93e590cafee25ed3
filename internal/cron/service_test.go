package cron

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Kiran3100/Hostel-Main-sub019/pkg/logger"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/metrics"
)

type fakeLock struct {
	acquired bool
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquired {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error { f.acquired = false; return nil }

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func TestServiceRunOnceRunsAllJobsEvenOnFailure(t *testing.T) {
	success := &testJob{name: "success"}
	failure := &testJob{name: "fail", err: errors.New("boom")}
	last := &testJob{name: "last"}
	reg := prometheus.NewRegistry()
	lock := &fakeLock{}
	service, err := NewService(ServiceParams{
		Logger:   quietLogger(),
		Registry: NewRegistry(success, failure, last),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(reg),
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	report, err := service.RunOnce(context.Background())
	if err == nil || !strings.Contains(err.Error(), "fail: boom") {
		t.Fatalf("expected combined job error, got %v", err)
	}
	if success.runs != 1 || failure.runs != 1 || last.runs != 1 {
		t.Fatalf("expected every job to run once, got %d %d %d", success.runs, failure.runs, last.runs)
	}
	if len(report.Succeeded) != 2 || len(report.Failed) != 1 || report.Failed[0] != "fail" {
		t.Fatalf("unexpected report %+v", report)
	}
	if lock.acquired {
		t.Fatal("lock must be released after the cycle")
	}

	if got := jobCounter(t, reg, "hostel_billing_job_failure_total", "fail"); got != 1 {
		t.Fatalf("expected one failure for fail job, got %v", got)
	}
	if got := jobCounter(t, reg, "hostel_billing_job_success_total", "success"); got != 1 {
		t.Fatalf("expected one success for success job, got %v", got)
	}
}

func TestServiceRunJobSelectsByName(t *testing.T) {
	invoicing := &testJob{name: "billing-cycle-invoicing"}
	overdue := &testJob{name: "invoice-overdue"}
	service, err := NewService(ServiceParams{
		Logger:   quietLogger(),
		Registry: NewRegistry(invoicing, overdue),
		Lock:     &fakeLock{},
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	if _, err := service.RunJob(context.Background(), "invoice-overdue"); err != nil {
		t.Fatalf("run job: %v", err)
	}
	if overdue.runs != 1 || invoicing.runs != 0 {
		t.Fatalf("expected only the named job to run, got %d %d", overdue.runs, invoicing.runs)
	}
	if _, err := service.RunJob(context.Background(), "nope"); !errors.Is(err, ErrUnknownJob) {
		t.Fatalf("expected ErrUnknownJob, got %v", err)
	}
}

type slowJob struct{ deadline bool }

func (s *slowJob) Name() string { return "slow" }

func (s *slowJob) Run(ctx context.Context) error {
	_, s.deadline = ctx.Deadline()
	return nil
}

func TestServiceAppliesJobTimeout(t *testing.T) {
	job := &slowJob{}
	service, err := NewService(ServiceParams{
		Logger:     quietLogger(),
		Registry:   NewRegistry(job),
		Lock:       &fakeLock{},
		JobTimeout: time.Minute,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if _, err := service.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if !job.deadline {
		t.Fatal("expected the job context to carry a deadline")
	}
}

func TestServiceSkipsCycleWhenLockHeld(t *testing.T) {
	job := &testJob{name: "held"}
	service, err := NewService(ServiceParams{
		Logger:   quietLogger(),
		Registry: NewRegistry(job),
		Lock:     &fakeLock{acquired: true},
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	report, err := service.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if !report.Skipped || job.runs != 0 {
		t.Fatalf("expected job skipped while lock is held, ran %d", job.runs)
	}
}

func TestServiceRunStopsOnCancel(t *testing.T) {
	job := &testJob{name: "tick"}
	service, err := NewService(ServiceParams{
		Logger:   quietLogger(),
		Registry: NewRegistry(job),
		Lock:     &fakeLock{},
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := service.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected no jobs after cancellation, ran %d", job.runs)
	}
}

func jobCounter(t *testing.T, reg *prometheus.Registry, name, job string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "job" && label.GetValue() == job {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

type expiringLock struct {
	fakeLock
	extends int
}

func (e *expiringLock) Extend(context.Context) error {
	e.extends++
	return ErrLockLost
}

func TestServiceStopsWhenLeaseCannotBeExtended(t *testing.T) {
	first := &testJob{name: "first"}
	second := &testJob{name: "second"}
	lock := &expiringLock{}
	service, err := NewService(ServiceParams{
		Logger:   quietLogger(),
		Registry: NewRegistry(first, second),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	report, err := service.RunOnce(context.Background())
	if !errors.Is(err, ErrLockLost) {
		t.Fatalf("expected ErrLockLost, got %v", err)
	}
	if first.runs != 1 || second.runs != 0 || lock.extends != 1 {
		t.Fatalf("unexpected runs first=%d second=%d extends=%d", first.runs, second.runs, lock.extends)
	}
	if len(report.Succeeded) != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
}
