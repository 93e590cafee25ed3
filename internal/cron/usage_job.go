package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/Kiran3100/Hostel-Main-sub019/internal/usage"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db/models"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/logger"
)

type cycleStartLister interface {
	ListStartingToday(ctx context.Context, after uuid.UUID, limit int) ([]models.BillingCycle, error)
}

type usageMaintainer interface {
	Rollover(ctx context.Context, subscriptionID uuid.UUID, window usage.Window) (int64, error)
	RecalculateExceeded(ctx context.Context) (int64, error)
}

// UsageJobParams configures the usage maintenance job.
type UsageJobParams struct {
	Logger    *logger.Logger
	Cycles    cycleStartLister
	Usage     usageMaintainer
	BatchSize int
}

// NewUsageJob builds the job that rolls feature counters over when a billing
// cycle starts and re-derives the exceeded flags. Counters already in the new
// window are left alone, so repeated runs on the same day keep recorded usage.
func NewUsageJob(params UsageJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Cycles == nil {
		return nil, fmt.Errorf("billing cycle service required")
	}
	if params.Usage == nil {
		return nil, fmt.Errorf("usage service required")
	}
	return &usageJob{
		logg:   params.Logger,
		cycles: params.Cycles,
		usage:  params.Usage,
		limit:  batchSize(params.BatchSize),
	}, nil
}

type usageJob struct {
	logg   *logger.Logger
	cycles cycleStartLister
	usage  usageMaintainer
	limit  int
}

func (j *usageJob) Name() string { return "usage-maintenance" }

func (j *usageJob) Run(ctx context.Context) error {
	var (
		errs    error
		started int
		rolled  int64
		after   uuid.UUID
	)
	for {
		cycles, err := j.cycles.ListStartingToday(ctx, after, j.limit)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("list cycles starting today: %w", err))
			break
		}
		for _, cycle := range cycles {
			window := usage.Window{Start: cycle.CycleStart, End: cycle.CycleEnd}
			reset, err := j.usage.Rollover(ctx, cycle.SubscriptionID, window)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("subscription %s: %w", cycle.SubscriptionID, err))
				continue
			}
			rolled += reset
		}
		started += len(cycles)
		if len(cycles) < j.limit {
			break
		}
		after = cycles[len(cycles)-1].ID
	}

	changed, err := j.usage.RecalculateExceeded(ctx)
	errs = multierr.Append(errs, err)

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cycles_started":   started,
		"counters_reset":   rolled,
		"exceeded_changes": changed,
	})
	j.logg.Info(logCtx, "usage maintenance complete")
	return errs
}
