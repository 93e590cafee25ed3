package cron

import (
	"context"
	"fmt"

	"github.com/Kiran3100/Hostel-Main-sub019/pkg/logger"
)

type cycleRefresher interface {
	RefreshStored(ctx context.Context) (int64, error)
}

// NewCycleRefreshJob builds the job that persists recomputed days_until_billing.
func NewCycleRefreshJob(logg *logger.Logger, cycles cycleRefresher) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cycles == nil {
		return nil, fmt.Errorf("billing cycle service required")
	}
	return &cycleRefreshJob{logg: logg, cycles: cycles}, nil
}

type cycleRefreshJob struct {
	logg   *logger.Logger
	cycles cycleRefresher
}

func (j *cycleRefreshJob) Name() string { return "billing-cycle-refresh" }

func (j *cycleRefreshJob) Run(ctx context.Context) error {
	updated, err := j.cycles.RefreshStored(ctx)
	if err != nil {
		return fmt.Errorf("refresh billing cycles: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "rows_updated", updated), "billing cycles refreshed")
	return nil
}
