package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/Kiran3100/Hostel-Main-sub019/internal/subscriptions"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/dates"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db/models"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/logger"
)

type termProcessor interface {
	ProcessEndOfTerm(ctx context.Context, limit int) (subscriptions.EndOfTermResult, error)
	EndElapsedTrials(ctx context.Context, limit int) (int, error)
	ListTrialsEndingOn(ctx context.Context, date time.Time, limit int) ([]models.Subscription, error)
}

// EndOfTermJobParams configures the subscription end-of-term job.
type EndOfTermJobParams struct {
	Logger         *logger.Logger
	Subscriptions  termProcessor
	TrialAlertDays []int
	BatchSize      int
	Now            func() time.Time
}

// NewEndOfTermJob builds the job that renews, cancels or expires subscriptions
// past their end date and closes elapsed trials.
func NewEndOfTermJob(params EndOfTermJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscription service required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &endOfTermJob{
		logg:      params.Logger,
		subs:      params.Subscriptions,
		alertDays: append([]int(nil), params.TrialAlertDays...),
		limit:     batchSize(params.BatchSize),
		now:       now,
	}, nil
}

type endOfTermJob struct {
	logg      *logger.Logger
	subs      termProcessor
	alertDays []int
	limit     int
	now       func() time.Time
}

func (j *endOfTermJob) Name() string { return "subscription-end-of-term" }

func (j *endOfTermJob) Run(ctx context.Context) error {
	var errs error

	result, err := j.subs.ProcessEndOfTerm(ctx, j.limit)
	errs = multierr.Append(errs, err)
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"renewed":   result.Renewed,
		"cancelled": result.Cancelled,
		"expired":   result.Expired,
	}), "end of term processed")

	ended, err := j.subs.EndElapsedTrials(ctx, j.limit)
	errs = multierr.Append(errs, err)
	j.logg.Info(j.logg.WithField(ctx, "trials_ended", ended), "elapsed trials ended")

	errs = multierr.Append(errs, j.alertTrials(ctx))
	return errs
}

// alertTrials logs one warning per subscription whose trial ends in exactly
// one of the configured day offsets.
func (j *endOfTermJob) alertTrials(ctx context.Context) error {
	today := dates.Date(j.now())
	var errs error
	for _, days := range j.alertDays {
		endDate := dates.AddDays(today, days)
		subs, err := j.subs.ListTrialsEndingOn(ctx, endDate, j.limit)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("trials ending %s: %w", endDate.Format(dates.Layout), err))
			continue
		}
		for _, sub := range subs {
			logCtx := j.logg.WithFields(ctx, map[string]any{
				"subscription_id": sub.ID.String(),
				"hostel_id":       sub.HostelID.String(),
				"trial_end_date":  endDate.Format(dates.Layout),
				"days_remaining":  days,
			})
			j.logg.Warn(logCtx, "trial ending soon")
		}
	}
	return errs
}
