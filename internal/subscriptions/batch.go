package subscriptions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/Kiran3100/Hostel-Main-sub019/pkg/dates"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db/models"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/enums"
	pkgerrors "github.com/Kiran3100/Hostel-Main-sub019/pkg/errors"
)

// ProcessEndOfTerm settles active subscriptions whose end date has passed.
// Auto-renewing ones are renewed, scheduled cancellations take effect and the
// rest expire. Failures are collected per subscription.
func (s *service) ProcessEndOfTerm(ctx context.Context, limit int) (EndOfTermResult, error) {
	var result EndOfTermResult
	subs, err := s.repo.ListActivePastEnd(ctx, s.today(), limit)
	if err != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subscriptions past end date")
	}

	var errs error
	for _, sub := range subs {
		var outcome enums.HistoryChangeType
		_, err := s.mutate(ctx, sub.ID, uuid.Nil, func(tx *gorm.DB, current *models.Subscription) (*change, error) {
			ch, err := s.settleTerm(ctx, tx, current)
			if ch != nil {
				outcome = ch.changeType
			}
			return ch, err
		})
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		switch outcome {
		case enums.HistoryChangeTypeRenewed:
			result.Renewed++
		case enums.HistoryChangeTypeCancelled:
			result.Cancelled++
		default:
			result.Expired++
		}
	}
	return result, errs
}

func (s *service) settleTerm(ctx context.Context, tx *gorm.DB, sub *models.Subscription) (*change, error) {
	if sub.AutoRenew {
		return s.renew(ctx, tx, sub, nil)
	}
	record, err := s.repo.WithTx(tx).FindCancellation(ctx, sub.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cancellation")
	}
	if record != nil && !record.CancelImmediately {
		sub.Status = enums.SubscriptionStatusCancelled
		sub.IsTrial = false
		sub.NextBillingDate = nil
		return &change{
			changeType: enums.HistoryChangeTypeCancelled,
			oldValue:   string(enums.SubscriptionStatusActive),
			newValue:   string(sub.Status),
			reason:     derefString(record.Reason),
			metadata:   map[string]any{"effective_date": record.EffectiveDate.Format(dates.Layout), "immediate": false},
		}, nil
	}
	return s.expire(sub)
}

// EndElapsedTrials clears the trial flag on subscriptions whose trial window has passed.
func (s *service) EndElapsedTrials(ctx context.Context, limit int) (int, error) {
	subs, err := s.repo.ListElapsedTrials(ctx, s.today(), limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list elapsed trials")
	}
	var (
		ended int
		errs  error
	)
	for _, sub := range subs {
		if _, err := s.EndTrial(ctx, sub.ID, uuid.Nil); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		ended++
	}
	return ended, errs
}

func (s *service) ListTrialsEndingOn(ctx context.Context, date time.Time, limit int) ([]models.Subscription, error) {
	subs, err := s.repo.ListTrialsEndingOn(ctx, dates.Date(date), limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list trials ending")
	}
	return subs, nil
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
