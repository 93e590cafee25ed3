package billingcycles

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Kiran3100/Hostel-Main-sub019/pkg/dates"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db/models"
	pkgerrors "github.com/Kiran3100/Hostel-Main-sub019/pkg/errors"
)

// Service materializes generator output and serves cycles with a fresh
// days_until_billing on every read.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds the billing cycle service.
func NewService(repo Repository, now func() time.Time) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("billing cycle repo required")
	}
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, now: now}, nil
}

// Repo exposes the underlying repository, optionally bound to tx.
func (s *Service) Repo(tx *gorm.DB) Repository {
	return s.repo.WithTx(tx)
}

func (s *Service) today() time.Time {
	return dates.Date(s.now())
}

// TrialDays returns the trial length recorded on the subscription.
func TrialDays(sub *models.Subscription) int {
	if !sub.IsTrial || sub.TrialEndDate == nil {
		return 0
	}
	return dates.DaysBetween(sub.StartDate, *sub.TrialEndDate) + 1
}

// Materialize generates and persists cycles covering [from, sub.EndDate] at amount.
func (s *Service) Materialize(ctx context.Context, tx *gorm.DB, sub *models.Subscription, from time.Time, amount decimal.Decimal) ([]models.BillingCycle, error) {
	repo := s.repo.WithTx(tx)
	existing, err := repo.ListBySubscription(ctx, sub.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list billing cycles")
	}
	nextSeq := 1
	if n := len(existing); n > 0 {
		nextSeq = existing[n-1].CycleNumber + 1
	}

	drafts, err := Generate(GenerateParams{
		Start:         from,
		End:           sub.EndDate,
		Cadence:       sub.BillingCadence,
		Amount:        amount,
		TrialStart:    sub.StartDate,
		TrialDays:     TrialDays(sub),
		FirstCycleSeq: nextSeq,
	})
	if err != nil {
		return nil, err
	}

	today := s.today()
	cycles := make([]models.BillingCycle, 0, len(drafts))
	for _, d := range drafts {
		cycles = append(cycles, models.BillingCycle{
			SubscriptionID:     sub.ID,
			HostelID:           sub.HostelID,
			CycleNumber:        d.Number,
			CycleStart:         d.Start,
			CycleEnd:           d.End,
			Amount:             d.Amount,
			Currency:           sub.Currency,
			NextBillingDate:    d.NextBillingDate,
			DaysUntilBilling:   DaysUntilBilling(d.NextBillingDate, today),
			IsInTrial:          d.IsInTrial,
			TrialDaysRemaining: d.TrialDaysRemaining,
		})
	}
	if err := repo.CreateBatch(ctx, cycles); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create billing cycles")
	}
	return cycles, nil
}

// Regenerate drops unbilled cycles starting after cutoff and rebuilds the
// remainder of the subscription span at amount. It returns the full cycle list.
func (s *Service) Regenerate(ctx context.Context, tx *gorm.DB, sub *models.Subscription, cutoff time.Time, amount decimal.Decimal) ([]models.BillingCycle, error) {
	repo := s.repo.WithTx(tx)
	if _, err := repo.DeleteUnbilledAfter(ctx, sub.ID, cutoff); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete future billing cycles")
	}
	kept, err := repo.ListBySubscription(ctx, sub.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list billing cycles")
	}
	from := sub.StartDate
	if n := len(kept); n > 0 {
		from = dates.AddDays(kept[n-1].CycleEnd, 1)
	}
	if from.After(sub.EndDate) {
		return kept, nil
	}
	if _, err := s.Materialize(ctx, tx, sub, from, amount); err != nil {
		return nil, err
	}
	return repo.ListBySubscription(ctx, sub.ID)
}

// Truncate drops unbilled cycles that start after the given date.
func (s *Service) Truncate(ctx context.Context, tx *gorm.DB, subscriptionID uuid.UUID, after time.Time) error {
	if _, err := s.repo.WithTx(tx).DeleteUnbilledAfter(ctx, subscriptionID, after); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete future billing cycles")
	}
	return nil
}

// ListForSubscription returns the subscription's cycles in order.
func (s *Service) ListForSubscription(ctx context.Context, subscriptionID uuid.UUID) ([]models.BillingCycle, error) {
	cycles, err := s.repo.ListBySubscription(ctx, subscriptionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list billing cycles")
	}
	return s.refresh(cycles), nil
}

// ListDue returns cycles ready to invoice today.
func (s *Service) ListDue(ctx context.Context, limit int) ([]models.BillingCycle, error) {
	cycles, err := s.repo.ListDue(ctx, s.today(), limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list due billing cycles")
	}
	return s.refresh(cycles), nil
}

// ListDueWithin returns unbilled cycles starting within the next days days.
func (s *Service) ListDueWithin(ctx context.Context, days, limit int) ([]models.BillingCycle, error) {
	cycles, err := s.repo.ListDueWithin(ctx, s.today(), days, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list upcoming billing cycles")
	}
	return s.refresh(cycles), nil
}

// ListStartingToday returns one page of cycles of active subscriptions that begin today,
// ordered by id and starting after the given cycle id.
func (s *Service) ListStartingToday(ctx context.Context, after uuid.UUID, limit int) ([]models.BillingCycle, error) {
	cycles, err := s.repo.ListStartingOn(ctx, s.today(), after, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cycles starting today")
	}
	return s.refresh(cycles), nil
}

// RefreshStored persists the recomputed days_until_billing.
func (s *Service) RefreshStored(ctx context.Context) (int64, error) {
	updated, err := s.repo.RefreshDaysUntilBilling(ctx, s.today())
	if err != nil {
		return updated, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh days until billing")
	}
	return updated, nil
}

func (s *Service) refresh(cycles []models.BillingCycle) []models.BillingCycle {
	today := s.today()
	for i := range cycles {
		cycles[i].DaysUntilBilling = DaysUntilBilling(cycles[i].NextBillingDate, today)
	}
	return cycles
}

// NextBillingDate is the start of the earliest unbilled cycle, or the day
// after the last cycle once every cycle has been billed.
func NextBillingDate(cycles []models.BillingCycle) *time.Time {
	if len(cycles) == 0 {
		return nil
	}
	for _, c := range cycles {
		if !c.IsBilled {
			next := c.CycleStart
			return &next
		}
	}
	next := cycles[len(cycles)-1].NextBillingDate
	return &next
}
