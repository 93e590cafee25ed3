package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Kiran3100/Hostel-Main-sub019/pkg/dates"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/enums"
	pkgerrors "github.com/Kiran3100/Hostel-Main-sub019/pkg/errors"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/money"
)

// Service provides read-only billing KPIs. It never writes.
type Service interface {
	// Summary reports revenue, churn and collection for [start, end].
	Summary(ctx context.Context, start, end time.Time) (*Summary, error)
	// SubscriptionHealth scores one subscription.
	SubscriptionHealth(ctx context.Context, subscriptionID uuid.UUID) (*Health, error)
}

// Summary is the platform billing dashboard for one period.
type Summary struct {
	PeriodStart              time.Time       `json:"period_start"`
	PeriodEnd                time.Time       `json:"period_end"`
	ActiveSubscriptions      int             `json:"active_subscriptions"`
	NewSubscriptions         int64           `json:"new_subscriptions"`
	CancelledSubscriptions   int64           `json:"cancelled_subscriptions"`
	MRR                      decimal.Decimal `json:"mrr"`
	ARR                      decimal.Decimal `json:"arr"`
	ChurnRate                decimal.Decimal `json:"churn_rate"`
	Invoiced                 decimal.Decimal `json:"invoiced"`
	Collected                decimal.Decimal `json:"collected"`
	InvoiceCollectionRate    decimal.Decimal `json:"invoice_collection_rate"`
	CommissionDue            decimal.Decimal `json:"commission_due"`
	CommissionPaid           decimal.Decimal `json:"commission_paid"`
	CommissionCollectionRate decimal.Decimal `json:"commission_collection_rate"`
}

// Health is the scored state of one subscription.
type Health struct {
	SubscriptionID        uuid.UUID                `json:"subscription_id"`
	Status                enums.SubscriptionStatus `json:"status"`
	Score                 int                      `json:"score"`
	DaysUntilEnd          int                      `json:"days_until_end"`
	OverdueInvoices       int                      `json:"overdue_invoices"`
	InvoiceCollectionRate decimal.Decimal          `json:"invoice_collection_rate"`
	ExceededLimits        int                      `json:"exceeded_limits"`
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds an analytics service over the read model.
func NewService(repo Repository, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("analytics repo required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, now: now}, nil
}

func (s *service) Summary(ctx context.Context, start, end time.Time) (*Summary, error) {
	if start.IsZero() || end.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "period start and end are required")
	}
	start, end = dates.Date(start), dates.Date(end)
	if end.Before(start) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "period end must not precede period start")
	}
	next := dates.AddDays(end, 1)

	active, err := s.repo.ActiveSubscriptions(ctx)
	if err != nil {
		return nil, dependency(err, "list active subscriptions")
	}
	activeAtStart, err := s.repo.CountActiveAt(ctx, start)
	if err != nil {
		return nil, dependency(err, "count active subscriptions")
	}
	created, err := s.repo.CountCreatedBetween(ctx, start, end)
	if err != nil {
		return nil, dependency(err, "count new subscriptions")
	}
	cancelled, err := s.repo.CountCancelledBetween(ctx, start, next)
	if err != nil {
		return nil, dependency(err, "count cancellations")
	}
	invoices, err := s.repo.InvoicesBetween(ctx, start, end)
	if err != nil {
		return nil, dependency(err, "list invoices")
	}
	commissionPaid, commissionDue, err := s.repo.CommissionTotals(ctx, start, next)
	if err != nil {
		return nil, dependency(err, "total commissions")
	}

	mrr := MRR(active)
	collected, invoiced := InvoiceTotals(invoices)
	return &Summary{
		PeriodStart:              start,
		PeriodEnd:                end,
		ActiveSubscriptions:      len(active),
		NewSubscriptions:         created,
		CancelledSubscriptions:   cancelled,
		MRR:                      mrr,
		ARR:                      ARR(mrr),
		ChurnRate:                ChurnRate(cancelled, activeAtStart),
		Invoiced:                 money.Round(invoiced),
		Collected:                money.Round(collected),
		InvoiceCollectionRate:    CollectionRate(collected, invoiced),
		CommissionDue:            money.Round(commissionDue),
		CommissionPaid:           money.Round(commissionPaid),
		CommissionCollectionRate: CollectionRate(commissionPaid, commissionDue),
	}, nil
}

func (s *service) SubscriptionHealth(ctx context.Context, subscriptionID uuid.UUID) (*Health, error) {
	if subscriptionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription id is required")
	}
	sub, err := s.repo.FindSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, dependency(err, "load subscription")
	}
	if sub == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
	}
	invoices, err := s.repo.SubscriptionInvoices(ctx, sub.ID)
	if err != nil {
		return nil, dependency(err, "list subscription invoices")
	}
	exceeded, err := s.repo.CountExceeded(ctx, sub.ID)
	if err != nil {
		return nil, dependency(err, "count exceeded limits")
	}

	overdue := 0
	for _, inv := range invoices {
		if inv.Status == enums.InvoiceStatusOverdue {
			overdue++
		}
	}
	_, billed := InvoiceTotals(invoices)
	health := &Health{
		SubscriptionID:        sub.ID,
		Status:                sub.Status,
		DaysUntilEnd:          dates.DaysBetween(dates.Date(s.now()), sub.EndDate),
		OverdueInvoices:       overdue,
		InvoiceCollectionRate: InvoiceCollectionRate(invoices),
		ExceededLimits:        int(exceeded),
	}
	health.Score = HealthScore(HealthInput{
		Status:          sub.Status,
		AutoRenew:       sub.AutoRenew,
		DaysUntilEnd:    health.DaysUntilEnd,
		Invoiced:        billed.IsPositive(),
		CollectionRate:  health.InvoiceCollectionRate,
		OverdueInvoices: overdue,
		ExceededLimits:  health.ExceededLimits,
	})
	return health, nil
}

func dependency(err error, msg string) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
