package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Kiran3100/Hostel-Main-sub019/pkg/dates"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db/models"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/enums"
	pkgerrors "github.com/Kiran3100/Hostel-Main-sub019/pkg/errors"
)

type fakeRepository struct {
	active        []models.Subscription
	activeAtStart int64
	created       int64
	cancelled     int64
	invoices      []models.Invoice
	commissionPd  decimal.Decimal
	commissionDue decimal.Decimal
	subscription  *models.Subscription
	exceeded      int64
	err           error

	cancelledWindow [2]time.Time
}

func (f *fakeRepository) ActiveSubscriptions(context.Context) ([]models.Subscription, error) {
	return f.active, f.err
}

func (f *fakeRepository) CountActiveAt(context.Context, time.Time) (int64, error) {
	return f.activeAtStart, nil
}

func (f *fakeRepository) CountCreatedBetween(context.Context, time.Time, time.Time) (int64, error) {
	return f.created, nil
}

func (f *fakeRepository) CountCancelledBetween(_ context.Context, start, end time.Time) (int64, error) {
	f.cancelledWindow = [2]time.Time{start, end}
	return f.cancelled, nil
}

func (f *fakeRepository) InvoicesBetween(context.Context, time.Time, time.Time) ([]models.Invoice, error) {
	return f.invoices, nil
}

func (f *fakeRepository) CommissionTotals(context.Context, time.Time, time.Time) (decimal.Decimal, decimal.Decimal, error) {
	return f.commissionPd, f.commissionDue, nil
}

func (f *fakeRepository) FindSubscription(context.Context, uuid.UUID) (*models.Subscription, error) {
	return f.subscription, f.err
}

func (f *fakeRepository) SubscriptionInvoices(context.Context, uuid.UUID) ([]models.Invoice, error) {
	return f.invoices, nil
}

func (f *fakeRepository) CountExceeded(context.Context, uuid.UUID) (int64, error) {
	return f.exceeded, nil
}

func fixedNow() time.Time {
	return time.Date(2024, time.June, 20, 9, 0, 0, 0, time.UTC)
}

func TestSummaryAggregatesPeriod(t *testing.T) {
	repo := &fakeRepository{
		active: []models.Subscription{
			sub(enums.SubscriptionStatusActive, enums.BillingCadenceMonthly, "1000"),
			sub(enums.SubscriptionStatusActive, enums.BillingCadenceYearly, "24000"),
		},
		activeAtStart: 4,
		created:       1,
		cancelled:     1,
		invoices: []models.Invoice{
			{Status: enums.InvoiceStatusPaid, Amount: dec("1000"), AmountPaid: dec("1000")},
			{Status: enums.InvoiceStatusOverdue, Amount: dec("1000"), AmountPaid: decimal.Zero},
		},
		commissionPd:  dec("250"),
		commissionDue: dec("1000"),
	}
	svc, err := NewService(repo, fixedNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	start := dates.New(2024, time.June, 1)
	end := dates.New(2024, time.June, 30)
	summary, err := svc.Summary(context.Background(), start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !summary.MRR.Equal(dec("3000")) || !summary.ARR.Equal(dec("36000")) {
		t.Fatalf("unexpected revenue: mrr=%s arr=%s", summary.MRR, summary.ARR)
	}
	if !summary.ChurnRate.Equal(dec("25")) {
		t.Fatalf("expected churn 25, got %s", summary.ChurnRate)
	}
	if !summary.InvoiceCollectionRate.Equal(dec("50")) {
		t.Fatalf("expected invoice collection 50, got %s", summary.InvoiceCollectionRate)
	}
	if !summary.CommissionCollectionRate.Equal(dec("25")) {
		t.Fatalf("expected commission collection 25, got %s", summary.CommissionCollectionRate)
	}
	if summary.ActiveSubscriptions != 2 || summary.NewSubscriptions != 1 || summary.CancelledSubscriptions != 1 {
		t.Fatalf("unexpected counts: %+v", summary)
	}
	if !repo.cancelledWindow[1].Equal(dates.New(2024, time.July, 1)) {
		t.Fatalf("expected cancellation window to end after the period, got %v", repo.cancelledWindow[1])
	}
}

func TestSummaryHandlesEmptyData(t *testing.T) {
	svc, _ := NewService(&fakeRepository{}, fixedNow)
	summary, err := svc.Summary(context.Background(), dates.New(2024, time.June, 1), dates.New(2024, time.June, 30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !summary.MRR.IsZero() || !summary.ChurnRate.IsZero() || !summary.InvoiceCollectionRate.IsZero() {
		t.Fatalf("expected zero metrics, got %+v", summary)
	}
}

func TestSummaryValidatesPeriod(t *testing.T) {
	svc, _ := NewService(&fakeRepository{}, fixedNow)
	_, err := svc.Summary(context.Background(), dates.New(2024, time.June, 30), dates.New(2024, time.June, 1))
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSummaryWrapsRepositoryErrors(t *testing.T) {
	want := errors.New("db down")
	svc, _ := NewService(&fakeRepository{err: want}, fixedNow)
	_, err := svc.Summary(context.Background(), dates.New(2024, time.June, 1), dates.New(2024, time.June, 30))
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) || !errors.Is(err, want) {
		t.Fatalf("expected wrapped dependency error, got %v", err)
	}
}

func TestSubscriptionHealth(t *testing.T) {
	id := uuid.New()
	repo := &fakeRepository{
		subscription: &models.Subscription{
			ID:      id,
			Status:  enums.SubscriptionStatusActive,
			EndDate: dates.New(2024, time.July, 10),
		},
		invoices: []models.Invoice{
			{Status: enums.InvoiceStatusPaid, Amount: dec("1000"), AmountPaid: dec("1000")},
			{Status: enums.InvoiceStatusOverdue, Amount: dec("1000"), AmountPaid: decimal.Zero},
		},
		exceeded: 1,
	}
	svc, _ := NewService(repo, fixedNow)

	health, err := svc.SubscriptionHealth(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if health.DaysUntilEnd != 20 || health.OverdueInvoices != 1 || health.ExceededLimits != 1 {
		t.Fatalf("unexpected health inputs: %+v", health)
	}
	// 100 - 15 overdue - 13 collection gap - 15 expiry - 5 exceeded
	if health.Score != 52 {
		t.Fatalf("expected score 52, got %d", health.Score)
	}

	repo.subscription = nil
	_, err = svc.SubscriptionHealth(context.Background(), id)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
