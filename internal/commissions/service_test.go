package commissions

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Kiran3100/Hostel-Main-sub019/pkg/dates"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db/dbtest"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db/models"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/enums"
	pkgerrors "github.com/Kiran3100/Hostel-Main-sub019/pkg/errors"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/logger"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/metrics"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func ptr[T any](v T) *T { return &v }

type stubResolver struct {
	subs     map[uuid.UUID]*models.Subscription
	resolved int
}

func (s *stubResolver) Get(_ context.Context, id uuid.UUID) (*models.Subscription, error) {
	sub, ok := s.subs[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
	}
	clone := *sub
	return &clone, nil
}

func (s *stubResolver) FindActiveForHostelAt(_ context.Context, hostelID uuid.UUID, date time.Time) (*models.Subscription, error) {
	s.resolved++
	for _, sub := range s.subs {
		if sub.HostelID == hostelID && sub.Status == enums.SubscriptionStatusActive && sub.Covers(date) {
			clone := *sub
			return &clone, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active subscription for hostel")
}

type fixture struct {
	svc      Service
	conn     *gorm.DB
	resolver *stubResolver
	sub      *models.Subscription
	reg      *prometheus.Registry
}

func newFixture(t *testing.T, today time.Time) *fixture {
	t.Helper()
	client, conn := dbtest.Client(t)

	sub := &models.Subscription{
		ID:             uuid.New(),
		HostelID:       uuid.New(),
		PlanID:         uuid.New(),
		PlanType:       "basic",
		BillingCadence: enums.BillingCadenceMonthly,
		Amount:         dec("1000"),
		Currency:       "INR",
		StartDate:      dates.New(2024, time.January, 1),
		EndDate:        dates.New(2024, time.December, 31),
		Status:         enums.SubscriptionStatusActive,
	}
	resolver := &stubResolver{subs: map[uuid.UUID]*models.Subscription{sub.ID: sub}}

	cfg, err := NewConfig(dec("5"), dec("0"), dec("30"), map[string]decimal.Decimal{"premium": dec("3.5")}, 30)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	svc, err := NewService(ServiceParams{
		Repo:              NewRepository(conn),
		Subscriptions:     resolver,
		Config:            cfg,
		TransactionRunner: client,
		Logger:            logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Metrics:           metrics.NewBillingMetrics(reg),
		Now:               func() time.Time { return today },
	})
	require.NoError(t, err)
	return &fixture{svc: svc, conn: conn, resolver: resolver, sub: sub, reg: reg}
}

func (f *fixture) booking(amount string) BookingInput {
	return BookingInput{
		BookingID:     uuid.New(),
		HostelID:      f.sub.HostelID,
		BookingAmount: dec(amount),
	}
}

func createdCount(t *testing.T, reg *prometheus.Registry) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == "hostel_billing_commissions_created_total" {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}

func TestCreateForBookingComputesCommission(t *testing.T) {
	today := dates.New(2024, time.March, 1)
	f := newFixture(t, today)

	commission, created, err := f.svc.CreateForBooking(context.Background(), f.booking("5000"))
	require.NoError(t, err)
	require.True(t, created)

	assert.True(t, dec("5").Equal(commission.CommissionPercentage))
	assert.True(t, dec("250").Equal(commission.CommissionAmount), "amount %s", commission.CommissionAmount)
	assert.Equal(t, enums.CommissionStatusPending, commission.Status)
	assert.Equal(t, f.sub.ID, commission.SubscriptionID)
	assert.Equal(t, "INR", commission.Currency)
	assert.True(t, commission.DueDate.Equal(dates.New(2024, time.March, 31)))

	assert.False(t, commission.IsOverdue(dates.New(2024, time.March, 31)))
	assert.True(t, commission.IsOverdue(dates.New(2024, time.April, 1)))
	assert.Equal(t, float64(1), createdCount(t, f.reg))
}

func TestCreateForBookingIsIdempotent(t *testing.T) {
	f := newFixture(t, dates.New(2024, time.March, 1))
	ctx := context.Background()
	input := f.booking("5000")

	first, created, err := f.svc.CreateForBooking(ctx, input)
	require.NoError(t, err)
	require.True(t, created)

	input.BookingAmount = dec("9000")
	second, created, err := f.svc.CreateForBooking(ctx, input)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, dec("250").Equal(second.CommissionAmount))
	assert.Equal(t, 1, f.resolver.resolved)

	var count int64
	require.NoError(t, f.conn.Model(&models.Commission{}).Where("booking_id = ?", input.BookingID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, float64(1), createdCount(t, f.reg))

	input.HostelID = uuid.New()
	_, _, err = f.svc.CreateForBooking(ctx, input)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestCreateForBookingRates(t *testing.T) {
	f := newFixture(t, dates.New(2024, time.March, 1))
	ctx := context.Background()

	f.sub.PlanType = "Premium"
	planRate, _, err := f.svc.CreateForBooking(ctx, f.booking("1000"))
	require.NoError(t, err)
	assert.True(t, dec("3.5").Equal(planRate.CommissionPercentage))
	assert.True(t, dec("35").Equal(planRate.CommissionAmount))

	input := f.booking("333.33")
	input.Percentage = ptr(dec("12.345"))
	input.DueDays = ptr(7)
	override, _, err := f.svc.CreateForBooking(ctx, input)
	require.NoError(t, err)
	assert.True(t, dec("12.35").Equal(override.CommissionPercentage), "pct %s", override.CommissionPercentage)
	assert.True(t, dec("41.17").Equal(override.CommissionAmount), "amount %s", override.CommissionAmount)
	assert.True(t, override.DueDate.Equal(dates.New(2024, time.March, 8)))

	tooHigh := f.booking("1000")
	tooHigh.Percentage = ptr(dec("45"))
	_, _, err = f.svc.CreateForBooking(ctx, tooHigh)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreateForBookingValidation(t *testing.T) {
	f := newFixture(t, dates.New(2024, time.March, 1))
	ctx := context.Background()

	cases := map[string]func(in *BookingInput){
		"missing booking":  func(in *BookingInput) { in.BookingID = uuid.Nil },
		"missing hostel":   func(in *BookingInput) { in.HostelID = uuid.Nil },
		"negative amount":  func(in *BookingInput) { in.BookingAmount = dec("-1") },
		"percentage > 100": func(in *BookingInput) { in.Percentage = ptr(dec("101")) },
		"negative due":     func(in *BookingInput) { in.DueDays = ptr(-2) },
		"foreign subscription": func(in *BookingInput) {
			in.HostelID = uuid.New()
			in.SubscriptionID = &f.sub.ID
		},
		"booking outside term": func(in *BookingInput) {
			in.SubscriptionID = &f.sub.ID
			in.BookingDate = ptr(dates.New(2025, time.February, 1))
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			input := f.booking("100")
			mutate(&input)
			_, _, err := f.svc.CreateForBooking(ctx, input)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}

	orphan := f.booking("100")
	orphan.HostelID = uuid.New()
	_, _, err := f.svc.CreateForBooking(ctx, orphan)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCommissionTransitions(t *testing.T) {
	f := newFixture(t, dates.New(2024, time.March, 1))
	ctx := context.Background()
	actor := uuid.New()

	commission, _, err := f.svc.CreateForBooking(ctx, f.booking("5000"))
	require.NoError(t, err)

	_, err = f.svc.MarkPaid(ctx, commission.ID, PaidInput{PaidDate: ptr(dates.New(2024, time.March, 5))})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "pending cannot jump to paid")

	_, err = f.svc.StartProcessing(ctx, commission.ID, actor)
	require.NoError(t, err)

	_, err = f.svc.MarkPaid(ctx, commission.ID, PaidInput{})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	paid, err := f.svc.MarkPaid(ctx, commission.ID, PaidInput{
		PaidDate:  ptr(time.Date(2024, time.March, 5, 14, 30, 0, 0, time.UTC)),
		Reference: " UTR-1 ",
		Actor:     actor,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.CommissionStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidDate)
	assert.True(t, paid.PaidDate.Equal(dates.New(2024, time.March, 5)))
	require.NotNil(t, paid.PaymentReference)
	assert.Equal(t, "UTR-1", *paid.PaymentReference)
	assert.False(t, paid.IsOverdue(dates.New(2024, time.December, 1)))

	refunded, err := f.svc.Refund(ctx, commission.ID, "RF-9", actor)
	require.NoError(t, err)
	assert.Equal(t, enums.CommissionStatusRefunded, refunded.Status)
	assert.Nil(t, refunded.PaidDate)
	assert.NotNil(t, refunded.RefundedAt)
	require.NotNil(t, refunded.Notes)
	assert.Contains(t, *refunded.Notes, "refunded: RF-9")

	stored, err := f.svc.Get(ctx, commission.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.PaidDate)
	require.NotNil(t, stored.UpdatedBy)
	assert.Equal(t, actor, *stored.UpdatedBy)

	_, err = f.svc.Cancel(ctx, commission.ID, "late", actor)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestCommissionTerminalStatuses(t *testing.T) {
	f := newFixture(t, dates.New(2024, time.March, 1))
	ctx := context.Background()

	waived, _, err := f.svc.CreateForBooking(ctx, f.booking("100"))
	require.NoError(t, err)
	out, err := f.svc.Waive(ctx, waived.ID, "goodwill", uuid.Nil)
	require.NoError(t, err)
	require.NotNil(t, out.Notes)
	assert.Equal(t, "waived: goodwill", *out.Notes)

	disputed, _, err := f.svc.CreateForBooking(ctx, f.booking("100"))
	require.NoError(t, err)
	_, err = f.svc.Dispute(ctx, disputed.ID, "", uuid.Nil)
	require.NoError(t, err)
	_, err = f.svc.StartProcessing(ctx, disputed.ID, uuid.Nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = f.svc.Get(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = f.svc.GetByBooking(ctx, disputed.BookingID)
	assert.NoError(t, err)
}

func TestOverdueAndSummary(t *testing.T) {
	today := dates.New(2024, time.March, 1)
	f := newFixture(t, today)
	ctx := context.Background()

	seed := func(amount string, status enums.CommissionStatus, due time.Time) {
		t.Helper()
		require.NoError(t, f.conn.Create(&models.Commission{
			BookingID:            uuid.New(),
			HostelID:             f.sub.HostelID,
			SubscriptionID:       f.sub.ID,
			BookingAmount:        dec(amount).Mul(decimal.NewFromInt(20)),
			CommissionPercentage: dec("5"),
			CommissionAmount:     dec(amount),
			Currency:             "INR",
			Status:               status,
			DueDate:              due,
		}).Error)
	}
	past := dates.New(2024, time.February, 1)
	future := dates.New(2024, time.April, 1)
	seed("100", enums.CommissionStatusPending, past)
	seed("50", enums.CommissionStatusDisputed, past)
	seed("200", enums.CommissionStatusPaid, past)
	seed("300", enums.CommissionStatusPending, future)
	seed("75", enums.CommissionStatusWaived, past)
	seed("80", enums.CommissionStatusCancelled, past)

	overdue, err := f.svc.ListOverdue(ctx, 10)
	require.NoError(t, err)
	require.Len(t, overdue, 3, "pending, disputed and waived past due")

	pending, err := f.svc.ListPendingForHostel(ctx, f.sub.HostelID, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.True(t, pending[0].DueDate.Equal(past))

	summary, err := f.svc.SummaryForHostel(ctx, f.sub.HostelID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), summary.Count)
	assert.True(t, dec("650").Equal(summary.TotalDue), "due %s", summary.TotalDue)
	assert.True(t, dec("200").Equal(summary.Paid))
	assert.True(t, dec("450").Equal(summary.Outstanding))
	assert.Equal(t, int64(3), summary.OverdueCount)
	assert.True(t, dec("225").Equal(summary.OverdueAmount), "overdue %s", summary.OverdueAmount)
	assert.True(t, dec("30.77").Equal(summary.CollectionRate), "rate %s", summary.CollectionRate)
	assert.Equal(t, int64(2), summary.ByStatus[enums.CommissionStatusPending].Count)

	_, err = f.svc.SummaryForHostel(ctx, uuid.Nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
