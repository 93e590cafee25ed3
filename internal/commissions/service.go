package commissions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Kiran3100/Hostel-Main-sub019/internal/analytics"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/dates"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db/models"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/enums"
	pkgerrors "github.com/Kiran3100/Hostel-Main-sub019/pkg/errors"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/logger"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/metrics"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/money"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SubscriptionResolver finds the subscription a booking is charged against.
type SubscriptionResolver interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	FindActiveForHostelAt(ctx context.Context, hostelID uuid.UUID, date time.Time) (*models.Subscription, error)
}

// Service tracks the commission owed per booking.
type Service interface {
	CreateForBooking(ctx context.Context, input BookingInput) (*models.Commission, bool, error)
	StartProcessing(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*models.Commission, error)
	MarkPaid(ctx context.Context, id uuid.UUID, input PaidInput) (*models.Commission, error)
	Cancel(ctx context.Context, id uuid.UUID, reason string, actor uuid.UUID) (*models.Commission, error)
	Waive(ctx context.Context, id uuid.UUID, reason string, actor uuid.UUID) (*models.Commission, error)
	Dispute(ctx context.Context, id uuid.UUID, reason string, actor uuid.UUID) (*models.Commission, error)
	Refund(ctx context.Context, id uuid.UUID, reference string, actor uuid.UUID) (*models.Commission, error)

	Get(ctx context.Context, id uuid.UUID) (*models.Commission, error)
	GetByBooking(ctx context.Context, bookingID uuid.UUID) (*models.Commission, error)
	ListPendingForHostel(ctx context.Context, hostelID uuid.UUID, limit int) ([]models.Commission, error)
	ListOverdue(ctx context.Context, limit int) ([]models.Commission, error)
	SummaryForHostel(ctx context.Context, hostelID uuid.UUID) (*Summary, error)
}

// ServiceParams groups dependencies for the commission service.
type ServiceParams struct {
	Repo              Repository
	Subscriptions     SubscriptionResolver
	Config            Config
	TransactionRunner txRunner
	Logger            *logger.Logger
	Metrics           *metrics.BillingMetrics
	Now               func() time.Time
}

// BookingInput identifies a booking. Nil SubscriptionID resolves the subscription
// active on BookingDate, nil Percentage uses the plan rate, nil BookingDate means today.
type BookingInput struct {
	BookingID      uuid.UUID
	HostelID       uuid.UUID
	SubscriptionID *uuid.UUID
	BookingAmount  decimal.Decimal
	Percentage     *decimal.Decimal
	DueDays        *int
	BookingDate    *time.Time
	Actor          uuid.UUID
}

// PaidInput settles a commission. PaidDate is required.
type PaidInput struct {
	PaidDate  *time.Time
	Reference string
	Actor     uuid.UUID
}

// Summary aggregates a hostel's commissions.
type Summary struct {
	HostelID       uuid.UUID                              `json:"hostel_id"`
	Count          int64                                  `json:"count"`
	TotalDue       decimal.Decimal                        `json:"total_due"`
	Paid           decimal.Decimal                        `json:"paid"`
	Outstanding    decimal.Decimal                        `json:"outstanding"`
	OverdueCount   int64                                  `json:"overdue_count"`
	OverdueAmount  decimal.Decimal                        `json:"overdue_amount"`
	CollectionRate decimal.Decimal                        `json:"collection_rate"`
	ByStatus       map[enums.CommissionStatus]StatusTotal `json:"by_status"`
}

type service struct {
	repo     Repository
	subs     SubscriptionResolver
	cfg      Config
	txRunner txRunner
	logg     *logger.Logger
	metrics  *metrics.BillingMetrics
	now      func() time.Time
}

// NewService builds a commission service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("commission repo required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscription resolver required")
	}
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:     params.Repo,
		subs:     params.Subscriptions,
		cfg:      params.Config,
		txRunner: params.TransactionRunner,
		logg:     params.Logger,
		metrics:  params.Metrics,
		now:      now,
	}, nil
}

func (s *service) today() time.Time {
	return dates.Date(s.now())
}

// CreateForBooking returns the booking's commission, creating it on first call.
// The bool reports whether this call inserted the row.
func (s *service) CreateForBooking(ctx context.Context, input BookingInput) (*models.Commission, bool, error) {
	if err := validateBooking(input); err != nil {
		return nil, false, err
	}
	existing, err := s.existing(ctx, input)
	if err != nil || existing != nil {
		return existing, false, err
	}

	today := s.today()
	bookingDate := today
	if input.BookingDate != nil {
		bookingDate = dates.Date(*input.BookingDate)
	}
	sub, err := s.resolveSubscription(ctx, input, bookingDate)
	if err != nil {
		return nil, false, err
	}

	pct := s.cfg.RateForPlan(sub.PlanType)
	if input.Percentage != nil {
		pct = *input.Percentage
	}
	pct = pct.Round(2)
	if !s.cfg.Allows(pct) {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "commission percentage outside allowed bounds").
			WithDetails(map[string]any{"percentage": pct.String()})
	}
	dueDays := s.cfg.DueDays()
	if input.DueDays != nil {
		dueDays = *input.DueDays
	}

	bookingAmount := money.Round(input.BookingAmount)
	commission := &models.Commission{
		BookingID:            input.BookingID,
		HostelID:             input.HostelID,
		SubscriptionID:       sub.ID,
		BookingAmount:        bookingAmount,
		CommissionPercentage: pct,
		CommissionAmount:     money.Percent(bookingAmount, pct),
		Currency:             sub.Currency,
		Status:               enums.CommissionStatusPending,
		DueDate:              dates.AddDays(today, dueDays),
		CreatedBy:            models.ActorRef(input.Actor),
	}
	if err := s.repo.Create(ctx, commission); err != nil {
		if !db.IsUniqueViolation(err, "") {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create commission")
		}
		// A concurrent request for the same booking won the insert.
		existing, err := s.existing(ctx, input)
		if err != nil {
			return nil, false, err
		}
		if existing == nil {
			return nil, false, pkgerrors.New(pkgerrors.CodeConflict, "commission already exists for booking")
		}
		return existing, false, nil
	}

	s.metrics.IncCommissionsCreated()
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"commission_id":   commission.ID.String(),
		"booking_id":      commission.BookingID.String(),
		"hostel_id":       commission.HostelID.String(),
		"subscription_id": commission.SubscriptionID.String(),
		"amount":          commission.CommissionAmount.StringFixed(money.Scale),
	})
	s.logg.Info(logCtx, "commission created")
	return commission, true, nil
}

func validateBooking(input BookingInput) error {
	switch {
	case input.BookingID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "booking id is required")
	case input.HostelID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "hostel id is required")
	case input.BookingAmount.IsNegative():
		return pkgerrors.New(pkgerrors.CodeValidation, "booking amount must be >= 0")
	case input.Percentage != nil && !money.ValidPercentage(*input.Percentage):
		return pkgerrors.New(pkgerrors.CodeValidation, "commission percentage must be between 0 and 100")
	case input.DueDays != nil && *input.DueDays < 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "due days must be >= 0")
	}
	return nil
}

func (s *service) existing(ctx context.Context, input BookingInput) (*models.Commission, error) {
	existing, err := s.repo.FindByBooking(ctx, input.BookingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking commission")
	}
	if existing != nil && existing.HostelID != input.HostelID {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "booking already has a commission for another hostel").
			WithDetails(map[string]any{"commission_id": existing.ID.String()})
	}
	return existing, nil
}

func (s *service) resolveSubscription(ctx context.Context, input BookingInput, bookingDate time.Time) (*models.Subscription, error) {
	if input.SubscriptionID == nil {
		return s.subs.FindActiveForHostelAt(ctx, input.HostelID, bookingDate)
	}
	sub, err := s.subs.Get(ctx, *input.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.HostelID != input.HostelID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription belongs to another hostel")
	}
	if !sub.Covers(bookingDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription does not cover the booking date").
			WithDetails(map[string]any{"booking_date": bookingDate.Format(dates.Layout)})
	}
	return sub, nil
}

func (s *service) StartProcessing(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*models.Commission, error) {
	return s.transition(ctx, id, enums.CommissionStatusProcessing, actor, nil)
}

func (s *service) MarkPaid(ctx context.Context, id uuid.UUID, input PaidInput) (*models.Commission, error) {
	if input.PaidDate == nil || input.PaidDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paid date is required")
	}
	paidDate := dates.Date(*input.PaidDate)
	return s.transition(ctx, id, enums.CommissionStatusPaid, input.Actor, func(c *models.Commission) {
		c.PaidDate = &paidDate
		if ref := strings.TrimSpace(input.Reference); ref != "" {
			c.PaymentReference = &ref
		}
	})
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID, reason string, actor uuid.UUID) (*models.Commission, error) {
	return s.transition(ctx, id, enums.CommissionStatusCancelled, actor, withNote(reason))
}

func (s *service) Waive(ctx context.Context, id uuid.UUID, reason string, actor uuid.UUID) (*models.Commission, error) {
	return s.transition(ctx, id, enums.CommissionStatusWaived, actor, withNote(reason))
}

func (s *service) Dispute(ctx context.Context, id uuid.UUID, reason string, actor uuid.UUID) (*models.Commission, error) {
	return s.transition(ctx, id, enums.CommissionStatusDisputed, actor, withNote(reason))
}

// Refund reverses a paid commission. paid_date is cleared so it stays set only
// while the commission is PAID.
func (s *service) Refund(ctx context.Context, id uuid.UUID, reference string, actor uuid.UUID) (*models.Commission, error) {
	return s.transition(ctx, id, enums.CommissionStatusRefunded, actor, func(c *models.Commission) {
		at := s.now().UTC()
		c.PaidDate = nil
		c.RefundedAt = &at
		if ref := strings.TrimSpace(reference); ref != "" {
			appendNote(c, enums.CommissionStatusRefunded, ref)
		}
	})
}

func (s *service) transition(ctx context.Context, id uuid.UUID, next enums.CommissionStatus, actor uuid.UUID, apply func(c *models.Commission)) (*models.Commission, error) {
	var (
		out  *models.Commission
		prev enums.CommissionStatus
	)
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		commission, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		prev = commission.Status
		if !prev.CanTransitionTo(next) {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot move a %s commission to %s", prev, next).
				WithDetails(map[string]any{"status": string(prev), "target": string(next)})
		}
		commission.Status = next
		if apply != nil {
			apply(commission)
		}
		if actor != uuid.Nil {
			commission.UpdatedBy = models.ActorRef(actor)
		}
		ok, err := repo.SaveIfStatus(ctx, commission, prev)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save commission")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "commission was modified concurrently")
		}
		out = commission
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"commission_id": out.ID.String(),
		"booking_id":    out.BookingID.String(),
		"from":          string(prev),
		"to":            string(out.Status),
	})
	s.logg.Info(logCtx, "commission status changed")
	return out, nil
}

func withNote(reason string) func(c *models.Commission) {
	return func(c *models.Commission) {
		if reason = strings.TrimSpace(reason); reason != "" {
			appendNote(c, c.Status, reason)
		}
	}
}

func appendNote(c *models.Commission, status enums.CommissionStatus, text string) {
	note := fmt.Sprintf("%s: %s", status, text)
	if c.Notes != nil && *c.Notes != "" {
		note = *c.Notes + "\n" + note
	}
	c.Notes = &note
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Commission, error) {
	return s.load(ctx, s.repo, id)
}

func (s *service) GetByBooking(ctx context.Context, bookingID uuid.UUID) (*models.Commission, error) {
	if bookingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id is required")
	}
	commission, err := s.repo.FindByBooking(ctx, bookingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking commission")
	}
	if commission == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "commission not found")
	}
	return commission, nil
}

func (s *service) ListPendingForHostel(ctx context.Context, hostelID uuid.UUID, limit int) ([]models.Commission, error) {
	if hostelID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "hostel id is required")
	}
	commissions, err := s.repo.ListPendingForHostel(ctx, hostelID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending commissions")
	}
	return commissions, nil
}

func (s *service) ListOverdue(ctx context.Context, limit int) ([]models.Commission, error) {
	commissions, err := s.repo.ListOverdue(ctx, s.today(), limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list overdue commissions")
	}
	return commissions, nil
}

// SummaryForHostel totals a hostel's commissions. Cancelled, waived and refunded
// rows are counted per status but excluded from the amount due.
func (s *service) SummaryForHostel(ctx context.Context, hostelID uuid.UUID) (*Summary, error) {
	if hostelID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "hostel id is required")
	}
	totals, err := s.repo.TotalsByStatus(ctx, hostelID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "total commissions")
	}
	overdue, err := s.repo.OverdueTotal(ctx, hostelID, s.today())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "total overdue commissions")
	}

	summary := &Summary{
		HostelID:      hostelID,
		TotalDue:      decimal.Zero,
		Paid:          decimal.Zero,
		OverdueCount:  overdue.Count,
		OverdueAmount: money.Round(overdue.Amount),
		ByStatus:      make(map[enums.CommissionStatus]StatusTotal, len(totals)),
	}
	for _, total := range totals {
		total.Amount = money.Round(total.Amount)
		summary.ByStatus[total.Status] = total
		summary.Count += total.Count
		if !total.Status.IsCollectible() {
			continue
		}
		summary.TotalDue = summary.TotalDue.Add(total.Amount)
		if total.Status == enums.CommissionStatusPaid {
			summary.Paid = summary.Paid.Add(total.Amount)
		}
	}
	summary.Outstanding = summary.TotalDue.Sub(summary.Paid)
	summary.CollectionRate = analytics.CollectionRate(summary.Paid, summary.TotalDue)
	return summary, nil
}

func (s *service) load(ctx context.Context, repo Repository, id uuid.UUID) (*models.Commission, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "commission id is required")
	}
	commission, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load commission")
	}
	if commission == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "commission not found")
	}
	return commission, nil
}
