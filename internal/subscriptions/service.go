package subscriptions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Kiran3100/Hostel-Main-sub019/internal/billingcycles"
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

// PlanReader loads plan versions.
type PlanReader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Plan, error)
}

// Provisioner creates and re-syncs the usage counters of a subscription.
type Provisioner interface {
	Provision(ctx context.Context, tx *gorm.DB, sub *models.Subscription, plan *models.Plan) error
	SyncPlan(ctx context.Context, tx *gorm.DB, sub *models.Subscription, plan *models.Plan) error
}

// Service owns the subscription state machine.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Subscription, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	GetActiveForHostel(ctx context.Context, hostelID uuid.UUID) (*models.Subscription, error)
	FindActiveForHostelAt(ctx context.Context, hostelID uuid.UUID, date time.Time) (*models.Subscription, error)

	Activate(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*models.Subscription, error)
	Suspend(ctx context.Context, id uuid.UUID, reason string, actor uuid.UUID) (*models.Subscription, error)
	Expire(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*models.Subscription, error)
	Renew(ctx context.Context, id uuid.UUID, input RenewInput) (*models.Subscription, error)
	Cancel(ctx context.Context, id uuid.UUID, input CancelInput) (*models.Subscription, *models.Cancellation, error)
	ChangePlan(ctx context.Context, id uuid.UUID, input ChangePlanInput) (*models.Subscription, error)
	ToggleAutoRenew(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*models.Subscription, error)
	EndTrial(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*models.Subscription, error)
	SoftDelete(ctx context.Context, id uuid.UUID, actor uuid.UUID) error
	RecordPayment(ctx context.Context, tx *gorm.DB, id uuid.UUID, payment Payment) error

	ListHistory(ctx context.Context, id uuid.UUID) ([]models.SubscriptionHistory, error)
	GetCancellation(ctx context.Context, id uuid.UUID) (*models.Cancellation, error)
	ListCycles(ctx context.Context, id uuid.UUID) ([]models.BillingCycle, error)

	ProcessEndOfTerm(ctx context.Context, limit int) (EndOfTermResult, error)
	EndElapsedTrials(ctx context.Context, limit int) (int, error)
	ListTrialsEndingOn(ctx context.Context, date time.Time, limit int) ([]models.Subscription, error)
}

// ServiceParams groups dependencies for the subscription service.
type ServiceParams struct {
	Repo                   Repository
	Plans                  PlanReader
	Cycles                 *billingcycles.Service
	Usage                  Provisioner
	TransactionRunner      txRunner
	Logger                 *logger.Logger
	Metrics                *metrics.BillingMetrics
	ReactivationWindowDays int
	Now                    func() time.Time
}

// CreateInput describes a new subscription. A nil EndDate covers one cadence period.
type CreateInput struct {
	HostelID  uuid.UUID
	PlanID    uuid.UUID
	Cadence   enums.BillingCadence
	StartDate time.Time
	EndDate   *time.Time
	AutoRenew bool
	Actor     uuid.UUID
}

// RenewInput extends a subscription by one cadence period. A nil Amount keeps the current price.
type RenewInput struct {
	Amount *decimal.Decimal
	Actor  uuid.UUID
}

// CancelInput describes a cancellation request.
type CancelInput struct {
	Immediate       bool
	Reason          string
	RefundAmount    *decimal.Decimal
	RefundReference string
	Actor           uuid.UUID
}

// ChangePlanInput moves a subscription to another plan. A nil Amount uses the plan price.
type ChangePlanInput struct {
	PlanID uuid.UUID
	Amount *decimal.Decimal
	Actor  uuid.UUID
}

// Payment is the snapshot recorded after an invoice payment.
type Payment struct {
	Amount    decimal.Decimal
	Date      time.Time
	Reference string
	Actor     uuid.UUID
}

// EndOfTermResult counts what ProcessEndOfTerm did.
type EndOfTermResult struct {
	Renewed   int
	Expired   int
	Cancelled int
}

type service struct {
	repo               Repository
	plans              PlanReader
	cycles             *billingcycles.Service
	usage              Provisioner
	txRunner           txRunner
	logg               *logger.Logger
	metrics            *metrics.BillingMetrics
	reactivationWindow int
	now                func() time.Time
}

// NewService builds a subscription service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("subscription repo required")
	}
	if params.Plans == nil {
		return nil, fmt.Errorf("plan reader required")
	}
	if params.Cycles == nil {
		return nil, fmt.Errorf("billing cycle service required")
	}
	if params.Usage == nil {
		return nil, fmt.Errorf("usage provisioner required")
	}
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.ReactivationWindowDays < 0 {
		return nil, fmt.Errorf("reactivation window must be >= 0")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:               params.Repo,
		plans:              params.Plans,
		cycles:             params.Cycles,
		usage:              params.Usage,
		txRunner:           params.TransactionRunner,
		logg:               params.Logger,
		metrics:            params.Metrics,
		reactivationWindow: params.ReactivationWindowDays,
		now:                now,
	}, nil
}

func (s *service) today() time.Time {
	return dates.Date(s.now())
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Subscription, error) {
	if input.HostelID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "hostel id is required")
	}
	if input.PlanID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan id is required")
	}
	if input.StartDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "start date is required")
	}
	cadence := input.Cadence
	if cadence == "" {
		cadence = enums.BillingCadenceMonthly
	}
	if !cadence.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid billing cadence")
	}

	plan, err := s.plans.Get(ctx, input.PlanID)
	if err != nil {
		return nil, err
	}
	if !plan.Subscribable() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "plan is not open to new subscriptions")
	}

	start := dates.Date(input.StartDate)
	end := dates.AddDays(start, cadence.PeriodDays()-1)
	if input.EndDate != nil {
		end = dates.Date(*input.EndDate)
	}
	if end.Before(start) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date must not be before start date")
	}

	sub := &models.Subscription{
		HostelID:       input.HostelID,
		PlanID:         plan.ID,
		PlanType:       plan.PlanType,
		BillingCadence: cadence,
		Amount:         money.Round(plan.PriceFor(cadence)),
		Currency:       plan.Currency,
		StartDate:      start,
		EndDate:        end,
		AutoRenew:      input.AutoRenew,
		Status:         enums.SubscriptionStatusActive,
		CreatedBy:      models.ActorRef(input.Actor),
		UpdatedBy:      models.ActorRef(input.Actor),
	}
	if plan.TrialDays > 0 {
		trialEnd := dates.Min(dates.AddDays(start, plan.TrialDays-1), end)
		sub.IsTrial = true
		sub.TrialEndDate = &trialEnd
	}

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindActiveForHostel(ctx, sub.HostelID, uuid.Nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check active subscription")
		}
		if existing != nil {
			return activeConflict(existing)
		}
		if err := repo.Create(ctx, sub); err != nil {
			if db.IsUniqueViolation(err, models.ActiveHostelIndex) {
				return pkgerrors.New(pkgerrors.CodeConflict, "hostel already has an active subscription")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subscription")
		}

		cycles, err := s.cycles.Materialize(ctx, tx, sub, sub.StartDate, sub.Amount)
		if err != nil {
			return err
		}
		sub.NextBillingDate = billingcycles.NextBillingDate(cycles)
		if ok, err := repo.SaveIfStatus(ctx, sub, sub.Status); err != nil || !ok {
			return saveError(err)
		}
		if err := s.usage.Provision(ctx, tx, sub, plan); err != nil {
			return err
		}
		return s.appendHistory(ctx, repo, sub, input.Actor, &change{
			changeType: enums.HistoryChangeTypeCreated,
			newValue:   string(sub.Status),
			metadata: map[string]any{
				"plan_id":  plan.ID.String(),
				"cadence":  string(cadence),
				"amount":   sub.Amount.StringFixed(money.Scale),
				"is_trial": sub.IsTrial,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(string(enums.HistoryChangeTypeCreated))
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"subscription_id": sub.ID.String(),
		"hostel_id":       sub.HostelID.String(),
		"plan_id":         sub.PlanID.String(),
	})
	s.logg.Info(logCtx, "subscription created")
	return sub, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	return s.load(ctx, s.repo, id)
}

func (s *service) GetActiveForHostel(ctx context.Context, hostelID uuid.UUID) (*models.Subscription, error) {
	if hostelID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "hostel id is required")
	}
	sub, err := s.repo.FindActiveForHostel(ctx, hostelID, uuid.Nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active subscription")
	}
	if sub == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "hostel has no active subscription")
	}
	return sub, nil
}

func (s *service) FindActiveForHostelAt(ctx context.Context, hostelID uuid.UUID, date time.Time) (*models.Subscription, error) {
	if hostelID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "hostel id is required")
	}
	sub, err := s.repo.FindCoveringDate(ctx, hostelID, dates.Date(date))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription for date")
	}
	if sub == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no subscription covers the date")
	}
	return sub, nil
}

func (s *service) Activate(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*models.Subscription, error) {
	return s.mutate(ctx, id, actor, func(tx *gorm.DB, sub *models.Subscription) (*change, error) {
		if sub.Status != enums.SubscriptionStatusSuspended {
			return nil, invalidTransition(sub.Status, "activate")
		}
		if sub.EndDate.Before(s.today()) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "subscription term has ended; renew instead")
		}
		if err := s.ensureNoOtherActive(ctx, tx, sub); err != nil {
			return nil, err
		}
		sub.Status = enums.SubscriptionStatusActive
		return &change{
			changeType: enums.HistoryChangeTypeActivated,
			oldValue:   string(enums.SubscriptionStatusSuspended),
			newValue:   string(sub.Status),
		}, nil
	})
}

func (s *service) Suspend(ctx context.Context, id uuid.UUID, reason string, actor uuid.UUID) (*models.Subscription, error) {
	return s.mutate(ctx, id, actor, func(_ *gorm.DB, sub *models.Subscription) (*change, error) {
		if sub.Status != enums.SubscriptionStatusActive {
			return nil, invalidTransition(sub.Status, "suspend")
		}
		sub.Status = enums.SubscriptionStatusSuspended
		return &change{
			changeType: enums.HistoryChangeTypeSuspended,
			oldValue:   string(enums.SubscriptionStatusActive),
			newValue:   string(sub.Status),
			reason:     reason,
		}, nil
	})
}

func (s *service) Expire(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*models.Subscription, error) {
	return s.mutate(ctx, id, actor, func(_ *gorm.DB, sub *models.Subscription) (*change, error) {
		return s.expire(sub)
	})
}

func (s *service) expire(sub *models.Subscription) (*change, error) {
	if sub.Status != enums.SubscriptionStatusActive {
		return nil, invalidTransition(sub.Status, "expire")
	}
	if !sub.EndDate.Before(s.today()) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "subscription term has not ended")
	}
	sub.Status = enums.SubscriptionStatusExpired
	sub.IsTrial = false
	sub.NextBillingDate = nil
	return &change{
		changeType: enums.HistoryChangeTypeExpired,
		oldValue:   string(enums.SubscriptionStatusActive),
		newValue:   string(sub.Status),
	}, nil
}

func (s *service) Renew(ctx context.Context, id uuid.UUID, input RenewInput) (*models.Subscription, error) {
	if input.Amount != nil && input.Amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "renewal amount must be >= 0")
	}
	return s.mutate(ctx, id, input.Actor, func(tx *gorm.DB, sub *models.Subscription) (*change, error) {
		return s.renew(ctx, tx, sub, input.Amount)
	})
}

func (s *service) renew(ctx context.Context, tx *gorm.DB, sub *models.Subscription, amount *decimal.Decimal) (*change, error) {
	prev := sub.Status
	if !prev.IsRenewable() {
		return nil, invalidTransition(prev, "renew")
	}
	today := s.today()

	record, err := s.repo.WithTx(tx).FindCancellation(ctx, sub.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cancellation")
	}
	if record != nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cancellation is scheduled; subscription cannot be renewed")
	}

	from := dates.AddDays(sub.EndDate, 1)
	if prev == enums.SubscriptionStatusExpired {
		if err := s.ensureNoOtherActive(ctx, tx, sub); err != nil {
			return nil, err
		}
		from = dates.Max(from, today)
	}
	oldEnd := sub.EndDate
	price := sub.Amount
	if amount != nil {
		price = money.Round(*amount)
	}

	sub.Status = enums.SubscriptionStatusActive
	sub.EndDate = dates.AddDays(from, sub.BillingCadence.PeriodDays()-1)
	sub.Amount = price
	sub.RenewalCount++
	if _, err := s.cycles.Materialize(ctx, tx, sub, from, price); err != nil {
		return nil, err
	}
	cycles, err := s.cycles.Repo(tx).ListBySubscription(ctx, sub.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list billing cycles")
	}
	sub.NextBillingDate = billingcycles.NextBillingDate(cycles)

	return &change{
		changeType: enums.HistoryChangeTypeRenewed,
		oldValue:   oldEnd.Format(dates.Layout),
		newValue:   sub.EndDate.Format(dates.Layout),
		metadata: map[string]any{
			"previous_status": string(prev),
			"renewal_count":   sub.RenewalCount,
			"amount":          price.StringFixed(money.Scale),
		},
	}, nil
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID, input CancelInput) (*models.Subscription, *models.Cancellation, error) {
	if input.RefundAmount != nil && input.RefundAmount.IsNegative() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be >= 0")
	}
	var record *models.Cancellation
	sub, err := s.mutate(ctx, id, input.Actor, func(tx *gorm.DB, sub *models.Subscription) (*change, error) {
		if sub.Status != enums.SubscriptionStatusActive {
			return nil, invalidTransition(sub.Status, "cancel")
		}
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindCancellation(ctx, sub.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cancellation")
		}
		if existing != nil {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "subscription cancellation already recorded")
		}

		now := s.now().UTC()
		today := s.today()
		sub.AutoRenew = false
		sub.CancelledAt = &now
		sub.CancelledBy = models.ActorRef(input.Actor)
		sub.CancellationReason = optionalString(input.Reason)

		ch := &change{
			changeType: enums.HistoryChangeTypeCancellationScheduled,
			oldValue:   string(enums.SubscriptionStatusActive),
			newValue:   string(enums.SubscriptionStatusActive),
			reason:     input.Reason,
			metadata:   map[string]any{"immediate": input.Immediate},
		}
		if input.Immediate {
			sub.Status = enums.SubscriptionStatusCancelled
			sub.EndDate = dates.Max(sub.StartDate, dates.Min(sub.EndDate, today))
			sub.IsTrial = false
			sub.NextBillingDate = nil
			if err := s.cycles.Truncate(ctx, tx, sub.ID, sub.EndDate); err != nil {
				return nil, err
			}
			ch.changeType = enums.HistoryChangeTypeCancelled
			ch.newValue = string(sub.Status)
		}

		record = &models.Cancellation{
			SubscriptionID:    sub.ID,
			HostelID:          sub.HostelID,
			CancelledAt:       now,
			CancelledBy:       models.ActorRef(input.Actor),
			Reason:            optionalString(input.Reason),
			CancelImmediately: input.Immediate,
			EffectiveDate:     sub.EndDate,
			RefundReference:   optionalString(input.RefundReference),
			CanReactivate:     s.reactivationWindow > 0,
		}
		if input.RefundAmount != nil {
			refund := money.Round(*input.RefundAmount)
			record.RefundAmount = &refund
		}
		if record.CanReactivate {
			deadline := dates.AddDays(record.EffectiveDate, s.reactivationWindow)
			record.ReactivationDeadline = &deadline
		}
		if err := repo.CreateCancellation(ctx, record); err != nil {
			if db.IsUniqueViolation(err, "") {
				return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "subscription cancellation already recorded")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cancellation")
		}
		ch.metadata["effective_date"] = record.EffectiveDate.Format(dates.Layout)
		return ch, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return sub, record, nil
}

func (s *service) ChangePlan(ctx context.Context, id uuid.UUID, input ChangePlanInput) (*models.Subscription, error) {
	if input.PlanID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan id is required")
	}
	if input.Amount != nil && input.Amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be >= 0")
	}
	plan, err := s.plans.Get(ctx, input.PlanID)
	if err != nil {
		return nil, err
	}
	if !plan.Subscribable() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "plan is not open to new subscriptions")
	}

	return s.mutate(ctx, id, input.Actor, func(tx *gorm.DB, sub *models.Subscription) (*change, error) {
		if sub.PlanID == plan.ID && input.Amount == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription is already on this plan")
		}
		amount := money.Round(plan.PriceFor(sub.BillingCadence))
		if input.Amount != nil {
			amount = money.Round(*input.Amount)
		}
		oldPlan := sub.PlanID
		oldAmount := sub.Amount

		sub.PlanID = plan.ID
		sub.PlanType = plan.PlanType
		sub.Amount = amount
		sub.Currency = plan.Currency
		cycles, err := s.cycles.Regenerate(ctx, tx, sub, s.today(), amount)
		if err != nil {
			return nil, err
		}
		if sub.Status == enums.SubscriptionStatusActive {
			sub.NextBillingDate = billingcycles.NextBillingDate(cycles)
		}
		if err := s.usage.SyncPlan(ctx, tx, sub, plan); err != nil {
			return nil, err
		}
		return &change{
			changeType: enums.HistoryChangeTypePlanChanged,
			oldValue:   oldPlan.String(),
			newValue:   plan.ID.String(),
			metadata: map[string]any{
				"old_amount": oldAmount.StringFixed(money.Scale),
				"new_amount": amount.StringFixed(money.Scale),
				"plan_type":  plan.PlanType,
			},
		}, nil
	})
}

func (s *service) ToggleAutoRenew(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*models.Subscription, error) {
	return s.mutate(ctx, id, actor, func(tx *gorm.DB, sub *models.Subscription) (*change, error) {
		if sub.Status != enums.SubscriptionStatusActive {
			return nil, invalidTransition(sub.Status, "toggle auto-renew on")
		}
		if !sub.AutoRenew {
			record, err := s.repo.WithTx(tx).FindCancellation(ctx, sub.ID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cancellation")
			}
			if record != nil {
				return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cancellation is scheduled; auto-renew cannot be enabled")
			}
		}
		old := sub.AutoRenew
		sub.AutoRenew = !sub.AutoRenew
		return &change{
			changeType: enums.HistoryChangeTypeAutoRenewToggled,
			oldValue:   fmt.Sprintf("%t", old),
			newValue:   fmt.Sprintf("%t", sub.AutoRenew),
		}, nil
	})
}

func (s *service) EndTrial(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*models.Subscription, error) {
	return s.mutate(ctx, id, actor, func(_ *gorm.DB, sub *models.Subscription) (*change, error) {
		return s.endTrial(sub)
	})
}

func (s *service) endTrial(sub *models.Subscription) (*change, error) {
	if !sub.IsTrial || sub.TrialEndDate == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "subscription is not in trial")
	}
	if !sub.TrialEndDate.Before(s.today()) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "trial has not ended yet")
	}
	sub.IsTrial = false
	return &change{
		changeType: enums.HistoryChangeTypeTrialEnded,
		oldValue:   "true",
		newValue:   "false",
		metadata:   map[string]any{"trial_end_date": sub.TrialEndDate.Format(dates.Layout)},
	}, nil
}

func (s *service) SoftDelete(ctx context.Context, id uuid.UUID, actor uuid.UUID) error {
	_, err := s.mutate(ctx, id, actor, func(_ *gorm.DB, sub *models.Subscription) (*change, error) {
		if sub.Status == enums.SubscriptionStatusActive {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "active subscriptions cannot be deleted")
		}
		now := s.now().UTC()
		sub.IsDeleted = true
		sub.DeletedAt = &now
		sub.NextBillingDate = nil
		return &change{
			changeType: enums.HistoryChangeTypeDeleted,
			oldValue:   "false",
			newValue:   "true",
		}, nil
	})
	return err
}

// RecordPayment stores the last-payment snapshot inside the caller's transaction.
func (s *service) RecordPayment(ctx context.Context, tx *gorm.DB, id uuid.UUID, payment Payment) error {
	if !payment.Amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be > 0")
	}
	repo := s.repo.WithTx(tx)
	sub, err := s.load(ctx, repo, id)
	if err != nil {
		return err
	}
	date := dates.Date(payment.Date)
	if payment.Date.IsZero() {
		date = s.today()
	}
	amount := money.Round(payment.Amount)
	sub.LastPaymentDate = &date
	sub.LastPaymentAmount = &amount
	sub.LastPaymentReference = optionalString(payment.Reference)
	if payment.Actor != uuid.Nil {
		sub.UpdatedBy = models.ActorRef(payment.Actor)
	}
	if ok, err := repo.SaveIfStatus(ctx, sub, sub.Status); err != nil || !ok {
		return saveError(err)
	}
	return s.appendHistory(ctx, repo, sub, payment.Actor, &change{
		changeType: enums.HistoryChangeTypePaymentRecorded,
		newValue:   amount.StringFixed(money.Scale),
		metadata:   map[string]any{"reference": payment.Reference, "date": date.Format(dates.Layout)},
	})
}

func (s *service) ListHistory(ctx context.Context, id uuid.UUID) ([]models.SubscriptionHistory, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.repo.ListHistory(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subscription history")
	}
	return entries, nil
}

func (s *service) GetCancellation(ctx context.Context, id uuid.UUID) (*models.Cancellation, error) {
	record, err := s.repo.FindCancellation(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cancellation")
	}
	if record == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cancellation not found")
	}
	return record, nil
}

func (s *service) ListCycles(ctx context.Context, id uuid.UUID) ([]models.BillingCycle, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.cycles.ListForSubscription(ctx, id)
}

type change struct {
	changeType enums.HistoryChangeType
	oldValue   string
	newValue   string
	reason     string
	metadata   map[string]any
}

// mutate loads the subscription in a transaction, applies fn, persists the row
// guarded by its previous status and appends the history entry fn describes.
func (s *service) mutate(ctx context.Context, id uuid.UUID, actor uuid.UUID, fn func(tx *gorm.DB, sub *models.Subscription) (*change, error)) (*models.Subscription, error) {
	var (
		out *models.Subscription
		ch  *change
	)
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		sub, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		prev := sub.Status
		ch, err = fn(tx, sub)
		if err != nil {
			return err
		}
		if actor != uuid.Nil {
			sub.UpdatedBy = models.ActorRef(actor)
		}
		ok, err := repo.SaveIfStatus(ctx, sub, prev)
		if err != nil || !ok {
			return saveError(err)
		}
		if err := s.appendHistory(ctx, repo, sub, actor, ch); err != nil {
			return err
		}
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(string(ch.changeType))
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"subscription_id": out.ID.String(),
		"hostel_id":       out.HostelID.String(),
		"change_type":     string(ch.changeType),
		"status":          string(out.Status),
	})
	s.logg.Info(logCtx, "subscription updated")
	return out, nil
}

func (s *service) appendHistory(ctx context.Context, repo Repository, sub *models.Subscription, actor uuid.UUID, ch *change) error {
	entry := &models.SubscriptionHistory{
		SubscriptionID: sub.ID,
		HostelID:       sub.HostelID,
		ChangeType:     ch.changeType,
		OldValue:       optionalString(ch.oldValue),
		NewValue:       optionalString(ch.newValue),
		Reason:         optionalString(ch.reason),
		ChangedBy:      models.ActorRef(actor),
		Metadata:       ch.metadata,
		ChangedAt:      s.now().UTC(),
	}
	if err := repo.CreateHistory(ctx, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append subscription history")
	}
	return nil
}

func (s *service) load(ctx context.Context, repo Repository, id uuid.UUID) (*models.Subscription, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription id is required")
	}
	sub, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	if sub == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
	}
	return sub, nil
}

func (s *service) ensureNoOtherActive(ctx context.Context, tx *gorm.DB, sub *models.Subscription) error {
	existing, err := s.repo.WithTx(tx).FindActiveForHostel(ctx, sub.HostelID, sub.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check active subscription")
	}
	if existing != nil {
		return activeConflict(existing)
	}
	return nil
}

func activeConflict(existing *models.Subscription) error {
	return pkgerrors.New(pkgerrors.CodeConflict, "hostel already has an active subscription").
		WithDetails(map[string]any{"subscription_id": existing.ID.String()})
}

func invalidTransition(from enums.SubscriptionStatus, action string) error {
	return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot %s a %s subscription", action, from).
		WithDetails(map[string]any{"status": string(from)})
}

func saveError(err error) error {
	if err == nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "subscription was modified concurrently")
	}
	if db.IsUniqueViolation(err, models.ActiveHostelIndex) {
		return pkgerrors.New(pkgerrors.CodeConflict, "hostel already has an active subscription")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save subscription")
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
