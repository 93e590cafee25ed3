package invoices

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Kiran3100/Hostel-Main-sub019/internal/billingcycles"
	"github.com/Kiran3100/Hostel-Main-sub019/internal/subscriptions"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/dates"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db/models"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/enums"
	pkgerrors "github.com/Kiran3100/Hostel-Main-sub019/pkg/errors"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/logger"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/metrics"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/money"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SubscriptionStore reads subscriptions and records payment snapshots on them.
type SubscriptionStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	RecordPayment(ctx context.Context, tx *gorm.DB, id uuid.UUID, payment subscriptions.Payment) error
}

// Service issues invoices and applies payments against them.
type Service interface {
	GenerateInvoiceNumber(ctx context.Context, tx *gorm.DB, year int) (string, error)
	Create(ctx context.Context, input CreateInput) (*models.Invoice, error)
	GenerateForCycle(ctx context.Context, cycleID uuid.UUID) (*models.Invoice, error)

	ApplyPayment(ctx context.Context, id uuid.UUID, input PaymentInput) (*models.Invoice, error)
	MarkAsPaid(ctx context.Context, id uuid.UUID, input SettleInput) (*models.Invoice, error)
	ApplyDiscount(ctx context.Context, id uuid.UUID, discount decimal.Decimal, actor uuid.UUID) (*models.Invoice, error)
	Send(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*models.Invoice, error)
	Issue(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*models.Invoice, error)
	Cancel(ctx context.Context, id uuid.UUID, reason string, actor uuid.UUID) (*models.Invoice, error)
	Void(ctx context.Context, id uuid.UUID, reason string, actor uuid.UUID) (*models.Invoice, error)
	Delete(ctx context.Context, id uuid.UUID) error
	MarkOverdue(ctx context.Context) (int64, error)

	Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	GetByNumber(ctx context.Context, number string) (*models.Invoice, error)
	ListBySubscription(ctx context.Context, subscriptionID uuid.UUID, params pagination.Params) (pagination.Page[models.Invoice], error)
	ListOverdue(ctx context.Context, limit int) ([]models.Invoice, error)
}

// ServiceParams groups dependencies for the invoice service.
type ServiceParams struct {
	Repo              Repository
	Subscriptions     SubscriptionStore
	Cycles            *billingcycles.Service
	TransactionRunner txRunner
	Logger            *logger.Logger
	Metrics           *metrics.BillingMetrics
	DueDays           int
	NumberAttempts    int
	Now               func() time.Time
}

// CreateInput describes a manual invoice. A nil DueDays uses the configured default.
type CreateInput struct {
	SubscriptionID uuid.UUID
	BillingCycleID *uuid.UUID
	PeriodStart    time.Time
	PeriodEnd      time.Time
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	DueDays        *int
	InvoiceDate    *time.Time
	Notes          string
	Actor          uuid.UUID
}

// PaymentInput is one payment against an invoice. A nil PaidDate means today.
type PaymentInput struct {
	Amount    decimal.Decimal
	Reference string
	Method    string
	PaidDate  *time.Time
	Actor     uuid.UUID
}

// SettleInput pays whatever balance remains on an invoice.
type SettleInput struct {
	Reference string
	Method    string
	PaidDate  *time.Time
	Actor     uuid.UUID
}

type service struct {
	repo           Repository
	subs           SubscriptionStore
	cycles         *billingcycles.Service
	txRunner       txRunner
	logg           *logger.Logger
	metrics        *metrics.BillingMetrics
	dueDays        int
	numberAttempts int
	now            func() time.Time
}

// NewService builds an invoice service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("invoice repo required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscription store required")
	}
	if params.Cycles == nil {
		return nil, fmt.Errorf("billing cycle service required")
	}
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DueDays < 0 {
		return nil, fmt.Errorf("invoice due days must be >= 0")
	}
	attempts := params.NumberAttempts
	if attempts < 1 {
		attempts = 1
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:           params.Repo,
		subs:           params.Subscriptions,
		cycles:         params.Cycles,
		txRunner:       params.TransactionRunner,
		logg:           params.Logger,
		metrics:        params.Metrics,
		dueDays:        params.DueDays,
		numberAttempts: attempts,
		now:            now,
	}, nil
}

func (s *service) today() time.Time {
	return dates.Date(s.now())
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Invoice, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}
	sub, err := s.subs.Get(ctx, input.SubscriptionID)
	if err != nil {
		return nil, err
	}

	invoiceDate := s.today()
	if input.InvoiceDate != nil {
		invoiceDate = dates.Date(*input.InvoiceDate)
	}
	dueDays := s.dueDays
	if input.DueDays != nil {
		dueDays = *input.DueDays
	}
	invoice := &models.Invoice{
		SubscriptionID: sub.ID,
		HostelID:       sub.HostelID,
		BillingCycleID: input.BillingCycleID,
		InvoiceDate:    invoiceDate,
		DueDate:        dates.AddDays(invoiceDate, dueDays),
		PeriodStart:    dates.Date(input.PeriodStart),
		PeriodEnd:      dates.Date(input.PeriodEnd),
		Subtotal:       money.Round(input.Subtotal),
		DiscountAmount: money.Round(input.DiscountAmount),
		TaxAmount:      money.Round(input.TaxAmount),
		AmountPaid:     decimal.Zero,
		Currency:       sub.Currency,
		Status:         enums.InvoiceStatusDraft,
		Notes:          optionalString(input.Notes),
		CreatedBy:      models.ActorRef(input.Actor),
	}
	invoice.Recalculate()

	if err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		return s.insert(ctx, tx, invoice)
	}); err != nil {
		return nil, err
	}
	s.logInvoice(ctx, invoice, "invoice created")
	return invoice, nil
}

func validateCreate(input CreateInput) error {
	switch {
	case input.SubscriptionID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription id is required")
	case input.PeriodStart.IsZero() || input.PeriodEnd.IsZero():
		return pkgerrors.New(pkgerrors.CodeValidation, "period start and end are required")
	case dates.Date(input.PeriodEnd).Before(dates.Date(input.PeriodStart)):
		return pkgerrors.New(pkgerrors.CodeValidation, "period end must not precede period start")
	case input.Subtotal.IsNegative() || input.TaxAmount.IsNegative() || input.DiscountAmount.IsNegative():
		return pkgerrors.New(pkgerrors.CodeValidation, "invoice amounts must be >= 0")
	case input.DiscountAmount.GreaterThan(input.Subtotal):
		return pkgerrors.New(pkgerrors.CodeValidation, "discount must not exceed subtotal")
	case input.DueDays != nil && *input.DueDays < 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "due days must be >= 0")
	}
	return nil
}

// GenerateForCycle bills a cycle exactly once. It returns the cycle's existing
// invoice when the cycle was already billed, and nil when the cycle is fully
// covered by a trial.
func (s *service) GenerateForCycle(ctx context.Context, cycleID uuid.UUID) (*models.Invoice, error) {
	if cycleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "billing cycle id is required")
	}
	cycle, err := s.cycles.Repo(nil).FindByID(ctx, cycleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load billing cycle")
	}
	if cycle == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "billing cycle not found")
	}
	if cycle.IsBilled {
		return s.invoiceForCycle(ctx, s.repo, cycle.ID)
	}
	sub, err := s.subs.Get(ctx, cycle.SubscriptionID)
	if err != nil {
		return nil, err
	}

	var (
		out     *models.Invoice
		created bool
	)
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		won, err := s.cycles.Repo(tx).MarkBilled(ctx, cycle.ID, s.now().UTC())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark billing cycle billed")
		}
		if !won {
			out, err = s.invoiceForCycle(ctx, s.repo.WithTx(tx), cycle.ID)
			return err
		}
		invoice := s.cycleInvoice(sub, cycle)
		if invoice.Amount.IsZero() {
			return nil
		}
		if err := s.insert(ctx, tx, invoice); err != nil {
			return err
		}
		out, created = invoice, true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		s.metrics.IncInvoicesGenerated()
		s.logInvoice(ctx, out, "invoice generated")
	} else if out == nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"billing_cycle_id": cycle.ID.String(),
			"subscription_id":  cycle.SubscriptionID.String(),
		})
		s.logg.Info(logCtx, "billing cycle fully credited, no invoice issued")
	}
	return out, nil
}

func (s *service) invoiceForCycle(ctx context.Context, repo Repository, cycleID uuid.UUID) (*models.Invoice, error) {
	invoice, err := repo.FindByCycle(ctx, cycleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cycle invoice")
	}
	return invoice, nil
}

func (s *service) cycleInvoice(sub *models.Subscription, cycle *models.BillingCycle) *models.Invoice {
	today := s.today()
	cycleID := cycle.ID
	invoice := &models.Invoice{
		SubscriptionID: cycle.SubscriptionID,
		HostelID:       cycle.HostelID,
		BillingCycleID: &cycleID,
		InvoiceDate:    today,
		DueDate:        dates.AddDays(today, s.dueDays),
		PeriodStart:    cycle.CycleStart,
		PeriodEnd:      cycle.CycleEnd,
		Subtotal:       money.Round(cycle.Amount),
		DiscountAmount: TrialCredit(*cycle),
		TaxAmount:      decimal.Zero,
		AmountPaid:     decimal.Zero,
		Currency:       cycle.Currency,
		Status:         enums.InvoiceStatusPending,
	}
	if invoice.Currency == "" {
		invoice.Currency = sub.Currency
	}
	if invoice.DiscountAmount.IsPositive() {
		invoice.Notes = optionalString(fmt.Sprintf("trial credit for %d day(s)", trialDaysIn(*cycle)))
	}
	invoice.Recalculate()
	return invoice
}

// TrialCredit is the share of the cycle amount covered by remaining trial days.
func TrialCredit(cycle models.BillingCycle) decimal.Decimal {
	days := trialDaysIn(cycle)
	if days == 0 {
		return decimal.Zero
	}
	length := cycle.LengthDays()
	if days >= length {
		return money.Round(cycle.Amount)
	}
	return money.Round(cycle.Amount.Mul(decimal.NewFromInt(int64(days))).Div(decimal.NewFromInt(int64(length))))
}

func trialDaysIn(cycle models.BillingCycle) int {
	if !cycle.IsInTrial || cycle.TrialDaysRemaining <= 0 {
		return 0
	}
	return min(cycle.TrialDaysRemaining, cycle.LengthDays())
}

func (s *service) ApplyPayment(ctx context.Context, id uuid.UUID, input PaymentInput) (*models.Invoice, error) {
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be > 0")
	}
	return s.pay(ctx, id, input, false)
}

// MarkAsPaid settles the remaining balance in one payment.
func (s *service) MarkAsPaid(ctx context.Context, id uuid.UUID, input SettleInput) (*models.Invoice, error) {
	return s.pay(ctx, id, PaymentInput{
		Reference: input.Reference,
		Method:    input.Method,
		PaidDate:  input.PaidDate,
		Actor:     input.Actor,
	}, true)
}

func (s *service) pay(ctx context.Context, id uuid.UUID, input PaymentInput, settle bool) (*models.Invoice, error) {
	var (
		out    *models.Invoice
		amount decimal.Decimal
	)
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		invoice, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		if invoice.Status == enums.InvoiceStatusPaid {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "invoice is already paid")
		}
		if !invoice.Status.AcceptsPayment() {
			return notPayable(invoice.Status)
		}

		amount = money.Round(input.Amount)
		if settle {
			amount = invoice.AmountDue
		}
		if amount.GreaterThan(invoice.AmountDue) {
			return pkgerrors.New(pkgerrors.CodeValidation, "payment exceeds amount due").
				WithDetails(map[string]any{
					"amount_due": invoice.AmountDue.StringFixed(money.Scale),
					"amount":     amount.StringFixed(money.Scale),
				})
		}

		prev := invoice.Status
		paidDate := s.today()
		if input.PaidDate != nil {
			paidDate = dates.Date(*input.PaidDate)
		}
		invoice.AmountPaid = invoice.AmountPaid.Add(amount)
		invoice.Recalculate()
		if invoice.AmountDue.IsZero() {
			invoice.Status = enums.InvoiceStatusPaid
			invoice.PaidDate = &paidDate
		}
		if ref := optionalString(input.Reference); ref != nil {
			invoice.PaymentReference = ref
		}
		if method := optionalString(input.Method); method != nil {
			invoice.PaymentMethod = method
		}
		if input.Actor != uuid.Nil {
			invoice.UpdatedBy = models.ActorRef(input.Actor)
		}
		if err := s.save(ctx, repo, invoice, prev); err != nil {
			return err
		}

		if amount.IsPositive() {
			if err := s.subs.RecordPayment(ctx, tx, invoice.SubscriptionID, subscriptions.Payment{
				Amount:    amount,
				Date:      paidDate,
				Reference: input.Reference,
				Actor:     input.Actor,
			}); err != nil {
				return err
			}
		}
		out = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncPaymentApplied(string(out.Status))
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"invoice_id":      out.ID.String(),
		"subscription_id": out.SubscriptionID.String(),
		"amount":          amount.StringFixed(money.Scale),
		"amount_due":      out.AmountDue.StringFixed(money.Scale),
		"status":          string(out.Status),
	})
	s.logg.Info(logCtx, "invoice payment applied")
	return out, nil
}

func (s *service) ApplyDiscount(ctx context.Context, id uuid.UUID, discount decimal.Decimal, actor uuid.UUID) (*models.Invoice, error) {
	if discount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount must be >= 0")
	}
	discount = money.Round(discount)
	return s.transition(ctx, id, actor, func(invoice *models.Invoice) error {
		if invoice.Status.IsFinal() {
			return notEditable(invoice.Status)
		}
		if discount.GreaterThan(invoice.Subtotal) {
			return pkgerrors.New(pkgerrors.CodeValidation, "discount must not exceed subtotal")
		}
		amount := invoice.Subtotal.Sub(discount).Add(invoice.TaxAmount)
		if amount.LessThan(invoice.AmountPaid) {
			return pkgerrors.New(pkgerrors.CodeValidation, "discount would exceed the unpaid balance").
				WithDetails(map[string]any{"amount_paid": invoice.AmountPaid.StringFixed(money.Scale)})
		}
		invoice.DiscountAmount = discount
		invoice.Recalculate()
		if invoice.AmountDue.IsZero() && invoice.AmountPaid.IsPositive() {
			today := s.today()
			invoice.Status = enums.InvoiceStatusPaid
			invoice.PaidDate = &today
		}
		return nil
	})
}

func (s *service) Send(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*models.Invoice, error) {
	return s.transition(ctx, id, actor, func(invoice *models.Invoice) error {
		if invoice.Status != enums.InvoiceStatusDraft && invoice.Status != enums.InvoiceStatusPending {
			return invalidTransition(invoice.Status, "send")
		}
		invoice.Status = enums.InvoiceStatusSent
		return nil
	})
}

func (s *service) Issue(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*models.Invoice, error) {
	return s.transition(ctx, id, actor, func(invoice *models.Invoice) error {
		if invoice.Status != enums.InvoiceStatusDraft {
			return invalidTransition(invoice.Status, "issue")
		}
		invoice.Status = enums.InvoiceStatusPending
		return nil
	})
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID, reason string, actor uuid.UUID) (*models.Invoice, error) {
	return s.close(ctx, id, enums.InvoiceStatusCancelled, "cancel", reason, actor)
}

func (s *service) Void(ctx context.Context, id uuid.UUID, reason string, actor uuid.UUID) (*models.Invoice, error) {
	return s.close(ctx, id, enums.InvoiceStatusVoid, "void", reason, actor)
}

func (s *service) close(ctx context.Context, id uuid.UUID, target enums.InvoiceStatus, action, reason string, actor uuid.UUID) (*models.Invoice, error) {
	reason = strings.TrimSpace(reason)
	return s.transition(ctx, id, actor, func(invoice *models.Invoice) error {
		if invoice.Status.IsFinal() {
			return invalidTransition(invoice.Status, action)
		}
		invoice.Status = target
		if reason != "" {
			appendNote(invoice, fmt.Sprintf("%s: %s", target, reason))
		}
		return nil
	})
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "invoice id is required")
	}
	deleted, err := s.repo.DeleteDraft(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete invoice")
	}
	if deleted {
		logCtx := s.logg.WithField(ctx, "invoice_id", id.String())
		s.logg.Info(logCtx, "draft invoice deleted")
		return nil
	}
	invoice, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, "only draft invoices can be deleted").
		WithDetails(map[string]any{"status": string(invoice.Status)})
}

// MarkOverdue flips unpaid invoices past their due date. Re-running on the
// same day changes nothing.
func (s *service) MarkOverdue(ctx context.Context) (int64, error) {
	count, err := s.repo.MarkOverdue(ctx, s.today())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark invoices overdue")
	}
	if count > 0 {
		logCtx := s.logg.WithField(ctx, "count", count)
		s.logg.Info(logCtx, "invoices marked overdue")
	}
	return count, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	return s.load(ctx, s.repo, id)
}

func (s *service) GetByNumber(ctx context.Context, number string) (*models.Invoice, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice number is required")
	}
	invoice, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
	}
	if invoice == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
	}
	return invoice, nil
}

func (s *service) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID, params pagination.Params) (pagination.Page[models.Invoice], error) {
	if subscriptionID == uuid.Nil {
		return pagination.Page[models.Invoice]{}, pkgerrors.New(pkgerrors.CodeValidation, "subscription id is required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.Invoice]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListBySubscription(ctx, subscriptionID, cursor, params.Limit)
	if err != nil {
		return pagination.Page[models.Invoice]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invoices")
	}
	return pagination.Trim(rows, params.Limit, func(inv models.Invoice) pagination.Cursor {
		return pagination.Cursor{CreatedAt: inv.CreatedAt, ID: inv.ID}
	}), nil
}

func (s *service) ListOverdue(ctx context.Context, limit int) ([]models.Invoice, error) {
	invoices, err := s.repo.ListOverdue(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list overdue invoices")
	}
	return invoices, nil
}

// transition loads the invoice in a transaction, applies fn and saves the row
// guarded by its previous status.
func (s *service) transition(ctx context.Context, id uuid.UUID, actor uuid.UUID, fn func(invoice *models.Invoice) error) (*models.Invoice, error) {
	var out *models.Invoice
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		invoice, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		prev := invoice.Status
		if err := fn(invoice); err != nil {
			return err
		}
		if actor != uuid.Nil {
			invoice.UpdatedBy = models.ActorRef(actor)
		}
		if err := s.save(ctx, repo, invoice, prev); err != nil {
			return err
		}
		out = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logInvoice(ctx, out, "invoice updated")
	return out, nil
}

func (s *service) save(ctx context.Context, repo Repository, invoice *models.Invoice, prev enums.InvoiceStatus) error {
	if !invoice.Reconciles() {
		return pkgerrors.New(pkgerrors.CodeInternal, "invoice totals do not reconcile")
	}
	ok, err := repo.SaveIfStatus(ctx, invoice, prev)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save invoice")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "invoice was modified concurrently")
	}
	return nil
}

func (s *service) load(ctx context.Context, repo Repository, id uuid.UUID) (*models.Invoice, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice id is required")
	}
	invoice, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
	}
	if invoice == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
	}
	return invoice, nil
}

func (s *service) logInvoice(ctx context.Context, invoice *models.Invoice, msg string) {
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"invoice_id":      invoice.ID.String(),
		"invoice_number":  invoice.InvoiceNumber,
		"subscription_id": invoice.SubscriptionID.String(),
		"hostel_id":       invoice.HostelID.String(),
		"status":          string(invoice.Status),
	})
	s.logg.Info(logCtx, msg)
}

func notPayable(status enums.InvoiceStatus) error {
	return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot pay a %s invoice", status).
		WithDetails(map[string]any{"status": string(status)})
}

func notEditable(status enums.InvoiceStatus) error {
	return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot modify a %s invoice", status).
		WithDetails(map[string]any{"status": string(status)})
}

func invalidTransition(from enums.InvoiceStatus, action string) error {
	return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot %s a %s invoice", action, from).
		WithDetails(map[string]any{"status": string(from)})
}

func appendNote(invoice *models.Invoice, note string) {
	if invoice.Notes == nil || strings.TrimSpace(*invoice.Notes) == "" {
		invoice.Notes = &note
		return
	}
	joined := *invoice.Notes + "\n" + note
	invoice.Notes = &joined
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
