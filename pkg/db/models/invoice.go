package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Kiran3100/Hostel-Main-sub019/pkg/enums"
)

// InvoiceNumberIndex is the unique index over invoices.invoice_number.
const InvoiceNumberIndex = "idx_invoices_invoice_number"

// Invoice is a billing document for one subscription period.
type Invoice struct {
	ID               uuid.UUID           `gorm:"type:uuid;primaryKey"`
	SubscriptionID   uuid.UUID           `gorm:"column:subscription_id;type:uuid;not null;index"`
	HostelID         uuid.UUID           `gorm:"column:hostel_id;type:uuid;not null;index"`
	BillingCycleID   *uuid.UUID          `gorm:"column:billing_cycle_id;type:uuid;uniqueIndex"`
	InvoiceNumber    string              `gorm:"column:invoice_number;not null;uniqueIndex:idx_invoices_invoice_number"`
	InvoiceDate      time.Time           `gorm:"column:invoice_date;type:date;not null"`
	DueDate          time.Time           `gorm:"column:due_date;type:date;not null;index"`
	PeriodStart      time.Time           `gorm:"column:period_start;type:date;not null"`
	PeriodEnd        time.Time           `gorm:"column:period_end;type:date;not null"`
	Subtotal         decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DiscountAmount   decimal.Decimal     `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	TaxAmount        decimal.Decimal     `gorm:"column:tax_amount;type:numeric(12,2);not null"`
	Amount           decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	AmountPaid       decimal.Decimal     `gorm:"column:amount_paid;type:numeric(12,2);not null"`
	AmountDue        decimal.Decimal     `gorm:"column:amount_due;type:numeric(12,2);not null"`
	Currency         string              `gorm:"column:currency;type:varchar(3);not null"`
	Status           enums.InvoiceStatus `gorm:"column:status;type:text;not null;index"`
	PaidDate         *time.Time          `gorm:"column:paid_date;type:date"`
	PaymentReference *string             `gorm:"column:payment_reference"`
	PaymentMethod    *string             `gorm:"column:payment_method"`
	Notes            *string             `gorm:"column:notes"`
	CreatedBy        *uuid.UUID          `gorm:"column:created_by;type:uuid"`
	UpdatedBy        *uuid.UUID          `gorm:"column:updated_by;type:uuid"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *Invoice) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// Recalculate derives amount and amount_due from the line totals. A negative
// balance is clamped to zero.
func (i *Invoice) Recalculate() {
	i.Amount = i.Subtotal.Sub(i.DiscountAmount).Add(i.TaxAmount).Round(2)
	due := i.Amount.Sub(i.AmountPaid).Round(2)
	if due.IsNegative() {
		due = decimal.Zero
	}
	i.AmountDue = due
}

// Reconciles reports whether the stored totals satisfy the invoice arithmetic.
func (i Invoice) Reconciles() bool {
	if i.Subtotal.IsNegative() || i.DiscountAmount.IsNegative() || i.TaxAmount.IsNegative() ||
		i.Amount.IsNegative() || i.AmountPaid.IsNegative() || i.AmountDue.IsNegative() {
		return false
	}
	if !i.Amount.Equal(i.Subtotal.Sub(i.DiscountAmount).Add(i.TaxAmount)) {
		return false
	}
	return i.AmountDue.Equal(i.Amount.Sub(i.AmountPaid))
}
