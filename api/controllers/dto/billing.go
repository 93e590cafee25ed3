package dto

import (
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db/models"
)

type Invoice struct {
	ID               string  `json:"id"`
	SubscriptionID   string  `json:"subscription_id"`
	HostelID         string  `json:"hostel_id"`
	BillingCycleID   *string `json:"billing_cycle_id,omitempty"`
	InvoiceNumber    string  `json:"invoice_number"`
	InvoiceDate      string  `json:"invoice_date"`
	DueDate          string  `json:"due_date"`
	PeriodStart      string  `json:"period_start"`
	PeriodEnd        string  `json:"period_end"`
	Subtotal         string  `json:"subtotal"`
	DiscountAmount   string  `json:"discount_amount"`
	TaxAmount        string  `json:"tax_amount"`
	Amount           string  `json:"amount"`
	AmountPaid       string  `json:"amount_paid"`
	AmountDue        string  `json:"amount_due"`
	Currency         string  `json:"currency"`
	Status           string  `json:"status"`
	PaidDate         *string `json:"paid_date,omitempty"`
	PaymentReference *string `json:"payment_reference,omitempty"`
	PaymentMethod    *string `json:"payment_method,omitempty"`
	Notes            *string `json:"notes,omitempty"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

func FromInvoice(i models.Invoice) Invoice {
	return Invoice{
		ID:               i.ID.String(),
		SubscriptionID:   i.SubscriptionID.String(),
		HostelID:         i.HostelID.String(),
		BillingCycleID:   UUIDPtr(i.BillingCycleID),
		InvoiceNumber:    i.InvoiceNumber,
		InvoiceDate:      Date(i.InvoiceDate),
		DueDate:          Date(i.DueDate),
		PeriodStart:      Date(i.PeriodStart),
		PeriodEnd:        Date(i.PeriodEnd),
		Subtotal:         Money(i.Subtotal),
		DiscountAmount:   Money(i.DiscountAmount),
		TaxAmount:        Money(i.TaxAmount),
		Amount:           Money(i.Amount),
		AmountPaid:       Money(i.AmountPaid),
		AmountDue:        Money(i.AmountDue),
		Currency:         i.Currency,
		Status:           string(i.Status),
		PaidDate:         DatePtr(i.PaidDate),
		PaymentReference: i.PaymentReference,
		PaymentMethod:    i.PaymentMethod,
		Notes:            i.Notes,
		CreatedAt:        Timestamp(i.CreatedAt),
		UpdatedAt:        Timestamp(i.UpdatedAt),
	}
}

func FromInvoices(invoices []models.Invoice) []Invoice {
	out := make([]Invoice, 0, len(invoices))
	for _, i := range invoices {
		out = append(out, FromInvoice(i))
	}
	return out
}

type Commission struct {
	ID                   string  `json:"id"`
	BookingID            string  `json:"booking_id"`
	HostelID             string  `json:"hostel_id"`
	SubscriptionID       string  `json:"subscription_id"`
	BookingAmount        string  `json:"booking_amount"`
	CommissionPercentage string  `json:"commission_percentage"`
	CommissionAmount     string  `json:"commission_amount"`
	Currency             string  `json:"currency"`
	Status               string  `json:"status"`
	DueDate              string  `json:"due_date"`
	PaidDate             *string `json:"paid_date,omitempty"`
	PaymentReference     *string `json:"payment_reference,omitempty"`
	Notes                *string `json:"notes,omitempty"`
	RefundedAt           *string `json:"refunded_at,omitempty"`
	CreatedAt            string  `json:"created_at"`
	UpdatedAt            string  `json:"updated_at"`
}

func FromCommission(c models.Commission) Commission {
	return Commission{
		ID:                   c.ID.String(),
		BookingID:            c.BookingID.String(),
		HostelID:             c.HostelID.String(),
		SubscriptionID:       c.SubscriptionID.String(),
		BookingAmount:        Money(c.BookingAmount),
		CommissionPercentage: Money(c.CommissionPercentage),
		CommissionAmount:     Money(c.CommissionAmount),
		Currency:             c.Currency,
		Status:               string(c.Status),
		DueDate:              Date(c.DueDate),
		PaidDate:             DatePtr(c.PaidDate),
		PaymentReference:     c.PaymentReference,
		Notes:                c.Notes,
		RefundedAt:           TimestampPtr(c.RefundedAt),
		CreatedAt:            Timestamp(c.CreatedAt),
		UpdatedAt:            Timestamp(c.UpdatedAt),
	}
}

func FromCommissions(commissions []models.Commission) []Commission {
	out := make([]Commission, 0, len(commissions))
	for _, c := range commissions {
		out = append(out, FromCommission(c))
	}
	return out
}

type FeatureUsage struct {
	FeatureKey      string  `json:"feature_key"`
	CurrentUsage    int64   `json:"current_usage"`
	UsageLimit      *int64  `json:"usage_limit"`
	IsEnabled       bool    `json:"is_enabled"`
	IsLimitExceeded bool    `json:"is_limit_exceeded"`
	LastUsedAt      *string `json:"last_used_at,omitempty"`
	PeriodStart     *string `json:"period_start,omitempty"`
	PeriodEnd       *string `json:"period_end,omitempty"`
}

func FromFeatureUsage(rows []models.FeatureUsage) []FeatureUsage {
	out := make([]FeatureUsage, 0, len(rows))
	for _, u := range rows {
		out = append(out, FeatureUsage{
			FeatureKey:      u.FeatureKey,
			CurrentUsage:    u.CurrentUsage,
			UsageLimit:      u.UsageLimit,
			IsEnabled:       u.IsEnabled,
			IsLimitExceeded: u.IsLimitExceeded,
			LastUsedAt:      TimestampPtr(u.LastUsedAt),
			PeriodStart:     DatePtr(u.PeriodStart),
			PeriodEnd:       DatePtr(u.PeriodEnd),
		})
	}
	return out
}

type Limit struct {
	LimitType        string `json:"limit_type"`
	LimitValue       *int64 `json:"limit_value"`
	CurrentValue     int64  `json:"current_value"`
	IsEnforced       bool   `json:"is_enforced"`
	IsExceeded       bool   `json:"is_exceeded"`
	WarningThreshold *int64 `json:"warning_threshold,omitempty"`
	WarningSent      bool   `json:"warning_sent"`
}

func FromLimits(rows []models.SubscriptionLimit) []Limit {
	out := make([]Limit, 0, len(rows))
	for _, l := range rows {
		out = append(out, Limit{
			LimitType:        string(l.LimitType),
			LimitValue:       l.LimitValue,
			CurrentValue:     l.CurrentValue,
			IsEnforced:       l.IsEnforced,
			IsExceeded:       l.IsExceeded,
			WarningThreshold: l.WarningThreshold,
			WarningSent:      l.WarningSent,
		})
	}
	return out
}
