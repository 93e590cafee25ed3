package dto

import (
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db/models"
)

type Subscription struct {
	ID                   string  `json:"id"`
	HostelID             string  `json:"hostel_id"`
	PlanID               string  `json:"plan_id"`
	PlanType             string  `json:"plan_type"`
	BillingCadence       string  `json:"billing_cadence"`
	Amount               string  `json:"amount"`
	Currency             string  `json:"currency"`
	StartDate            string  `json:"start_date"`
	EndDate              string  `json:"end_date"`
	AutoRenew            bool    `json:"auto_renew"`
	IsTrial              bool    `json:"is_trial"`
	TrialEndDate         *string `json:"trial_end_date,omitempty"`
	Status               string  `json:"status"`
	NextBillingDate      *string `json:"next_billing_date,omitempty"`
	RenewalCount         int     `json:"renewal_count"`
	CancelledAt          *string `json:"cancelled_at,omitempty"`
	CancellationReason   *string `json:"cancellation_reason,omitempty"`
	LastPaymentDate      *string `json:"last_payment_date,omitempty"`
	LastPaymentAmount    *string `json:"last_payment_amount,omitempty"`
	LastPaymentReference *string `json:"last_payment_reference,omitempty"`
	CreatedAt            string  `json:"created_at"`
	UpdatedAt            string  `json:"updated_at"`
}

func FromSubscription(s models.Subscription) Subscription {
	return Subscription{
		ID:                   s.ID.String(),
		HostelID:             s.HostelID.String(),
		PlanID:               s.PlanID.String(),
		PlanType:             s.PlanType,
		BillingCadence:       string(s.BillingCadence),
		Amount:               Money(s.Amount),
		Currency:             s.Currency,
		StartDate:            Date(s.StartDate),
		EndDate:              Date(s.EndDate),
		AutoRenew:            s.AutoRenew,
		IsTrial:              s.IsTrial,
		TrialEndDate:         DatePtr(s.TrialEndDate),
		Status:               string(s.Status),
		NextBillingDate:      DatePtr(s.NextBillingDate),
		RenewalCount:         s.RenewalCount,
		CancelledAt:          TimestampPtr(s.CancelledAt),
		CancellationReason:   s.CancellationReason,
		LastPaymentDate:      DatePtr(s.LastPaymentDate),
		LastPaymentAmount:    MoneyPtr(s.LastPaymentAmount),
		LastPaymentReference: s.LastPaymentReference,
		CreatedAt:            Timestamp(s.CreatedAt),
		UpdatedAt:            Timestamp(s.UpdatedAt),
	}
}

type HistoryEntry struct {
	ID         string         `json:"id"`
	ChangeType string         `json:"change_type"`
	OldValue   *string        `json:"old_value,omitempty"`
	NewValue   *string        `json:"new_value,omitempty"`
	Reason     *string        `json:"reason,omitempty"`
	ChangedBy  *string        `json:"changed_by,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	ChangedAt  string         `json:"changed_at"`
}

func FromHistory(entries []models.SubscriptionHistory) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(entries))
	for _, h := range entries {
		out = append(out, HistoryEntry{
			ID:         h.ID.String(),
			ChangeType: string(h.ChangeType),
			OldValue:   h.OldValue,
			NewValue:   h.NewValue,
			Reason:     h.Reason,
			ChangedBy:  UUIDPtr(h.ChangedBy),
			Metadata:   h.Metadata,
			ChangedAt:  Timestamp(h.ChangedAt),
		})
	}
	return out
}

type Cancellation struct {
	ID                   string  `json:"id"`
	CancelledAt          string  `json:"cancelled_at"`
	Reason               *string `json:"reason,omitempty"`
	CancelImmediately    bool    `json:"cancel_immediately"`
	EffectiveDate        string  `json:"effective_date"`
	RefundAmount         *string `json:"refund_amount,omitempty"`
	RefundReference      *string `json:"refund_reference,omitempty"`
	RefundProcessed      bool    `json:"refund_processed"`
	CanReactivate        bool    `json:"can_reactivate"`
	ReactivationDeadline *string `json:"reactivation_deadline,omitempty"`
}

func FromCancellation(c *models.Cancellation) *Cancellation {
	if c == nil {
		return nil
	}
	return &Cancellation{
		ID:                   c.ID.String(),
		CancelledAt:          Timestamp(c.CancelledAt),
		Reason:               c.Reason,
		CancelImmediately:    c.CancelImmediately,
		EffectiveDate:        Date(c.EffectiveDate),
		RefundAmount:         MoneyPtr(c.RefundAmount),
		RefundReference:      c.RefundReference,
		RefundProcessed:      c.RefundProcessed,
		CanReactivate:        c.CanReactivate,
		ReactivationDeadline: DatePtr(c.ReactivationDeadline),
	}
}

type BillingCycle struct {
	ID                 string  `json:"id"`
	CycleNumber        int     `json:"cycle_number"`
	CycleStart         string  `json:"cycle_start"`
	CycleEnd           string  `json:"cycle_end"`
	Amount             string  `json:"amount"`
	Currency           string  `json:"currency"`
	NextBillingDate    string  `json:"next_billing_date"`
	DaysUntilBilling   int     `json:"days_until_billing"`
	IsInTrial          bool    `json:"is_in_trial"`
	TrialDaysRemaining int     `json:"trial_days_remaining"`
	IsBilled           bool    `json:"is_billed"`
	BilledAt           *string `json:"billed_at,omitempty"`
}

func FromCycles(cycles []models.BillingCycle) []BillingCycle {
	out := make([]BillingCycle, 0, len(cycles))
	for _, c := range cycles {
		out = append(out, BillingCycle{
			ID:                 c.ID.String(),
			CycleNumber:        c.CycleNumber,
			CycleStart:         Date(c.CycleStart),
			CycleEnd:           Date(c.CycleEnd),
			Amount:             Money(c.Amount),
			Currency:           c.Currency,
			NextBillingDate:    Date(c.NextBillingDate),
			DaysUntilBilling:   c.DaysUntilBilling,
			IsInTrial:          c.IsInTrial,
			TrialDaysRemaining: c.TrialDaysRemaining,
			IsBilled:           c.IsBilled,
			BilledAt:           TimestampPtr(c.BilledAt),
		})
	}
	return out
}
