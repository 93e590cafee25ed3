package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db/models"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/enums"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/money"
)

// Rates are percentages in [0, 100] rounded to two places. Every function
// returns zero on empty input.

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// MRR sums active monthly subscriptions plus one twelfth of active yearly ones.
func MRR(subs []models.Subscription) decimal.Decimal {
	total := decimal.Zero
	for _, sub := range subs {
		if sub.Status != enums.SubscriptionStatusActive || sub.IsDeleted {
			continue
		}
		switch sub.BillingCadence {
		case enums.BillingCadenceMonthly:
			total = total.Add(sub.Amount)
		case enums.BillingCadenceYearly:
			total = total.Add(sub.Amount.Div(twelve))
		}
	}
	return money.Round(total)
}

func ARR(mrr decimal.Decimal) decimal.Decimal {
	return money.Round(mrr.Mul(twelve))
}

// ChurnRate is cancelled-in-period over active-at-period-start.
func ChurnRate(cancelled, activeAtStart int64) decimal.Decimal {
	return rate(decimal.NewFromInt(cancelled), decimal.NewFromInt(activeAtStart))
}

// CollectionRate is paid over due.
func CollectionRate(paid, due decimal.Decimal) decimal.Decimal {
	return rate(paid, due)
}

// InvoiceCollectionRate is collected over invoiced, ignoring cancelled and void invoices.
func InvoiceCollectionRate(invoices []models.Invoice) decimal.Decimal {
	paid, billed := InvoiceTotals(invoices)
	return rate(paid, billed)
}

// InvoiceTotals returns collected and invoiced amounts of live invoices.
func InvoiceTotals(invoices []models.Invoice) (paid, billed decimal.Decimal) {
	paid, billed = decimal.Zero, decimal.Zero
	for _, inv := range invoices {
		if inv.Status == enums.InvoiceStatusCancelled || inv.Status == enums.InvoiceStatusVoid {
			continue
		}
		paid = paid.Add(inv.AmountPaid)
		billed = billed.Add(inv.Amount)
	}
	return paid, billed
}

func rate(num, den decimal.Decimal) decimal.Decimal {
	if !den.IsPositive() || num.IsNegative() {
		return decimal.Zero
	}
	r := num.Mul(hundred).Div(den)
	if r.GreaterThan(hundred) {
		r = hundred
	}
	return money.Round(r)
}

// HealthInput is what the subscription health score is computed from.
type HealthInput struct {
	Status          enums.SubscriptionStatus
	AutoRenew       bool
	DaysUntilEnd    int
	Invoiced        bool
	CollectionRate  decimal.Decimal
	OverdueInvoices int
	ExceededLimits  int
}

const (
	overduePenalty   = 15
	maxOverdue       = 45
	expiryPenalty    = 15
	expiryWindowDays = 30
	exceededPenalty  = 5
	maxExceeded      = 15
)

// HealthScore rates a subscription from 0 to 100. Anything not active scores 0.
func HealthScore(in HealthInput) int {
	if in.Status != enums.SubscriptionStatusActive {
		return 0
	}
	score := 100
	score -= min(in.OverdueInvoices*overduePenalty, maxOverdue)
	if in.Invoiced {
		// up to 25 points for uncollected revenue
		gap := hundred.Sub(in.CollectionRate).Div(decimal.NewFromInt(4))
		score -= int(gap.Round(0).IntPart())
	}
	if !in.AutoRenew && in.DaysUntilEnd <= expiryWindowDays {
		score -= expiryPenalty
	}
	score -= min(in.ExceededLimits*exceededPenalty, maxExceeded)
	return max(0, min(score, 100))
}
