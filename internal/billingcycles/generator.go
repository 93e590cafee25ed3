package billingcycles

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Kiran3100/Hostel-Main-sub019/pkg/dates"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/enums"
	pkgerrors "github.com/Kiran3100/Hostel-Main-sub019/pkg/errors"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/money"
)

// GenerateParams describes the span to partition into billing cycles.
type GenerateParams struct {
	Start         time.Time
	End           time.Time
	Cadence       enums.BillingCadence
	Amount        decimal.Decimal
	TrialStart    time.Time
	TrialDays     int
	FirstCycleSeq int
}

// Draft is an unsaved billing cycle.
type Draft struct {
	Number             int
	Start              time.Time
	End                time.Time
	NextBillingDate    time.Time
	Amount             decimal.Decimal
	IsInTrial          bool
	TrialDaysRemaining int
}

// LengthDays returns the inclusive number of days covered by the draft.
func (d Draft) LengthDays() int {
	return dates.DaysBetween(d.Start, d.End) + 1
}

// Generate partitions [Start, End] into fixed-length periods of 30 or 365
// days. A trailing remainder shorter than half a period is folded into the
// preceding cycle so long spans do not end in a stub. Trial days are counted
// from TrialStart, which defaults to Start.
func Generate(p GenerateParams) ([]Draft, error) {
	if p.Start.IsZero() || p.End.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cycle span requires start and end dates")
	}
	start := dates.Date(p.Start)
	end := dates.Date(p.End)
	if end.Before(start) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date must not be before start date")
	}
	if p.Amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cycle amount must be >= 0")
	}
	if p.TrialDays < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "trial days must be >= 0")
	}
	cadence := p.Cadence
	if cadence == "" {
		cadence = enums.BillingCadenceMonthly
	}
	if !cadence.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid billing cadence")
	}

	period := cadence.PeriodDays()
	amount := money.Round(p.Amount)
	seq := p.FirstCycleSeq
	if seq <= 0 {
		seq = 1
	}

	var drafts []Draft
	for current := start; !current.After(end); {
		cycleEnd := dates.Min(dates.AddDays(current, period-1), end)
		drafts = append(drafts, Draft{
			Number:          seq,
			Start:           current,
			End:             cycleEnd,
			NextBillingDate: dates.AddDays(cycleEnd, 1),
			Amount:          amount,
		})
		seq++
		current = dates.AddDays(cycleEnd, 1)
	}

	if n := len(drafts); n > 1 && drafts[n-1].LengthDays() < period/2 {
		drafts[n-2].End = drafts[n-1].End
		drafts[n-2].NextBillingDate = drafts[n-1].NextBillingDate
		drafts = drafts[:n-1]
	}

	trialStart := start
	if !p.TrialStart.IsZero() {
		trialStart = dates.Date(p.TrialStart)
	}
	for i := range drafts {
		offset := dates.DaysBetween(trialStart, drafts[i].Start)
		if offset >= 0 && offset < p.TrialDays {
			drafts[i].IsInTrial = true
			drafts[i].TrialDaysRemaining = p.TrialDays - offset
		}
	}
	return drafts, nil
}

// DaysUntilBilling returns max(0, next - today) in whole days.
func DaysUntilBilling(next, today time.Time) int {
	days := dates.DaysBetween(today, next)
	if days < 0 {
		return 0
	}
	return days
}
