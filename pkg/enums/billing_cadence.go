package enums

// BillingCadence defines how often a subscription is billed.
type BillingCadence string

const (
	BillingCadenceMonthly BillingCadence = "monthly"
	BillingCadenceYearly  BillingCadence = "yearly"
)

var billingCadences = newSet("billing cadence",
	BillingCadenceMonthly,
	BillingCadenceYearly,
)

func (b BillingCadence) String() string {
	return string(b)
}

func (b BillingCadence) IsValid() bool {
	return billingCadences.contains(b)
}

func ParseBillingCadence(value string) (BillingCadence, error) {
	return billingCadences.parse(value)
}

// PeriodDays returns the fixed billing period length. Cycles are not calendar aware.
func (b BillingCadence) PeriodDays() int {
	switch b {
	case BillingCadenceYearly:
		return 365
	default:
		return 30
	}
}

// MonthlyDivisor returns how many months one billing amount covers.
func (b BillingCadence) MonthlyDivisor() int64 {
	switch b {
	case BillingCadenceYearly:
		return 12
	default:
		return 1
	}
}
