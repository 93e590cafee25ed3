package plans

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Kiran3100/Hostel-Main-sub019/pkg/db/models"
	pkgerrors "github.com/Kiran3100/Hostel-Main-sub019/pkg/errors"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/money"
)

const maxTrialDays = 90

var twelve = decimal.NewFromInt(12)

// Validate checks a plan definition and returns a ValidationError listing every bad field.
func Validate(plan *models.Plan) error {
	problems := map[string]string{}

	if strings.TrimSpace(plan.Name) == "" {
		problems["name"] = "is required"
	}
	if strings.TrimSpace(plan.PlanType) == "" {
		problems["plan_type"] = "is required"
	}
	if plan.PriceMonthly.IsNegative() {
		problems["price_monthly"] = "must be >= 0"
	}
	if plan.PriceYearly.IsNegative() {
		problems["price_yearly"] = "must be >= 0"
	}
	if plan.PriceYearly.GreaterThan(plan.PriceMonthly.Mul(twelve)) {
		problems["price_yearly"] = "must not exceed 12x price_monthly"
	}
	if !money.ValidCurrency(plan.Currency) {
		problems["currency"] = "must be a 3-letter ISO-4217 code"
	}
	if plan.TrialDays < 0 || plan.TrialDays > maxTrialDays {
		problems["trial_days"] = "must be between 0 and 90"
	}
	for limitType, limit := range plan.ResourceLimits() {
		if limit != nil && *limit <= 0 {
			problems["max_"+limitType.String()] = "must be positive or unlimited"
		}
	}
	for key, feature := range plan.Features {
		if strings.TrimSpace(key) == "" {
			problems["features"] = "feature keys must not be empty"
			continue
		}
		if feature.Limit != nil && *feature.Limit < 0 {
			problems["features."+key] = "limit must be >= 0"
		}
	}

	if len(problems) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid plan").WithDetails(problems)
	}
	return nil
}
