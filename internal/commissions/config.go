package commissions

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Kiran3100/Hostel-Main-sub019/pkg/config"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/money"
)

// Config is the read-only commission rate table handed to the calculator.
type Config struct {
	defaultRate decimal.Decimal
	minRate     decimal.Decimal
	maxRate     decimal.Decimal
	planRates   map[string]decimal.Decimal
	dueDays     int
}

// NewConfig validates min <= default <= max, keeps every plan rate inside the
// bounds and copies the rate table.
func NewConfig(defaultRate, minRate, maxRate decimal.Decimal, planRates map[string]decimal.Decimal, dueDays int) (Config, error) {
	if !money.ValidPercentage(minRate) || !money.ValidPercentage(maxRate) || !money.ValidPercentage(defaultRate) {
		return Config{}, fmt.Errorf("commission percentages must fall within 0-100")
	}
	if minRate.GreaterThan(defaultRate) || defaultRate.GreaterThan(maxRate) {
		return Config{}, fmt.Errorf("commission percentages must satisfy min <= default <= max (got %s <= %s <= %s)",
			minRate, defaultRate, maxRate)
	}
	if dueDays < 0 {
		return Config{}, fmt.Errorf("commission due days must be >= 0")
	}
	rates := make(map[string]decimal.Decimal, len(planRates))
	for planType, rate := range planRates {
		key := normalizePlanType(planType)
		if key == "" {
			return Config{}, fmt.Errorf("commission plan type is required")
		}
		if rate.LessThan(minRate) || rate.GreaterThan(maxRate) {
			return Config{}, fmt.Errorf("commission rate for plan %q (%s) outside bounds", planType, rate)
		}
		rates[key] = rate
	}
	return Config{
		defaultRate: defaultRate,
		minRate:     minRate,
		maxRate:     maxRate,
		planRates:   rates,
		dueDays:     dueDays,
	}, nil
}

// ConfigFrom converts the loaded environment section.
func ConfigFrom(cfg config.CommissionConfig) (Config, error) {
	return NewConfig(cfg.DefaultPercentage, cfg.MinPercentage, cfg.MaxPercentage, cfg.PlanRates, cfg.DueDays)
}

// RateForPlan returns the plan-type override or the default rate.
func (c Config) RateForPlan(planType string) decimal.Decimal {
	if rate, ok := c.planRates[normalizePlanType(planType)]; ok {
		return rate
	}
	return c.defaultRate
}

// Allows reports whether pct lies inside the configured bounds.
func (c Config) Allows(pct decimal.Decimal) bool {
	return money.ValidPercentage(pct) && !pct.LessThan(c.minRate) && !pct.GreaterThan(c.maxRate)
}

func (c Config) DefaultRate() decimal.Decimal { return c.defaultRate }

func (c Config) DueDays() int { return c.dueDays }

func normalizePlanType(planType string) string {
	return strings.ToLower(strings.TrimSpace(planType))
}
