package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Billing      BillingConfig
	Commission   CommissionConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Billing.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Commission.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"HOSTEL_APP_ENV" required:"true"`
	Port         string `envconfig:"HOSTEL_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"HOSTEL_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"HOSTEL_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"HOSTEL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"HOSTEL_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN string `envconfig:"HOSTEL_DB_DSN"`

	LegacyHost     string `envconfig:"HOSTEL_DB_HOST"`
	LegacyPort     int    `envconfig:"HOSTEL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HOSTEL_DB_USER"`
	LegacyPassword string `envconfig:"HOSTEL_DB_PASSWORD"`
	LegacyName     string `envconfig:"HOSTEL_DB_NAME"`
	LegacySSLMode  string `envconfig:"HOSTEL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HOSTEL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HOSTEL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HOSTEL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HOSTEL_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"HOSTEL_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

// RedisConfig is only required by the billing worker, which uses redis for job locks.
type RedisConfig struct {
	URL          string        `envconfig:"HOSTEL_REDIS_URL"`
	Address      string        `envconfig:"HOSTEL_REDIS_ADDR"`
	Password     string        `envconfig:"HOSTEL_REDIS_PASSWORD"`
	DB           int           `envconfig:"HOSTEL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HOSTEL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HOSTEL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HOSTEL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HOSTEL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HOSTEL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Configured reports whether any redis endpoint was provided.
func (r RedisConfig) Configured() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type BillingConfig struct {
	InvoiceDueDays         int   `envconfig:"HOSTEL_BILLING_INVOICE_DUE_DAYS" default:"15"`
	InvoiceNumberAttempts  int   `envconfig:"HOSTEL_BILLING_INVOICE_NUMBER_ATTEMPTS" default:"5"`
	TrialAlertDays         []int `envconfig:"HOSTEL_BILLING_TRIAL_ALERT_DAYS" default:"7,3,1"`
	UsageWarningPercent    int   `envconfig:"HOSTEL_BILLING_USAGE_WARNING_PERCENT" default:"80"`
	ReactivationWindowDays int   `envconfig:"HOSTEL_BILLING_REACTIVATION_WINDOW_DAYS" default:"30"`
	BatchSize              int   `envconfig:"HOSTEL_BILLING_BATCH_SIZE" default:"200"`
}

func (b BillingConfig) validate() error {
	if b.InvoiceDueDays < 0 {
		return fmt.Errorf("%s must be >= 0", EnvBillingInvoiceDueDays)
	}
	if b.InvoiceNumberAttempts < 1 {
		return fmt.Errorf("%s must be >= 1", EnvBillingInvoiceNumberAttempts)
	}
	if b.UsageWarningPercent < 1 || b.UsageWarningPercent > 100 {
		return fmt.Errorf("%s must be between 1 and 100", EnvBillingUsageWarningPercent)
	}
	for _, days := range b.TrialAlertDays {
		if days < 0 {
			return fmt.Errorf("%s entries must be >= 0", EnvBillingTrialAlertDays)
		}
	}
	if b.ReactivationWindowDays < 0 {
		return fmt.Errorf("%s must be >= 0", EnvBillingReactivationWindowDays)
	}
	return nil
}

// CommissionConfig is the commission rate table. PlanRates is parsed from "basic:5,premium:3.5".
type CommissionConfig struct {
	DefaultPercentage decimal.Decimal            `envconfig:"HOSTEL_COMMISSION_DEFAULT_PERCENTAGE" default:"5.00"`
	MinPercentage     decimal.Decimal            `envconfig:"HOSTEL_COMMISSION_MIN_PERCENTAGE" default:"0"`
	MaxPercentage     decimal.Decimal            `envconfig:"HOSTEL_COMMISSION_MAX_PERCENTAGE" default:"30"`
	PlanRates         map[string]decimal.Decimal `envconfig:"HOSTEL_COMMISSION_PLAN_RATES"`
	DueDays           int                        `envconfig:"HOSTEL_COMMISSION_DUE_DAYS" default:"30"`
}

// Validate enforces min <= default <= max and keeps every plan rate inside the bounds.
func (c CommissionConfig) Validate() error {
	hundred := decimal.NewFromInt(100)
	if c.MinPercentage.IsNegative() || c.MaxPercentage.GreaterThan(hundred) {
		return fmt.Errorf("commission bounds must fall within 0-100")
	}
	if c.MinPercentage.GreaterThan(c.DefaultPercentage) || c.DefaultPercentage.GreaterThan(c.MaxPercentage) {
		return fmt.Errorf("commission percentages must satisfy min <= default <= max (got %s <= %s <= %s)",
			c.MinPercentage, c.DefaultPercentage, c.MaxPercentage)
	}
	for planType, rate := range c.PlanRates {
		if rate.LessThan(c.MinPercentage) || rate.GreaterThan(c.MaxPercentage) {
			return fmt.Errorf("commission rate for plan %q (%s) outside bounds", planType, rate)
		}
	}
	if c.DueDays < 0 {
		return fmt.Errorf("%s must be >= 0", EnvCommissionDueDays)
	}
	return nil
}

type CronConfig struct {
	Interval   time.Duration `envconfig:"HOSTEL_CRON_INTERVAL" default:"15m"`
	LockTTL    time.Duration `envconfig:"HOSTEL_CRON_LOCK_TTL" default:"10m"`
	JobTimeout time.Duration `envconfig:"HOSTEL_CRON_JOB_TIMEOUT" default:"5m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"HOSTEL_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
