package config

const (
	EnvPrefix = "HOSTEL"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv = "HOSTEL_APP_ENV"
	EnvPort   = "HOSTEL_APP_PORT"

	EnvDBDSN  = "HOSTEL_DB_DSN"
	EnvDBHost = "HOSTEL_DB_HOST"
	EnvDBUser = "HOSTEL_DB_USER"
	EnvDBName = "HOSTEL_DB_NAME"

	EnvRedisURL = "HOSTEL_REDIS_URL"

	EnvBillingInvoiceDueDays         = "HOSTEL_BILLING_INVOICE_DUE_DAYS"
	EnvBillingInvoiceNumberAttempts  = "HOSTEL_BILLING_INVOICE_NUMBER_ATTEMPTS"
	EnvBillingTrialAlertDays         = "HOSTEL_BILLING_TRIAL_ALERT_DAYS"
	EnvBillingUsageWarningPercent    = "HOSTEL_BILLING_USAGE_WARNING_PERCENT"
	EnvBillingReactivationWindowDays = "HOSTEL_BILLING_REACTIVATION_WINDOW_DAYS"

	EnvCommissionDefaultPercentage = "HOSTEL_COMMISSION_DEFAULT_PERCENTAGE"
	EnvCommissionMinPercentage     = "HOSTEL_COMMISSION_MIN_PERCENTAGE"
	EnvCommissionMaxPercentage     = "HOSTEL_COMMISSION_MAX_PERCENTAGE"
	EnvCommissionPlanRates         = "HOSTEL_COMMISSION_PLAN_RATES"
	EnvCommissionDueDays           = "HOSTEL_COMMISSION_DUE_DAYS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
