package models

// All lists every persisted model, in dependency order, for AutoMigrate in tests and dev.
func All() []any {
	return []any{
		&Plan{},
		&Subscription{},
		&SubscriptionHistory{},
		&BillingCycle{},
		&Invoice{},
		&Commission{},
		&FeatureUsage{},
		&SubscriptionLimit{},
		&Cancellation{},
	}
}
