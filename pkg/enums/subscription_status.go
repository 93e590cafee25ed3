package enums

// SubscriptionStatus is the lifecycle state of a hostel subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusSuspended SubscriptionStatus = "suspended"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

var subscriptionStatuses = newSet("subscription status",
	SubscriptionStatusActive,
	SubscriptionStatusSuspended,
	SubscriptionStatusExpired,
	SubscriptionStatusCancelled,
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) IsValid() bool {
	return subscriptionStatuses.contains(s)
}

func ParseSubscriptionStatus(value string) (SubscriptionStatus, error) {
	return subscriptionStatuses.parse(value)
}

// IsRenewable reports whether a new term may be opened from this status.
func (s SubscriptionStatus) IsRenewable() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusExpired
}
