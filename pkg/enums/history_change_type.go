package enums

// HistoryChangeType labels a subscription history entry.
type HistoryChangeType string

const (
	HistoryChangeTypeCreated               HistoryChangeType = "created"
	HistoryChangeTypeActivated             HistoryChangeType = "activated"
	HistoryChangeTypeSuspended             HistoryChangeType = "suspended"
	HistoryChangeTypeExpired               HistoryChangeType = "expired"
	HistoryChangeTypeRenewed               HistoryChangeType = "renewed"
	HistoryChangeTypeCancelled             HistoryChangeType = "cancelled"
	HistoryChangeTypeCancellationScheduled HistoryChangeType = "cancellation_scheduled"
	HistoryChangeTypePlanChanged           HistoryChangeType = "plan_changed"
	HistoryChangeTypeAutoRenewToggled      HistoryChangeType = "auto_renew_toggled"
	HistoryChangeTypeTrialEnded            HistoryChangeType = "trial_ended"
	HistoryChangeTypePaymentRecorded       HistoryChangeType = "payment_recorded"
	HistoryChangeTypeDeleted               HistoryChangeType = "deleted"
)

var historyChangeTypes = newSet("history change type",
	HistoryChangeTypeCreated,
	HistoryChangeTypeActivated,
	HistoryChangeTypeSuspended,
	HistoryChangeTypeExpired,
	HistoryChangeTypeRenewed,
	HistoryChangeTypeCancelled,
	HistoryChangeTypeCancellationScheduled,
	HistoryChangeTypePlanChanged,
	HistoryChangeTypeAutoRenewToggled,
	HistoryChangeTypeTrialEnded,
	HistoryChangeTypePaymentRecorded,
	HistoryChangeTypeDeleted,
)

func (h HistoryChangeType) String() string {
	return string(h)
}

func (h HistoryChangeType) IsValid() bool {
	return historyChangeTypes.contains(h)
}

func ParseHistoryChangeType(value string) (HistoryChangeType, error) {
	return historyChangeTypes.parse(value)
}
