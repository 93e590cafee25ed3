package enums

// CommissionStatus is the settlement state of a booking commission.
type CommissionStatus string

const (
	CommissionStatusPending    CommissionStatus = "pending"
	CommissionStatusProcessing CommissionStatus = "processing"
	CommissionStatusPaid       CommissionStatus = "paid"
	CommissionStatusCancelled  CommissionStatus = "cancelled"
	CommissionStatusWaived     CommissionStatus = "waived"
	CommissionStatusDisputed   CommissionStatus = "disputed"
	CommissionStatusRefunded   CommissionStatus = "refunded"
)

var commissionStatuses = newSet("commission status",
	CommissionStatusPending,
	CommissionStatusProcessing,
	CommissionStatusPaid,
	CommissionStatusCancelled,
	CommissionStatusWaived,
	CommissionStatusDisputed,
	CommissionStatusRefunded,
)

func (c CommissionStatus) String() string {
	return string(c)
}

func (c CommissionStatus) IsValid() bool {
	return commissionStatuses.contains(c)
}

func ParseCommissionStatus(value string) (CommissionStatus, error) {
	return commissionStatuses.parse(value)
}

var commissionTransitions = map[CommissionStatus][]CommissionStatus{
	CommissionStatusPending: {
		CommissionStatusProcessing,
		CommissionStatusCancelled,
		CommissionStatusWaived,
		CommissionStatusDisputed,
	},
	CommissionStatusProcessing: {
		CommissionStatusPaid,
		CommissionStatusCancelled,
		CommissionStatusWaived,
		CommissionStatusDisputed,
	},
	CommissionStatusPaid: {
		CommissionStatusRefunded,
	},
}

// CanTransitionTo reports whether next is a listed transition from c.
func (c CommissionStatus) CanTransitionTo(next CommissionStatus) bool {
	for _, candidate := range commissionTransitions[c] {
		if candidate == next {
			return true
		}
	}
	return false
}

// CountsTowardsOverdue reports whether a commission in this status can be overdue.
func (c CommissionStatus) CountsTowardsOverdue() bool {
	switch c {
	case CommissionStatusPaid, CommissionStatusCancelled, CommissionStatusRefunded:
		return false
	default:
		return true
	}
}

// IsCollectible reports whether the commission still counts as money owed to the platform.
func (c CommissionStatus) IsCollectible() bool {
	switch c {
	case CommissionStatusCancelled, CommissionStatusWaived, CommissionStatusRefunded:
		return false
	default:
		return true
	}
}
