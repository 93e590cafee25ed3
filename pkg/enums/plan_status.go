package enums

// PlanStatus tracks whether a plan version can be subscribed to.
type PlanStatus string

const (
	PlanStatusActive     PlanStatus = "active"
	PlanStatusSuperseded PlanStatus = "superseded"
	PlanStatusArchived   PlanStatus = "archived"
)

var planStatuses = newSet("plan status",
	PlanStatusActive,
	PlanStatusSuperseded,
	PlanStatusArchived,
)

func (p PlanStatus) String() string {
	return string(p)
}

func (p PlanStatus) IsValid() bool {
	return planStatuses.contains(p)
}

func ParsePlanStatus(value string) (PlanStatus, error) {
	return planStatuses.parse(value)
}

// IsEditable reports whether this plan version still accepts in-place edits.
// Superseded and archived versions are frozen.
func (p PlanStatus) IsEditable() bool {
	return p == PlanStatusActive
}
