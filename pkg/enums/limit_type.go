package enums

// LimitType names a coarse resource bounded by a subscription limit.
type LimitType string

const (
	LimitTypeHostels  LimitType = "hostels"
	LimitTypeRooms    LimitType = "rooms"
	LimitTypeStudents LimitType = "students"
	LimitTypeAdmins   LimitType = "admins"
)

var limitTypes = newSet("limit type",
	LimitTypeHostels,
	LimitTypeRooms,
	LimitTypeStudents,
	LimitTypeAdmins,
)

func (l LimitType) String() string {
	return string(l)
}

func (l LimitType) IsValid() bool {
	return limitTypes.contains(l)
}

func ParseLimitType(value string) (LimitType, error) {
	return limitTypes.parse(value)
}

// LimitTypes returns every known limit type in declaration order.
func LimitTypes() []LimitType {
	return limitTypes.all()
}
