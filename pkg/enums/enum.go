package enums

import (
	"fmt"
	"strings"
)

// set is the closed list of values for one string enum, in declaration order.
type set[T ~string] struct {
	kind   string
	values []T
}

func newSet[T ~string](kind string, values ...T) set[T] {
	return set[T]{kind: kind, values: values}
}

func (s set[T]) contains(value T) bool {
	for _, candidate := range s.values {
		if candidate == value {
			return true
		}
	}
	return false
}

// parse matches raw case-insensitively after trimming surrounding space.
func (s set[T]) parse(raw string) (T, error) {
	normalized := T(strings.ToLower(strings.TrimSpace(raw)))
	if s.contains(normalized) {
		return normalized, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", s.kind, raw)
}

func (s set[T]) all() []T {
	out := make([]T, len(s.values))
	copy(out, s.values)
	return out
}
