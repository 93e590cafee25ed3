package types

import (
	"bytes"
	"encoding/json"
)

// NullableInt64 tracks whether an integer field was explicitly present in JSON.
// Valid with a nil Value means the client asked to clear the field.
type NullableInt64 struct {
	Valid bool
	Value *int64
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *NullableInt64) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}

	n.Valid = true
	if bytes.Equal(trimmed, []byte("null")) {
		n.Value = nil
		return nil
	}

	var parsed int64
	if err := json.Unmarshal(trimmed, &parsed); err != nil {
		return err
	}
	n.Value = &parsed
	return nil
}

// SetInt64 builds a present value.
func SetInt64(v int64) NullableInt64 {
	return NullableInt64{Valid: true, Value: &v}
}

// ClearInt64 builds an explicit null.
func ClearInt64() NullableInt64 {
	return NullableInt64{Valid: true}
}

// Apply writes the value into dst when it was present.
func (n NullableInt64) Apply(dst **int64) {
	if !n.Valid {
		return
	}
	if n.Value == nil {
		*dst = nil
		return
	}
	v := *n.Value
	*dst = &v
}
