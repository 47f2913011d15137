// Package optional distinguishes a JSON field that was omitted from one that
// was sent with its zero value (or null).
package optional

import (
	"bytes"
	"encoding/json"
)

// Value holds a decoded field and whether it appeared in the payload at all.
// A field sent as null is Set and Null; for Value[*T] Val is then nil, for
// other types it keeps its zero value.
type Value[T any] struct {
	Val  T
	Set  bool
	Null bool
}

// Of returns a Value that is set to v.
func Of[T any](v T) Value[T] {
	return Value[T]{Val: v, Set: true}
}

// UnmarshalJSON marks the value as present. encoding/json calls it for an
// explicit null too, so null counts as present.
func (v *Value[T]) UnmarshalJSON(data []byte) error {
	v.Set = true
	v.Null = string(bytes.TrimSpace(data)) == "null"
	return json.Unmarshal(data, &v.Val)
}

// MarshalJSON encodes the wrapped value.
func (v Value[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Val)
}

// Apply writes the value into dst when it was set and reports whether it did.
func (v Value[T]) Apply(dst *T) bool {
	if !v.Set {
		return false
	}
	*dst = v.Val
	return true
}
