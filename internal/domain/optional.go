package domain

import (
	"bytes"
	"encoding/json"
)

// Optional distinguishes a field that was omitted from one that was sent.
// A JSON null sets the field with its zero value, so callers can tell
// "absent" (Set == false) from "present but null or empty".
type Optional[T any] struct {
	Value T
	Set   bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// UnmarshalJSON is only invoked by encoding/json when the key is present.
func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		var zero T
		o.Value = zero
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}

// Or returns the value when set and fallback otherwise.
func (o Optional[T]) Or(fallback T) T {
	if o.Set {
		return o.Value
	}
	return fallback
}
