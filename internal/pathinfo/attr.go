package pathinfo

import (
	"encoding/json"
)

// Attr is a single path attribute. It holds a value, an inline error, or
// neither when the attribute is simply absent from the file name.
type Attr[T any] struct {
	value   T
	err     string
	present bool
}

// Value returns an attribute holding v.
func Value[T any](v T) Attr[T] {
	return Attr[T]{value: v, present: true}
}

// Missing returns an absent attribute. It renders as JSON null.
func Missing[T any]() Attr[T] {
	return Attr[T]{}
}

// Failed returns an attribute carrying an inline error marker.
func Failed[T any](err error) Attr[T] {
	return Attr[T]{err: err.Error()}
}

// Get returns the value and whether one is present.
func (a Attr[T]) Get() (T, bool) {
	return a.value, a.present
}

// Err returns the inline error message, if any.
func (a Attr[T]) Err() string {
	return a.err
}

type errorMarker struct {
	Error string `json:"error"`
}

// MarshalJSON renders the value, {"error": msg}, or null.
func (a Attr[T]) MarshalJSON() ([]byte, error) {
	switch {
	case a.err != "":
		return json.Marshal(errorMarker{Error: a.err})
	case !a.present:
		return []byte("null"), nil
	default:
		return json.Marshal(a.value)
	}
}

