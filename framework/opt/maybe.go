// Package opt provides an optional value type.
package opt

import "fmt"

// Maybe holds either a value or nothing. The zero value holds nothing.
type Maybe[V any] struct {
	defined bool
	value   V
}

// Some returns a Maybe holding value.
func Some[V any](value V) Maybe[V] {
	return Maybe[V]{defined: true, value: value}
}

// None returns an empty Maybe.
func None[V any]() Maybe[V] { return Maybe[V]{} }

func (m Maybe[V]) IsDefined() bool { return m.defined }

// Value returns the held value, or the zero value of V if there is none.
func (m Maybe[V]) Value() V { return m.value }

func (m Maybe[V]) OrElse(fallback V) V {
	if m.defined {
		return m.value
	}
	return fallback
}

// Get returns the value and whether it was present, in the style of a map lookup.
func (m Maybe[V]) Get() (V, bool) { return m.value, m.defined }

func (m Maybe[V]) String() string {
	if !m.defined {
		return "[none]"
	}
	if s, ok := any(m.value).(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", m.value)
}
