package options

import "fmt"

type selectionKind uint8

const (
	kindNone selectionKind = iota
	kindSome
	kindUnresolved
)

// Selection is the owner-held current value of a selector. None is an
// explicit "nothing selected" and is always valid. Unresolved is what a
// resolver produces when no enabled option exists; it is not None and must
// not be treated as one.
type Selection[V any] struct {
	value V
	kind  selectionKind
}

func None[V any]() Selection[V] {
	return Selection[V]{kind: kindNone}
}

func Some[V any](v V) Selection[V] {
	return Selection[V]{value: v, kind: kindSome}
}

func Unresolved[V any]() Selection[V] {
	return Selection[V]{kind: kindUnresolved}
}

// Value returns the selected value and whether there is one.
func (s Selection[V]) Value() (V, bool) {
	return s.value, s.kind == kindSome
}

func (s Selection[V]) IsNone() bool       { return s.kind == kindNone }
func (s Selection[V]) IsUnresolved() bool { return s.kind == kindUnresolved }

// Equal compares state and, for Some, the value structurally.
func (s Selection[V]) Equal(o Selection[V]) bool {
	if s.kind != o.kind {
		return false
	}
	if s.kind != kindSome {
		return true
	}
	return Equal(s.value, o.value)
}

func (s Selection[V]) String() string {
	switch s.kind {
	case kindSome:
		return fmt.Sprint(s.value)
	case kindUnresolved:
		return "<unresolved>"
	default:
		return "<none>"
	}
}

// ResolveFunc picks a replacement for an invalid selection.
type ResolveFunc[V any] func(a Arrangement[V]) Selection[V]

// FirstEnabled picks the first enabled option in presentation order, or
// Unresolved when every option is disabled.
func FirstEnabled[V any](a Arrangement[V]) Selection[V] {
	for _, g := range a.Groups {
		for _, o := range g.Options {
			if o.Enabled {
				return Some(o.Value)
			}
		}
	}
	return Unresolved[V]()
}

// Resolution is the outcome of validating a selection. Replacement is only
// set when Valid is false.
type Resolution[V any] struct {
	Valid       bool
	Replacement Selection[V]
}

// IsValid reports whether s is None or equals the value of an enabled
// option.
func IsValid[V any](s Selection[V], opts []Option[V]) bool {
	if s.IsNone() {
		return true
	}
	v, ok := s.Value()
	if !ok {
		return false
	}
	k := Key(v)
	for _, o := range opts {
		if o.Enabled && Key(o.Value) == k {
			return true
		}
	}
	return false
}

// Resolve validates current against the arrangement and, when invalid, asks
// policy (FirstEnabled when nil) for a replacement.
func Resolve[V any](current Selection[V], a Arrangement[V], policy ResolveFunc[V]) Resolution[V] {
	if IsValid(current, a.Flatten()) {
		return Resolution[V]{Valid: true}
	}
	if policy == nil {
		policy = FirstEnabled[V]
	}
	return Resolution[V]{Replacement: policy(a)}
}

// OptionFor returns the first option, enabled or not, whose value equals the
// selection.
func OptionFor[V any](s Selection[V], opts []Option[V]) (Option[V], bool) {
	v, ok := s.Value()
	if !ok {
		return Option[V]{}, false
	}
	k := Key(v)
	for _, o := range opts {
		if Key(o.Value) == k {
			return o, true
		}
	}
	return Option[V]{}, false
}
