package options

// Predicate decides whether an option is enabled under a constraint. It must
// depend only on its arguments.
type Predicate[V any] func(opt Option[V], c Constraint) bool

// Matches reports whether every field of c is present in r with an equal
// value. Nested maps in c match partially against nested maps in r.
func Matches(c Constraint, r Record) bool {
	for k, want := range c {
		got, ok := r[k]
		if !ok {
			return false
		}
		if !matchValue(want, got) {
			return false
		}
	}
	return true
}

func matchValue(want, got any) bool {
	if wm, ok := asMap(want); ok {
		gm, ok := asMap(got)
		if !ok {
			return false
		}
		return Matches(Constraint(wm), Record(gm))
	}
	return Equal(want, got)
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Record:
		return m, true
	case Constraint:
		return m, true
	}
	return nil, false
}

// IsEnabled reports whether at least one context satisfies c.
func IsEnabled(contexts []Record, c Constraint) bool {
	if len(c) == 0 {
		return true
	}
	for _, r := range contexts {
		if Matches(c, r) {
			return true
		}
	}
	return false
}

// MatchAny is the default predicate: some context matches the constraint.
func MatchAny[V any](opt Option[V], c Constraint) bool {
	return IsEnabled(opt.Contexts, c)
}

// Constrain returns a copy of opts with Enabled computed by pred, or by
// MatchAny when pred is nil.
func Constrain[V any](opts []Option[V], c Constraint, pred Predicate[V]) []Option[V] {
	if pred == nil {
		pred = MatchAny[V]
	}
	out := make([]Option[V], len(opts))
	for i, o := range opts {
		o.Enabled = pred(o, c)
		out[i] = o
	}
	return out
}
