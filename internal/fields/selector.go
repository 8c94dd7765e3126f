package fields

import (
	"errors"
	"fmt"
	"log/slog"

	"metaselect/internal/options"
)

var ErrUnknownField = errors.New("unknown field")

// Selector is a field selector with its value type erased, so hosts can hold
// selectors of different fields side by side.
type Selector interface {
	Name() string
	Title() string
	Evaluate(set options.RecordSet, c options.Constraint, current options.Selection[any]) Snapshot
	Constraint(current options.Selection[any]) options.Constraint
}

// Entry is one option of a snapshot in presentation order.
type Entry struct {
	Group    string
	Label    string
	Value    any
	Enabled  bool
	Contexts int
}

// Snapshot is a type-erased options.View.
type Snapshot struct {
	Seq             uint64
	Name            string
	Title           string
	Grouped         bool
	Entries         []Entry
	Current         int
	Selection       options.Selection[any]
	Correction      options.Selection[any]
	NeedsCorrection bool
}

// CurrentEntry returns the entry shown as selected.
func (s Snapshot) CurrentEntry() (Entry, bool) {
	if s.Current < 0 || s.Current >= len(s.Entries) {
		return Entry{}, false
	}
	return s.Entries[s.Current], true
}

// Effect returns the deferred correction for this snapshot, or nil.
func (s Snapshot) Effect(notify func(options.Selection[any])) func() {
	if !s.NeedsCorrection || notify == nil {
		return nil
	}
	replacement := s.Correction
	return func() {
		notify(replacement)
	}
}

// Field is a configured selector for one metadata field.
type Field[V any] struct {
	name       string
	title      string
	deriver    *options.Deriver[V]
	contribute func(options.Selection[V]) options.Constraint
}

func newField[V any](name, title string, cfg options.Config[V], contribute func(options.Selection[V]) options.Constraint, logger *slog.Logger) *Field[V] {
	cfg.Name = name
	cfg.Logger = logger
	return &Field[V]{
		name:       name,
		title:      title,
		deriver:    options.MustNew(cfg),
		contribute: contribute,
	}
}

func (f *Field[V]) Name() string  { return f.name }
func (f *Field[V]) Title() string { return f.title }

func (f *Field[V]) Deriver() *options.Deriver[V] {
	return f.deriver
}

// Constraint is what this field's selection contributes to selectors after
// it in a chain.
func (f *Field[V]) Constraint(current options.Selection[any]) options.Constraint {
	return f.contribute(narrow[V](current))
}

func (f *Field[V]) Evaluate(set options.RecordSet, c options.Constraint, current options.Selection[any]) Snapshot {
	view := f.deriver.Evaluate(set, c, narrow[V](current))
	snap := Snapshot{
		Seq:             view.Seq,
		Name:            f.name,
		Title:           f.title,
		Grouped:         view.Arrangement.Grouped(),
		Current:         -1,
		Selection:       current,
		Correction:      widen(view.Correction),
		NeedsCorrection: view.NeedsCorrection,
	}
	currentKey := ""
	if view.HasCurrent {
		currentKey = options.Key(view.Current.Value)
	}
	for _, g := range view.Arrangement.Groups {
		for _, o := range g.Options {
			if snap.Current < 0 && view.HasCurrent && options.Key(o.Value) == currentKey {
				snap.Current = len(snap.Entries)
			}
			snap.Entries = append(snap.Entries, Entry{
				Group:    g.Label,
				Label:    o.Label,
				Value:    o.Value,
				Enabled:  o.Enabled,
				Contexts: len(o.Contexts),
			})
		}
	}
	return snap
}

func narrow[V any](s options.Selection[any]) options.Selection[V] {
	if s.IsNone() {
		return options.None[V]()
	}
	v, ok := s.Value()
	if !ok {
		return options.Unresolved[V]()
	}
	if tv, ok := v.(V); ok {
		return options.Some(tv)
	}
	if m, ok := v.(map[string]any); ok {
		if tv, ok := any(options.Record(m)).(V); ok {
			return options.Some(tv)
		}
	}
	return options.Unresolved[V]()
}

func widen[V any](s options.Selection[V]) options.Selection[any] {
	if s.IsNone() {
		return options.None[any]()
	}
	if v, ok := s.Value(); ok {
		return options.Some[any](v)
	}
	return options.Unresolved[any]()
}

// Names lists the known fields.
func Names() []string {
	return []string{Model, Emissions, Variable, TimePeriod, Dataset}
}

// Lookup builds the selector for a field name.
func Lookup(name string, logger *slog.Logger) (Selector, error) {
	switch name {
	case Model:
		return NewModel(logger), nil
	case Emissions:
		return NewEmissions(logger), nil
	case Variable:
		return NewVariable(logger), nil
	case TimePeriod:
		return NewTimePeriod(logger), nil
	case Dataset:
		return NewDataset(logger), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
}
