package options

import (
	"slices"
	"strings"
)

// OptionGroup is a titled run of options. Flat arrangements use a single
// group with an empty label.
type OptionGroup[V any] struct {
	Label   string
	Options []Option[V]
}

// Arrangement is the presentation structure handed to a renderer.
type Arrangement[V any] struct {
	Groups []OptionGroup[V]
}

// ArrangeFunc orders and groups constrained options for presentation.
type ArrangeFunc[V any] func(opts []Option[V]) Arrangement[V]

// Flatten returns every option in presentation order.
func (a Arrangement[V]) Flatten() []Option[V] {
	var out []Option[V]
	for _, g := range a.Groups {
		out = append(out, g.Options...)
	}
	return out
}

// Grouped reports whether any group carries a title.
func (a Arrangement[V]) Grouped() bool {
	for _, g := range a.Groups {
		if g.Label != "" {
			return true
		}
	}
	return false
}

func (a Arrangement[V]) Len() int {
	n := 0
	for _, g := range a.Groups {
		n += len(g.Options)
	}
	return n
}

// SortByLabel is the default arrangement: one flat group, stable-sorted by
// label.
func SortByLabel[V any](opts []Option[V]) Arrangement[V] {
	return Arrangement[V]{Groups: []OptionGroup[V]{{Options: sortedByLabel(opts)}}}
}

// PartitionSpec names one group of a partitioned arrangement.
type PartitionSpec[V any] struct {
	Label   string
	Include func(Option[V]) bool
}

// Partition builds an arrangement with one group per spec, in spec order,
// each sorted by label. Options no spec includes are left out.
func Partition[V any](specs ...PartitionSpec[V]) ArrangeFunc[V] {
	return func(opts []Option[V]) Arrangement[V] {
		groups := make([]OptionGroup[V], 0, len(specs))
		for _, spec := range specs {
			var members []Option[V]
			for _, o := range opts {
				if spec.Include(o) {
					members = append(members, o)
				}
			}
			groups = append(groups, OptionGroup[V]{Label: spec.Label, Options: sortedByLabel(members)})
		}
		return Arrangement[V]{Groups: groups}
	}
}

func sortedByLabel[V any](opts []Option[V]) []Option[V] {
	out := slices.Clone(opts)
	slices.SortStableFunc(out, func(a, b Option[V]) int {
		return strings.Compare(a.Label, b.Label)
	})
	return out
}
