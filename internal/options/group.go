package options

import "fmt"

// Group is one distinct projected value and every record that produced it.
type Group[V any] struct {
	Value    V
	Contexts []Record
}

// Option is a selectable value. Enabled is only meaningful on options that
// went through Constrain.
type Option[V any] struct {
	Value    V
	Contexts []Record
	Label    string
	Enabled  bool
}

// LabelFunc maps a group to its display label. all is the complete record
// list the group was derived from, for labels numbered across every record
// rather than across the current option set.
type LabelFunc[V any] func(g Group[V], all []Record) string

// LabelSetFunc builds a labeler once per record set. Use it instead of a
// LabelFunc when every label needs the same summary of all records.
type LabelSetFunc[V any] func(all []Record) func(g Group[V]) string

// DefaultLabel renders the value with fmt.
func DefaultLabel[V any](g Group[V], _ []Record) string {
	return fmt.Sprint(g.Value)
}

// GroupRecords groups records by the structural equality of valueOf(record).
// Groups come out in first-seen order and each group's contexts keep input
// order.
func GroupRecords[V any](records []Record, valueOf func(Record) V) []Group[V] {
	index := make(map[string]int)
	var groups []Group[V]
	for _, r := range records {
		v := valueOf(r)
		k := Key(v)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group[V]{Value: v})
		}
		groups[i].Contexts = append(groups[i].Contexts, r)
	}
	return groups
}

// LabelGroups turns groups into options. Options come back with Enabled
// unset.
func LabelGroups[V any](groups []Group[V], all []Record, labelOf LabelFunc[V]) []Option[V] {
	if labelOf == nil {
		labelOf = DefaultLabel[V]
	}
	return labelEach(groups, func(g Group[V]) string { return labelOf(g, all) })
}

func labelEach[V any](groups []Group[V], label func(Group[V]) string) []Option[V] {
	out := make([]Option[V], 0, len(groups))
	for _, g := range groups {
		out = append(out, Option[V]{
			Value:    g.Value,
			Contexts: g.Contexts,
			Label:    label(g),
		})
	}
	return out
}
