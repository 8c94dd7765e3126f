package options

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Record is one metadata item. Records are owned by the metadata source and
// are never modified by this package.
type Record map[string]any

// Constraint is a partial-object pattern matched against records. A nil or
// empty constraint matches everything.
type Constraint map[string]any

// Key returns the canonical form of v used for structural equality. Maps are
// encoded with sorted keys, so two values with the same fields and field
// values share a key regardless of construction order.
func Key(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}
	return string(data)
}

// Equal reports whether a and b are structurally equal.
func Equal(a, b any) bool {
	return Key(a) == Key(b)
}

// Fingerprint hashes the canonical form of v. Empty constraints and nil share
// fingerprint zero since both match every record.
func Fingerprint(v any) uint64 {
	switch c := v.(type) {
	case nil:
		return 0
	case Constraint:
		if len(c) == 0 {
			return 0
		}
	}
	return xxhash.Sum64String(Key(v))
}

// RecordSet pairs a record list with its content fingerprint so derived
// results can be cached by value without rehashing on every evaluation.
type RecordSet struct {
	Records     []Record
	Fingerprint uint64
}

func NewRecordSet(records []Record) RecordSet {
	d := xxhash.New()
	for _, r := range records {
		_, _ = d.WriteString(Key(r))
		_, _ = d.WriteString("\n")
	}
	return RecordSet{Records: records, Fingerprint: d.Sum64()}
}

func (s RecordSet) Len() int {
	return len(s.Records)
}
