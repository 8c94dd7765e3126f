package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"metaselect/internal/fields"
	"metaselect/internal/options"
)

func TestParseWhere(t *testing.T) {
	got, err := parseWhere([]string{"model_id=CanESM2", "multi_year_mean=true", "experiment=historical, rcp85"})
	if err != nil {
		t.Fatalf("parseWhere: %v", err)
	}
	want := options.Constraint{"model_id": "CanESM2", "multi_year_mean": true, "experiment": "historical, rcp85"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("constraint mismatch (-want +got):\n%s", diff)
	}
	if c, err := parseWhere(nil); err != nil || c != nil {
		t.Errorf("parseWhere(nil) = %v, %v", c, err)
	}
	if _, err := parseWhere([]string{"novalue"}); err == nil {
		t.Error("expected an error without '='")
	}
}

func TestParseSelection(t *testing.T) {
	if got := parseSelection("CanESM2"); got != "CanESM2" {
		t.Errorf("plain value = %v", got)
	}
	got := parseSelection(`{"start_date":"1961","end_date":"1990"}`)
	want := map[string]any{"start_date": "1961", "end_date": "1990"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("record value mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteOptionsTableReportsReplacement(t *testing.T) {
	snap := fields.NewModel(nil).Evaluate(
		options.NewRecordSet(testRecords),
		options.Constraint{"experiment": "historical, rcp45"},
		options.Some[any]("MRI-CGCM3"),
	)
	var buf bytes.Buffer
	writeOptionsTable(&buf, snap)
	out := buf.String()
	for _, want := range []string{"CanESM2", "MRI-CGCM3", "no", "replacement: CanESM2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRecordFieldsSortedUnion(t *testing.T) {
	got := recordFields([]options.Record{{"b": 1, "a": 2}, {"c": 3, "a": 4}})
	if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
}
