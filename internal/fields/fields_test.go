package fields

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"metaselect/internal/options"
)

var meta = []options.Record{
	{"model_id": "CanESM2", "experiment": "historical, rcp85", "variable_id": "pr", "variable_name": "Precipitation", "multi_year_mean": true, "start_date": "1961", "end_date": "1990", "ensemble_member": "r1i1p1"},
	{"model_id": "CanESM2", "experiment": "historical, rcp45", "variable_id": "tasmax", "variable_name": "Maximum Temperature", "multi_year_mean": false, "start_date": "1950", "end_date": "2100", "ensemble_member": "r2i1p1"},
	{"model_id": "MRI-CGCM3", "experiment": "historical, rcp85", "variable_id": "pr", "variable_name": "Precipitation", "multi_year_mean": true, "start_date": "1971", "end_date": "2000", "ensemble_member": "r1i1p1"},
}

func labels(s Snapshot) []string {
	var out []string
	for _, e := range s.Entries {
		out = append(out, e.Group+"|"+e.Label)
	}
	return out
}

func TestVariableGroupsByMultiYearMean(t *testing.T) {
	snap := NewVariable(nil).Evaluate(options.NewRecordSet(meta), nil, options.None[any]())
	want := []string{
		"Multi-Year Mean Datasets|pr - Precipitation",
		"Time Series Datasets|tasmax - Maximum Temperature",
	}
	if diff := cmp.Diff(want, labels(snap)); diff != "" {
		t.Errorf("variable options mismatch (-want +got):\n%s", diff)
	}
	if !snap.Grouped {
		t.Error("variable snapshot not grouped")
	}
}

func TestDatasetLabelsNumberRunsAcrossAllRecords(t *testing.T) {
	snap := NewDataset(nil).Evaluate(
		options.NewRecordSet(meta),
		options.Constraint{"model_id": "CanESM2", "variable_id": "tasmax"},
		options.None[any](),
	)
	want := []string{
		"|Run 1 (r1i1p1), 1961–1990",
		"|Run 1 (r1i1p1), 1971–2000",
		"|Run 2 (r2i1p1), 1950–2100",
	}
	if diff := cmp.Diff(want, labels(snap)); diff != "" {
		t.Errorf("dataset labels mismatch (-want +got):\n%s", diff)
	}
	var enabled []bool
	for _, e := range snap.Entries {
		enabled = append(enabled, e.Enabled)
	}
	if diff := cmp.Diff([]bool{false, false, true}, enabled); diff != "" {
		t.Errorf("dataset enabled mismatch (-want +got):\n%s", diff)
	}
}

func TestModelCorrectionUnderConstraint(t *testing.T) {
	snap := NewModel(nil).Evaluate(
		options.NewRecordSet(meta),
		options.Constraint{"experiment": "historical, rcp45"},
		options.Some[any]("MRI-CGCM3"),
	)
	if !snap.NeedsCorrection {
		t.Fatal("MRI-CGCM3 has no rcp45 run but was accepted")
	}
	if !snap.Correction.Equal(options.Some[any]("CanESM2")) {
		t.Errorf("correction = %v, want CanESM2", snap.Correction)
	}
	cur, ok := snap.CurrentEntry()
	if !ok || cur.Label != "CanESM2" {
		t.Errorf("current entry = %v, %v", cur, ok)
	}
}

func TestRecordSelectionsAcceptPlainMaps(t *testing.T) {
	picked := map[string]any{"start_date": "1961", "end_date": "1990"}
	snap := NewTimePeriod(nil).Evaluate(options.NewRecordSet(meta), nil, options.Some[any](picked))
	if snap.NeedsCorrection {
		t.Errorf("valid time period corrected to %v", snap.Correction)
	}
	if snap.Current < 0 {
		t.Error("time period not shown as current")
	}
}

func TestConstraintContributions(t *testing.T) {
	model := NewModel(nil)
	if got := model.Constraint(options.Some[any]("CanESM2")); !options.Equal(got, options.Constraint{"model_id": "CanESM2"}) {
		t.Errorf("model constraint = %v", got)
	}
	if got := model.Constraint(options.None[any]()); len(got) != 0 {
		t.Errorf("None contributed %v", got)
	}
	variable := NewVariable(nil)
	v := options.Record{"variable_id": "pr", "variable_name": "Precipitation", "multi_year_mean": true}
	if got := variable.Constraint(options.Some[any](v)); !options.Equal(got, options.Constraint(v)) {
		t.Errorf("variable constraint = %v", got)
	}
}

func TestChainConstraintFor(t *testing.T) {
	chain, err := NewChain(Model, Emissions, Variable)
	if err != nil {
		t.Fatal(err)
	}
	contributions := map[string]options.Constraint{
		Model:     {"model_id": "CanESM2"},
		Emissions: {"experiment": "historical, rcp85"},
		Variable:  {"variable_id": "pr"},
	}
	cases := []struct {
		name string
		want options.Constraint
	}{
		{Model, options.Constraint{}},
		{Emissions, options.Constraint{"model_id": "CanESM2"}},
		{Variable, options.Constraint{"model_id": "CanESM2", "experiment": "historical, rcp85"}},
		{Dataset, options.Constraint{"model_id": "CanESM2", "experiment": "historical, rcp85", "variable_id": "pr"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, chain.ConstraintFor(tc.name, contributions)); diff != "" {
				t.Errorf("constraint mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if !chain.MoveDown(0) {
		t.Fatal("MoveDown(0) refused")
	}
	if diff := cmp.Diff([]string{Emissions, Model, Variable}, chain.Order()); diff != "" {
		t.Errorf("order after move mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(options.Constraint{"experiment": "historical, rcp85"}, chain.ConstraintFor(Model, contributions)); diff != "" {
		t.Errorf("model constraint after move mismatch (-want +got):\n%s", diff)
	}
	if chain.MoveDown(2) {
		t.Error("MoveDown past the end succeeded")
	}
}

func TestNewChainRejectsBadOrders(t *testing.T) {
	if _, err := NewChain(Model, "colour"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("unknown field error = %v", err)
	}
	if _, err := NewChain(Model, Model); !errors.Is(err, ErrDuplicateField) {
		t.Errorf("duplicate field error = %v", err)
	}
}

func TestUnionLastWins(t *testing.T) {
	got := Union(options.Constraint{"a": 1, "b": 1}, nil, options.Constraint{"b": 2})
	if diff := cmp.Diff(options.Constraint{"a": 1, "b": 2}, got); diff != "" {
		t.Errorf("union mismatch (-want +got):\n%s", diff)
	}
}

func TestLookup(t *testing.T) {
	for _, name := range Names() {
		s, err := Lookup(name, nil)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", name, err)
		}
		if s.Name() != name {
			t.Errorf("Lookup(%q).Name() = %q", name, s.Name())
		}
	}
	if _, err := Lookup("colour", nil); !errors.Is(err, ErrUnknownField) {
		t.Errorf("Lookup(colour) error = %v", err)
	}
}

func TestDatasetLabelWithoutEnsembleMember(t *testing.T) {
	records := []options.Record{
		{"start_date": "1961", "end_date": "1990"},
		{"start_date": "1971", "end_date": "2000", "ensemble_member": "r3i1p1"},
	}
	snap := NewDataset(nil).Evaluate(options.NewRecordSet(records), nil, options.None[any]())
	want := []string{
		"|1961–1990",
		"|Run 1 (r3i1p1), 1971–2000",
	}
	if diff := cmp.Diff(want, labels(snap)); diff != "" {
		t.Errorf("dataset labels mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]string{"r3i1p1": "Run 1"}, EnsembleRuns(records)); diff != "" {
		t.Errorf("runs mismatch (-want +got):\n%s", diff)
	}
}
