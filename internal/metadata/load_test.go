package metadata

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"metaselect/internal/options"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConcatenatesInArgumentOrder(t *testing.T) {
	jsonPath := writeFile(t, "a.json", `[{"model_id": "A", "multi_year_mean": true}]`)
	yamlPath := writeFile(t, "b.yaml", "- model_id: B\n  start_date: \"1961\"\n- model_id: C\n")

	got, err := Load(context.Background(), yamlPath, jsonPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []options.Record{
		{"model_id": "B", "start_date": "1961"},
		{"model_id": "C"},
		{"model_id": "A", "multi_year_mean": true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.sqlite")
	records := []options.Record{
		{"model_id": "CanESM2", "variable_id": "pr", "multi_year_mean": true},
		{"model_id": "MRI-CGCM3", "variable_id": "tasmax", "multi_year_mean": false},
	}
	if err := WriteSQLite(ctx, path, []string{"model_id", "variable_id", "multi_year_mean"}, records); err != nil {
		t.Fatalf("WriteSQLite: %v", err)
	}
	got, err := Load(ctx, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(records, got); diff != "" {
		t.Errorf("catalog mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteSQLiteReplacesExistingCatalog(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.sqlite")
	first := []options.Record{
		{"model_id": "CanESM2"},
		{"model_id": "MRI-CGCM3"},
	}
	for i := 0; i < 2; i++ {
		if err := WriteSQLite(ctx, path, []string{"model_id"}, first); err != nil {
			t.Fatalf("WriteSQLite #%d: %v", i+1, err)
		}
	}
	got, err := Load(ctx, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != len(first) {
		t.Fatalf("records after writing twice = %d, want %d", len(got), len(first))
	}

	second := []options.Record{
		{"model_id": "CNRM-CM5", "experiment": "historical, rcp85"},
	}
	if err := WriteSQLite(ctx, path, []string{"experiment", "model_id"}, second); err != nil {
		t.Fatalf("WriteSQLite with new fields: %v", err)
	}
	got, err = Load(ctx, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(second, got); diff != "" {
		t.Errorf("catalog mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteSQLiteQuotesFieldNames(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.sqlite")
	records := []options.Record{{`a"b`: "x", "select": "y"}}
	if err := WriteSQLite(ctx, path, []string{`a"b`, "select"}, records); err != nil {
		t.Fatalf("WriteSQLite: %v", err)
	}
	got, err := Load(ctx, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(records, got); diff != "" {
		t.Errorf("catalog mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	ctx := context.Background()
	if _, err := Load(ctx, writeFile(t, "meta.csv", "model_id\nA\n")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("csv error = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := Load(ctx, filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v", err)
	}
	if _, err := Load(ctx, writeFile(t, "bad.json", `{"not": "a list"}`)); err == nil {
		t.Error("expected an error for a non-list document")
	}
}

func TestSample(t *testing.T) {
	records, err := Sample()
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if len(records) == 0 {
		t.Fatal("sample collection is empty")
	}
	for _, key := range []string{"model_id", "experiment", "variable_id", "start_date", "end_date", "ensemble_member"} {
		if _, ok := records[0][key]; !ok {
			t.Errorf("sample record lacks %q", key)
		}
	}
}

func TestFilter(t *testing.T) {
	records := []options.Record{{"a": 1, "b": 1}, {"a": 2, "b": 1}, {"a": 1, "b": 2}}
	got := Filter(records, options.Constraint{"a": 1})
	if diff := cmp.Diff([]options.Record{records[0], records[2]}, got); diff != "" {
		t.Errorf("filter mismatch (-want +got):\n%s", diff)
	}
	if got := Filter(records, nil); len(got) != len(records) {
		t.Errorf("empty constraint kept %d of %d records", len(got), len(records))
	}
}
