package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"metaselect/internal/options"
)

func TestLoadConfigDefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, path, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("path = %s", path)
	}
	if diff := cmp.Diff([]string{"model", "emissions", "variable"}, cfg.SelectorOrder); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if cfg.Theme != "auto" {
		t.Errorf("theme = %q, want auto", cfg.Theme)
	}
}

func TestLoadConfigFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metaselect.yaml")
	data := []byte(`
meta: [a.json, b.yaml]
theme: dark
selector_order: [time_period, variable]
prefilter:
  model_id: CanESM2
  multi_year_mean: true
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("METASELECT_THEME", "light")
	t.Setenv("METASELECT_META", "c.sqlite,d.json")

	cfg, _, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Theme != "light" {
		t.Errorf("theme = %q, want env override light", cfg.Theme)
	}
	if diff := cmp.Diff([]string{"c.sqlite", "d.json"}, cfg.Meta); diff != "" {
		t.Errorf("meta mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"time_period", "variable"}, cfg.SelectorOrder); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	want := options.Constraint{"model_id": "CanESM2", "multi_year_mean": true}
	if diff := cmp.Diff(want, cfg.prefilter()); diff != "" {
		t.Errorf("prefilter mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigExplicitMissingFile(t *testing.T) {
	if _, _, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected an error for a missing explicit config")
	}
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("theme: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := loadConfig(path); err == nil {
		t.Fatal("expected a parse error")
	}
}
