package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"metaselect/internal/fields"
	"metaselect/internal/options"
)

type appConfig struct {
	Meta          []string       `yaml:"meta,omitempty" env:"METASELECT_META" envSeparator:","`
	Theme         string         `yaml:"theme,omitempty" env:"METASELECT_THEME"`
	SelectorOrder []string       `yaml:"selector_order,omitempty" env:"METASELECT_ORDER" envSeparator:","`
	Prefilter     map[string]any `yaml:"prefilter,omitempty"`
	EventLog      string         `yaml:"event_log,omitempty" env:"METASELECT_EVENT_LOG"`
	LogFile       string         `yaml:"log_file,omitempty" env:"METASELECT_LOG_FILE"`
}

func defaultConfig() appConfig {
	return appConfig{
		Theme:         string(markdownThemeAuto),
		SelectorOrder: []string{fields.Model, fields.Emissions, fields.Variable},
		EventLog:      filepath.Join(resolveConfigDir(), "events.jsonl"),
	}
}

// loadConfig reads the YAML config and applies environment overrides. A
// missing file at the default location is not an error; a missing file that
// was asked for explicitly is.
func loadConfig(path string) (appConfig, string, error) {
	cfg := defaultConfig()
	explicit := path != ""
	if !explicit {
		path = filepath.Join(resolveConfigDir(), "config.yaml")
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, path, fmt.Errorf("parse config %s: %w", path, err)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return cfg, path, fmt.Errorf("read config: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, path, fmt.Errorf("config environment: %w", err)
	}
	return cfg, path, nil
}

func (c appConfig) prefilter() options.Constraint {
	if len(c.Prefilter) == 0 {
		return nil
	}
	return options.Constraint(c.Prefilter)
}

func resolveConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "metaselect")
}
