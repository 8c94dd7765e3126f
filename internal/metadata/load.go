// Package metadata loads the static climate metadata collection that
// selectors derive their options from.
package metadata

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"metaselect/internal/options"
)

//go:embed sample.json
var sampleJSON []byte

var ErrUnsupportedFormat = errors.New("unsupported metadata format")

// Sample returns the bundled metadata collection.
func Sample() ([]options.Record, error) {
	return decodeJSON(sampleJSON)
}

// Load reads every path and concatenates the records in argument order.
// Files are read concurrently.
func Load(ctx context.Context, paths ...string) ([]options.Record, error) {
	results := make([][]options.Record, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			records, err := loadFile(ctx, path)
			if err != nil {
				return fmt.Errorf("load %s: %w", path, err)
			}
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var out []options.Record
	for _, records := range results {
		out = append(out, records...)
	}
	return out, nil
}

func loadFile(ctx context.Context, path string) ([]options.Record, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return decodeJSON(data)
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return decodeYAML(data)
	case ".sqlite", ".db":
		return loadSQLite(ctx, path)
	}
	return nil, ErrUnsupportedFormat
}

func decodeJSON(data []byte) ([]options.Record, error) {
	var raw []map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return toRecords(raw), nil
}

func decodeYAML(data []byte) ([]options.Record, error) {
	var raw []map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return toRecords(raw), nil
}

func toRecords(raw []map[string]any) []options.Record {
	out := make([]options.Record, 0, len(raw))
	for _, m := range raw {
		if m == nil {
			continue
		}
		out = append(out, options.Record(m))
	}
	return out
}

// Filter keeps the records matching c. The input is not modified.
func Filter(records []options.Record, c options.Constraint) []options.Record {
	if len(c) == 0 {
		return records
	}
	var out []options.Record
	for _, r := range records {
		if options.Matches(c, r) {
			out = append(out, r)
		}
	}
	return out
}
