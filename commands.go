package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"metaselect/internal/fields"
	"metaselect/internal/metadata"
	"metaselect/internal/options"
)

func newOptionsCmd(flags *rootFlags) *cobra.Command {
	var where []string
	var selected string
	cmd := &cobra.Command{
		Use:       "options <field>",
		Short:     "Print the options a selector offers under a constraint",
		Args:      cobra.ExactArgs(1),
		ValidArgs: fields.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			sel, err := fields.Lookup(args[0], nil)
			if err != nil {
				return err
			}
			constraint, err := parseWhere(where)
			if err != nil {
				return err
			}
			records, err := recordLoader(cfg.Meta)(cmd.Context())
			if err != nil {
				return err
			}
			records = metadata.Filter(records, cfg.prefilter())

			current := options.None[any]()
			if selected != "" {
				current = options.Some(parseSelection(selected))
			}
			snap := sel.Evaluate(options.NewRecordSet(records), constraint, current)
			writeOptionsTable(cmd.OutOrStdout(), snap)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&where, "where", nil, "constraint field=value; repeatable")
	cmd.Flags().StringVar(&selected, "select", "", "current selection to check; a JSON object for record-valued fields")
	return cmd
}

func newExportCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "export <catalog.sqlite>",
		Short: "Write the loaded metadata to a SQLite catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			records, err := recordLoader(cfg.Meta)(cmd.Context())
			if err != nil {
				return err
			}
			records = metadata.Filter(records, cfg.prefilter())
			if err := metadata.WriteSQLite(cmd.Context(), args[0], recordFields(records), records); err != nil {
				return fmt.Errorf("export %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records to %s\n", len(records), args[0])
			return nil
		},
	}
}

// parseWhere turns field=value pairs into a constraint. The literals true and
// false become booleans; everything else stays a string.
func parseWhere(pairs []string) (options.Constraint, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	c := make(options.Constraint, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --where %q: want field=value", pair)
		}
		switch v {
		case "true":
			c[k] = true
		case "false":
			c[k] = false
		default:
			c[k] = v
		}
	}
	return c, nil
}

func parseSelection(raw string) any {
	if strings.HasPrefix(strings.TrimSpace(raw), "{") {
		var rec map[string]any
		if err := json.Unmarshal([]byte(raw), &rec); err == nil {
			return rec
		}
	}
	return raw
}

func recordFields(records []options.Record) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		for k := range r {
			seen[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func writeOptionsTable(w io.Writer, snap fields.Snapshot) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(snap.Title)
	t.SetStyle(table.StyleLight)
	if snap.Grouped {
		t.AppendHeader(table.Row{"", "Group", "Option", "Enabled", "Datasets"})
	} else {
		t.AppendHeader(table.Row{"", "Option", "Enabled", "Datasets"})
	}
	for i, e := range snap.Entries {
		marker := ""
		if i == snap.Current {
			marker = "●"
		}
		enabled := "yes"
		if !e.Enabled {
			enabled = "no"
		}
		if snap.Grouped {
			t.AppendRow(table.Row{marker, e.Group, e.Label, enabled, e.Contexts})
		} else {
			t.AppendRow(table.Row{marker, e.Label, enabled, e.Contexts})
		}
	}
	t.Render()

	switch {
	case snap.NeedsCorrection:
		fmt.Fprintf(w, "selection %s is not valid; replacement: %s\n", snap.Selection, snap.Correction)
	case !snap.Selection.IsNone():
		fmt.Fprintf(w, "selection %s is valid\n", snap.Selection)
	}
}
