package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type selectionEvent struct {
	SessionID string    `json:"session_id"`
	Seq       uint64    `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Event     string    `json:"event"`
	Selector  string    `json:"selector"`
	State     string    `json:"state"`
}

type selectorCounts struct {
	Selector   string `json:"selector"`
	Picked     int    `json:"picked"`
	Cleared    int    `json:"cleared"`
	Corrected  int    `json:"corrected"`
	Unresolved int    `json:"unresolved"`
}

type summary struct {
	Sessions  int              `json:"sessions"`
	Events    int              `json:"events"`
	Malformed int              `json:"malformed"`
	First     time.Time        `json:"first"`
	Last      time.Time        `json:"last"`
	Selectors []selectorCounts `json:"selectors"`
}

func main() {
	if err := newCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:          "eventsummary <events.jsonl>",
		Short:        "Summarize a metaselect selection event log",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			s, err := summarize(f)
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}
			render(cmd.OutOrStdout(), s)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}

// summarize counts events per selector. Lines that do not decode are counted
// as malformed and skipped.
func summarize(r io.Reader) (summary, error) {
	var s summary
	sessions := make(map[string]struct{})
	counts := make(map[string]*selectorCounts)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev selectionEvent
		if err := json.Unmarshal(line, &ev); err != nil || ev.Selector == "" {
			s.Malformed++
			continue
		}
		s.Events++
		sessions[ev.SessionID] = struct{}{}
		if s.First.IsZero() || ev.Timestamp.Before(s.First) {
			s.First = ev.Timestamp
		}
		if ev.Timestamp.After(s.Last) {
			s.Last = ev.Timestamp
		}
		c, ok := counts[ev.Selector]
		if !ok {
			c = &selectorCounts{Selector: ev.Selector}
			counts[ev.Selector] = c
		}
		switch ev.Event {
		case "selection.picked":
			c.Picked++
		case "selection.cleared":
			c.Cleared++
		case "selection.corrected":
			c.Corrected++
		case "selection.unresolved":
			c.Unresolved++
		}
	}
	if err := scanner.Err(); err != nil {
		return s, err
	}

	s.Sessions = len(sessions)
	for _, c := range counts {
		s.Selectors = append(s.Selectors, *c)
	}
	sort.Slice(s.Selectors, func(i, j int) bool {
		return s.Selectors[i].Selector < s.Selectors[j].Selector
	})
	return s, nil
}

func render(w io.Writer, s summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("%d events in %d sessions", s.Events, s.Sessions))
	t.AppendHeader(table.Row{"Selector", "Picked", "Cleared", "Corrected", "Unresolved"})
	var total selectorCounts
	for _, c := range s.Selectors {
		t.AppendRow(table.Row{c.Selector, c.Picked, c.Cleared, c.Corrected, c.Unresolved})
		total.Picked += c.Picked
		total.Cleared += c.Cleared
		total.Corrected += c.Corrected
		total.Unresolved += c.Unresolved
	}
	t.AppendFooter(table.Row{"Total", total.Picked, total.Cleared, total.Corrected, total.Unresolved})
	t.Render()
	if s.Malformed > 0 {
		fmt.Fprintf(w, "%d malformed lines skipped\n", s.Malformed)
	}
}
