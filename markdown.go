package main

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"metaselect/internal/options"
)

type markdownTheme string

const (
	markdownThemeAuto  markdownTheme = "auto"
	markdownThemeDark  markdownTheme = "dark"
	markdownThemeLight markdownTheme = "light"
)

const maxPreviewRows = 40

var previewColumns = []string{"model_id", "experiment", "variable_id", "ensemble_member", "start_date", "end_date", "timescale"}

type markdownRenderer struct {
	mu       sync.Mutex
	theme    markdownTheme
	wrap     int
	renderer *glamour.TermRenderer
}

func newMarkdownRenderer(theme markdownTheme) *markdownRenderer {
	return &markdownRenderer{theme: theme, wrap: 80}
}

// Render returns glamour output for content, or content itself when the
// renderer cannot be built.
func (r *markdownRenderer) Render(content string) string {
	renderer := r.ensure()
	if renderer == nil {
		return content
	}
	out, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return out
}

func (r *markdownRenderer) ensure() *glamour.TermRenderer {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.renderer != nil {
		return r.renderer
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(r.wrap)}
	switch r.theme {
	case markdownThemeLight:
		opts = append(opts, glamour.WithStandardStyle("light"))
	case markdownThemeDark:
		opts = append(opts, glamour.WithStandardStyle("dark"))
	default:
		opts = append(opts, glamour.WithAutoStyle())
	}
	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil
	}
	r.renderer = renderer
	return renderer
}

func (r *markdownRenderer) SetWordWrap(width int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if width < 0 {
		width = 0
	}
	if r.wrap != width {
		r.wrap = width
		r.renderer = nil
	}
}

func (r *markdownRenderer) SetTheme(theme markdownTheme) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.theme != theme {
		r.theme = theme
		r.renderer = nil
	}
}

func markdownThemeFromString(value string) markdownTheme {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dark":
		return markdownThemeDark
	case "light":
		return markdownThemeLight
	default:
		return markdownThemeAuto
	}
}

func nextMarkdownTheme(theme markdownTheme) markdownTheme {
	switch theme {
	case markdownThemeAuto:
		return markdownThemeDark
	case markdownThemeDark:
		return markdownThemeLight
	default:
		return markdownThemeAuto
	}
}

// metadataMarkdown renders the records matching the current selections as a
// markdown table ordered by ensemble member, then start date.
func metadataMarkdown(title string, records []options.Record, constraint options.Constraint) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", title)
	if len(constraint) > 0 {
		keys := make([]string, 0, len(constraint))
		for k := range constraint {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("`%s=%v`", k, constraint[k]))
		}
		fmt.Fprintf(&b, "Constraint: %s\n\n", strings.Join(parts, " "))
	}
	if len(records) == 0 {
		b.WriteString("_No metadata matches the current selections._\n")
		return b.String()
	}
	rows := append([]options.Record(nil), records...)
	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range []string{"ensemble_member", "start_date", "timescale"} {
			left, right := fmt.Sprint(rows[i][k]), fmt.Sprint(rows[j][k])
			if left != right {
				return left < right
			}
		}
		return false
	})

	fmt.Fprintf(&b, "%d datasets\n\n", len(rows))
	b.WriteString("| " + strings.Join(previewColumns, " | ") + " | mym |\n")
	b.WriteString(strings.Repeat("|---", len(previewColumns)+1) + "|\n")
	for i, r := range rows {
		if i == maxPreviewRows {
			fmt.Fprintf(&b, "\n_…and %d more._\n", len(rows)-maxPreviewRows)
			break
		}
		cells := make([]string, 0, len(previewColumns)+1)
		for _, k := range previewColumns {
			cells = append(cells, markdownCell(r[k]))
		}
		mym := "TS"
		if v, ok := r["multi_year_mean"].(bool); ok && v {
			mym = "MYM"
		}
		cells = append(cells, mym)
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return b.String()
}

func markdownCell(v any) string {
	if v == nil {
		return ""
	}
	return strings.ReplaceAll(fmt.Sprint(v), "|", `\|`)
}
