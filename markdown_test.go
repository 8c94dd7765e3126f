package main

import (
	"strings"
	"testing"

	"metaselect/internal/options"
)

func TestMetadataMarkdownSortsAndDescribesConstraint(t *testing.T) {
	md := metadataMarkdown("Filtered metadata", testRecords, options.Constraint{"model_id": "CanESM2"})
	for _, want := range []string{"## Filtered metadata", "Constraint: `model_id=CanESM2`", "3 datasets", "| MYM |", "| TS |"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	first := strings.Index(md, "| 1961 |")
	second := strings.Index(md, "| 1971 |")
	third := strings.Index(md, "r2i1p1")
	if first < 0 || second < first || third < second {
		t.Errorf("rows not sorted by member then start date:\n%s", md)
	}
}

func TestMetadataMarkdownEmpty(t *testing.T) {
	md := metadataMarkdown("Filtered metadata", nil, nil)
	if !strings.Contains(md, "No metadata matches") {
		t.Errorf("unexpected markdown:\n%s", md)
	}
	if strings.Contains(md, "Constraint:") {
		t.Errorf("empty constraint should not be described:\n%s", md)
	}
}

func TestMarkdownThemeCycle(t *testing.T) {
	theme := markdownThemeFromString(" Dark ")
	if theme != markdownThemeDark {
		t.Fatalf("theme = %q", theme)
	}
	seen := map[markdownTheme]bool{}
	for i := 0; i < 3; i++ {
		seen[theme] = true
		theme = nextMarkdownTheme(theme)
	}
	if len(seen) != 3 || theme != markdownThemeDark {
		t.Fatalf("theme cycle visited %v, ended on %q", seen, theme)
	}
}
