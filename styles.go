package main

import "github.com/charmbracelet/lipgloss"

var palette = struct {
	text, textMuted, border, selection, accent, warning lipgloss.AdaptiveColor
}{
	text:      lipgloss.AdaptiveColor{Light: "#1F2328", Dark: "#E6EDF3"},
	textMuted: lipgloss.AdaptiveColor{Light: "#8C959F", Dark: "#6E7681"},
	border:    lipgloss.AdaptiveColor{Light: "#D0D7DE", Dark: "#30363D"},
	selection: lipgloss.AdaptiveColor{Light: "#DDF4FF", Dark: "#1F3A5F"},
	accent:    lipgloss.AdaptiveColor{Light: "#0969DA", Dark: "#58A6FF"},
	warning:   lipgloss.AdaptiveColor{Light: "#9A6700", Dark: "#D29922"},
}

type styles struct {
	app, topBar, topTitle, topStatus lipgloss.Style
	columnTitle, columnValue         lipgloss.Style
	panel, panelFocused              lipgloss.Style
	groupHeader                      lipgloss.Style
	listItem, listSel, listDisabled  lipgloss.Style
	listCurrent                      lipgloss.Style
	filterPrompt                     lipgloss.Style
	statusBar, statusSeg, statusHint lipgloss.Style
	statusWarn                       lipgloss.Style
}

func newStyles() styles {
	base := lipgloss.NewStyle()
	panelBorder := lipgloss.NormalBorder()
	focusedBorder := lipgloss.DoubleBorder()

	return styles{
		app:          base,
		topBar:       base.Padding(0, 1),
		topTitle:     base.Copy().Bold(true).Foreground(palette.accent),
		topStatus:    base.Copy().Foreground(palette.textMuted),
		columnTitle:  base.Copy().Bold(true).Padding(0, 1),
		columnValue:  base.Copy().Padding(0, 1).Foreground(palette.accent),
		panel:        base.BorderStyle(panelBorder).BorderForeground(palette.border),
		panelFocused: base.BorderStyle(focusedBorder).BorderForeground(palette.accent),
		groupHeader:  base.Copy().Bold(true).Underline(true).Padding(0, 1).Foreground(palette.textMuted),
		listItem:     base.Padding(0, 1).Foreground(palette.text),
		listSel:      base.Padding(0, 1).Bold(true).Background(palette.selection),
		listDisabled: base.Padding(0, 1).Faint(true).Foreground(palette.textMuted),
		listCurrent:  base.Copy().Foreground(palette.accent),
		filterPrompt: base.Copy().Bold(true).Padding(0, 1),
		statusBar:    base.Padding(0, 1),
		statusSeg:    base.Padding(0, 1).MarginRight(1),
		statusHint:   base.Copy().Faint(true),
		statusWarn:   base.Copy().Bold(true).Foreground(palette.warning),
	}
}
