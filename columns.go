package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"metaselect/internal/fields"
	"metaselect/internal/options"
)

type column interface {
	SetSize(width, height int)
	Update(msg tea.Msg) (column, tea.Cmd)
	View(styles styles, focused bool) string
	Title() string
	FocusValue() string
}

type selectorRow struct {
	header   string
	isHeader bool
	entry    fields.Entry
	index    int
}

func (r selectorRow) selectable() bool {
	return !r.isHeader && r.entry.Enabled
}

// selectorColumn renders one field selector snapshot. Group titles and
// disabled options are shown but the cursor skips over them.
type selectorColumn struct {
	name      string
	title     string
	keys      keyMap
	snap      fields.Snapshot
	rows      []selectorRow
	cursor    int
	cursorKey string
	offset    int
	width     int
	height    int
	filter    string
	onPick    func(name string, entry fields.Entry) tea.Cmd
}

func newSelectorColumn(sel fields.Selector, keys keyMap, onPick func(string, fields.Entry) tea.Cmd) *selectorColumn {
	return &selectorColumn{
		name:   sel.Name(),
		title:  sel.Title(),
		keys:   keys,
		cursor: -1,
		width:  28,
		height: 12,
		onPick: onPick,
	}
}

func (c *selectorColumn) SetSnapshot(snap fields.Snapshot) {
	c.snap = snap
	c.rebuild()
}

func (c *selectorColumn) SetFilter(filter string) {
	if entry, ok := c.SelectedEntry(); ok {
		c.cursorKey = options.Key(entry.Value)
	}
	c.filter = strings.TrimSpace(filter)
	c.rebuild()
}

func (c *selectorColumn) rebuild() {
	var visible map[int]bool
	if c.filter != "" {
		labels := make([]string, len(c.snap.Entries))
		for i, e := range c.snap.Entries {
			labels[i] = e.Label
		}
		visible = make(map[int]bool)
		for _, match := range fuzzy.Find(c.filter, labels) {
			visible[match.Index] = true
		}
	}

	c.rows = c.rows[:0]
	group := ""
	first := true
	for i, e := range c.snap.Entries {
		if visible != nil && !visible[i] {
			continue
		}
		if c.snap.Grouped && (first || e.Group != group) {
			c.rows = append(c.rows, selectorRow{header: e.Group, isHeader: true})
		}
		group, first = e.Group, false
		c.rows = append(c.rows, selectorRow{entry: e, index: i})
	}

	c.cursor = -1
	if c.cursorKey != "" {
		c.cursor = c.findRow(func(r selectorRow) bool {
			return r.selectable() && options.Key(r.entry.Value) == c.cursorKey
		})
	}
	if c.cursor < 0 && c.snap.Current >= 0 {
		c.cursor = c.findRow(func(r selectorRow) bool {
			return r.selectable() && r.index == c.snap.Current
		})
	}
	if c.cursor < 0 {
		c.cursor = c.findRow(selectorRow.selectable)
	}
	c.clampScroll()
}

func (c *selectorColumn) findRow(match func(selectorRow) bool) int {
	for i, r := range c.rows {
		if match(r) {
			return i
		}
	}
	return -1
}

func (c *selectorColumn) moveCursor(dir int) {
	for i := c.cursor + dir; i >= 0 && i < len(c.rows); i += dir {
		if c.rows[i].selectable() {
			c.cursor = i
			c.cursorKey = options.Key(c.rows[i].entry.Value)
			c.clampScroll()
			return
		}
	}
}

func (c *selectorColumn) bodyHeight() int {
	h := c.height - 4
	if h < 1 {
		h = 1
	}
	return h
}

func (c *selectorColumn) clampScroll() {
	body := c.bodyHeight()
	if c.cursor >= 0 {
		if c.cursor < c.offset {
			c.offset = c.cursor
		}
		if c.cursor >= c.offset+body {
			c.offset = c.cursor - body + 1
		}
	}
	if limit := len(c.rows) - body; c.offset > limit {
		c.offset = limit
	}
	if c.offset < 0 {
		c.offset = 0
	}
}

func (c *selectorColumn) SelectedEntry() (fields.Entry, bool) {
	if c.cursor < 0 || c.cursor >= len(c.rows) || !c.rows[c.cursor].selectable() {
		return fields.Entry{}, false
	}
	return c.rows[c.cursor].entry, true
}

func (c *selectorColumn) SetSize(width, height int) {
	c.width = width
	if height < 5 {
		height = 5
	}
	c.height = height
	c.clampScroll()
}

func (c *selectorColumn) Update(msg tea.Msg) (column, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil
	}
	switch {
	case key.Matches(keyMsg, c.keys.up):
		c.moveCursor(-1)
	case key.Matches(keyMsg, c.keys.down):
		c.moveCursor(+1)
	case key.Matches(keyMsg, c.keys.pick):
		if entry, ok := c.SelectedEntry(); ok && c.onPick != nil {
			c.cursorKey = options.Key(entry.Value)
			return c, c.onPick(c.name, entry)
		}
	}
	return c, nil
}

func (c *selectorColumn) View(s styles, focused bool) string {
	inner := c.width - 2
	if inner < 4 {
		inner = 4
	}
	title := c.title
	if c.filter != "" {
		title = fmt.Sprintf("%s /%s", title, c.filter)
	}
	lines := []string{
		s.columnTitle.Copy().MaxWidth(inner).Render(title),
		c.currentLine(s, inner),
	}

	body := c.bodyHeight()
	for i := c.offset; i < len(c.rows) && i < c.offset+body; i++ {
		r := c.rows[i]
		if r.isHeader {
			lines = append(lines, s.groupHeader.Copy().MaxWidth(inner).Render(r.header))
			continue
		}
		marker := "  "
		if r.index == c.snap.Current {
			marker = s.listCurrent.Render("● ")
		}
		style := s.listItem
		switch {
		case !r.entry.Enabled:
			style = s.listDisabled
		case i == c.cursor && focused:
			style = s.listSel
		}
		lines = append(lines, style.Copy().MaxWidth(inner).Render(marker+r.entry.Label))
	}
	if len(c.rows) == 0 {
		lines = append(lines, s.listDisabled.Render("No options"))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	if focused {
		return s.panelFocused.Width(inner).Height(c.height - 2).Render(content)
	}
	return s.panel.Width(inner).Height(c.height - 2).Render(content)
}

func (c *selectorColumn) currentLine(s styles, width int) string {
	sel := c.snap.Selection
	if c.snap.NeedsCorrection {
		sel = c.snap.Correction
	}
	switch {
	case sel.IsUnresolved():
		return s.statusWarn.Copy().Padding(0, 1).MaxWidth(width).Render("no valid selection")
	case sel.IsNone():
		return s.statusHint.Copy().Padding(0, 1).MaxWidth(width).Render("nothing selected")
	}
	if entry, ok := c.snap.CurrentEntry(); ok {
		return s.columnValue.Copy().MaxWidth(width).Render(entry.Label)
	}
	return s.columnValue.Copy().MaxWidth(width).Render(sel.String())
}

func (c *selectorColumn) Title() string {
	return c.title
}

func (c *selectorColumn) FocusValue() string {
	if entry, ok := c.snap.CurrentEntry(); ok {
		return entry.Label
	}
	return ""
}

type previewColumn struct {
	title   string
	width   int
	height  int
	content string
	view    viewport.Model
}

func newPreviewColumn(title string, width int) *previewColumn {
	return &previewColumn{
		title: title,
		view:  viewport.New(width, 10),
	}
}

func (p *previewColumn) SetSize(width, height int) {
	p.width = width
	if height < 3 {
		height = 3
	}
	p.height = height
	p.view.Width = width - 2
	p.view.Height = height - 3
}

func (p *previewColumn) SetContent(content string) {
	p.content = content
	p.view.SetContent(content)
}

func (p *previewColumn) Update(msg tea.Msg) (column, tea.Cmd) {
	var cmd tea.Cmd
	p.view, cmd = p.view.Update(msg)
	return p, cmd
}

func (p *previewColumn) View(s styles, focused bool) string {
	body := s.columnTitle.Render(p.title) + "\n" + p.view.View()
	if focused {
		return s.panelFocused.Width(p.width - 2).Render(body)
	}
	return s.panel.Width(p.width - 2).Render(body)
}

func (p *previewColumn) Title() string {
	return p.title
}

func (p *previewColumn) FocusValue() string {
	return ""
}
