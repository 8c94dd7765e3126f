package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"metaselect/internal/fields"
	"metaselect/internal/metadata"
	"metaselect/internal/options"
)

const (
	maxLogLines  = 50
	previewFocus = "preview"
)

// selectionChangedMsg is the only way a selection changes. Picks come from
// the selector columns; corrections come from the commands returned by
// evaluate, which bubbletea runs after the frame showing the invalid value.
type selectionChangedMsg struct {
	field     string
	selection options.Selection[any]
	corrected bool
	seq       uint64
}

type metadataLoadedMsg struct {
	records []options.Record
	err     error
}

type clipboardMsg struct {
	err error
}

type keyMap struct {
	quit        key.Binding
	nextFocus   key.Binding
	prevFocus   key.Binding
	up          key.Binding
	down        key.Binding
	pick        key.Binding
	clear       key.Binding
	filter      key.Binding
	closeFilter key.Binding
	moveLeft    key.Binding
	moveRight   key.Binding
	copySel     key.Binding
	toggleTheme key.Binding
	toggleHelp  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		nextFocus: key.NewBinding(
			key.WithKeys("tab", "l"),
			key.WithHelp("tab", "next selector"),
		),
		prevFocus: key.NewBinding(
			key.WithKeys("shift+tab", "h"),
			key.WithHelp("shift+tab", "prev selector"),
		),
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		pick: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "select"),
		),
		clear: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "select nothing"),
		),
		filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		closeFilter: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear filter"),
		),
		moveLeft: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "move selector left"),
		),
		moveRight: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "move selector right"),
		),
		copySel: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy selections"),
		),
		toggleTheme: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "cycle theme"),
		),
		toggleHelp: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.nextFocus, k.pick, k.filter, k.moveLeft, k.moveRight, k.toggleHelp, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.nextFocus, k.prevFocus, k.up, k.down},
		{k.pick, k.clear, k.filter, k.closeFilter},
		{k.moveLeft, k.moveRight},
		{k.copySel, k.toggleTheme, k.toggleHelp, k.quit},
	}
}

type loadFunc func(ctx context.Context) ([]options.Record, error)

type modelOptions struct {
	order     []string
	prefilter options.Constraint
	theme     markdownTheme
	load      loadFunc
	events    *eventLogger
	logger    *slog.Logger
}

type model struct {
	width  int
	height int

	styles   styles
	keys     keyMap
	help     help.Model
	markdown *markdownRenderer
	theme    markdownTheme

	load      loadFunc
	loading   bool
	loadErr   error
	prefilter options.Constraint
	records   []options.Record
	set       options.RecordSet
	filtered  []options.Record
	combined  options.Constraint

	chain      *fields.Chain
	downstream string
	selectors  map[string]fields.Selector
	selections map[string]options.Selection[any]
	columns    map[string]*selectorColumn
	preview    *previewColumn
	focus      int

	filtering   bool
	filterInput textinput.Model

	events   *eventLogger
	logger   *slog.Logger
	logLines []string
}

func newModel(opts modelOptions) (*model, error) {
	chain, err := fields.NewChain(opts.order...)
	if err != nil {
		return nil, err
	}
	logger := opts.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	m := &model{
		styles:     newStyles(),
		keys:       newKeyMap(),
		help:       help.New(),
		markdown:   newMarkdownRenderer(opts.theme),
		theme:      opts.theme,
		load:       opts.load,
		loading:    true,
		prefilter:  opts.prefilter,
		chain:      chain,
		selectors:  make(map[string]fields.Selector),
		selections: make(map[string]options.Selection[any]),
		columns:    make(map[string]*selectorColumn),
		preview:    newPreviewColumn("Filtered metadata", 80),
		events:     opts.events,
		logger:     logger,
		logLines: []string{
			"[INFO] Loading metadata…",
			"[TIP] Tab moves between selectors; [ and ] reorder the constraint chain.",
		},
	}
	if chain.Index(fields.Dataset) < 0 {
		m.downstream = fields.Dataset
	}

	names := chain.Order()
	if m.downstream != "" {
		names = append(names, m.downstream)
	}
	for _, name := range names {
		sel, err := fields.Lookup(name, logger)
		if err != nil {
			return nil, err
		}
		m.selectors[name] = sel
		// Selectors start undecided and adopt their first enabled option on
		// the first evaluation.
		m.selections[name] = options.Unresolved[any]()
		m.columns[name] = newSelectorColumn(sel, m.keys, pickCmd)
	}

	m.help.ShortSeparator = " │ "
	m.help.Styles.ShortKey = m.styles.statusHint.Copy()
	m.help.Styles.ShortDesc = m.styles.statusHint.Copy()
	m.help.Styles.FullKey = m.styles.statusHint.Copy()
	m.help.Styles.FullDesc = m.styles.statusHint.Copy()

	m.filterInput = textinput.New()
	m.filterInput.Prompt = "/ "
	m.filterInput.CharLimit = 64
	return m, nil
}

func pickCmd(field string, entry fields.Entry) tea.Cmd {
	return func() tea.Msg {
		return selectionChangedMsg{field: field, selection: options.Some[any](entry.Value)}
	}
}

func clearCmd(field string) tea.Cmd {
	return func() tea.Msg {
		return selectionChangedMsg{field: field, selection: options.None[any]()}
	}
}

// correctionCmd defers a snapshot's correction until after the frame built
// from it has been drawn.
func correctionCmd(snap fields.Snapshot) tea.Cmd {
	var msg tea.Msg
	effect := snap.Effect(func(s options.Selection[any]) {
		msg = selectionChangedMsg{field: snap.Name, selection: s, corrected: true, seq: snap.Seq}
	})
	if effect == nil {
		return nil
	}
	return func() tea.Msg {
		effect()
		return msg
	}
}

func (m *model) Init() tea.Cmd {
	load := m.load
	if load == nil {
		load = func(context.Context) ([]options.Record, error) { return metadata.Sample() }
	}
	return func() tea.Msg {
		records, err := load(context.Background())
		return metadataLoadedMsg{records: records, err: err}
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.renderPreview()
		return m, nil
	case metadataLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.loadErr = msg.err
			m.logger.Error("metadata load failed", slog.Any("err", msg.err))
			m.appendLog("[ERROR] " + msg.err.Error())
			return m, nil
		}
		m.records = metadata.Filter(msg.records, m.prefilter)
		m.set = options.NewRecordSet(m.records)
		m.logger.Info("metadata loaded",
			slog.Int("records", len(msg.records)),
			slog.Int("prefiltered", len(m.records)))
		m.appendLog(fmt.Sprintf("[INFO] Loaded %d metadata records.", len(m.records)))
		return m, m.evaluate()
	case selectionChangedMsg:
		return m, m.applySelection(msg)
	case clipboardMsg:
		if msg.err != nil {
			m.appendLog("[ERROR] copy failed: " + msg.err.Error())
		} else {
			m.appendLog("[INFO] Selections copied to clipboard.")
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *model) applySelection(msg selectionChangedMsg) tea.Cmd {
	col, ok := m.columns[msg.field]
	if !ok {
		return nil
	}
	// A correction computed from an older snapshot is dropped; the newer
	// snapshot queued its own if one is still needed.
	if msg.corrected && msg.seq != col.snap.Seq {
		return nil
	}
	m.selections[msg.field] = msg.selection

	event := eventPicked
	switch {
	case msg.corrected && msg.selection.IsUnresolved():
		event = eventUnresolved
		m.appendLog(fmt.Sprintf("[WARN] %s: no valid selection is possible.", msg.field))
	case msg.corrected:
		event = eventCorrected
		m.appendLog(fmt.Sprintf("[FIX] %s → %s", msg.field, m.labelFor(msg.field, msg.selection)))
	case msg.selection.IsNone():
		event = eventCleared
	}
	m.events.Emit(event, msg.field, msg.selection)
	m.logger.Debug("selection changed",
		slog.String("selector", msg.field),
		slog.String("event", event),
		slog.Uint64("seq", msg.seq),
		slog.String("selection", msg.selection.String()))
	return m.evaluate()
}

func (m *model) labelFor(field string, sel options.Selection[any]) string {
	v, ok := sel.Value()
	if !ok {
		return sel.String()
	}
	if col, ok := m.columns[field]; ok {
		for _, e := range col.snap.Entries {
			if options.Equal(e.Value, v) {
				return e.Label
			}
		}
	}
	return sel.String()
}

// evaluate runs one evaluation cycle over every selector and returns the
// corrections it discovered as commands. It never changes a selection
// itself.
func (m *model) evaluate() tea.Cmd {
	if m.loading || m.loadErr != nil {
		return nil
	}
	contributions := make(map[string]options.Constraint, m.chain.Len())
	for _, name := range m.chain.Order() {
		contributions[name] = m.selectors[name].Constraint(m.selections[name])
	}

	var cmds []tea.Cmd
	for _, name := range m.chain.Order() {
		snap := m.selectors[name].Evaluate(m.set, m.chain.ConstraintFor(name, contributions), m.selections[name])
		m.columns[name].SetSnapshot(snap)
		cmds = append(cmds, correctionCmd(snap))
	}

	combined := m.chain.Combined(contributions)
	filtered := metadata.Filter(m.records, combined)
	if m.downstream != "" {
		sel := m.selectors[m.downstream]
		snap := sel.Evaluate(options.NewRecordSet(filtered), nil, m.selections[m.downstream])
		m.columns[m.downstream].SetSnapshot(snap)
		cmds = append(cmds, correctionCmd(snap))

		own := sel.Constraint(m.selections[m.downstream])
		filtered = metadata.Filter(filtered, own)
		combined = fields.Union(combined, own)
	}
	m.filtered, m.combined = filtered, combined
	m.renderPreview()
	return tea.Batch(cmds...)
}

func (m *model) renderPreview() {
	if m.loading || m.loadErr != nil {
		return
	}
	m.preview.SetContent(m.markdown.Render(metadataMarkdown("Filtered metadata", m.filtered, m.combined)))
}

func (m *model) focusOrder() []string {
	order := m.chain.Order()
	if m.downstream != "" {
		order = append(order, m.downstream)
	}
	return append(order, previewFocus)
}

func (m *model) focusedName() string {
	order := m.focusOrder()
	if m.focus < 0 || m.focus >= len(order) {
		return ""
	}
	return order[m.focus]
}

func (m *model) focusedColumn() column {
	name := m.focusedName()
	if name == previewFocus {
		return m.preview
	}
	if col, ok := m.columns[name]; ok {
		return col
	}
	return nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filtering {
		return m.handleFilterKey(msg)
	}
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.nextFocus):
		m.focus = (m.focus + 1) % len(m.focusOrder())
		return m, nil
	case key.Matches(msg, m.keys.prevFocus):
		n := len(m.focusOrder())
		m.focus = (m.focus - 1 + n) % n
		return m, nil
	case key.Matches(msg, m.keys.moveLeft):
		if i := m.chain.Index(m.focusedName()); i > 0 && m.chain.MoveDown(i-1) {
			m.focus = i - 1
			m.appendLog("[INFO] Chain: " + strings.Join(m.chain.Order(), " → "))
			m.layout()
			return m, m.evaluate()
		}
		return m, nil
	case key.Matches(msg, m.keys.moveRight):
		if i := m.chain.Index(m.focusedName()); i >= 0 && m.chain.MoveDown(i) {
			m.focus = i + 1
			m.appendLog("[INFO] Chain: " + strings.Join(m.chain.Order(), " → "))
			m.layout()
			return m, m.evaluate()
		}
		return m, nil
	case key.Matches(msg, m.keys.copySel):
		return m, m.copySelectionsCmd()
	case key.Matches(msg, m.keys.toggleTheme):
		m.theme = nextMarkdownTheme(m.theme)
		m.markdown.SetTheme(m.theme)
		m.renderPreview()
		m.appendLog("[INFO] Theme: " + string(m.theme))
		return m, nil
	}

	name := m.focusedName()
	if col, ok := m.columns[name]; ok {
		switch {
		case key.Matches(msg, m.keys.clear):
			return m, clearCmd(name)
		case key.Matches(msg, m.keys.filter):
			m.filtering = true
			m.filterInput.SetValue(col.filter)
			m.filterInput.CursorEnd()
			return m, m.filterInput.Focus()
		}
	}
	if col := m.focusedColumn(); col != nil {
		_, cmd := col.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	col, ok := m.columns[m.focusedName()]
	if !ok {
		m.filtering = false
		m.filterInput.Blur()
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.closeFilter):
		m.filtering = false
		m.filterInput.Blur()
		m.filterInput.SetValue("")
		col.SetFilter("")
		return m, nil
	case msg.Type == tea.KeyEnter:
		m.filtering = false
		m.filterInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	col.SetFilter(m.filterInput.Value())
	return m, cmd
}

func (m *model) copySelectionsCmd() tea.Cmd {
	payload := make(map[string]any, len(m.selections))
	for name, sel := range m.selections {
		if v, ok := sel.Value(); ok {
			payload[name] = v
		}
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return func() tea.Msg { return clipboardMsg{err: err} }
	}
	return func() tea.Msg {
		return clipboardMsg{err: clipboard.WriteAll(string(data))}
	}
}

func (m *model) appendLog(line string) {
	m.logLines = append(m.logLines, line)
	if len(m.logLines) > maxLogLines {
		m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
	}
}

func (m *model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	selectorCount := len(m.focusOrder()) - 1
	colWidth := m.width / maxInt(selectorCount, 1)
	if colWidth < 24 {
		colWidth = 24
	}
	available := m.height - 4
	colHeight := maxInt(available/2, 8)
	for _, col := range m.columns {
		col.SetSize(colWidth, colHeight)
	}
	m.preview.SetSize(m.width, maxInt(available-colHeight, 5))
	m.markdown.SetWordWrap(m.width - 6)
}

func (m *model) View() string {
	if m.width == 0 {
		return "Loading…"
	}
	s := m.styles
	status := fmt.Sprintf("%d records │ %d matching │ chain: %s", len(m.records), len(m.filtered), strings.Join(m.chain.Order(), " → "))
	if m.loading {
		status = "loading metadata…"
	}
	top := s.topBar.Render(lipgloss.JoinHorizontal(lipgloss.Top,
		s.topTitle.Render("metaselect"), "  ", s.topStatus.Render(status)))

	focused := m.focusedName()
	var cols []string
	for _, name := range m.focusOrder() {
		if col, ok := m.columns[name]; ok {
			cols = append(cols, col.View(s, name == focused))
		}
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, cols...)

	var footer string
	switch {
	case m.filtering:
		footer = s.filterPrompt.Render(m.filterInput.View())
	case m.loadErr != nil:
		footer = s.statusWarn.Render("error: " + m.loadErr.Error())
	case len(m.logLines) > 0:
		footer = s.statusBar.Render(m.logLines[len(m.logLines)-1])
	}

	return s.app.Render(lipgloss.JoinVertical(lipgloss.Left,
		top,
		body,
		m.preview.View(s, focused == previewFocus),
		footer,
		m.help.View(m.keys),
	))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
