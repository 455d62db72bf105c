package main

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pipedesk/coach/internal/coach"
	"github.com/pipedesk/coach/internal/coach/notify"
)

// panel identifies which overlay, if any, sits on top of the widget.
type panel int

const (
	panelNone panel = iota
	panelSnooze
	panelSettings
	panelCompletion
)

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Expand   key.Binding
	Compact  key.Binding
	Minimize key.Binding
	Dismiss  key.Binding
	Snooze   key.Binding
	Select   key.Binding
	Skip     key.Binding
	Settings key.Binding
	Back     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Expand:   key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "expand")),
		Compact:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "compact")),
		Minimize: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "minimize")),
		Dismiss:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "dismiss")),
		Snooze:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "snooze")),
		Select:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Skip:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		Settings: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "settings")),
		Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// Bubble Tea messages.
type (
	tickMsg          time.Time
	settingsSavedMsg struct{ err error }
	// completionMsg is how other features open a "what next" prompt; sent
	// through Program.Send.
	completionMsg struct {
		completionType coach.CompletionType
		context        map[string]any
	}
)

const tickInterval = 500 * time.Millisecond

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// widgetModel hosts the assistant widget following the Elm architecture. All
// durable state lives in the stores; the model only holds view state.
type widgetModel struct {
	c    *Container
	ctx  context.Context
	keys keyMap
	md   *markdownCache

	width  int
	height int
	ready  bool

	spinner spinner.Model

	cursor        int // selected row in the expanded list
	compactOffset int // "next" rotation in the compact view

	panel          panel
	snoozeTarget   string // suggestion id the snooze menu applies to
	snoozeCursor   int
	settingsCursor int
	writeInFlight  bool

	modal       notify.Prompt
	modalCursor int
}

func newWidgetModel(ctx context.Context, c *Container) widgetModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return widgetModel{
		c:       c,
		ctx:     ctx,
		keys:    defaultKeyMap(),
		md:      newMarkdownCache(),
		spinner: sp,
	}
}

func (m widgetModel) Init() tea.Cmd {
	return tea.Batch(tick(), m.spinner.Tick)
}

func (m widgetModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case tickMsg:
		m.clampCursors()
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case settingsSavedMsg:
		m.writeInFlight = false
		return m, nil

	case completionMsg:
		if prompt, ok := m.c.Notifier.Show(msg.completionType, msg.context); ok {
			m.modal = prompt
			m.modalCursor = 0
			m.panel = panelCompletion
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m widgetModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	switch m.panel {
	case panelSnooze:
		return m.handleSnoozeKey(msg)
	case panelSettings:
		return m.handleSettingsKey(msg)
	case panelCompletion:
		return m.handleCompletionKey(msg)
	}

	switch m.c.Machine.Current() {
	case coach.WidgetHidden:
		return m, nil
	case coach.WidgetMinimized:
		return m.handleMinimizedKey(msg)
	case coach.WidgetCompact:
		return m.handleCompactKey(msg)
	default:
		return m.handleExpandedKey(msg)
	}
}

func (m widgetModel) handleMinimizedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Expand):
		m.c.Machine.Expand(m.ctx)
	case key.Matches(msg, m.keys.Compact):
		m.c.Machine.Compact(m.ctx)
	}
	return m, nil
}

func (m widgetModel) handleCompactKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Minimize):
		m.c.Machine.Minimize(m.ctx)
	case key.Matches(msg, m.keys.Select):
		if s, ok := m.compactSuggestion(); ok {
			m.openSuggestion(s)
		}
	case key.Matches(msg, m.keys.Expand):
		m.c.Machine.Expand(m.ctx)
	case key.Matches(msg, m.keys.Skip):
		m.compactOffset++
	case key.Matches(msg, m.keys.Snooze):
		if s, ok := m.compactSuggestion(); ok {
			m.panel = panelSnooze
			m.snoozeTarget = s.ID
			m.snoozeCursor = 0
		}
	}
	return m, nil
}

func (m widgetModel) handleExpandedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := m.visibleSuggestions()
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(visible)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Minimize):
		m.c.Machine.Minimize(m.ctx)
	case key.Matches(msg, m.keys.Compact):
		m.c.Machine.Compact(m.ctx)
	case key.Matches(msg, m.keys.Settings):
		m.panel = panelSettings
		m.settingsCursor = 0
	case key.Matches(msg, m.keys.Dismiss):
		if m.cursor < len(visible) {
			m.c.Dispatch.Dismiss(m.ctx, visible[m.cursor].ID)
			m.clampCursors()
		}
	case key.Matches(msg, m.keys.Snooze):
		if m.cursor < len(visible) {
			m.panel = panelSnooze
			m.snoozeTarget = visible[m.cursor].ID
			m.snoozeCursor = 0
		}
	case key.Matches(msg, m.keys.Select):
		if m.cursor < len(visible) {
			m.openSuggestion(visible[m.cursor])
		}
	}
	return m, nil
}

func (m widgetModel) handleSnoozeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	presets := snoozePresets()
	switch {
	case key.Matches(msg, m.keys.Back):
		m.panel = panelNone
	case key.Matches(msg, m.keys.Up):
		if m.snoozeCursor > 0 {
			m.snoozeCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.snoozeCursor < len(presets)-1 {
			m.snoozeCursor++
		}
	case key.Matches(msg, m.keys.Select):
		preset := presets[m.snoozeCursor]
		m.c.Dispatch.Snooze(m.ctx, m.snoozeTarget, preset.until(time.Now()))
		m.panel = panelNone
		m.clampCursors()
	}
	return m, nil
}

// settingsRows mirrors the panel layout: enabled, inline tips, completion
// modals, frequency.
const settingsRowCount = 4

func (m widgetModel) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.panel = panelNone
		return m, nil
	case key.Matches(msg, m.keys.Up):
		if m.settingsCursor > 0 {
			m.settingsCursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.settingsCursor < settingsRowCount-1 {
			m.settingsCursor++
		}
		return m, nil
	case key.Matches(msg, m.keys.Select):
		return m.toggleSettingsRow()
	}
	return m, nil
}

// toggleSettingsRow issues the update for the selected row immediately; there
// is no separate save step. Rows are inert while a write is in flight, and
// every row but the enabled toggle is inert while the assistant is disabled.
func (m widgetModel) toggleSettingsRow() (tea.Model, tea.Cmd) {
	if m.writeInFlight {
		return m, nil
	}
	current := m.c.Stores.Settings.Get()
	if !current.IsEnabled && m.settingsCursor != 0 {
		return m, nil
	}

	var patch coach.SettingsPatch
	switch m.settingsCursor {
	case 0:
		v := !current.IsEnabled
		patch.IsEnabled = &v
	case 1:
		v := !current.ShowInlineTips
		patch.ShowInlineTips = &v
	case 2:
		v := !current.ShowCompletionModals
		patch.ShowCompletionModals = &v
	case 3:
		next := nextFrequency(current.NotificationFrequency)
		patch.NotificationFrequency = &next
	}

	m.writeInFlight = true
	return m, func() tea.Msg {
		return settingsSavedMsg{err: m.c.Stores.Settings.Update(m.ctx, patch)}
	}
}

func nextFrequency(f coach.NotificationFrequency) coach.NotificationFrequency {
	switch f {
	case coach.FrequencyMinimal:
		return coach.FrequencyNormal
	case coach.FrequencyNormal:
		return coach.FrequencyFrequent
	default:
		return coach.FrequencyMinimal
	}
}

func (m widgetModel) handleCompletionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		// "Maybe later" is itself a recorded response.
		m.c.Notifier.Defer(m.ctx, m.modal)
		m.panel = panelNone
	case key.Matches(msg, m.keys.Up):
		if m.modalCursor > 0 {
			m.modalCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.modalCursor < len(m.modal.Steps)-1 {
			m.modalCursor++
		}
	case key.Matches(msg, m.keys.Select):
		if m.modalCursor < len(m.modal.Steps) {
			m.c.Notifier.SelectStep(m.ctx, m.modal, m.modal.Steps[m.modalCursor])
		}
		m.panel = panelNone
	}
	return m, nil
}

// openSuggestion records the click-through and navigates; it never mutates
// the local list, so the user can come back to the suggestion.
func (m *widgetModel) openSuggestion(s coach.Suggestion) {
	m.c.Dispatch.ClickThrough(m.ctx, s.ID)
	if s.ActionRoute != "" {
		m.c.Nav.Goto(s.ActionRoute)
	}
}

// visibleSuggestions is the expanded view's row list: the priority slot first
// (when occupied), then regular suggestions capped for display.
func (m widgetModel) visibleSuggestions() []coach.Suggestion {
	const maxRegular = 5
	var visible []coach.Suggestion
	if top, ok := m.c.Stores.Suggestions.TopPriority(); ok {
		visible = append(visible, top)
	}
	regular := m.c.Stores.Suggestions.Regular()
	if len(regular) > maxRegular {
		regular = regular[:maxRegular]
	}
	return append(visible, regular...)
}

// compactOrder is the rotation the compact view's skip key walks: the store's
// lead suggestion first, then the rest of the pending list in server order.
func (m widgetModel) compactOrder() []coach.Suggestion {
	lead, ok := m.c.Stores.Suggestions.Next()
	if !ok {
		return nil
	}
	ordered := []coach.Suggestion{lead}
	for _, s := range m.c.Stores.Suggestions.Pending() {
		if s.ID != lead.ID {
			ordered = append(ordered, s)
		}
	}
	return ordered
}

// compactSuggestion is the single card the compact view shows, honoring the
// skip rotation.
func (m widgetModel) compactSuggestion() (coach.Suggestion, bool) {
	ordered := m.compactOrder()
	if len(ordered) == 0 {
		return coach.Suggestion{}, false
	}
	return ordered[m.compactOffset%len(ordered)], true
}

func (m *widgetModel) clampCursors() {
	if n := len(m.visibleSuggestions()); m.cursor >= n {
		m.cursor = max(0, n-1)
	}
	if n := m.c.Stores.Suggestions.PendingCount(); n > 0 {
		m.compactOffset %= n
	} else {
		m.compactOffset = 0
	}
}
