package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pipedesk/coach/internal/coach"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	urgentStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("203"))

	badgeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("75")).
			Padding(0, 1)

	urgentBadgeStyle = badgeStyle.
				Background(lipgloss.Color("203"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("75"))

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)

	prioritySlotStyle = cardStyle.
				BorderForeground(lipgloss.Color("203"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	disabledRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("238"))
)

func (m widgetModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	switch m.panel {
	case panelSnooze:
		return m.snoozeView()
	case panelSettings:
		return m.settingsView()
	case panelCompletion:
		return m.completionView()
	}

	switch m.c.Machine.Current() {
	case coach.WidgetHidden:
		return ""
	case coach.WidgetMinimized:
		return m.minimizedView()
	case coach.WidgetCompact:
		return m.compactView()
	default:
		return m.expandedView()
	}
}

// minimizedView is the badge: pending count, urgency-colored.
func (m widgetModel) minimizedView() string {
	if !m.c.Stores.Settings.Loaded() {
		return statusStyle.Render(m.spinner.View() + " coach starting…")
	}

	count := m.c.Stores.Suggestions.PendingCount()
	badge := badgeStyle
	if m.c.Stores.Suggestions.HasUrgent() {
		badge = urgentBadgeStyle
	}
	return lipgloss.JoinVertical(
		lipgloss.Left,
		badge.Render(fmt.Sprintf("Coach %d", count)),
		statusStyle.Render("e expand · c compact · q quit"),
	)
}

// compactView shows a single suggestion card.
func (m widgetModel) compactView() string {
	s, ok := m.compactSuggestion()
	if !ok {
		return lipgloss.JoinVertical(
			lipgloss.Left,
			cardStyle.Render(dimStyle.Render("All caught up.")),
			statusStyle.Render("e expand · m minimize · q quit"),
		)
	}

	card := cardStyle
	title := titleStyle.Render(s.Title)
	if s.Urgent() {
		card = prioritySlotStyle
		title = urgentStyle.Render(s.Title)
	}

	lines := []string{title}
	if s.Reason != "" {
		lines = append(lines, dimStyle.Render(s.Reason))
	}
	lines = append(lines, dimStyle.Render(actionLabel(s)))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		card.Render(strings.Join(lines, "\n")),
		statusStyle.Render("enter open · s snooze · n next · e expand · m minimize"),
	)
}

// expandedView is the full widget: priority slot, regular list, stats line.
func (m widgetModel) expandedView() string {
	header := titleStyle.Render("Coach") + " " +
		dimStyle.Render(fmt.Sprintf("· %d pending", m.c.Stores.Suggestions.PendingCount()))

	sections := []string{header}

	visible := m.visibleSuggestions()
	if len(visible) == 0 {
		sections = append(sections, "", dimStyle.Render("All caught up. New suggestions arrive on the next refresh."))
	}
	_, hasTop := m.c.Stores.Suggestions.TopPriority()
	for i, s := range visible {
		sections = append(sections, "", m.renderRow(s, i == m.cursor, hasTop && i == 0))
	}

	if m.c.Stores.Stats.Loaded() {
		stats := m.c.Stores.Stats.Get()
		sections = append(sections, "",
			statusStyle.Render(fmt.Sprintf("✓ %d done today · %d all time", stats.Today.Completed, stats.Aggregate.Completed)))
	}

	sections = append(sections, "",
		statusStyle.Render("↑/↓ move · enter open · d dismiss · s snooze · o settings · m minimize"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m widgetModel) renderRow(s coach.Suggestion, selected, prioritySlot bool) string {
	marker := "  "
	titled := titleStyle
	if selected {
		marker = selectedStyle.Render("▸ ")
		titled = selectedStyle
	}
	if prioritySlot {
		titled = urgentStyle
	}

	lines := []string{marker + titled.Render(s.Title) + dimStyle.Render(fmt.Sprintf("  (%d)", s.Priority))}
	if selected && s.Description != "" {
		desc := m.md.Render(s.Description, m.width-6)
		for _, line := range strings.Split(desc, "\n") {
			lines = append(lines, "    "+line)
		}
	}
	if selected && s.Reason != "" {
		lines = append(lines, "    "+dimStyle.Render(s.Reason))
	}
	if selected {
		lines = append(lines, "    "+dimStyle.Render(actionLabel(s)))
	}

	row := strings.Join(lines, "\n")
	if prioritySlot {
		return prioritySlotStyle.Render(row)
	}
	return row
}

func (m widgetModel) snoozeView() string {
	lines := []string{titleStyle.Render("Snooze until…"), ""}
	for i, preset := range snoozePresets() {
		if i == m.snoozeCursor {
			lines = append(lines, selectedStyle.Render("▸ "+preset.label))
		} else {
			lines = append(lines, "  "+preset.label)
		}
	}
	lines = append(lines, "", statusStyle.Render("enter confirm · esc cancel"))
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func (m widgetModel) settingsView() string {
	settings := m.c.Stores.Settings.Get()
	rows := []struct {
		label string
		value string
	}{
		{"Assistant enabled", onOff(settings.IsEnabled)},
		{"Inline tips", onOff(settings.ShowInlineTips)},
		{"Completion modals", onOff(settings.ShowCompletionModals)},
		{"Notification frequency", string(settings.NotificationFrequency)},
	}

	lines := []string{titleStyle.Render("Coach settings"), ""}
	for i, row := range rows {
		style := lipgloss.NewStyle()
		marker := "  "
		if i == m.settingsCursor {
			marker = selectedStyle.Render("▸ ")
		}
		// Sub-settings are meaningless while the assistant is off, and every
		// row is inert while a write is pending.
		if m.writeInFlight || (!settings.IsEnabled && i != 0) {
			style = disabledRowStyle
		}
		lines = append(lines, marker+style.Render(fmt.Sprintf("%-24s %s", row.label, row.value)))
	}

	status := "enter toggle · esc close"
	if m.writeInFlight {
		status = m.spinner.View() + " saving…"
	}
	lines = append(lines, "", statusStyle.Render(status))
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func (m widgetModel) completionView() string {
	lines := []string{
		titleStyle.Render(m.modal.Title),
		dimStyle.Render(m.modal.Description),
		"",
	}
	for i, step := range m.modal.Steps {
		label := step.Label
		if step.Primary {
			label += dimStyle.Render("  (recommended)")
		}
		if i == m.modalCursor {
			lines = append(lines, selectedStyle.Render("▸ "+label))
		} else {
			lines = append(lines, "  "+label)
		}
	}
	lines = append(lines, "", statusStyle.Render("enter choose · esc maybe later"))
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func actionLabel(s coach.Suggestion) string {
	if s.ActionLabel != "" {
		return s.ActionLabel
	}
	if s.ActionRoute != "" {
		return "Open " + s.ActionRoute
	}
	return "Open"
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
