// Package coach defines the domain model for the proactive-assistant engine:
// suggestions ranked by the remote store, per-user assistant settings, usage
// stats, and the behavioral event vocabulary.
package coach

import "time"

// WidgetState controls how much of the assistant widget is visible.
type WidgetState string

const (
	WidgetHidden    WidgetState = "hidden"
	WidgetMinimized WidgetState = "minimized"
	WidgetCompact   WidgetState = "compact"
	WidgetExpanded  WidgetState = "expanded"
)

// Valid reports whether s is one of the four known widget states.
func (s WidgetState) Valid() bool {
	switch s {
	case WidgetHidden, WidgetMinimized, WidgetCompact, WidgetExpanded:
		return true
	}
	return false
}

// NotificationFrequency tunes how often the assistant nudges the user.
type NotificationFrequency string

const (
	FrequencyMinimal  NotificationFrequency = "minimal"
	FrequencyNormal   NotificationFrequency = "normal"
	FrequencyFrequent NotificationFrequency = "frequent"
)

// PriorityThreshold is the score at or above which a suggestion qualifies for
// the single priority slot in the widget.
const PriorityThreshold = 80

// Suggestion is a server-ranked recommendation. Ranking and generation happen
// remotely; the engine only caches, filters, and presents what it is given.
type Suggestion struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Icon        string     `json:"icon,omitempty"`
	Priority    int        `json:"priority"`
	Reason      string     `json:"reason,omitempty"`
	ActionRoute string     `json:"action_route,omitempty"`
	ActionLabel string     `json:"action_label,omitempty"`
	ActionTaken bool       `json:"action_taken"`
	SnoozeUntil *time.Time `json:"snooze_until,omitempty"`
}

// SnoozedAt reports whether the suggestion is snoozed past now. The check is
// applied client-side even though the server is supposed to filter snoozed
// suggestions out of its responses.
func (s Suggestion) SnoozedAt(now time.Time) bool {
	return s.SnoozeUntil != nil && s.SnoozeUntil.After(now)
}

// PendingAt reports whether the suggestion should appear in any pending view.
func (s Suggestion) PendingAt(now time.Time) bool {
	return !s.ActionTaken && !s.SnoozedAt(now)
}

// Urgent reports whether the suggestion qualifies for the priority slot.
func (s Suggestion) Urgent() bool {
	return s.Priority >= PriorityThreshold
}

// Settings is the per-user assistant configuration mirrored from the remote
// store.
type Settings struct {
	IsEnabled             bool                  `json:"is_enabled"`
	WidgetState           WidgetState           `json:"widget_state"`
	ShowInlineTips        bool                  `json:"show_inline_tips"`
	ShowCompletionModals  bool                  `json:"show_completion_modals"`
	NotificationFrequency NotificationFrequency `json:"notification_frequency"`
	DismissedTipIDs       []string              `json:"dismissed_tip_ids"`
}

// DefaultSettings is the state assumed before the first settings fetch
// resolves: assistant off, widget idle.
func DefaultSettings() Settings {
	return Settings{
		IsEnabled:             false,
		WidgetState:           WidgetMinimized,
		ShowInlineTips:        true,
		ShowCompletionModals:  true,
		NotificationFrequency: FrequencyNormal,
	}
}

// TipDismissed reports whether the inline tip id has been dismissed.
func (s Settings) TipDismissed(id string) bool {
	for _, dismissed := range s.DismissedTipIDs {
		if dismissed == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can hold settings without aliasing the
// store's confirmed record.
func (s Settings) Clone() Settings {
	clone := s
	if s.DismissedTipIDs != nil {
		clone.DismissedTipIDs = append([]string(nil), s.DismissedTipIDs...)
	}
	return clone
}

// SettingsPatch is a partial settings update. Nil fields are left untouched by
// the merge; the remote store accepts the same subset shape on PATCH.
type SettingsPatch struct {
	IsEnabled             *bool                  `json:"is_enabled,omitempty"`
	WidgetState           *WidgetState           `json:"widget_state,omitempty"`
	ShowInlineTips        *bool                  `json:"show_inline_tips,omitempty"`
	ShowCompletionModals  *bool                  `json:"show_completion_modals,omitempty"`
	NotificationFrequency *NotificationFrequency `json:"notification_frequency,omitempty"`
	DismissedTipIDs       []string               `json:"dismissed_tip_ids,omitempty"`
}

// ApplyTo merges the patch into base field by field and returns the result.
func (p SettingsPatch) ApplyTo(base Settings) Settings {
	merged := base.Clone()
	if p.IsEnabled != nil {
		merged.IsEnabled = *p.IsEnabled
	}
	if p.WidgetState != nil {
		merged.WidgetState = *p.WidgetState
	}
	if p.ShowInlineTips != nil {
		merged.ShowInlineTips = *p.ShowInlineTips
	}
	if p.ShowCompletionModals != nil {
		merged.ShowCompletionModals = *p.ShowCompletionModals
	}
	if p.NotificationFrequency != nil {
		merged.NotificationFrequency = *p.NotificationFrequency
	}
	if p.DismissedTipIDs != nil {
		merged.DismissedTipIDs = append([]string(nil), p.DismissedTipIDs...)
	}
	return merged
}

// Empty reports whether the patch would change nothing.
func (p SettingsPatch) Empty() bool {
	return p.IsEnabled == nil && p.WidgetState == nil && p.ShowInlineTips == nil &&
		p.ShowCompletionModals == nil && p.NotificationFrequency == nil && p.DismissedTipIDs == nil
}

// StatPeriod aggregates completed-action counts for one window.
type StatPeriod struct {
	Completed  int            `json:"completed"`
	ByCategory map[string]int `json:"by_category,omitempty"`
}

// Stats carries today's counters plus running totals. Read-only for the
// engine; only the sync engine replaces it on fetch.
type Stats struct {
	Today     StatPeriod `json:"today"`
	Aggregate StatPeriod `json:"aggregate"`
}

// EventType enumerates the behavioral events the engine emits.
type EventType string

const (
	EventPageView           EventType = "page_view"
	EventWidgetExpanded     EventType = "widget_expanded"
	EventWidgetCollapsed    EventType = "widget_collapsed"
	EventSuggestionDismiss  EventType = "suggestion_dismissed"
	EventSuggestionSnooze   EventType = "suggestion_snoozed"
	EventSuggestionClick    EventType = "suggestion_clicked"
	EventCompletionSelected EventType = "completion_step_selected"
	EventCompletionDeferred EventType = "completion_deferred"
	EventTipDismissed       EventType = "tip_dismissed"
)

// BehaviorEvent is an immutable, write-only telemetry fact. The timestamp is
// assigned by the remote store at ingestion; ClientEventID deduplicates
// accidental resubmissions.
type BehaviorEvent struct {
	EventType     EventType      `json:"event_type"`
	EventData     map[string]any `json:"event_data,omitempty"`
	PageContext   string         `json:"page_context,omitempty"`
	ClientEventID string         `json:"client_event_id,omitempty"`
}

// ActionKind names a terminal user action against a suggestion.
type ActionKind string

const (
	ActionDismissed ActionKind = "dismissed"
	ActionSnoozed   ActionKind = "snoozed"
	ActionClicked   ActionKind = "clicked"
)

// CompletionType tags a task another feature just finished, used to resolve a
// "what next" prompt.
type CompletionType string

const (
	CompletionResearch        CompletionType = "research_completed"
	CompletionContactsAdded   CompletionType = "contacts_added"
	CompletionPrep            CompletionType = "prep_completed"
	CompletionFollowUp        CompletionType = "followup_completed"
	CompletionActionGenerated CompletionType = "action_generated"
)
