// Package widget holds the finite state machine behind the floating assistant
// widget. The machine only ever changes state on explicit user intent; no
// timer or data arrival moves it.
package widget

import (
	"context"
	"sync"

	"github.com/pipedesk/coach/internal/async"
	"github.com/pipedesk/coach/internal/coach"
	"github.com/pipedesk/coach/internal/coach/store"
	"github.com/pipedesk/coach/internal/coach/track"
	"github.com/pipedesk/coach/internal/logging"
)

// Machine drives which widget view renders. It owns only the current state
// value; every transition is mirrored into settings asynchronously so the
// widget reopens the same way next session.
type Machine struct {
	mu       sync.Mutex
	state    coach.WidgetState
	settings *store.SettingsStore
	tracker  *track.Tracker
	logger   logging.Logger

	wg sync.WaitGroup
}

// NewMachine creates a machine in the idle minimized state.
func NewMachine(settings *store.SettingsStore, tracker *track.Tracker, logger logging.Logger) *Machine {
	return &Machine{
		state:    coach.WidgetMinimized,
		settings: settings,
		tracker:  tracker,
		logger:   logging.OrNop(logger),
	}
}

// Current returns the state driving the rendered view.
func (m *Machine) Current() coach.WidgetState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SyncFromSettings adopts the state persisted in settings, typically after
// the initial settings fetch. A disabled assistant forces hidden. This is not
// a user transition: nothing is persisted and no event is emitted.
func (m *Machine) SyncFromSettings(settings coach.Settings) {
	next := settings.WidgetState
	if !next.Valid() {
		next = coach.WidgetMinimized
	}
	if !settings.IsEnabled {
		next = coach.WidgetHidden
	}

	m.mu.Lock()
	m.state = next
	m.mu.Unlock()
}

// Transition moves to next on user intent. The local state changes
// immediately for instant rendering; persistence and event emission ride on a
// background goroutine. A failed persistence call is not rolled back — the
// user's intent to see or hide the widget outranks settings consistency, and
// the mismatch self-heals on the next settings fetch.
func (m *Machine) Transition(ctx context.Context, next coach.WidgetState) {
	if !next.Valid() || next == coach.WidgetHidden {
		// Hidden is reachable only through settings, never by transition.
		m.logger.Warn("ignoring widget transition to %q", next)
		return
	}

	m.mu.Lock()
	prev := m.state
	if prev == next {
		m.mu.Unlock()
		return
	}
	m.state = next
	m.mu.Unlock()

	m.wg.Add(1)
	async.Go(m.logger, "widget-transition", func() {
		defer m.wg.Done()

		state := next
		if err := m.settings.Update(ctx, coach.SettingsPatch{WidgetState: &state}); err != nil {
			m.logger.Debug("widget state %s not persisted: %v", next, err)
		}

		// Only entering expanded and returning to minimized are tracked;
		// compact is a transient peek.
		switch {
		case next == coach.WidgetExpanded:
			m.tracker.Track(ctx, coach.EventWidgetExpanded, map[string]any{"from": string(prev)})
		case next == coach.WidgetMinimized:
			m.tracker.Track(ctx, coach.EventWidgetCollapsed, map[string]any{"from": string(prev)})
		}
	})
}

// Expand opens the full-list view.
func (m *Machine) Expand(ctx context.Context) { m.Transition(ctx, coach.WidgetExpanded) }

// Compact opens the single-suggestion view.
func (m *Machine) Compact(ctx context.Context) { m.Transition(ctx, coach.WidgetCompact) }

// Minimize returns the widget to its idle control surface.
func (m *Machine) Minimize(ctx context.Context) { m.Transition(ctx, coach.WidgetMinimized) }

// Flush waits for in-flight persistence calls. Teardown and tests only.
func (m *Machine) Flush() {
	m.wg.Wait()
}
