// Package dispatch executes user actions against suggestions: optimistic
// local mutation first, best-effort server reconciliation second.
package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/pipedesk/coach/internal/async"
	"github.com/pipedesk/coach/internal/coach"
	"github.com/pipedesk/coach/internal/coach/store"
	"github.com/pipedesk/coach/internal/coach/track"
	"github.com/pipedesk/coach/internal/logging"
)

// ActionClient records a terminal suggestion action server-side.
type ActionClient interface {
	ActOnSuggestion(ctx context.Context, suggestionID string, action coach.ActionKind, snoozeUntil *time.Time) error
}

// Dispatcher applies dismiss / snooze / click-through. Local mutations are
// synchronous so the next user interaction sees the new state; the server
// notification rides on a background goroutine and is never rolled back on
// failure (the remote store reconciles on the next fetch).
type Dispatcher struct {
	suggestions *store.SuggestionStore
	client      ActionClient
	tracker     *track.Tracker
	logger      logging.Logger

	wg sync.WaitGroup
}

// New creates a Dispatcher.
func New(suggestions *store.SuggestionStore, client ActionClient, tracker *track.Tracker, logger logging.Logger) *Dispatcher {
	return &Dispatcher{
		suggestions: suggestions,
		client:      client,
		tracker:     tracker,
		logger:      logging.OrNop(logger),
	}
}

// Dismiss removes the suggestion locally, then notifies the remote store.
// Terminal from the user's point of view even if the network call fails.
func (d *Dispatcher) Dismiss(ctx context.Context, suggestionID string) {
	d.suggestions.Remove(suggestionID)

	d.spawn("dismiss", func() {
		if err := d.client.ActOnSuggestion(ctx, suggestionID, coach.ActionDismissed, nil); err != nil {
			d.logger.Warn("dismiss of %s not recorded server-side: %v", suggestionID, err)
		}
		d.tracker.Track(ctx, coach.EventSuggestionDismiss, map[string]any{"suggestion_id": suggestionID})
	})
}

// Snooze removes the suggestion locally and records the snooze server-side.
// The second Remove after the response covers a refetch racing the optimistic
// removal back in.
func (d *Dispatcher) Snooze(ctx context.Context, suggestionID string, until time.Time) {
	d.suggestions.Remove(suggestionID)

	d.spawn("snooze", func() {
		if err := d.client.ActOnSuggestion(ctx, suggestionID, coach.ActionSnoozed, &until); err != nil {
			d.logger.Warn("snooze of %s not recorded server-side: %v", suggestionID, err)
		}
		d.suggestions.Remove(suggestionID)
		d.tracker.Track(ctx, coach.EventSuggestionSnooze, map[string]any{
			"suggestion_id": suggestionID,
			"snooze_until":  until.Format(time.RFC3339),
		})
	})
}

// ClickThrough records a click without touching the local list; the user may
// want to revisit the suggestion. Failures are swallowed since the call rides
// alongside navigation.
func (d *Dispatcher) ClickThrough(ctx context.Context, suggestionID string) {
	d.spawn("click", func() {
		if err := d.client.ActOnSuggestion(ctx, suggestionID, coach.ActionClicked, nil); err != nil {
			d.logger.Debug("click on %s not recorded server-side: %v", suggestionID, err)
		}
		d.tracker.Track(ctx, coach.EventSuggestionClick, map[string]any{"suggestion_id": suggestionID})
	})
}

// Flush blocks until all in-flight server notifications have finished. Used
// on teardown and by tests; user flows never wait on it.
func (d *Dispatcher) Flush() {
	d.wg.Wait()
}

func (d *Dispatcher) spawn(name string, fn func()) {
	d.wg.Add(1)
	async.Go(d.logger, name, func() {
		defer d.wg.Done()
		fn()
	})
}
