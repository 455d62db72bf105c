// Package track emits behavioral events to the remote store. Events are
// write-only telemetry: nothing in the engine ever reads them back, and no
// transport failure may escape to the host.
package track

import (
	"context"

	"github.com/oklog/ulid/v2"

	"github.com/pipedesk/coach/internal/coach"
	"github.com/pipedesk/coach/internal/logging"
)

// Emitter forwards a single event to the remote store.
type Emitter interface {
	EmitEvent(ctx context.Context, event coach.BehaviorEvent) error
}

// PageFunc reports the page the user is currently on. It is consulted at
// emission time, not at tracker construction, so events that fire from a
// delayed timer still carry the page they logically occurred on.
type PageFunc func() string

// Tracker tags events with the current page context and a client event id,
// then hands them to the emitter. Failures are logged at debug and discarded.
type Tracker struct {
	emitter Emitter
	page    PageFunc
	logger  logging.Logger
	newID   func() string
}

// New creates a Tracker. A nil page function yields events without page
// context.
func New(emitter Emitter, page PageFunc, logger logging.Logger) *Tracker {
	return &Tracker{
		emitter: emitter,
		page:    page,
		logger:  logging.OrNop(logger),
		newID:   func() string { return ulid.Make().String() },
	}
}

// Track emits one event. It never returns an error and never panics outward;
// telemetry must not be able to break the host page.
func (t *Tracker) Track(ctx context.Context, eventType coach.EventType, data map[string]any) {
	if t == nil || t.emitter == nil {
		return
	}

	event := coach.BehaviorEvent{
		EventType:     eventType,
		EventData:     data,
		ClientEventID: t.newID(),
	}
	if t.page != nil {
		event.PageContext = t.page()
	}

	if err := t.emitter.EmitEvent(ctx, event); err != nil {
		t.logger.Debug("event %s dropped: %v", eventType, err)
	}
}
