// Package store holds the engine's in-memory mirrors of the remote store:
// suggestions, settings, and stats. The sync engine owns their lifecycle;
// mutation rights are limited to the sync engine, the action dispatcher, and
// the widget state machine. Reads are unrestricted.
package store

import (
	"sync"
	"time"

	"github.com/pipedesk/coach/internal/coach"
)

// SuggestionStore caches the server-delivered suggestion list. Order is never
// changed locally: the priority-slot rule depends on first-match over server
// order so that selection stays deterministic across retries.
type SuggestionStore struct {
	mu    sync.RWMutex
	items []coach.Suggestion
	now   func() time.Time
}

// NewSuggestionStore creates an empty store. A nil clock defaults to
// time.Now; tests inject a fixed clock.
func NewSuggestionStore(now func() time.Time) *SuggestionStore {
	if now == nil {
		now = time.Now
	}
	return &SuggestionStore{now: now}
}

// Replace swaps in a freshly fetched list. Stale responses are applied
// unconditionally (last-write-wins); the snooze filter in Pending covers a
// server that re-delivers a locally snoozed suggestion.
func (s *SuggestionStore) Replace(items []coach.Suggestion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]coach.Suggestion(nil), items...)
}

// Remove deletes the suggestion with the given id, if present.
func (s *SuggestionStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, item := range s.items {
		if item.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

// Clear drops all cached suggestions.
func (s *SuggestionStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}

// Get returns the suggestion with the given id.
func (s *SuggestionStore) Get(id string) (coach.Suggestion, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return coach.Suggestion{}, false
}

// Pending returns suggestions that are neither acted on nor snoozed into the
// future, in server-delivered order.
func (s *SuggestionStore) Pending() []coach.Suggestion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pendingLocked()
}

func (s *SuggestionStore) pendingLocked() []coach.Suggestion {
	now := s.now()
	var pending []coach.Suggestion
	for _, item := range s.items {
		if item.PendingAt(now) {
			pending = append(pending, item)
		}
	}
	return pending
}

// TopPriority returns the first pending suggestion at or above the priority
// threshold. At most one suggestion ever occupies the priority slot.
func (s *SuggestionStore) TopPriority() (coach.Suggestion, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.pendingLocked() {
		if item.Urgent() {
			return item, true
		}
	}
	return coach.Suggestion{}, false
}

// Regular returns the pending list minus the priority-slot element. Callers
// cap the display length themselves; counting always uses the full list.
func (s *SuggestionStore) Regular() []coach.Suggestion {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pending := s.pendingLocked()
	for i, item := range pending {
		if item.Urgent() {
			return append(pending[:i], pending[i+1:]...)
		}
	}
	return pending
}

// Next returns the suggestion the compact view leads with: the priority-slot
// occupant when one exists, otherwise the first pending suggestion regardless
// of priority.
func (s *SuggestionStore) Next() (coach.Suggestion, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pending := s.pendingLocked()
	if len(pending) == 0 {
		return coach.Suggestion{}, false
	}
	for _, item := range pending {
		if item.Urgent() {
			return item, true
		}
	}
	return pending[0], true
}

// PendingCount returns the badge count for the minimized view.
func (s *SuggestionStore) PendingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pendingLocked())
}

// HasUrgent reports whether any pending suggestion qualifies for the priority
// slot, driving the minimized view's urgency indicator.
func (s *SuggestionStore) HasUrgent() bool {
	_, ok := s.TopPriority()
	return ok
}
