package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/pipedesk/coach/internal/coach"
	"github.com/pipedesk/coach/internal/logging"
)

// SettingsUpdater round-trips a partial settings update to the remote store
// and returns the authoritative echo.
type SettingsUpdater interface {
	UpdateSettings(ctx context.Context, patch coach.SettingsPatch) (coach.Settings, error)
}

// SettingsStore mirrors the user's assistant configuration. Updates are
// applied optimistically for responsiveness and overwritten by the server echo
// when it arrives. A failed write is never rolled back: the local value stays,
// and the mismatch self-heals on the next successful settings fetch.
type SettingsStore struct {
	mu          sync.RWMutex
	current     coach.Settings
	loaded      bool
	updater     SettingsUpdater
	logger      logging.Logger
	subscribers []func(coach.Settings)
}

// NewSettingsStore creates a store seeded with default settings.
func NewSettingsStore(updater SettingsUpdater, logger logging.Logger) *SettingsStore {
	return &SettingsStore{
		current: coach.DefaultSettings(),
		updater: updater,
		logger:  logging.OrNop(logger),
	}
}

// Subscribe registers fn to run after every settings change, fetch-applied or
// optimistic. The sync engine uses this to react to the enabled flag flipping.
// Not safe to call concurrently with mutations; wire subscribers up front.
func (s *SettingsStore) Subscribe(fn func(coach.Settings)) {
	if fn == nil {
		return
	}
	s.subscribers = append(s.subscribers, fn)
}

func (s *SettingsStore) notify() {
	current := s.Get()
	for _, fn := range s.subscribers {
		fn(current)
	}
}

// Get returns a copy of the current settings.
func (s *SettingsStore) Get() coach.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Loaded reports whether at least one settings fetch has resolved.
func (s *SettingsStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// SetConfirmed overwrites the mirror with an authoritative server record.
// Only the sync engine (on fetch) and Update (on echo) call this.
func (s *SettingsStore) SetConfirmed(settings coach.Settings) {
	s.mu.Lock()
	s.current = settings.Clone()
	s.loaded = true
	s.mu.Unlock()
	s.notify()
}

// Update applies the patch locally, then round-trips it to the remote store.
// The error return lets callers track in-flight state; nobody treats it as a
// reason to undo the local change.
func (s *SettingsStore) Update(ctx context.Context, patch coach.SettingsPatch) error {
	if patch.Empty() {
		return nil
	}

	s.mu.Lock()
	s.current = patch.ApplyTo(s.current)
	s.mu.Unlock()
	s.notify()

	if s.updater == nil {
		return nil
	}

	echo, err := s.updater.UpdateSettings(ctx, patch)
	if err != nil {
		s.logger.Warn("settings update not persisted, keeping local state: %v", err)
		return fmt.Errorf("update settings: %w", err)
	}

	s.SetConfirmed(echo)
	return nil
}

// DismissTip records an inline tip as dismissed and persists the new set.
func (s *SettingsStore) DismissTip(ctx context.Context, tipID string) error {
	s.mu.RLock()
	if s.current.TipDismissed(tipID) {
		s.mu.RUnlock()
		return nil
	}
	dismissed := append(append([]string(nil), s.current.DismissedTipIDs...), tipID)
	s.mu.RUnlock()

	return s.Update(ctx, coach.SettingsPatch{DismissedTipIDs: dismissed})
}

// Clear resets the mirror to defaults, e.g. on session teardown.
func (s *SettingsStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = coach.DefaultSettings()
	s.loaded = false
}
