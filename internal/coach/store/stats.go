package store

import (
	"sync"

	"github.com/pipedesk/coach/internal/coach"
)

// StatsStore mirrors the read-only usage counters. Only the sync engine
// writes it.
type StatsStore struct {
	mu     sync.RWMutex
	stats  coach.Stats
	loaded bool
}

// NewStatsStore creates an empty stats mirror.
func NewStatsStore() *StatsStore {
	return &StatsStore{}
}

// Set replaces the mirror with a freshly fetched record.
func (s *StatsStore) Set(stats coach.Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = cloneStats(stats)
	s.loaded = true
}

// Get returns a copy of the current stats.
func (s *StatsStore) Get() coach.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneStats(s.stats)
}

// Loaded reports whether a stats fetch has resolved this session.
func (s *StatsStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Clear resets the mirror, e.g. on session teardown.
func (s *StatsStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = coach.Stats{}
	s.loaded = false
}

func cloneStats(stats coach.Stats) coach.Stats {
	clone := stats
	clone.Today.ByCategory = copyCounts(stats.Today.ByCategory)
	clone.Aggregate.ByCategory = copyCounts(stats.Aggregate.ByCategory)
	return clone
}

func copyCounts(src map[string]int) map[string]int {
	if src == nil {
		return nil
	}
	dst := make(map[string]int, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
