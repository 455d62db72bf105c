package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pipedesk/coach/internal/coach"
)

func TestStatsSetGet(t *testing.T) {
	s := NewStatsStore()
	require.False(t, s.Loaded())

	s.Set(coach.Stats{
		Today:     coach.StatPeriod{Completed: 3, ByCategory: map[string]int{"research": 2, "followup": 1}},
		Aggregate: coach.StatPeriod{Completed: 42},
	})

	require.True(t, s.Loaded())
	got := s.Get()
	require.Equal(t, 3, got.Today.Completed)
	require.Equal(t, 2, got.Today.ByCategory["research"])
	require.Equal(t, 42, got.Aggregate.Completed)
}

func TestStatsGetReturnsCopy(t *testing.T) {
	s := NewStatsStore()
	s.Set(coach.Stats{Today: coach.StatPeriod{ByCategory: map[string]int{"research": 1}}})

	got := s.Get()
	got.Today.ByCategory["research"] = 99
	require.Equal(t, 1, s.Get().Today.ByCategory["research"])
}

func TestStatsClear(t *testing.T) {
	s := NewStatsStore()
	s.Set(coach.Stats{Today: coach.StatPeriod{Completed: 5}})
	s.Clear()

	require.False(t, s.Loaded())
	require.Zero(t, s.Get().Today.Completed)
}
