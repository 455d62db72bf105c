package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSnoozePresets(t *testing.T) {
	now := time.Date(2026, 8, 30, 14, 30, 0, 0, time.UTC)
	presets := snoozePresets()
	require.Len(t, presets, 3)

	require.Equal(t, now.Add(time.Hour), presets[0].until(now))
	require.Equal(t, now.Add(4*time.Hour), presets[1].until(now))
	require.Equal(t, time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC), presets[2].until(now))
}

func TestTomorrowAtNineCrossesMonthBoundary(t *testing.T) {
	now := time.Date(2026, 8, 31, 23, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC), tomorrowAtNine(now))
}

func TestNavigatorReportsLatestPage(t *testing.T) {
	nav := newPageNavigator("/home")
	require.Equal(t, "/home", nav.CurrentPage())

	var changes []string
	nav.setOnChange(func(page string) { changes = append(changes, page) })

	nav.Goto("/prospects")
	nav.Goto("/research")
	require.Equal(t, "/research", nav.CurrentPage())
	require.Equal(t, []string{"/prospects", "/research"}, changes)
}
