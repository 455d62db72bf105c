package main

import "time"

// snoozePreset is one entry in the snooze menu.
type snoozePreset struct {
	label string
	until func(now time.Time) time.Time
}

func snoozePresets() []snoozePreset {
	return []snoozePreset{
		{label: "1 hour", until: func(now time.Time) time.Time {
			return now.Add(time.Hour)
		}},
		{label: "4 hours", until: func(now time.Time) time.Time {
			return now.Add(4 * time.Hour)
		}},
		{label: "Tomorrow 9am", until: tomorrowAtNine},
	}
}

func tomorrowAtNine(now time.Time) time.Time {
	next := now.AddDate(0, 0, 1)
	return time.Date(next.Year(), next.Month(), next.Day(), 9, 0, 0, 0, now.Location())
}
