package sync

import (
	"context"
	"fmt"
	stdsync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pipedesk/coach/internal/coach"
	"github.com/pipedesk/coach/internal/coach/store"
	"github.com/pipedesk/coach/internal/coach/track"
	"github.com/pipedesk/coach/internal/coach/widget"
)

// fakeClock hands out manually fired timers so load ordering is tested by
// instrumenting calls, never by sleeping.
type fakeClock struct {
	mu     stdsync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := t.stopped
	t.stopped = true
	return !was
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(_ time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{fn: fn}
	c.timers = append(c.timers, t)
	return t
}

// fire runs every pending timer in registration order.
func (c *fakeClock) fire() {
	c.mu.Lock()
	pending := c.timers
	c.timers = nil
	c.mu.Unlock()
	for _, t := range pending {
		if !t.stopped {
			t.fn()
		}
	}
}

func (c *fakeClock) pendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

type fakeFetcher struct {
	mu          stdsync.Mutex
	calls       []string
	settings    coach.Settings
	settingsErr error
	suggestions []coach.Suggestion
	stats       coach.Stats
}

func (f *fakeFetcher) GetSettings(context.Context) (coach.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "settings")
	if f.settingsErr != nil {
		return coach.Settings{}, f.settingsErr
	}
	return f.settings, nil
}

func (f *fakeFetcher) ListSuggestions(context.Context, int) ([]coach.Suggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "suggestions")
	return f.suggestions, nil
}

func (f *fakeFetcher) GetStats(context.Context) (coach.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "stats")
	return f.stats, nil
}

func (f *fakeFetcher) callOrder() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeEmitter struct {
	mu     stdsync.Mutex
	events []coach.BehaviorEvent
}

func (f *fakeEmitter) EmitEvent(_ context.Context, event coach.BehaviorEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEmitter) all() []coach.BehaviorEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]coach.BehaviorEvent(nil), f.events...)
}

type fixture struct {
	engine  *Engine
	clock   *fakeClock
	fetcher *fakeFetcher
	emitter *fakeEmitter
	stores  Stores
}

func enabledSettings() coach.Settings {
	s := coach.DefaultSettings()
	s.IsEnabled = true
	return s
}

func newFixture(t *testing.T, settings coach.Settings) *fixture {
	t.Helper()
	clock := newFakeClock()
	fetcher := &fakeFetcher{
		settings: settings,
		suggestions: []coach.Suggestion{
			{ID: "s1", Priority: 90},
			{ID: "s2", Priority: 40},
			{ID: "s3", Priority: 60},
		},
		stats: coach.Stats{Today: coach.StatPeriod{Completed: 1}},
	}
	emitter := &fakeEmitter{}
	tracker := track.New(emitter, nil, nil)

	stores := Stores{
		Suggestions: store.NewSuggestionStore(clock.Now),
		Settings:    store.NewSettingsStore(nil, nil),
		Stats:       store.NewStatsStore(),
	}
	machine := widget.NewMachine(stores.Settings, tracker, nil)
	engine := New(Config{}, fetcher, stores, machine, tracker, clock, nil)
	return &fixture{engine: engine, clock: clock, fetcher: fetcher, emitter: emitter, stores: stores}
}

func TestSettingsResolveBeforeSuggestionsAndStats(t *testing.T) {
	f := newFixture(t, enabledSettings())
	f.engine.Start(context.Background())
	defer f.engine.Stop()

	// Nothing fetched until the settings delay elapses.
	require.Empty(t, f.fetcher.callOrder())

	f.clock.fire() // settings load
	f.clock.fire() // suggestions + stats load

	require.Equal(t, []string{"settings", "suggestions", "stats"}, f.fetcher.callOrder())
	require.Equal(t, 3, f.stores.Suggestions.PendingCount())
	require.True(t, f.stores.Stats.Loaded())
}

func TestDisabledAssistantFetchesOnlySettings(t *testing.T) {
	disabled := coach.DefaultSettings()
	disabled.IsEnabled = false
	f := newFixture(t, disabled)
	f.engine.Start(context.Background())
	defer f.engine.Stop()

	f.clock.fire()
	f.clock.fire()

	require.Equal(t, []string{"settings"}, f.fetcher.callOrder())
	require.False(t, f.engine.RefreshScheduled())
}

func TestSettingsFetchFailureLeavesEngineInert(t *testing.T) {
	f := newFixture(t, enabledSettings())
	f.fetcher.settingsErr = fmt.Errorf("network unreachable")
	f.engine.Start(context.Background())
	defer f.engine.Stop()

	f.clock.fire()
	f.clock.fire()

	require.Equal(t, []string{"settings"}, f.fetcher.callOrder())
	require.False(t, f.stores.Settings.Loaded())
	require.False(t, f.engine.RefreshScheduled())
}

func TestStartIsIdempotent(t *testing.T) {
	f := newFixture(t, enabledSettings())
	f.engine.Start(context.Background())
	f.engine.Start(context.Background())
	defer f.engine.Stop()

	require.Equal(t, 1, f.clock.pendingCount())

	f.clock.fire()
	f.clock.fire()
	require.Equal(t, []string{"settings", "suggestions", "stats"}, f.fetcher.callOrder())
}

func TestEnabledFlipCancelsAndReschedulesRefreshOnce(t *testing.T) {
	f := newFixture(t, enabledSettings())
	f.engine.Start(context.Background())
	defer f.engine.Stop()

	f.clock.fire()
	f.clock.fire()
	require.True(t, f.engine.RefreshScheduled())
	require.Len(t, f.engine.cron.Entries(), 1)

	disabled := enabledSettings()
	disabled.IsEnabled = false
	f.stores.Settings.SetConfirmed(disabled)
	require.False(t, f.engine.RefreshScheduled())
	require.Empty(t, f.engine.cron.Entries())

	// Re-enabling schedules exactly one interval, even across repeated
	// settings echoes.
	f.stores.Settings.SetConfirmed(enabledSettings())
	f.stores.Settings.SetConfirmed(enabledSettings())
	require.True(t, f.engine.RefreshScheduled())
	require.Len(t, f.engine.cron.Entries(), 1)
}

func TestDataLoadNotDuplicatedAcrossSettingsEchoes(t *testing.T) {
	f := newFixture(t, enabledSettings())
	f.engine.Start(context.Background())
	defer f.engine.Stop()

	f.clock.fire() // settings
	// A widget transition echoes settings again before the data load fires.
	f.stores.Settings.SetConfirmed(enabledSettings())
	f.clock.fire() // data

	require.Equal(t, []string{"settings", "suggestions", "stats"}, f.fetcher.callOrder())
}

func TestPageViewDedupedAndDelayed(t *testing.T) {
	f := newFixture(t, enabledSettings())
	f.engine.Start(context.Background())
	defer f.engine.Stop()

	f.clock.fire() // settings resolve
	f.clock.fire() // data load

	f.engine.OnPageChange("prospects")
	f.engine.OnPageChange("prospects")
	f.clock.fire()

	events := f.emitter.all()
	require.Len(t, events, 1)
	require.Equal(t, coach.EventPageView, events[0].EventType)
	require.Equal(t, "prospects", events[0].EventData["page"])

	// Revisiting the same page in place emits nothing further.
	f.engine.OnPageChange("prospects")
	f.clock.fire()
	require.Len(t, f.emitter.all(), 1)

	// A real navigation emits again.
	f.engine.OnPageChange("research")
	f.clock.fire()
	require.Len(t, f.emitter.all(), 2)
}

func TestPageViewSkippedBeforeSettingsResolve(t *testing.T) {
	f := newFixture(t, enabledSettings())
	defer f.engine.Stop()

	// The page timer fires before any settings fetch has resolved.
	f.engine.OnPageChange("prospects")
	f.clock.fire()

	require.Empty(t, f.emitter.all())
}

func TestPageViewSkippedWhileDisabled(t *testing.T) {
	disabled := coach.DefaultSettings()
	disabled.IsEnabled = false
	f := newFixture(t, disabled)
	f.engine.Start(context.Background())
	defer f.engine.Stop()

	f.clock.fire() // settings resolve (disabled)
	f.engine.OnPageChange("prospects")
	f.clock.fire()

	require.Empty(t, f.emitter.all())
}

func TestRapidNavigationCancelsPendingPageEvent(t *testing.T) {
	f := newFixture(t, enabledSettings())
	f.engine.Start(context.Background())
	defer f.engine.Stop()

	f.clock.fire() // settings
	f.clock.fire() // data

	f.engine.OnPageChange("prospects")
	f.engine.OnPageChange("research") // cancels the pending prospects event
	f.clock.fire()

	events := f.emitter.all()
	require.Len(t, events, 1)
	require.Equal(t, "research", events[0].EventData["page"])
}

func TestStopCancelsTimersAndClearsStores(t *testing.T) {
	f := newFixture(t, enabledSettings())
	f.engine.Start(context.Background())

	f.clock.fire()
	f.clock.fire()
	require.Equal(t, 3, f.stores.Suggestions.PendingCount())

	f.engine.OnPageChange("prospects")
	f.engine.Stop()
	<-f.engine.Done()

	require.Zero(t, f.clock.pendingCount())
	require.Zero(t, f.stores.Suggestions.PendingCount())
	require.False(t, f.stores.Settings.Loaded())
	require.False(t, f.stores.Stats.Loaded())
	require.False(t, f.engine.RefreshScheduled())

	// Post-stop activity is ignored.
	f.engine.OnPageChange("research")
	f.clock.fire()
	require.Empty(t, f.emitter.all())
	f.engine.Stop() // idempotent
}

func TestContextCancellationStopsEngine(t *testing.T) {
	f := newFixture(t, enabledSettings())
	ctx, cancel := context.WithCancel(context.Background())
	f.engine.Start(ctx)

	cancel()
	<-f.engine.Done()
	require.Zero(t, f.clock.pendingCount())
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	require.Equal(t, time.Second, cfg.SettingsDelay)
	require.Equal(t, 1500*time.Millisecond, cfg.SuggestionsDelay)
	require.Equal(t, 2*time.Second, cfg.PageTrackDelay)
	require.Equal(t, 5*time.Minute, cfg.RefreshInterval)
	require.Equal(t, 10, cfg.SuggestionLimit)
}
