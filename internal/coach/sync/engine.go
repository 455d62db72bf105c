// Package sync orchestrates everything that talks to the network on a
// schedule: the ordered initial loads, the periodic suggestion refresh, and
// delayed page-view tracking. No other component initiates fetches.
package sync

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pipedesk/coach/internal/coach"
	"github.com/pipedesk/coach/internal/coach/store"
	"github.com/pipedesk/coach/internal/coach/track"
	"github.com/pipedesk/coach/internal/coach/widget"
	coacherrors "github.com/pipedesk/coach/internal/errors"
	"github.com/pipedesk/coach/internal/logging"
)

// Fetcher reads the three remote resources the engine mirrors.
type Fetcher interface {
	GetSettings(ctx context.Context) (coach.Settings, error)
	ListSuggestions(ctx context.Context, limit int) ([]coach.Suggestion, error)
	GetStats(ctx context.Context) (coach.Stats, error)
}

// Config holds engine timing configuration.
type Config struct {
	// SettingsDelay holds back the very first fetch so the host page's own
	// content wins the initial network and render contention. This ordering
	// is product-visible, not an optimization.
	SettingsDelay time.Duration
	// SuggestionsDelay spaces the suggestions+stats load behind the settings
	// resolution for the same reason.
	SuggestionsDelay time.Duration
	// PageTrackDelay debounces page-view emission after a page change.
	PageTrackDelay time.Duration
	// RefreshInterval drives the periodic suggestion refetch.
	RefreshInterval time.Duration
	// SuggestionLimit caps how many suggestions a fetch requests.
	SuggestionLimit int
}

func (c Config) withDefaults() Config {
	if c.SettingsDelay <= 0 {
		c.SettingsDelay = time.Second
	}
	if c.SuggestionsDelay <= 0 {
		c.SuggestionsDelay = 1500 * time.Millisecond
	}
	if c.PageTrackDelay <= 0 {
		c.PageTrackDelay = 2 * time.Second
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = 5 * time.Minute
	}
	if c.SuggestionLimit <= 0 {
		c.SuggestionLimit = 10
	}
	return c
}

// Stores groups the in-memory mirrors the engine owns for the session.
type Stores struct {
	Suggestions *store.SuggestionStore
	Settings    *store.SettingsStore
	Stats       *store.StatsStore
}

// Engine sequences the session's network activity. The dependency order is
// strict: settings resolve first, then suggestions and stats, then the
// periodic refresh for as long as the assistant stays enabled. Every step is
// guarded so re-invocation (e.g. a host re-render calling Start again) cannot
// duplicate a fetch.
type Engine struct {
	cfg     Config
	client  Fetcher
	stores  Stores
	machine *widget.Machine
	tracker *track.Tracker
	clock   Clock
	logger  logging.Logger
	cron    *cron.Cron

	mu            stdsync.Mutex
	started       bool
	halted        bool
	dataRequested bool
	refreshOn     bool
	refreshID     cron.EntryID
	timers        map[string]Timer
	lastPage      string
	pendingPage   string
	pageTimer     Timer

	ctx      context.Context
	stopOnce stdsync.Once
	stopped  chan struct{}
}

// New creates an Engine and subscribes it to settings changes so the refresh
// schedule follows the enabled flag.
func New(cfg Config, client Fetcher, stores Stores, machine *widget.Machine, tracker *track.Tracker, clock Clock, logger logging.Logger) *Engine {
	if clock == nil {
		clock = RealClock()
	}
	e := &Engine{
		cfg:     cfg.withDefaults(),
		client:  client,
		stores:  stores,
		machine: machine,
		tracker: tracker,
		clock:   clock,
		logger:  logging.OrNop(logger),
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		timers:  make(map[string]Timer),
		ctx:     context.Background(),
		stopped: make(chan struct{}),
	}
	stores.Settings.Subscribe(e.onSettingsChanged)
	return e
}

// Start schedules the delayed settings load and begins observing ctx for
// teardown. Safe to call more than once; only the first call does anything.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.started || e.halted {
		e.mu.Unlock()
		return
	}
	e.started = true
	e.ctx = ctx

	e.timers["settings"] = e.clock.AfterFunc(e.cfg.SettingsDelay, e.loadSettings)
	e.mu.Unlock()

	e.cron.Start()

	go func() {
		<-ctx.Done()
		e.Stop()
	}()
}

// Stop cancels every timer and the refresh schedule and clears the stores.
// Safe to call multiple times.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		e.mu.Lock()
		e.halted = true
		for _, t := range e.timers {
			t.Stop()
		}
		e.timers = make(map[string]Timer)
		if e.pageTimer != nil {
			e.pageTimer.Stop()
			e.pageTimer = nil
		}
		if e.refreshOn {
			e.cron.Remove(e.refreshID)
			e.refreshOn = false
		}
		e.mu.Unlock()

		stopCtx := e.cron.Stop()
		<-stopCtx.Done()

		// The mirrors live and die with the session.
		e.stores.Suggestions.Clear()
		e.stores.Stats.Clear()
		e.stores.Settings.Clear()

		close(e.stopped)
	})
}

// Done returns a channel closed once the engine has fully stopped.
func (e *Engine) Done() <-chan struct{} {
	return e.stopped
}

// OnPageChange records that the user is now on page. Emission is debounced
// and deduplicated: revisiting the same page in place produces no second
// event, and a rapid further navigation cancels the pending one.
func (e *Engine) OnPageChange(page string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.halted {
		return
	}
	if e.pageTimer != nil {
		e.pageTimer.Stop()
		e.pageTimer = nil
	}
	if page == "" || page == e.lastPage {
		return
	}
	e.pendingPage = page
	e.pageTimer = e.clock.AfterFunc(e.cfg.PageTrackDelay, e.trackPendingPage)
}

// RefreshScheduled reports whether the periodic suggestion refresh is active.
func (e *Engine) RefreshScheduled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.refreshOn
}

func (e *Engine) isHalted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.halted
}

func (e *Engine) loadSettings() {
	if e.isHalted() {
		return
	}
	settings, err := e.client.GetSettings(e.ctx)
	if err != nil {
		e.logFetchError("settings", err)
		return
	}
	e.stores.Settings.SetConfirmed(settings)
	e.machine.SyncFromSettings(settings)
	e.logger.Info("settings loaded (enabled=%v, widget=%s)", settings.IsEnabled, settings.WidgetState)
}

// onSettingsChanged follows the enabled flag: it schedules the one-time
// suggestions+stats load and keeps exactly one refresh entry registered while
// the assistant is enabled.
func (e *Engine) onSettingsChanged(settings coach.Settings) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started || e.halted {
		return
	}

	if !settings.IsEnabled {
		if e.refreshOn {
			e.cron.Remove(e.refreshID)
			e.refreshOn = false
			e.logger.Debug("suggestion refresh cancelled")
		}
		return
	}

	if !e.dataRequested {
		e.dataRequested = true
		e.timers["data"] = e.clock.AfterFunc(e.cfg.SuggestionsDelay, e.loadData)
	}
	if !e.refreshOn {
		entryID, err := e.cron.AddFunc(fmt.Sprintf("@every %s", e.cfg.RefreshInterval), e.refreshSuggestions)
		if err != nil {
			e.logger.Warn("failed to schedule suggestion refresh: %v", err)
			return
		}
		e.refreshID = entryID
		e.refreshOn = true
		e.logger.Debug("suggestion refresh scheduled every %s", e.cfg.RefreshInterval)
	}
}

func (e *Engine) loadData() {
	e.refreshSuggestions()
	e.loadStats()
}

func (e *Engine) refreshSuggestions() {
	if e.isHalted() {
		return
	}
	items, err := e.client.ListSuggestions(e.ctx, e.cfg.SuggestionLimit)
	if err != nil {
		// Store keeps its previous value; the next scheduled refresh retries.
		e.logFetchError("suggestions", err)
		return
	}
	e.stores.Suggestions.Replace(items)
	e.logger.Debug("suggestions refreshed (count=%d)", len(items))
}

func (e *Engine) loadStats() {
	if e.isHalted() {
		return
	}
	stats, err := e.client.GetStats(e.ctx)
	if err != nil {
		e.logFetchError("stats", err)
		return
	}
	e.stores.Stats.Set(stats)
}

func (e *Engine) trackPendingPage() {
	e.mu.Lock()
	page := e.pendingPage
	e.pageTimer = nil
	if e.halted || page == "" || page == e.lastPage {
		e.mu.Unlock()
		return
	}
	// Tracking is withheld until settings resolve and only runs while the
	// assistant is enabled.
	if !e.stores.Settings.Loaded() || !e.stores.Settings.Get().IsEnabled {
		e.mu.Unlock()
		return
	}
	e.lastPage = page
	e.mu.Unlock()

	e.tracker.Track(e.ctx, coach.EventPageView, map[string]any{"page": page})
}

func (e *Engine) logFetchError(resource string, err error) {
	if coacherrors.IsTransient(err) {
		e.logger.Debug("%s fetch failed (transient): %v", resource, err)
		return
	}
	e.logger.Warn("%s fetch failed: %v", resource, err)
}
