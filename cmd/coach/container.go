package main

import (
	"time"

	"github.com/pipedesk/coach/internal/coach/api"
	"github.com/pipedesk/coach/internal/coach/dispatch"
	"github.com/pipedesk/coach/internal/coach/notify"
	"github.com/pipedesk/coach/internal/coach/store"
	coachsync "github.com/pipedesk/coach/internal/coach/sync"
	"github.com/pipedesk/coach/internal/coach/track"
	"github.com/pipedesk/coach/internal/coach/widget"
	"github.com/pipedesk/coach/internal/config"
	"github.com/pipedesk/coach/internal/logging"
)

// Container bundles the assistant's components, constructed once per session
// and passed by injection. No ambient singletons; tests build their own.
type Container struct {
	Config   config.Config
	Logger   *logging.FileLogger
	Client   *api.Client
	Stores   coachsync.Stores
	Nav      *pageNavigator
	Tracker  *track.Tracker
	Machine  *widget.Machine
	Dispatch *dispatch.Dispatcher
	Notifier *notify.Notifier
	Engine   *coachsync.Engine
}

func buildContainer(cfg config.Config) (*Container, error) {
	logger := logging.NewComponentLogger("coach")
	logger.SetLevel(logging.ParseLevel(cfg.LogLevel))

	client, err := api.NewClient(api.Config{
		BaseURL: cfg.ServerURL,
		Timeout: cfg.RequestTimeout,
	}, api.StaticToken(cfg.AuthToken), logger)
	if err != nil {
		return nil, err
	}

	nav := newPageNavigator("/home")
	tracker := track.New(client, nav.CurrentPage, logger)

	stores := coachsync.Stores{
		Suggestions: store.NewSuggestionStore(time.Now),
		Settings:    store.NewSettingsStore(client, logger),
		Stats:       store.NewStatsStore(),
	}
	machine := widget.NewMachine(stores.Settings, tracker, logger)
	dispatcher := dispatch.New(stores.Suggestions, client, tracker, logger)
	notifier := notify.New(stores.Settings, tracker, nav, logger)

	engine := coachsync.New(coachsync.Config{
		SettingsDelay:    cfg.SettingsDelay,
		SuggestionsDelay: cfg.SuggestionsDelay,
		PageTrackDelay:   cfg.PageTrackDelay,
		RefreshInterval:  cfg.RefreshInterval,
		SuggestionLimit:  cfg.SuggestionLimit,
	}, client, stores, machine, tracker, nil, logger)
	nav.setOnChange(engine.OnPageChange)

	return &Container{
		Config:   cfg,
		Logger:   logger,
		Client:   client,
		Stores:   stores,
		Nav:      nav,
		Tracker:  tracker,
		Machine:  machine,
		Dispatch: dispatcher,
		Notifier: notifier,
		Engine:   engine,
	}, nil
}

// Shutdown tears the session down: the engine cancels its timers and clears
// the stores, then in-flight dispatches and widget writes drain.
func (c *Container) Shutdown() {
	c.Engine.Stop()
	<-c.Engine.Done()
	c.Dispatch.Flush()
	c.Machine.Flush()
	_ = c.Logger.Close()
}
