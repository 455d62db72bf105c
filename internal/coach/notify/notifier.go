// Package notify resolves "what next" prompts shown after another feature
// finishes a user-visible task. It holds no timers and never polls; it only
// reacts to being opened.
package notify

import (
	"context"
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/pipedesk/coach/internal/coach"
	"github.com/pipedesk/coach/internal/coach/store"
	"github.com/pipedesk/coach/internal/coach/track"
	"github.com/pipedesk/coach/internal/logging"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Step is one suggested follow-up inside a completion prompt.
type Step struct {
	ID      string `yaml:"id"`
	Label   string `yaml:"label"`
	Route   string `yaml:"route"`
	Primary bool   `yaml:"primary"`
}

// Prompt is a fully resolved completion modal: presentation fields plus the
// context bag the triggering feature passed along.
type Prompt struct {
	CompletionType coach.CompletionType
	Icon           string         `yaml:"icon"`
	Title          string         `yaml:"title"`
	Description    string         `yaml:"description"`
	Steps          []Step         `yaml:"steps"`
	Context        map[string]any `yaml:"-"`
}

// PrimaryStep returns the step marked primary, falling back to the first one.
func (p Prompt) PrimaryStep() (Step, bool) {
	for _, step := range p.Steps {
		if step.Primary {
			return step, true
		}
	}
	if len(p.Steps) > 0 {
		return p.Steps[0], true
	}
	return Step{}, false
}

type catalog struct {
	Prompts  map[coach.CompletionType]Prompt `yaml:"prompts"`
	Fallback Prompt                          `yaml:"fallback"`
}

var loadCatalog = sync.OnceValues(func() (catalog, error) {
	var c catalog
	if err := yaml.Unmarshal(catalogYAML, &c); err != nil {
		return catalog{}, fmt.Errorf("parse completion catalog: %w", err)
	}
	return c, nil
})

// Navigator is the host's route-change primitive.
type Navigator interface {
	Goto(route string)
}

// Notifier resolves completion prompts and records how the user responds to
// them. Suppression follows the show_completion_modals setting.
type Notifier struct {
	settings *store.SettingsStore
	tracker  *track.Tracker
	nav      Navigator
	logger   logging.Logger
}

// New creates a Notifier. nav may be nil when navigation is handled elsewhere.
func New(settings *store.SettingsStore, tracker *track.Tracker, nav Navigator, logger logging.Logger) *Notifier {
	return &Notifier{
		settings: settings,
		tracker:  tracker,
		nav:      nav,
		logger:   logging.OrNop(logger),
	}
}

// Show resolves the prompt for completionType. It returns ok=false when
// completion modals are disabled in settings; a suppressed prompt emits no
// event at all. An unrecognized completion type resolves to the generic
// fallback rather than failing.
func (n *Notifier) Show(completionType coach.CompletionType, promptCtx map[string]any) (Prompt, bool) {
	if !n.settings.Get().ShowCompletionModals {
		n.logger.Debug("completion prompt suppressed (type=%s)", completionType)
		return Prompt{}, false
	}

	c, err := loadCatalog()
	if err != nil {
		n.logger.Error("completion catalog unavailable: %v", err)
		return Prompt{}, false
	}

	prompt, found := c.Prompts[completionType]
	if !found {
		n.logger.Warn("unknown completion type %q, using fallback prompt", completionType)
		prompt = c.Fallback
	}
	prompt.CompletionType = completionType
	prompt.Context = promptCtx
	return prompt, true
}

// SelectStep records the user's choice and navigates to the step's route when
// it has one. The event is recorded before navigation so it reflects the page
// the prompt was shown on.
func (n *Notifier) SelectStep(ctx context.Context, prompt Prompt, step Step) {
	n.tracker.Track(ctx, coach.EventCompletionSelected, map[string]any{
		"completion_type": string(prompt.CompletionType),
		"step_id":         step.ID,
		"route":           step.Route,
	})
	if n.nav != nil && step.Route != "" {
		n.nav.Goto(step.Route)
	}
}

// Defer records the "maybe later" dismissal of an open prompt.
func (n *Notifier) Defer(ctx context.Context, prompt Prompt) {
	n.tracker.Track(ctx, coach.EventCompletionDeferred, map[string]any{
		"completion_type": string(prompt.CompletionType),
	})
}
