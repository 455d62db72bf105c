package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pipedesk/coach/internal/coach"
	coacherrors "github.com/pipedesk/coach/internal/errors"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL}, StaticToken("test-token"), nil)
	require.NoError(t, err)
	return client, server
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{}, nil, nil)
	require.Error(t, err)
}

func TestGetSettings(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/coach/settings", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(coach.Settings{
			IsEnabled:             true,
			WidgetState:           coach.WidgetMinimized,
			NotificationFrequency: coach.FrequencyNormal,
		})
	}))

	settings, err := client.GetSettings(context.Background())
	require.NoError(t, err)
	require.True(t, settings.IsEnabled)
	require.Equal(t, coach.WidgetMinimized, settings.WidgetState)
}

func TestUpdateSettingsSendsOnlyPatchedFields(t *testing.T) {
	var body map[string]any
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/coach/settings", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_ = json.NewEncoder(w).Encode(coach.Settings{WidgetState: coach.WidgetExpanded})
	}))

	state := coach.WidgetExpanded
	echo, err := client.UpdateSettings(context.Background(), coach.SettingsPatch{WidgetState: &state})
	require.NoError(t, err)
	require.Equal(t, coach.WidgetExpanded, echo.WidgetState)
	require.Equal(t, map[string]any{"widget_state": "expanded"}, body)
}

func TestListSuggestions(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/coach/suggestions", r.URL.Path)
		require.Equal(t, "10", r.URL.Query().Get("limit"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"suggestions": []coach.Suggestion{
				{ID: "s1", Priority: 90},
				{ID: "s2", Priority: 40},
			},
		})
	}))

	suggestions, err := client.ListSuggestions(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	require.Equal(t, "s1", suggestions[0].ID)
}

func TestActOnSuggestion(t *testing.T) {
	var body map[string]any
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/coach/suggestions/s1/action", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusNoContent)
	}))

	until := time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC)
	err := client.ActOnSuggestion(context.Background(), "s1", coach.ActionSnoozed, &until)
	require.NoError(t, err)
	require.Equal(t, "snoozed", body["action"])
	require.Equal(t, "2026-08-30T15:00:00Z", body["snooze_until"])
}

func TestActOnSuggestionOmitsSnoozeForDismiss(t *testing.T) {
	var body map[string]any
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, client.ActOnSuggestion(context.Background(), "s1", coach.ActionDismissed, nil))
	require.Equal(t, "dismissed", body["action"])
	require.NotContains(t, body, "snooze_until")
}

func TestGetStats(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/coach/stats", r.URL.Path)
		_ = json.NewEncoder(w).Encode(coach.Stats{
			Today:     coach.StatPeriod{Completed: 2, ByCategory: map[string]int{"research": 2}},
			Aggregate: coach.StatPeriod{Completed: 17},
		})
	}))

	stats, err := client.GetStats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, stats.Today.Completed)
	require.Equal(t, 17, stats.Aggregate.Completed)
}

func TestEmitEvent(t *testing.T) {
	var body map[string]any
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/coach/events", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusAccepted)
	}))

	err := client.EmitEvent(context.Background(), coach.BehaviorEvent{
		EventType:   coach.EventPageView,
		EventData:   map[string]any{"referrer": "dashboard"},
		PageContext: "prospects",
	})
	require.NoError(t, err)
	require.Equal(t, "page_view", body["event_type"])
	require.Equal(t, "prospects", body["page_context"])
}

func TestStatusErrorClassification(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := client.GetSettings(context.Background())
	require.Error(t, err)
	require.Equal(t, http.StatusServiceUnavailable, coacherrors.StatusCode(err))
	require.True(t, coacherrors.IsTransient(err))
}

func TestConcurrentGetsCollapse(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		_ = json.NewEncoder(w).Encode(coach.Settings{IsEnabled: true})
	}))

	const workers = 4
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			settings, err := client.GetSettings(context.Background())
			require.NoError(t, err)
			require.True(t, settings.IsEnabled)
		}()
	}

	// Let all goroutines reach the in-flight call before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, int32(1), calls.Load())
}
