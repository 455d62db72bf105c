// Package api implements the JSON-over-HTTP contract with the remote coach
// store. It is the engine's only wire boundary.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pipedesk/coach/internal/coach"
	coacherrors "github.com/pipedesk/coach/internal/errors"
	"github.com/pipedesk/coach/internal/httpclient"
	"github.com/pipedesk/coach/internal/logging"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 1 << 20
)

// TokenProvider yields the auth credential attached to every request. Token
// acquisition itself (session, refresh) lives outside the engine.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenProvider for a fixed credential.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

// Config holds client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the remote coach store.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenProvider
	logger     logging.Logger

	// group collapses accidental concurrent duplicate reads of the same
	// resource into a single network call.
	group singleflight.Group
}

// NewClient creates a Client for the given base URL.
func NewClient(cfg Config, tokens TokenProvider, logger logging.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("api base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid api base URL: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		logger:     logging.OrNop(logger),
	}, nil
}

// GetSettings fetches the full settings record.
func (c *Client) GetSettings(ctx context.Context) (coach.Settings, error) {
	result, err, _ := c.group.Do("settings", func() (any, error) {
		var settings coach.Settings
		if err := c.doJSON(ctx, http.MethodGet, "/coach/settings", nil, &settings); err != nil {
			return coach.Settings{}, err
		}
		return settings, nil
	})
	if err != nil {
		return coach.Settings{}, err
	}
	return result.(coach.Settings), nil
}

// UpdateSettings sends a partial update and returns the authoritative echo.
func (c *Client) UpdateSettings(ctx context.Context, patch coach.SettingsPatch) (coach.Settings, error) {
	var settings coach.Settings
	if err := c.doJSON(ctx, http.MethodPatch, "/coach/settings", patch, &settings); err != nil {
		return coach.Settings{}, err
	}
	return settings, nil
}

type suggestionsResponse struct {
	Suggestions []coach.Suggestion `json:"suggestions"`
}

// ListSuggestions fetches up to limit ranked suggestions in server order.
func (c *Client) ListSuggestions(ctx context.Context, limit int) ([]coach.Suggestion, error) {
	path := "/coach/suggestions"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	result, err, _ := c.group.Do(path, func() (any, error) {
		var resp suggestionsResponse
		if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
			return nil, err
		}
		return resp.Suggestions, nil
	})
	if err != nil {
		return nil, err
	}
	suggestions, _ := result.([]coach.Suggestion)
	return suggestions, nil
}

type actionRequest struct {
	Action      coach.ActionKind `json:"action"`
	SnoozeUntil *time.Time       `json:"snooze_until,omitempty"`
}

// ActOnSuggestion records a terminal action against a suggestion.
func (c *Client) ActOnSuggestion(ctx context.Context, suggestionID string, action coach.ActionKind, snoozeUntil *time.Time) error {
	path := "/coach/suggestions/" + url.PathEscape(suggestionID) + "/action"
	return c.doJSON(ctx, http.MethodPost, path, actionRequest{Action: action, SnoozeUntil: snoozeUntil}, nil)
}

// GetStats fetches today's counters plus running totals.
func (c *Client) GetStats(ctx context.Context) (coach.Stats, error) {
	result, err, _ := c.group.Do("stats", func() (any, error) {
		var stats coach.Stats
		if err := c.doJSON(ctx, http.MethodGet, "/coach/stats", nil, &stats); err != nil {
			return coach.Stats{}, err
		}
		return stats, nil
	})
	if err != nil {
		return coach.Stats{}, err
	}
	return result.(coach.Stats), nil
}

// EmitEvent forwards a behavioral event to the remote store.
func (c *Client) EmitEvent(ctx context.Context, event coach.BehaviorEvent) error {
	return c.doJSON(ctx, http.MethodPost, "/coach/events", event, nil)
}

// doJSON performs one request. A nil out discards the response body; a nil
// body sends no payload.
func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	operation := method + " " + path

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", operation, err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("%s: acquire token: %w", operation, err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("%s -> %d (%s)", operation, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpclient.Drain(resp.Body, maxBodyBytes)
		return coacherrors.NewStatusError(operation, resp.StatusCode)
	}

	if out == nil {
		httpclient.Drain(resp.Body, maxBodyBytes)
		return nil
	}

	data, err := httpclient.ReadBody(resp.Body, maxBodyBytes)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", operation, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", operation, err)
	}
	return nil
}
