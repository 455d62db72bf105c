// Package config loads the assistant's client configuration from a YAML file
// layered under environment overrides.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the fully resolved client configuration.
type Config struct {
	// ServerURL is the base URL of the remote assistant store.
	ServerURL string `mapstructure:"server_url"`
	// AuthToken is the bearer credential sent with every request. Usually
	// supplied via COACH_AUTH_TOKEN rather than the config file.
	AuthToken string `mapstructure:"auth_token"`
	// RequestTimeout bounds each individual HTTP call.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// SettingsDelay holds back the initial settings fetch after startup.
	SettingsDelay time.Duration `mapstructure:"settings_delay"`
	// SuggestionsDelay spaces the suggestions+stats load behind settings.
	SuggestionsDelay time.Duration `mapstructure:"suggestions_delay"`
	// PageTrackDelay debounces page-view emission.
	PageTrackDelay time.Duration `mapstructure:"page_track_delay"`
	// RefreshInterval drives the periodic suggestion refetch.
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	// SuggestionLimit caps how many suggestions each fetch requests.
	SuggestionLimit int `mapstructure:"suggestion_limit"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`
}

const envPrefix = "COACH"

// DefaultPath returns the standard config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", "coach", "config.yaml")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server_url", "http://localhost:8080")
	v.SetDefault("request_timeout", 15*time.Second)
	v.SetDefault("settings_delay", time.Second)
	v.SetDefault("suggestions_delay", 1500*time.Millisecond)
	v.SetDefault("page_track_delay", 2*time.Second)
	v.SetDefault("refresh_interval", 5*time.Minute)
	v.SetDefault("suggestion_limit", 10)
	v.SetDefault("log_level", "info")
}

// Load reads the config file at path (DefaultPath() when empty), applies
// COACH_* environment overrides, and validates the result. A missing file is
// not an error; defaults plus environment apply.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = DefaultPath()
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values that would misbehave at runtime.
func (c Config) Validate() error {
	parsed, err := url.Parse(c.ServerURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid server_url %q", c.ServerURL)
	}
	if c.SuggestionLimit <= 0 {
		return fmt.Errorf("suggestion_limit must be positive, got %d", c.SuggestionLimit)
	}
	if c.RefreshInterval < time.Second {
		return fmt.Errorf("refresh_interval %s too small", c.RefreshInterval)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return nil
}
