package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/couchfeed/internal/core/domain"
	"github.com/custodia-labs/couchfeed/internal/core/ports/driven"
	"github.com/custodia-labs/couchfeed/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyServerURL      = "server.url"
	keyServerToken    = "server.token"
	keyServerUsername = "server.username"
	keyServerPassword = "server.password"
	keyOAuthTokenURL  = "server.oauth.token_url"
	keyOAuthClientID  = "server.oauth.client_id"
	keyOAuthSecret    = "server.oauth.client_secret"
	keyOAuthScopes    = "server.oauth.scopes"
	keyWatchDatabases = "watch.databases"
	keyLocalInterval  = "watch.local_interval"
	keyRemoteInterval = "watch.remote_interval"
	keyPageLimit      = "watch.page_limit"
	keyTransportRate  = "transport.rate"
	keyTransportBurst = "transport.burst"
	keyTimeout        = "transport.timeout"
	keyCacheEnabled   = "cache.enabled"
	keyCachePath      = "cache.path"
)

type valueKind int

const (
	kindString valueKind = iota
	kindStrings
	kindDuration
	kindInt
	kindFloat
	kindBool
)

var settingKinds = map[string]valueKind{
	keyServerURL:      kindString,
	keyServerToken:    kindString,
	keyServerUsername: kindString,
	keyServerPassword: kindString,
	keyOAuthTokenURL:  kindString,
	keyOAuthClientID:  kindString,
	keyOAuthSecret:    kindString,
	keyOAuthScopes:    kindStrings,
	keyWatchDatabases: kindStrings,
	keyLocalInterval:  kindDuration,
	keyRemoteInterval: kindDuration,
	keyPageLimit:      kindInt,
	keyTransportRate:  kindFloat,
	keyTransportBurst: kindInt,
	keyTimeout:        kindDuration,
	keyCacheEnabled:   kindBool,
	keyCachePath:      kindString,
}

// SettingsService manages client settings on top of a ConfigStore.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current settings.
func (s *SettingsService) Get() (*domain.Settings, error) {
	defaults := domain.DefaultSettings()

	settings := &domain.Settings{
		Server: domain.ServerSettings{
			URL:      s.getString(keyServerURL, defaults.Server.URL),
			Token:    s.configStore.GetString(keyServerToken),
			Username: s.configStore.GetString(keyServerUsername),
			Password: s.configStore.GetString(keyServerPassword),
			OAuth: domain.OAuthSettings{
				TokenURL:     s.configStore.GetString(keyOAuthTokenURL),
				ClientID:     s.configStore.GetString(keyOAuthClientID),
				ClientSecret: s.configStore.GetString(keyOAuthSecret),
				Scopes:       s.configStore.GetStringSlice(keyOAuthScopes),
			},
		},
		Watch: domain.WatchSettings{
			Databases:      s.configStore.GetStringSlice(keyWatchDatabases),
			LocalInterval:  s.getDuration(keyLocalInterval, defaults.Watch.LocalInterval),
			RemoteInterval: s.getDuration(keyRemoteInterval, defaults.Watch.RemoteInterval),
			PageLimit:      s.getInt(keyPageLimit, defaults.Watch.PageLimit),
		},
		Transport: domain.TransportSettings{
			Rate:    s.getFloat(keyTransportRate, defaults.Transport.Rate),
			Burst:   s.getInt(keyTransportBurst, defaults.Transport.Burst),
			Timeout: s.getDuration(keyTimeout, defaults.Transport.Timeout),
		},
		Cache: domain.CacheSettings{
			Enabled: s.getBool(keyCacheEnabled, defaults.Cache.Enabled),
			Path:    s.configStore.GetString(keyCachePath),
		},
	}

	return settings, nil
}

// Save persists settings.
func (s *SettingsService) Save(settings *domain.Settings) error {
	if settings == nil {
		return domain.ErrInvalidInput
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{keyServerURL, settings.Server.URL},
		{keyOAuthTokenURL, settings.Server.OAuth.TokenURL},
		{keyOAuthClientID, settings.Server.OAuth.ClientID},
		{keyOAuthScopes, settings.Server.OAuth.Scopes},
		{keyWatchDatabases, settings.Watch.Databases},
		{keyLocalInterval, settings.Watch.LocalInterval.String()},
		{keyRemoteInterval, settings.Watch.RemoteInterval.String()},
		{keyPageLimit, settings.Watch.PageLimit},
		{keyTransportRate, settings.Transport.Rate},
		{keyTransportBurst, settings.Transport.Burst},
		{keyTimeout, settings.Transport.Timeout.String()},
		{keyCacheEnabled, settings.Cache.Enabled},
		{keyCachePath, settings.Cache.Path},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Secrets are only written when present so a blank form never wipes them.
	secrets := []struct {
		key   string
		value string
	}{
		{keyServerToken, settings.Server.Token},
		{keyServerUsername, settings.Server.Username},
		{keyServerPassword, settings.Server.Password},
		{keyOAuthSecret, settings.Server.OAuth.ClientSecret},
	}
	for _, v := range secrets {
		if v.value == "" {
			continue
		}
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	return nil
}

// Set parses a textual value for key and persists it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var parsed any
	switch kind {
	case kindString:
		parsed = strings.TrimSpace(value)
	case kindStrings:
		var names []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				names = append(names, part)
			}
		}
		parsed = names
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil || d < 0 {
			return fmt.Errorf("%w: %s: %q is not a duration", domain.ErrInvalidInput, key, value)
		}
		parsed = d.String()
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s: %q is not a non-negative integer", domain.ErrInvalidInput, key, value)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s: %q is not a number", domain.ErrInvalidInput, key, value)
		}
		parsed = f
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %q is not a boolean", domain.ErrInvalidInput, key, value)
		}
		parsed = b
	}

	if key == keyServerURL {
		candidate := domain.DefaultSettings()
		candidate.Server.URL = parsed.(string)
		if err := candidate.Validate(); err != nil {
			return err
		}
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns every settable key, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for key := range settingKinds {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks the current settings.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// Path returns the configuration file path.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

// getFloat accepts TOML floats and integers.
func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val, ok := s.configStore.Get(key)
	if !ok {
		return defaultVal
	}
	switch v := val.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return defaultVal
	}
}

// getDuration accepts a duration string ("45s") or a whole number of seconds.
func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val, ok := s.configStore.Get(key)
	if !ok {
		return defaultVal
	}
	switch v := val.(type) {
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	case int64:
		return time.Duration(v) * time.Second
	case int:
		return time.Duration(v) * time.Second
	}
	return defaultVal
}
