package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DefaultServerURL is the store a fresh install talks to.
const DefaultServerURL = "http://127.0.0.1:5984"

// Settings is the persisted client configuration.
type Settings struct {
	Server    ServerSettings
	Watch     WatchSettings
	Transport TransportSettings
	Cache     CacheSettings
}

// ServerSettings locates and authenticates against the store.
type ServerSettings struct {
	URL      string
	Token    string
	Username string
	Password string
	OAuth    OAuthSettings
}

// OAuthSettings configures an OAuth2 client-credentials grant. Tokens are
// fetched from TokenURL and refreshed when they expire.
type OAuthSettings struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// Enabled reports whether a client-credentials grant is configured.
func (o OAuthSettings) Enabled() bool {
	return o.TokenURL != "" || o.ClientID != ""
}

// WatchSettings configures `watch` when no databases are given.
type WatchSettings struct {
	Databases      []string
	LocalInterval  time.Duration
	RemoteInterval time.Duration
	PageLimit      int
}

// TransportSettings tunes the HTTP transport.
type TransportSettings struct {
	Rate    float64
	Burst   int
	Timeout time.Duration
}

// CacheSettings configures the local document mirror.
type CacheSettings struct {
	Enabled bool
	Path    string
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{URL: DefaultServerURL},
		Watch: WatchSettings{
			LocalInterval:  DefaultLocalPollInterval,
			RemoteInterval: DefaultRemotePollInterval,
		},
		Transport: TransportSettings{
			Rate:    20,
			Burst:   10,
			Timeout: 30 * time.Second,
		},
	}
}

// WatchConfig returns the watcher configuration these settings describe.
func (s Settings) WatchConfig() WatchConfig {
	return WatchConfig{
		LocalInterval:  s.Watch.LocalInterval,
		RemoteInterval: s.Watch.RemoteInterval,
		PageLimit:      s.Watch.PageLimit,
	}
}

// Validate checks the settings for values the client cannot use.
func (s Settings) Validate() error {
	u, err := url.Parse(strings.TrimSpace(s.Server.URL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: server.url %q must be an http(s) URL", ErrInvalidInput, s.Server.URL)
	}
	if s.Server.OAuth.Enabled() {
		tu, err := url.Parse(strings.TrimSpace(s.Server.OAuth.TokenURL))
		if err != nil || (tu.Scheme != "http" && tu.Scheme != "https") || tu.Host == "" {
			return fmt.Errorf("%w: server.oauth.token_url %q must be an http(s) URL", ErrInvalidInput, s.Server.OAuth.TokenURL)
		}
		if strings.TrimSpace(s.Server.OAuth.ClientID) == "" {
			return fmt.Errorf("%w: server.oauth.client_id is required with server.oauth.token_url", ErrInvalidInput)
		}
	}
	if s.Watch.LocalInterval < 0 || s.Watch.RemoteInterval < 0 {
		return fmt.Errorf("%w: poll intervals must not be negative", ErrInvalidInput)
	}
	if s.Watch.PageLimit < 0 {
		return fmt.Errorf("%w: watch.page_limit must not be negative", ErrInvalidInput)
	}
	if s.Transport.Timeout < 0 {
		return fmt.Errorf("%w: transport.timeout must not be negative", ErrInvalidInput)
	}
	for _, db := range s.Watch.Databases {
		if strings.TrimSpace(db) == "" {
			return fmt.Errorf("%w: watch.databases contains an empty name", ErrInvalidInput)
		}
	}
	return nil
}
