package domain

import (
	"net"
	"net/url"
	"time"
)

// Default poll intervals, chosen by whether the store is on this host.
const (
	DefaultLocalPollInterval  = 60 * time.Second
	DefaultRemotePollInterval = 300 * time.Second
)

// WatchConfig holds change-feed polling configuration.
type WatchConfig struct {
	// LocalInterval is the poll interval for stores on a loopback host.
	LocalInterval time.Duration

	// RemoteInterval is the poll interval for any other store.
	RemoteInterval time.Duration

	// PageLimit caps the rows requested per change-feed page.
	// Zero requests the whole feed in one page.
	PageLimit int
}

// DefaultWatchConfig returns the standard intervals.
func DefaultWatchConfig() WatchConfig {
	return WatchConfig{
		LocalInterval:  DefaultLocalPollInterval,
		RemoteInterval: DefaultRemotePollInterval,
	}
}

// PollInterval picks the interval for a store base URL.
func (c WatchConfig) PollInterval(baseURL string) time.Duration {
	local, remote := c.LocalInterval, c.RemoteInterval
	if local <= 0 {
		local = DefaultLocalPollInterval
	}
	if remote <= 0 {
		remote = DefaultRemotePollInterval
	}
	if IsLocalURL(baseURL) {
		return local
	}
	return remote
}

// IsLocalURL reports whether the URL's host is a loopback address.
func IsLocalURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// ChangeWatchState is the polling state for one watched database.
// It is owned exclusively by the watcher that created it.
type ChangeWatchState struct {
	// Database is the watched database name.
	Database string

	// Cursor is the last fully processed sequence. It never decreases.
	Cursor int64

	// PollInterval is fixed when the watch starts.
	PollInterval time.Duration

	// StartedAt is when the watch began.
	StartedAt time.Time

	// LastPoll is when the most recent poll cycle finished.
	LastPoll time.Time

	// LastError is the most recent poll failure, empty after a success.
	LastError string
}

// Advance moves the cursor forward. Lower values are ignored.
func (s *ChangeWatchState) Advance(cursor int64) {
	if cursor > s.Cursor {
		s.Cursor = cursor
	}
}
