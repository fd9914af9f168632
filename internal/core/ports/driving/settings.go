package driving

import "github.com/custodia-labs/couchfeed/internal/core/domain"

// SettingsService manages persisted client settings.
type SettingsService interface {
	// Get retrieves current settings, filling unset values with defaults.
	Get() (*domain.Settings, error)

	// Save persists settings.
	Save(settings *domain.Settings) error

	// Set parses and persists a single value by key, e.g.
	// "watch.local_interval" = "30s".
	Set(key, value string) error

	// Keys returns every settable key, sorted.
	Keys() []string

	// Validate checks the current settings.
	Validate() error

	// Path returns where settings are stored.
	Path() string
}
