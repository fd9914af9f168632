package driven

// ConfigStore is the flat key/value view of the client config file.
// Keys are dotted ("server.url", "watch.databases"); the file adapter nests
// them into TOML tables. Typed getters return the zero value when the key is
// missing or holds another type, so callers check Get first when absence
// matters.
type ConfigStore interface {
	// Get returns the raw value and whether the key is present.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool

	// GetStringSlice accepts both []string and []any of strings, which is
	// what a decoded TOML array looks like.
	GetStringSlice(key string) []string

	// Set stores value and persists the whole config.
	Set(key string, value any) error

	Save() error

	// Load replaces the in-memory values with what is on disk. On error the
	// previous values are kept.
	Load() error

	// Path returns the config file location, ":memory:" for in-memory stores.
	Path() string
}
