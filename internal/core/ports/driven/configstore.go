package driven

// ConfigStore provides access to the persisted configuration file.
// Keys use dot notation ("jira.url"). Values set here are overridden
// by environment variables at load time.
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	Get(key string) (any, bool)

	// GetString returns "" if the key doesn't exist or isn't a string.
	GetString(key string) string

	// GetInt returns 0 if the key doesn't exist or isn't an integer.
	GetInt(key string) int

	// GetFloat returns 0 if the key doesn't exist or isn't numeric.
	GetFloat(key string) float64

	// Set stores a value and persists immediately.
	Set(key string, value any) error

	// Keys returns all keys in sorted order.
	Keys() []string

	// Load re-reads configuration from storage.
	Load() error

	// Path returns the configuration file path.
	Path() string
}
