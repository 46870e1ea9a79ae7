package driven

// ConfigStore is a flat key/value view over the settings file.
// Keys are dotted paths such as "embedding.provider".
type ConfigStore interface {
	// Get returns the raw value and whether the key is set.
	Get(key string) (any, bool)

	// The typed getters return the zero value for unset or mistyped keys.
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetStringSlice(key string) []string

	// Keys returns every set key, sorted.
	Keys() []string

	// Set stores value and writes the file before returning.
	Set(key string, value any) error

	// Path returns the settings file location.
	Path() string
}
