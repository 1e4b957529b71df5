package driven

// ConfigStore reads and writes the settings file. Keys are dotted paths
// such as "store.backend" or "embedding.model".
//
// The typed getters return the zero value when a key is missing or holds a
// value of another type; GetFloat also accepts integers.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetFloat(key string) float64
	GetBool(key string) bool

	// Set changes the in-memory value. Nothing is written until Save.
	Set(key string, value any) error

	Save() error
	Load() error

	// Path is the settings file location shown by 'zerosignal settings'.
	Path() string
}
