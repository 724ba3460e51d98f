// Package config defines service configuration and its defaults.
package config

// Store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the match store: memory or sqlite.
	StoreDriver string `koanf:"store_driver"`

	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `koanf:"sqlite_path"`

	// MetricsEnabled toggles Prometheus recording.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MaxParticipants caps the roster size accepted per request.
	MaxParticipants int `koanf:"max_participants"`

	// GenerationWorkers bounds concurrent box generation in a season call.
	GenerationWorkers int `koanf:"generation_workers"`

	// DefaultSwissMethod is used when a Swiss request names none.
	DefaultSwissMethod string `koanf:"default_swiss_method"`

	// ShutdownTimeoutSeconds bounds graceful HTTP shutdown.
	ShutdownTimeoutSeconds int `koanf:"shutdown_timeout_seconds"`
}

// New returns a Config filled with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":9080",
		StoreDriver:            StoreMemory,
		SQLitePath:             "bracketry.db",
		MetricsEnabled:         true,
		MaxParticipants:        512,
		GenerationWorkers:      4,
		DefaultSwissMethod:     "adjacent",
		ShutdownTimeoutSeconds: 10,
	}
}
