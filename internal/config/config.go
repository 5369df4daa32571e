// Package config provides centralized configuration management for the importer.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

// Config holds all importer configuration.
// All settings can be configured via environment variables.
type Config struct {
	Import   ImportConfig
	Database DatabaseConfig
	Logging  LoggingConfig
}

// ImportConfig holds detection, mapping and validation settings.
type ImportConfig struct {
	// SampleSize is the number of rows inspected by detection and mapping (default: 50)
	SampleSize int `env:"IMPORT_SAMPLE_SIZE" default:"50"`

	// ChunkSize is the number of rows transformed/validated per chunk (default: 1000)
	ChunkSize int `env:"IMPORT_CHUNK_SIZE" default:"1000"`

	// Workers bounds concurrent profile scoring and row validation (default: 4)
	Workers int `env:"IMPORT_WORKERS" default:"4"`

	// WeightsFile is an optional YAML file overriding scoring weights
	WeightsFile string `env:"IMPORT_WEIGHTS_FILE"`

	// DuplicateSeverity is the severity of duplicate groups: warning or error (default: warning)
	DuplicateSeverity string `env:"IMPORT_DUPLICATE_SEVERITY" default:"warning"`

	// PriceMin and PriceMax bound plausible item prices (default: 0.01 - 500)
	PriceMin float64 `env:"IMPORT_PRICE_MIN" default:"0.01"`
	PriceMax float64 `env:"IMPORT_PRICE_MAX" default:"500"`
}

// DatabaseConfig holds template store connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. Templates are not persisted when empty.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// MinConns is the minimum number of connections to keep open (default: 0)
	MinConns int `env:"DB_MIN_CONNS" default:"0"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// HasDatabase reports whether a template store is configured.
func (c *DatabaseConfig) HasDatabase() bool {
	return c.URL != ""
}
