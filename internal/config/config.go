// Package config provides centralized configuration for the export runs.
// It loads configuration from environment variables with sensible defaults
// and validates all settings before a run starts.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Database DatabaseConfig
	Odoo     OdooConfig
	Export   ExportConfig
	Metrics  MetricsConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds relational export settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required for the db path)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// ConnectTimeout bounds connecting and pinging the store (default: 10s)
	ConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" default:"10s"`
}

// OdooConfig holds remote export settings.
type OdooConfig struct {
	// URL is the base address of the server (default: http://localhost:8069)
	URL string `env:"ODOO_URL" default:"http://localhost:8069"`

	// DB is the target database name on the server (default: odoo)
	DB string `env:"ODOO_DB" default:"odoo"`

	// User is the login used to authenticate (default: admin)
	User string `env:"ODOO_USER" default:"admin"`

	// Password is the password or API key (required for the api path)
	Password string `env:"ODOO_PASSWORD" envAlt:"ODOO_API_KEY"`

	// Lang is the locale key passed as the request language (default: en_US)
	Lang string `env:"ODOO_LANG" default:"en_US"`

	// IncludeArchived requests archived leads as well (default: true)
	IncludeArchived bool `env:"ODOO_INCLUDE_ARCHIVED" default:"true"`

	// BatchSize is the number of leads read per request (default: 500)
	BatchSize int `env:"ODOO_BATCH_SIZE" default:"500"`

	// Workers is the number of batches fetched concurrently (default: 1)
	Workers int `env:"ODOO_WORKERS" default:"1"`

	// MaxRetries is how often a failed batch is retried before it is skipped (default: 2)
	MaxRetries int `env:"ODOO_MAX_RETRIES" default:"2"`

	// RetryBackoff is the delay before the first retry, doubled per attempt (default: 1s)
	RetryBackoff time.Duration `env:"ODOO_RETRY_BACKOFF" default:"1s"`

	// RequestTimeout bounds a single RPC request (default: 120s)
	RequestTimeout time.Duration `env:"ODOO_REQUEST_TIMEOUT" default:"120s"`
}

// ExportConfig holds output settings shared by both paths.
type ExportConfig struct {
	// OutputDir is where default-named files are created (default: .)
	OutputDir string `env:"EXPORT_OUTPUT_DIR" default:"."`

	// Locale is the translation key both paths export; empty means ODOO_LANG
	Locale string `env:"EXPORT_LOCALE"`
}

// MetricsConfig holds run metrics settings.
type MetricsConfig struct {
	// TextfilePath, when set, receives the run metrics in Prometheus text format
	TextfilePath string `env:"METRICS_TEXTFILE"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}
