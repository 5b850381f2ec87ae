package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Mode selects which export path a configuration is validated for.
type Mode string

const (
	ModeDB  Mode = "db"
	ModeAPI Mode = "api"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		// Skip unexported fields
		if !fieldVal.CanSet() {
			continue
		}

		// Recurse into nested structs
		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		envAlt := field.Tag.Get("envAlt")
		defaultVal := field.Tag.Get("default")
		required := field.Tag.Get("required") == "true"

		if envName == "" {
			continue
		}

		// Try primary env var, then alternate
		value := os.Getenv(envName)
		if value == "" && envAlt != "" {
			value = os.Getenv(envAlt)
		}

		if value == "" {
			if required {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = defaultVal
		}

		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		// Handle time.Duration specially
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks settings that apply to every run.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.ConnectTimeout <= 0 {
		errs = append(errs, "DB_CONNECT_TIMEOUT must be positive")
	}

	if c.Odoo.BatchSize <= 0 {
		errs = append(errs, "ODOO_BATCH_SIZE must be positive")
	}
	if c.Odoo.Workers <= 0 {
		errs = append(errs, "ODOO_WORKERS must be positive")
	}
	if c.Odoo.MaxRetries < 0 {
		errs = append(errs, "ODOO_MAX_RETRIES must be non-negative")
	}
	if c.Odoo.RetryBackoff < 0 {
		errs = append(errs, "ODOO_RETRY_BACKOFF must be non-negative")
	}
	if c.Odoo.RequestTimeout <= 0 {
		errs = append(errs, "ODOO_REQUEST_TIMEOUT must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	return joinErrs(errs)
}

// ValidateFor checks the settings a specific export path needs on top of Validate.
func (c *Config) ValidateFor(mode Mode) error {
	if err := c.Validate(); err != nil {
		return err
	}

	var errs []string
	switch mode {
	case ModeDB:
		if c.Database.URL == "" {
			errs = append(errs, "DATABASE_URL is required")
		}
	case ModeAPI:
		if c.Odoo.URL == "" {
			errs = append(errs, "ODOO_URL is required")
		}
		if c.Odoo.DB == "" {
			errs = append(errs, "ODOO_DB is required")
		}
		if c.Odoo.User == "" {
			errs = append(errs, "ODOO_USER is required")
		}
		if c.Odoo.Password == "" {
			errs = append(errs, "ODOO_PASSWORD is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown export mode %q", mode))
	}

	return joinErrs(errs)
}

// Locale returns the translation key of a run: EXPORT_LOCALE when set,
// otherwise ODOO_LANG. The db path prefers it when reading stored
// translations and the api path sends it as the request language, so both
// render the same labels.
func (c *Config) Locale() string {
	if c.Export.Locale != "" {
		return c.Export.Locale
	}
	return c.Odoo.Lang
}

func joinErrs(errs []string) error {
	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// String returns a safe string representation of the config for logging.
// Credentials are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Database: {URL: %s}, ", mask(c.Database.URL)))
	b.WriteString(fmt.Sprintf("Odoo: {URL: %q, DB: %q, User: %q, Password: %s, BatchSize: %d, Workers: %d}, ",
		c.Odoo.URL, c.Odoo.DB, c.Odoo.User, mask(c.Odoo.Password), c.Odoo.BatchSize, c.Odoo.Workers))
	b.WriteString(fmt.Sprintf("Export: {OutputDir: %q, Locale: %q}, ", c.Export.OutputDir, c.Export.Locale))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}

func mask(s string) string {
	if s == "" {
		return `""`
	}
	return "[MASKED]"
}
