package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// LookupFunc resolves one environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// Load reads configuration from the process environment, applies the
// default tags and validates the result.
func Load() (*Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom is Load with a custom variable source.
func LoadFrom(lookup LookupFunc) (*Config, error) {
	cfg := &Config{}
	if err := loadStruct(reflect.ValueOf(cfg).Elem(), lookup); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// loadStruct fills tagged fields of v, descending into nested structs.
//
//	env:"NAME"       variable to read
//	envAlt:"NAME"    fallback variable
//	default:"value"  used when both are unset or empty
//	required:"true"  fail instead of defaulting
func loadStruct(v reflect.Value, lookup LookupFunc) error {
	t := v.Type()
	for i := range t.NumField() {
		sf, fv := t.Field(i), v.Field(i)
		if !fv.CanSet() {
			continue
		}
		if sf.Type.Kind() == reflect.Struct {
			if err := loadStruct(fv, lookup); err != nil {
				return err
			}
			continue
		}

		name := sf.Tag.Get("env")
		if name == "" {
			continue
		}
		raw := firstSet(lookup, name, sf.Tag.Get("envAlt"))
		if raw == "" {
			if sf.Tag.Get("required") == "true" {
				return fmt.Errorf("required environment variable %s is not set", name)
			}
			raw = sf.Tag.Get("default")
		}
		if raw == "" {
			continue
		}
		if err := decodeInto(fv, raw); err != nil {
			return fmt.Errorf("%s=%q: %w", name, raw, err)
		}
	}
	return nil
}

// firstSet returns the first non-empty value among keys.
func firstSet(lookup LookupFunc, keys ...string) string {
	for _, k := range keys {
		if k == "" {
			continue
		}
		if v, ok := lookup(k); ok && v != "" {
			return v
		}
	}
	return ""
}

func decodeInto(fv reflect.Value, raw string) error {
	if fv.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		fv.SetInt(int64(d))
		return nil
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		fv.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		fv.SetBool(b)
	case reflect.Slice:
		if fv.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice of %s", fv.Type().Elem().Kind())
		}
		fv.Set(reflect.ValueOf(splitList(raw)))
	default:
		return fmt.Errorf("unsupported field type %s", fv.Kind())
	}
	return nil
}

// splitList splits a comma-separated list, dropping blank entries.
func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// problems collects validation failures.
type problems []string

func (p *problems) check(ok bool, format string, args ...any) {
	if !ok {
		*p = append(*p, fmt.Sprintf(format, args...))
	}
}

func (p problems) err() error {
	if len(p) == 0 {
		return nil
	}
	return fmt.Errorf("validation failed:\n  - %s", strings.Join(p, "\n  - "))
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var p problems

	// pool settings only matter with a database
	if db := c.Database; db.URL != "" {
		p.check(db.MaxConns > 0, "DB_MAX_CONNS must be positive")
		p.check(db.MinConns >= 0, "DB_MIN_CONNS must be non-negative")
		p.check(db.MaxConns >= db.MinConns, "DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", db.MaxConns, db.MinConns)
	}

	p.check(c.Server.Port > 0 && c.Server.Port <= 65535, "SERVER_PORT (%d) must be 1-65535", c.Server.Port)
	p.check(c.Server.ReadTimeout >= 0, "SERVER_READ_TIMEOUT must be non-negative")
	p.check(c.Server.ShutdownTimeout > 0, "SERVER_SHUTDOWN_TIMEOUT must be positive")

	p.check(c.Grid.DefaultPageSize > 0, "GRID_DEFAULT_PAGE_SIZE must be positive")
	p.check(c.Grid.MaxPageSize >= c.Grid.DefaultPageSize,
		"GRID_MAX_PAGE_SIZE (%d) must be >= GRID_DEFAULT_PAGE_SIZE (%d)", c.Grid.MaxPageSize, c.Grid.DefaultPageSize)

	p.check(c.Session.CookieName != "", "SESSION_COOKIE must not be empty")
	p.check(c.Session.TTL > 0, "SESSION_TTL must be positive")
	p.check(c.Fetch.Timeout > 0, "FETCH_TIMEOUT must be positive")

	p.check(c.Bulk.MaxConcurrent > 0, "BULK_MAX_CONCURRENT must be positive")
	p.check(c.Bulk.MaxWaitTime > 0, "BULK_MAX_WAIT_TIME must be positive")

	p.check(c.Audit.RetentionDays > 0, "AUDIT_RETENTION_DAYS must be positive")
	p.check(c.Audit.CheckInterval > 0, "AUDIT_CHECK_INTERVAL must be positive")
	p.check(c.Audit.MemoryEntries > 0, "AUDIT_MEMORY_ENTRIES must be positive")

	if c.Rate.Enabled {
		p.check(c.Rate.RequestsPerMinute > 0, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
		p.check(c.Rate.ActionLimit > 0, "RATE_LIMIT_ACTIONS must be positive when rate limiting is enabled")
	}

	p.check(!c.Security.RequireAPIKey || len(c.Security.APIKeys) > 0,
		"REQUIRE_API_KEY is set but API_KEYS is empty")

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		p.check(false, "LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		p.check(false, "LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format)
	}

	return p.err()
}

// String summarizes the config for the startup log. The database URL is
// masked.
func (c *Config) String() string {
	db := "memory"
	if c.Database.URL != "" {
		db = fmt.Sprintf("postgres [MASKED] conns=%d..%d", c.Database.MinConns, c.Database.MaxConns)
	}
	return fmt.Sprintf("Config{addr=%s db=%s grid=%d/%d catalog=%q bulk=%d audit=%dd rate=%v/%d log=%s/%s}",
		c.Server.Addr(), db,
		c.Grid.DefaultPageSize, c.Grid.MaxPageSize, c.Grid.CatalogPath,
		c.Bulk.MaxConcurrent, c.Audit.RetentionDays,
		c.Rate.Enabled, c.Rate.RequestsPerMinute,
		c.Logging.Level, c.Logging.Format)
}
