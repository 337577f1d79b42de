// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Grid     GridConfig
	Session  SessionConfig
	Fetch    FetchConfig
	Bulk     BulkConfig
	Audit    AuditConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. When empty the console serves
	// seeded in-memory data.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 20)
	MaxConns int `env:"DB_MAX_CONNS" default:"20"`

	// MinConns is the minimum number of connections to keep open (default: 4)
	MinConns int `env:"DB_MIN_CONNS" default:"4"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// GridConfig holds data grid settings.
type GridConfig struct {
	// DefaultPageSize is used by features that do not set their own (default: 10)
	DefaultPageSize int `env:"GRID_DEFAULT_PAGE_SIZE" default:"10"`

	// MaxPageSize caps the pageSize query parameter (default: 100)
	MaxPageSize int `env:"GRID_MAX_PAGE_SIZE" default:"100"`

	// CatalogPath is the feature catalog file; empty uses the built-in catalog
	CatalogPath string `env:"GRID_CATALOG_PATH"`

	// Seed drives the generated in-memory rows (default: 1)
	Seed int64 `env:"GRID_SEED" default:"1"`
}

// SessionConfig holds console session settings.
type SessionConfig struct {
	// CookieName is the session cookie (default: console_session)
	CookieName string `env:"SESSION_COOKIE" default:"console_session"`

	// SecureCookie marks the cookie Secure; enable behind HTTPS (default: false)
	SecureCookie bool `env:"SESSION_SECURE_COOKIE" default:"false"`

	// TTL is how long an idle grid instance is kept (default: 30m)
	TTL time.Duration `env:"SESSION_TTL" default:"30m"`
}

// FetchConfig holds grid data fetch settings.
type FetchConfig struct {
	// Timeout bounds a single page fetch (default: 15s)
	Timeout time.Duration `env:"FETCH_TIMEOUT" default:"15s"`
}

// BulkConfig holds bulk action settings.
type BulkConfig struct {
	// MaxConcurrent is the maximum number of bulk actions running at once (default: 4)
	MaxConcurrent int `env:"BULK_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long an action waits for a slot (default: 10s)
	MaxWaitTime time.Duration `env:"BULK_MAX_WAIT_TIME" default:"10s"`
}

// AuditConfig holds bulk action audit log settings.
type AuditConfig struct {
	// RetentionDays is how long audit entries are kept (default: 90)
	RetentionDays int `env:"AUDIT_RETENTION_DAYS" default:"90"`

	// CheckInterval is how often old entries are pruned (default: 24h)
	CheckInterval time.Duration `env:"AUDIT_CHECK_INTERVAL" default:"24h"`

	// MemoryEntries caps the in-memory log used without a database (default: 1000)
	MemoryEntries int `env:"AUDIT_MEMORY_ENTRIES" default:"1000"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// ActionLimit is requests per minute for bulk action endpoints (default: 30)
	ActionLimit int `env:"RATE_LIMIT_ACTIONS" default:"30"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey protects mutating endpoints with an API key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + strconv.Itoa(c.Port)
	}
	return c.Host + ":" + strconv.Itoa(c.Port)
}
