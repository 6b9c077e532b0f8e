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
	Server    ServerConfig
	Database  DatabaseConfig
	Import    ImportConfig
	Export    ExportConfig
	Bootstrap BootstrapConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 60s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"60s"`

	// WriteTimeout is the maximum duration for writing response (default: 0, exports stream)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// ScanTimeout bounds a single scan request (default: 10s)
	ScanTimeout time.Duration `env:"SERVER_SCAN_TIMEOUT" default:"10s"`

	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Real-IP / X-Forwarded-For headers are believed
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// DatabaseConfig holds connection pool settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MinConns is the number of connections opened eagerly (default: 1)
	MinConns int `env:"DB_MIN_CONNS" envAlt:"PGPOOL_MIN_SIZE" default:"1"`

	// MaxConns is the maximum number of leased connections (default: 3)
	MaxConns int `env:"DB_MAX_CONNS" envAlt:"PGPOOL_MAX_SIZE" default:"3"`

	// AcquireTimeout is how long a caller waits for a free connection (default: 5s)
	AcquireTimeout time.Duration `env:"DB_ACQUIRE_TIMEOUT" default:"5s"`

	// RetryBackoff is the pause before retrying a lost connection (default: 200ms)
	RetryBackoff time.Duration `env:"DB_RETRY_BACKOFF" default:"200ms"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// ImportConfig holds catalog import settings.
type ImportConfig struct {
	// MaxFileSize is the maximum allowed upload size in bytes (default: 20MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"20971520"`

	// MaxConcurrent is the maximum number of parallel imports (default: 2)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"2"`

	// MaxWait is how long to wait for an import slot (default: 30s)
	MaxWait time.Duration `env:"IMPORT_MAX_WAIT" default:"30s"`

	// Timeout is the maximum duration for a single import (default: 10m)
	Timeout time.Duration `env:"IMPORT_TIMEOUT" default:"10m"`

	// LogEvery is how many rows pass between progress log lines (default: 500)
	LogEvery int `env:"IMPORT_LOG_EVERY" default:"500"`
}

// ExportConfig holds history export settings.
type ExportConfig struct {
	// Timezone is the IANA zone read times are written in (default: Local)
	Timezone string `env:"EXPORT_TIMEZONE" default:"Local"`
}

// BootstrapConfig holds startup seeding settings.
type BootstrapConfig struct {
	// Admins are the administrator accounts created when absent (default: admin)
	Admins []string `env:"BOOTSTRAP_ADMINS" default:"admin"`
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
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Location resolves Timezone. An empty value or "Local" is the process zone.
func (c *ExportConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}
