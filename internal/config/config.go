// Package config loads importer settings from the environment.
//
// Every field is bound to an environment variable through struct tags:
//
//	env      primary variable name
//	envAlt   fallback variable name
//	default  value used when neither variable is set
//	required fail the load when no value is found
//
// Load validates the result and reports every problem at once.
package config

import (
	"net"
	"strconv"
	"time"
)

// Database drivers accepted in DATABASE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all importer configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Import   ImportConfig
	Redis    RedisConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" default:"8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"3m"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout bounds each request in middleware. It must cover
	// IMPORT_TIMEOUT or long imports are cut off at the HTTP layer.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"3m"`
}

// DatabaseConfig selects and configures the catalog store.
type DatabaseConfig struct {
	// Driver is memory, sqlite or postgres.
	Driver string `env:"DATABASE_DRIVER" default:"sqlite"`

	// URL is a file path for sqlite and a connection string for postgres.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" default:"catalog.db"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// ImportConfig holds import pipeline settings.
type ImportConfig struct {
	// MaxRows caps data rows read per file.
	MaxRows int `env:"IMPORT_MAX_ROWS" default:"5000"`

	// MaxFileSize is the upload limit in bytes (default 10MB).
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"10485760"`

	MaxConcurrent int           `env:"IMPORT_MAX_CONCURRENT" default:"2"`
	MaxWaitTime   time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"10s"`
	Timeout       time.Duration `env:"IMPORT_TIMEOUT" default:"2m"`

	DefaultBrand     string `env:"IMPORT_DEFAULT_BRAND" default:"Diğer"`
	DefaultCategory  string `env:"IMPORT_DEFAULT_CATEGORY" default:"Genel"`
	PlaceholderImage string `env:"IMPORT_PLACEHOLDER_IMAGE" default:"https://placehold.co/600x600?text=No+Image"`

	// CatalogKey names the catalog imports are serialized on.
	CatalogKey string `env:"IMPORT_CATALOG_KEY" default:"default"`

	// SerializeCommits runs list, dedup and insert under a commit lock.
	SerializeCommits bool          `env:"IMPORT_SERIALIZE_COMMITS" default:"true"`
	LockWaitTime     time.Duration `env:"IMPORT_LOCK_WAIT_TIME" default:"30s"`

	// SeedCategories is a comma-separated list added to the directory at startup.
	SeedCategories []string `env:"IMPORT_SEED_CATEGORIES"`
}

// RedisConfig enables the shared commit lock when URL is set.
type RedisConfig struct {
	URL       string        `env:"REDIS_URL"`
	LockTTL   time.Duration `env:"REDIS_LOCK_TTL" default:"5m"`
	LockRetry time.Duration `env:"REDIS_LOCK_RETRY" default:"100ms"`
}

// Enabled reports whether a Redis URL was configured.
func (c RedisConfig) Enabled() bool { return c.URL != "" }

// SecurityConfig holds request admission settings.
type SecurityConfig struct {
	// RequireAPIKey makes the import endpoints demand a key in X-API-Key.
	RequireAPIKey bool     `env:"REQUIRE_API_KEY" default:"false"`
	APIKeys       []string `env:"API_KEYS"`

	// TrustedProxies lists CIDRs whose X-Real-IP and X-Forwarded-For are honoured.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RateLimit is requests per minute per client IP. Zero disables it.
	RateLimit int `env:"RATE_LIMIT_PER_MINUTE" default:"100"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" default:"info"`
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the listen address in host:port form.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
