package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config familytree (HTTP API) configuration
type Config struct {
	HTTP struct {
		Addr     string
		CSRFKey  string
		Secure   bool // set Secure on cookies / CSRF when serving over TLS
		BasePath string
	}
	// Driver selects the persons store backend: postgres | sqlite | memory.
	// memory keeps the service usable with plain `go run` when no DB is around.
	Driver   string
	Database DatabaseConfig
	SQLite   struct {
		Path string
	}
	Redis struct {
		Enabled  bool
		Addr     string
		Password string
		DB       int
	}
	Auth AuthConfig
	Log  struct {
		Level  string
		Format string
	}
}

// DatabaseConfig PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN builds a lib/pq connection string.
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// AuthConfig external identity provider (OIDC) settings.
// Disabled=true skips the gate entirely and injects a dev subject, so the
// service can run without a provider during local development.
type AuthConfig struct {
	Disabled     bool
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	SessionTTL   int // seconds
	DevSubject   string
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")
	cfg.HTTP.CSRFKey = getEnv("CSRF_KEY", "dev-only-32-byte-csrf-key-change")
	cfg.HTTP.Secure = getEnv("HTTP_SECURE", "false") == "true"

	cfg.Driver = getEnv("DB_DRIVER", "postgres")
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "familytree")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)
	cfg.SQLite.Path = getEnv("SQLITE_PATH", "familytree.db")

	cfg.Redis.Enabled = getEnv("REDIS_ENABLED", "true") == "true"
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	cfg.Auth.Disabled = getEnv("AUTH_DISABLED", "false") == "true"
	cfg.Auth.Issuer = getEnv("OIDC_ISSUER", "")
	cfg.Auth.ClientID = getEnv("OIDC_CLIENT_ID", "")
	cfg.Auth.ClientSecret = getEnv("OIDC_CLIENT_SECRET", "")
	cfg.Auth.RedirectURL = getEnv("OIDC_REDIRECT_URL", "http://localhost:8080/auth/callback")
	cfg.Auth.SessionTTL = parseInt(getEnv("SESSION_TTL_SECONDS", "86400"), 86400)
	cfg.Auth.DevSubject = getEnv("AUTH_DEV_SUBJECT", "dev-user")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
