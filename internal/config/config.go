// Package config loads application configuration from environment variables.
// A .env file in the working directory is read first when present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Storage drivers accepted in DB_DRIVER.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Lock backends accepted in LOCK_BACKEND.
const (
	LockLocal = "local"
	LockRedis = "redis"
)

// Config holds the runtime configuration of the API and its workers. Each
// field corresponds to an environment variable.
type Config struct {
	// Env is the application environment (dev/test/prod).
	Env string `env:"APP_ENV" envDefault:"dev"`
	// Port is the HTTP port to listen on.
	Port string `env:"APP_PORT" envDefault:"8080"`

	DBDriver   string `env:"DB_DRIVER" envDefault:"mysql"`
	DBUser     string `env:"DB_USER"`
	DBPass     string `env:"DB_PASS"`
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"3306"`
	DBName     string `env:"DB_NAME" envDefault:"eazyvenue"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"data/eazyvenue.db"`

	// LockTTL is the lease of a redis lock; LockWait bounds how long a
	// request waits for a venue lock before failing.
	LockBackend string        `env:"LOCK_BACKEND" envDefault:"local"`
	LockTTL     time.Duration `env:"LOCK_TTL" envDefault:"30s"`
	LockWait    time.Duration `env:"LOCK_WAIT" envDefault:"5s"`

	// An empty RabbitURL disables booking events.
	RabbitURL    string `env:"RABBITMQ_URL"`
	EventsQueue  string `env:"BOOKING_EVENTS_QUEUE" envDefault:"booking.events"`
	AuditLogPath string `env:"BOOKING_AUDIT_LOG" envDefault:"logs/booking.log"`

	// An empty OTelEndpoint disables trace export.
	OTelEndpoint string `env:"OTEL_ENDPOINT"`
	OTelService  string `env:"OTEL_SERVICE_NAME" envDefault:"eazyvenue"`

	ShutdownGrace time.Duration `env:"SHUTDOWN_GRACE" envDefault:"10s"`
}

// Load reads .env (if present) and parses the environment into a Config.
func Load() (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	cfg.LockBackend = strings.ToLower(strings.TrimSpace(cfg.LockBackend))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads tagged fields of target from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks enumerated values and required MySQL settings.
func (c Config) Validate() error {
	switch c.DBDriver {
	case DriverMySQL:
		if c.DBUser == "" {
			return errors.New("config: DB_USER is required for the mysql driver")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("config: SQLITE_PATH is required for the sqlite driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("config: unknown DB_DRIVER %q", c.DBDriver)
	}
	switch c.LockBackend {
	case LockLocal, LockRedis:
	default:
		return fmt.Errorf("config: unknown LOCK_BACKEND %q", c.LockBackend)
	}
	if c.LockWait <= 0 {
		return errors.New("config: LOCK_WAIT must be positive")
	}
	return nil
}

func loadDotEnv() error {
	err := godotenv.Load()
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load .env: %w", err)
}
