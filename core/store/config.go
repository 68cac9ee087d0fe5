package store

import (
	"context"
	"os"
	"strings"

	"github.com/FocuswithJustin/commentariat/core/errors"
)

// Storage driver names accepted by Config.Driver.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Environment variables consulted by ConfigFromEnv.
const (
	EnvDriver       = "COMMENTARIAT_STORAGE_DRIVER"
	EnvDatabaseURL  = "DATABASE_URL"
	EnvDatabasePath = "DATABASE_PATH"
)

// DefaultSQLitePath is where the SQLite database lives when nothing else
// is configured.
const DefaultSQLitePath = "data/commentariat.db"

// Config selects and parameterizes a storage backend.
type Config struct {
	Driver string // memory, sqlite or postgres
	Path   string // SQLite database file
	DSN    string // PostgreSQL connection string
}

// ConfigFromEnv resolves the storage configuration from the environment.
// DATABASE_URL wins over DATABASE_PATH; the explicit driver variable wins
// over both URL-prefix detection and the default.
func ConfigFromEnv() Config {
	cfg := Config{Driver: DriverSQLite, Path: DefaultSQLitePath}

	if url := os.Getenv(EnvDatabaseURL); url != "" {
		switch {
		case strings.HasPrefix(url, "sqlite:///"):
			cfg.Driver = DriverSQLite
			cfg.Path = strings.TrimPrefix(url, "sqlite:///")
		case strings.HasPrefix(url, "sqlite://"):
			cfg.Driver = DriverSQLite
			cfg.Path = strings.TrimPrefix(url, "sqlite://")
		case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
			cfg.Driver = DriverPostgres
			cfg.DSN = url
		}
	} else if path := os.Getenv(EnvDatabasePath); path != "" {
		cfg.Path = path
	}

	if driver := os.Getenv(EnvDriver); driver != "" {
		cfg.Driver = strings.ToLower(strings.TrimSpace(driver))
	}
	return cfg
}

// Open opens the backend selected by cfg and ensures its schema exists.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "":
		return nil, errors.NewValidation("driver", "storage driver is required")
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		path := cfg.Path
		if path == "" {
			path = DefaultSQLitePath
		}
		return openSQLite(ctx, path)
	case DriverPostgres:
		if cfg.DSN == "" {
			return nil, errors.NewValidation("dsn", "postgres driver requires a DSN")
		}
		return openPostgres(ctx, cfg.DSN)
	default:
		return nil, errors.NewValidation("driver", "unknown storage driver: "+cfg.Driver)
	}
}
