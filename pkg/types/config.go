package types

import (
	"errors"
	"fmt"
)

// Config is the connection descriptor consumed by phonebook.Open.
type Config struct {
	// Backend selects the store implementation (sqlite, postgres, gorm).
	Backend string `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Dialect selects the SQL dialect for the gorm backend (sqlite, postgres).
	// The sqlite and postgres backends imply their own dialect and ignore it.
	Dialect string `json:"dialect" yaml:"dialect" mapstructure:"dialect"`

	// DSN is the driver-specific connection string: a file path for sqlite,
	// a libpq URL or keyword string for postgres.
	DSN string `json:"dsn" yaml:"dsn" mapstructure:"dsn"`

	// SchemaMode controls what Open does to the schema. Empty means update.
	SchemaMode string `json:"schema_mode" yaml:"schema_mode" mapstructure:"schema_mode"`

	// MaxConns caps the postgres connection pool. Zero keeps the driver
	// default; sqlite always runs on a single connection.
	MaxConns int32 `json:"max_conns" yaml:"max_conns" mapstructure:"max_conns"`
}

// Supported backend names.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendGorm     = "gorm"
)

// Supported dialects for the gorm backend.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// Schema modes.
const (
	// SchemaUpdate creates missing tables and leaves existing data alone.
	SchemaUpdate = "update"
	// SchemaCreate drops both tables and creates them empty.
	SchemaCreate = "create"
	// SchemaNone leaves the schema untouched.
	SchemaNone = "none"
)

// Config validation errors.
var (
	ErrBackendEmpty      = errors.New("backend must not be empty")
	ErrBackendUnknown    = errors.New("unknown backend")
	ErrDialectUnknown    = errors.New("unknown dialect")
	ErrDSNEmpty          = errors.New("dsn must not be empty")
	ErrSchemaModeUnknown = errors.New("unknown schema mode")
	ErrMaxConnsNegative  = errors.New("max conns must not be negative")
)

var knownBackends = map[string]bool{
	BackendSQLite:   true,
	BackendPostgres: true,
	BackendGorm:     true,
}

var knownDialects = map[string]bool{
	DialectSQLite:   true,
	DialectPostgres: true,
}

var knownSchemaModes = map[string]bool{
	SchemaUpdate: true,
	SchemaCreate: true,
	SchemaNone:   true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package, wrapped with the offending value where there is one.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return fmt.Errorf("%w: %q", ErrBackendUnknown, c.Backend)
	}
	if c.Backend == BackendGorm && !knownDialects[c.Dialect] {
		return fmt.Errorf("%w: %q", ErrDialectUnknown, c.Dialect)
	}
	if c.DSN == "" {
		return ErrDSNEmpty
	}
	if c.SchemaMode != "" && !knownSchemaModes[c.SchemaMode] {
		return fmt.Errorf("%w: %q", ErrSchemaModeUnknown, c.SchemaMode)
	}
	if c.MaxConns < 0 {
		return fmt.Errorf("%w: %d", ErrMaxConnsNegative, c.MaxConns)
	}
	return nil
}

// GetSchemaMode returns the effective schema mode, defaulting to SchemaUpdate.
func (c Config) GetSchemaMode() string {
	if c.SchemaMode == "" {
		return SchemaUpdate
	}
	return c.SchemaMode
}

// EffectiveDialect returns the SQL dialect the configured backend speaks.
func (c Config) EffectiveDialect() string {
	switch c.Backend {
	case BackendSQLite:
		return DialectSQLite
	case BackendPostgres:
		return DialectPostgres
	default:
		return c.Dialect
	}
}
