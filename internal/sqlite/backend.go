// Package sqlite implements the phonebook Store on database/sql with the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mesh-intelligence/phonebook/pkg/types"
)

// DriverName is the database/sql driver name registered by modernc.org/sqlite.
const DriverName = "sqlite"

// Ensure Backend implements types.Store.
var _ types.Store = (*Backend)(nil)

// Backend implements types.Store on a single SQLite database file.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	db       *sql.DB
}

// Open creates the database file's directory if needed, opens it, and applies
// the schema according to cfg.SchemaMode. cfg.DSN is a file path or a
// "file:" URI.
func Open(ctx context.Context, cfg types.Config) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := OpenDB(cfg.DSN)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := applySchema(ctx, db, cfg.GetSchemaMode()); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Backend{attached: true, db: db}, nil
}

// OpenDB opens a *sql.DB for dsn with foreign keys enabled on every pooled
// connection. It creates the parent directory of a plain file path.
func OpenDB(dsn string) (*sql.DB, error) {
	if path := filePath(dsn); path != "" && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open(DriverName, withPragmas(dsn))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; transactions never wait on each other for a lock.
	db.SetMaxOpenConns(1)
	return db, nil
}

// Close releases the database handle. Close is idempotent.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.attached = false
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}

func applySchema(ctx context.Context, db *sql.DB, mode string) error {
	if mode == types.SchemaNone {
		return nil
	}
	if mode == types.SchemaCreate {
		for _, stmt := range dropDDL {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
	}
	for _, stmt := range schemaDDL {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// filePath extracts the filesystem path from a plain path or "file:" URI.
func filePath(dsn string) string {
	if !strings.HasPrefix(dsn, "file:") {
		return dsn
	}
	p := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	return p
}

// withPragmas appends the foreign_keys and busy_timeout pragmas to dsn in
// the modernc "_pragma" query form.
func withPragmas(dsn string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	return dsn + sep + q.Encode()
}
