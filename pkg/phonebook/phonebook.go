// Package phonebook is the public entry point for opening a Store. It
// selects the backend named by Config.Backend and keeps the backend
// implementations internal.
//
// Example:
//
//	store, err := phonebook.Open(ctx, types.Config{
//	    Backend: types.BackendSQLite,
//	    DSN:     "phonebook.db",
//	})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
package phonebook

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/phonebook/internal/gormstore"
	"github.com/mesh-intelligence/phonebook/internal/postgres"
	"github.com/mesh-intelligence/phonebook/internal/sqlite"
	"github.com/mesh-intelligence/phonebook/pkg/types"
)

// Version is the phonebook release version.
const Version = "0.1.0"

// Open validates cfg and returns a ready Store for the configured backend.
// Any failure here is fatal to the caller: nothing is retried.
func Open(ctx context.Context, cfg types.Config) (types.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		store types.Store
		err   error
	)
	switch cfg.Backend {
	case types.BackendSQLite:
		store, err = sqlite.Open(ctx, cfg)
	case types.BackendPostgres:
		store, err = postgres.Open(ctx, cfg)
	case types.BackendGorm:
		store, err = gormstore.Open(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrBackendUnknown, cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	return store, nil
}
