package phonebook

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/phonebook/internal/contracttest"
	"github.com/mesh-intelligence/phonebook/pkg/types"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		cfg     types.Config
		wantErr error
	}{
		{
			name:    "empty backend",
			cfg:     types.Config{DSN: "x.db"},
			wantErr: types.ErrBackendEmpty,
		},
		{
			name:    "unknown backend",
			cfg:     types.Config{Backend: "mongo", DSN: "x"},
			wantErr: types.ErrBackendUnknown,
		},
		{
			name:    "gorm without dialect",
			cfg:     types.Config{Backend: types.BackendGorm, DSN: "x.db"},
			wantErr: types.ErrDialectUnknown,
		},
		{
			name:    "bad schema mode",
			cfg:     types.Config{Backend: types.BackendSQLite, DSN: "x.db", SchemaMode: "validate"},
			wantErr: types.ErrSchemaModeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(context.Background(), tt.cfg)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, store)
		})
	}
}

func TestOpenEmbeddedBackends(t *testing.T) {
	tests := []struct {
		name string
		cfg  func(dir string) types.Config
	}{
		{
			name: "sqlite",
			cfg: func(dir string) types.Config {
				return types.Config{Backend: types.BackendSQLite, DSN: filepath.Join(dir, "pb.db")}
			},
		},
		{
			name: "gorm on sqlite",
			cfg: func(dir string) types.Config {
				return types.Config{
					Backend: types.BackendGorm,
					Dialect: types.DialectSQLite,
					DSN:     filepath.Join(dir, "pb.db"),
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(context.Background(), tt.cfg(t.TempDir()))
			require.NoError(t, err)
			defer store.Close()

			contracttest.RunScenario(t, store)
		})
	}
}
