package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/phonebook/internal/contracttest"
	"github.com/mesh-intelligence/phonebook/pkg/types"
)

// setupBackend opens a Backend on a fresh database file in a temp dir.
func setupBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := Open(context.Background(), types.Config{
		Backend: types.BackendSQLite,
		DSN:     filepath.Join(t.TempDir(), "phonebook.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func TestBackendContract(t *testing.T) {
	contracttest.RunStore(t, func(t *testing.T) types.Store {
		return setupBackend(t)
	})
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	_, err := Open(context.Background(), types.Config{Backend: types.BackendSQLite})
	assert.ErrorIs(t, err, types.ErrDSNEmpty)
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "nested", "deeper", "phonebook.db")
	b, err := Open(context.Background(), types.Config{Backend: types.BackendSQLite, DSN: dsn})
	require.NoError(t, err)
	require.NoError(t, b.Close())
	assert.FileExists(t, dsn)
}

func TestSchemaModes(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "phonebook.db")
	cfg := types.Config{Backend: types.BackendSQLite, DSN: dsn}

	b, err := Open(ctx, cfg)
	require.NoError(t, err)
	p := types.NewPerson("Hlus", "Andrey", "Alexandrovich", time.Date(1975, 8, 27, 0, 0, 0, 0, time.UTC))
	require.NoError(t, b.AddPerson(ctx, p, types.NewPhone("+7-902-204-80-09")))
	require.NoError(t, b.Close())

	t.Run("update keeps existing rows", func(t *testing.T) {
		b, err := Open(ctx, cfg)
		require.NoError(t, err)
		defer b.Close()

		all, err := b.GetAllPersons(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("none leaves the schema untouched", func(t *testing.T) {
		none := cfg
		none.SchemaMode = types.SchemaNone
		b, err := Open(ctx, none)
		require.NoError(t, err)
		defer b.Close()

		got, err := b.GetPersonByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Hlus", got.Surname)
	})

	t.Run("create drops existing rows", func(t *testing.T) {
		create := cfg
		create.SchemaMode = types.SchemaCreate
		b, err := Open(ctx, create)
		require.NoError(t, err)
		defer b.Close()

		all, err := b.GetAllPersons(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}

func TestForeignKeyCascadeInSchema(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	p := types.NewPerson("Trubanov", "Ivan", "Alexandrovich", time.Date(1975, 9, 6, 0, 0, 0, 0, time.UTC))
	require.NoError(t, b.AddPerson(ctx, p, types.NewPhone("+7-906-283-62-11")))

	// Bypass DeletePerson: the schema alone must not leave orphans.
	_, err := b.db.ExecContext(ctx, "DELETE FROM persons WHERE id = ?", p.ID)
	require.NoError(t, err)

	phones, err := b.GetPhonesByPersonID(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, phones)
}

func TestInsertOrphanPhoneFails(t *testing.T) {
	b := setupBackend(t)

	_, err := b.db.Exec("INSERT INTO phones (number, person_id) VALUES (?, ?)", "+7-000", 999)
	require.Error(t, err, "foreign_keys pragma must be enabled")
	assert.ErrorIs(t, TranslateError(err), types.ErrNotFound)
}

func TestTranslateError(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		query   string
		args    []any
		wantErr error
	}{
		{
			name:    "orphan phone",
			query:   "INSERT INTO phones (number, person_id) VALUES (?, ?)",
			args:    []any{"+7-000", 999},
			wantErr: types.ErrNotFound,
		},
		{
			name:    "null surname",
			query:   "INSERT INTO persons (surname, first_name, patronymic, birth_date) VALUES (NULL, ?, ?, ?)",
			args:    []any{"Ivan", "", "1975-09-06"},
			wantErr: types.ErrInvalidData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.db.ExecContext(ctx, tt.query, tt.args...)
			require.Error(t, err)
			_, ok := AsSQLiteError(err)
			require.True(t, ok, "driver error expected, got %T", err)

			got := classify("insert", err)
			assert.ErrorIs(t, got, tt.wantErr)
			assert.Contains(t, got.Error(), "insert: ")
		})
	}

	plain := errors.New("boom")
	assert.Same(t, plain, TranslateError(plain))
}

func TestDSNHelpers(t *testing.T) {
	tests := []struct {
		dsn      string
		wantPath string
		wantDSN  string
	}{
		{
			dsn:      "/tmp/pb/phonebook.db",
			wantPath: "/tmp/pb/phonebook.db",
			wantDSN:  "file:/tmp/pb/phonebook.db?_pragma=foreign_keys%281%29&_pragma=busy_timeout%285000%29",
		},
		{
			dsn:      "file:/tmp/pb/phonebook.db?cache=shared",
			wantPath: "/tmp/pb/phonebook.db",
			wantDSN:  "file:/tmp/pb/phonebook.db?cache=shared&_pragma=foreign_keys%281%29&_pragma=busy_timeout%285000%29",
		},
		{
			dsn:      ":memory:",
			wantPath: ":memory:",
			wantDSN:  "file::memory:?_pragma=foreign_keys%281%29&_pragma=busy_timeout%285000%29",
		},
	}

	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			assert.Equal(t, tt.wantPath, filePath(tt.dsn))
			assert.Equal(t, tt.wantDSN, withPragmas(tt.dsn))
		})
	}
}
