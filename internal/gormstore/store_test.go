package gormstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mesh-intelligence/phonebook/internal/contracttest"
	"github.com/mesh-intelligence/phonebook/internal/sqlite"
	"github.com/mesh-intelligence/phonebook/pkg/types"
)

const envTestDSN = "PHONEBOOK_PG_DSN"

func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), types.Config{
		Backend: types.BackendGorm,
		Dialect: types.DialectSQLite,
		DSN:     filepath.Join(t.TempDir(), "phonebook.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreContractSQLite(t *testing.T) {
	contracttest.RunStore(t, func(t *testing.T) types.Store {
		return setupStore(t)
	})
}

func TestStoreContractPostgres(t *testing.T) {
	dsn := os.Getenv(envTestDSN)
	if dsn == "" {
		t.Skip(envTestDSN + " not set; skipping Postgres contract tests")
	}
	contracttest.RunStore(t, func(t *testing.T) types.Store {
		s, err := Open(context.Background(), types.Config{
			Backend:    types.BackendGorm,
			Dialect:    types.DialectPostgres,
			DSN:        dsn,
			SchemaMode: types.SchemaCreate,
		})
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     types.Config
		wantErr error
	}{
		{
			name:    "missing dialect",
			cfg:     types.Config{Backend: types.BackendGorm, DSN: "x.db"},
			wantErr: types.ErrDialectUnknown,
		},
		{
			name:    "unknown dialect",
			cfg:     types.Config{Backend: types.BackendGorm, Dialect: "oracle", DSN: "x.db"},
			wantErr: types.ErrDialectUnknown,
		},
		{
			name:    "missing dsn",
			cfg:     types.Config{Backend: types.BackendGorm, Dialect: types.DialectSQLite},
			wantErr: types.ErrDSNEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(context.Background(), tt.cfg)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSchemaCreateDropsRows(t *testing.T) {
	ctx := context.Background()
	cfg := types.Config{
		Backend: types.BackendGorm,
		Dialect: types.DialectSQLite,
		DSN:     filepath.Join(t.TempDir(), "phonebook.db"),
	}

	s, err := Open(ctx, cfg)
	require.NoError(t, err)
	p := types.NewPerson("Hlus", "Andrey", "Alexandrovich", time.Date(1975, 8, 27, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.AddPerson(ctx, p, types.NewPhone("+7-902-204-80-09")))
	require.NoError(t, s.Close())

	s, err = Open(ctx, cfg)
	require.NoError(t, err)
	all, err := s.GetAllPersons(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, p.BirthDate, all[0].BirthDate)
	require.NoError(t, s.Close())

	cfg.SchemaMode = types.SchemaCreate
	s, err = Open(ctx, cfg)
	require.NoError(t, err)
	defer s.Close()
	all, err = s.GetAllPersons(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestForeignKeyCascadeInSchema(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	p := types.NewPerson("Trubanov", "Ivan", "Alexandrovich", time.Date(1975, 9, 6, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.AddPerson(ctx, p, types.NewPhone("+7-906-283-62-11")))

	require.NoError(t, s.db.Exec("DELETE FROM persons WHERE id = ?", p.ID).Error)

	phones, err := s.GetPhonesByPersonID(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, phones)
}

func TestTranslate(t *testing.T) {
	assert.ErrorIs(t, translate(gorm.ErrForeignKeyViolated), types.ErrNotFound)
	assert.ErrorIs(t, translate(gorm.ErrDuplicatedKey), types.ErrInvalidData)
	assert.ErrorIs(t, translate(gorm.ErrCheckConstraintViolated), types.ErrInvalidData)

	plain := errors.New("boom")
	assert.Same(t, plain, translate(plain))
}

func TestTranslateDriverErrors(t *testing.T) {
	s := setupStore(t)

	t.Run("orphan phone is not found", func(t *testing.T) {
		err := s.db.Create(&phoneRow{Number: "+7-000", PersonID: 999}).Error
		require.Error(t, err)
		assert.ErrorIs(t, translate(err), types.ErrNotFound)
	})

	t.Run("null surname is invalid data", func(t *testing.T) {
		err := s.db.Exec(
			"INSERT INTO persons (surname, first_name, patronymic, birth_date) VALUES (NULL, ?, ?, ?)",
			"Ivan", "", time.Date(1975, 9, 6, 0, 0, 0, 0, time.UTC),
		).Error
		require.Error(t, err)
		assert.ErrorIs(t, translate(err), types.ErrInvalidData)
	})
}

func TestOpenFailureClosesConnection(t *testing.T) {
	_, err := Open(context.Background(), types.Config{
		Backend: types.BackendGorm,
		Dialect: types.DialectSQLite,
		DSN:     t.TempDir(),
	})
	assert.Error(t, err, "a directory is not a database file")

	conn, err := sqlite.OpenDB(filepath.Join(t.TempDir(), "phonebook.db"))
	require.NoError(t, err)
	closeConn(conn)
	assert.ErrorContains(t, conn.Ping(), "database is closed")

	closeConn(nil)
}
