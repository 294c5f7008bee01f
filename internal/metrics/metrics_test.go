package metrics

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/phonebook/internal/contracttest"
	"github.com/mesh-intelligence/phonebook/internal/sqlite"
	"github.com/mesh-intelligence/phonebook/pkg/types"
)

func setupStore(t *testing.T) (*Store, *prometheus.Registry) {
	t.Helper()
	inner, err := sqlite.Open(context.Background(), types.Config{
		Backend: types.BackendSQLite,
		DSN:     filepath.Join(t.TempDir(), "phonebook.db"),
	})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	s, err := Instrument(inner, reg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, reg
}

func TestInstrumentedStoreContract(t *testing.T) {
	contracttest.RunStore(t, func(t *testing.T) types.Store {
		s, _ := setupStore(t)
		return s
	})
}

func TestOutcomes(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	p := types.NewPerson("Hlus", "Andrey", "Alexandrovich", time.Date(1975, 8, 27, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.AddPerson(ctx, p, types.NewPhone("+7-902-204-80-09")))

	_, err := s.GetPersonByID(ctx, p.ID+100)
	require.ErrorIs(t, err, types.ErrNotFound)

	require.Error(t, s.AddPerson(ctx, types.NewPerson("", "", "", time.Time{})))

	got, err := s.UpdatePerson(ctx, types.NewPerson("New", "Person", "", time.Time{}))
	require.NoError(t, err)
	assert.Nil(t, got)
	require.NoError(t, s.DeletePerson(ctx, types.NewPerson("New", "Person", "", time.Time{})))

	require.NoError(t, s.DeletePerson(ctx, p))

	tests := []struct {
		op      string
		outcome string
		want    float64
	}{
		{"add_person", OutcomeOK, 1},
		{"add_person", OutcomeError, 1},
		{"get_person_by_id", OutcomeNotFound, 1},
		{"update_person", OutcomeNoop, 1},
		{"delete_person", OutcomeNoop, 1},
		{"delete_person", OutcomeOK, 1},
	}
	for _, tt := range tests {
		t.Run(tt.op+"/"+tt.outcome, func(t *testing.T) {
			got := testutil.ToFloat64(s.operations.WithLabelValues(tt.op, tt.outcome))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInstrumentTwiceOnSameRegistryFails(t *testing.T) {
	s, reg := setupStore(t)
	_, err := Instrument(s, reg)
	assert.ErrorContains(t, err, "register store metrics")
}

func TestWriteTextfile(t *testing.T) {
	s, reg := setupStore(t)
	_, err := s.GetAllPersons(context.Background())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "phonebook.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `phonebook_store_operations_total{operation="get_all_persons",outcome="ok"} 1`)
	assert.Contains(t, text, "phonebook_store_operation_duration_seconds_bucket")

	assert.Error(t, WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"), reg))
}
