// Package contracttest holds the behavioural suite every types.Store
// implementation must pass. Backend packages call RunStore from their own
// tests with a constructor that returns an empty, open store.
package contracttest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/phonebook/pkg/types"
)

// NewStoreFunc returns an open store with empty tables. The suite closes the
// store at the end of each subtest.
type NewStoreFunc func(t *testing.T) types.Store

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func hlus() *types.Person {
	return types.NewPerson("Hlus", "Andrey", "Alexandrovich", date(1975, 8, 27))
}

func trubanov() *types.Person {
	return types.NewPerson("Trubanov", "Ivan", "Alexandrovich", date(1975, 9, 6))
}

// RunStore runs the full contract against stores built by newStore.
func RunStore(t *testing.T, newStore NewStoreFunc) {
	t.Helper()

	open := func(t *testing.T) types.Store {
		t.Helper()
		s := newStore(t)
		t.Cleanup(func() { _ = s.Close() })
		return s
	}

	t.Run("AddPerson assigns identities and back-references", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		p := hlus()
		require.NoError(t, s.AddPerson(ctx, p, types.NewPhone("+7-902-204-80-09"), types.NewPhone("+7-953-445-28-05")))

		assert.NotZero(t, p.ID)
		require.Len(t, p.Phones, 2)
		for _, ph := range p.Phones {
			assert.NotZero(t, ph.ID)
			assert.Equal(t, p.ID, ph.PersonID)
		}
		assert.NotEqual(t, p.Phones[0].ID, p.Phones[1].ID)
	})

	t.Run("AddPerson rejects invalid input without writing", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		assert.ErrorIs(t, s.AddPerson(ctx, nil), types.ErrInvalidData)

		noName := types.NewPerson("", "Andrey", "", date(1975, 8, 27))
		assert.ErrorIs(t, s.AddPerson(ctx, noName), types.ErrInvalidName)

		badPhone := hlus()
		err := s.AddPerson(ctx, badPhone, types.NewPhone("+7-902-204-80-09"), types.NewPhone(" "))
		assert.ErrorIs(t, err, types.ErrInvalidNumber)
		assert.True(t, badPhone.IsTransient())
		assert.Empty(t, badPhone.Phones)

		all, err := s.GetAllPersons(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("AddPerson rejects an already persisted person", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		p := hlus()
		require.NoError(t, s.AddPerson(ctx, p))
		assert.ErrorIs(t, s.AddPerson(ctx, p), types.ErrAlreadyPersisted)

		all, err := s.GetAllPersons(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("GetPersonByID round-trips business fields and phones", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		p := hlus()
		require.NoError(t, s.AddPerson(ctx, p, types.NewPhone("+7-902-204-80-09"), types.NewPhone("+7-953-445-28-05")))

		got, err := s.GetPersonByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)
		assert.Equal(t, p.Surname, got.Surname)
		assert.Equal(t, p.FirstName, got.FirstName)
		assert.Equal(t, p.Patronymic, got.Patronymic)
		assert.True(t, p.BirthDate.Equal(got.BirthDate), "birth date %v != %v", got.BirthDate, p.BirthDate)
		require.Len(t, got.Phones, 2)
		assert.ElementsMatch(t, p.Numbers(), got.Numbers())
		for _, ph := range got.Phones {
			assert.Equal(t, got.ID, ph.PersonID)
		}
	})

	t.Run("GetPersonByID reports ErrNotFound for unknown id", func(t *testing.T) {
		s := open(t)

		got, err := s.GetPersonByID(context.Background(), 424242)
		assert.ErrorIs(t, err, types.ErrNotFound)
		assert.Nil(t, got)
	})

	t.Run("GetAllPersons lists every person in id order", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		all, err := s.GetAllPersons(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)

		a, b := hlus(), trubanov()
		require.NoError(t, s.AddPerson(ctx, a, types.NewPhone("+7-902-204-80-09"), types.NewPhone("+7-953-445-28-05")))
		require.NoError(t, s.AddPerson(ctx, b, types.NewPhone("+7-906-283-62-11")))

		all, err = s.GetAllPersons(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, a.ID, all[0].ID)
		assert.Equal(t, b.ID, all[1].ID)
		assert.Len(t, all[0].Phones, 2)
		assert.Len(t, all[1].Phones, 1)
	})

	t.Run("UpdatePerson on a transient person is a no-op", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		p := hlus()
		p.AddPhone(types.NewPhone("+7-902-204-80-09"))
		got, err := s.UpdatePerson(ctx, p)
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = s.UpdatePerson(ctx, nil)
		require.NoError(t, err)
		assert.Nil(t, got)

		all, err := s.GetAllPersons(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("UpdatePerson adds a phone and returns the merged person", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		p := hlus()
		require.NoError(t, s.AddPerson(ctx, p, types.NewPhone("+7-902-204-80-09"), types.NewPhone("+7-953-445-28-05")))

		loaded, err := s.GetPersonByID(ctx, p.ID)
		require.NoError(t, err)
		added := types.NewPhone("8-927-273-23-12")
		loaded.AddPhone(added)

		merged, err := s.UpdatePerson(ctx, loaded)
		require.NoError(t, err)
		require.NotNil(t, merged)
		assert.Len(t, merged.Phones, 3)
		assert.Contains(t, merged.Numbers(), "8-927-273-23-12")
		for _, ph := range merged.Phones {
			assert.NotZero(t, ph.ID)
			assert.Equal(t, p.ID, ph.PersonID)
		}
		assert.Zero(t, added.ID, "argument must not be mutated")

		reloaded, err := s.GetPersonByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Len(t, reloaded.Phones, 3)
	})

	t.Run("UpdatePerson writes fields and removes dropped phones", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		p := trubanov()
		require.NoError(t, s.AddPerson(ctx, p, types.NewPhone("+7-906-283-62-11"), types.NewPhone("+7-906-000-00-00")))

		edit, err := s.GetPersonByID(ctx, p.ID)
		require.NoError(t, err)
		edit.FirstName = "Ivan-Updated"
		edit.Patronymic = ""
		edit.BirthDate = date(1976, 1, 2)
		edit.Phones = []*types.Phone{edit.Phones[0]}
		edit.Phones[0].Number = "+7-906-111-11-11"

		merged, err := s.UpdatePerson(ctx, edit)
		require.NoError(t, err)
		assert.Equal(t, "Ivan-Updated", merged.FirstName)
		assert.Equal(t, "", merged.Patronymic)
		assert.True(t, date(1976, 1, 2).Equal(merged.BirthDate))
		require.Len(t, merged.Phones, 1)
		assert.Equal(t, "+7-906-111-11-11", merged.Phones[0].Number)
		assert.Equal(t, edit.Phones[0].ID, merged.Phones[0].ID)

		phones, err := s.GetPhonesByPersonID(ctx, p.ID)
		require.NoError(t, err)
		assert.Len(t, phones, 1)
	})

	t.Run("UpdatePerson on a deleted person reports ErrNotFound", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		p := hlus()
		require.NoError(t, s.AddPerson(ctx, p))
		require.NoError(t, s.DeletePerson(ctx, p))

		got, err := s.UpdatePerson(ctx, p)
		assert.ErrorIs(t, err, types.ErrNotFound)
		assert.Nil(t, got)

		all, err := s.GetAllPersons(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("DeletePerson on a transient person is a no-op", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		kept := trubanov()
		require.NoError(t, s.AddPerson(ctx, kept, types.NewPhone("+7-906-283-62-11")))

		assert.NoError(t, s.DeletePerson(ctx, hlus()))
		assert.NoError(t, s.DeletePerson(ctx, nil))

		all, err := s.GetAllPersons(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Len(t, all[0].Phones, 1)
	})

	t.Run("DeletePerson cascades to phones", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		p, other := hlus(), trubanov()
		require.NoError(t, s.AddPerson(ctx, p, types.NewPhone("+7-902-204-80-09"), types.NewPhone("+7-953-445-28-05")))
		require.NoError(t, s.AddPerson(ctx, other, types.NewPhone("+7-906-283-62-11")))

		require.NoError(t, s.DeletePerson(ctx, p))

		_, err := s.GetPersonByID(ctx, p.ID)
		assert.ErrorIs(t, err, types.ErrNotFound)

		phones, err := s.GetPhonesByPersonID(ctx, p.ID)
		require.NoError(t, err)
		assert.Empty(t, phones)

		phones, err = s.GetPhonesByPersonID(ctx, other.ID)
		require.NoError(t, err)
		assert.Len(t, phones, 1)

		assert.ErrorIs(t, s.DeletePerson(ctx, p), types.ErrNotFound)
	})

	t.Run("closed store rejects operations", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		require.NoError(t, s.Close())
		require.NoError(t, s.Close(), "Close must be idempotent")

		_, err := s.GetAllPersons(ctx)
		assert.ErrorIs(t, err, types.ErrStoreClosed)
		_, err = s.GetPersonByID(ctx, 1)
		assert.ErrorIs(t, err, types.ErrStoreClosed)
		_, err = s.GetPhonesByPersonID(ctx, 1)
		assert.ErrorIs(t, err, types.ErrStoreClosed)
		assert.ErrorIs(t, s.AddPerson(ctx, hlus()), types.ErrStoreClosed)
		_, err = s.UpdatePerson(ctx, &types.Person{ID: 1, Surname: "a", FirstName: "b"})
		assert.ErrorIs(t, err, types.ErrStoreClosed)
		assert.ErrorIs(t, s.DeletePerson(ctx, &types.Person{ID: 1}), types.ErrStoreClosed)
	})

	t.Run("AddPerson retried after a closed store stores each phone once", func(t *testing.T) {
		ctx := context.Background()
		p := trubanov()
		phones := []*types.Phone{
			types.NewPhone("+7-906-283-62-11"),
			types.NewPhone("+7-953-445-28-05"),
		}

		closed := open(t)
		require.NoError(t, closed.Close())
		assert.ErrorIs(t, closed.AddPerson(ctx, p, phones...), types.ErrStoreClosed)
		assert.True(t, p.IsTransient())
		assert.Empty(t, p.Phones)
		for _, ph := range phones {
			assert.Zero(t, ph.ID)
		}

		s := open(t)
		require.NoError(t, s.AddPerson(ctx, p, phones...))
		require.Len(t, p.Phones, 2)

		stored, err := s.GetPhonesByPersonID(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, stored, 2)
		assert.Equal(t, "+7-906-283-62-11", stored[0].Number)
		assert.Equal(t, "+7-953-445-28-05", stored[1].Number)
	})

	t.Run("seed, update, delete scenario", func(t *testing.T) {
		s := open(t)
		RunScenario(t, s)
	})
}

// RunScenario drives the seed / list / update / delete sequence against s
// and checks the person and phone counts after every step.
func RunScenario(t *testing.T, s types.Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.AddPerson(ctx, hlus(), types.NewPhone("+7-902-204-80-09"), types.NewPhone("+7-953-445-28-05")))
	require.NoError(t, s.AddPerson(ctx, trubanov(), types.NewPhone("+7-906-283-62-11")))

	all, err := s.GetAllPersons(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	first, err := s.GetPersonByID(ctx, all[0].ID)
	require.NoError(t, err)
	first.AddPhone(types.NewPhone("8-927-273-23-12"))
	first, err = s.UpdatePerson(ctx, first)
	require.NoError(t, err)
	require.NotNil(t, first)

	reloaded, err := s.GetPersonByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Len(t, reloaded.Phones, 3)

	require.NoError(t, s.DeletePerson(ctx, first))
	all, err = s.GetAllPersons(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Trubanov", all[0].Surname)

	phones, err := s.GetPhonesByPersonID(ctx, first.ID)
	require.NoError(t, err)
	assert.Empty(t, phones)

	for _, p := range all {
		require.NoError(t, s.DeletePerson(ctx, p))
	}
	all, err = s.GetAllPersons(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
