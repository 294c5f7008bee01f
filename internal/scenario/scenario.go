// Package scenario runs the fixed phonebook demonstration against a Store:
// seed two people, list them, give the first one another phone, delete
// that person, then delete everyone else.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/phonebook/pkg/types"
)

// ExtraPhone is the number the update step adds to the first person.
const ExtraPhone = "8-927-273-23-12"

// Seed returns the demonstration people with their phones attached but not
// yet persisted.
func Seed() []*types.Person {
	hlus := types.NewPerson("Hlus", "Andrey", "Alexandrovich", time.Date(1975, 8, 27, 0, 0, 0, 0, time.UTC))
	hlus.AddPhone(types.NewPhone("+7-902-204-80-09"))
	hlus.AddPhone(types.NewPhone("+7-953-445-28-05"))

	trubanov := types.NewPerson("Trubanov", "Ivan", "Alexandrovich", time.Date(1975, 9, 6, 0, 0, 0, 0, time.UTC))
	trubanov.AddPhone(types.NewPhone("+7-906-283-62-11"))

	return []*types.Person{hlus, trubanov}
}

// Run executes the demonstration, printing the database after each step
// to out. It stops at the first error.
func Run(ctx context.Context, store types.Store, out io.Writer) error {
	runID, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate run id: %w", err)
	}
	log := slog.Default().With("run_id", runID.String())
	log.Info("scenario started")

	for _, p := range Seed() {
		if err := store.AddPerson(ctx, p); err != nil {
			return fmt.Errorf("seed %s: %w", p.FullName(), err)
		}
		log.Debug("person added", "id", p.ID, "phones", len(p.Phones))
	}
	if err := Show(ctx, store, out); err != nil {
		return err
	}

	fmt.Fprintln(out, "Update person...")
	persons, err := store.GetAllPersons(ctx)
	if err != nil {
		return fmt.Errorf("list persons: %w", err)
	}
	if len(persons) == 0 {
		return fmt.Errorf("update step: %w: store is empty", types.ErrNotFound)
	}
	person, err := store.GetPersonByID(ctx, persons[0].ID)
	if err != nil {
		return fmt.Errorf("reload person: %w", err)
	}
	person.AddPhone(types.NewPhone(ExtraPhone))
	person, err = store.UpdatePerson(ctx, person)
	if err != nil {
		return fmt.Errorf("update person: %w", err)
	}
	if person == nil {
		return errors.New("update person: store returned no person")
	}
	log.Info("person updated", "id", person.ID, "phones", len(person.Phones))
	if err := Show(ctx, store, out); err != nil {
		return err
	}

	fmt.Fprintln(out, "Delete person...")
	if err := store.DeletePerson(ctx, person); err != nil {
		return fmt.Errorf("delete person: %w", err)
	}
	log.Info("person deleted", "id", person.ID)
	if err := Show(ctx, store, out); err != nil {
		return err
	}

	n, err := Purge(ctx, store)
	if err != nil {
		return err
	}
	log.Info("scenario finished", "purged", n)
	return nil
}

// Show prints "Database:", one line per person, and a blank line.
func Show(ctx context.Context, store types.Store, out io.Writer) error {
	persons, err := store.GetAllPersons(ctx)
	if err != nil {
		return fmt.Errorf("list persons: %w", err)
	}
	fmt.Fprintln(out, "Database:")
	for _, p := range persons {
		fmt.Fprintln(out, p)
	}
	fmt.Fprintln(out)
	return nil
}

// Purge deletes every stored person and returns how many were removed.
func Purge(ctx context.Context, store types.Store) (int, error) {
	persons, err := store.GetAllPersons(ctx)
	if err != nil {
		return 0, fmt.Errorf("list persons: %w", err)
	}
	for i, p := range persons {
		if err := store.DeletePerson(ctx, p); err != nil {
			return i, fmt.Errorf("delete person %d: %w", p.ID, err)
		}
	}
	return len(persons), nil
}
