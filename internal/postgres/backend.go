// Package postgres implements the phonebook Store on a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mesh-intelligence/phonebook/pkg/types"
)

var _ types.Store = (*Backend)(nil)

// Backend implements types.Store on PostgreSQL.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	pool     *pgxpool.Pool
}

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Open connects to cfg.DSN and applies the schema per cfg.SchemaMode.
func Open(ctx context.Context, cfg types.Config) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pool, err := NewPool(ctx, cfg.DSN, PoolOptions{MaxConns: cfg.MaxConns})
	if err != nil {
		return nil, err
	}
	if err := applySchema(ctx, pool, cfg.GetSchemaMode()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Backend{attached: true, pool: pool}, nil
}

// Close releases the pool. Idempotent.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.attached = false
	b.pool.Close()
	return nil
}

func applySchema(ctx context.Context, pool *pgxpool.Pool, mode string) error {
	if mode == types.SchemaNone {
		return nil
	}
	var stmts []string
	if mode == types.SchemaCreate {
		stmts = append(stmts, dropDDL...)
	}
	stmts = append(stmts, schemaDDL...)
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// AddPerson inserts person and its phones in one transaction. person is
// only modified once the transaction has committed.
func (b *Backend) AddPerson(ctx context.Context, person *types.Person, phones ...*types.Phone) error {
	if person == nil {
		return types.ErrInvalidData
	}
	if !person.IsTransient() {
		return fmt.Errorf("%w: id %d", types.ErrAlreadyPersisted, person.ID)
	}
	candidate := person.WithPhones(phones...)
	if err := candidate.Validate(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrStoreClosed
	}

	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var personID int64
	err = tx.QueryRow(ctx,
		"INSERT INTO persons (surname, first_name, patronymic, birth_date) VALUES ($1, $2, $3, $4) RETURNING id",
		candidate.Surname, candidate.FirstName, candidate.Patronymic, candidate.BirthDate,
	).Scan(&personID)
	if err != nil {
		return classify("insert person", err)
	}

	phoneIDs := make([]int64, len(candidate.Phones))
	for i, ph := range candidate.Phones {
		id, err := insertPhone(ctx, tx, personID, ph.Number)
		if err != nil {
			return err
		}
		phoneIDs[i] = id
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	person.ID = personID
	person.Phones = candidate.Phones
	for i, ph := range person.Phones {
		ph.ID = phoneIDs[i]
		ph.PersonID = personID
	}
	return nil
}

// GetAllPersons returns every person ordered by ID with phones loaded.
func (b *Backend) GetAllPersons(ctx context.Context) ([]*types.Person, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrStoreClosed
	}

	rows, err := b.pool.Query(ctx,
		"SELECT id, surname, first_name, patronymic, birth_date FROM persons ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query persons: %w", err)
	}
	persons, err := pgx.CollectRows(rows, scanPerson)
	if err != nil {
		return nil, fmt.Errorf("collect persons: %w", err)
	}

	rows, err = b.pool.Query(ctx, "SELECT id, number, person_id FROM phones ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query phones: %w", err)
	}
	phones, err := pgx.CollectRows(rows, scanPhone)
	if err != nil {
		return nil, fmt.Errorf("collect phones: %w", err)
	}

	byID := make(map[int64]*types.Person, len(persons))
	for _, p := range persons {
		byID[p.ID] = p
	}
	for _, ph := range phones {
		if p, ok := byID[ph.PersonID]; ok {
			p.Phones = append(p.Phones, ph)
		}
	}
	return persons, nil
}

// GetPersonByID returns the person with the given ID or ErrNotFound.
func (b *Backend) GetPersonByID(ctx context.Context, id int64) (*types.Person, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrStoreClosed
	}
	return loadPerson(ctx, b.pool, id, false)
}

// GetPhonesByPersonID returns the phones referencing personID.
func (b *Backend) GetPhonesByPersonID(ctx context.Context, personID int64) ([]*types.Phone, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrStoreClosed
	}
	return loadPhones(ctx, b.pool, personID)
}

// UpdatePerson locks the stored row, writes person's fields, reconciles
// phones, and returns the reloaded person in one transaction.
func (b *Backend) UpdatePerson(ctx context.Context, person *types.Person) (*types.Person, error) {
	if person == nil || person.IsTransient() {
		return nil, nil
	}
	if err := person.Validate(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return nil, types.ErrStoreClosed
	}

	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	current, err := loadPerson(ctx, tx, person.ID, true)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		"UPDATE persons SET surname = $1, first_name = $2, patronymic = $3, birth_date = $4 WHERE id = $5",
		person.Surname, person.FirstName, person.Patronymic, person.BirthDate, person.ID,
	)
	if err != nil {
		return nil, classify("update person", err)
	}

	stored := make(map[int64]string, len(current.Phones))
	for _, ph := range current.Phones {
		stored[ph.ID] = ph.Number
	}
	changes := types.PlanPhoneChanges(stored, person.Phones)

	for _, id := range changes.Delete {
		if _, err := tx.Exec(ctx, "DELETE FROM phones WHERE id = $1 AND person_id = $2", id, person.ID); err != nil {
			return nil, classify("delete phone", err)
		}
	}
	for _, ph := range changes.Update {
		if _, err := tx.Exec(ctx, "UPDATE phones SET number = $1 WHERE id = $2 AND person_id = $3", ph.Number, ph.ID, person.ID); err != nil {
			return nil, classify("update phone", err)
		}
	}
	for _, ph := range changes.Insert {
		if _, err := insertPhone(ctx, tx, person.ID, ph.Number); err != nil {
			return nil, err
		}
	}

	merged, err := loadPerson(ctx, tx, person.ID, false)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return merged, nil
}

// DeletePerson removes the person's phones and then the person.
func (b *Backend) DeletePerson(ctx context.Context, person *types.Person) error {
	if person == nil || person.IsTransient() {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrStoreClosed
	}

	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM phones WHERE person_id = $1", person.ID); err != nil {
		return classify("delete phones", err)
	}
	tag, err := tx.Exec(ctx, "DELETE FROM persons WHERE id = $1", person.ID)
	if err != nil {
		return classify("delete person", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", types.ErrNotFound, person.ID)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func insertPhone(ctx context.Context, tx pgx.Tx, personID int64, number string) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx,
		"INSERT INTO phones (number, person_id) VALUES ($1, $2) RETURNING id", number, personID,
	).Scan(&id)
	if err != nil {
		return 0, classify("insert phone", err)
	}
	return id, nil
}

func loadPerson(ctx context.Context, q querier, id int64, forUpdate bool) (*types.Person, error) {
	query := "SELECT id, surname, first_name, patronymic, birth_date FROM persons WHERE id = $1"
	if forUpdate {
		query += " FOR UPDATE"
	}
	rows, err := q.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("query person: %w", err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanPerson)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", types.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("collect person: %w", err)
	}

	p.Phones, err = loadPhones(ctx, q, id)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func loadPhones(ctx context.Context, q querier, personID int64) ([]*types.Phone, error) {
	rows, err := q.Query(ctx, "SELECT id, number, person_id FROM phones WHERE person_id = $1 ORDER BY id", personID)
	if err != nil {
		return nil, fmt.Errorf("query phones: %w", err)
	}
	phones, err := pgx.CollectRows(rows, scanPhone)
	if err != nil {
		return nil, fmt.Errorf("collect phones: %w", err)
	}
	if phones == nil {
		phones = []*types.Phone{}
	}
	return phones, nil
}

func scanPerson(row pgx.CollectableRow) (*types.Person, error) {
	var p types.Person
	if err := row.Scan(&p.ID, &p.Surname, &p.FirstName, &p.Patronymic, &p.BirthDate); err != nil {
		return nil, err
	}
	p.BirthDate = types.Date(p.BirthDate)
	p.Phones = []*types.Phone{}
	return &p, nil
}

func scanPhone(row pgx.CollectableRow) (*types.Phone, error) {
	var ph types.Phone
	if err := row.Scan(&ph.ID, &ph.Number, &ph.PersonID); err != nil {
		return nil, err
	}
	return &ph, nil
}
