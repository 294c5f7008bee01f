package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/phonebook/pkg/types"
)

// queryer is satisfied by *sql.DB and *sql.Tx so reads can run inside or
// outside a transaction.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// AddPerson inserts person and its phones in one transaction. The phones are
// attached to person and IDs copied onto the entities only after commit, so a
// failed call leaves person as it was.
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

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO persons (surname, first_name, patronymic, birth_date) VALUES (?, ?, ?, ?)",
		candidate.Surname, candidate.FirstName, candidate.Patronymic, candidate.BirthDate.Format(types.DateLayout),
	)
	if err != nil {
		return classify("insert person", err)
	}
	personID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read person id: %w", err)
	}

	phoneIDs := make([]int64, len(candidate.Phones))
	for i, ph := range candidate.Phones {
		id, err := insertPhone(ctx, tx, personID, ph.Number)
		if err != nil {
			return err
		}
		phoneIDs[i] = id
	}

	if err := tx.Commit(); err != nil {
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

	rows, err := b.db.QueryContext(ctx,
		"SELECT id, surname, first_name, patronymic, birth_date FROM persons ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query persons: %w", err)
	}
	defer rows.Close()

	var persons []*types.Person
	byID := make(map[int64]*types.Person)
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		persons = append(persons, p)
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate persons: %w", err)
	}
	rows.Close()

	phoneRows, err := b.db.QueryContext(ctx, "SELECT id, number, person_id FROM phones ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query phones: %w", err)
	}
	defer phoneRows.Close()

	for phoneRows.Next() {
		var ph types.Phone
		if err := phoneRows.Scan(&ph.ID, &ph.Number, &ph.PersonID); err != nil {
			return nil, fmt.Errorf("scan phone: %w", err)
		}
		if p, ok := byID[ph.PersonID]; ok {
			p.Phones = append(p.Phones, &ph)
		}
	}
	if err := phoneRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate phones: %w", err)
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
	return loadPerson(ctx, b.db, id)
}

// GetPhonesByPersonID returns the phones referencing personID.
func (b *Backend) GetPhonesByPersonID(ctx context.Context, personID int64) ([]*types.Phone, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrStoreClosed
	}
	return loadPhones(ctx, b.db, personID)
}

// UpdatePerson loads the stored row, writes person's fields over it,
// reconciles phones, and returns the reloaded person, all in one
// transaction. Transient persons are ignored.
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

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := loadPerson(ctx, tx, person.ID)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE persons SET surname = ?, first_name = ?, patronymic = ?, birth_date = ? WHERE id = ?",
		person.Surname, person.FirstName, person.Patronymic, person.BirthDate.Format(types.DateLayout), person.ID,
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
		if _, err := tx.ExecContext(ctx, "DELETE FROM phones WHERE id = ? AND person_id = ?", id, person.ID); err != nil {
			return nil, classify("delete phone", err)
		}
	}
	for _, ph := range changes.Update {
		if _, err := tx.ExecContext(ctx, "UPDATE phones SET number = ? WHERE id = ? AND person_id = ?", ph.Number, ph.ID, person.ID); err != nil {
			return nil, classify("update phone", err)
		}
	}
	for _, ph := range changes.Insert {
		if _, err := insertPhone(ctx, tx, person.ID, ph.Number); err != nil {
			return nil, err
		}
	}

	merged, err := loadPerson(ctx, tx, person.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return merged, nil
}

// DeletePerson removes the person's phones and then the person in one
// transaction. Transient persons are ignored.
func (b *Backend) DeletePerson(ctx context.Context, person *types.Person) error {
	if person == nil || person.IsTransient() {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrStoreClosed
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM phones WHERE person_id = ?", person.ID); err != nil {
		return classify("delete phones", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM persons WHERE id = ?", person.ID)
	if err != nil {
		return classify("delete person", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", types.ErrNotFound, person.ID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func insertPhone(ctx context.Context, tx *sql.Tx, personID int64, number string) (int64, error) {
	res, err := tx.ExecContext(ctx, "INSERT INTO phones (number, person_id) VALUES (?, ?)", number, personID)
	if err != nil {
		return 0, classify("insert phone", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read phone id: %w", err)
	}
	return id, nil
}

func loadPerson(ctx context.Context, q queryer, id int64) (*types.Person, error) {
	row := q.QueryRowContext(ctx,
		"SELECT id, surname, first_name, patronymic, birth_date FROM persons WHERE id = ?", id)
	p, err := scanPerson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", types.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	p.Phones, err = loadPhones(ctx, q, id)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func loadPhones(ctx context.Context, q queryer, personID int64) ([]*types.Phone, error) {
	rows, err := q.QueryContext(ctx, "SELECT id, number, person_id FROM phones WHERE person_id = ? ORDER BY id", personID)
	if err != nil {
		return nil, fmt.Errorf("query phones: %w", err)
	}
	defer rows.Close()

	phones := []*types.Phone{}
	for rows.Next() {
		var ph types.Phone
		if err := rows.Scan(&ph.ID, &ph.Number, &ph.PersonID); err != nil {
			return nil, fmt.Errorf("scan phone: %w", err)
		}
		phones = append(phones, &ph)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate phones: %w", err)
	}
	return phones, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPerson(s scanner) (*types.Person, error) {
	var p types.Person
	var birthDate string
	if err := s.Scan(&p.ID, &p.Surname, &p.FirstName, &p.Patronymic, &birthDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan person: %w", err)
	}
	// Rows written through gorm carry a full timestamp; the date is the prefix.
	if len(birthDate) > len(types.DateLayout) {
		birthDate = birthDate[:len(types.DateLayout)]
	}
	d, err := types.ParseDate(birthDate)
	if err != nil {
		return nil, fmt.Errorf("parse person birth_date: %w", err)
	}
	p.BirthDate = d
	p.Phones = []*types.Phone{}
	return &p, nil
}
