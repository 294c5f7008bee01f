// Package gormstore implements the phonebook Store with gorm.io/gorm over
// either the sqlite or the postgres dialect.
package gormstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	gormpostgres "gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/mesh-intelligence/phonebook/internal/sqlite"
	"github.com/mesh-intelligence/phonebook/pkg/types"
)

var _ types.Store = (*Store)(nil)

// Store implements types.Store on a *gorm.DB.
type Store struct {
	mu       sync.RWMutex
	attached bool
	dialect  string
	db       *gorm.DB
}

// Open builds the gorm session factory for cfg.Dialect and migrates the
// schema per cfg.SchemaMode. The sqlite dialect runs on the modernc driver
// through sqlite.OpenDB, so no CGO is involved.
func Open(ctx context.Context, cfg types.Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dialector, conn, err := newDialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		closeConn(conn)
		return nil, fmt.Errorf("open gorm %s: %w", cfg.Dialect, err)
	}

	s := &Store{attached: true, dialect: cfg.Dialect, db: db}

	sqlDB, err := db.DB()
	if err != nil {
		closeConn(conn)
		return nil, fmt.Errorf("gorm connection pool: %w", err)
	}
	if cfg.MaxConns > 0 && cfg.Dialect == types.DialectPostgres {
		sqlDB.SetMaxOpenConns(int(cfg.MaxConns))
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Dialect, err)
	}

	if err := s.migrate(ctx, cfg.GetSchemaMode()); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return s, nil
}

// newDialector returns the dialector for cfg.Dialect. For sqlite it also
// returns the connection it opened, which the caller owns until gorm has
// taken it over.
func newDialector(cfg types.Config) (gorm.Dialector, *sql.DB, error) {
	switch cfg.Dialect {
	case types.DialectSQLite:
		conn, err := sqlite.OpenDB(cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return &gormsqlite.Dialector{DriverName: sqlite.DriverName, DSN: cfg.DSN, Conn: conn}, conn, nil
	case types.DialectPostgres:
		return gormpostgres.Open(cfg.DSN), nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", types.ErrDialectUnknown, cfg.Dialect)
	}
}

func closeConn(conn *sql.DB) {
	if conn != nil {
		conn.Close()
	}
}

func (s *Store) migrate(ctx context.Context, mode string) error {
	db := s.db.WithContext(ctx)
	switch mode {
	case types.SchemaNone:
		return nil
	case types.SchemaCreate:
		if err := db.Migrator().DropTable(&phoneRow{}, &personRow{}); err != nil {
			return err
		}
	}
	return db.AutoMigrate(&personRow{}, &phoneRow{})
}

// Close closes the underlying connection pool. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil
	}
	s.attached = false
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close gorm: %w", err)
	}
	return nil
}

// AddPerson creates the person row and then each phone row in one
// transaction. Associations are written explicitly, not by gorm's
// association autosave. person is left untouched unless the commit succeeds.
func (s *Store) AddPerson(ctx context.Context, person *types.Person, phones ...*types.Phone) error {
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

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return types.ErrStoreClosed
	}

	row := fromPerson(candidate)
	phoneRows := make([]phoneRow, len(candidate.Phones))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return fmt.Errorf("insert person: %w", translate(err))
		}
		for i, ph := range candidate.Phones {
			phoneRows[i] = phoneRow{Number: ph.Number, PersonID: row.ID}
			if err := tx.Create(&phoneRows[i]).Error; err != nil {
				return fmt.Errorf("insert phone: %w", translate(err))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	person.ID = row.ID
	person.Phones = candidate.Phones
	for i, ph := range person.Phones {
		ph.ID = phoneRows[i].ID
		ph.PersonID = row.ID
	}
	return nil
}

// GetAllPersons returns every person ordered by ID with phones preloaded.
func (s *Store) GetAllPersons(ctx context.Context) ([]*types.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return nil, types.ErrStoreClosed
	}

	var rows []personRow
	err := s.db.WithContext(ctx).
		Preload("Phones", orderByID).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query persons: %w", translate(err))
	}

	persons := make([]*types.Person, 0, len(rows))
	for _, r := range rows {
		persons = append(persons, r.toPerson())
	}
	return persons, nil
}

// GetPersonByID returns the person with the given ID or ErrNotFound.
func (s *Store) GetPersonByID(ctx context.Context, id int64) (*types.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return nil, types.ErrStoreClosed
	}
	return loadPerson(s.db.WithContext(ctx), id)
}

// GetPhonesByPersonID returns the phones referencing personID.
func (s *Store) GetPhonesByPersonID(ctx context.Context, personID int64) ([]*types.Phone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return nil, types.ErrStoreClosed
	}

	var rows []phoneRow
	err := s.db.WithContext(ctx).Where("person_id = ?", personID).Order("id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query phones: %w", translate(err))
	}
	phones := make([]*types.Phone, 0, len(rows))
	for _, r := range rows {
		phones = append(phones, r.toPhone())
	}
	return phones, nil
}

// UpdatePerson loads the stored row, writes person's fields, reconciles
// phones, and returns the reloaded person in one transaction.
func (s *Store) UpdatePerson(ctx context.Context, person *types.Person) (*types.Person, error) {
	if person == nil || person.IsTransient() {
		return nil, nil
	}
	if err := person.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return nil, types.ErrStoreClosed
	}

	var merged *types.Person
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lookup := tx
		if s.dialect == types.DialectPostgres {
			lookup = tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
		}
		current, err := loadPerson(lookup, person.ID)
		if err != nil {
			return err
		}

		row := fromPerson(person)
		err = tx.Model(&personRow{}).Where("id = ?", person.ID).Updates(map[string]any{
			"surname":    row.Surname,
			"first_name": row.FirstName,
			"patronymic": row.Patronymic,
			"birth_date": row.BirthDate,
		}).Error
		if err != nil {
			return fmt.Errorf("update person: %w", translate(err))
		}

		stored := make(map[int64]string, len(current.Phones))
		for _, ph := range current.Phones {
			stored[ph.ID] = ph.Number
		}
		changes := types.PlanPhoneChanges(stored, person.Phones)

		for _, id := range changes.Delete {
			if err := tx.Where("id = ? AND person_id = ?", id, person.ID).Delete(&phoneRow{}).Error; err != nil {
				return fmt.Errorf("delete phone: %w", translate(err))
			}
		}
		for _, ph := range changes.Update {
			err := tx.Model(&phoneRow{}).
				Where("id = ? AND person_id = ?", ph.ID, person.ID).
				Update("number", ph.Number).Error
			if err != nil {
				return fmt.Errorf("update phone: %w", translate(err))
			}
		}
		for _, ph := range changes.Insert {
			if err := tx.Create(&phoneRow{Number: ph.Number, PersonID: person.ID}).Error; err != nil {
				return fmt.Errorf("insert phone: %w", translate(err))
			}
		}

		merged, err = loadPerson(tx, person.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// DeletePerson removes the person's phones and then the person.
func (s *Store) DeletePerson(ctx context.Context, person *types.Person) error {
	if person == nil || person.IsTransient() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return types.ErrStoreClosed
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("person_id = ?", person.ID).Delete(&phoneRow{}).Error; err != nil {
			return fmt.Errorf("delete phones: %w", translate(err))
		}
		res := tx.Delete(&personRow{}, person.ID)
		if res.Error != nil {
			return fmt.Errorf("delete person: %w", translate(res.Error))
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: id %d", types.ErrNotFound, person.ID)
		}
		return nil
	})
}

func loadPerson(db *gorm.DB, id int64) (*types.Person, error) {
	var row personRow
	err := db.Preload("Phones", orderByID).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: id %d", types.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query person: %w", translate(err))
	}
	return row.toPerson(), nil
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

// translate maps gorm's dialect-neutral errors to phonebook sentinels. The
// gorm sqlite driver only recognizes mattn errors, so modernc constraint
// failures are translated by the sqlite package instead.
func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %w", types.ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrCheckConstraintViolated):
		return fmt.Errorf("%w: %w", types.ErrInvalidData, err)
	default:
		return sqlite.TranslateError(err)
	}
}
