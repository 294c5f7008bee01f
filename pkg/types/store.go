package types

import (
	"context"
	"errors"
)

// Store is the persistence context for persons and their phones. Each call
// runs in its own connection scope; write calls run in exactly one
// transaction. Implementations are safe for concurrent use.
type Store interface {
	// AddPerson attaches phones to person and persists both in one
	// transaction. On success person.ID and every phone's ID and PersonID
	// are set. Returns ErrAlreadyPersisted if person.ID is already set.
	AddPerson(ctx context.Context, person *Person, phones ...*Phone) error

	// GetAllPersons returns every person ordered by ID, with phones loaded.
	GetAllPersons(ctx context.Context) ([]*Person, error)

	// GetPersonByID returns the person with the given ID.
	// Returns ErrNotFound if no such person exists.
	GetPersonByID(ctx context.Context, id int64) (*Person, error)

	// GetPhonesByPersonID reads the phones table directly and returns every
	// phone whose owner reference is personID, ordered by ID. An unknown
	// person yields an empty result, not an error.
	GetPhonesByPersonID(ctx context.Context, personID int64) ([]*Phone, error)

	// UpdatePerson writes person's fields and phones over the stored row
	// and returns a freshly loaded copy. The argument is not modified.
	// A transient person is a no-op returning nil, nil.
	UpdatePerson(ctx context.Context, person *Person) (*Person, error)

	// DeletePerson removes person and all of its phones.
	// A transient person is a no-op.
	DeletePerson(ctx context.Context, person *Person) error

	// Close releases the store's resources. Idempotent. After Close every
	// other method returns ErrStoreClosed.
	Close() error
}

// Store lifecycle errors.
var (
	ErrStoreClosed = errors.New("store is closed")
)

// Store operation errors.
var (
	ErrNotFound         = errors.New("person not found")
	ErrInvalidData      = errors.New("invalid entity data")
	ErrAlreadyPersisted = errors.New("person is already persisted")
	ErrInvalidName      = errors.New("invalid name")
	ErrInvalidNumber    = errors.New("invalid phone number")
)
