package sqlite

import (
	"errors"
	"fmt"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mesh-intelligence/phonebook/pkg/types"
)

// AsSQLiteError unwraps err to a modernc driver error.
func AsSQLiteError(err error) (*msqlite.Error, bool) {
	var se *msqlite.Error
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// TranslateError wraps a constraint failure reported by the driver with the
// matching phonebook sentinel: a foreign key failure means the referenced
// person is gone, any other constraint means the row itself is bad. Other
// errors are returned unchanged.
func TranslateError(err error) error {
	se, ok := AsSQLiteError(err)
	if !ok {
		return err
	}
	switch code := se.Code(); {
	case code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return fmt.Errorf("%w: %w", types.ErrNotFound, err)
	case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE,
		code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY,
		code == sqlite3.SQLITE_CONSTRAINT_CHECK,
		code == sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return fmt.Errorf("%w: %w", types.ErrInvalidData, err)
	case code&0xff == sqlite3.SQLITE_CONSTRAINT:
		// Primary code only when extended result codes are off.
		if strings.Contains(se.Error(), "FOREIGN KEY") {
			return fmt.Errorf("%w: %w", types.ErrNotFound, err)
		}
		return fmt.Errorf("%w: %w", types.ErrInvalidData, err)
	default:
		return err
	}
}

// classify prefixes err with op after translating constraint failures.
func classify(op string, err error) error {
	return fmt.Errorf("%s: %w", op, TranslateError(err))
}
