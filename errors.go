package migrator

import (
	"errors"
	"fmt"
)

var (
	// ErrMigrationFailed marks an upgrade that failed after mutating the
	// database. The batch transaction was rolled back before it surfaced.
	ErrMigrationFailed = errors.New("migration execution failed")

	// ErrRollbackFailed marks a downgrade failure during an explicit
	// Rollback call.
	ErrRollbackFailed = errors.New("rollback execution failed")

	// ErrNoSettingsTable is returned by SetVersion when no candidate
	// settings table exists to persist the version marker into.
	ErrNoSettingsTable = errors.New("no settings table found")
)

// MigrationError carries the failing migration's identity alongside the
// underlying cause. errors.Is matches ErrMigrationFailed or
// ErrRollbackFailed depending on the failed operation.
type MigrationError struct {
	FromVersion SchemaVersion
	ToVersion   SchemaVersion
	Description string
	Op          string
	Err         error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("%s %s -> %s (%s): %v", e.Op, e.FromVersion, e.ToVersion, e.Description, e.Err)
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}

func newMigrationError(m Migration, op string, sentinel, cause error) *MigrationError {
	return &MigrationError{
		FromVersion: m.FromVersion(),
		ToVersion:   m.ToVersion(),
		Description: m.Description(),
		Op:          op,
		Err:         fmt.Errorf("%w: %w", sentinel, cause),
	}
}
