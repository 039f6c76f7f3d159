// Package migrator tracks the schema version of a project's relational
// store and executes ordered, reversible migrations between versions.
//
// The engine decides nothing about when to migrate: callers supply a live
// *gorm.DB and a target version, and the Runner selects registered
// migrations, runs their pre-checks, applies the upgrades inside one
// transaction and moves the persisted version marker.
package migrator

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"

	"github.com/openqda/schema-migrator/internal/repository"
	"gorm.io/gorm"
)

// TargetLatest selects the highest registered ToVersion as the target of a
// Migrate or NeedsMigration call.
const TargetLatest SchemaVersion = 0

// Runner orchestrates version discovery, migration selection and
// transactional execution against a caller-supplied connection. It retains
// no connection between calls, so one Runner may serve sequential calls
// against different databases. It performs no locking of its own: the
// database's transactional locking is the only concurrency guard, and
// invoking Migrate concurrently on the same database is a caller bug.
type Runner struct {
	logger  *log.Logger
	locator SettingsLocator

	migrations []Migration
}

func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		logger:  log.New(os.Stderr, "", log.LstdFlags),
		locator: TableProbe{Candidates: DefaultSettingsTables},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register appends migrations and re-sorts the active set ascending by
// FromVersion. Insertion order is preserved for equal keys; registering two
// migrations with the same FromVersion is a caller configuration error.
func (r *Runner) Register(migrations ...Migration) {
	r.migrations = append(r.migrations, migrations...)
	sort.SliceStable(r.migrations, func(i, j int) bool {
		return r.migrations[i].FromVersion().LessThan(r.migrations[j].FromVersion())
	})
}

// Latest returns the highest ToVersion across registered migrations, or
// EarliestVersion when none are registered.
func (r *Runner) Latest() SchemaVersion {
	latest := EarliestVersion
	for _, m := range r.migrations {
		if m.ToVersion().MoreThan(latest) {
			latest = m.ToVersion()
		}
	}
	return latest
}

// CurrentVersion reads the persisted schema version marker. A database with
// no settings table, no marker row or an unparsable marker reports
// EarliestVersion: absence means the schema predates version tracking, not
// that something is wrong.
func (r *Runner) CurrentVersion(db *gorm.DB) (SchemaVersion, error) {
	table, ok := r.locator.Locate(db)
	if !ok {
		return EarliestVersion, nil
	}

	value, err := repository.GetVersion(db, table)
	if errors.Is(err, repository.ErrNotFound) {
		return EarliestVersion, nil
	}
	if err != nil {
		return EarliestVersion, err
	}

	v, err := ParseSchemaVersion(value)
	if err != nil {
		r.logger.Printf("unparsable schema version marker %q in table %s, assuming %s", value, table, EarliestVersion)
		return EarliestVersion, nil
	}
	return v, nil
}

// SetVersion writes the marker into whichever settings table currently
// exists. The table name is resolved on every call because a migration may
// have renamed the settings table since the last write. Returns
// ErrNoSettingsTable when no candidate table exists: there is nowhere to
// persist the marker, and failing silently would corrupt version tracking.
func (r *Runner) SetVersion(db *gorm.DB, v SchemaVersion) error {
	table, ok := r.locator.Locate(db)
	if !ok {
		return ErrNoSettingsTable
	}
	return repository.SaveVersion(db, table, strconv.Itoa(v.Int()))
}

// NeedsMigration reports whether the database is behind the target version.
func (r *Runner) NeedsMigration(db *gorm.DB, target SchemaVersion) (bool, error) {
	current, err := r.CurrentVersion(db)
	if err != nil {
		return false, err
	}
	return current.LessThan(r.resolveTarget(target)), nil
}

// Migrate upgrades the database to the target version, running every
// selected upgrade plus the marker write inside one transaction.
//
// Selection problems come back as failed results with no mutation: a gap in
// the registered set ("no migration path") or a failing pre-check. Every
// pre-check runs before any upgrade, so a batch either starts with all
// expectations satisfied or does not start at all.
//
// An upgrade failure comes back as an error instead: the transaction is
// rolled back (reverting the marker along with everything else),
// already-applied migrations of the batch get a best-effort reverse
// Downgrade, and the cause is returned wrapped in a *MigrationError.
func (r *Runner) Migrate(db *gorm.DB, target SchemaVersion) (MigrationResult, error) {
	target = r.resolveTarget(target)

	current, err := r.CurrentVersion(db)
	if err != nil {
		return MigrationResult{}, err
	}

	if current.MoreOrEqual(target) {
		r.logger.Printf("database already at %s (target %s), nothing to migrate", current, target)
		return MigrationResult{
			Success:     true,
			FromVersion: current,
			ToVersion:   current,
			Message:     "already at target version",
		}, nil
	}

	selected, ok := r.upgradePath(current, target)
	if !ok {
		return MigrationResult{
			FromVersion: current,
			ToVersion:   target,
			Message:     fmt.Sprintf("no migration path from %s to %s", current, target),
		}, nil
	}

	for _, m := range selected {
		if !m.PreCheck(db) {
			r.logger.Printf("pre-check failed for %s -> %s (%s)", m.FromVersion(), m.ToVersion(), m.Description())
			return MigrationResult{
				FromVersion: current,
				ToVersion:   target,
				Message:     fmt.Sprintf("pre-check failed: %s", m.Description()),
			}, nil
		}
	}

	var applied []Migration
	var failed Migration
	txErr := db.Transaction(func(tx *gorm.DB) error {
		for _, m := range selected {
			r.logger.Printf("upgrading %s -> %s: %s", m.FromVersion(), m.ToVersion(), m.Description())
			if err := m.Upgrade(tx); err != nil {
				failed = m
				return err
			}
			applied = append(applied, m)
		}
		return r.SetVersion(tx, target)
	})
	if txErr != nil {
		r.cleanupApplied(db, applied)
		if failed == nil {
			// The marker write failed after every upgrade succeeded.
			return MigrationResult{}, txErr
		}
		return MigrationResult{}, newMigrationError(failed, "upgrade", ErrMigrationFailed, txErr)
	}

	r.logger.Printf("migrated %s -> %s (%d migrations)", current, target, len(selected))
	return MigrationResult{
		Success:     true,
		FromVersion: current,
		ToVersion:   target,
		Message:     fmt.Sprintf("migrated from %s to %s", current, target),
	}, nil
}

// Rollback downgrades the database to the target version, walking
// migrations in reverse inside one transaction. Unlike the cleanup pass of
// a failed Migrate, downgrade failures here propagate as a *MigrationError:
// an explicit rollback that cannot restore the prior schema is a condition
// the caller has to see.
func (r *Runner) Rollback(db *gorm.DB, target SchemaVersion) (MigrationResult, error) {
	current, err := r.CurrentVersion(db)
	if err != nil {
		return MigrationResult{}, err
	}

	if current.LessOrEqual(target) {
		r.logger.Printf("database already at %s (rollback target %s), nothing to roll back", current, target)
		return MigrationResult{
			Success:     true,
			FromVersion: current,
			ToVersion:   current,
			Message:     "already at target version",
		}, nil
	}

	selected, ok := r.downgradePath(current, target)
	if !ok {
		return MigrationResult{
			FromVersion: current,
			ToVersion:   target,
			Message:     fmt.Sprintf("no migration path from %s back to %s", current, target),
		}, nil
	}

	var failed Migration
	txErr := db.Transaction(func(tx *gorm.DB) error {
		for _, m := range selected {
			r.logger.Printf("downgrading %s -> %s: %s", m.ToVersion(), m.FromVersion(), m.Description())
			if err := m.Downgrade(tx); err != nil {
				failed = m
				return err
			}
		}
		return r.SetVersion(tx, target)
	})
	if txErr != nil {
		if failed == nil {
			return MigrationResult{}, txErr
		}
		return MigrationResult{}, newMigrationError(failed, "downgrade", ErrRollbackFailed, txErr)
	}

	r.logger.Printf("rolled back %s -> %s (%d migrations)", current, target, len(selected))
	return MigrationResult{
		Success:     true,
		FromVersion: current,
		ToVersion:   target,
		Message:     fmt.Sprintf("rolled back from %s to %s", current, target),
	}, nil
}

func (r *Runner) resolveTarget(target SchemaVersion) SchemaVersion {
	if target == TargetLatest {
		return r.Latest()
	}
	return target
}

// upgradePath selects registered migrations forming a contiguous chain of
// adjacent steps from current up to target. Any gap means there is no
// migration path.
func (r *Runner) upgradePath(current, target SchemaVersion) ([]Migration, bool) {
	var path []Migration
	at := current
	for at.LessThan(target) {
		m, ok := r.migrationFrom(at)
		if !ok || m.ToVersion().MoreThan(target) {
			return nil, false
		}
		path = append(path, m)
		at = m.ToVersion()
	}
	return path, true
}

// downgradePath selects the reverse chain from current down to target.
func (r *Runner) downgradePath(current, target SchemaVersion) ([]Migration, bool) {
	var path []Migration
	at := current
	for at.MoreThan(target) {
		m, ok := r.migrationTo(at)
		if !ok || m.FromVersion().LessThan(target) {
			return nil, false
		}
		path = append(path, m)
		at = m.FromVersion()
	}
	return path, true
}

func (r *Runner) migrationFrom(v SchemaVersion) (Migration, bool) {
	for _, m := range r.migrations {
		if m.FromVersion().Equals(v) {
			return m, true
		}
	}
	return nil, false
}

func (r *Runner) migrationTo(v SchemaVersion) (Migration, bool) {
	for _, m := range r.migrations {
		if m.ToVersion().Equals(v) {
			return m, true
		}
	}
	return nil, false
}

// cleanupApplied walks the already-applied migrations of a failed batch in
// reverse, invoking Downgrade best-effort. The transaction rollback has
// already reverted the batch; this pass exists for side effects a driver
// may have let escape the transaction. It is the single place in the engine
// where errors are deliberately swallowed: the original upgrade failure is
// on its way to the caller and must not be masked by cleanup noise.
func (r *Runner) cleanupApplied(db *gorm.DB, applied []Migration) {
	for i := len(applied) - 1; i >= 0; i-- {
		m := applied[i]
		r.logger.Printf("cleanup: downgrading %s -> %s after failed batch", m.ToVersion(), m.FromVersion())
		if err := m.Downgrade(db); err != nil {
			r.logger.Printf("cleanup: downgrade of %q failed (suppressed): %v", m.Description(), err)
		}
	}
}
