package migrator

import (
	"gorm.io/gorm"
)

// Migration is a reversible transformation between two adjacent schema
// versions. Implementations must be stateless between invocations: the
// Runner hands them a live connection per call and they must not retain it.
type Migration interface {
	FromVersion() SchemaVersion
	ToVersion() SchemaVersion
	Description() string

	// Upgrade performs the structural and data changes of the migration.
	// It runs inside the batch transaction opened by the Runner and must
	// return an error rather than swallow failures, so the Runner can tell
	// "failed mid-way" from "succeeded".
	Upgrade(tx *gorm.DB) error

	// Downgrade restores the FromVersion schema shape and data, including
	// tables and columns that Upgrade dropped. Its primary contract is
	// reversing a fully completed upgrade; during cleanup of a failed batch
	// it may be invoked against an inconsistent intermediate state and
	// should cope with reasonable effort.
	Downgrade(db *gorm.DB) error

	// PreCheck validates, read-only, that the database is in a state
	// Upgrade can transform. It must not mutate anything.
	PreCheck(db *gorm.DB) bool
}

// FuncMigration assembles a Migration from plain values and functions, so a
// migration does not have to be a dedicated type. A nil PreCheckF passes
// unconditionally.
type FuncMigration struct {
	From SchemaVersion
	To   SchemaVersion
	Note string

	UpgradeF   func(tx *gorm.DB) error
	DowngradeF func(db *gorm.DB) error
	PreCheckF  func(db *gorm.DB) bool
}

func (m FuncMigration) FromVersion() SchemaVersion {
	return m.From
}

func (m FuncMigration) ToVersion() SchemaVersion {
	return m.To
}

func (m FuncMigration) Description() string {
	return m.Note
}

func (m FuncMigration) Upgrade(tx *gorm.DB) error {
	return m.UpgradeF(tx)
}

func (m FuncMigration) Downgrade(db *gorm.DB) error {
	return m.DowngradeF(db)
}

func (m FuncMigration) PreCheck(db *gorm.DB) bool {
	if m.PreCheckF == nil {
		return true
	}
	return m.PreCheckF(db)
}
