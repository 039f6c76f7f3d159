// Package migrations holds the concrete schema migrations of the project
// store and the baseline initializer for fresh databases.
//
// The store keeps a qualitative-coding project: documents (source), codes
// (code), coded text segments (annotation), an optional hierarchical
// grouping table (folder) and a key/value settings table carrying the
// schema version marker.
package migrations

import (
	"strconv"

	migrator "github.com/openqda/schema-migrator"
	"github.com/openqda/schema-migrator/internal/repository"
	"gorm.io/gorm"
)

// InitialSchema creates the V1 project tables in an empty database and
// seeds the version marker. The folder table arrived in a later V1
// revision; stores written by older releases predate it, so it is only
// created when withFolders is set.
func InitialSchema(db *gorm.DB, withFolders bool) error {
	return db.Transaction(func(tx *gorm.DB) error {
		stmts := []string{
			`CREATE TABLE settings (
				key TEXT PRIMARY KEY,
				value TEXT
			)`,
			`CREATE TABLE source (
				id INTEGER PRIMARY KEY,
				name TEXT,
				fulltext TEXT,
				memo TEXT,
				owner TEXT,
				date TEXT
			)`,
			`CREATE TABLE code (
				id INTEGER PRIMARY KEY,
				name TEXT,
				color TEXT,
				memo TEXT
			)`,
			`CREATE TABLE annotation (
				id INTEGER PRIMARY KEY,
				source_id INTEGER,
				code_id INTEGER,
				pos0 INTEGER,
				pos1 INTEGER,
				memo TEXT,
				owner TEXT,
				date TEXT
			)`,
		}
		if withFolders {
			stmts = append(stmts, `CREATE TABLE folder (
				id INTEGER PRIMARY KEY,
				name TEXT,
				parent_id INTEGER
			)`)
		}

		for _, stmt := range stmts {
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}

		return tx.Exec(
			"INSERT INTO settings (key, value) VALUES (?, ?)",
			repository.VersionKey, strconv.Itoa(migrator.V1.Int()),
		).Error
	})
}
