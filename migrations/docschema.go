package migrations

import (
	migrator "github.com/openqda/schema-migrator"
	"gorm.io/gorm"
)

// DocumentSchemaIsolation returns the V1 -> V2 migration. It moves the
// document tables under the doc_ prefix, denormalizes the code name onto
// annotations for display lookups, and keeps the old table names alive as
// read-compatible views so code unaware of the migration still queries by
// the names it knows.
func DocumentSchemaIsolation() migrator.Migration {
	return docSchemaIsolation{}
}

type docSchemaIsolation struct{}

func (docSchemaIsolation) FromVersion() migrator.SchemaVersion {
	return migrator.V1
}

func (docSchemaIsolation) ToVersion() migrator.SchemaVersion {
	return migrator.V2
}

func (docSchemaIsolation) Description() string {
	return "isolate document tables under the doc_ prefix with legacy views"
}

// PreCheck requires every table the upgrade renames. A database predating
// the V1 baseline gets a clean batch abort instead of a half-applied
// migration. folder is deliberately absent from the list: it is optional.
func (docSchemaIsolation) PreCheck(db *gorm.DB) bool {
	for _, table := range []string{"settings", "source", "code", "annotation"} {
		if !db.Migrator().HasTable(table) {
			return false
		}
	}
	return true
}

func (docSchemaIsolation) Upgrade(tx *gorm.DB) error {
	stmts := []string{
		`CREATE TABLE doc_settings (
			key TEXT PRIMARY KEY,
			value TEXT
		)`,
		`CREATE TABLE doc_source (
			id INTEGER PRIMARY KEY,
			name TEXT,
			fulltext TEXT,
			memo TEXT,
			owner TEXT,
			date TEXT
		)`,
		`CREATE TABLE doc_code (
			id INTEGER PRIMARY KEY,
			name TEXT,
			color TEXT,
			memo TEXT
		)`,
		// code_name is denormalized from doc_code. It stays nullable and is
		// excluded from the legacy annotation view below.
		`CREATE TABLE doc_annotation (
			id INTEGER PRIMARY KEY,
			source_id INTEGER,
			code_id INTEGER,
			pos0 INTEGER,
			pos1 INTEGER,
			memo TEXT,
			owner TEXT,
			date TEXT,
			code_name TEXT
		)`,
		`INSERT INTO doc_settings (key, value)
			SELECT key, value FROM settings`,
		`INSERT INTO doc_source (id, name, fulltext, memo, owner, date)
			SELECT id, name, fulltext, memo, owner, date FROM source`,
		`INSERT INTO doc_code (id, name, color, memo)
			SELECT id, name, color, memo FROM code`,
		`INSERT INTO doc_annotation (id, source_id, code_id, pos0, pos1, memo, owner, date)
			SELECT id, source_id, code_id, pos0, pos1, memo, owner, date FROM annotation`,
		`UPDATE doc_annotation SET code_name =
			(SELECT name FROM doc_code WHERE doc_code.id = doc_annotation.code_id)`,
	}
	if err := execAll(tx, stmts); err != nil {
		return err
	}

	// folder arrived in a later V1 revision. When present its data must
	// survive; when absent that is not an error.
	if tx.Migrator().HasTable("folder") {
		err := execAll(tx, []string{
			`CREATE TABLE doc_folder (
				id INTEGER PRIMARY KEY,
				name TEXT,
				parent_id INTEGER
			)`,
			`INSERT INTO doc_folder (id, name, parent_id)
				SELECT id, name, parent_id FROM folder`,
			`DROP TABLE folder`,
			`CREATE VIEW folder AS
				SELECT id, name, parent_id FROM doc_folder`,
		})
		if err != nil {
			return err
		}
	}

	return execAll(tx, []string{
		`DROP TABLE settings`,
		`DROP TABLE source`,
		`DROP TABLE code`,
		`DROP TABLE annotation`,
		// The views project the pre-migration column set, so legacy readers
		// see an unchanged shape and code_name never leaks through them.
		`CREATE VIEW settings AS
			SELECT key, value FROM doc_settings`,
		`CREATE VIEW source AS
			SELECT id, name, fulltext, memo, owner, date FROM doc_source`,
		`CREATE VIEW code AS
			SELECT id, name, color, memo FROM doc_code`,
		`CREATE VIEW annotation AS
			SELECT id, source_id, code_id, pos0, pos1, memo, owner, date FROM doc_annotation`,
	})
}

func (docSchemaIsolation) Downgrade(db *gorm.DB) error {
	stmts := []string{
		`DROP VIEW IF EXISTS settings`,
		`DROP VIEW IF EXISTS source`,
		`DROP VIEW IF EXISTS code`,
		`DROP VIEW IF EXISTS annotation`,
		`DROP VIEW IF EXISTS folder`,
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
		`INSERT INTO settings (key, value)
			SELECT key, value FROM doc_settings`,
		`INSERT INTO source (id, name, fulltext, memo, owner, date)
			SELECT id, name, fulltext, memo, owner, date FROM doc_source`,
		`INSERT INTO code (id, name, color, memo)
			SELECT id, name, color, memo FROM doc_code`,
		// code_name stays behind: it is derivable and was never part of V1.
		`INSERT INTO annotation (id, source_id, code_id, pos0, pos1, memo, owner, date)
			SELECT id, source_id, code_id, pos0, pos1, memo, owner, date FROM doc_annotation`,
		`DROP TABLE doc_settings`,
		`DROP TABLE doc_source`,
		`DROP TABLE doc_code`,
		`DROP TABLE doc_annotation`,
	}
	if err := execAll(db, stmts); err != nil {
		return err
	}

	if db.Migrator().HasTable("doc_folder") {
		return execAll(db, []string{
			`CREATE TABLE folder (
				id INTEGER PRIMARY KEY,
				name TEXT,
				parent_id INTEGER
			)`,
			`INSERT INTO folder (id, name, parent_id)
				SELECT id, name, parent_id FROM doc_folder`,
			`DROP TABLE doc_folder`,
		})
	}
	return nil
}

func execAll(db *gorm.DB, stmts []string) error {
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
