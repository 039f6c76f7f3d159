// Package repository reads and writes the schema version marker inside a
// named settings table. Callers resolve the table name first; the marker's
// physical location can move between schema generations, its meaning never
// does.
package repository

import (
	"database/sql"
	"errors"

	"gorm.io/gorm"
)

// VersionKey is the key of the settings row holding the schema version.
const VersionKey = "schema_version"

var ErrNotFound = errors.New("schema version marker not found")

// GetVersion reads the marker value from the named settings table. A
// settings table without a marker row reports ErrNotFound.
func GetVersion(db *gorm.DB, table string) (string, error) {
	row := db.Raw("SELECT value FROM "+table+" WHERE key = ?", VersionKey).Row()

	var value string
	err := row.Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", ErrNotFound
	case err != nil:
		return "", err
	}
	return value, nil
}

// SaveVersion upserts the marker row in the named settings table.
func SaveVersion(db *gorm.DB, table, value string) error {
	var count int64
	err := db.Table(table).Where("key = ?", VersionKey).Count(&count).Error
	if err != nil {
		return err
	}

	if count == 0 {
		return db.Exec("INSERT INTO "+table+" (key, value) VALUES (?, ?)", VersionKey, value).Error
	}
	return db.Exec("UPDATE "+table+" SET value = ? WHERE key = ?", value, VersionKey).Error
}
