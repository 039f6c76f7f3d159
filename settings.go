package migrator

import (
	"gorm.io/gorm"
)

// DefaultSettingsTables lists the candidate settings table names, newest
// schema generation first. A migration may rename the settings table
// mid-batch, so the Runner re-resolves the name on every marker read and
// write instead of caching it.
var DefaultSettingsTables = []string{"doc_settings", "settings"}

// SettingsLocator resolves the name of the settings table currently present
// in the database. It is injected into the Runner so the version-marker
// logic can be exercised against a fake catalog.
type SettingsLocator interface {
	Locate(db *gorm.DB) (table string, ok bool)
}

// TableProbe locates the settings table by probing the database catalog for
// each candidate name in priority order.
type TableProbe struct {
	Candidates []string
}

func (p TableProbe) Locate(db *gorm.DB) (string, bool) {
	for _, name := range p.Candidates {
		if db.Migrator().HasTable(name) {
			return name, true
		}
	}
	return "", false
}
