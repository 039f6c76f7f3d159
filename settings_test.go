package migrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestTableProbePriorityOrder(t *testing.T) {
	db := openTestDB(t)
	probe := TableProbe{Candidates: DefaultSettingsTables}

	_, ok := probe.Locate(db)
	assert.False(t, ok)

	require.NoError(t, db.Exec("CREATE TABLE settings (key TEXT PRIMARY KEY, value TEXT)").Error)
	table, ok := probe.Locate(db)
	require.True(t, ok)
	assert.Equal(t, "settings", table)

	// Once the newer generation's table exists it wins, even with the old
	// one still around.
	require.NoError(t, db.Exec("CREATE TABLE doc_settings (key TEXT PRIMARY KEY, value TEXT)").Error)
	table, ok = probe.Locate(db)
	require.True(t, ok)
	assert.Equal(t, "doc_settings", table)
}

type fixedLocator struct {
	table string
}

func (l fixedLocator) Locate(db *gorm.DB) (string, bool) {
	return l.table, l.table != ""
}

func TestRunnerWithInjectedLocator(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Exec("CREATE TABLE project_meta (key TEXT PRIMARY KEY, value TEXT)").Error)

	runner := newTestRunner(WithSettingsLocator(fixedLocator{table: "project_meta"}))

	require.NoError(t, runner.SetVersion(db, V2))
	v, err := runner.CurrentVersion(db)
	require.NoError(t, err)
	assert.Equal(t, V2, v)

	var value string
	require.NoError(t, db.Raw("SELECT value FROM project_meta WHERE key = 'schema_version'").Row().Scan(&value))
	assert.Equal(t, "2", value)
}
