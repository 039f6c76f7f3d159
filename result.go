package migrator

// MigrationResult describes the outcome of one Migrate or Rollback call.
// A fresh value is produced per call and never mutated afterwards.
//
// "Already at target version" is a successful result, distinguished only by
// its Message. Selection problems (no migration path, failed pre-check) are
// unsuccessful results rather than errors: nothing was mutated and the
// caller can correct the request.
type MigrationResult struct {
	Success     bool
	FromVersion SchemaVersion
	ToVersion   SchemaVersion
	Message     string
}
