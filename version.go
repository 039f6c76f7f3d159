package migrator

import (
	"fmt"
	"strconv"
	"strings"
)

// SchemaVersion identifies one generation of the persisted table layout.
// Versions are ordered by their integer value alone; new versions are
// appended, never renumbered.
type SchemaVersion int

const (
	// V1 is the original flat project schema.
	V1 SchemaVersion = iota + 1
	// V2 isolates the document tables under the doc_ prefix and keeps the
	// old names alive as compatibility views.
	V2
)

// EarliestVersion is assumed for databases that carry no version marker.
const EarliestVersion = V1

func (v SchemaVersion) Int() int {
	return int(v)
}

func (v SchemaVersion) String() string {
	return "V" + strconv.Itoa(int(v))
}

func (v SchemaVersion) Equals(version SchemaVersion) bool {
	return v == version
}

func (v SchemaVersion) MoreThan(version SchemaVersion) bool {
	return v > version
}

func (v SchemaVersion) MoreOrEqual(version SchemaVersion) bool {
	return v >= version
}

func (v SchemaVersion) LessThan(version SchemaVersion) bool {
	return v < version
}

func (v SchemaVersion) LessOrEqual(version SchemaVersion) bool {
	return v <= version
}

// ParseSchemaVersion reads a persisted integer-as-string marker value.
func ParseSchemaVersion(versionString string) (SchemaVersion, error) {
	n, err := strconv.Atoi(strings.TrimSpace(versionString))
	if err != nil {
		return 0, fmt.Errorf("schema version parse failed: %q", versionString)
	}
	if n < int(EarliestVersion) {
		return 0, fmt.Errorf("schema version out of range: %d", n)
	}
	return SchemaVersion(n), nil
}
