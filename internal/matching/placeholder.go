package matching

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// rolePlaceholders is the closed set of role-only titles that can appear in
// minutes where a personal name should be. They can never resolve to an
// individual on their own, so they must never reach the model.
var rolePlaceholders = map[string]bool{
	"議長":    true,
	"副議長":   true,
	"委員長":   true,
	"副委員長":  true,
	"事務局長":  true,
	"書記":    true,
	"chairperson": true,
	"chairman":    true,
	"secretary":   true,
}

// IsRolePlaceholder reports whether a raw name is a role-only placeholder.
// The check runs on the normalized form so honorifics and width variants
// don't hide a placeholder.
func IsRolePlaceholder(rawName string) bool {
	return rolePlaceholders[NormalizeName(rawName)]
}

// RoleMap resolves role titles to actual personal names for one subject
// (e.g. "議長" → the current chair's name for a given conference term).
type RoleMap map[string]string

// Resolve returns the personal name for a role title, or "" when unmapped.
func (m RoleMap) Resolve(rawName string) string {
	if m == nil {
		return ""
	}
	return m[NormalizeName(rawName)]
}

// LoadRoleMap reads a role→name mapping from a YAML file. A missing path
// yields an empty map, not an error: the mapping is optional.
func LoadRoleMap(path string) (RoleMap, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "matching: read role map %s", path)
	}

	var m RoleMap
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrapf(err, "matching: parse role map %s", path)
	}
	return m, nil
}
