package matching

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRolePlaceholder(t *testing.T) {
	assert.True(t, IsRolePlaceholder("議長"))
	assert.True(t, IsRolePlaceholder("副議長"))
	assert.True(t, IsRolePlaceholder("委員長"))
	assert.True(t, IsRolePlaceholder("事務局長"))
	assert.False(t, IsRolePlaceholder("山田太郎"))
	assert.False(t, IsRolePlaceholder(""))
}

func TestIsRolePlaceholder_NormalizedFirst(t *testing.T) {
	// Honorifics and surrounding whitespace must not hide a placeholder.
	assert.True(t, IsRolePlaceholder("  議長  "))
	assert.True(t, IsRolePlaceholder("議長君"))
}

func TestRoleMap_Resolve(t *testing.T) {
	m := RoleMap{"議長": "山田太郎"}
	assert.Equal(t, "山田太郎", m.Resolve("議長"))
	assert.Equal(t, "山田太郎", m.Resolve("  議長  "))
	assert.Equal(t, "", m.Resolve("副議長"))
}

func TestRoleMap_NilResolve(t *testing.T) {
	var m RoleMap
	assert.Equal(t, "", m.Resolve("議長"))
}

func TestLoadRoleMap_EmptyPath(t *testing.T) {
	m, err := LoadRoleMap("")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestLoadRoleMap_MissingFile(t *testing.T) {
	m, err := LoadRoleMap(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestLoadRoleMap_ParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("議長: 山田太郎\n副議長: 佐藤花子\n"), 0o644))

	m, err := LoadRoleMap(path)
	require.NoError(t, err)
	assert.Equal(t, "山田太郎", m.Resolve("議長"))
	assert.Equal(t, "佐藤花子", m.Resolve("副議長"))
}

func TestLoadRoleMap_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\n  - not: [a map"), 0o644))

	_, err := LoadRoleMap(path)
	assert.Error(t, err)
}
