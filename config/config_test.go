package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromDefaults(t *testing.T) {
	c, err := LoadFrom(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, "8080", c.AppPort)
	assert.Equal(t, "mysql", c.DBDriver)
	assert.Equal(t, "3306", c.DBPort)
	assert.Equal(t, "memory", c.CacheBackend)
	assert.Equal(t, 10, c.PageSize)
	assert.Equal(t, 20, c.IndexCacheTTLSeconds)
	assert.Equal(t, "local", c.MediaBackend)
	assert.Equal(t, "/media/", c.MediaURL)
}

func TestLoadFromFileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	raw := `{
		"app": {"AppPort": "9000", "SecretKey": "from-file", "AdminUsernames": ["root"]},
		"database": {"Driver": "postgres", "DBName": "blog"},
		"cache": {"Backend": "redis", "PageSize": 5}
	}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	t.Setenv("SECRET_KEY", "from-env")
	t.Setenv("ADMIN_USERNAMES", "alice, bob")
	t.Setenv("INDEX_CACHE_TTL_SECONDS", "45")

	c, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "9000", c.AppPort)
	assert.Equal(t, "from-env", c.SecretKey)
	assert.Equal(t, "postgres", c.DBDriver)
	assert.Equal(t, "5432", c.DBPort)
	assert.Equal(t, "blog", c.DBName)
	assert.Equal(t, "redis", c.CacheBackend)
	assert.Equal(t, 5, c.PageSize)
	assert.Equal(t, 45, c.IndexCacheTTLSeconds)
	assert.Equal(t, []string{"alice", "bob"}, c.AdminUsernames)
	assert.True(t, c.IsAdmin("Alice"))
	assert.False(t, c.IsAdmin("root"))
}

func TestLoadFromRejectsBadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err := LoadFrom(path)
	assert.Error(t, err)

	t.Setenv("PAGE_SIZE", "ten")
	_, err = LoadFrom(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestWithForeignKeys(t *testing.T) {
	assert.Equal(t, "a.db?_foreign_keys=on", withForeignKeys("a.db"))
	assert.Equal(t, "a.db?cache=shared&_foreign_keys=on", withForeignKeys("a.db?cache=shared"))
	assert.Equal(t, "a.db?_fk=1", withForeignKeys("a.db?_fk=1"))
}
