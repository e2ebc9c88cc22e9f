package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, 100, cfg.RateLimit.Limit)
	assert.Equal(t, 5, cfg.Notifications.Workers)
	assert.True(t, cfg.Redis.Enabled)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
database:
  path: "/tmp/x.db"
cache:
  ttl: 30s
seed:
  departments: ["Engineering", "Sales"]
  users:
    - name: Mia Manager
      email: mia@example.com
      password: secret123
      roles: [manager]
      departments: [Engineering]
`), 0o600))

	t.Setenv("TEAMTASK_SERVER_ADDR", ":9100")
	t.Setenv("TEAMTASK_REDIS_ENABLED", "false")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.Server.Addr)
	assert.Equal(t, "/tmp/x.db", cfg.Database.Path)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"Engineering", "Sales"}, cfg.Seed.Departments)
	require.Len(t, cfg.Seed.Users, 1)
	assert.Equal(t, []string{"manager"}, cfg.Seed.Users[0].Roles)
}

func TestLoad_RejectsEmptySecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("jwt:\n  secret: \"\"\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
