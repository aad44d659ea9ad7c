package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 5*time.Second, cfg.Game.LookupTimeout)
	assert.Empty(t, cfg.Database.Host)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Address)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  address: ":9090"
database:
  host: localhost
  user: once
  name: once
logging:
  level: debug
  format: json
game:
  lookup_timeout: 2s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 2*time.Second, cfg.Game.LookupTimeout)
	// Defaults still fill unset keys.
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestLoadRejectsInvalidLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsPartialDatabaseConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  host: localhost\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "db", Port: 5432, User: "once", Password: "secret",
		Name: "oncedb", SSLMode: "disable", MaxConns: 4,
	}
	assert.Equal(t,
		"postgres://once:secret@db:5432/oncedb?sslmode=disable&pool_max_conns=4",
		d.DSN())
}
