package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "votearena.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, TransportNATS, cfg.Realtime.Transport)
	assert.Equal(t, "competition_events", cfg.Realtime.Postgres.Channel)
	assert.Equal(t, time.Second, cfg.Gateway.TickInterval)
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoadYAMLThenEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, `
server:
  port: 9000
  allowedOrigins: ["https://arena.example"]
database:
  host: db.internal
  database: arena
realtime:
  transport: postgres
  postgres:
    channel: arena_events
redis:
  addr: cache:6379
  ttl: 30s
gateway:
  tickInterval: 500ms
logging:
  level: debug
`)
	t.Setenv("VOTEARENA_SERVER_PORT", "9100")
	t.Setenv("DB_PASSWORD", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port, "env wins over yaml")
	assert.Equal(t, []string{"https://arena.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "arena", cfg.Database.Database)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, 5432, cfg.Database.Port, "defaults survive partial yaml")
	assert.Equal(t, TransportPostgres, cfg.Realtime.Transport)
	assert.Equal(t, "arena_events", cfg.Realtime.Postgres.Channel)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
	assert.Equal(t, 500*time.Millisecond, cfg.Gateway.TickInterval)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadErrors(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "server: [not, a, map]"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "realtime:\n  transport: carrier-pigeon\n"))
	assert.ErrorContains(t, err, "carrier-pigeon")
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))

	cfg := Default()
	assert.Same(t, cfg, FromContext(WithContext(context.Background(), cfg)))
}
