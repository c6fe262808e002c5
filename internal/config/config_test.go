package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/civlobby/internal/factory"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Type)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 6, cfg.Rooms.InviteCodeLength)
	assert.Equal(t, 5*time.Second, cfg.Rooms.CommandTimeout)
	assert.Equal(t, 1024, cfg.Fanout.QueueSize)
	assert.Equal(t, 24*time.Hour, cfg.Sessions.Duration)
	assert.Equal(t, "random", cfg.Rooms.BotStrategy)

	fc := cfg.Factory(nil)
	assert.Equal(t, "random", fc.BotStrategy)
	assert.Equal(t, factory.StorageTypeMemory, fc.StorageType)
	assert.Nil(t, fc.RedisConfig)
	assert.Nil(t, fc.MongoConfig)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CIVLOBBY_SERVER_PORT", "9090")
	t.Setenv("CIVLOBBY_STORAGE_TYPE", "redis")
	t.Setenv("CIVLOBBY_REDIS_URL", "redis://cache:6379/2")
	t.Setenv("CIVLOBBY_ROOMS_COMMAND_TIMEOUT", "2s")

	cfg, err := load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Rooms.CommandTimeout)

	fc := cfg.Factory(nil)
	require.NotNil(t, fc.RedisConfig)
	assert.Equal(t, "redis://cache:6379/2", fc.RedisConfig.URL)
	assert.Equal(t, 10, fc.RedisConfig.PoolSize)
	assert.Equal(t, 2*time.Second, fc.RoomsConfig.CommandTimeout)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "civlobby.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 7000
log:
  level: debug
  format: text
storage:
  type: mongo
  mongo:
    uri: mongodb://db:27017/?replicaSet=rs0
    database: lobby
fanout:
  keepalive: 15s
`), 0o600))

	cfg, err := load(path)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Fanout.KeepAlive)
	level, err := cfg.Log.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	fc := cfg.Factory(nil)
	require.NotNil(t, fc.MongoConfig)
	assert.Equal(t, "lobby", fc.MongoConfig.Database)
	assert.Equal(t, 10*time.Second, fc.MongoConfig.ConnectTimeout)
	assert.Equal(t, 15*time.Second, fc.PushConfig.KeepAlive)
}

func TestEnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "civlobby.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7000\n"), 0o600))
	t.Setenv("CIVLOBBY_SERVER_PORT", "7001")

	cfg, err := load(path)
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Server.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Setenv("CIVLOBBY_STORAGE_TYPE", "postgres")
	t.Setenv("CIVLOBBY_LOG_LEVEL", "loud")
	t.Setenv("CIVLOBBY_ROOMS_BOT_STRATEGY", "genius")

	_, err := load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.type")
	assert.Contains(t, err.Error(), "log.level")
	assert.Contains(t, err.Error(), "rooms.bot_strategy")
}
