package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "leave.db", cfg.DBPath)
	assert.Equal(t, 10*time.Second, cfg.LockTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 30, cfg.SubmitRateLimit)
	assert.Empty(t, cfg.RedisAddr)
	assert.False(t, cfg.SeedDemo)
	assert.True(t, cfg.IsLocalDev())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_PATH", ":memory:")
	t.Setenv("APP_ENV", "production")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("LOCK_TTL", "3s")
	t.Setenv("SUBMIT_RATE_LIMIT", "5")
	t.Setenv("SEED_DEMO", "true")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, ":memory:", cfg.DBPath)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 3*time.Second, cfg.LockTTL)
	assert.Equal(t, 5, cfg.SubmitRateLimit)
	assert.True(t, cfg.SeedDemo)
	assert.False(t, cfg.IsLocalDev())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestLoad_InvalidTimezone(t *testing.T) {
	t.Setenv("TIMEZONE", "Mars/Olympus_Mons")

	_, err := load(viper.New())

	assert.ErrorContains(t, err, "TIMEZONE")
}
