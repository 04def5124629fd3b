package env

import (
	"os"
	"path/filepath"
	"roulette_backend/internal/config"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestGameConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewGameConfigFromYAML(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "30", cfg.PayoutMultiplier().String())
	assert.Equal(t, 0.02, cfg.ManualWinChance())
	assert.Equal(t, 0.8, cfg.LeastBetMass())
	assert.Equal(t, 720*time.Hour, cfg.Retention())
	assert.Equal(t, time.Minute, cfg.DrainInterval())
	assert.Equal(t, time.Hour, cfg.RoundInterval())
}

func TestGameConfig_PartialOverride(t *testing.T) {
	path := writeFile(t, `
least_bet_mass: 0.7
drain_interval: 30s
rate_limit:
  requests: 5
  window: 10s
`)

	cfg, err := NewGameConfigFromYAML(path)
	require.NoError(t, err)

	assert.Equal(t, 0.7, cfg.LeastBetMass())
	assert.Equal(t, 30*time.Second, cfg.DrainInterval())
	assert.Equal(t, config.RateLimit{Requests: 5, Window: 10 * time.Second}, cfg.RateLimit())
	assert.Equal(t, 24*time.Hour, cfg.CleanupInterval())
}

func TestGameConfig_Invalid(t *testing.T) {
	for _, body := range []string{
		"least_bet_mass: 1.5",
		"manual_win_chance: -0.1",
		"payout_multiplier: 1",
		"drain_interval: 0s",
		"least_bet_mass: [",
	} {
		_, err := NewGameConfigFromYAML(writeFile(t, body))
		assert.Error(t, err, body)
	}
}

func TestStorageConfig(t *testing.T) {
	t.Setenv(storageDriverEnvName, "")
	cfg, err := NewStorageConfig()
	require.NoError(t, err)
	assert.Equal(t, config.StoragePostgres, cfg.Driver())

	t.Setenv(storageDriverEnvName, "memory")
	cfg, err = NewStorageConfig()
	require.NoError(t, err)
	assert.Equal(t, config.StorageMemory, cfg.Driver())

	t.Setenv(storageDriverEnvName, "sqlite")
	_, err = NewStorageConfig()
	assert.Error(t, err)
}

func TestRedisAndNATSConfig(t *testing.T) {
	t.Setenv(redisAddrEnvName, "")
	t.Setenv(natsURLEnvName, "")
	t.Setenv(natsSubjectEnvName, "")

	redis, err := NewRedisConfig()
	require.NoError(t, err)
	assert.False(t, redis.Enabled())

	nats, err := NewNATSConfig()
	require.NoError(t, err)
	assert.False(t, nats.Enabled())
	assert.Equal(t, defaultNATSSubject, nats.Subject())

	t.Setenv(redisDBEnvName, "two")
	_, err = NewRedisConfig()
	assert.Error(t, err)
}

func TestHTTPConfig(t *testing.T) {
	t.Setenv(httpHostEnvName, "127.0.0.1")
	t.Setenv(httpPortEnvName, "8080")

	cfg, err := NewHTTPConfig()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.Address())
}
