package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/luxfi/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) log.Logger {
	t.Helper()
	level, _ := log.ToLevel("debug")
	return log.NewTestLogger(level)
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 2, cfg.NumTraders)
	assert.Equal(t, 256, cfg.BufferCapacity)
	assert.Equal(t, 4, cfg.Partitions)
	assert.Equal(t, int64(10), cfg.MinQuantity)
	assert.Equal(t, int64(100), cfg.MaxQuantity)
	assert.Equal(t, 20*time.Second, cfg.RunDuration)
	assert.Equal(t, 5*time.Second, cfg.StatsInterval)
	assert.Equal(t, int64(0), cfg.Seed)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("NUM_TRADERS", "8")
	t.Setenv("BUFFER_CAPACITY", "64")
	t.Setenv("PARTITIONS", "2")
	t.Setenv("MIN_ORDER_QTY", "5")
	t.Setenv("MAX_ORDER_QTY", "50")
	t.Setenv("RUN_DURATION_MS", "1500")
	t.Setenv("STATS_INTERVAL_MS", "250")
	t.Setenv("ORDER_INTERVAL_MS", "0")
	t.Setenv("RAND_SEED", "1234")
	t.Setenv("METRICS_ADDR", ":9999")
	t.Setenv("FEED_ADDR", ":8888")

	cfg := Load("", testLogger(t))
	assert.Equal(t, 8, cfg.NumTraders)
	assert.Equal(t, 64, cfg.BufferCapacity)
	assert.Equal(t, 2, cfg.Partitions)
	assert.Equal(t, int64(5), cfg.MinQuantity)
	assert.Equal(t, int64(50), cfg.MaxQuantity)
	assert.Equal(t, 1500*time.Millisecond, cfg.RunDuration)
	assert.Equal(t, 250*time.Millisecond, cfg.StatsInterval)
	assert.Equal(t, time.Duration(0), cfg.OrderInterval)
	assert.Equal(t, int64(1234), cfg.Seed)
	assert.Equal(t, ":9999", cfg.MetricsAddr)
	assert.Equal(t, ":8888", cfg.FeedAddr)
}

func TestLoadKeepsDefaultsOnInvalidValues(t *testing.T) {
	t.Setenv("NUM_TRADERS", "not-a-number")
	t.Setenv("BUFFER_CAPACITY", "-4")
	t.Setenv("MIN_ORDER_QTY", "0")
	t.Setenv("RUN_DURATION_MS", "-1")
	t.Setenv("RAND_SEED", "abc")

	def := Default()
	cfg := Load("", testLogger(t))
	assert.Equal(t, def.NumTraders, cfg.NumTraders)
	assert.Equal(t, def.BufferCapacity, cfg.BufferCapacity)
	assert.Equal(t, def.MinQuantity, cfg.MinQuantity)
	assert.Equal(t, def.RunDuration, cfg.RunDuration)
	assert.Equal(t, def.Seed, cfg.Seed)
}

func TestLoadFromDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("NUM_TRADERS=6\nRAND_SEED=77\n"), 0o600))

	// godotenv sets real process env vars; keep them from leaking into other
	// tests.
	t.Cleanup(func() {
		os.Unsetenv("NUM_TRADERS")
		os.Unsetenv("RAND_SEED")
	})

	cfg := Load(envPath, testLogger(t))
	assert.Equal(t, 6, cfg.NumTraders)
	assert.Equal(t, int64(77), cfg.Seed)
}
