package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"HTTP_PORT", "STORAGE", "EVENT_SINK", "KAFKA_BROKERS", "CACHE_TTL_SEC", "RUN_MIGRATIONS"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "8000", cfg.HttpPort)
	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.Equal(t, SinkNone, cfg.EventSink)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.True(t, cfg.Migrate)
	assert.Equal(t, 100, cfg.OutboxBatchSize)
	assert.False(t, cfg.GoogleEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("STORAGE", "Memory")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("PG_LOCK_TIMEOUT_MS", "250")
	t.Setenv("RUN_MIGRATIONS", "false")
	t.Setenv("JWT_ACCESS_TTL_MIN", "15")
	t.Setenv("GOOGLE_CLIENT_ID", "id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")

	cfg := Load()
	assert.Equal(t, "9090", cfg.HttpPort)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 250, cfg.PgLockMs)
	assert.False(t, cfg.Migrate)
	assert.Equal(t, 15*time.Minute, cfg.JwtAccessTTL)
	assert.True(t, cfg.GoogleEnabled())
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OUTBOX_BATCH_SIZE", "lots")
	t.Setenv("CONSUME_ORDERS", "maybe")

	cfg := Load()
	assert.Equal(t, 100, cfg.OutboxBatchSize)
	assert.False(t, cfg.ConsumeOrders)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("KAFKA_TOPIC=from-dotenv\nHTTP_PORT=7000\n"), 0o600))

	// registered so the cleanup restores them, then unset so the file can fill them in
	t.Setenv("KAFKA_TOPIC", "")
	require.NoError(t, os.Unsetenv("KAFKA_TOPIC"))
	t.Setenv("HTTP_PORT", "9999")

	cfg := Load()
	assert.Equal(t, "from-dotenv", cfg.KafkaTopic)
	assert.Equal(t, "9999", cfg.HttpPort, "real environment wins over .env")
}
