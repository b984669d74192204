package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "@RocketShoes:cart", cfg.CartKeyPrefix)
	assert.Equal(t, StorageRedis, cfg.StorageDriver)
	assert.Equal(t, CatalogHTTP, cfg.CatalogDriver)
	assert.Equal(t, 168*time.Hour, cfg.CartTTL)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTTL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.Empty(t, cfg.PprofCIDRs)
	assert.False(t, cfg.KafkaEnabled)
}

func TestLoad_InvalidHTTPPort(t *testing.T) {
	t.Setenv("HTTP_PORT", "0")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP port")
}

func TestLoad_InvalidStorageDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "localstorage")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_DRIVER")
}

func TestLoad_InvalidCatalogURL(t *testing.T) {
	t.Setenv("CATALOG_URL", "localhost:3333")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "CATALOG_URL")
}

func TestLoad_MemoryCatalogIgnoresURL(t *testing.T) {
	t.Setenv("CATALOG_DRIVER", "memory")
	t.Setenv("CATALOG_URL", "not a url")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, CatalogMemory, cfg.CatalogDriver)
}

func TestLoad_InvalidOTELSampleRate(t *testing.T) {
	t.Setenv("OTEL_SAMPLE_RATE", "2.0")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "OTEL_SAMPLE_RATE must be between 0.0 and 1.0")
}

func TestLoad_ReportsEveryProblem(t *testing.T) {
	t.Setenv("HTTP_PORT", "70000")
	t.Setenv("CB_FAILURE_RATIO", "0")
	t.Setenv("RATE_LIMIT_RPS", "0")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP port")
	assert.Contains(t, err.Error(), "CB_FAILURE_RATIO")
	assert.Contains(t, err.Error(), "RATE_LIMIT_RPS")
}

func TestLoad_Lists(t *testing.T) {
	t.Setenv("PPROF_ALLOWED_CIDRS", "127.0.0.0/8,10.0.0.0/8")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("KAFKA_ENABLED", "true")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, []string{"127.0.0.0/8", "10.0.0.0/8"}, cfg.PprofCIDRs)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled)
}

func TestLoad_ParseError(t *testing.T) {
	t.Setenv("SESSION_IDLE_TTL", "forever")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "load cartstore config")
}
