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
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, "credo.registry.events", cfg.Kafka.Topic)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credo.yaml")
	err := os.WriteFile(path, []byte(`
server:
  addr: ":9090"
  request_timeout: 5s
store: postgres
postgres:
  url: postgres://from-file
kafka:
  brokers: ["a:9092"]
rate_limit:
  rps: 2
  burst: 4
initial_owner: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
`), 0o600)
	require.NoError(t, err)

	t.Setenv("CREDO_DATABASE_URL", "postgres://from-env")
	t.Setenv("CREDO_KAFKA_BROKERS", " b:9092, c:9092 ,b:9092")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, "postgres://from-env", cfg.Postgres.URL)
	assert.Equal(t, []string{"b:9092", "c:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, float64(2), cfg.RateLimit.RPS)
	assert.Equal(t, 4, cfg.RateLimit.Burst)
	assert.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", cfg.InitialOwner)
	// Untouched fields keep their defaults.
	assert.Equal(t, 10, cfg.Redis.PoolSize)
}

func TestLoad_Validation(t *testing.T) {
	tests := map[string]map[string]string{
		"postgres without url": {"CREDO_STORE": "postgres"},
		"redis without url":    {"CREDO_STORE": "redis"},
		"unknown backend":      {"CREDO_STORE": "sqlite"},
		"bad duration":         {"CREDO_REQUEST_TIMEOUT": "soon"},
		"bad burst":            {"CREDO_RATE_LIMIT_BURST": "many"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
