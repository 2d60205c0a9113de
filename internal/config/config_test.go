package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test_config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestMustLoad(t *testing.T) {
	validYAML := `
env: "test"
http_server:
  address: ":8081"
backend:
  BACKEND_BASE_URL: "http://backend:3000"
  BACKEND_TIMEOUT: "5s"
cart_storage:
  CART_BACKEND: "redis"
  CART_DIR: "/tmp/carts"
  redis:
    REDIS_ADDR: "redishost:6380"
    REDIS_PASSWORD: "secret"
    REDIS_DB: 1
sendgrid:
  SENDGRID_API_KEY: "sg_test_123"
  SENDGRID_FROM_EMAIL: "test@example.com"
  SENDGRID_FROM_NAME: "Test Store"
checkout:
  SUCCESS_RATE: 0.5
  TICK_INTERVAL: "50ms"
  PROGRESS_STEP: 4
  PHASE_INTERVAL: "750ms"
  RESOLVE_DELAY: "250ms"
  CLEAR_CART_DELAY: "1s"
telemetry:
  OTLP_ENDPOINT: "otel:4318"
`

	t.Run("Success - Loads From YAML Via CONFIG_PATH", func(t *testing.T) {
		// Arrange
		t.Setenv("CONFIG_PATH", writeTempConfig(t, validYAML))

		// Act
		cfg := MustLoad()

		// Assert
		assert.Equal(t, "test", cfg.Env)
		assert.Equal(t, ":8081", cfg.Addr)
		assert.Equal(t, "http://backend:3000", cfg.Backend.BaseURL)
		assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
		assert.Equal(t, "redis", cfg.CartStorage.Backend)
		assert.Equal(t, "redishost:6380", cfg.CartStorage.Redis.Addr)
		assert.Equal(t, 1, cfg.CartStorage.Redis.DB)
		assert.Equal(t, "sg_test_123", cfg.SendGrid.APIKey)
		assert.InDelta(t, 0.5, cfg.Checkout.SuccessRate, 0.001)
		assert.Equal(t, 50*time.Millisecond, cfg.Checkout.TickInterval)
		assert.Equal(t, 4, cfg.Checkout.ProgressStep)
		assert.Equal(t, time.Second, cfg.Checkout.ClearCartDelay)
		assert.Equal(t, "otel:4318", cfg.Telemetry.OTLPEndpoint)
	})

	t.Run("Success - Missing Fields Fall Back To Defaults", func(t *testing.T) {
		// Arrange
		t.Setenv("CONFIG_PATH", writeTempConfig(t, `env: "test"`))

		// Act
		cfg := MustLoad()

		// Assert
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, "http://localhost:3000", cfg.Backend.BaseURL)
		assert.Equal(t, "file", cfg.CartStorage.Backend)
		assert.Equal(t, "./data/carts", cfg.CartStorage.Dir)
		assert.InDelta(t, 0.95, cfg.Checkout.SuccessRate, 0.001)
		assert.Equal(t, 100*time.Millisecond, cfg.Checkout.TickInterval)
		assert.Equal(t, 2, cfg.Checkout.ProgressStep)
		assert.Equal(t, 1500*time.Millisecond, cfg.Checkout.PhaseInterval)
		assert.Equal(t, 500*time.Millisecond, cfg.Checkout.ResolveDelay)
		assert.Equal(t, 3*time.Second, cfg.Checkout.ClearCartDelay)
	})

	t.Run("Success - Env Overrides YAML", func(t *testing.T) {
		// Arrange
		t.Setenv("CONFIG_PATH", writeTempConfig(t, validYAML))
		t.Setenv("BACKEND_BASE_URL", "http://override:4000")

		// Act
		cfg := MustLoad()

		// Assert
		assert.Equal(t, "http://override:4000", cfg.Backend.BaseURL)
	})
}

func TestRedisDSN(t *testing.T) {
	r := RedisConnect{Addr: "localhost:6379", Password: "secret", DB: 2}

	assert.Equal(t, "redis://:secret@localhost:6379/2", r.GetDSN())
}
