package config_test

import (
	"testing"
	"time"

	"employee-poll-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DATABASE_URL", "postgres://localhost/poll?sslmode=disable")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.Equal(t, "redis", cfg.QueueDriver)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
	assert.Equal(t, 3, cfg.QueueAttempts)
	assert.Equal(t, 2*time.Second, cfg.QueueBackoff)
	assert.Equal(t, 60*time.Second, cfg.ImageJobTimeout)
	assert.Equal(t, 400, cfg.ImageSize)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes())
	assert.Equal(t, []string{"image/jpeg", "image/png", "image/gif", "image/webp"}, cfg.AllowedImageTypes)
	assert.Equal(t, "local", cfg.ImageStorage)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("QUEUE_DRIVER", "memory")
	t.Setenv("REDIS_HOST", "redis.internal")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DB", "4")
	t.Setenv("QUEUE_BACKOFF", "5s")
	t.Setenv("WORKER_CONCURRENCY", "8")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, "redis.internal:6380", cfg.RedisAddr())
	assert.Equal(t, 4, cfg.RedisDB)
	assert.Equal(t, 5*time.Second, cfg.QueueBackoff)
	assert.Equal(t, 8, cfg.WorkerConcurrency)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STORE_DRIVER", "memory")

	_, err := config.Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		return &config.Config{
			JWTSecret:         "secret",
			AdminEmailPattern: "^admin@",
			StoreDriver:       "memory",
			QueueDriver:       "memory",
			QueueAttempts:     3,
			WorkerConcurrency: 1,
			ImageSize:         400,
			MaxUploadMB:       5,
			ImageStorage:      "local",
		}
	}

	assert.NoError(t, valid().Validate())

	cfg := valid()
	cfg.StoreDriver = "postgres"
	assert.ErrorContains(t, cfg.Validate(), "DATABASE_URL")

	cfg = valid()
	cfg.AdminEmailPattern = "(["
	assert.ErrorContains(t, cfg.Validate(), "ADMIN_EMAIL_PATTERN")

	cfg = valid()
	cfg.ImageStorage = "supabase"
	assert.ErrorContains(t, cfg.Validate(), "SUPABASE_URL")

	cfg = valid()
	cfg.QueueDriver = "kafka"
	assert.ErrorContains(t, cfg.Validate(), "QUEUE_DRIVER")
}
