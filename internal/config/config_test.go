package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hobosky/hobosky-go/internal/config"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := config.Load()

		require.NoError(t, err)
		assert.Equal(t, "https://bsky.social", cfg.Service)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, time.Second, cfg.VideoPollInterval())
		assert.Equal(t, 120, cfg.VideoPollAttempts)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("HOBOSKY_SERVICE", "https://pds.example.com")
		t.Setenv("HOBOSKY_VIDEO_POLL_SECONDS", "3")

		cfg, err := config.Load()

		require.NoError(t, err)
		assert.Equal(t, "https://pds.example.com", cfg.Service)
		assert.Equal(t, 3*time.Second, cfg.VideoPollInterval())
	})
}

func TestValidate(t *testing.T) {
	valid := config.Config{
		Service:           "https://bsky.social",
		VideoPollSeconds:  1,
		VideoPollAttempts: 120,
	}

	t.Run("rejects a non-http service", func(t *testing.T) {
		cfg := valid
		cfg.Service = "bsky.social"
		assert.ErrorContains(t, cfg.Validate(), "HOBOSKY_SERVICE")
	})

	t.Run("rejects two store backends at once", func(t *testing.T) {
		cfg := valid
		cfg.RedisURL = "redis://localhost:6379"
		cfg.PostgresURL = "postgres://localhost/hobosky"
		assert.ErrorContains(t, cfg.Validate(), "at most one")
	})

	t.Run("rejects non-positive poll settings", func(t *testing.T) {
		cfg := valid
		cfg.VideoPollSeconds = 0
		assert.Error(t, cfg.Validate())

		cfg = valid
		cfg.VideoPollAttempts = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("accepts one store backend", func(t *testing.T) {
		cfg := valid
		cfg.RedisURL = "redis://localhost:6379"
		assert.NoError(t, cfg.Validate())
	})
}
