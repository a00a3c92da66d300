package main

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/booking")
	t.Setenv("JWT_HMAC_SECRET", "secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com,https://admin.example.com")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8083", cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.SlotStep)
	assert.Equal(t, 4, cfg.LoadConcurrency)
	assert.Equal(t, "America/Sao_Paulo", cfg.DefaultTimezone)
	assert.Len(t, cfg.CORSOrigins, 2)
}

func TestLoadConfigRejects(t *testing.T) {
	t.Run("missing database", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		require.NoError(t, os.Unsetenv("DATABASE_URL"))
		t.Setenv("JWT_HMAC_SECRET", "secret")
		_, err := loadConfig()
		assert.Error(t, err)
	})
	t.Run("missing auth", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/booking")
		t.Setenv("JWT_HMAC_SECRET", "")
		t.Setenv("JWT_JWKS_URL", "")
		_, err := loadConfig()
		assert.Error(t, err)
	})
	t.Run("bad default timezone", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/booking")
		t.Setenv("JWT_HMAC_SECRET", "secret")
		t.Setenv("DEFAULT_TIMEZONE", "Nowhere/Land")
		_, err := loadConfig()
		assert.Error(t, err)
	})
}
