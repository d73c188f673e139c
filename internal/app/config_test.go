package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, time.Duration(0), cfg.AuthzLookupTimeout)
	assert.Equal(t, 10, cfg.LoginRateLimit)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.False(t, cfg.MigrateOnStart)
	assert.False(t, cfg.SigningSecretConfigured())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cr3t")
	t.Setenv("TOKEN_TTL", "15m")
	t.Setenv("AUTHZ_LOOKUP_TIMEOUT", "250ms")
	t.Setenv("APP_ENV", "production")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.SigningSecretConfigured())
	assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 250*time.Millisecond, cfg.AuthzLookupTimeout)
	assert.True(t, cfg.IsProduction())
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Setenv("TOKEN_TTL", "0s")
	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("SEED_ADMIN_EMAIL", "admin@viajes.test")
	t.Setenv("SEED_ADMIN_PASSWORD", "")
	_, err = LoadConfig()
	assert.Error(t, err)
}

func TestBlankSecretIsNotConfigured(t *testing.T) {
	cfg := &Config{JWTSecret: "   "}
	assert.False(t, cfg.SigningSecretConfigured())
	var missing *Config
	assert.False(t, missing.SigningSecretConfigured())
}
