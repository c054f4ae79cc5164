package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/issues")
	t.Setenv("JWT_ACCESS_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 30*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, "@au.edu", cfg.Auth.AdminEmailDomain)
	assert.Equal(t, StorageDriverLocal, cfg.Storage.Driver)
	assert.Equal(t, 5, cfg.Outbox.MaxAttempts)
	assert.True(t, cfg.SeedStaff)
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("JWT_ACCESS_SECRET", "secret")

	_, err := Load()
	assert.EqualError(t, err, "DB_DSN is required")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			DB:      DBConfig{DSN: "dsn"},
			Auth:    AuthConfig{AccessSecret: "s", AdminEmailDomain: "@au.edu"},
			Storage: StorageConfig{Driver: StorageDriverLocal, LocalDir: "./uploads"},
		}
	}

	require.NoError(t, validate(base()))

	cfg := base()
	cfg.Storage = StorageConfig{Driver: StorageDriverGCS}
	assert.Error(t, validate(cfg))

	cfg = base()
	cfg.Storage.Driver = "s3"
	assert.Error(t, validate(cfg))

	cfg = base()
	cfg.Firebase.Enabled = true
	assert.Error(t, validate(cfg))

	cfg = base()
	cfg.Auth.AdminEmailDomain = "au.edu"
	assert.Error(t, validate(cfg))
}
