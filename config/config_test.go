package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "jwt-secret")
	t.Setenv("GENERATION_DISABLED", "true")
	t.Setenv("PORT", "")
	t.Setenv("SWEEP_SCHEDULE", "")
	t.Setenv("GENERATION_SETTLE_DELAY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8888", cfg.Port)
	assert.Equal(t, "@every 1m", cfg.SweepSchedule)
	assert.Equal(t, 3*time.Second, cfg.Generation.SettleDelay)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "jwt-secret", cfg.AuthSecret)
}

func TestLoadRequiresAuthSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("GENERATION_DISABLED", "true")
	t.Setenv("AUTH_JWT_SECRET", "   ")

	_, err := Load()
	assert.ErrorIs(t, err, ErrAuthSecret)
}

func TestLoadRequiresGenerationConfig(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "jwt-secret")
	t.Setenv("GENERATION_DISABLED", "")
	t.Setenv("GENERATION_URL", "")
	t.Setenv("GENERATION_SERVICE_KEY", "")

	_, err := Load()
	assert.ErrorIs(t, err, ErrGenerationConfig)

	t.Setenv("GENERATION_URL", "https://fn.example.com/generate")
	t.Setenv("GENERATION_SERVICE_KEY", "key")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://fn.example.com/generate", cfg.Generation.URL)
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("X_DELAY", "250ms")
	assert.Equal(t, 250*time.Millisecond, getEnvAsDuration("X_DELAY", time.Second))

	t.Setenv("X_DELAY", "1500")
	assert.Equal(t, 1500*time.Millisecond, getEnvAsDuration("X_DELAY", time.Second))

	t.Setenv("X_DELAY", "soon")
	assert.Equal(t, time.Second, getEnvAsDuration("X_DELAY", time.Second))
}

func TestDSN(t *testing.T) {
	cfg := &Config{AppEnv: "production", Database: DatabaseConfig{URL: "postgres://u:p@db/agora"}}
	assert.Equal(t, "postgres://u:p@db/agora?sslmode=require", cfg.DSN())

	cfg.Database.URL = "postgres://u:p@db/agora?sslmode=disable"
	assert.Equal(t, "postgres://u:p@db/agora?sslmode=disable", cfg.DSN())

	dev := &Config{AppEnv: "development", Database: DatabaseConfig{Host: "localhost", Port: 5432, User: "postgres", Name: "agora"}}
	assert.Equal(t, "host=localhost user=postgres password= dbname=agora port=5432 sslmode=disable TimeZone=UTC", dev.DSN())
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitCSV(" a, ,b ,"))
}
