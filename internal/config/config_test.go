package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost:5432/clinic")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "migrations", cfg.MigrationsPath)
	assert.Equal(t, 30, cfg.GranularityMinutes)
	assert.Equal(t, []time.Weekday{time.Sunday}, cfg.ClosedDays)
	assert.Equal(t, time.Hour, cfg.AutoCancelInterval)
}

func TestLoadRequiresDSN(t *testing.T) {
	t.Setenv("DB_DSN", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost:5432/clinic")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("ENV", "production")
	t.Setenv("SLOT_GRANULARITY_MINUTES", "15")
	t.Setenv("CLINIC_CLOSED_DAYS", "Saturday, Sunday")
	t.Setenv("AUTO_CANCEL_INTERVAL", "15m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 15, cfg.GranularityMinutes)
	assert.Equal(t, []time.Weekday{time.Saturday, time.Sunday}, cfg.ClosedDays)
	assert.Equal(t, 15*time.Minute, cfg.AutoCancelInterval)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost:5432/clinic")

	t.Setenv("SLOT_GRANULARITY_MINUTES", "zero")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("SLOT_GRANULARITY_MINUTES", "-5")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("SLOT_GRANULARITY_MINUTES", "30")
	t.Setenv("CLINIC_CLOSED_DAYS", "someday")
	_, err = Load()
	assert.Error(t, err)
}
