package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DEFAULT_REGION", "")
	t.Setenv("REFRESH_CRON", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.HasDatabase())
	assert.Equal(t, "europe", cfg.DefaultRegion)
	assert.Equal(t, 1.0, cfg.Region().UTCOffsetHours)
	assert.Equal(t, "0 * * * *", cfg.RefreshCron)
	assert.Equal(t, time.Hour, cfg.RecomputeInterval)
	assert.Equal(t, "eventclock.db", cfg.StateDBPath)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DEFAULT_REGION", "ASIA")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("EVENTS_API_RPM", "not-a-number")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8.0, cfg.Region().UTCOffsetHours)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowOrigins)
	assert.Equal(t, 30, cfg.EventsAPIRPM)
	assert.False(t, cfg.RateLimitEnabled)
}

func TestLoadRejectsUnknownRegion(t *testing.T) {
	t.Setenv("DEFAULT_REGION", "oceania")
	_, err := Load()
	assert.ErrorContains(t, err, "america, asia, europe")
}

func TestRegionRegistry(t *testing.T) {
	for name, p := range RegionRegistry {
		assert.Equal(t, name, p.Name)
		assert.NoError(t, p.Validate(), name)
		assert.Equal(t, 4, p.ResetHour)
	}
	_, ok := LookupRegion(" America ")
	assert.True(t, ok)
}
