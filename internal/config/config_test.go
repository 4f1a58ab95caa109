package config_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/modelmux/modelmux/internal/config"
	"github.com/modelmux/modelmux/internal/domain"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"WARN", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		lc := config.LoggingConfig{Level: tt.level}
		assert.Equal(t, tt.want, lc.ParseLevel(), "level %q", tt.level)
	}
}

func TestOptionAccessors(t *testing.T) {
	t.Parallel()

	var server config.ServerConfig
	assert.True(t, server.GetTimeoutOption().IsAbsent())
	assert.Equal(t, ":8080", server.GetListen())

	server = config.ServerConfig{Listen: ":9090", TimeoutMS: 1500}
	assert.Equal(t, 1500*time.Millisecond, server.GetTimeoutOption().MustGet())
	assert.Equal(t, ":9090", server.GetListen())

	var health config.HealthConfig
	assert.True(t, health.IsEnabled(), "monitoring defaults to enabled")
	assert.True(t, health.GetIntervalOption().IsAbsent())

	health = config.HealthConfig{IntervalMS: 30_000}
	assert.Equal(t, 30*time.Second, health.GetIntervalOption().MustGet())

	metrics := config.MetricsConfig{RetentionDays: 7}
	assert.Equal(t, 7*24*time.Hour, metrics.GetRetentionOption().MustGet())
	assert.Equal(t, "modelmux-metrics.db", metrics.GetDatabasePath())
}

func TestProviderSeedToProvider(t *testing.T) {
	t.Parallel()

	seed := config.ProviderSeed{
		ID:       "p1",
		OrgID:    "org-1",
		Name:     "anthropic primary",
		Kind:     "anthropic",
		BaseURL:  "https://api.anthropic.com",
		APIKey:   "sk-test",
		Models:   []string{"claude-sonnet-4"},
		Priority: 800,
	}

	p := seed.ToProvider()
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, domain.KindAnthropic, p.Kind)
	assert.Equal(t, 800, p.Priority)
	assert.Equal(t, 1.0, p.CostMultiplier, "cost multiplier defaults to 1")
	assert.True(t, p.Active)
	assert.Equal(t, domain.StatusActive, p.Status)

	disabled := false
	seed.Enabled = &disabled
	p = seed.ToProvider()
	assert.False(t, p.Active)
	assert.Equal(t, domain.StatusDisabled, p.Status)
}
