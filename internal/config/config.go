// Package config provides configuration loading, validation, and
// hot-reload for modelmux.
package config

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/mo"

	"github.com/modelmux/modelmux/internal/domain"
)

// RuntimeConfig is the interface components use to observe configuration
// that supports hot-reload. Holding a direct *Config pointer would go
// stale after a reload; calling Get per operation always observes the
// latest snapshot.
type RuntimeConfig interface {
	Get() *Config
}

// Log level constants.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Config is the complete modelmux configuration.
type Config struct {
	Server    ServerConfig   `yaml:"server"`
	Logging   LoggingConfig  `yaml:"logging"`
	Health    HealthConfig   `yaml:"health"`
	Breaker   BreakerConfig  `yaml:"breaker"`
	Cache     CacheConfig    `yaml:"cache"`
	Metrics   MetricsConfig  `yaml:"metrics"`
	Providers []ProviderSeed `yaml:"providers"`
}

// ServerConfig defines the status HTTP server settings.
type ServerConfig struct {
	Listen    string `yaml:"listen"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

// GetListen returns the listen address with default fallback.
func (s *ServerConfig) GetListen() string {
	if s.Listen == "" {
		return ":8080"
	}
	return s.Listen
}

// GetTimeoutOption returns the request timeout as an Option.
// Returns None if TimeoutMS is zero (use default).
func (s *ServerConfig) GetTimeoutOption() mo.Option[time.Duration] {
	if s.TimeoutMS <= 0 {
		return mo.None[time.Duration]()
	}
	return mo.Some(time.Duration(s.TimeoutMS) * time.Millisecond)
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
	Pretty bool   `yaml:"pretty"` // colored console output
}

// ParseLevel converts the configured level to zerolog.Level.
// Returns zerolog.InfoLevel if the level string is invalid.
func (l *LoggingConfig) ParseLevel() zerolog.Level {
	switch strings.ToLower(l.Level) {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// HealthConfig defines health monitoring behavior.
type HealthConfig struct {
	Enabled        *bool `yaml:"enabled"`
	IntervalMS     int   `yaml:"interval_ms"`
	ProbeTimeoutMS int   `yaml:"probe_timeout_ms"`
}

// IsEnabled reports whether monitoring runs. Defaults to true when unset.
func (h *HealthConfig) IsEnabled() bool {
	return h.Enabled == nil || *h.Enabled
}

// GetIntervalOption returns the probe interval as an Option.
// Returns None if IntervalMS is zero (use default).
func (h *HealthConfig) GetIntervalOption() mo.Option[time.Duration] {
	if h.IntervalMS <= 0 {
		return mo.None[time.Duration]()
	}
	return mo.Some(time.Duration(h.IntervalMS) * time.Millisecond)
}

// GetProbeTimeoutOption returns the probe timeout as an Option.
// Returns None if ProbeTimeoutMS is zero (use default).
func (h *HealthConfig) GetProbeTimeoutOption() mo.Option[time.Duration] {
	if h.ProbeTimeoutMS <= 0 {
		return mo.None[time.Duration]()
	}
	return mo.Some(time.Duration(h.ProbeTimeoutMS) * time.Millisecond)
}

// BreakerConfig defines circuit breaker tuning.
type BreakerConfig struct {
	FailureThreshold int `yaml:"failure_threshold"`
	OpenWindowMS     int `yaml:"open_window_ms"`
}

// GetOpenWindowOption returns the open window as an Option.
// Returns None if OpenWindowMS is zero (use default).
func (b *BreakerConfig) GetOpenWindowOption() mo.Option[time.Duration] {
	if b.OpenWindowMS <= 0 {
		return mo.None[time.Duration]()
	}
	return mo.Some(time.Duration(b.OpenWindowMS) * time.Millisecond)
}

// CacheConfig defines cache tuning.
type CacheConfig struct {
	RuleTTLMS int `yaml:"rule_ttl_ms"`
}

// GetRuleTTLOption returns the rule cache TTL as an Option.
// Returns None if RuleTTLMS is zero (use default).
func (c *CacheConfig) GetRuleTTLOption() mo.Option[time.Duration] {
	if c.RuleTTLMS <= 0 {
		return mo.None[time.Duration]()
	}
	return mo.Some(time.Duration(c.RuleTTLMS) * time.Millisecond)
}

// MetricsConfig defines the metrics aggregation jobs.
type MetricsConfig struct {
	Enabled          *bool  `yaml:"enabled"`
	DatabasePath     string `yaml:"database_path"`
	SnapshotSchedule string `yaml:"snapshot_schedule"` // cron expression
	PruneSchedule    string `yaml:"prune_schedule"`    // cron expression
	RetentionDays    int    `yaml:"retention_days"`
}

// IsEnabled reports whether aggregation runs. Defaults to true when unset.
func (m *MetricsConfig) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// GetDatabasePath returns the SQLite path with default fallback.
func (m *MetricsConfig) GetDatabasePath() string {
	if m.DatabasePath == "" {
		return "modelmux-metrics.db"
	}
	return m.DatabasePath
}

// GetRetentionOption returns the retention window as an Option.
// Returns None if RetentionDays is zero (use default).
func (m *MetricsConfig) GetRetentionOption() mo.Option[time.Duration] {
	if m.RetentionDays <= 0 {
		return mo.None[time.Duration]()
	}
	return mo.Some(time.Duration(m.RetentionDays) * 24 * time.Hour)
}

// ProviderSeed declares a provider record loaded into the store at
// startup. API keys support ${ENV_VAR} expansion at load time.
type ProviderSeed struct {
	ID             string   `yaml:"id"`
	OrgID          string   `yaml:"org_id"`
	Name           string   `yaml:"name"`
	Kind           string   `yaml:"kind"`
	BaseURL        string   `yaml:"base_url"`
	APIKey         string   `yaml:"api_key"`
	TimeoutMS      int      `yaml:"timeout_ms"`
	MaxRetries     int      `yaml:"max_retries"`
	RateLimitRPM   int      `yaml:"rate_limit_rpm"`
	Models         []string `yaml:"models"`
	Priority       int      `yaml:"priority"`
	CostMultiplier float64  `yaml:"cost_multiplier"`
	Enabled        *bool    `yaml:"enabled"`
}

// IsEnabled reports whether the seed is active. Defaults to true when unset.
func (p *ProviderSeed) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// ToProvider converts the seed into a provider record ready for the store.
func (p *ProviderSeed) ToProvider() *domain.Provider {
	status := domain.StatusActive
	if !p.IsEnabled() {
		status = domain.StatusDisabled
	}
	cost := p.CostMultiplier
	if cost == 0 {
		cost = 1
	}
	return &domain.Provider{
		ID:    p.ID,
		OrgID: p.OrgID,
		Name:  p.Name,
		Kind:  domain.ProviderKind(p.Kind),
		Config: domain.ProviderConfig{
			BaseURL:      p.BaseURL,
			APIKey:       p.APIKey,
			TimeoutMS:    p.TimeoutMS,
			MaxRetries:   p.MaxRetries,
			RateLimitRPM: p.RateLimitRPM,
			Models:       p.Models,
		},
		Priority:       p.Priority,
		CostMultiplier: cost,
		Active:         p.IsEnabled(),
		Status:         status,
	}
}
