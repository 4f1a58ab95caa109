// Package metrics turns the health monitor's rolling statistics into a
// persisted time series.
//
// The aggregator runs two cron jobs: a snapshot job that writes one
// metric record per monitored provider, and a retention job that prunes
// records older than the retention window. Both jobs log failures and
// carry on; metric persistence must never disturb monitoring or routing.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/modelmux/modelmux/internal/domain"
	"github.com/modelmux/modelmux/internal/health"
	"github.com/modelmux/modelmux/internal/store"
)

// Aggregation defaults.
const (
	DefaultSnapshotSchedule = "@every 5m"
	DefaultPruneSchedule    = "@every 1h"
	DefaultRetention        = 30 * 24 * time.Hour
)

// StatsSource yields the providers under monitoring and their rolling
// statistics. Satisfied by the health monitor.
type StatsSource interface {
	StatsFor(providerID string) (health.Stats, bool)
}

// Target identifies one provider whose statistics are snapshotted.
type Target struct {
	ProviderID string
	OrgID      string
}

// Aggregator periodically snapshots provider statistics into the metric
// store and prunes old records.
type Aggregator struct {
	metrics store.MetricStore
	source  StatsSource
	targets func() []Target
	logger  zerolog.Logger

	snapshotSchedule string
	pruneSchedule    string
	retention        time.Duration
	now              func() time.Time

	cron *cron.Cron
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithSchedules overrides the snapshot and prune cron expressions.
func WithSchedules(snapshot, prune string) Option {
	return func(a *Aggregator) {
		if snapshot != "" {
			a.snapshotSchedule = snapshot
		}
		if prune != "" {
			a.pruneSchedule = prune
		}
	}
}

// WithRetention overrides how long metric records are kept.
func WithRetention(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.retention = d
		}
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

// NewAggregator creates an aggregator. targets supplies the providers to
// snapshot on each run, so membership follows the monitor without any
// registration dance.
func NewAggregator(
	metrics store.MetricStore,
	source StatsSource,
	targets func() []Target,
	logger zerolog.Logger,
	opts ...Option,
) *Aggregator {
	a := &Aggregator{
		metrics:          metrics,
		source:           source,
		targets:          targets,
		logger:           logger,
		snapshotSchedule: DefaultSnapshotSchedule,
		pruneSchedule:    DefaultPruneSchedule,
		retention:        DefaultRetention,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start registers and launches the cron jobs.
func (a *Aggregator) Start(ctx context.Context) error {
	c := cron.New()

	if _, err := c.AddFunc(a.snapshotSchedule, func() { a.Snapshot(ctx) }); err != nil {
		return fmt.Errorf("metrics: schedule snapshot job: %w", err)
	}
	if _, err := c.AddFunc(a.pruneSchedule, func() { a.Prune(ctx) }); err != nil {
		return fmt.Errorf("metrics: schedule prune job: %w", err)
	}

	c.Start()
	a.cron = c

	a.logger.Info().
		Str("snapshot_schedule", a.snapshotSchedule).
		Str("prune_schedule", a.pruneSchedule).
		Dur("retention", a.retention).
		Msg("metrics aggregator started")
	return nil
}

// Stop halts the cron scheduler and waits for running jobs.
func (a *Aggregator) Stop() {
	if a.cron == nil {
		return
	}
	<-a.cron.Stop().Done()
	a.logger.Info().Msg("metrics aggregator stopped")
}

// Snapshot writes one metric record per monitored provider that has at
// least one recorded probe. Providers without observations are skipped:
// an all-zero row carries no information and would skew rate queries.
func (a *Aggregator) Snapshot(ctx context.Context) {
	now := a.now()
	written := 0

	for _, target := range a.targets() {
		st, ok := a.source.StatsFor(target.ProviderID)
		if !ok || st.Total == 0 {
			continue
		}

		rec := domain.MetricRecord{
			ID:            uuid.NewString(),
			ProviderID:    target.ProviderID,
			OrgID:         target.OrgID,
			Timestamp:     now,
			TotalRequests: int64(st.Total),
			SuccessCount:  int64(st.Successes),
			FailureCount:  int64(st.Failures),
			AvgResponseMS: st.AvgResponseTimeMS,
			ErrorRate:     st.ErrorRate(),
			ThroughputRPM: throughputRPM(st, now),
			Extra: map[string]any{
				"uptime":               st.Uptime(),
				"consecutive_failures": st.ConsecutiveFailures,
				"last_success":         st.LastSuccess,
				"last_failure":         st.LastFailure,
			},
		}

		if err := a.metrics.InsertMetric(ctx, rec); err != nil {
			a.logger.Error().
				Err(err).
				Str("provider", target.ProviderID).
				Msg("failed to persist metric snapshot")
			continue
		}
		written++
	}

	a.logger.Debug().Int("records", written).Msg("metric snapshot completed")
}

// throughputRPM is the provider's probe rate in checks per minute over
// its observation window. The window is floored at one minute so a
// freshly observed provider does not report an inflated rate.
func throughputRPM(st health.Stats, now time.Time) float64 {
	window := now.Sub(st.FirstProbe)
	if window < time.Minute {
		window = time.Minute
	}
	return float64(st.Total) / window.Minutes()
}

// Prune deletes records older than the retention window.
func (a *Aggregator) Prune(ctx context.Context) {
	cutoff := a.now().Add(-a.retention)
	removed, err := a.metrics.PruneBefore(ctx, cutoff)
	if err != nil {
		a.logger.Error().Err(err).Msg("metric pruning failed")
		return
	}
	if removed > 0 {
		a.logger.Info().
			Int64("removed", removed).
			Time("cutoff", cutoff).
			Msg("pruned metric records")
	}
}
