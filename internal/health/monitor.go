// Package health implements periodic provider health monitoring.
//
// A single scheduler goroutine owns a min-heap of probe deadlines. When a
// provider's deadline passes, the scheduler reschedules it one interval
// out and spawns a probe goroutine; at most one probe per provider is in
// flight at a time, so a slow endpoint delays only its own checks. Probe
// outcomes feed the rolling statistics, the circuit breaker, the cached
// result consumed by organization summaries, and the persisted snapshot
// on the provider record.
//
// The monitor also owns provider lifecycle automation: a provider that is
// unhealthy with enough consecutive failures is deactivated, and a
// deactivated provider whose probes classify healthy again is reactivated.
package health

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/modelmux/modelmux/internal/adapter"
	"github.com/modelmux/modelmux/internal/breaker"
	"github.com/modelmux/modelmux/internal/cache"
	"github.com/modelmux/modelmux/internal/domain"
	"github.com/modelmux/modelmux/internal/events"
	"github.com/modelmux/modelmux/internal/store"
	"github.com/modelmux/modelmux/internal/telemetry"
)

// Monitoring defaults.
const (
	DefaultInterval     = 2 * time.Minute
	DefaultResultTTL    = 5 * time.Minute
	DefaultProbeTimeout = 10 * time.Second

	// DeactivateAfterFailures is how many consecutive failed probes an
	// unhealthy provider survives before it is taken out of rotation.
	DeactivateAfterFailures = 3
)

// Status change reasons recorded on lifecycle transitions.
const (
	deactivationReason = "Consecutive health check failures"
	reactivationReason = "Health checks recovered"
)

// entry is one provider's slot in the probe schedule.
type entry struct {
	providerID string
	orgID      string
	due        time.Time
	index      int
}

// schedule is a min-heap of entries ordered by due time.
type schedule []*entry

func (s schedule) Len() int            { return len(s) }
func (s schedule) Less(i, j int) bool  { return s[i].due.Before(s[j].due) }
func (s schedule) Swap(i, j int)       { s[i], s[j] = s[j], s[i]; s[i].index = i; s[j].index = j }
func (s *schedule) Push(x any)         { e := x.(*entry); e.index = len(*s); *s = append(*s, e) }
func (s *schedule) Pop() any {
	old := *s
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*s = old[:n-1]
	return e
}

// Monitor probes registered providers and maintains their health state.
type Monitor struct {
	store    store.ProviderStore
	adapter  adapter.Adapter
	breakers *breaker.Manager
	bus      *events.Bus
	results  *cache.TTL[domain.HealthCheckResult]
	metrics  *telemetry.Metrics
	logger   zerolog.Logger

	interval     time.Duration
	probeTimeout time.Duration
	now          func() time.Time

	mu       sync.Mutex
	sched    schedule
	entries  map[string]*entry
	stats    map[string]*Stats
	inFlight map[string]bool

	wake   chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval overrides the probe interval.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithProbeTimeout overrides the default probe timeout. A provider whose
// configuration carries its own timeout still takes precedence.
func WithProbeTimeout(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.probeTimeout = d
		}
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		m.now = now
	}
}

// NewMonitor creates a health monitor. bus and metrics may be nil.
func NewMonitor(
	st store.ProviderStore,
	ad adapter.Adapter,
	breakers *breaker.Manager,
	bus *events.Bus,
	metrics *telemetry.Metrics,
	logger zerolog.Logger,
	opts ...Option,
) (*Monitor, error) {
	results, err := cache.NewTTL[domain.HealthCheckResult](DefaultResultTTL, logger)
	if err != nil {
		return nil, fmt.Errorf("health: create result cache: %w", err)
	}

	m := &Monitor{
		store:        st,
		adapter:      ad,
		breakers:     breakers,
		bus:          bus,
		results:      results,
		metrics:      metrics,
		logger:       logger,
		interval:     DefaultInterval,
		probeTimeout: DefaultProbeTimeout,
		now:          time.Now,
		entries:      make(map[string]*entry),
		stats:        make(map[string]*Stats),
		inFlight:     make(map[string]bool),
		wake:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Start launches the scheduler goroutine. Call Stop to shut down.
func (m *Monitor) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	m.wg.Add(1)
	go m.run(ctx)
	m.logger.Info().Dur("interval", m.interval).Msg("health monitor started")
}

// Stop shuts the scheduler down, waits for in-flight probes, and releases
// the result cache.
func (m *Monitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	m.results.Close()
	m.logger.Info().Msg("health monitor stopped")
}

// StartMonitoring registers a provider for periodic probing. The first
// probe is due immediately. Idempotent per provider.
func (m *Monitor) StartMonitoring(providerID, orgID string) {
	m.mu.Lock()
	if _, exists := m.entries[providerID]; exists {
		m.mu.Unlock()
		return
	}
	e := &entry{providerID: providerID, orgID: orgID, due: m.now()}
	m.entries[providerID] = e
	heap.Push(&m.sched, e)
	if m.stats[providerID] == nil {
		m.stats[providerID] = &Stats{}
	}
	monitored := len(m.entries)
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.MonitoredProviders.Set(float64(monitored))
	}
	m.poke()

	m.logger.Info().
		Str("provider", providerID).
		Str("org", orgID).
		Msg("started health monitoring")
}

// StopMonitoring removes a provider from the schedule and drops its
// statistics and cached result. Idempotent.
func (m *Monitor) StopMonitoring(providerID string) {
	m.mu.Lock()
	e, exists := m.entries[providerID]
	if !exists {
		m.mu.Unlock()
		return
	}
	heap.Remove(&m.sched, e.index)
	delete(m.entries, providerID)
	delete(m.stats, providerID)
	monitored := len(m.entries)
	m.mu.Unlock()

	m.results.Invalidate(providerID)
	if m.metrics != nil {
		m.metrics.MonitoredProviders.Set(float64(monitored))
	}

	m.logger.Info().Str("provider", providerID).Msg("stopped health monitoring")
}

// Monitored returns how many providers are currently scheduled.
func (m *Monitor) Monitored() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// LastResult returns the provider's cached probe result, if one is still
// within its TTL.
func (m *Monitor) LastResult(providerID string) (domain.HealthCheckResult, bool) {
	return m.results.Get(providerID)
}

// StatsFor returns a copy of the provider's rolling statistics.
func (m *Monitor) StatsFor(providerID string) (Stats, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.stats[providerID]
	if !ok {
		return Stats{}, false
	}
	return *st, true
}

// run is the scheduler loop. It pops every due entry, reschedules it one
// interval out, spawns its probe, then sleeps until the next deadline or
// until a registration wakes it.
func (m *Monitor) run(ctx context.Context) {
	defer m.wg.Done()

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		wait := m.dispatchDue(ctx)

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			return
		case <-m.wake:
		case <-timer.C:
		}
	}
}

// dispatchDue launches probes for every due entry and returns how long
// the scheduler should sleep.
func (m *Monitor) dispatchDue(ctx context.Context) time.Duration {
	m.mu.Lock()
	now := m.now()

	var due []*entry
	for len(m.sched) > 0 && !m.sched[0].due.After(now) {
		e := heap.Pop(&m.sched).(*entry)
		e.due = now.Add(m.interval)
		heap.Push(&m.sched, e)
		due = append(due, e)
	}

	wait := time.Hour
	if len(m.sched) > 0 {
		wait = m.sched[0].due.Sub(now)
	}
	m.mu.Unlock()

	for _, e := range due {
		m.spawnProbe(ctx, e.providerID, e.orgID)
	}
	return wait
}

// spawnProbe runs one probe in its own goroutine, unless a probe for the
// same provider is still in flight.
func (m *Monitor) spawnProbe(ctx context.Context, providerID, orgID string) {
	m.mu.Lock()
	if m.inFlight[providerID] {
		m.mu.Unlock()
		m.logger.Debug().Str("provider", providerID).Msg("probe still in flight, skipping")
		return
	}
	m.inFlight[providerID] = true
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() {
			m.mu.Lock()
			delete(m.inFlight, providerID)
			m.mu.Unlock()
		}()

		if _, err := m.CheckNow(ctx, providerID, orgID); err != nil {
			m.logger.Warn().
				Err(err).
				Str("provider", providerID).
				Msg("health probe aborted")
		}
	}()
}

// CheckNow probes a provider once, synchronously, and applies the full
// outcome pipeline: statistics, circuit breaker, result cache, snapshot
// persistence, lifecycle automation, and event publication. An error is
// returned only when the provider cannot be probed at all; a failing
// endpoint is a valid result, not an error.
func (m *Monitor) CheckNow(ctx context.Context, providerID, orgID string) (domain.HealthCheckResult, error) {
	p, err := m.store.GetProvider(ctx, providerID, orgID)
	if err != nil {
		if errors.Is(err, store.ErrProviderNotFound) {
			m.StopMonitoring(providerID)
		}
		return domain.HealthCheckResult{}, fmt.Errorf("health: load provider: %w", err)
	}

	timeout := m.probeTimeout
	if p.Config.TimeoutMS > 0 {
		timeout = time.Duration(p.Config.TimeoutMS) * time.Millisecond
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	start := m.now()
	probeErr := m.adapter.TestConnection(probeCtx, p.Kind, p.Config)
	elapsed := float64(m.now().Sub(start)) / float64(time.Millisecond)
	cancel()

	checkedAt := m.now()

	m.mu.Lock()
	st := m.stats[providerID]
	if st == nil {
		st = &Stats{}
		// Rolling state belongs to scheduled providers only. A probe
		// finishing after StopMonitoring gets a one-shot view and leaves
		// nothing behind.
		if _, scheduled := m.entries[providerID]; scheduled {
			m.stats[providerID] = st
		}
	}
	if probeErr != nil {
		st.RecordFailure(checkedAt)
	} else {
		st.RecordSuccess(elapsed, checkedAt)
	}
	snapshot := *st
	m.mu.Unlock()

	if probeErr != nil {
		m.breakers.RecordFailure(providerID)
	} else {
		m.breakers.RecordSuccess(providerID)
	}

	// A probe that failed outright is unhealthy regardless of how good
	// the rolling statistics still look.
	status := snapshot.Classify()
	if probeErr != nil {
		status = domain.HealthUnhealthy
	}

	result := domain.HealthCheckResult{
		ProviderID:     providerID,
		OrgID:          orgID,
		Status:         status,
		ResponseTimeMS: snapshot.AvgResponseTimeMS,
		ErrorRate:      snapshot.ErrorRate(),
		Uptime:         snapshot.Uptime(),
		Timestamp:      checkedAt,
	}
	if probeErr != nil {
		result.Error = probeErr.Error()
	}

	m.results.Set(providerID, result)
	if m.metrics != nil {
		m.metrics.Probes.WithLabelValues(string(status)).Inc()
	}

	m.persist(ctx, p, result, snapshot)

	if m.bus != nil {
		m.bus.Publish(events.HealthCheck{
			ProviderID:     providerID,
			OrgID:          orgID,
			Status:         status,
			ResponseTimeMS: result.ResponseTimeMS,
			ErrorRate:      result.ErrorRate,
			Uptime:         result.Uptime,
			Timestamp:      checkedAt,
		})
	}

	m.logger.Debug().
		Str("provider", providerID).
		Str("status", string(status)).
		Float64("response_time_ms", elapsed).
		Int("consecutive_failures", snapshot.ConsecutiveFailures).
		Msg("health probe completed")

	return result, nil
}

// persist writes the health snapshot onto the provider record and applies
// lifecycle automation. Persistence failures are logged, never propagated:
// a storage hiccup must not take the monitoring loop down.
func (m *Monitor) persist(ctx context.Context, p *domain.Provider, result domain.HealthCheckResult, st Stats) {
	p.LastHealth = result.Snapshot()

	old := p.Status
	reason := ""
	switch {
	case result.Status == domain.HealthUnhealthy &&
		st.ConsecutiveFailures >= DeactivateAfterFailures &&
		p.Status == domain.StatusActive:
		p.Status = domain.StatusError
		reason = deactivationReason
	case result.Status == domain.HealthHealthy && p.Status == domain.StatusError:
		p.Status = domain.StatusActive
		reason = reactivationReason
	}

	if err := m.store.SaveProvider(ctx, p); err != nil {
		m.logger.Error().
			Err(err).
			Str("provider", p.ID).
			Msg("failed to persist health snapshot")
		return
	}

	if reason == "" {
		return
	}

	m.logger.Warn().
		Str("provider", p.ID).
		Str("from", string(old)).
		Str("to", string(p.Status)).
		Str("reason", reason).
		Msg("provider status changed")

	if m.bus != nil {
		m.bus.Publish(events.StatusChanged{
			ProviderID: p.ID,
			OrgID:      p.OrgID,
			OldStatus:  old,
			NewStatus:  p.Status,
			Reason:     reason,
			Timestamp:  result.Timestamp,
		})
	}
}

func (m *Monitor) poke() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}
