// Package breaker implements per-provider circuit breaking for modelmux.
//
// Each provider has an independent state machine:
//
//	CLOSED    -> OPEN       after FailureThreshold recorded failures
//	OPEN      -> HALF-OPEN  lazily, on the first IsOpen query after the
//	                        open window elapses
//	HALF-OPEN -> CLOSED     on the next recorded success
//
// Successes recorded while CLOSED decrement the failure counter (floor 0),
// so isolated failures heal under normal traffic without ever tripping the
// circuit. State is deliberately volatile: it rebuilds from live traffic
// after a restart, and every provider starts CLOSED.
package breaker

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// State is the circuit breaker state.
type State int

// Circuit breaker states.
const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Defaults fixed by the routing design.
const (
	DefaultFailureThreshold = 5
	DefaultOpenWindow       = 60 * time.Second
)

// StateChangeFunc observes circuit transitions, for logging and telemetry.
type StateChangeFunc func(providerID string, from, to State)

// Manager holds one circuit per provider id. Every mutation of a circuit
// happens under that circuit's own lock, so concurrent success/failure
// recording for the same provider is serialized while different providers
// never contend.
type Manager struct {
	circuits      map[string]*circuit
	threshold     int
	openWindow    time.Duration
	now           func() time.Time
	onStateChange StateChangeFunc
	logger        *zerolog.Logger
	mu            sync.RWMutex
}

// circuit is the per-provider state. Guarded by its own mutex.
type circuit struct {
	state       State
	failures    int
	lastFailure time.Time
	nextAttempt time.Time
	mu          sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithThreshold overrides the failure threshold.
func WithThreshold(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.threshold = n
		}
	}
}

// WithOpenWindow overrides how long a circuit stays open before a trial
// is permitted.
func WithOpenWindow(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.openWindow = d
		}
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithStateChange registers a transition observer.
func WithStateChange(fn StateChangeFunc) Option {
	return func(m *Manager) {
		m.onStateChange = fn
	}
}

// NewManager creates a Manager with the default threshold and open window.
func NewManager(logger *zerolog.Logger, opts ...Option) *Manager {
	m := &Manager{
		circuits:   make(map[string]*circuit),
		threshold:  DefaultFailureThreshold,
		openWindow: DefaultOpenWindow,
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// getOrCreate returns the circuit for a provider, creating it if necessary.
func (m *Manager) getOrCreate(providerID string) *circuit {
	m.mu.RLock()
	c, exists := m.circuits[providerID]
	m.mu.RUnlock()
	if exists {
		return c
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, exists = m.circuits[providerID]; exists {
		return c
	}
	c = &circuit{state: StateClosed}
	m.circuits[providerID] = c
	return c
}

// RecordSuccess records a successful provider call. In HALF-OPEN the
// circuit closes and the counter resets; in CLOSED the failure counter
// decrements toward zero.
func (m *Manager) RecordSuccess(providerID string) {
	c := m.getOrCreate(providerID)

	c.mu.Lock()
	from := c.state
	switch c.state {
	case StateHalfOpen:
		c.state = StateClosed
		c.failures = 0
	case StateClosed:
		if c.failures > 0 {
			c.failures--
		}
	case StateOpen:
		// Successes cannot be observed while open; the routing engine
		// refuses open providers. Nothing to record.
	}
	to := c.state
	c.mu.Unlock()

	m.transitioned(providerID, from, to)
	if m.logger != nil {
		m.logger.Debug().
			Str("provider", providerID).
			Str("state", to.String()).
			Msg("recorded success")
	}
}

// RecordFailure records a failed provider call. Reaching the failure
// threshold while CLOSED opens the circuit for the open window.
func (m *Manager) RecordFailure(providerID string) {
	c := m.getOrCreate(providerID)

	c.mu.Lock()
	from := c.state
	c.failures++
	c.lastFailure = m.now()
	if c.failures >= m.threshold && c.state == StateClosed {
		c.state = StateOpen
		c.nextAttempt = m.now().Add(m.openWindow)
	}
	to := c.state
	failures := c.failures
	c.mu.Unlock()

	m.transitioned(providerID, from, to)
	if m.logger != nil {
		event := m.logger.Debug()
		if to == StateOpen && from != StateOpen {
			event = m.logger.Warn()
		}
		event.
			Str("provider", providerID).
			Str("state", to.String()).
			Int("failures", failures).
			Msg("recorded failure")
	}
}

// IsOpen reports whether the provider's circuit currently refuses traffic.
// An OPEN circuit whose next-attempt time has passed transitions to
// HALF-OPEN and reports false, letting a single trial through.
func (m *Manager) IsOpen(providerID string) bool {
	c := m.getOrCreate(providerID)

	c.mu.Lock()
	from := c.state
	if c.state == StateOpen && !m.now().Before(c.nextAttempt) {
		c.state = StateHalfOpen
	}
	open := c.state == StateOpen
	to := c.state
	c.mu.Unlock()

	m.transitioned(providerID, from, to)
	return open
}

// StateOf returns the provider's current state without side effects.
// Providers with no recorded traffic are CLOSED.
func (m *Manager) StateOf(providerID string) State {
	m.mu.RLock()
	c, exists := m.circuits[providerID]
	m.mu.RUnlock()
	if !exists {
		return StateClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Failures returns the provider's current failure count.
func (m *Manager) Failures(providerID string) int {
	m.mu.RLock()
	c, exists := m.circuits[providerID]
	m.mu.RUnlock()
	if !exists {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures
}

// AllStates returns a snapshot of every tracked circuit's state.
func (m *Manager) AllStates() map[string]State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	states := make(map[string]State, len(m.circuits))
	for id, c := range m.circuits {
		c.mu.Lock()
		states[id] = c.state
		c.mu.Unlock()
	}
	return states
}

func (m *Manager) transitioned(providerID string, from, to State) {
	if from == to {
		return
	}
	if m.logger != nil {
		event := m.logger.Info()
		if to == StateOpen {
			event = m.logger.Warn()
		}
		event.
			Str("provider", providerID).
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("circuit breaker state change")
	}
	if m.onStateChange != nil {
		m.onStateChange(providerID, from, to)
	}
}
