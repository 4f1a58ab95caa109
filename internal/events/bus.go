// Package events provides the in-process event bus through which the
// health monitor notifies external observability and notification
// collaborators.
//
// Publishing never blocks: slow subscribers drop events rather than stall
// a monitoring loop. For stream-style consumption (batching, filtering,
// throttling) subscribers can bridge into a samber/ro Observable via
// Observe.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/ro"

	"github.com/modelmux/modelmux/internal/domain"
)

// Event kinds.
const (
	KindHealthCheck           = "health-check"
	KindProviderStatusChanged = "provider-status-changed"
)

// Event is an occurrence emitted by the monitoring subsystem.
type Event interface {
	EventKind() string
	OccurredAt() time.Time
}

// HealthCheck is emitted after every probe.
type HealthCheck struct {
	ProviderID     string             `json:"provider_id"`
	OrgID          string             `json:"org_id"`
	Status         domain.HealthState `json:"status"`
	ResponseTimeMS float64            `json:"response_time_ms"`
	ErrorRate      float64            `json:"error_rate"`
	Uptime         float64            `json:"uptime"`
	Timestamp      time.Time          `json:"timestamp"`
}

// EventKind returns "health-check".
func (e HealthCheck) EventKind() string { return KindHealthCheck }

// OccurredAt returns the probe timestamp.
func (e HealthCheck) OccurredAt() time.Time { return e.Timestamp }

// StatusChanged is emitted when the monitor flips a provider's lifecycle
// status (auto-deactivation or reactivation).
type StatusChanged struct {
	ProviderID string                `json:"provider_id"`
	OrgID      string                `json:"org_id"`
	OldStatus  domain.ProviderStatus `json:"old_status"`
	NewStatus  domain.ProviderStatus `json:"new_status"`
	Reason     string                `json:"reason"`
	Timestamp  time.Time             `json:"timestamp"`
}

// EventKind returns "provider-status-changed".
func (e StatusChanged) EventKind() string { return KindProviderStatusChanged }

// OccurredAt returns the transition timestamp.
func (e StatusChanged) OccurredAt() time.Time { return e.Timestamp }

// Bus fans events out to subscribers. Safe for concurrent use.
type Bus struct {
	subs   map[int]chan Event
	nextID int
	logger *zerolog.Logger
	closed bool
	mu     sync.Mutex
}

// NewBus creates an event bus.
func NewBus(logger *zerolog.Logger) *Bus {
	return &Bus{
		subs:   make(map[int]chan Event),
		logger: logger,
	}
}

// Publish delivers the event to every subscriber. Delivery is best-effort:
// a subscriber whose buffer is full misses the event.
func (b *Bus) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			if b.logger != nil {
				b.logger.Warn().
					Int("subscriber", id).
					Str("kind", event.EventKind()).
					Msg("subscriber buffer full, event dropped")
			}
		}
	}
}

// Subscribe registers a subscriber with the given buffer size and returns
// its channel plus an unsubscribe function. Unsubscribing closes the
// channel.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subs[id] = ch

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(ch)
			}
		})
	}
	return ch, unsubscribe
}

// Observe returns an Observable over a fresh subscription, for consumers
// that want stream operators (buffering, filtering) instead of a raw
// channel. The subscription lasts until the bus closes.
func (b *Bus) Observe(buffer int) ro.Observable[Event] {
	ch, _ := b.Subscribe(buffer)
	return ro.FromChannel(ch)
}

// Close shuts the bus down and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
