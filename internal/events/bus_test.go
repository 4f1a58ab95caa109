package events_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelmux/modelmux/internal/domain"
	"github.com/modelmux/modelmux/internal/events"
)

func healthEvent(providerID string) events.HealthCheck {
	return events.HealthCheck{
		ProviderID: providerID,
		OrgID:      "org-1",
		Status:     domain.HealthHealthy,
		Timestamp:  time.Now(),
	}
}

func TestPublishReachesAllSubscribers(t *testing.T) {
	t.Parallel()

	bus := events.NewBus(nil)
	t.Cleanup(bus.Close)

	ch1, unsub1 := bus.Subscribe(4)
	ch2, unsub2 := bus.Subscribe(4)
	t.Cleanup(unsub1)
	t.Cleanup(unsub2)

	bus.Publish(healthEvent("p1"))

	for _, ch := range []<-chan events.Event{ch1, ch2} {
		select {
		case ev := <-ch:
			assert.Equal(t, events.KindHealthCheck, ev.EventKind())
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()

	bus := events.NewBus(nil)
	t.Cleanup(bus.Close)

	ch, unsub := bus.Subscribe(1)
	unsub()
	unsub() // idempotent

	_, open := <-ch
	assert.False(t, open, "channel should be closed after unsubscribe")

	// Publishing after unsubscribe must not panic.
	bus.Publish(healthEvent("p1"))
}

func TestFullSubscriberDropsEvent(t *testing.T) {
	t.Parallel()

	bus := events.NewBus(nil)
	t.Cleanup(bus.Close)

	ch, unsub := bus.Subscribe(1)
	t.Cleanup(unsub)

	bus.Publish(healthEvent("p1"))
	bus.Publish(healthEvent("p2")) // buffer full, dropped

	ev := <-ch
	hc, ok := ev.(events.HealthCheck)
	require.True(t, ok)
	assert.Equal(t, "p1", hc.ProviderID)

	select {
	case ev := <-ch:
		t.Fatalf("expected drop, got %v", ev)
	default:
	}
}

func TestStatusChangedPayload(t *testing.T) {
	t.Parallel()

	bus := events.NewBus(nil)
	t.Cleanup(bus.Close)

	ch, unsub := bus.Subscribe(1)
	t.Cleanup(unsub)

	bus.Publish(events.StatusChanged{
		ProviderID: "p1",
		OrgID:      "org-1",
		OldStatus:  domain.StatusActive,
		NewStatus:  domain.StatusError,
		Reason:     "Consecutive health check failures",
		Timestamp:  time.Now(),
	})

	ev := <-ch
	sc, ok := ev.(events.StatusChanged)
	require.True(t, ok)
	assert.Equal(t, events.KindProviderStatusChanged, sc.EventKind())
	assert.Equal(t, domain.StatusError, sc.NewStatus)
	assert.Equal(t, "Consecutive health check failures", sc.Reason)
}

func TestCloseClosesSubscribers(t *testing.T) {
	t.Parallel()

	bus := events.NewBus(nil)
	ch, _ := bus.Subscribe(1)

	bus.Close()
	bus.Close() // idempotent

	_, open := <-ch
	assert.False(t, open)
}
