package breaker_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelmux/modelmux/internal/breaker"
)

const testProvider = "prov-1"

// fakeClock is a settable time source for driving the open window.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestManagerStartsClosed(t *testing.T) {
	t.Parallel()

	m := breaker.NewManager(nil)

	assert.Equal(t, breaker.StateClosed, m.StateOf(testProvider))
	assert.False(t, m.IsOpen(testProvider))
}

func TestOpensAfterThresholdFailures(t *testing.T) {
	t.Parallel()

	m := breaker.NewManager(nil)

	for i := 0; i < breaker.DefaultFailureThreshold-1; i++ {
		m.RecordFailure(testProvider)
		require.False(t, m.IsOpen(testProvider), "circuit open after only %d failures", i+1)
	}

	m.RecordFailure(testProvider)

	assert.True(t, m.IsOpen(testProvider))
	assert.Equal(t, breaker.StateOpen, m.StateOf(testProvider))
}

func TestHalfOpenAfterWindowThenSuccessCloses(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	m := breaker.NewManager(nil, breaker.WithClock(clock.Now))

	for i := 0; i < breaker.DefaultFailureThreshold; i++ {
		m.RecordFailure(testProvider)
	}
	require.True(t, m.IsOpen(testProvider))

	// Just before the window elapses the circuit is still open.
	clock.Advance(breaker.DefaultOpenWindow - time.Second)
	require.True(t, m.IsOpen(testProvider))

	// At the window boundary the query itself transitions to half-open.
	clock.Advance(time.Second)
	assert.False(t, m.IsOpen(testProvider))
	assert.Equal(t, breaker.StateHalfOpen, m.StateOf(testProvider))

	m.RecordSuccess(testProvider)
	assert.Equal(t, breaker.StateClosed, m.StateOf(testProvider))
	assert.Zero(t, m.Failures(testProvider))
}

func TestSuccessHealsClosedCircuit(t *testing.T) {
	t.Parallel()

	m := breaker.NewManager(nil)

	m.RecordFailure(testProvider)
	m.RecordFailure(testProvider)
	assert.Equal(t, 2, m.Failures(testProvider))

	m.RecordSuccess(testProvider)
	assert.Equal(t, 1, m.Failures(testProvider))

	m.RecordSuccess(testProvider)
	m.RecordSuccess(testProvider) // floor at zero
	assert.Zero(t, m.Failures(testProvider))
	assert.Equal(t, breaker.StateClosed, m.StateOf(testProvider))
}

func TestFailureAfterHalfOpenReopens(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	m := breaker.NewManager(nil, breaker.WithClock(clock.Now), breaker.WithThreshold(3))

	for i := 0; i < 3; i++ {
		m.RecordFailure(testProvider)
	}
	clock.Advance(breaker.DefaultOpenWindow)
	require.False(t, m.IsOpen(testProvider))
	require.Equal(t, breaker.StateHalfOpen, m.StateOf(testProvider))

	// A failure while half-open keeps the counter above threshold; the
	// circuit never closed, so traffic is still suspect.
	m.RecordFailure(testProvider)
	assert.Equal(t, 4, m.Failures(testProvider))
	assert.NotEqual(t, breaker.StateClosed, m.StateOf(testProvider))
}

func TestCircuitsAreIndependent(t *testing.T) {
	t.Parallel()

	m := breaker.NewManager(nil)

	for i := 0; i < breaker.DefaultFailureThreshold; i++ {
		m.RecordFailure("prov-a")
	}

	assert.True(t, m.IsOpen("prov-a"))
	assert.False(t, m.IsOpen("prov-b"))
}

func TestStateChangeObserver(t *testing.T) {
	t.Parallel()

	var (
		mu          sync.Mutex
		transitions []string
	)
	m := breaker.NewManager(nil, breaker.WithStateChange(func(id string, from, to breaker.State) {
		mu.Lock()
		defer mu.Unlock()
		transitions = append(transitions, from.String()+"->"+to.String())
		assert.Equal(t, testProvider, id)
	}))

	for i := 0; i < breaker.DefaultFailureThreshold; i++ {
		m.RecordFailure(testProvider)
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, transitions, 1)
	assert.Equal(t, "closed->open", transitions[0])
}

func TestConcurrentRecording(t *testing.T) {
	t.Parallel()

	m := breaker.NewManager(nil, breaker.WithThreshold(1_000_000))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				m.RecordFailure(testProvider)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				m.IsOpen(testProvider)
			}
		}()
	}
	wg.Wait()

	// 8 goroutines x 500 failures, no successes: no lost updates.
	assert.Equal(t, 4000, m.Failures(testProvider))
}
