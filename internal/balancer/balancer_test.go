package balancer_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelmux/modelmux/internal/balancer"
	"github.com/modelmux/modelmux/internal/domain"
)

func healthyProvider(id string, priority int) domain.Provider {
	return domain.Provider{
		ID:       id,
		OrgID:    "org-1",
		Priority: priority,
		Active:   true,
		Status:   domain.StatusActive,
		LastHealth: &domain.HealthSnapshot{
			Status:    domain.HealthHealthy,
			Uptime:    1,
			CheckedAt: time.Now(),
		},
	}
}

func TestPickEmpty(t *testing.T) {
	t.Parallel()

	b := balancer.New(nil)
	_, err := b.Pick(nil)
	assert.ErrorIs(t, err, balancer.ErrNoCandidates)
}

func TestPickSingleCandidateSkipsDraw(t *testing.T) {
	t.Parallel()

	// A rand source that panics proves the degenerate case never draws.
	b := balancer.New(nil, balancer.WithRand(func() float64 {
		panic("draw on single candidate")
	}))

	p, err := b.Pick([]domain.Provider{healthyProvider("only", 500)})
	require.NoError(t, err)
	assert.Equal(t, "only", p.ID)
}

// Over a large number of draws, each provider's selection frequency
// converges to weight / total weight within a small tolerance.
func TestPickConvergesToWeights(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	b := balancer.New(nil, balancer.WithRand(rng.Float64))

	candidates := []domain.Provider{
		healthyProvider("a", 1000),
		healthyProvider("b", 600),
		healthyProvider("c", 200),
	}

	total := 0.0
	for _, p := range candidates {
		total += balancer.Weight(p)
	}

	const draws = 100_000
	counts := make(map[string]int, len(candidates))
	for i := 0; i < draws; i++ {
		p, err := b.Pick(candidates)
		require.NoError(t, err)
		counts[p.ID]++
	}

	for _, p := range candidates {
		expected := balancer.Weight(p) / total
		observed := float64(counts[p.ID]) / draws
		assert.InDelta(t, expected, observed, 0.01,
			"provider %s: expected %.3f observed %.3f", p.ID, expected, observed)
	}
}

func TestPickFavorsHighPriority(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	b := balancer.New(nil, balancer.WithRand(rng.Float64))

	candidates := []domain.Provider{
		healthyProvider("high", 900),
		healthyProvider("low", 100),
	}

	const draws = 1000
	high := 0
	for i := 0; i < draws; i++ {
		p, err := b.Pick(candidates)
		require.NoError(t, err)
		if p.ID == "high" {
			high++
		}
	}

	// Expected ratio is 9:1; allow generous slack for a finite sample.
	assert.Greater(t, high, draws*8/10, "high-priority provider picked only %d/%d times", high, draws)
}

func TestPickNeverSelectsZeroWeight(t *testing.T) {
	t.Parallel()

	// Even a fully unhealthy provider keeps the 0.1 floor, so it can
	// still win occasionally; it must at least be a legal outcome.
	rng := rand.New(rand.NewSource(99))
	b := balancer.New(nil, balancer.WithRand(rng.Float64))

	sick := healthyProvider("sick", 1000)
	sick.LastHealth.Status = domain.HealthUnhealthy
	sick.LastHealth.ErrorRate = 1
	sick.LastHealth.Uptime = 0

	candidates := []domain.Provider{healthyProvider("ok", 1000), sick}

	seen := map[string]bool{}
	for i := 0; i < 10_000; i++ {
		p, err := b.Pick(candidates)
		require.NoError(t, err)
		seen[p.ID] = true
	}
	assert.True(t, seen["ok"])
	assert.True(t, seen["sick"], "floored weight should still be drawable")
}
