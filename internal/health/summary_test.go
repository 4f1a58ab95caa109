package health_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelmux/modelmux/internal/domain"
)

func TestOrgSummaryEmpty(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	sum, err := f.monitor.OrgSummary(context.Background(), org)
	require.NoError(t, err)
	assert.Equal(t, domain.HealthHealthy, sum.Overall)
	assert.Empty(t, sum.Providers)
	assert.Zero(t, sum.Total)
	assert.Zero(t, sum.AvgResponseTimeMS)
	assert.Zero(t, sum.AvgUptime)
}

func TestOrgSummaryCountsAndOverall(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	f.addProvider(t, "good-1")
	f.addProvider(t, "good-2")
	f.addProvider(t, "bad")

	_, err := f.monitor.CheckNow(ctx, "good-1", org)
	require.NoError(t, err)
	_, err = f.monitor.CheckNow(ctx, "good-2", org)
	require.NoError(t, err)

	f.adapter.setFail(true)
	_, err = f.monitor.CheckNow(ctx, "bad", org)
	require.NoError(t, err)

	sum, err := f.monitor.OrgSummary(ctx, org)
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 2, sum.Healthy)
	assert.Equal(t, 1, sum.Unhealthy)
	assert.Equal(t, domain.HealthDegraded, sum.Overall,
		"any unhealthy provider degrades the organization")
	assert.InDelta(t, 2.0/3.0, sum.AvgUptime, 0.001,
		"two providers at full uptime, one at zero")
}

func TestOrgSummaryMajorityUnhealthy(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	f.addProvider(t, "good")
	f.addProvider(t, "bad-1")
	f.addProvider(t, "bad-2")

	_, err := f.monitor.CheckNow(ctx, "good", org)
	require.NoError(t, err)

	f.adapter.setFail(true)
	_, err = f.monitor.CheckNow(ctx, "bad-1", org)
	require.NoError(t, err)
	_, err = f.monitor.CheckNow(ctx, "bad-2", org)
	require.NoError(t, err)

	sum, err := f.monitor.OrgSummary(ctx, org)
	require.NoError(t, err)
	assert.Equal(t, domain.HealthUnhealthy, sum.Overall)
}

func TestOrgSummaryFallsBackToSnapshot(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	// Never probed in this process, but carries a persisted snapshot.
	err := f.store.SaveProvider(ctx, &domain.Provider{
		ID:       "restored",
		OrgID:    org,
		Name:     "restored",
		Kind:     domain.KindOpenAI,
		Priority: 500,
		Active:   true,
		Status:   domain.StatusActive,
		LastHealth: &domain.HealthSnapshot{
			Status:         domain.HealthHealthy,
			ResponseTimeMS: 420,
			Uptime:         0.99,
			CheckedAt:      time.Now().Add(-time.Hour),
		},
	})
	require.NoError(t, err)

	sum, err := f.monitor.OrgSummary(ctx, org)
	require.NoError(t, err)
	require.Len(t, sum.Providers, 1)
	assert.Equal(t, domain.HealthHealthy, sum.Providers[0].Status)
	assert.Equal(t, 420.0, sum.Providers[0].ResponseTimeMS)
	assert.Equal(t, 1, sum.Total)
	assert.InDelta(t, 420.0, sum.AvgResponseTimeMS, 0.001,
		"snapshot values feed the organization averages")
	assert.InDelta(t, 0.99, sum.AvgUptime, 0.001)
}

func TestOrgSummaryUnknownProviderCountsDegraded(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addProvider(t, "never-checked")

	sum, err := f.monitor.OrgSummary(context.Background(), org)
	require.NoError(t, err)
	require.Len(t, sum.Providers, 1)
	assert.Equal(t, domain.HealthDegraded, sum.Providers[0].Status,
		"a provider with no observations must not be assumed healthy")
	assert.Equal(t, domain.HealthDegraded, sum.Overall)
}
