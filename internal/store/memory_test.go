package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelmux/modelmux/internal/domain"
	"github.com/modelmux/modelmux/internal/store"
)

func seedProvider(t *testing.T, s *store.MemoryProviderStore, id, orgID string, priority int, routable bool) {
	t.Helper()
	status := domain.StatusActive
	if !routable {
		status = domain.StatusError
	}
	err := s.SaveProvider(context.Background(), &domain.Provider{
		ID:       id,
		OrgID:    orgID,
		Name:     id,
		Kind:     domain.KindAnthropic,
		Priority: priority,
		Active:   true,
		Status:   status,
	})
	require.NoError(t, err)
}

func TestListActiveProvidersOrderAndFiltering(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryProviderStore()
	seedProvider(t, s, "low", "org-1", 100, true)
	seedProvider(t, s, "high", "org-1", 900, true)
	seedProvider(t, s, "mid", "org-1", 500, true)
	seedProvider(t, s, "errored", "org-1", 1000, false)
	seedProvider(t, s, "other-org", "org-2", 1000, true)

	providers, err := s.ListActiveProviders(context.Background(), "org-1")
	require.NoError(t, err)

	ids := make([]string, len(providers))
	for i, p := range providers {
		ids[i] = p.ID
	}
	assert.Equal(t, []string{"high", "mid", "low"}, ids)
}

func TestGetProviderScopedToOrg(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryProviderStore()
	seedProvider(t, s, "p1", "org-1", 500, true)

	p, err := s.GetProvider(context.Background(), "p1", "org-1")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)

	_, err = s.GetProvider(context.Background(), "p1", "org-2")
	assert.ErrorIs(t, err, store.ErrProviderNotFound)

	_, err = s.GetProvider(context.Background(), "missing", "org-1")
	assert.ErrorIs(t, err, store.ErrProviderNotFound)
}

func TestAppendRoutingRule(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryProviderStore()
	seedProvider(t, s, "p1", "org-1", 500, true)

	rule := domain.RoutingRule{ID: "r1", Name: "prefer", Priority: 800, TargetProviderID: "p1", Active: true}
	require.NoError(t, s.AppendRoutingRule(context.Background(), "p1", "org-1", rule))

	p, err := s.GetProvider(context.Background(), "p1", "org-1")
	require.NoError(t, err)
	require.Len(t, p.Rules, 1)
	assert.Equal(t, "r1", p.Rules[0].ID)

	err = s.AppendRoutingRule(context.Background(), "nope", "org-1", rule)
	assert.ErrorIs(t, err, store.ErrProviderNotFound)
}

func TestReturnedProvidersAreCopies(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryProviderStore()
	seedProvider(t, s, "p1", "org-1", 500, true)

	p, err := s.GetProvider(context.Background(), "p1", "org-1")
	require.NoError(t, err)
	p.Priority = 1
	p.Rules = append(p.Rules, domain.RoutingRule{ID: "junk"})

	fresh, err := s.GetProvider(context.Background(), "p1", "org-1")
	require.NoError(t, err)
	assert.Equal(t, 500, fresh.Priority)
	assert.Empty(t, fresh.Rules)
}
