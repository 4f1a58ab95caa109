package store

import (
	"context"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/modelmux/modelmux/internal/domain"
)

// MemoryProviderStore is a mutex-guarded in-memory ProviderStore. It backs
// the binary's default configuration and the test suites; deployments with
// an external system of record implement ProviderStore against it instead.
type MemoryProviderStore struct {
	providers map[string]*domain.Provider
	mu        sync.RWMutex
}

var _ ProviderStore = (*MemoryProviderStore)(nil)

// NewMemoryProviderStore creates an empty store.
func NewMemoryProviderStore() *MemoryProviderStore {
	return &MemoryProviderStore{
		providers: make(map[string]*domain.Provider),
	}
}

// ListActiveProviders returns routable providers for the organization,
// ordered by descending priority. Returned values are copies; mutating
// them does not affect the store.
func (s *MemoryProviderStore) ListActiveProviders(ctx context.Context, orgID string) ([]domain.Provider, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	all := lo.Filter(lo.Values(s.providers), func(p *domain.Provider, _ int) bool {
		return p.OrgID == orgID && p.Routable()
	})
	result := lo.Map(all, func(p *domain.Provider, _ int) domain.Provider {
		return copyProvider(p)
	})
	s.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Priority > result[j].Priority
	})
	return result, nil
}

// GetProvider returns a copy of the provider, or ErrProviderNotFound.
func (s *MemoryProviderStore) GetProvider(ctx context.Context, id, orgID string) (*domain.Provider, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.providers[id]
	if !ok || p.OrgID != orgID {
		return nil, ErrProviderNotFound
	}
	cp := copyProvider(p)
	return &cp, nil
}

// SaveProvider upserts a provider record.
func (s *MemoryProviderStore) SaveProvider(ctx context.Context, p *domain.Provider) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := copyProvider(p)
	s.providers[p.ID] = &cp
	return nil
}

// AppendRoutingRule appends a rule to the provider's rule list.
func (s *MemoryProviderStore) AppendRoutingRule(ctx context.Context, providerID, orgID string, rule domain.RoutingRule) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.providers[providerID]
	if !ok || p.OrgID != orgID {
		return ErrProviderNotFound
	}
	p.Rules = append(p.Rules, rule)
	return nil
}

// copyProvider deep-copies the mutable parts of a provider record.
func copyProvider(p *domain.Provider) domain.Provider {
	cp := *p
	cp.Rules = append([]domain.RoutingRule(nil), p.Rules...)
	cp.Config.Models = append([]string(nil), p.Config.Models...)
	if p.LastHealth != nil {
		h := *p.LastHealth
		cp.LastHealth = &h
	}
	return cp
}
