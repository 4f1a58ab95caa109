package routing

import (
	"context"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/modelmux/modelmux/internal/cache"
	"github.com/modelmux/modelmux/internal/domain"
	"github.com/modelmux/modelmux/internal/store"
)

// DefaultRuleTTL bounds how stale a cached rule list can be. Rule
// administration invalidates the owning organization's entry, so the TTL
// only matters for out-of-band store changes.
const DefaultRuleTTL = 5 * time.Minute

// RuleCache caches each organization's active routing rules, sorted by
// descending priority. Reader-heavy: selection hits it on every request,
// writes happen only on miss and invalidation on rule creation.
type RuleCache struct {
	cache *cache.TTL[[]domain.RoutingRule]
	store store.ProviderStore
}

// NewRuleCache creates a rule cache over the provider store.
func NewRuleCache(st store.ProviderStore, ttl time.Duration, log zerolog.Logger) (*RuleCache, error) {
	if ttl <= 0 {
		ttl = DefaultRuleTTL
	}
	c, err := cache.NewTTL[[]domain.RoutingRule](ttl, log)
	if err != nil {
		return nil, err
	}
	return &RuleCache{cache: c, store: st}, nil
}

// Rules returns the organization's active rules in descending priority
// order, loading from the store on a miss.
func (rc *RuleCache) Rules(ctx context.Context, orgID string) ([]domain.RoutingRule, error) {
	if rules, ok := rc.cache.Get(orgID); ok {
		return rules, nil
	}

	providers, err := rc.store.ListActiveProviders(ctx, orgID)
	if err != nil {
		return nil, err
	}

	rules := lo.FlatMap(providers, func(p domain.Provider, _ int) []domain.RoutingRule {
		return lo.Filter(p.Rules, func(r domain.RoutingRule, _ int) bool {
			return r.Active
		})
	})
	slices.SortStableFunc(rules, func(a, b domain.RoutingRule) int {
		return b.Priority - a.Priority
	})

	rc.cache.Set(orgID, rules)
	return rules, nil
}

// Invalidate evicts the organization's entry. Called by rule
// administration so a new rule is visible on the next selection.
func (rc *RuleCache) Invalidate(orgID string) {
	rc.cache.Invalidate(orgID)
}

// Close releases the underlying cache.
func (rc *RuleCache) Close() {
	rc.cache.Close()
}
