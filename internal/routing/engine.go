// Package routing implements the selection engine: given an
// organization's providers, its routing rules, and the live circuit
// breaker state, decide which provider handles a request.
//
// Selection order:
//
//  1. Active providers are loaded fresh from the store (descending
//     priority), so activation changes are visible immediately.
//  2. Rules are evaluated in descending priority; the first matching rule
//     whose target circuit is not open wins, otherwise its fallbacks are
//     walked in order.
//  3. With no usable rule, a health-weighted random draw over the
//     remaining non-open providers decides.
package routing

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/modelmux/modelmux/internal/balancer"
	"github.com/modelmux/modelmux/internal/breaker"
	"github.com/modelmux/modelmux/internal/domain"
	"github.com/modelmux/modelmux/internal/store"
	"github.com/modelmux/modelmux/internal/telemetry"
)

// ErrNoProvidersAvailable is returned when no active, non-circuit-open,
// model-compatible provider exists for the request. Fatal to the caller:
// retry policy belongs to the layer that invoked routing.
var ErrNoProvidersAvailable = errors.New("routing: no providers available")

// Engine orchestrates rule matching, circuit breaking, and load
// balancing. Safe for concurrent use; it holds no per-request state.
type Engine struct {
	store    store.ProviderStore
	rules    *RuleCache
	breakers *breaker.Manager
	lb       *balancer.Balancer
	metrics  *telemetry.Metrics
	logger   zerolog.Logger
}

// NewEngine creates a routing engine. metrics may be nil.
func NewEngine(
	st store.ProviderStore,
	rules *RuleCache,
	breakers *breaker.Manager,
	lb *balancer.Balancer,
	metrics *telemetry.Metrics,
	logger zerolog.Logger,
) *Engine {
	return &Engine{
		store:    st,
		rules:    rules,
		breakers: breakers,
		lb:       lb,
		metrics:  metrics,
		logger:   logger,
	}
}

// Breakers exposes the circuit breaker manager so callers can report the
// outcome of the provider call they perform with the selected provider.
func (e *Engine) Breakers() *breaker.Manager {
	return e.breakers
}

// SelectProvider answers "which provider handles this request". The only
// side effect is rule cache population.
func (e *Engine) SelectProvider(ctx context.Context, req domain.SelectionRequest) (*domain.Provider, error) {
	providers, err := e.store.ListActiveProviders(ctx, req.OrgID)
	if err != nil {
		return nil, fmt.Errorf("routing: list active providers: %w", err)
	}
	if len(providers) == 0 {
		e.countSelection(telemetry.OutcomeNone)
		return nil, ErrNoProvidersAvailable
	}

	byID := lo.SliceToMap(providers, func(p domain.Provider) (string, domain.Provider) {
		return p.ID, p
	})

	rules, err := e.rules.Rules(ctx, req.OrgID)
	if err != nil {
		// Rules are an optimization over load balancing; selection can
		// proceed without them.
		e.logger.Warn().Err(err).Str("org", req.OrgID).Msg("rule lookup failed, falling back to load balancer")
		rules = nil
	}

	for _, rule := range rules {
		if !rule.MatchesRequest(req) {
			continue
		}
		if p, ok := byID[rule.TargetProviderID]; ok && !e.breakers.IsOpen(p.ID) {
			e.countSelection(telemetry.OutcomeRule)
			e.logSelection(req, p, "rule", rule.ID)
			return &p, nil
		}
		if fb, ok := e.pickFallback(rule, byID, req.Model); ok {
			e.countSelection(telemetry.OutcomeFallback)
			e.logSelection(req, fb, "fallback", rule.ID)
			return &fb, nil
		}
	}

	selected, err := e.balance(providers, req)
	if err != nil {
		e.countSelection(telemetry.OutcomeNone)
		return nil, err
	}
	e.countSelection(telemetry.OutcomeBalancer)
	e.logSelection(req, *selected, "balancer", "")
	return selected, nil
}

// pickFallback walks a rule's fallback list and returns the first
// provider that is active, not circuit-open, and (when the request names
// a model) not excluded by the model filter.
func (e *Engine) pickFallback(rule domain.RoutingRule, byID map[string]domain.Provider, model string) (domain.Provider, bool) {
	for _, id := range rule.FallbackProviderIDs {
		p, ok := byID[id]
		if !ok {
			continue
		}
		if e.breakers.IsOpen(id) {
			continue
		}
		if model != "" && !p.Config.SupportsModel(model) {
			continue
		}
		return p, true
	}
	return domain.Provider{}, false
}

// balance draws over all non-open providers, preferring those that
// support the requested model when at least one does.
func (e *Engine) balance(providers []domain.Provider, req domain.SelectionRequest) (*domain.Provider, error) {
	candidates := lo.Filter(providers, func(p domain.Provider, _ int) bool {
		return !e.breakers.IsOpen(p.ID)
	})
	if len(candidates) == 0 {
		return nil, ErrNoProvidersAvailable
	}

	if req.Model != "" {
		supporting := lo.Filter(candidates, func(p domain.Provider, _ int) bool {
			return p.Config.SupportsModel(req.Model)
		})
		if len(supporting) > 0 {
			candidates = supporting
		}
	}

	selected, err := e.lb.Pick(candidates)
	if err != nil {
		return nil, ErrNoProvidersAvailable
	}
	return &selected, nil
}

func (e *Engine) countSelection(outcome string) {
	if e.metrics != nil {
		e.metrics.Selections.WithLabelValues(outcome).Inc()
	}
}

func (e *Engine) logSelection(req domain.SelectionRequest, p domain.Provider, via, ruleID string) {
	event := e.logger.Debug().
		Str("org", req.OrgID).
		Str("execution_kind", string(req.ExecutionKind)).
		Str("provider", p.ID).
		Str("via", via)
	if req.Model != "" {
		event = event.Str("model", req.Model)
	}
	if ruleID != "" {
		event = event.Str("rule", ruleID)
	}
	event.Msg("provider selected")
}
