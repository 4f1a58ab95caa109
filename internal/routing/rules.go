package routing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/modelmux/modelmux/internal/domain"
	"github.com/modelmux/modelmux/internal/store"
)

// ErrRuleTargetNotFound is returned when rule administration references a
// provider that does not exist in the organization. Rejected at creation
// time, so selection never sees a dangling target.
var ErrRuleTargetNotFound = errors.New("routing: rule target provider not found")

// InvalidRulePriorityError is returned when a rule priority is outside
// the valid range.
type InvalidRulePriorityError struct {
	Priority int
}

func (e InvalidRulePriorityError) Error() string {
	return fmt.Sprintf("routing: rule priority must be %d-%d, got %d",
		domain.MinPriority, domain.MaxPriority, e.Priority)
}

// ConditionSpec is the open-ended wire form of rule conditions: every
// field is optional, and only set fields become conditions. It compiles
// into the closed condition variants matched at selection time.
type ConditionSpec struct {
	Model             string               `json:"model,omitempty" yaml:"model"`
	ExecutionKind     domain.ExecutionKind `json:"execution_kind,omitempty" yaml:"execution_kind"`
	MaxCost           float64              `json:"max_cost,omitempty" yaml:"max_cost"`
	MaxResponseTimeMS float64              `json:"max_response_time_ms,omitempty" yaml:"max_response_time_ms"`
	OrgID             string               `json:"org_id,omitempty" yaml:"org_id"`
	UserID            string               `json:"user_id,omitempty" yaml:"user_id"`
}

// Compile converts the spec into concrete conditions.
func (s ConditionSpec) Compile() []domain.Condition {
	var conds []domain.Condition
	if s.Model != "" {
		conds = append(conds, domain.ModelEquals{Model: s.Model})
	}
	if s.ExecutionKind != "" {
		conds = append(conds, domain.ExecutionKindEquals{ExecutionKind: s.ExecutionKind})
	}
	if s.MaxCost > 0 {
		conds = append(conds, domain.CostUnder{MaxCost: s.MaxCost})
	}
	if s.MaxResponseTimeMS > 0 {
		conds = append(conds, domain.LatencyUnder{MaxResponseTimeMS: s.MaxResponseTimeMS})
	}
	if s.OrgID != "" {
		conds = append(conds, domain.OrgScope{OrgID: s.OrgID})
	}
	if s.UserID != "" {
		conds = append(conds, domain.UserScope{UserID: s.UserID})
	}
	return conds
}

// RuleSpec describes a routing rule to create.
type RuleSpec struct {
	Name                string        `json:"name" yaml:"name"`
	Priority            int           `json:"priority" yaml:"priority"`
	Conditions          ConditionSpec `json:"conditions" yaml:"conditions"`
	TargetProviderID    string        `json:"target_provider_id" yaml:"target_provider_id"`
	FallbackProviderIDs []string      `json:"fallback_provider_ids,omitempty" yaml:"fallback_provider_ids"`
	// Active defaults to true when nil.
	Active *bool `json:"is_active,omitempty" yaml:"is_active"`
}

// CreateRule validates the spec, appends the rule to its target provider,
// persists it, and invalidates the organization's rule cache so the rule
// is live on the next selection.
func (e *Engine) CreateRule(ctx context.Context, orgID string, spec RuleSpec) (*domain.RoutingRule, error) {
	if spec.Name == "" {
		return nil, errors.New("routing: rule name is required")
	}
	if spec.Priority < domain.MinPriority || spec.Priority > domain.MaxPriority {
		return nil, InvalidRulePriorityError{Priority: spec.Priority}
	}

	if _, err := e.store.GetProvider(ctx, spec.TargetProviderID, orgID); err != nil {
		if errors.Is(err, store.ErrProviderNotFound) {
			return nil, ErrRuleTargetNotFound
		}
		return nil, fmt.Errorf("routing: look up rule target: %w", err)
	}

	active := true
	if spec.Active != nil {
		active = *spec.Active
	}

	rule := domain.RoutingRule{
		ID:                  uuid.NewString(),
		Name:                spec.Name,
		Priority:            spec.Priority,
		Conditions:          spec.Conditions.Compile(),
		TargetProviderID:    spec.TargetProviderID,
		FallbackProviderIDs: spec.FallbackProviderIDs,
		Active:              active,
	}

	if err := e.store.AppendRoutingRule(ctx, spec.TargetProviderID, orgID, rule); err != nil {
		return nil, fmt.Errorf("routing: persist rule: %w", err)
	}

	e.rules.Invalidate(orgID)

	e.logger.Info().
		Str("org", orgID).
		Str("rule", rule.ID).
		Str("target", rule.TargetProviderID).
		Int("priority", rule.Priority).
		Msg("routing rule created")

	return &rule, nil
}
