package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/modelmux/modelmux/internal/domain"
)

func TestConditionMatching(t *testing.T) {
	t.Parallel()

	req := domain.SelectionRequest{
		OrgID:             "org-1",
		UserID:            "user-7",
		ExecutionKind:     domain.ExecAgent,
		Model:             "claude-sonnet-4",
		EstimatedCost:     2.5,
		MaxResponseTimeMS: 8000,
	}

	tests := []struct {
		name string
		cond domain.Condition
		want bool
	}{
		{"model equals match", domain.ModelEquals{Model: "claude-sonnet-4"}, true},
		{"model equals mismatch", domain.ModelEquals{Model: "gpt-4o"}, false},
		{"execution kind match", domain.ExecutionKindEquals{ExecutionKind: domain.ExecAgent}, true},
		{"execution kind mismatch", domain.ExecutionKindEquals{ExecutionKind: domain.ExecTool}, false},
		{"cost under threshold", domain.CostUnder{MaxCost: 3}, true},
		{"cost over threshold", domain.CostUnder{MaxCost: 2}, false},
		{"latency requirement satisfied", domain.LatencyUnder{MaxResponseTimeMS: 5000}, true},
		{"latency requirement too strict", domain.LatencyUnder{MaxResponseTimeMS: 10000}, false},
		{"org scope match", domain.OrgScope{OrgID: "org-1"}, true},
		{"org scope mismatch", domain.OrgScope{OrgID: "org-2"}, false},
		{"user scope match", domain.UserScope{UserID: "user-7"}, true},
		{"user scope mismatch", domain.UserScope{UserID: "user-8"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.cond.Matches(req))
		})
	}
}

func TestCostConditionIgnoresUnknownCost(t *testing.T) {
	t.Parallel()

	req := domain.SelectionRequest{OrgID: "org-1"}

	assert.False(t, domain.CostUnder{MaxCost: 100}.Matches(req),
		"request without a cost estimate should not match a cost condition")
	assert.False(t, domain.LatencyUnder{MaxResponseTimeMS: 100}.Matches(req),
		"request without a latency requirement should not match a latency condition")
}

func TestRuleMatchesRequest(t *testing.T) {
	t.Parallel()

	req := domain.SelectionRequest{
		OrgID:         "org-1",
		ExecutionKind: domain.ExecWorkflow,
		Model:         "claude-haiku-4",
	}

	all := domain.RoutingRule{
		Conditions: []domain.Condition{
			domain.ModelEquals{Model: "claude-haiku-4"},
			domain.ExecutionKindEquals{ExecutionKind: domain.ExecWorkflow},
		},
	}
	assert.True(t, all.MatchesRequest(req))

	partial := domain.RoutingRule{
		Conditions: []domain.Condition{
			domain.ModelEquals{Model: "claude-haiku-4"},
			domain.ExecutionKindEquals{ExecutionKind: domain.ExecTool},
		},
	}
	assert.False(t, partial.MatchesRequest(req), "every specified condition must hold")

	unconditional := domain.RoutingRule{}
	assert.True(t, unconditional.MatchesRequest(req), "a rule with no conditions matches everything")
}

func TestSupportsModel(t *testing.T) {
	t.Parallel()

	open := domain.ProviderConfig{}
	assert.True(t, open.SupportsModel("anything"))

	scoped := domain.ProviderConfig{Models: []string{"claude-sonnet-4", "claude-haiku-4"}}
	assert.True(t, scoped.SupportsModel("claude-haiku-4"))
	assert.False(t, scoped.SupportsModel("gpt-4o"))
}
